package allocation

import (
	"context"

	"github.com/netdecker/netdecker-backend/internal/cardlist"
)

// Diff is the computed change set for one deck update. ToAllocate names free
// copies the deck will claim, ToFree names copies it returns to the pool, and
// ToOrder names the shortfall the user must proxy. A diff is immutable once
// computed: it is either applied in full or discarded (preview).
type Diff struct {
	ToAllocate cardlist.Cards `json:"to_allocate"`
	ToFree     cardlist.Cards `json:"to_free"`
	ToOrder    cardlist.Cards `json:"to_order"`
}

// HasChanges reports whether applying the diff would touch any state.
func (d Diff) HasChanges() bool {
	return len(d.ToAllocate) > 0 || len(d.ToFree) > 0 || len(d.ToOrder) > 0
}

// TotalToOrder returns the number of copies that must be ordered.
func (d Diff) TotalToOrder() int {
	return d.ToOrder.Total()
}

// FreeCounter reports unallocated copies per card. Satisfied by the inventory
// store; wrapped with an overlay during batch previews.
type FreeCounter interface {
	FreeCount(ctx context.Context, name string) (int, error)
}

// ComputeDiff compares a deck's old and new required lists against available
// inventory. For every card in either list it takes the per-name delta:
// a positive delta is granted from free copies up to availability, with the
// remainder becoming an order line; a negative delta is returned to the pool.
// The computation never mutates anything and is safe to repeat.
func ComputeDiff(ctx context.Context, old, next cardlist.Cards, free FreeCounter) (Diff, error) {
	diff := Diff{
		ToAllocate: cardlist.Cards{},
		ToFree:     cardlist.Cards{},
		ToOrder:    cardlist.Cards{},
	}

	names := old.Clone()
	names.Merge(next)

	for _, name := range names.SortedNames() {
		delta := next[name] - old[name]
		switch {
		case delta > 0:
			available, err := free.FreeCount(ctx, name)
			if err != nil {
				return Diff{}, err
			}
			grant := min(delta, available)
			diff.ToAllocate.Set(name, grant)
			diff.ToOrder.Set(name, delta-grant)
		case delta < 0:
			diff.ToFree.Set(name, -delta)
		}
	}

	return diff, nil
}

// overlayCounter adjusts free counts by quantities freed or claimed earlier in
// the same batch preview, so later decks see the state a real commit would
// have left behind.
type overlayCounter struct {
	base  FreeCounter
	delta map[string]int
}

func newOverlayCounter(base FreeCounter) *overlayCounter {
	return &overlayCounter{base: base, delta: map[string]int{}}
}

func (o *overlayCounter) FreeCount(ctx context.Context, name string) (int, error) {
	free, err := o.base.FreeCount(ctx, name)
	if err != nil {
		return 0, err
	}
	if free += o.delta[name]; free < 0 {
		free = 0
	}
	return free, nil
}

func (o *overlayCounter) record(diff Diff) {
	for name, qty := range diff.ToFree {
		o.delta[name] += qty
	}
	for name, qty := range diff.ToAllocate {
		o.delta[name] -= qty
	}
}
