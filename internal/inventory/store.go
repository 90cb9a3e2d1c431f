package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/pkg/db/models"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"gorm.io/gorm"
)

// Store enforces the inventory invariant over the repository: for every card,
// owned >= sum of allocations >= 0, before and after each operation. All
// mutations must run inside the caller's transaction when composed with other
// writes; use WithTx to bind the store to it.
type Store struct {
	repo *Repository
}

// NewStore constructs a store over the given repository.
func NewStore(repo *Repository) *Store {
	return &Store{repo: repo}
}

// WithTx returns a store bound to the provided transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{repo: s.repo.WithTx(tx)}
}

// Add increases the owned count for a card, creating the row if needed.
func (s *Store) Add(ctx context.Context, name string, qty int) error {
	name, err := requireCard(name, qty)
	if err != nil {
		return err
	}

	card, err := s.repo.FindCard(ctx, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		card = &models.ProxyCard{Name: name}
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load card")
	}

	card.OwnedQty += qty
	if err := s.repo.SaveCard(ctx, card); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save card")
	}
	return nil
}

// Remove decreases the owned count. Copies currently allocated to a deck
// cannot be removed; callers must free them first.
func (s *Store) Remove(ctx context.Context, name string, qty int) error {
	name, err := requireCard(name, qty)
	if err != nil {
		return err
	}

	card, err := s.repo.FindCard(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return insufficientErr(name, qty, 0)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load card")
	}

	allocated, err := s.repo.AllocatedTotal(ctx, name)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum allocations")
	}

	free := card.OwnedQty - allocated
	if qty > free {
		return insufficientErr(name, qty, free)
	}

	card.OwnedQty -= qty
	if err := s.repo.SaveCard(ctx, card); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save card")
	}
	return nil
}

// FreeCount reports how many owned copies are not allocated to any deck.
// Unknown cards count as zero.
func (s *Store) FreeCount(ctx context.Context, name string) (int, error) {
	name = cardlist.Normalize(name)

	card, err := s.repo.FindCard(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load card")
	}

	allocated, err := s.repo.AllocatedTotal(ctx, name)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum allocations")
	}
	return card.OwnedQty - allocated, nil
}

// Allocate assigns free copies of a card to a deck.
func (s *Store) Allocate(ctx context.Context, name string, deckID uuid.UUID, qty int) error {
	name, err := requireCard(name, qty)
	if err != nil {
		return err
	}

	free, err := s.FreeCount(ctx, name)
	if err != nil {
		return err
	}
	if qty > free {
		return insufficientErr(name, qty, free)
	}

	alloc, err := s.repo.FindAllocation(ctx, name, deckID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		alloc = &models.CardAllocation{CardName: name, DeckID: deckID}
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load allocation")
	}

	alloc.Qty += qty
	if err := s.repo.SaveAllocation(ctx, alloc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save allocation")
	}
	return nil
}

// Deallocate returns allocated copies to the free pool. Deallocating more than
// the deck holds indicates a diff-computation bug and is reported as such.
func (s *Store) Deallocate(ctx context.Context, name string, deckID uuid.UUID, qty int) error {
	name, err := requireCard(name, qty)
	if err != nil {
		return err
	}

	alloc, err := s.repo.FindAllocation(ctx, name, deckID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return overDeallocationErr(name, deckID, qty, 0)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load allocation")
	}

	if qty > alloc.Qty {
		return overDeallocationErr(name, deckID, qty, alloc.Qty)
	}

	alloc.Qty -= qty
	if alloc.Qty == 0 {
		if err := s.repo.DeleteAllocation(ctx, name, deckID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete allocation")
		}
		return nil
	}
	if err := s.repo.SaveAllocation(ctx, alloc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save allocation")
	}
	return nil
}

// ReleaseDeck frees every allocation held by the deck.
func (s *Store) ReleaseDeck(ctx context.Context, deckID uuid.UUID) error {
	allocs, err := s.repo.AllocationsForDeck(ctx, deckID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list deck allocations")
	}
	for _, alloc := range allocs {
		if err := s.Deallocate(ctx, alloc.CardName, deckID, alloc.Qty); err != nil {
			return err
		}
	}
	return nil
}

// AllocationFor returns the quantity of a card allocated to the deck.
func (s *Store) AllocationFor(ctx context.Context, name string, deckID uuid.UUID) (int, error) {
	alloc, err := s.repo.FindAllocation(ctx, cardlist.Normalize(name), deckID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load allocation")
	}
	return alloc.Qty, nil
}

// Entry is the snapshot view of a single card's inventory state.
type Entry struct {
	Name        string            `json:"name"`
	Owned       int               `json:"owned"`
	Allocated   int               `json:"allocated"`
	Free        int               `json:"free"`
	Allocations map[uuid.UUID]int `json:"allocations,omitempty"`
}

// Snapshot returns the full inventory state, one entry per card, sorted by name.
func (s *Store) Snapshot(ctx context.Context) ([]Entry, error) {
	cards, err := s.repo.ListCards(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cards")
	}
	allocs, err := s.repo.ListAllocations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list allocations")
	}

	byCard := make(map[string]map[uuid.UUID]int)
	for _, alloc := range allocs {
		if byCard[alloc.CardName] == nil {
			byCard[alloc.CardName] = map[uuid.UUID]int{}
		}
		byCard[alloc.CardName][alloc.DeckID] = alloc.Qty
	}

	entries := make([]Entry, 0, len(cards))
	for _, card := range cards {
		allocated := 0
		for _, qty := range byCard[card.Name] {
			allocated += qty
		}
		entries = append(entries, Entry{
			Name:        card.Name,
			Owned:       card.OwnedQty,
			Allocated:   allocated,
			Free:        card.OwnedQty - allocated,
			Allocations: byCard[card.Name],
		})
	}
	return entries, nil
}

func requireCard(name string, qty int) (string, error) {
	normalized := cardlist.Normalize(name)
	if normalized == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "card name is required")
	}
	if qty < 1 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"card": normalized, "qty": qty})
	}
	return normalized, nil
}

func insufficientErr(name string, requested, free int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInsufficient,
		fmt.Sprintf("insufficient copies of %q: requested %d but only %d free", name, requested, free)).
		WithDetails(map[string]any{"card": name, "requested": requested, "free": free})
}

func overDeallocationErr(name string, deckID uuid.UUID, requested, held int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeOverDeallocation,
		fmt.Sprintf("deck holds %d copies of %q but %d were released", held, name, requested)).
		WithDetails(map[string]any{"card": name, "deck_id": deckID, "requested": requested, "held": held})
}
