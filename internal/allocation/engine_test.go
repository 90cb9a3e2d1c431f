package allocation

import (
	"context"
	"testing"

	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCounter map[string]int

func (m mapCounter) FreeCount(_ context.Context, name string) (int, error) {
	return m[name], nil
}

func TestComputeDiffGrantsFromFreeCopies(t *testing.T) {
	t.Parallel()

	old := cardlist.Cards{"lightning bolt": 2}
	next := cardlist.Cards{"lightning bolt": 4}
	free := mapCounter{"lightning bolt": 3}

	diff, err := ComputeDiff(context.Background(), old, next, free)
	require.NoError(t, err)

	assert.Equal(t, cardlist.Cards{"lightning bolt": 2}, diff.ToAllocate)
	assert.Empty(t, diff.ToOrder)
	assert.Empty(t, diff.ToFree)
}

func TestComputeDiffSplitsShortfallIntoOrder(t *testing.T) {
	t.Parallel()

	next := cardlist.Cards{"brainstorm": 4}
	free := mapCounter{"brainstorm": 1}

	diff, err := ComputeDiff(context.Background(), cardlist.Cards{}, next, free)
	require.NoError(t, err)

	assert.Equal(t, 1, diff.ToAllocate["brainstorm"])
	assert.Equal(t, 3, diff.ToOrder["brainstorm"])
}

func TestComputeDiffFreesDroppedCopies(t *testing.T) {
	t.Parallel()

	old := cardlist.Cards{"island": 8, "ponder": 4}
	next := cardlist.Cards{"island": 5}

	diff, err := ComputeDiff(context.Background(), old, next, mapCounter{})
	require.NoError(t, err)

	assert.Equal(t, cardlist.Cards{"island": 3, "ponder": 4}, diff.ToFree)
	assert.Empty(t, diff.ToAllocate)
	assert.Empty(t, diff.ToOrder)
}

func TestComputeDiffMixedUpdate(t *testing.T) {
	t.Parallel()

	old := cardlist.Cards{"ponder": 4, "island": 6}
	next := cardlist.Cards{"ponder": 4, "island": 4, "brainstorm": 4}
	free := mapCounter{"brainstorm": 2}

	diff, err := ComputeDiff(context.Background(), old, next, free)
	require.NoError(t, err)

	// unchanged cards never appear in the diff
	assert.NotContains(t, diff.ToAllocate, "ponder")
	assert.NotContains(t, diff.ToFree, "ponder")

	assert.Equal(t, 2, diff.ToFree["island"])
	assert.Equal(t, 2, diff.ToAllocate["brainstorm"])
	assert.Equal(t, 2, diff.ToOrder["brainstorm"])
	assert.True(t, diff.HasChanges())
}

func TestComputeDiffNoChanges(t *testing.T) {
	t.Parallel()

	same := cardlist.Cards{"swamp": 10}
	diff, err := ComputeDiff(context.Background(), same, same.Clone(), mapCounter{})
	require.NoError(t, err)
	assert.False(t, diff.HasChanges())
	assert.Zero(t, diff.TotalToOrder())
}

func TestOverlayCounterThreadsFreesThroughBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	overlay := newOverlayCounter(mapCounter{"shock": 0})

	// first deck drops its shocks
	first, err := ComputeDiff(ctx, cardlist.Cards{"shock": 4}, cardlist.Cards{}, overlay)
	require.NoError(t, err)
	overlay.record(first)

	// second deck picks them up without ordering
	second, err := ComputeDiff(ctx, cardlist.Cards{}, cardlist.Cards{"shock": 4}, overlay)
	require.NoError(t, err)
	overlay.record(second)

	assert.Equal(t, 4, second.ToAllocate["shock"])
	assert.Empty(t, second.ToOrder)

	// a third claim finds the pool drained again
	free, err := overlay.FreeCount(ctx, "shock")
	require.NoError(t, err)
	assert.Zero(t, free)
}

func TestOverlayCounterClampsAtZero(t *testing.T) {
	t.Parallel()

	overlay := newOverlayCounter(mapCounter{"shock": 1})
	overlay.delta["shock"] = -5

	free, err := overlay.FreeCount(context.Background(), "shock")
	require.NoError(t, err)
	assert.Zero(t, free)
}
