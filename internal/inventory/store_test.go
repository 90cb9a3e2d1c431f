package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/netdecker/netdecker-backend/pkg/db/models"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.ProxyCard{}, &models.CardAllocation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(NewRepository(conn))
}

func TestAddAndFreeCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, "Lightning Bolt", 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, "lightning  bolt", 2); err != nil {
		t.Fatalf("add normalized: %v", err)
	}

	free, err := store.FreeCount(ctx, "LIGHTNING BOLT")
	if err != nil {
		t.Fatalf("free count: %v", err)
	}
	if free != 6 {
		t.Fatalf("expected 6 free copies, got %d", free)
	}

	if free, _ := store.FreeCount(ctx, "Unknown Card"); free != 0 {
		t.Fatalf("unknown card should have 0 free, got %d", free)
	}
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for _, qty := range []int{0, -3} {
		err := store.Add(ctx, "Island", qty)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("qty %d: expected validation error, got %v", qty, err)
		}
	}

	if err := store.Add(ctx, "   ", 1); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestRemoveRespectsAllocations(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	deckID := uuid.New()

	if err := store.Add(ctx, "Counterspell", 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Allocate(ctx, "Counterspell", deckID, 3); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	err := store.Remove(ctx, "Counterspell", 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficient {
		t.Fatalf("expected insufficient error removing allocated copies, got %v", err)
	}

	if err := store.Remove(ctx, "Counterspell", 1); err != nil {
		t.Fatalf("remove free copy: %v", err)
	}
	if free, _ := store.FreeCount(ctx, "Counterspell"); free != 0 {
		t.Fatalf("expected 0 free after remove, got %d", free)
	}
}

func TestAllocateAndDeallocateRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	deckID := uuid.New()

	if err := store.Add(ctx, "Island", 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := store.FreeCount(ctx, "Island")

	if err := store.Allocate(ctx, "Island", deckID, 3); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if free, _ := store.FreeCount(ctx, "Island"); free != before-3 {
		t.Fatalf("expected free %d after allocate, got %d", before-3, free)
	}

	if err := store.Deallocate(ctx, "Island", deckID, 3); err != nil {
		t.Fatalf("deallocate: %v", err)
	}
	if free, _ := store.FreeCount(ctx, "Island"); free != before {
		t.Fatalf("round trip should restore free count, got %d want %d", free, before)
	}

	// the zeroed allocation row must be gone
	if qty, _ := store.AllocationFor(ctx, "Island", deckID); qty != 0 {
		t.Fatalf("expected allocation removed, got %d", qty)
	}
}

func TestAllocateInsufficientFreeCopies(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, "Swamp", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := store.Allocate(ctx, "Swamp", uuid.New(), 3)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficient {
		t.Fatalf("expected insufficient error, got %v", err)
	}
}

func TestDeallocateMoreThanHeldIsFatal(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	deckID := uuid.New()

	if err := store.Add(ctx, "Forest", 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Allocate(ctx, "Forest", deckID, 2); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	err := store.Deallocate(ctx, "Forest", deckID, 3)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOverDeallocation {
		t.Fatalf("expected over-deallocation error, got %v", err)
	}

	err = store.Deallocate(ctx, "Forest", uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOverDeallocation {
		t.Fatalf("expected over-deallocation for unknown deck, got %v", err)
	}
}

func TestReleaseDeckFreesEverything(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	deckID := uuid.New()

	seed := map[string]int{"island": 4, "swamp": 2}
	for name, qty := range seed {
		if err := store.Add(ctx, name, qty); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		if err := store.Allocate(ctx, name, deckID, qty); err != nil {
			t.Fatalf("allocate %s: %v", name, err)
		}
	}

	if err := store.ReleaseDeck(ctx, deckID); err != nil {
		t.Fatalf("release deck: %v", err)
	}

	for name, qty := range seed {
		free, err := store.FreeCount(ctx, name)
		if err != nil {
			t.Fatalf("free count %s: %v", name, err)
		}
		if free != qty {
			t.Fatalf("expected %d free %s after release, got %d", qty, name, free)
		}
	}
}

func TestSnapshotInvariant(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	deckA, deckB := uuid.New(), uuid.New()

	if err := store.Add(ctx, "Brainstorm", 6); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Allocate(ctx, "Brainstorm", deckA, 2); err != nil {
		t.Fatalf("allocate a: %v", err)
	}
	if err := store.Allocate(ctx, "Brainstorm", deckB, 3); err != nil {
		t.Fatalf("allocate b: %v", err)
	}

	entries, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Owned != 6 || entry.Allocated != 5 || entry.Free != 1 {
		t.Fatalf("unexpected entry state: %+v", entry)
	}
	if entry.Owned < entry.Allocated || entry.Allocated < 0 {
		t.Fatalf("invariant violated: %+v", entry)
	}
	if entry.Allocations[deckA] != 2 || entry.Allocations[deckB] != 3 {
		t.Fatalf("unexpected allocations: %+v", entry.Allocations)
	}
}
