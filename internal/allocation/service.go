package allocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/internal/decks"
	"github.com/netdecker/netdecker-backend/internal/inventory"
	"github.com/netdecker/netdecker-backend/internal/orders"
	"github.com/netdecker/netdecker-backend/pkg/db"
	"github.com/netdecker/netdecker-backend/pkg/db/models"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"github.com/netdecker/netdecker-backend/pkg/logger"
	"github.com/netdecker/netdecker-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Fetcher retrieves a normalized card list from a deck-source URL. Implemented
// by the decksource client; stubbed in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (cardlist.Cards, error)
}

// Service runs the allocation engine against the registry and inventory.
type Service interface {
	ComputeDeckUpdate(ctx context.Context, deckID uuid.UUID, required cardlist.Cards, preview bool) (*Diff, error)
	ComputeBatch(ctx context.Context, updates []DeckUpdate, preview bool) (*BatchResult, error)
	SyncDeck(ctx context.Context, req SyncRequest) (*BatchItem, error)
	SyncBatch(ctx context.Context, reqs []SyncRequest, preview bool) (*BatchResult, error)
}

// DeckUpdate is one pre-normalized batch entry.
type DeckUpdate struct {
	DeckID   uuid.UUID
	Required cardlist.Cards
}

// SyncRequest asks for a deck to be imported from its source URL and
// reconciled, creating the deck on first sight.
type SyncRequest struct {
	Name    string
	Format  string
	URL     string
	Preview bool
}

// BatchItem is the outcome for a single deck within a batch run.
type BatchItem struct {
	DeckID   uuid.UUID `json:"deck_id"`
	DeckName string    `json:"deck_name"`
	Format   string    `json:"format,omitempty"`
	Created  bool      `json:"created,omitempty"`
	Diff     Diff      `json:"diff"`
	Error    string    `json:"error,omitempty"`

	err error
}

// BatchResult collects per-deck outcomes and the aggregated order list.
// Decks commit independently: one failing deck does not roll back the others.
type BatchResult struct {
	Items []BatchItem       `json:"items"`
	Order *orders.Aggregate `json:"order"`
}

// CombinedError joins every per-deck failure, or nil when all decks succeeded.
func (r *BatchResult) CombinedError() error {
	var errs []error
	for _, item := range r.Items {
		if item.err != nil {
			errs = append(errs, fmt.Errorf("deck %s: %w", item.DeckName, item.err))
		}
	}
	return multierr.Combine(errs...)
}

type service struct {
	deckRepo *decks.Repository
	store    *inventory.Store
	dbClient *db.Client
	fetcher  Fetcher
	logg     *logger.Logger
	metrics  *metrics.AllocationMetrics
}

// NewService constructs the allocation service. Fetcher, logger, and metrics
// are optional; Sync operations fail without a fetcher.
func NewService(deckRepo *decks.Repository, store *inventory.Store, dbClient *db.Client, fetcher Fetcher, logg *logger.Logger, m *metrics.AllocationMetrics) (Service, error) {
	if deckRepo == nil {
		return nil, fmt.Errorf("deck repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		deckRepo: deckRepo,
		store:    store,
		dbClient: dbClient,
		fetcher:  fetcher,
		logg:     logg,
		metrics:  m,
	}, nil
}

// ComputeDeckUpdate diffs the deck's new required list against its stored
// snapshot and the inventory. When preview is false the diff is applied: frees
// first, then allocations from the replenished pool, then the snapshot swap,
// all in one transaction.
func (s *service) ComputeDeckUpdate(ctx context.Context, deckID uuid.UUID, required cardlist.Cards, preview bool) (*Diff, error) {
	started := time.Now()

	required, err := normalizeRequired(required)
	if err != nil {
		return nil, err
	}

	deck, err := s.deckRepo.FindByID(ctx, deckID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deck not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck")
	}

	old, err := s.deckRepo.CardsFor(ctx, deckID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck cards")
	}

	diff, err := ComputeDiff(ctx, old, required, s.store)
	if err != nil {
		return nil, err
	}

	mode := "apply"
	if preview {
		mode = "preview"
	}

	if !preview {
		if err := s.applyDiff(ctx, deck, required, diff); err != nil {
			s.metrics.IncUpdate(mode, "error")
			return nil, err
		}
	}

	s.metrics.IncUpdate(mode, "ok")
	s.metrics.ObserveDiff(mode, time.Since(started))
	if !preview {
		s.metrics.AddOrdered(diff.TotalToOrder())
	}

	if s.logg != nil {
		lctx := s.logg.WithDeck(ctx, deckID.String())
		lctx = s.logg.WithFields(lctx, map[string]any{
			"mode":        mode,
			"to_allocate": diff.ToAllocate.Total(),
			"to_free":     diff.ToFree.Total(),
			"to_order":    diff.TotalToOrder(),
		})
		s.logg.Info(lctx, "deck update computed")
	}

	return &diff, nil
}

// ComputeBatch processes decks strictly in order. Previews thread an overlay
// of pending frees/claims through the run so the result matches what a real
// sequential commit would produce; applies commit per deck and keep going on
// failure.
func (s *service) ComputeBatch(ctx context.Context, updates []DeckUpdate, preview bool) (*BatchResult, error) {
	result := &BatchResult{Order: orders.NewAggregate()}
	overlay := newOverlayCounter(s.store)

	for _, update := range updates {
		item := BatchItem{DeckID: update.DeckID}

		deck, err := s.deckRepo.FindByID(ctx, update.DeckID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				item.fail(pkgerrors.New(pkgerrors.CodeNotFound, "deck not found"))
			} else {
				item.fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck"))
			}
			result.Items = append(result.Items, item)
			continue
		}
		item.DeckName = deck.Name
		item.Format = deck.Format

		if preview {
			diff, err := s.previewAgainst(ctx, deck, update.Required, overlay)
			if err != nil {
				item.fail(err)
			} else {
				item.Diff = *diff
				result.Order.Merge(diff.ToOrder)
			}
		} else {
			diff, err := s.ComputeDeckUpdate(ctx, update.DeckID, update.Required, false)
			if err != nil {
				item.fail(err)
			} else {
				item.Diff = *diff
				result.Order.Merge(diff.ToOrder)
			}
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

// SyncDeck imports the deck's list from its source URL and reconciles it,
// registering the deck on first import.
func (s *service) SyncDeck(ctx context.Context, req SyncRequest) (*BatchItem, error) {
	if s.fetcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "deck source fetcher not configured")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck name is required")
	}
	format := strings.TrimSpace(req.Format)
	if format == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck format is required")
	}

	required, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	item := &BatchItem{DeckName: name, Format: format}

	deck, err := s.deckRepo.FindByName(ctx, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if req.Preview {
			// unseen deck: every card is an addition, nothing is freed
			diff, err := ComputeDiff(ctx, cardlist.Cards{}, required, s.store)
			if err != nil {
				return nil, err
			}
			item.Created = true
			item.Diff = diff
			return item, nil
		}
		deck = &models.Deck{ID: uuid.New(), Name: name, Format: format, SourceURL: req.URL}
		if _, err := s.deckRepo.Create(ctx, deck); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert deck")
		}
		item.Created = true
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck")
	}
	item.DeckID = deck.ID

	diff, err := s.ComputeDeckUpdate(ctx, deck.ID, required, req.Preview)
	if err != nil {
		return nil, err
	}
	item.Diff = *diff

	if !req.Preview && deck.SourceURL != req.URL {
		deck.SourceURL = req.URL
		if err := s.deckRepo.Update(ctx, deck); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update deck url")
		}
	}

	return item, nil
}

// SyncBatch runs SyncDeck for each request sequentially, collecting per-deck
// failures instead of aborting the run.
func (s *service) SyncBatch(ctx context.Context, reqs []SyncRequest, preview bool) (*BatchResult, error) {
	result := &BatchResult{Order: orders.NewAggregate()}

	for _, req := range reqs {
		req.Preview = preview
		item, err := s.SyncDeck(ctx, req)
		if err != nil {
			failed := BatchItem{DeckName: req.Name, Format: req.Format}
			failed.fail(err)
			result.Items = append(result.Items, failed)
			if s.logg != nil {
				lctx := s.logg.WithFields(ctx, map[string]any{"deck": req.Name, "url": req.URL})
				s.logg.Error(lctx, "deck sync failed", err)
			}
			continue
		}
		result.Items = append(result.Items, *item)
		result.Order.Merge(item.Diff.ToOrder)
	}

	return result, nil
}

func (s *service) previewAgainst(ctx context.Context, deck *models.Deck, required cardlist.Cards, overlay *overlayCounter) (*Diff, error) {
	required, err := normalizeRequired(required)
	if err != nil {
		return nil, err
	}
	old, err := s.deckRepo.CardsFor(ctx, deck.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck cards")
	}
	diff, err := ComputeDiff(ctx, old, required, overlay)
	if err != nil {
		return nil, err
	}
	overlay.record(diff)
	return &diff, nil
}

// applyDiff commits a computed diff. Frees run before allocations so copies a
// deck gives up can immediately fund its other needs; the snapshot swap lands
// in the same transaction so a crash cannot split them.
func (s *service) applyDiff(ctx context.Context, deck *models.Deck, required cardlist.Cards, diff Diff) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txStore := s.store.WithTx(tx)
		txDecks := s.deckRepo.WithTx(tx)

		for _, name := range diff.ToFree.SortedNames() {
			if err := txStore.Deallocate(ctx, name, deck.ID, diff.ToFree[name]); err != nil {
				return err
			}
		}
		for _, name := range diff.ToAllocate.SortedNames() {
			if err := txStore.Allocate(ctx, name, deck.ID, diff.ToAllocate[name]); err != nil {
				return err
			}
		}

		if err := txDecks.ReplaceCards(ctx, deck.ID, required); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace deck cards")
		}
		if err := txDecks.Update(ctx, deck); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: touch deck")
		}
		return nil
	})
}

func (b *BatchItem) fail(err error) {
	b.err = err
	b.Error = err.Error()
}

// normalizeRequired canonicalizes names and rejects malformed quantities.
// A zero quantity is treated as omission; negatives are refused outright.
func normalizeRequired(required cardlist.Cards) (cardlist.Cards, error) {
	out := make(cardlist.Cards, len(required))
	for name, qty := range required {
		if qty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
				WithDetails(map[string]any{"card": name, "qty": qty})
		}
		if qty == 0 {
			continue
		}
		key := cardlist.Normalize(name)
		if key == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card name is required")
		}
		out[key] += qty
	}
	return out, nil
}
