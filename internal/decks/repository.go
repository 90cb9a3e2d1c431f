package decks

import (
	"context"

	"github.com/google/uuid"
	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository wraps persistence for deck records and their required-list
// snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the deck without its card entries.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deck, error) {
	var deck models.Deck
	if err := r.db.WithContext(ctx).First(&deck, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deck, nil
}

// FindByName loads the deck by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Deck, error) {
	var deck models.Deck
	if err := r.db.WithContext(ctx).First(&deck, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &deck, nil
}

// List returns all decks ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Deck, error) {
	var decks []models.Deck
	if err := r.db.WithContext(ctx).Order("name").Find(&decks).Error; err != nil {
		return nil, err
	}
	return decks, nil
}

// Create inserts a new deck record.
func (r *Repository) Create(ctx context.Context, deck *models.Deck) (*models.Deck, error) {
	if err := r.db.WithContext(ctx).Create(deck).Error; err != nil {
		return nil, err
	}
	return deck, nil
}

// Update persists mutated deck metadata.
func (r *Repository) Update(ctx context.Context, deck *models.Deck) error {
	return r.db.WithContext(ctx).Save(deck).Error
}

// Delete removes the deck row; card entries cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("deck_id = ?", id).Delete(&models.DeckCard{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Deck{}, "id = ?", id).Error
}

// CardsFor returns the deck's required-list snapshot.
func (r *Repository) CardsFor(ctx context.Context, id uuid.UUID) (cardlist.Cards, error) {
	var entries []models.DeckCard
	if err := r.db.WithContext(ctx).Where("deck_id = ?", id).Find(&entries).Error; err != nil {
		return nil, err
	}
	cards := cardlist.Cards{}
	for _, entry := range entries {
		cards.Set(entry.CardName, entry.Qty)
	}
	return cards, nil
}

// ReplaceCards swaps the deck's required-list snapshot wholesale.
func (r *Repository) ReplaceCards(ctx context.Context, id uuid.UUID, cards cardlist.Cards) error {
	if err := r.db.WithContext(ctx).Where("deck_id = ?", id).Delete(&models.DeckCard{}).Error; err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}
	entries := make([]models.DeckCard, 0, len(cards))
	for _, name := range cards.SortedNames() {
		entries = append(entries, models.DeckCard{DeckID: id, CardName: name, Qty: cards[name]})
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}
