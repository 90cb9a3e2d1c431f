package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/netdecker/netdecker-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository wraps persistence for proxy cards and their allocations.
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

// FindCard loads the proxy card row for a normalized name.
func (r *Repository) FindCard(ctx context.Context, name string) (*models.ProxyCard, error) {
	var card models.ProxyCard
	if err := r.db.WithContext(ctx).First(&card, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// SaveCard inserts or updates a proxy card row.
func (r *Repository) SaveCard(ctx context.Context, card *models.ProxyCard) error {
	return r.db.WithContext(ctx).Save(card).Error
}

// ListCards returns all proxy card rows ordered by name.
func (r *Repository) ListCards(ctx context.Context) ([]models.ProxyCard, error) {
	var cards []models.ProxyCard
	if err := r.db.WithContext(ctx).Order("name").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// AllocatedTotal sums the allocated quantity across all decks for a card.
func (r *Repository) AllocatedTotal(ctx context.Context, name string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.CardAllocation{}).
		Where("card_name = ?", name).
		Select("COALESCE(SUM(qty), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// FindAllocation loads the allocation row for a (card, deck) pair.
func (r *Repository) FindAllocation(ctx context.Context, name string, deckID uuid.UUID) (*models.CardAllocation, error) {
	var alloc models.CardAllocation
	err := r.db.WithContext(ctx).
		First(&alloc, "card_name = ? AND deck_id = ?", name, deckID).Error
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

// SaveAllocation inserts or updates an allocation row.
func (r *Repository) SaveAllocation(ctx context.Context, alloc *models.CardAllocation) error {
	return r.db.WithContext(ctx).Save(alloc).Error
}

// DeleteAllocation removes the allocation row for a (card, deck) pair.
func (r *Repository) DeleteAllocation(ctx context.Context, name string, deckID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("card_name = ? AND deck_id = ?", name, deckID).
		Delete(&models.CardAllocation{}).Error
}

// AllocationsForDeck returns every allocation row held by the deck.
func (r *Repository) AllocationsForDeck(ctx context.Context, deckID uuid.UUID) ([]models.CardAllocation, error) {
	var allocs []models.CardAllocation
	err := r.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("card_name").
		Find(&allocs).Error
	if err != nil {
		return nil, err
	}
	return allocs, nil
}

// ListAllocations returns all allocation rows.
func (r *Repository) ListAllocations(ctx context.Context) ([]models.CardAllocation, error) {
	var allocs []models.CardAllocation
	if err := r.db.WithContext(ctx).Order("card_name").Find(&allocs).Error; err != nil {
		return nil, err
	}
	return allocs, nil
}
