package models

import (
	"time"

	"github.com/google/uuid"
)

// CardAllocation assigns owned proxy copies of a card to a deck. A (card, deck)
// pair has at most one row; the row is removed once its quantity reaches zero.
type CardAllocation struct {
	CardName  string    `gorm:"column:card_name;primaryKey"`
	DeckID    uuid.UUID `gorm:"column:deck_id;type:uuid;primaryKey;index"`
	Qty       int       `gorm:"column:qty;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CardAllocation) TableName() string {
	return "card_allocations"
}
