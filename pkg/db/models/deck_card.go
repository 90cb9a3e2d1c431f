package models

import "github.com/google/uuid"

// DeckCard is one required-list entry: the deck needs Qty copies of CardName.
type DeckCard struct {
	DeckID   uuid.UUID `gorm:"column:deck_id;type:uuid;primaryKey"`
	CardName string    `gorm:"column:card_name;primaryKey;index"`
	Qty      int       `gorm:"column:qty;not null;default:1"`
}

func (DeckCard) TableName() string {
	return "deck_cards"
}
