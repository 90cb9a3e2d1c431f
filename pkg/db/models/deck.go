package models

import (
	"time"

	"github.com/google/uuid"
)

// Deck is a tracked decklist. Cards holds the required-list snapshot from the
// most recent import; it is replaced wholesale on every update.
type Deck struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null;uniqueIndex"`
	Format    string     `gorm:"column:format;not null;index"`
	SourceURL string     `gorm:"column:source_url"`
	Cards     []DeckCard `gorm:"foreignKey:DeckID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Deck) TableName() string {
	return "decks"
}
