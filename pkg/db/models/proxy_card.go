package models

import "time"

// ProxyCard tracks how many proxy copies of a card are owned. The name is the
// normalized card identifier and acts as the natural key; available copies are
// derived as owned minus the sum of CardAllocation rows.
type ProxyCard struct {
	Name      string    `gorm:"column:name;primaryKey"`
	OwnedQty  int       `gorm:"column:owned_qty;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProxyCard) TableName() string {
	return "proxy_cards"
}
