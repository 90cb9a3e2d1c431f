package inventory

import (
	"context"
	"fmt"

	"github.com/netdecker/netdecker-backend/pkg/db"
	"gorm.io/gorm"
)

// Service exposes the inventory operations used by the API boundary. Each
// mutation runs in its own transaction; composition with deck updates happens
// through the Store inside the allocation service's transaction instead.
type Service interface {
	Add(ctx context.Context, name string, qty int) error
	Remove(ctx context.Context, name string, qty int) error
	FreeCount(ctx context.Context, name string) (int, error)
	Snapshot(ctx context.Context) ([]Entry, error)
}

type service struct {
	store    *Store
	dbClient *db.Client
}

// NewService constructs an inventory service instance.
func NewService(store *Store, dbClient *db.Client) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{store: store, dbClient: dbClient}, nil
}

func (s *service) Add(ctx context.Context, name string, qty int) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.store.WithTx(tx).Add(ctx, name, qty)
	})
}

func (s *service) Remove(ctx context.Context, name string, qty int) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.store.WithTx(tx).Remove(ctx, name, qty)
	})
}

func (s *service) FreeCount(ctx context.Context, name string) (int, error) {
	return s.store.FreeCount(ctx, name)
}

func (s *service) Snapshot(ctx context.Context) ([]Entry, error) {
	return s.store.Snapshot(ctx)
}
