package decks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/internal/inventory"
	"github.com/netdecker/netdecker-backend/pkg/db"
	"github.com/netdecker/netdecker-backend/pkg/db/models"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes deck registry operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*DeckDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DeckDTO, error)
	GetByName(ctx context.Context, name string) (*DeckDTO, error)
	List(ctx context.Context) ([]DeckDTO, error)
	UpdateURL(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput holds the validated payload to register a deck.
type CreateInput struct {
	Name      string
	Format    string
	SourceURL string
}

// DeckDTO is the registry's read view of a deck, including its required list.
type DeckDTO struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Format    string         `json:"format"`
	SourceURL string         `json:"source_url,omitempty"`
	Cards     cardlist.Cards `json:"cards"`
}

type service struct {
	repo     *Repository
	store    *inventory.Store
	dbClient *db.Client
}

// NewService constructs a deck registry service.
func NewService(repo *Repository, store *inventory.Store, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deck repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, store: store, dbClient: dbClient}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DeckDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck name is required")
	}
	format := strings.TrimSpace(input.Format)
	if format == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deck format is required")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("deck %q already exists", name))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck")
	}

	deck := &models.Deck{
		ID:        uuid.New(),
		Name:      name,
		Format:    format,
		SourceURL: strings.TrimSpace(input.SourceURL),
	}
	created, err := s.repo.Create(ctx, deck)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("deck %q already exists", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert deck")
	}
	return &DeckDTO{
		ID:        created.ID,
		Name:      created.Name,
		Format:    created.Format,
		SourceURL: created.SourceURL,
		Cards:     cardlist.Cards{},
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DeckDTO, error) {
	deck, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deck not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck")
	}
	return s.toDTO(ctx, deck)
}

func (s *service) GetByName(ctx context.Context, name string) (*DeckDTO, error) {
	deck, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deck not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck")
	}
	return s.toDTO(ctx, deck)
}

func (s *service) List(ctx context.Context) ([]DeckDTO, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list decks")
	}
	out := make([]DeckDTO, 0, len(records))
	for i := range records {
		dto, err := s.toDTO(ctx, &records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *service) UpdateURL(ctx context.Context, id uuid.UUID, url string) error {
	deck, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "deck not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck")
	}
	deck.SourceURL = strings.TrimSpace(url)
	if err := s.repo.Update(ctx, deck); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update deck")
	}
	return nil
}

// Delete frees every allocation the deck holds, then removes the record. Both
// happen in one transaction so a failure cannot orphan an allocation.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "deck not found")
	} else if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck")
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.store.WithTx(tx).ReleaseDeck(ctx, id); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete deck")
		}
		return nil
	})
}

func (s *service) toDTO(ctx context.Context, deck *models.Deck) (*DeckDTO, error) {
	cards, err := s.repo.CardsFor(ctx, deck.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load deck cards")
	}
	return &DeckDTO{
		ID:        deck.ID,
		Name:      deck.Name,
		Format:    deck.Format,
		SourceURL: deck.SourceURL,
		Cards:     cards,
	}, nil
}
