package controllers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/netdecker/netdecker-backend/api/responses"
	"github.com/netdecker/netdecker-backend/api/validators"
	"github.com/netdecker/netdecker-backend/internal/decks"
	"github.com/netdecker/netdecker-backend/internal/export"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"github.com/netdecker/netdecker-backend/pkg/logger"
)

type deckCreateRequest struct {
	Name      string `json:"name" validate:"required"`
	Format    string `json:"format" validate:"required"`
	SourceURL string `json:"source_url" validate:"omitempty,url"`
}

type deckURLRequest struct {
	SourceURL string `json:"source_url" validate:"required,url"`
}

// DeckList returns every registered deck with its required list.
func DeckList(svc decks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deck service unavailable"))
			return
		}
		all, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"decks": all})
	}
}

// DeckCreate registers a deck with an empty required list.
func DeckCreate(svc decks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deck service unavailable"))
			return
		}

		var req deckCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deck, err := svc.Create(r.Context(), decks.CreateInput{
			Name:      strings.TrimSpace(req.Name),
			Format:    strings.TrimSpace(req.Format),
			SourceURL: strings.TrimSpace(req.SourceURL),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, deck)
	}
}

// DeckGet returns one deck by id.
func DeckGet(svc decks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deck service unavailable"))
			return
		}
		id, err := deckIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deck, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deck)
	}
}

// DeckDelete removes the deck and returns its cards to the free pool.
func DeckDelete(svc decks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deck service unavailable"))
			return
		}
		id, err := deckIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": id})
	}
}

// DeckUpdateSourceURL repoints the deck at a new source URL.
func DeckUpdateSourceURL(svc decks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deck service unavailable"))
			return
		}
		id, err := deckIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req deckURLRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateURL(r.Context(), id, strings.TrimSpace(req.SourceURL)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": id})
	}
}

// DeckExportCube downloads the deck's list as a CubeCobra upload CSV.
func DeckExportCube(svc decks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deck service unavailable"))
			return
		}
		id, err := deckIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deck, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := export.WriteCubeCSV(&buf, deck.Cards); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering cube csv"))
			return
		}
		responses.WriteCSV(w, slugify(deck.Name)+".csv", buf.String())
	}
}

func deckIDParam(r *http.Request) (uuid.UUID, error) {
	return parseDeckID(chi.URLParam(r, "deckId"))
}

func parseDeckID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid deck id").
			WithDetails(map[string]any{"deck_id": raw})
	}
	return id, nil
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
