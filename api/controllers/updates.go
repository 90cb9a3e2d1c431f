package controllers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/netdecker/netdecker-backend/api/responses"
	"github.com/netdecker/netdecker-backend/api/validators"
	"github.com/netdecker/netdecker-backend/internal/allocation"
	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/internal/export"
	"github.com/netdecker/netdecker-backend/internal/orders"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"github.com/netdecker/netdecker-backend/pkg/logger"
)

const (
	formatJSON    = "json"
	formatMPCFill = "mpcfill"
	formatReport  = "report"
)

type deckUpdateRequest struct {
	Cards   string `json:"cards" validate:"required"`
	Preview bool   `json:"preview"`
}

type batchUpdateRequest struct {
	Updates []batchUpdateEntry `json:"updates" validate:"required,min=1,dive"`
	Preview bool               `json:"preview"`
}

type batchUpdateEntry struct {
	DeckID string `json:"deck_id" validate:"required,uuid"`
	Cards  string `json:"cards" validate:"required"`
}

type syncRequest struct {
	Name    string `json:"name" validate:"required"`
	Format  string `json:"format" validate:"required"`
	URL     string `json:"url" validate:"required,url"`
	Preview bool   `json:"preview"`
}

type batchSyncRequest struct {
	Decks         []syncEntry `json:"decks" validate:"required,min=1,dive"`
	Preview       bool        `json:"preview"`
	Format        string      `json:"format" validate:"omitempty,oneof=json mpcfill report"`
	IncludeTokens bool        `json:"include_tokens"`
}

type syncEntry struct {
	Name   string `json:"name" validate:"required"`
	Format string `json:"format" validate:"required"`
	URL    string `json:"url" validate:"required,url"`
}

// DeckUpdate reconciles a deck against a pasted MTGO list. With preview set
// the diff is computed but nothing changes.
func DeckUpdate(svc allocation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}
		id, err := deckIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req deckUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		required, err := cardlist.ParseText(req.Cards)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		diff, err := svc.ComputeDeckUpdate(r.Context(), id, required, req.Preview)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deck_id": id, "preview": req.Preview, "diff": diff})
	}
}

// BatchUpdate reconciles several decks in order, sharing freed copies down
// the line.
func BatchUpdate(svc allocation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		var req batchUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := make([]allocation.DeckUpdate, 0, len(req.Updates))
		for _, entry := range req.Updates {
			update, err := entry.toUpdate()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			updates = append(updates, update)
		}

		result, err := svc.ComputeBatch(r.Context(), updates, req.Preview)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func (e batchUpdateEntry) toUpdate() (allocation.DeckUpdate, error) {
	id, err := parseDeckID(e.DeckID)
	if err != nil {
		return allocation.DeckUpdate{}, err
	}
	required, err := cardlist.ParseText(e.Cards)
	if err != nil {
		return allocation.DeckUpdate{}, err
	}
	return allocation.DeckUpdate{DeckID: id, Required: required}, nil
}

// DeckSync imports a deck from its source URL and reconciles it.
func DeckSync(svc allocation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		var req syncRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SyncDeck(r.Context(), allocation.SyncRequest{
			Name:    req.Name,
			Format:  req.Format,
			URL:     req.URL,
			Preview: req.Preview,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// BatchSync imports and reconciles a list of decks, returning the combined
// order as JSON, an MPCFill list, or a human-readable report.
func BatchSync(svc allocation.Service, tokens orders.TokenLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		var req batchSyncRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reqs := make([]allocation.SyncRequest, 0, len(req.Decks))
		for _, entry := range req.Decks {
			reqs = append(reqs, allocation.SyncRequest{
				Name:   entry.Name,
				Format: entry.Format,
				URL:    entry.URL,
			})
		}

		result, err := svc.SyncBatch(r.Context(), reqs, req.Preview)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if req.IncludeTokens && result.Order != nil {
			result.Order.ExpandTokens(r.Context(), tokens, logg)
		}

		switch strings.ToLower(req.Format) {
		case "", formatJSON:
			responses.WriteSuccess(w, result)
		case formatMPCFill:
			var buf bytes.Buffer
			opts := export.MPCFillOptions{IncludeGenericTokens: req.IncludeTokens}
			if err := export.WriteMPCFill(&buf, result.Order, opts); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering mpcfill list"))
				return
			}
			responses.WriteText(w, buf.String())
		case formatReport:
			var buf bytes.Buffer
			if err := export.WriteBatchReport(&buf, result); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering batch report"))
				return
			}
			responses.WriteText(w, buf.String())
		}
	}
}
