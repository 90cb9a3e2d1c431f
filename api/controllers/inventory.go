package controllers

import (
	"net/http"

	"github.com/netdecker/netdecker-backend/api/responses"
	"github.com/netdecker/netdecker-backend/api/validators"
	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/internal/inventory"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"github.com/netdecker/netdecker-backend/pkg/logger"
)

// inventoryMutateRequest carries an MTGO-format card list, one
// "<qty> <name>" entry per line.
type inventoryMutateRequest struct {
	Cards string `json:"cards" validate:"required"`
}

// InventoryList returns every tracked card with owned, allocated, and free
// counts.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		entries, err := svc.Snapshot(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"cards": entries})
	}
}

// InventoryAdd records newly printed proxies.
func InventoryAdd(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryMutate(svc, logg, func(r *http.Request, svc inventory.Service, name string, qty int) error {
		return svc.Add(r.Context(), name, qty)
	})
}

// InventoryRemove retires proxies, refusing to drop below what decks hold.
func InventoryRemove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryMutate(svc, logg, func(r *http.Request, svc inventory.Service, name string, qty int) error {
		return svc.Remove(r.Context(), name, qty)
	})
}

func inventoryMutate(svc inventory.Service, logg *logger.Logger, op func(*http.Request, inventory.Service, string, int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var req inventoryMutateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cards, err := cardlist.ParseText(req.Cards)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(cards) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "card list is empty"))
			return
		}

		for _, name := range cards.SortedNames() {
			if err := op(r, svc, name, cards[name]); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, map[string]any{"cards": cards})
	}
}
