package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netdecker/netdecker-backend/api/controllers"
	"github.com/netdecker/netdecker-backend/api/middleware"
	"github.com/netdecker/netdecker-backend/internal/allocation"
	"github.com/netdecker/netdecker-backend/internal/decks"
	"github.com/netdecker/netdecker-backend/internal/inventory"
	"github.com/netdecker/netdecker-backend/internal/orders"
	"github.com/netdecker/netdecker-backend/pkg/config"
	"github.com/netdecker/netdecker-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers. Cache, tokens, and
// metrics registry are optional.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Cache    controllers.Pinger
	Registry *prometheus.Registry

	Inventory  inventory.Service
	Decks      decks.Service
	Allocation allocation.Service
	Tokens     orders.TokenLookup
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, deps.Cache))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(deps.Inventory, deps.Logger))
			r.Post("/add", controllers.InventoryAdd(deps.Inventory, deps.Logger))
			r.Post("/remove", controllers.InventoryRemove(deps.Inventory, deps.Logger))
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", controllers.DeckList(deps.Decks, deps.Logger))
			r.Post("/", controllers.DeckCreate(deps.Decks, deps.Logger))
			r.Route("/{deckId}", func(r chi.Router) {
				r.Get("/", controllers.DeckGet(deps.Decks, deps.Logger))
				r.Delete("/", controllers.DeckDelete(deps.Decks, deps.Logger))
				r.Patch("/source", controllers.DeckUpdateSourceURL(deps.Decks, deps.Logger))
				r.Get("/export/cube", controllers.DeckExportCube(deps.Decks, deps.Logger))
				r.Post("/update", controllers.DeckUpdate(deps.Allocation, deps.Logger))
			})
		})

		r.Post("/sync", controllers.DeckSync(deps.Allocation, deps.Logger))
		r.Route("/batch", func(r chi.Router) {
			r.Post("/update", controllers.BatchUpdate(deps.Allocation, deps.Logger))
			r.Post("/sync", controllers.BatchSync(deps.Allocation, deps.Tokens, deps.Logger))
		})
	})

	return r
}
