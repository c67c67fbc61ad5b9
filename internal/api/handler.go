package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"floor-service-backend/internal/activity"
	"floor-service-backend/internal/floor"
	"floor-service-backend/internal/kitchen"
	"floor-service-backend/internal/ledger"
	"floor-service-backend/internal/menu"
	"floor-service-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	floor    *floor.Service
	ledger   *ledger.Service
	kitchen  *kitchen.Service
	catalog  menu.Catalog
	notifier *activity.Notifier
	webpush  *webpush.Options

	// needsAttentionAfter flags seated tables in the grid view once they
	// have waited this long. Zero disables the flag.
	needsAttentionAfter time.Duration
}

// Deps bundles what the API layer needs.
type Deps struct {
	Store               store.Store
	Floor               *floor.Service
	Ledger              *ledger.Service
	Kitchen             *kitchen.Service
	Catalog             menu.Catalog
	Notifier            *activity.Notifier
	Webpush             *webpush.Options
	NeedsAttentionAfter time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:               d.Store,
		floor:               d.Floor,
		ledger:              d.Ledger,
		kitchen:             d.Kitchen,
		catalog:             d.Catalog,
		notifier:            d.Notifier,
		webpush:             d.Webpush,
		needsAttentionAfter: d.NeedsAttentionAfter,
	}
}

// actor extracts the acting user from request headers. Authentication is
// handled upstream; these headers only feed the audit trail.
func actor(c *gin.Context) floor.Actor {
	return floor.Actor{
		ID:   c.GetHeader("X-Actor-Id"),
		Role: c.GetHeader("X-Actor-Role"),
	}
}
