package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"floor-service-backend/internal/mw"
)

// RouterConfig tunes the API middleware.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Hot polled reads (floor grid, kitchen queue, menu) serve short-lived
	// snapshots; mutations bypass the cache entirely.
	snapshots := cache.New(cfg.CacheTTL, 10*cfg.CacheTTL)
	caching := mw.Snapshot(snapshots, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/seatings", h.PostSeating)
		api.GET("/seatings/:id", h.GetSeating)
		api.POST("/seatings/:id/lines", h.PostSeatingLines)
		api.POST("/seatings/:id/cancel-line", h.PostSeatingCancelLine)
		api.POST("/seatings/:id/close", h.PostSeatingClose)

		api.POST("/tables/:id/ack-food-ready", h.PostAckFoodReady)
		api.POST("/tables/:id/assign-waiter", h.PostAssignWaiter)
		api.POST("/tables/club", h.PostClubTables)
		api.POST("/tables/unclub", h.PostUnclubTables)

		api.GET("/floors", GetFloors(h.store.DB()))
		api.GET("/floors/:floor_id/tables", caching, h.GetFloorTables)

		api.POST("/tickets", h.PostTicket)
		api.GET("/tickets", caching, h.GetTickets)
		api.POST("/tickets/:id/lines/:idx/advance", h.PostAdvanceTicketLine)
		api.DELETE("/tickets/:id/lines/:idx", h.DeleteTicketLine)

		api.GET("/menu", caching, h.GetMenu)
		api.GET("/activity", h.GetActivity)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
