package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Sayrikey1/Event-Booking-App/internal/config"
	"github.com/Sayrikey1/Event-Booking-App/internal/handler"
	"github.com/Sayrikey1/Event-Booking-App/internal/middleware"
)

// RegisterBookings registers /api/booking. Every route needs a token.
// Routes that move seats purge the cached event reads, since
// available_tickets changes with them.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, cache config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/api/booking", middleware.JWTAuth(jwtSecret))
	purge := middleware.PurgeCache(cache, rdb)

	g.GET("", h.List)
	g.GET("/waitlist", h.Waitlist)
	g.GET("/:id", h.Get)
	g.POST("/create", h.Create, purge)
	g.DELETE("/delete/:id", h.Delete, purge)
	g.DELETE("/event/:event_id", h.DeleteForEvent, purge)
	g.DELETE("/waitlist/:id", h.CancelWaitlist)
}
