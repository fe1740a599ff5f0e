package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Sayrikey1/Event-Booking-App/internal/config"
	"github.com/Sayrikey1/Event-Booking-App/internal/handler"
	"github.com/Sayrikey1/Event-Booking-App/internal/middleware"
)

// RegisterEvents registers /api/event. Reads are public and served from
// the response cache; organiser writes need a token and purge the cache.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string, cache config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/api/event")

	read := middleware.NewRedisCache(cache, rdb)
	g.GET("", h.List, read)
	g.GET("/:id", h.Get, read)

	write := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.PurgeCache(cache, rdb)}
	g.POST("/create", h.Create, write...)
	g.PATCH("/update", h.Update, write...)
	g.DELETE("/delete/:id", h.Delete, write...)
}
