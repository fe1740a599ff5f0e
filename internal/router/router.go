package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Sayrikey1/Event-Booking-App/internal/config"
	"github.com/Sayrikey1/Event-Booking-App/internal/handler"
	"github.com/Sayrikey1/Event-Booking-App/internal/middleware"
	"github.com/Sayrikey1/Event-Booking-App/internal/model"
)

// Deps is everything New needs to build the HTTP surface. Redis may be nil.
type Deps struct {
	Log       logrus.FieldLogger
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	DB        handler.Pinger

	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Bookings *handler.BookingHandler
}

// New returns an echo instance with global middleware and every route
// registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		echomw.Recover(),
		echomw.RequestID(),
		middleware.Tracing(),
		middleware.Metrics(),
		middleware.RequestLogger(d.Log),
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
	)

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.JWTSecret)
	RegisterEvents(e, d.Events, d.JWTSecret, d.Cache, d.Redis)
	RegisterBookings(e, d.Bookings, d.JWTSecret, d.Cache, d.Redis)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers account routes. Registration, verification, login,
// refresh and password reset are public; the rest need a valid access
// token, and listing users needs the ADMIN role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api")
	g.POST("/create", a.Register)
	g.POST("/verify-otp", a.VerifyOtp)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/forget-password", a.ForgetPassword)
	g.POST("/reset-password", a.ResetPassword)

	auth := middleware.JWTAuth(jwtSecret)
	g.POST("/logout", a.Logout, auth)
	g.GET("/user", a.Me, auth)
	g.GET("/users", a.List, auth, middleware.RequireRole(model.UserTypeAdmin))
	g.PATCH("/update", a.Update, auth)
	g.DELETE("/delete/:id", a.Delete, auth)
}
