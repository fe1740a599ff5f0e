package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sayrikey1/Event-Booking-App/internal/audit"
	"github.com/Sayrikey1/Event-Booking-App/internal/config"
	"github.com/Sayrikey1/Event-Booking-App/internal/database"
	"github.com/Sayrikey1/Event-Booking-App/internal/handler"
	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
	"github.com/Sayrikey1/Event-Booking-App/internal/queue"
	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
	"github.com/Sayrikey1/Event-Booking-App/internal/router"
	"github.com/Sayrikey1/Event-Booking-App/internal/service"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	mailer := notify.NewMailer(cfg.Mail, log)
	direct := notify.ConfirmationSender{Mailer: mailer}

	var sinks notify.MultiSink
	var consumer *queue.Consumer
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL, log)
		defer pub.Close()
		sinks = append(sinks, pub)
		consumer = queue.NewConsumer(cfg.RabbitURL, direct.Deliver, log)
	} else {
		sinks = append(sinks, direct)
	}
	if cfg.MongoURI != "" {
		client, err := audit.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.WithError(err).Warn("mongo unavailable; audit trail disabled")
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			sinks = append(sinks, audit.NewSink(client.Database(cfg.MongoDB), log))
		}
	}
	dispatcher := notify.NewDispatcher(sinks, mailer, log, cfg.NotifyWorkers, cfg.NotifyQueueSize)

	e := router.New(buildDeps(cfg, log, db, dispatcher, rdb))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildDeps(cfg config.Config, log *logrus.Logger, db *sql.DB, n service.Notifier, rdb *redis.Client) router.Deps {
	inventory := repository.NewInventory(db)

	users := service.NewUserService(
		repository.NewUserRepo(db),
		repository.NewOTPRepo(db),
		repository.NewTokenRepo(db),
		n,
		service.AuthSettings{
			JWTSecret:      cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
			BcryptCost:     cfg.BcryptCost,
			OTPTTLMin:      cfg.OTPTTLMin,
			ResetTTLMin:    cfg.ResetTTLMin,
			FrontendURL:    cfg.FrontendURL,
		},
		log,
	)
	events := service.NewEventService(repository.NewEventRepo(db), inventory, n, log)
	bookings := service.NewBookingService(inventory, n, log)

	return router.Deps{
		Log:       log,
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		DB:        db,
		Auth:      handler.NewAuthHandler(users, log),
		Events:    handler.NewEventHandler(events, log),
		Bookings:  handler.NewBookingHandler(bookings, log),
	}
}
