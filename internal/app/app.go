package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"venuebook/internal/config"
	"venuebook/internal/postgres"
	"venuebook/internal/redis"
	postgresrepo "venuebook/internal/repository/postgres"
	redisrepo "venuebook/internal/repository/redis"
	"venuebook/internal/service"
	"venuebook/internal/service/lifecycle"
	httpgin "venuebook/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	services   *service.Services
	pubsub     *redisrepo.BookingsPubSub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewBookingsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, redisrepo.RateLimitPrefix(), cfg.Booking.RateLimit, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	services := service.NewServices(store, cache, pubsub, limiter, logger, service.Config{
		Lifecycle: lifecycle.Config{PendingTTL: cfg.Booking.PendingTTL},
	})

	router := httpgin.NewRouter(services, idempotencyStore, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		services: services,
		pubsub:   pubsub,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Maintenance sweep: expire stale pending bookings, complete elapsed ones
	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.Booking.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				a.sweep(gCtx)
			}
		}
	})

	// Notification consumer: logs booking changes for downstream workers.
	// Delivery is best-effort; a dropped subscription only loses log lines.
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(_ context.Context, venueID int64, bookingID, status string) {
			a.logger.Info("booking changed",
				"venue_id", venueID,
				"booking_id", bookingID,
				"status", status,
			)
		})
		if err != nil && gCtx.Err() == nil {
			a.logger.Error("booking subscription closed", "error", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) sweep(ctx context.Context) {
	expired, err := a.services.Lifecycle.ExpirePending(ctx)
	if err != nil {
		a.logger.Error("failed to expire pending bookings", "error", err)
	} else if expired > 0 {
		a.logger.Info("expired pending bookings", "count", expired)
	}

	completed, err := a.services.Lifecycle.CompleteElapsed(ctx)
	if err != nil {
		a.logger.Error("failed to complete elapsed bookings", "error", err)
	} else if completed > 0 {
		a.logger.Info("completed elapsed bookings", "count", completed)
	}
}
