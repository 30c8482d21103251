package service

import (
	"log/slog"

	"venuebook/internal/audit"
	postgres "venuebook/internal/repository/postgres"
	redis "venuebook/internal/repository/redis"
	"venuebook/internal/service/admission"
	"venuebook/internal/service/analytics"
	"venuebook/internal/service/availability"
	"venuebook/internal/service/lifecycle"
	"venuebook/internal/uow"
)

type Services struct {
	Availability *availability.Service
	Admission    *admission.Service
	Lifecycle    *lifecycle.Service
	Analytics    *analytics.Service
	Audit        *audit.Emitter
}

type Config struct {
	Availability availability.Config
	Lifecycle    lifecycle.Config
	Analytics    analytics.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.BookingsPubSub,
	limiter *redis.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	u := uow.NewUoW(store)
	auditor := audit.NewEmitter(store.Audit(), logger)

	return &Services{
		Availability: availability.New(store.Catalog(), store.Bookings(), cache, cfg.Availability),
		Admission:    admission.New(store.Catalog(), store.Bookings(), store.Payments(), auditor, u, cache, pubsub, limiter),
		Lifecycle:    lifecycle.New(store.Bookings(), store.Payments(), auditor, u, cache, pubsub, cfg.Lifecycle),
		Analytics:    analytics.New(store.Analytics(), cache, cfg.Analytics),
		Audit:        auditor,
	}
}
