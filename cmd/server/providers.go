// File: cmd/server/providers.go
package main

import (
	"log"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"session_broker_backend/internal/audit"
	"session_broker_backend/internal/autherr"
	"session_broker_backend/internal/config"
	"session_broker_backend/internal/cookie"
	"session_broker_backend/internal/metrics"
	"session_broker_backend/internal/middleware"
	"session_broker_backend/internal/platform/database"
	"session_broker_backend/internal/platform/logger"
	"session_broker_backend/internal/profile"
	"session_broker_backend/internal/session"
	"session_broker_backend/internal/shared"
)

const rateLimitCleanupInterval = 5 * time.Minute

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("WARN: failed to sync logger: %v", err)
		}
	}, nil
}

func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { database.CloseGORMDB(db, logger) }, nil
}

func provideTransport(cfg *config.Config) *cookie.Transport {
	return cookie.NewTransport(cookie.DefaultPolicy(cfg.CookieDomain))
}

// provideSessionService gives the session routes the full auth rule table.
func provideSessionService(
	provider shared.IdentityProvider,
	profiles profile.Service,
	transport *cookie.Transport,
	emitter audit.Emitter,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *zap.Logger,
) session.Service {
	normalizer := autherr.New(autherr.AuthRules, cfg.IsDevelopment(), logger)
	return session.NewService(provider, profiles, transport, normalizer, emitter, recorder, logger)
}

// provideProfileHandler gives the user routes the reduced rule table.
func provideProfileHandler(profiles profile.Service, cfg *config.Config, logger *zap.Logger) *profile.Handler {
	normalizer := autherr.New(autherr.UserRules, cfg.IsDevelopment(), logger)
	return profile.NewHandler(profiles, normalizer, logger.Named("profile_handler"))
}

func provideRateLimiter(cfg *config.Config, logger *zap.Logger) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimitCleanupInterval, logger)
}
