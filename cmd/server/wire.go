// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"session_broker_backend/internal/app"
	"session_broker_backend/internal/audit"
	"session_broker_backend/internal/config"
	"session_broker_backend/internal/firebase"
	"session_broker_backend/internal/jobs"
	"session_broker_backend/internal/metrics"
	"session_broker_backend/internal/platform/elasticsearch"
	"session_broker_backend/internal/profile"
	"session_broker_backend/internal/session"
	"session_broker_backend/internal/shared"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	elasticsearch.NewClient,
	metrics.NewRegistry,
	metrics.NewCollector,
	wire.Bind(new(metrics.Recorder), new(*metrics.Collector)),
)

var identitySet = wire.NewSet(
	firebase.NewFirebaseService,
	wire.Bind(new(shared.IdentityProvider), new(*firebase.FirebaseService)),
	profile.NewGORMRepository,
	profile.NewService,
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		platformSet,
		identitySet,

		// Audit trail
		audit.NewSink,
		audit.ProvideDispatcher,
		wire.Bind(new(audit.Emitter), new(*audit.Dispatcher)),

		// Session and profile routes
		provideTransport,
		provideSessionService,
		session.NewHandler,
		provideProfileHandler,
		provideRateLimiter,

		jobs.NewProfileReconcileJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

// initializeReconcileJob builds the job for the one-shot reconcile-profiles command.
func initializeReconcileJob(cfg *config.Config) (*jobs.ProfileReconcileJob, func(), error) {
	wire.Build(
		platformSet,
		identitySet,
		jobs.NewProfileReconcileJob,
	)
	return nil, nil, nil
}
