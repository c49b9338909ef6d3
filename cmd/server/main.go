// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"session_broker_backend/internal/config"
	"session_broker_backend/internal/platform/database"
	"session_broker_backend/internal/platform/logger"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrate(os.Args[2:])
			return
		case "reconcile-profiles":
			runReconcile(os.Args[2:])
			return
		}
	}

	// Default: Start server
	startServer()
}

func runMigrate(args []string) {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	down := migrateCmd.Int("down", 0, "Roll back this many migrations instead of applying pending ones")
	_ = migrateCmd.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for migrate: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for migrate: %v", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	if cfg.DBSource == "" {
		appLogger.Fatal("FATAL: DB_SOURCE must be set to run migrations")
	}

	if *down > 0 {
		m, err := database.NewMigrator(cfg.DBSource)
		if err != nil {
			appLogger.Fatal("FATAL: Failed to create migrator", zap.Error(err))
		}
		defer m.Close()
		if err := m.Steps(-*down); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			appLogger.Fatal("FATAL: Rollback failed", zap.Error(err), zap.Int("steps", *down))
		}
		appLogger.Info("Migrations rolled back.", zap.Int("steps", *down))
		return
	}

	if err := database.RunMigrations(cfg.DBSource); err != nil {
		appLogger.Fatal("FATAL: Migration failed", zap.Error(err))
	}
	appLogger.Info("Migrations applied successfully.")
}

func runReconcile(args []string) {
	reconcileCmd := flag.NewFlagSet("reconcile-profiles", flag.ExitOnError)
	timeout := reconcileCmd.Duration("timeout", 10*time.Minute, "Maximum duration of the reconcile run")
	_ = reconcileCmd.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for reconcile: %v", err)
	}

	job, cleanup, err := initializeReconcileJob(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize reconcile job: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	created, err := job.RunOnce(ctx)
	if err != nil {
		log.Printf("ERROR: Profile reconcile failed after creating %d profiles: %v", created, err)
		cleanup()
		os.Exit(1)
	}
	log.Printf("INFO: Profile reconcile created %d profiles.", created)
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
