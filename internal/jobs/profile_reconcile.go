// File: internal/jobs/profile_reconcile.go
package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"session_broker_backend/internal/common"
	"session_broker_backend/internal/config"
	"session_broker_backend/internal/metrics"
	"session_broker_backend/internal/profile"
	"session_broker_backend/internal/shared"
)

const reconcileRunTimeout = 10 * time.Minute

// ProfileReconcileJob backfills profile records for provider accounts that
// have none, which happens when Register could not roll back a sign-up.
type ProfileReconcileJob struct {
	provider      shared.IdentityProvider
	profiles      profile.Service
	metrics       metrics.Recorder
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewProfileReconcileJob creates a new ProfileReconcileJob.
func NewProfileReconcileJob(
	provider shared.IdentityProvider,
	profiles profile.Service,
	recorder metrics.Recorder,
	logger *zap.Logger,
	cfg *config.Config,
) *ProfileReconcileJob {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)

	return &ProfileReconcileJob{
		provider:      provider,
		profiles:      profiles,
		metrics:       recorder,
		logger:        logger.Named("ProfileReconcileJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules the job on PROFILE_RECONCILE_SCHEDULE. An empty
// schedule disables it.
func (j *ProfileReconcileJob) SetupAndStart() error {
	jobSpec := j.cfg.ProfileReconcileSchedule
	if jobSpec == "" {
		j.logger.Warn("Profile reconcile schedule not defined (PROFILE_RECONCILE_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule profile reconcile job", zap.String("schedule", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Profile reconcile job scheduled", zap.String("schedule", jobSpec), zap.Int("jobID", int(jobID)))
	j.cronScheduler.Start()
	return nil
}

func (j *ProfileReconcileJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileRunTimeout)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error("Profile reconcile run failed", zap.Error(err))
	}
}

// RunOnce walks every provider account and creates the missing profile
// records. Per-account failures are logged and skipped; only a failure to
// list accounts aborts the run. It returns the number of records created.
func (j *ProfileReconcileJob) RunOnce(ctx context.Context) (int, error) {
	j.logger.Info("Starting profile reconcile run...")
	var scanned, created int

	err := j.provider.EachUser(ctx, func(pu *shared.ProviderUser) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		scanned++
		if pu.Email == "" {
			return nil
		}

		exists, err := j.profiles.HasProfile(ctx, pu.ID)
		if err != nil {
			j.logger.Warn("Profile lookup failed", zap.String("userID", pu.ID), zap.Error(err))
			return nil
		}
		if exists {
			return nil
		}

		if _, err := j.profiles.CreateFor(ctx, pu, strings.TrimSpace(pu.DisplayName)); err != nil {
			if errors.Is(err, common.ErrConflict) {
				j.logger.Warn("Profile email already taken by another account", zap.String("userID", pu.ID))
			} else {
				j.logger.Error("Profile backfill failed", zap.String("userID", pu.ID), zap.Error(err))
			}
			return nil
		}
		created++
		j.logger.Info("Backfilled missing profile", zap.String("userID", pu.ID))
		return nil
	})

	j.metrics.RecordProfileBackfill(created)
	if err != nil {
		return created, err
	}
	j.logger.Info("Profile reconcile run completed", zap.Int("accounts_scanned", scanned), zap.Int("profiles_created", created))
	return created, nil
}

// Stop gracefully stops the cron scheduler.
func (j *ProfileReconcileJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping profile reconcile scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Profile reconcile scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Profile reconcile scheduler stop timed out.")
	}
}
