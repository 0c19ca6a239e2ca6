package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/relacksation-backend/internal/bookings"
	"github.com/angelmondragon/relacksation-backend/internal/cron"
	"github.com/angelmondragon/relacksation-backend/pkg/bootstrap"
	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/metrics"
	"github.com/angelmondragon/relacksation-backend/pkg/migrate"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/redis"
)

const serviceKind = "cron-worker"

func main() {
	cfg, logg, err := bootstrap.Load(serviceKind)
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(dbClient))

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(redisClient))

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.App.Env, serviceKind), 0)
	if err != nil {
		return err
	}
	jobs, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		return fmt.Errorf("build cron jobs: %w", err)
	}

	reg := prometheus.NewRegistry()
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        jobNames(service.Jobs()),
		"interval":    cfg.Cron.Interval.String(),
	})
	defer bootstrap.ServeMetrics(ctx, logg, cfg.Cron.MetricsPort, reg)()

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

func jobNames(jobs []cron.Job) []string {
	names := make([]string, len(jobs))
	for i, job := range jobs {
		names[i] = job.Name()
	}
	return names
}

// buildJobs wires outbox retention always and stale-pending expiry when a
// grace period is configured.
func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) ([]cron.Job, error) {
	conn := dbClient.DB()
	events := outbox.NewRepository(conn)

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Events:        events,
		DeadLetters:   outbox.NewDLQRepository(conn),
		RetentionDays: cfg.Cron.OutboxRetentionDays,
		DLQDays:       cfg.Cron.DLQRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Cron.StalePendingGraceDays <= 0 {
		return []cron.Job{retention}, nil
	}

	bookingRepo := bookings.NewRepository(conn)
	bookingService, err := bookings.NewService(bookingRepo, dbClient, outbox.NewService(events, logg))
	if err != nil {
		return nil, err
	}
	stale, err := cron.NewStalePendingJob(cron.StalePendingJobParams{
		Logger:    logg,
		Reader:    bookingRepo,
		Bookings:  bookingService,
		GraceDays: cfg.Cron.StalePendingGraceDays,
		BatchSize: cfg.Cron.StalePendingBatchSize,
	})
	if err != nil {
		return nil, err
	}
	return []cron.Job{retention, stale}, nil
}
