// Package cron runs periodic housekeeping for the booking engine: pruning
// delivered outbox rows and expiring pending requests whose stay has passed.
package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/metrics"
)

const defaultInterval = time.Hour

// Job is one unit of scheduled work. Run returns the number of rows it
// touched.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every job once per interval while holding the cluster lock.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("cron: logger is required")
	case params.Lock == nil:
		return nil, errors.New("cron: lock is required")
	}

	jobs, err := uniqueJobs(params.Jobs)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logg:     params.Logger,
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	return s, nil
}

// uniqueJobs drops nil entries and rejects two jobs sharing a name, since
// names key both metrics and logs.
func uniqueJobs(in []Job) ([]Job, error) {
	names := make(map[string]bool, len(in))
	out := make([]Job, 0, len(in))
	for _, job := range in {
		if job == nil {
			continue
		}
		if names[job.Name()] {
			return nil, fmt.Errorf("cron: job %q registered twice", job.Name())
		}
		names[job.Name()] = true
		out = append(out, job)
	}
	return out, nil
}

// Jobs returns the registered jobs in run order.
func (s *Service) Jobs() []Job {
	return append([]Job(nil), s.jobs...)
}

// Run executes a cycle immediately and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron worker stopping")
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire cron lock: %w", err)
	}
	if !held {
		s.logg.Info(ctx, "cron lock held elsewhere, skipping cycle")
		return nil
	}
	defer s.release(ctx)

	for _, job := range s.jobs {
		s.report(ctx, job, s.execute(ctx, job))
	}
	return nil
}

func (s *Service) release(ctx context.Context) {
	if err := s.lock.Release(ctx); err != nil {
		s.logg.Error(ctx, "release cron lock", err)
	}
}

type outcome struct {
	rows    int64
	elapsed time.Duration
	err     error
}

func (s *Service) execute(ctx context.Context, job Job) outcome {
	started := time.Now()
	rows, err := job.Run(s.logg.WithFields(ctx, map[string]any{"job": job.Name()}))
	return outcome{rows: rows, elapsed: time.Since(started), err: err}
}

// report records a job's result; a failing job never stops the cycle.
func (s *Service) report(ctx context.Context, job Job, o outcome) {
	s.metrics.ObserveRun(job.Name(), o.elapsed, o.err)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"job":           job.Name(),
		"duration_ms":   o.elapsed.Milliseconds(),
		"rows_affected": o.rows,
	})
	if o.err != nil {
		s.logg.Error(ctx, "cron job failed", o.err)
		return
	}
	s.metrics.AddAffected(job.Name(), o.rows)
	s.logg.Info(ctx, "cron job finished")
}
