package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/capstone-api/internal/application/deadline"
	"github.com/capstone-api/internal/config"
	"github.com/capstone-api/internal/infrastructure/redis"
	"go.uber.org/zap"
)

const lockName = "deadline-scan"

type locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context), error)
}

// Scheduler runs the deadline scans once a day at a fixed wall-clock time.
type Scheduler struct {
	svc       deadline.Service
	lock      locker
	hour      int
	minute    int
	loc       *time.Location
	runPassed bool
	lockTTL   time.Duration
	log       *zap.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a scheduler. lock may be nil, in which case every
// instance scans.
func NewScheduler(svc deadline.Service, lock locker, cfg config.DeadlineConfig, log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		svc:       svc,
		lock:      lock,
		hour:      cfg.ScanHour,
		minute:    cfg.ScanMinute,
		loc:       cfg.Location(),
		runPassed: cfg.RunPassedScan,
		lockTTL:   cfg.LockTTL,
		log:       log,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start launches the timer loop in the background.
func (s *Scheduler) Start() {
	s.log.Info("deadline scheduler started",
		zap.Int("hour", s.hour), zap.Int("minute", s.minute), zap.String("timezone", s.loc.String()))
	go s.loop()
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
	s.log.Info("deadline scheduler stopped")
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		next := NextRun(s.now(), s.hour, s.minute, s.loc)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunOnce(s.ctx)
		}
	}
}

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// RunOnce takes the cross-instance lock when configured and runs the scans.
// It reports whether the scans ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if s.lock != nil && s.lockTTL > 0 {
		release, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
		switch {
		case errors.Is(err, redis.ErrLockHeld):
			s.log.Info("deadline scan already running elsewhere, skipping")
			return false
		case err != nil:
			s.log.Warn("deadline scan lock unavailable, running unlocked", zap.Error(err))
		default:
			defer release(context.WithoutCancel(ctx))
		}
	}

	res := s.svc.ScanApproachingAndPassed(ctx)
	if !res.Success {
		s.log.Error("scheduled deadline scan failed", zap.Error(res.Err))
	}
	if s.runPassed {
		passed := s.svc.ScanPassedOnly(ctx)
		if !passed.Success {
			s.log.Error("scheduled passed deadline scan failed", zap.Error(passed.Err))
		}
	}
	return true
}
