package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/capstone-api/internal/application/deadline"
	"github.com/capstone-api/internal/config"
	"github.com/capstone-api/internal/infrastructure/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockScanner struct{ mock.Mock }

func (m *mockScanner) ScanApproachingAndPassed(ctx context.Context) deadline.ScanResult {
	return m.Called(ctx).Get(0).(deadline.ScanResult)
}
func (m *mockScanner) ScanPassedOnly(ctx context.Context) deadline.PassedScanResult {
	return m.Called(ctx).Get(0).(deadline.PassedScanResult)
}

type fakeLock struct {
	err      error
	released bool
}

func (f *fakeLock) Acquire(context.Context, string, time.Duration) (func(context.Context), error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(context.Context) { f.released = true }, nil
}

func deadlineCfg(runPassed bool) config.DeadlineConfig {
	return config.DeadlineConfig{Timezone: "UTC", ScanHour: 8, RunPassedScan: runPassed, LockTTL: time.Minute}
}

func TestNextRun(t *testing.T) {
	loc := time.UTC
	cases := map[string]struct {
		now  time.Time
		want time.Time
	}{
		"before today's slot": {time.Date(2026, 1, 5, 7, 0, 0, 0, loc), time.Date(2026, 1, 5, 8, 0, 0, 0, loc)},
		"exactly at the slot": {time.Date(2026, 1, 5, 8, 0, 0, 0, loc), time.Date(2026, 1, 6, 8, 0, 0, 0, loc)},
		"after today's slot":  {time.Date(2026, 1, 5, 9, 0, 0, 0, loc), time.Date(2026, 1, 6, 8, 0, 0, 0, loc)},
		"month rollover":      {time.Date(2026, 1, 31, 23, 0, 0, 0, loc), time.Date(2026, 2, 1, 8, 0, 0, 0, loc)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextRun(tc.now, 8, 0, loc))
		})
	}
}

func TestNextRun_ConvertsToZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	assert.NoError(t, err)
	// 00:30 UTC is 09:30 in Tokyo, past the 08:00 slot.
	got := NextRun(time.Date(2026, 1, 5, 0, 30, 0, 0, time.UTC), 8, 0, tokyo)
	assert.Equal(t, time.Date(2026, 1, 6, 8, 0, 0, 0, tokyo), got)
}

func TestRunOnce_RunsBothScans(t *testing.T) {
	svc := &mockScanner{}
	svc.On("ScanApproachingAndPassed", mock.Anything).Return(deadline.ScanResult{Success: true})
	svc.On("ScanPassedOnly", mock.Anything).Return(deadline.PassedScanResult{Success: true})
	lock := &fakeLock{}

	ran := NewScheduler(svc, lock, deadlineCfg(true), nil).RunOnce(context.Background())

	assert.True(t, ran)
	assert.True(t, lock.released)
	svc.AssertExpectations(t)
}

func TestRunOnce_PassedScanDisabled(t *testing.T) {
	svc := &mockScanner{}
	svc.On("ScanApproachingAndPassed", mock.Anything).Return(deadline.ScanResult{Success: true})

	NewScheduler(svc, nil, deadlineCfg(false), nil).RunOnce(context.Background())

	svc.AssertNotCalled(t, "ScanPassedOnly", mock.Anything)
}

func TestRunOnce_SkipsWhenLockHeld(t *testing.T) {
	svc := &mockScanner{}

	ran := NewScheduler(svc, &fakeLock{err: redis.ErrLockHeld}, deadlineCfg(true), nil).RunOnce(context.Background())

	assert.False(t, ran)
	svc.AssertNotCalled(t, "ScanApproachingAndPassed", mock.Anything)
}

func TestRunOnce_LockErrorRunsUnlocked(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := &mockScanner{}
	svc.On("ScanApproachingAndPassed", mock.Anything).Return(deadline.ScanResult{Err: errors.New("boom")})
	svc.On("ScanPassedOnly", mock.Anything).Return(deadline.PassedScanResult{Success: true})

	ran := NewScheduler(svc, &fakeLock{err: errors.New("redis down")}, deadlineCfg(true), zap.New(core)).
		RunOnce(context.Background())

	assert.True(t, ran)
	assert.Equal(t, 1, logs.FilterMessage("deadline scan lock unavailable, running unlocked").Len())
	assert.Equal(t, 1, logs.FilterMessage("scheduled deadline scan failed").Len())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&mockScanner{}, nil, deadlineCfg(true), nil)
	s.Start()
	s.Stop()
}
