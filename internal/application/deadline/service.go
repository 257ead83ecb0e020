package deadline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/capstone-api/internal/application/notification"
	"github.com/capstone-api/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultWindow            = 7 * 24 * time.Hour
	DefaultSuppressionWindow = 24 * time.Hour
)

// ScanResult reports a combined approaching/passed scan. Err is set only when
// the candidate set could not be loaded.
type ScanResult struct {
	Success          bool
	ApproachingCount int
	PassedCount      int
	TotalChecked     int
	Err              error
}

// PassedScanResult reports a passed-only scan.
type PassedScanResult struct {
	Success       bool
	NotifiedCount int
	TotalChecked  int
	Err           error
}

type Service interface {
	ScanApproachingAndPassed(ctx context.Context) ScanResult
	ScanPassedOnly(ctx context.Context) PassedScanResult
}

type taskStore interface {
	ListDue(ctx context.Context, f domain.DueFilter) ([]domain.Task, error)
	ResolveChain(ctx context.Context, t *domain.Task) (*domain.TaskChain, error)
}

type notificationStore interface {
	HasRecentUnread(ctx context.Context, taskID, action string, since time.Time) (bool, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, in notification.Input) (*domain.Notification, error)
}

type service struct {
	tasks         taskStore
	notifications notificationStore
	dispatcher    dispatcher
	loc           *time.Location
	windowDays    int
	suppression   time.Duration
	now           func() time.Time
	log           *zap.Logger
}

type ServiceDeps struct {
	TaskRepo          taskStore
	NotificationRepo  notificationStore
	Dispatcher        dispatcher
	Location          *time.Location
	Window            time.Duration
	SuppressionWindow time.Duration
	Now               func() time.Time
	Logger            *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		tasks:         deps.TaskRepo,
		notifications: deps.NotificationRepo,
		dispatcher:    deps.Dispatcher,
		loc:           deps.Location,
		suppression:   deps.SuppressionWindow,
		now:           deps.Now,
		log:           deps.Logger,
	}
	window := deps.Window
	if window <= 0 {
		window = DefaultWindow
	}
	s.windowDays = int(window / (24 * time.Hour))
	if s.suppression <= 0 {
		s.suppression = DefaultSuppressionWindow
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

type outcome int

const (
	skipped outcome = iota
	notifiedApproaching
	notifiedPassed
)

func (s *service) ScanApproachingAndPassed(ctx context.Context) ScanResult {
	now := s.now().In(s.loc)
	today := startOfDay(now)
	from := today
	candidates, err := s.tasks.ListDue(ctx, domain.DueFilter{
		From:   &from,
		Before: today.AddDate(0, 0, s.windowDays+1),
	})
	if err != nil {
		s.log.Error("deadline scan: load candidates", zap.Error(err))
		return ScanResult{Err: err}
	}

	res := ScanResult{Success: true, TotalChecked: len(candidates)}
	for i := range candidates {
		switch s.process(ctx, &candidates[i], now, today) {
		case notifiedApproaching:
			res.ApproachingCount++
		case notifiedPassed:
			res.PassedCount++
		}
	}
	s.log.Info("deadline scan finished",
		zap.Int("approaching", res.ApproachingCount),
		zap.Int("passed", res.PassedCount),
		zap.Int("checked", res.TotalChecked),
	)
	return res
}

func (s *service) ScanPassedOnly(ctx context.Context) PassedScanResult {
	now := s.now().In(s.loc)
	today := startOfDay(now)
	candidates, err := s.tasks.ListDue(ctx, domain.DueFilter{Before: today})
	if err != nil {
		s.log.Error("passed deadline scan: load candidates", zap.Error(err))
		return PassedScanResult{Err: err}
	}

	res := PassedScanResult{Success: true, TotalChecked: len(candidates)}
	for i := range candidates {
		if s.process(ctx, &candidates[i], now, today) == notifiedPassed {
			res.NotifiedCount++
		}
	}
	s.log.Info("passed deadline scan finished",
		zap.Int("notified", res.NotifiedCount),
		zap.Int("checked", res.TotalChecked),
	)
	return res
}

// process runs the per-task guards and dispatches at most one notification.
// Every failure is logged and reported as skipped.
func (s *service) process(ctx context.Context, t *domain.Task, now, today time.Time) outcome {
	log := s.log.With(zap.String("task_id", t.TaskID))

	if t.Status.IsTerminal() {
		return skipped
	}
	if t.AssigneeID == nil || *t.AssigneeID == "" {
		return skipped
	}
	chain, err := s.tasks.ResolveChain(ctx, t)
	if err != nil {
		log.Debug("skipping task with unresolved project chain", zap.Error(err))
		return skipped
	}

	days := DaysUntil(t.Deadline, today, s.loc)
	var (
		action string
		result outcome
	)
	switch {
	case days < 0:
		action, result = domain.ActionDeadlinePassed, notifiedPassed
	case days <= s.windowDays:
		action, result = domain.ActionDeadlineApproaching, notifiedApproaching
	default:
		return skipped
	}

	recent, err := s.notifications.HasRecentUnread(ctx, t.TaskID, action, now.Add(-s.suppression))
	if err != nil {
		log.Warn("suppression lookup failed", zap.String("action", action), zap.Error(err))
		return skipped
	}
	if recent {
		return skipped
	}

	if _, err := s.dispatcher.Dispatch(ctx, buildInput(chain, days, action)); err != nil {
		log.Error("deadline notification dispatch failed", zap.String("action", action), zap.Error(err))
		return skipped
	}
	return result
}

func buildInput(chain *domain.TaskChain, days int, action string) notification.Input {
	t := chain.Task
	projectID := chain.Project.ProjectID
	taskID := t.TaskID

	return notification.Input{
		RecipientID: *t.AssigneeID,
		Payload: notification.Payload{
			Message:  message(t.Title, chain.Project.Name, days),
			Type:     domain.NotificationTypeTask,
			Action:   action,
			Priority: priorityFor(days),
			Related: domain.Related{
				ProjectID: &projectID,
				TaskID:    &taskID,
			},
			CreatorID: t.AssignerID,
			ActionURL: fmt.Sprintf("/projects/%s/tasks/%s", projectID, taskID),
			Metadata: map[string]string{
				"days_until_deadline": strconv.Itoa(days),
				"deadline":            t.Deadline.UTC().Format(time.RFC3339),
			},
		},
	}
}

func priorityFor(days int) domain.Priority {
	if days <= 1 {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}

func message(title, project string, days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("Task %q in %s is %d days overdue", title, project, -days)
	case days == -1:
		return fmt.Sprintf("Task %q in %s is 1 day overdue", title, project)
	case days == 0:
		return fmt.Sprintf("Task %q in %s is due today", title, project)
	case days == 1:
		return fmt.Sprintf("Task %q in %s is due tomorrow", title, project)
	default:
		return fmt.Sprintf("Task %q in %s is due in %d days", title, project, days)
	}
}

// DaysUntil counts whole calendar days from today to the deadline's date in
// loc. A deadline later today is 0 and yesterday is -1.
func DaysUntil(deadline, today time.Time, loc *time.Location) int {
	d := deadline.In(loc)
	t := today.In(loc)
	dd := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(dd.Sub(td).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
