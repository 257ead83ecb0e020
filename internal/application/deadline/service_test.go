package deadline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/capstone-api/internal/application/notification"
	"github.com/capstone-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- fakes ---

// memTasks filters like the DynamoDB scan does and resolves chains for tasks
// listed in chained.
type memTasks struct {
	tasks   []domain.Task
	chained map[string]bool
	listErr error
	filters []domain.DueFilter
}

func (m *memTasks) ListDue(_ context.Context, f domain.DueFilter) ([]domain.Task, error) {
	m.filters = append(m.filters, f)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Task
	for _, t := range m.tasks {
		if t.Status.IsTerminal() {
			continue
		}
		if f.From != nil && t.Deadline.Before(*f.From) {
			continue
		}
		if !t.Deadline.Before(f.Before) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memTasks) ResolveChain(_ context.Context, t *domain.Task) (*domain.TaskChain, error) {
	if !m.chained[t.TaskID] {
		return nil, domain.ErrNotFound
	}
	return &domain.TaskChain{
		Task:    *t,
		Project: domain.Project{ProjectID: "p1", Name: "Capstone"},
	}, nil
}

// memInbox is both the dispatcher and the suppression store so repeated scans
// observe earlier dispatches.
type memInbox struct {
	mu      sync.Mutex
	now     func() time.Time
	stored  []domain.Notification
	failFor map[string]bool
}

func (m *memInbox) Dispatch(_ context.Context, in notification.Input) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.Related.TaskID != nil && m.failFor[*in.Related.TaskID] {
		return nil, errors.New("write failed")
	}
	n := domain.Notification{
		RecipientID: in.RecipientID,
		Type:        in.Type,
		Action:      in.Action,
		Message:     in.Message,
		Priority:    in.Priority,
		Metadata:    in.Metadata,
		ActionURL:   in.ActionURL,
		CreatorID:   in.CreatorID,
		Status:      domain.NotificationUnread,
		CreatedAt:   m.now(),
	}
	n.SetRelated(in.Related)
	m.stored = append(m.stored, n)
	return &n, nil
}

func (m *memInbox) HasRecentUnread(_ context.Context, taskID, action string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.stored {
		if n.TaskID != nil && *n.TaskID == taskID && n.Action == action &&
			n.Status == domain.NotificationUnread && n.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

// --- helpers ---

var (
	loc      = time.UTC
	fixedNow = time.Date(2026, 4, 15, 10, 30, 0, 0, loc)
	today    = time.Date(2026, 4, 15, 0, 0, 0, 0, loc)
)

func strPtr(s string) *string { return &s }

func task(id string, deadline time.Time, status domain.TaskStatus, assignee string) domain.Task {
	t := domain.Task{TaskID: id, Title: "Task " + id, Deadline: deadline, Status: status, FunctionID: "fn"}
	if assignee != "" {
		t.AssigneeID = strPtr(assignee)
	}
	return t
}

type fixture struct {
	tasks *memTasks
	inbox *memInbox
	clock time.Time
	svc   Service
}

func newFixture(log *zap.Logger, tasks ...domain.Task) *fixture {
	f := &fixture{clock: fixedNow}
	now := func() time.Time { return f.clock }
	f.tasks = &memTasks{tasks: tasks, chained: map[string]bool{}}
	for _, t := range tasks {
		f.tasks.chained[t.TaskID] = true
	}
	f.inbox = &memInbox{now: now, failFor: map[string]bool{}}
	f.svc = NewService(ServiceDeps{
		TaskRepo:         f.tasks,
		NotificationRepo: f.inbox,
		Dispatcher:       f.inbox,
		Location:         loc,
		Now:              now,
		Logger:           log,
	})
	return f
}

// --- DaysUntil ---

func TestDaysUntil(t *testing.T) {
	cases := map[string]struct {
		deadline time.Time
		want     int
	}{
		"later today":        {today.Add(23 * time.Hour), 0},
		"midnight today":     {today, 0},
		"yesterday late":     {today.Add(-time.Minute), -1},
		"tomorrow early":     {today.Add(24*time.Hour + time.Minute), 1},
		"end of seventh day": {today.AddDate(0, 0, 7).Add(23 * time.Hour), 7},
		"three days overdue": {today.AddDate(0, 0, -3).Add(12 * time.Hour), -3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysUntil(tc.deadline, today, loc))
		})
	}
}

func TestDaysUntil_UsesCalendarDaysInZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	// 23:30 UTC on the 14th is already the 15th in Berlin.
	deadline := time.Date(2026, 4, 14, 23, 30, 0, 0, time.UTC)
	bToday := time.Date(2026, 4, 15, 0, 0, 0, 0, berlin)

	assert.Equal(t, 0, DaysUntil(deadline, bToday, berlin))
}

// --- combined scan ---

func TestScan_DeadlineTodayIsApproaching(t *testing.T) {
	f := newFixture(nil, task("A", today.Add(18*time.Hour), domain.TaskInProgress, "U1"))

	res := f.svc.ScanApproachingAndPassed(context.Background())

	require.True(t, res.Success)
	assert.GreaterOrEqual(t, res.ApproachingCount, 1)
	assert.Equal(t, 1, res.TotalChecked)
	require.Len(t, f.inbox.stored, 1)
	n := f.inbox.stored[0]
	assert.Equal(t, "U1", n.RecipientID)
	assert.Equal(t, domain.ActionDeadlineApproaching, n.Action)
	assert.Equal(t, domain.NotificationTypeTask, n.Type)
	assert.Equal(t, domain.PriorityHigh, n.Priority)
	assert.Equal(t, "0", n.Metadata["days_until_deadline"])
	assert.Equal(t, "/projects/p1/tasks/A", n.ActionURL)
}

func TestScan_CandidateWindowBounds(t *testing.T) {
	f := newFixture(nil)

	f.svc.ScanApproachingAndPassed(context.Background())

	require.Len(t, f.tasks.filters, 1)
	filter := f.tasks.filters[0]
	require.NotNil(t, filter.From)
	assert.Equal(t, today, *filter.From)
	assert.Equal(t, today.AddDate(0, 0, 8), filter.Before)
}

func TestScan_EightDaysOutExcluded(t *testing.T) {
	f := newFixture(nil,
		task("in", today.AddDate(0, 0, 7).Add(20*time.Hour), domain.TaskToDo, "U1"),
		task("out", today.AddDate(0, 0, 8), domain.TaskToDo, "U1"),
	)

	res := f.svc.ScanApproachingAndPassed(context.Background())

	assert.Equal(t, 1, res.TotalChecked)
	assert.Equal(t, 1, res.ApproachingCount)
	require.Len(t, f.inbox.stored, 1)
	assert.Equal(t, "in", *f.inbox.stored[0].TaskID)
	assert.Equal(t, domain.PriorityMedium, f.inbox.stored[0].Priority)
}

func TestScan_TerminalTasksNeverNotified(t *testing.T) {
	var tasks []domain.Task
	for _, st := range domain.TerminalTaskStatuses {
		tasks = append(tasks,
			task(string(st)+"-future", today.AddDate(0, 0, 2), st, "U1"),
			task(string(st)+"-past", today.AddDate(0, 0, -1), st, "U1"),
		)
	}
	f := newFixture(nil, tasks...)

	f.svc.ScanApproachingAndPassed(context.Background())
	f.svc.ScanPassedOnly(context.Background())

	assert.Empty(t, f.inbox.stored)
}

func TestScan_NoAssigneeNeverNotified(t *testing.T) {
	f := newFixture(nil,
		task("A", today.AddDate(0, 0, 1), domain.TaskToDo, ""),
		task("B", today.AddDate(0, 0, -2), domain.TaskToDo, ""),
	)

	res := f.svc.ScanApproachingAndPassed(context.Background())
	passed := f.svc.ScanPassedOnly(context.Background())

	assert.Equal(t, 0, res.ApproachingCount)
	assert.Equal(t, 0, passed.NotifiedCount)
	assert.Empty(t, f.inbox.stored)
}

func TestScan_UnresolvedChainSkipped(t *testing.T) {
	f := newFixture(nil, task("A", today, domain.TaskToDo, "U1"))
	f.tasks.chained["A"] = false

	res := f.svc.ScanApproachingAndPassed(context.Background())

	assert.Equal(t, 1, res.TotalChecked)
	assert.Equal(t, 0, res.ApproachingCount)
	assert.Empty(t, f.inbox.stored)
}

func TestScan_SecondRunWithinWindowIsSuppressed(t *testing.T) {
	f := newFixture(nil, task("A", today.AddDate(0, 0, 3), domain.TaskToDo, "U1"))

	first := f.svc.ScanApproachingAndPassed(context.Background())
	f.clock = fixedNow.Add(6 * time.Hour)
	second := f.svc.ScanApproachingAndPassed(context.Background())

	assert.Equal(t, 1, first.ApproachingCount)
	assert.Equal(t, 0, second.ApproachingCount)
	assert.Len(t, f.inbox.stored, 1)
}

func TestScan_ReadNotificationDoesNotSuppress(t *testing.T) {
	f := newFixture(nil, task("A", today.AddDate(0, 0, 3), domain.TaskToDo, "U1"))

	f.svc.ScanApproachingAndPassed(context.Background())
	f.inbox.stored[0].Status = domain.NotificationRead
	second := f.svc.ScanApproachingAndPassed(context.Background())

	assert.Equal(t, 1, second.ApproachingCount)
	assert.Len(t, f.inbox.stored, 2)
}

func TestScan_RunAfterWindowNotifiesAgain(t *testing.T) {
	f := newFixture(nil, task("A", today.AddDate(0, 0, 5), domain.TaskToDo, "U1"))

	f.svc.ScanApproachingAndPassed(context.Background())
	f.clock = fixedNow.Add(24 * time.Hour)
	second := f.svc.ScanApproachingAndPassed(context.Background())

	assert.Equal(t, 1, second.ApproachingCount)
	assert.Len(t, f.inbox.stored, 2)
}

func TestScan_DispatchFailureContinues(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	f := newFixture(zap.New(core),
		task("A", today.AddDate(0, 0, 1), domain.TaskToDo, "U1"),
		task("B", today.AddDate(0, 0, 2), domain.TaskToDo, "U2"),
	)
	f.inbox.failFor["A"] = true

	res := f.svc.ScanApproachingAndPassed(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ApproachingCount)
	assert.Equal(t, 2, res.TotalChecked)
	assert.Equal(t, 1, logs.FilterMessage("deadline notification dispatch failed").Len())
}

func TestScan_LoadFailureReturnsStructuredResult(t *testing.T) {
	f := newFixture(nil)
	f.tasks.listErr = errors.New("scan failed")

	res := f.svc.ScanApproachingAndPassed(context.Background())
	passed := f.svc.ScanPassedOnly(context.Background())

	assert.False(t, res.Success)
	assert.EqualError(t, res.Err, "scan failed")
	assert.False(t, passed.Success)
	assert.Error(t, passed.Err)
}

// --- passed-only scan ---

func TestScanPassedOnly_YesterdayIsPassed(t *testing.T) {
	f := newFixture(nil,
		task("B", today.AddDate(0, 0, -1).Add(9*time.Hour), domain.TaskInProgress, "U1"),
		task("C", today.Add(time.Hour), domain.TaskInProgress, "U1"),
	)

	res := f.svc.ScanPassedOnly(context.Background())

	require.True(t, res.Success)
	assert.Equal(t, 1, res.TotalChecked)
	assert.Equal(t, 1, res.NotifiedCount)
	require.Len(t, f.inbox.stored, 1)
	n := f.inbox.stored[0]
	assert.Equal(t, domain.ActionDeadlinePassed, n.Action)
	assert.Equal(t, domain.PriorityHigh, n.Priority)
	assert.Equal(t, "-1", n.Metadata["days_until_deadline"])
	assert.Contains(t, n.Message, "1 day overdue")
}

func TestScanPassedOnly_DoneYesterdayExcluded(t *testing.T) {
	f := newFixture(nil, task("B", today.AddDate(0, 0, -1), domain.TaskDone, "U1"))

	res := f.svc.ScanPassedOnly(context.Background())

	assert.Equal(t, 0, res.TotalChecked)
	assert.Empty(t, f.inbox.stored)
}

func TestScanPassedOnly_Suppressed(t *testing.T) {
	f := newFixture(nil, task("B", today.AddDate(0, 0, -4), domain.TaskReview, "U1"))

	first := f.svc.ScanPassedOnly(context.Background())
	second := f.svc.ScanPassedOnly(context.Background())

	assert.Equal(t, 1, first.NotifiedCount)
	assert.Equal(t, 0, second.NotifiedCount)
}

func TestBuildInput_CreatorIsAssigner(t *testing.T) {
	tk := task("A", today, domain.TaskToDo, "U1")
	tk.AssignerID = strPtr("L1")
	in := buildInput(&domain.TaskChain{Task: tk, Project: domain.Project{ProjectID: "p1", Name: "X"}}, 4, domain.ActionDeadlineApproaching)

	require.NotNil(t, in.CreatorID)
	assert.Equal(t, "L1", *in.CreatorID)
	assert.Equal(t, "p1", *in.Related.ProjectID)
	assert.Contains(t, in.Message, "due in 4 days")
}
