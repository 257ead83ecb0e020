package http

import (
	"context"
	"time"

	"github.com/capstone-api/internal/domain"
)

// NotificationRepository is the notification store the dispatcher and the
// deadline suppression check require.
type NotificationRepository interface {
	Put(ctx context.Context, n *domain.Notification) error
	PutBatch(ctx context.Context, ns []domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID string, at time.Time) error
	Delete(ctx context.Context, notificationID string) error
	DeleteMany(ctx context.Context, notificationIDs []string) error
	// HasRecentUnread queries the task_id GSI for an unread notification with
	// the given action created after since.
	HasRecentUnread(ctx context.Context, taskID, action string, since time.Time) (bool, error)
}

// TaskRepository is the task store the deadline scan requires.
type TaskRepository interface {
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	ListDue(ctx context.Context, f domain.DueFilter) ([]domain.Task, error)
	ResolveChain(ctx context.Context, t *domain.Task) (*domain.TaskChain, error)
}

// ProjectRepository is the project store behind the guard and project routes.
type ProjectRepository interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	Update(ctx context.Context, projectID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, projectID string) error
}

// TeamRepository is the team store behind membership checks.
type TeamRepository interface {
	GetByProject(ctx context.Context, projectID string) (*domain.Team, error)
}
