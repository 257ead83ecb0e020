package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/capstone-api/internal/domain"
	"github.com/capstone-api/internal/pkg/id"
	"github.com/capstone-api/internal/pkg/validate"
	"go.uber.org/zap"
)

// EventNotification is the realtime event name carried by every push.
const EventNotification = "notification"

// Payload is everything about a notification except who receives it.
type Payload struct {
	Message   string                  `validate:"required"`
	Type      domain.NotificationType `validate:"required,notiftype"`
	Action    string
	Priority  domain.Priority `validate:"omitempty,priority"`
	Related   domain.Related
	CreatorID *string
	ActionURL string
	Metadata  map[string]string
}

// Input is a single-recipient dispatch.
type Input struct {
	RecipientID string `validate:"required"`
	Payload
}

type Service interface {
	Dispatch(ctx context.Context, in Input) (*domain.Notification, error)
	DispatchMany(ctx context.Context, recipientIDs []string, p Payload) ([]domain.Notification, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
	DeleteAllRead(ctx context.Context, userID string) (int, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	PutBatch(ctx context.Context, ns []domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID string, at time.Time) error
	Delete(ctx context.Context, notificationID string) error
	DeleteMany(ctx context.Context, notificationIDs []string) error
}

type projectReader interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
}

type taskReader interface {
	Get(ctx context.Context, taskID string) (*domain.Task, error)
}

// Notifier pushes an event once to every connection joined to any of rooms.
type Notifier interface {
	Emit(ctx context.Context, rooms []string, event string, payload any) error
}

// Relay forwards a notification out of band (SNS).
type Relay interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

type service struct {
	repo             notificationStore
	projects         projectReader
	tasks            taskReader
	notifier         Notifier
	relay            Relay
	relayMinPriority domain.Priority
	log              *zap.Logger
	now              func() time.Time
}

// ServiceDeps wires the dispatcher. Notifier, Relay, ProjectRepo and TaskRepo
// are optional.
type ServiceDeps struct {
	Repo             notificationStore
	ProjectRepo      projectReader
	TaskRepo         taskReader
	Notifier         Notifier
	Relay            Relay
	RelayMinPriority domain.Priority
	Logger           *zap.Logger
	Now              func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:             deps.Repo,
		projects:         deps.ProjectRepo,
		tasks:            deps.TaskRepo,
		notifier:         deps.Notifier,
		relay:            deps.Relay,
		relayMinPriority: deps.RelayMinPriority,
		log:              deps.Logger,
		now:              deps.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.relayMinPriority.Rank() == 0 {
		s.relayMinPriority = domain.PriorityHigh
	}
	return s
}

func (s *service) Dispatch(ctx context.Context, in Input) (*domain.Notification, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	n := s.build(in.RecipientID, in.Payload, s.now().UTC())
	if err := s.repo.Put(ctx, &n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}
	s.deliver(ctx, &n)
	return &n, nil
}

func (s *service) DispatchMany(ctx context.Context, recipientIDs []string, p Payload) ([]domain.Notification, error) {
	recipients := dedupe(recipientIDs)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required: %w", domain.ErrBadRequest)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	now := s.now().UTC()
	ns := make([]domain.Notification, len(recipients))
	for i, r := range recipients {
		ns[i] = s.build(r, p, now)
	}
	if err := s.repo.PutBatch(ctx, ns); err != nil {
		return nil, fmt.Errorf("persist notifications: %w", err)
	}
	for i := range ns {
		s.deliver(ctx, &ns[i])
	}
	return ns, nil
}

func (s *service) build(recipientID string, p Payload, now time.Time) domain.Notification {
	n := domain.Notification{
		NotificationID: id.NewAt(now),
		RecipientID:    recipientID,
		Type:           p.Type,
		Action:         p.Action,
		Message:        p.Message,
		Priority:       p.Priority,
		CreatorID:      p.CreatorID,
		ActionURL:      p.ActionURL,
		Metadata:       p.Metadata,
		Status:         domain.NotificationUnread,
		CreatedAt:      now,
	}
	n.SetRelated(p.Related)
	if n.Priority == "" {
		n.Priority = domain.PriorityMedium
	}
	if n.Metadata == nil {
		n.Metadata = map[string]string{}
	}
	return n
}

// deliver pushes the stored notification to the recipient's rooms and relays
// high-priority ones. Nothing here can fail the dispatch.
func (s *service) deliver(ctx context.Context, n *domain.Notification) {
	log := s.log.With(zap.String("notification_id", n.NotificationID), zap.String("recipient_id", n.RecipientID))

	if s.notifier == nil {
		log.Warn("realtime not initialized, skipping push")
	} else {
		rooms := Rooms(n.RecipientID)
		if err := s.notifier.Emit(ctx, rooms, EventNotification, s.expand(ctx, n)); err != nil {
			log.Warn("realtime push failed", zap.Strings("rooms", rooms), zap.Error(err))
		}
	}

	if s.relay != nil && n.Priority.Rank() >= s.relayMinPriority.Rank() {
		if err := s.relay.Publish(ctx, n); err != nil {
			log.Warn("relay publish failed", zap.Error(err))
		}
	}
}

// Rooms returns the realtime rooms a user's notifications are pushed to. A
// socket may sit in either or both; it still gets one frame per push.
func Rooms(userID string) []string {
	return []string{userID, "user:" + userID}
}

// ProjectRef and TaskRef are the summaries embedded in pushed payloads.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TaskRef struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
}

// Pushed is the realtime representation of a notification.
type Pushed struct {
	domain.Notification
	Project *ProjectRef `json:"project,omitempty"`
	Task    *TaskRef    `json:"task,omitempty"`
}

func (s *service) expand(ctx context.Context, n *domain.Notification) Pushed {
	out := Pushed{Notification: *n}
	if n.ProjectID != nil && s.projects != nil {
		if p, err := s.projects.Get(ctx, *n.ProjectID); err == nil {
			out.Project = &ProjectRef{ID: p.ProjectID, Name: p.Name}
		}
	}
	if n.TaskID != nil && s.tasks != nil {
		if t, err := s.tasks.Get(ctx, *n.TaskID); err == nil {
			out.Task = &TaskRef{ID: t.TaskID, Title: t.Title, Deadline: t.Deadline}
		}
	}
	return out
}

func (s *service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.repo.ListByRecipient(ctx, userID, unreadOnly)
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.Status == domain.NotificationRead {
		return n, nil
	}
	at := s.now().UTC()
	if err := s.repo.MarkAsRead(ctx, notificationID, at); err != nil {
		return nil, err
	}
	n.Status = domain.NotificationRead
	n.ReadAt = &at
	return n, nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.repo.ListByRecipient(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	at := s.now().UTC()
	for _, n := range unread {
		if err := s.repo.MarkAsRead(ctx, n.NotificationID, at); err != nil {
			return 0, fmt.Errorf("mark %s read: %w", n.NotificationID, err)
		}
	}
	return len(unread), nil
}

func (s *service) Delete(ctx context.Context, notificationID, userID string) error {
	if _, err := s.owned(ctx, notificationID, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, notificationID)
}

func (s *service) DeleteAllRead(ctx context.Context, userID string) (int, error) {
	all, err := s.repo.ListByRecipient(ctx, userID, false)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, n := range all {
		if n.Status == domain.NotificationRead {
			ids = append(ids, n.NotificationID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.repo.DeleteMany(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *service) owned(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != userID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	return n, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
