package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/capstone-api/internal/application/notification"
	"github.com/capstone-api/internal/domain"
)

// ActionSupervisorFeedback tags notifications sent by a mentor to a team.
const ActionSupervisorFeedback = "supervisor_feedback"

// DynamoDB attribute names used in partial update maps.
const (
	fieldName        = "name"
	fieldDescription = "description"
)

type Service interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	Update(ctx context.Context, projectID string, req domain.UpdateProjectRequest) (*domain.Project, error)
	Delete(ctx context.Context, projectID string) error
	Team(ctx context.Context, projectID string) (*domain.Team, error)
	SendFeedback(ctx context.Context, p *domain.Project, mentorID string, req domain.FeedbackRequest) (int, error)
}

type projectStore interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	Update(ctx context.Context, projectID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, projectID string) error
}

type teamStore interface {
	GetByProject(ctx context.Context, projectID string) (*domain.Team, error)
}

type dispatcher interface {
	DispatchMany(ctx context.Context, recipientIDs []string, p notification.Payload) ([]domain.Notification, error)
}

type service struct {
	repo       projectStore
	teamRepo   teamStore
	dispatcher dispatcher
}

type ServiceDeps struct {
	ProjectRepo projectStore
	TeamRepo    teamStore
	Dispatcher  dispatcher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:       deps.ProjectRepo,
		teamRepo:   deps.TeamRepo,
		dispatcher: deps.Dispatcher,
	}
}

func (s *service) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	return s.repo.Get(ctx, projectID)
}

func (s *service) Update(ctx context.Context, projectID string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name must not be blank: %w", domain.ErrBadRequest)
		}
		updates[fieldName] = name
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, projectID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, projectID)
}

func (s *service) Delete(ctx context.Context, projectID string) error {
	return s.repo.HardDelete(ctx, projectID)
}

func (s *service) Team(ctx context.Context, projectID string) (*domain.Team, error) {
	return s.teamRepo.GetByProject(ctx, projectID)
}

// SendFeedback notifies every team member of the project and returns how many
// were notified.
func (s *service) SendFeedback(ctx context.Context, p *domain.Project, mentorID string, req domain.FeedbackRequest) (int, error) {
	team, err := s.teamRepo.GetByProject(ctx, p.ProjectID)
	if err != nil {
		return 0, err
	}
	members := team.MemberIDs()
	if len(members) == 0 {
		return 0, fmt.Errorf("project %s has no team members: %w", p.ProjectID, domain.ErrBadRequest)
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	projectID := p.ProjectID
	sent, err := s.dispatcher.DispatchMany(ctx, members, notification.Payload{
		Message:   req.Message,
		Type:      domain.NotificationTypeProject,
		Action:    ActionSupervisorFeedback,
		Priority:  priority,
		Related:   domain.Related{ProjectID: &projectID},
		CreatorID: &mentorID,
		ActionURL: fmt.Sprintf("/projects/%s", projectID),
	})
	if err != nil {
		return 0, err
	}
	return len(sent), nil
}
