package domain

import (
	"strings"
	"time"
)

type Project struct {
	ProjectID    string    `json:"id" dynamodbav:"project_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Description  string    `json:"description" dynamodbav:"description"`
	CreatorID    string    `json:"creator_id" dynamodbav:"creator_id"`
	SupervisorID *string   `json:"supervisor_id,omitempty" dynamodbav:"supervisor_id,omitempty"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// IsCreator reports whether userID created the project.
func (p *Project) IsCreator(userID string) bool {
	return SameID(p.CreatorID, userID)
}

// IsSupervisor reports whether userID is the supervisor of record.
func (p *Project) IsSupervisor(userID string) bool {
	return p.SupervisorID != nil && SameID(*p.SupervisorID, userID)
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

type FeedbackRequest struct {
	Message  string   `json:"message" validate:"required,max=2000"`
	Priority Priority `json:"priority"`
}

// SameID reports whether two identifiers are equal once surrounding
// whitespace is dropped. The comparison is case-sensitive.
func SameID(a, b string) bool {
	a, b = NormalizeID(a), NormalizeID(b)
	return a != "" && a == b
}

// NormalizeID trims surrounding whitespace.
func NormalizeID(s string) string {
	return strings.TrimSpace(s)
}
