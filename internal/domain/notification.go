package domain

import "time"

type NotificationType string

const (
	NotificationTypeSystem   NotificationType = "System"
	NotificationTypeProject  NotificationType = "Project"
	NotificationTypeDocument NotificationType = "Document"
	NotificationTypeMeeting  NotificationType = "Meeting"
	NotificationTypeTask     NotificationType = "Task"
	NotificationTypeDefect   NotificationType = "Defect"
	NotificationTypeTeam     NotificationType = "Team"
	NotificationTypeOther    NotificationType = "Other"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// Rank orders priorities from Low (1) to Urgent (4). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "Unread"
	NotificationRead   NotificationStatus = "Read"
)

// Actions emitted by the deadline scan.
const (
	ActionDeadlineApproaching = "deadline_approaching"
	ActionDeadlinePassed      = "deadline_passed"
)

// Related is the closed set of entities a notification may point at.
type Related struct {
	ProjectID  *string `json:"project_id,omitempty"`
	DocumentID *string `json:"document_id,omitempty"`
	TaskID     *string `json:"task_id,omitempty"`
	MeetingID  *string `json:"meeting_id,omitempty"`
}

// Notification is stored flat: the related ids are top-level attributes so the
// task_id GSI stays sparse.
type Notification struct {
	NotificationID string             `json:"id" dynamodbav:"notification_id"`
	RecipientID    string             `json:"recipient_id" dynamodbav:"recipient_id"`
	Type           NotificationType   `json:"type" dynamodbav:"type"`
	Action         string             `json:"action,omitempty" dynamodbav:"action,omitempty"`
	Message        string             `json:"message" dynamodbav:"message"`
	Priority       Priority           `json:"priority" dynamodbav:"priority"`
	ProjectID      *string            `json:"project_id,omitempty" dynamodbav:"project_id,omitempty"`
	DocumentID     *string            `json:"document_id,omitempty" dynamodbav:"document_id,omitempty"`
	TaskID         *string            `json:"task_id,omitempty" dynamodbav:"task_id,omitempty"`
	MeetingID      *string            `json:"meeting_id,omitempty" dynamodbav:"meeting_id,omitempty"`
	CreatorID      *string            `json:"creator_id,omitempty" dynamodbav:"creator_id,omitempty"`
	ActionURL      string             `json:"action_url,omitempty" dynamodbav:"action_url,omitempty"`
	Metadata       map[string]string  `json:"metadata" dynamodbav:"metadata"`
	Status         NotificationStatus `json:"status" dynamodbav:"status"`
	CreatedAt      time.Time          `json:"created_at" dynamodbav:"created_at,unixtime"`
	ReadAt         *time.Time         `json:"read_at,omitempty" dynamodbav:"read_at,omitempty"`
}

// SetRelated copies the related references onto the stored fields.
func (n *Notification) SetRelated(r Related) {
	n.ProjectID = r.ProjectID
	n.DocumentID = r.DocumentID
	n.TaskID = r.TaskID
	n.MeetingID = r.MeetingID
}

// Related returns the related references as a single value.
func (n *Notification) Related() Related {
	return Related{
		ProjectID:  n.ProjectID,
		DocumentID: n.DocumentID,
		TaskID:     n.TaskID,
		MeetingID:  n.MeetingID,
	}
}

// DispatchRequest is the admin-facing body for sending one notification to many users.
type DispatchRequest struct {
	RecipientIDs []string          `json:"recipient_ids" validate:"required,min=1,dive,required"`
	Message      string            `json:"message" validate:"required"`
	Type         NotificationType  `json:"type" validate:"required"`
	Action       string            `json:"action"`
	Priority     Priority          `json:"priority"`
	Related      Related           `json:"related"`
	ActionURL    string            `json:"action_url"`
	Metadata     map[string]string `json:"metadata"`
}
