package domain

import "time"

type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskReview     TaskStatus = "Review"
	TaskCompleted  TaskStatus = "Completed"
	TaskDone       TaskStatus = "Done"
	TaskCancelled  TaskStatus = "Cancelled"
)

// TerminalTaskStatuses never receive deadline notifications.
var TerminalTaskStatuses = []TaskStatus{TaskCompleted, TaskDone, TaskCancelled}

// IsTerminal reports whether the status is in the terminal set.
func (s TaskStatus) IsTerminal() bool {
	for _, t := range TerminalTaskStatuses {
		if s == t {
			return true
		}
	}
	return false
}

type Task struct {
	TaskID     string     `json:"id" dynamodbav:"task_id"`
	FunctionID string     `json:"function_id" dynamodbav:"function_id"`
	Title      string     `json:"title" dynamodbav:"title"`
	Deadline   time.Time  `json:"deadline" dynamodbav:"deadline,unixtime"`
	Status     TaskStatus `json:"status" dynamodbav:"status"`
	AssigneeID *string    `json:"assignee_id,omitempty" dynamodbav:"assignee_id,omitempty"`
	AssignerID *string    `json:"assigner_id,omitempty" dynamodbav:"assigner_id,omitempty"`
	CreatedAt  time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type Function struct {
	FunctionID string `json:"id" dynamodbav:"function_id"`
	FeatureID  string `json:"feature_id" dynamodbav:"feature_id"`
	Name       string `json:"name" dynamodbav:"name"`
}

type Feature struct {
	FeatureID string `json:"id" dynamodbav:"feature_id"`
	ProjectID string `json:"project_id" dynamodbav:"project_id"`
	Name      string `json:"name" dynamodbav:"name"`
}

// TaskChain is a task with its function, feature and project resolved.
type TaskChain struct {
	Task     Task
	Function Function
	Feature  Feature
	Project  Project
}

// DueFilter selects tasks by deadline. A nil From means no lower bound.
// Before is exclusive.
type DueFilter struct {
	From   *time.Time
	Before time.Time
}
