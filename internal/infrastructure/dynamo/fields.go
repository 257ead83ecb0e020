package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldProjectID   = "project_id"
	fieldTaskID      = "task_id"
	fieldRecipientID = "recipient_id"
	fieldDeadline    = "deadline"
	fieldStatus      = "status"
	fieldAction      = "action"
	fieldCreatedAt   = "created_at"
	fieldReadAt      = "read_at"
	fieldUpdatedAt   = "updated_at"
)

// GSI names created by Bootstrap.
const (
	indexTeamsByProject      = "project_id-index"
	indexNotificationsByUser = "recipient_id-created_at-index"
	indexNotificationsByTask = "task_id-created_at-index"
)
