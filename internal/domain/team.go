package domain

// LeaderFlag marks a team member as the team leader.
const LeaderFlag = 1

type TeamMember struct {
	UserID   string `json:"user_id" dynamodbav:"user_id"`
	IsLeader int    `json:"is_leader" dynamodbav:"is_leader"`
}

type Team struct {
	TeamID    string       `json:"id" dynamodbav:"team_id"`
	ProjectID string       `json:"project_id" dynamodbav:"project_id"`
	Name      string       `json:"name" dynamodbav:"name"`
	Members   []TeamMember `json:"members" dynamodbav:"members"`
}

// Member returns the entry for userID, if any.
func (t *Team) Member(userID string) (TeamMember, bool) {
	for _, m := range t.Members {
		if SameID(m.UserID, userID) {
			return m, true
		}
	}
	return TeamMember{}, false
}

// MemberIDs returns the ids of all members in team order.
func (t *Team) MemberIDs() []string {
	ids := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
