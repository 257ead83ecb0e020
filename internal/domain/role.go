package domain

import "strings"

// Role is the platform-wide role carried in the access token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
	RoleUnknown  Role = ""
)

// ParseRole maps a claim value onto the closed role set. Anything unrecognised
// becomes RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleLecturer:
		return RoleLecturer
	case RoleStudent:
		return RoleStudent
	default:
		return RoleUnknown
	}
}

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleLecturer, RoleStudent}
}

// ProjectAction is an operation checked against a project by the access guard.
type ProjectAction string

const (
	ActionRead   ProjectAction = "read"
	ActionWrite  ProjectAction = "write"
	ActionUpdate ProjectAction = "update"
	ActionDelete ProjectAction = "delete"
)
