package domain

import "time"

// Workplace is the tenant boundary. Accounts, feeds, matches and transfers all belong to one.
type Workplace struct {
	WorkplaceID string `json:"workplaceID"`
	Name        string `json:"name"`
	IsActive    bool   `json:"isActive"`
	AuditFields
}

// UserWorkplaceRole defines the possible roles a user can have within a workplace.
type UserWorkplaceRole string

const (
	RoleAdmin    UserWorkplaceRole = "ADMIN"
	RoleMember   UserWorkplaceRole = "MEMBER"
	RoleReadOnly UserWorkplaceRole = "READONLY" // Can inspect suggestions and status only
	RoleRemoved  UserWorkplaceRole = "REMOVED"
)

// Satisfies reports whether r grants at least the required role.
// ADMIN covers MEMBER, which covers READONLY.
func (r UserWorkplaceRole) Satisfies(required UserWorkplaceRole) bool {
	rank := func(role UserWorkplaceRole) int {
		switch role {
		case RoleAdmin:
			return 3
		case RoleMember:
			return 2
		case RoleReadOnly:
			return 1
		default:
			return 0
		}
	}
	return rank(r) > 0 && rank(r) >= rank(required)
}

// UserWorkplace represents the membership of a User in a Workplace.
type UserWorkplace struct {
	UserID      string            `json:"userID"`
	WorkplaceID string            `json:"workplaceID"`
	Role        UserWorkplaceRole `json:"role"`
	JoinedAt    time.Time         `json:"joinedAt"`
}
