package models

import "time"

// Role is the closed set of membership roles.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMember:
		return true
	}
	return false
}

// Membership links one user to one study group. (user_id, group_id) is unique.
type Membership struct {
	BaseModel

	UserID   string    `gorm:"size:36;not null;uniqueIndex:idx_membership_user_group" json:"user_id"`
	GroupID  string    `gorm:"size:36;not null;uniqueIndex:idx_membership_user_group;index" json:"group_id"`
	Role     Role      `gorm:"type:varchar(16);not null" json:"role"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}
