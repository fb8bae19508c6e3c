package models

import "time"

// InvitationStatus is the state of an invitation token.
type InvitationStatus string

const (
	InvitationActive  InvitationStatus = "ACTIVE"
	InvitationUsed    InvitationStatus = "USED"
	InvitationExpired InvitationStatus = "EXPIRED"
)

// Valid reports whether s is a known status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationActive, InvitationUsed, InvitationExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s InvitationStatus) Terminal() bool {
	switch s {
	case InvitationUsed, InvitationExpired:
		return true
	case InvitationActive:
		return false
	}
	return true
}

// Invitation is a single-use, time-limited token granting membership of one group.
type Invitation struct {
	BaseModel

	Token        string           `gorm:"uniqueIndex;size:64;not null" json:"token"`
	GroupID      string           `gorm:"size:36;not null;index" json:"group_id"`
	CreatedByID  string           `gorm:"size:36;not null;index" json:"created_by_id"`
	ExpiresAt    time.Time        `gorm:"not null;index" json:"expires_at"`
	UsedByUserID *string          `gorm:"size:36" json:"used_by_user_id,omitempty"`
	Status       InvitationStatus `gorm:"type:varchar(16);not null;index" json:"status"`
}

// ExpiredAt reports whether the invitation's expiry lies strictly before now.
func (i *Invitation) ExpiredAt(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
