package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an immutable audit record. Rows are only ever inserted.
type ActivityLog struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"size:36;not null;index" json:"user_id"`
	GroupID   *string        `gorm:"size:36;index" json:"group_id,omitempty"`
	Action    string         `gorm:"size:64;not null;index" json:"action"`
	Detail    string         `json:"detail"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
