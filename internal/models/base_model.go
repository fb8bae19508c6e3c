package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by every mutable entity. Ids are UUID strings in a
// varchar(36) column, which sqlite, postgres and mysql all index the same way.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// assignID fills an empty primary key. Callers that need the id before the
// insert (to reference it from a sibling row) may set it themselves.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
