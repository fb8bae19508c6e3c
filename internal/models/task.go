package models

import "time"

// TaskStatus tracks task progress inside a group.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

type Task struct {
	BaseModel

	GroupID     string     `gorm:"size:36;not null;index" json:"group_id"`
	CreatedByID string     `gorm:"size:36;not null;index" json:"created_by_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `gorm:"type:varchar(16);not null;default:'TODO'" json:"status"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}
