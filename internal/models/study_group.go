package models

// StudyGroup owns tasks, resources, memberships and invitations. Deleting a
// group removes all of them in one transaction.
type StudyGroup struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description string `json:"description"`
	CreatedByID string `gorm:"size:36;not null;index" json:"created_by_id"`
}
