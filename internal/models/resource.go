package models

// Resource is a shared link (notes, slides, papers) attached to a group.
type Resource struct {
	BaseModel

	GroupID     string `gorm:"size:36;not null;index" json:"group_id"`
	CreatedByID string `gorm:"size:36;not null;index" json:"created_by_id"`
	Title       string `gorm:"not null" json:"title"`
	URL         string `gorm:"not null" json:"url"`
}
