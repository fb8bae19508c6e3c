package models

// User is a registered account. Relationships to groups, memberships and
// invitations are resolved by id through the services, never preloaded.
type User struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
}
