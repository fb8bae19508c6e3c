package database

import (
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.StudyGroup{},
		&models.Membership{},
		&models.Invitation{},
		&models.ActivityLog{},
		&models.Task{},
		&models.Resource{},
	)
}
