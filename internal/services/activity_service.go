package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/pkg/logger"
)

// Activity actions recorded by the services.
const (
	ActionUserRegister     = "user.register"
	ActionGroupCreate      = "group.create"
	ActionGroupUpdate      = "group.update"
	ActionGroupDelete      = "group.delete"
	ActionGroupJoin        = "group.join"
	ActionGroupLeave       = "group.leave"
	ActionMemberRemove     = "member.remove"
	ActionInvitationCreate = "invitation.create"
	ActionInvitationRevoke = "invitation.revoke"
	ActionTaskCreate       = "task.create"
	ActionTaskUpdate       = "task.update"
	ActionTaskDelete       = "task.delete"
	ActionResourceCreate   = "resource.create"
	ActionResourceDelete   = "resource.delete"
)

// ActivityEntry captures a single activity event to persist.
type ActivityEntry struct {
	UserID   string
	GroupID  string
	Action   string
	Detail   string
	Metadata map[string]any
}

// ActivityOption customises ActivityService behaviour.
type ActivityOption func(*ActivityService)

// WithActivityClock injects a custom clock used by retention cleanup.
func WithActivityClock(clock func() time.Time) ActivityOption {
	return func(s *ActivityService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ActivityService appends and reads the per-user activity log.
type ActivityService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewActivityService constructs an ActivityService using the provided database handle.
func NewActivityService(db *gorm.DB, opts ...ActivityOption) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	service := &ActivityService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Log appends an activity entry, marshalling metadata into JSON form.
func (s *ActivityService) Log(ctx context.Context, entry ActivityEntry) error {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(entry.UserID)
	if userID == "" {
		return errors.New("activity service: user id is required")
	}
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return errors.New("activity service: action is required")
	}

	record := models.ActivityLog{
		UserID: userID,
		Action: action,
		Detail: strings.TrimSpace(entry.Detail),
	}

	if groupID := strings.TrimSpace(entry.GroupID); groupID != "" {
		record.GroupID = &groupID
	}

	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("activity service: marshal metadata: %w", err)
		}
		record.Metadata = datatypes.JSON(encoded)
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("activity service: create entry: %w", err)
	}
	return nil
}

// ListForUser returns the most recent entries written by a user, newest first.
func (s *ActivityService) ListForUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	ctx = ensureContext(ctx)

	var entries []models.ActivityLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Limit(normaliseLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("activity service: list for user: %w", err)
	}
	return entries, nil
}

// ListForGroup returns the most recent entries scoped to a group, newest first.
func (s *ActivityService) ListForGroup(ctx context.Context, groupID string, limit int) ([]models.ActivityLog, error) {
	ctx = ensureContext(ctx)

	var entries []models.ActivityLog
	err := s.db.WithContext(ctx).
		Where("group_id = ?", strings.TrimSpace(groupID)).
		Order("created_at DESC").
		Limit(normaliseLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("activity service: list for group: %w", err)
	}
	return entries, nil
}

// CleanupOlderThan removes entries older than the retention window. A non-positive
// window disables cleanup.
func (s *ActivityService) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("activity service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// recordActivity logs the supplied entry while tolerating failures. The state change it
// describes has already committed, so a failed write is only reported.
func recordActivity(activity *ActivityService, ctx context.Context, entry ActivityEntry) {
	if activity == nil {
		return
	}
	if err := activity.Log(ctx, entry); err != nil {
		logger.WithModule("activity").Warn("failed to record activity",
			zap.String("action", entry.Action),
			zap.String("user_id", entry.UserID),
			zap.String("group_id", entry.GroupID),
			zap.Error(err),
		)
	}
}
