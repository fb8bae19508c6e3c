package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/realtime"
	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
)

var (
	// ErrGroupNotFound indicates the requested study group does not exist.
	ErrGroupNotFound = apperrors.New("GROUP_NOT_FOUND", "Study group not found", http.StatusNotFound)
	// ErrNotGroupMember is returned when the caller does not belong to the group.
	ErrNotGroupMember = apperrors.New("NOT_GROUP_MEMBER", "You are not a member of this group", http.StatusForbidden)
	// ErrOwnerRequired is returned when an owner-only action is attempted by a non-owner.
	ErrOwnerRequired = apperrors.New("OWNER_REQUIRED", "Only the owner of the group may perform this action", http.StatusForbidden)
	// ErrMembershipNotFound indicates the user is not a member of the group.
	ErrMembershipNotFound = apperrors.New("MEMBERSHIP_NOT_FOUND", "User is not a member of the group", http.StatusNotFound)
	// ErrOwnerCannotLeave prevents a group from losing its owner.
	ErrOwnerCannotLeave = apperrors.New("OWNER_CANNOT_LEAVE", "The owner cannot leave the group; delete it instead", http.StatusBadRequest)
)

// MemberView is a membership joined with the member's public profile.
type MemberView struct {
	UserID   string      `json:"user_id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

// MembershipOption customises MembershipService behaviour.
type MembershipOption func(*MembershipService)

// WithMembershipClock injects a custom clock primarily for testing.
func WithMembershipClock(clock func() time.Time) MembershipOption {
	return func(s *MembershipService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// MembershipService is the single source of truth for who belongs to which group and with which role.
type MembershipService struct {
	db        *gorm.DB
	activity  *ActivityService
	publisher EventPublisher
	now       func() time.Time
}

// NewMembershipService constructs a MembershipService instance.
func NewMembershipService(db *gorm.DB, activity *ActivityService, publisher EventPublisher, opts ...MembershipOption) (*MembershipService, error) {
	if db == nil {
		return nil, errors.New("membership service: db is required")
	}

	service := &MembershipService{
		db:        db,
		activity:  activity,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// AddMember makes userID a member of groupID with the given role. The call is idempotent:
// when the pair already exists the stored membership is returned and its role is left untouched.
func (s *MembershipService) AddMember(ctx context.Context, userID, groupID string, role models.Role) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	groupID = strings.TrimSpace(groupID)
	if userID == "" || groupID == "" {
		return nil, apperrors.NewBadRequest("user id and group id are required")
	}
	if !role.Valid() {
		return nil, apperrors.NewBadRequest("invalid membership role")
	}

	db := s.db.WithContext(ctx)
	if err := ensureGroupExists(db, groupID); err != nil {
		return nil, err
	}
	if err := ensureUserExists(db, userID); err != nil {
		return nil, err
	}

	return s.addMember(db, userID, groupID, role)
}

// addMember inserts the membership on the supplied handle, which may be a transaction.
func (s *MembershipService) addMember(tx *gorm.DB, userID, groupID string, role models.Role) (*models.Membership, error) {
	candidate := models.Membership{
		UserID:   userID,
		GroupID:  groupID,
		Role:     role,
		JoinedAt: s.now(),
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("membership service: add member: %w", err)
		}
	}

	var stored models.Membership
	if err := tx.Where("user_id = ? AND group_id = ?", userID, groupID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("membership service: load membership: %w", err)
	}
	return &stored, nil
}

// IsMember reports whether the user belongs to the group in any role.
func (s *MembershipService) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	_, found, err := s.lookup(ensureContext(ctx), userID, groupID)
	return found, err
}

// IsOwner reports whether the user holds the OWNER role in the group. A missing membership is not an error.
func (s *MembershipService) IsOwner(ctx context.Context, userID, groupID string) (bool, error) {
	membership, found, err := s.lookup(ensureContext(ctx), userID, groupID)
	if err != nil || !found {
		return false, err
	}
	return membership.Role == models.RoleOwner, nil
}

// RequireMember fails with ErrGroupNotFound or ErrNotGroupMember unless the user belongs to the group.
func (s *MembershipService) RequireMember(ctx context.Context, userID, groupID string) error {
	ctx = ensureContext(ctx)
	if err := ensureGroupExists(s.db.WithContext(ctx), groupID); err != nil {
		return err
	}
	ok, err := s.IsMember(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotGroupMember
	}
	return nil
}

// RequireOwner fails with ErrGroupNotFound or ErrOwnerRequired unless the user owns the group.
func (s *MembershipService) RequireOwner(ctx context.Context, userID, groupID string) error {
	ctx = ensureContext(ctx)
	if err := ensureGroupExists(s.db.WithContext(ctx), groupID); err != nil {
		return err
	}
	ok, err := s.IsOwner(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOwnerRequired
	}
	return nil
}

// ListMembers returns the members of a group ordered by join time.
func (s *MembershipService) ListMembers(ctx context.Context, groupID string) ([]MemberView, error) {
	ctx = ensureContext(ctx)

	var members []MemberView
	err := s.db.WithContext(ctx).
		Table("memberships").
		Select("memberships.user_id, users.name, users.email, memberships.role, memberships.joined_at").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.group_id = ?", strings.TrimSpace(groupID)).
		Order("memberships.joined_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, fmt.Errorf("membership service: list members: %w", err)
	}
	return members, nil
}

// ListGroupIDsForUser returns the ids of every group the user belongs to.
func (s *MembershipService) ListGroupIDsForUser(ctx context.Context, userID string) ([]string, error) {
	ctx = ensureContext(ctx)

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("membership service: list groups: %w", err)
	}
	return ids, nil
}

// RemoveMember deletes a membership. Owners may remove any other member; members may remove themselves.
// The owner can never be removed.
func (s *MembershipService) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	ctx = ensureContext(ctx)

	actorID = strings.TrimSpace(actorID)
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)

	if err := s.RequireMember(ctx, actorID, groupID); err != nil {
		return err
	}

	actorIsOwner, err := s.IsOwner(ctx, actorID, groupID)
	if err != nil {
		return err
	}

	switch {
	case actorID == userID && actorIsOwner:
		return ErrOwnerCannotLeave
	case actorID != userID && !actorIsOwner:
		return ErrOwnerRequired
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&models.Membership{})
	if result.Error != nil {
		return fmt.Errorf("membership service: remove member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}

	action := ActionMemberRemove
	if actorID == userID {
		action = ActionGroupLeave
	}
	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		GroupID:  groupID,
		Action:   action,
		Metadata: map[string]any{"user_id": userID},
	})
	publishGroupEvent(s.publisher, groupID, realtime.EventMemberLeft, map[string]string{"user_id": userID})

	return nil
}

func (s *MembershipService) lookup(ctx context.Context, userID, groupID string) (*models.Membership, bool, error) {
	userID = strings.TrimSpace(userID)
	groupID = strings.TrimSpace(groupID)
	if userID == "" || groupID == "" {
		return nil, false, nil
	}

	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("membership service: lookup: %w", err)
	}
	return &membership, true, nil
}

func ensureGroupExists(db *gorm.DB, groupID string) error {
	var count int64
	if err := db.Model(&models.StudyGroup{}).Where("id = ?", strings.TrimSpace(groupID)).Count(&count).Error; err != nil {
		return fmt.Errorf("load group: %w", err)
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func ensureUserExists(db *gorm.DB, userID string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", strings.TrimSpace(userID)).Count(&count).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
