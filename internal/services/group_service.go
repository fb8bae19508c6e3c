package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/realtime"
	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
)

// ErrGroupNameTaken signals a group with the same name already exists.
var ErrGroupNameTaken = apperrors.New("GROUP_NAME_TAKEN", "A study group with this name already exists", http.StatusConflict)

// CreateGroupInput captures new group metadata.
type CreateGroupInput struct {
	Name        string
	Description string
}

// UpdateGroupInput describes mutable group fields.
type UpdateGroupInput struct {
	Name        *string
	Description *string
}

// GroupService handles the study group lifecycle.
type GroupService struct {
	db        *gorm.DB
	members   *MembershipService
	activity  *ActivityService
	publisher EventPublisher
}

// NewGroupService constructs a GroupService instance.
func NewGroupService(db *gorm.DB, members *MembershipService, activity *ActivityService, publisher EventPublisher) (*GroupService, error) {
	if db == nil {
		return nil, errors.New("group service: db is required")
	}
	if members == nil {
		return nil, errors.New("group service: membership service is required")
	}
	return &GroupService{
		db:        db,
		members:   members,
		activity:  activity,
		publisher: publisher,
	}, nil
}

// Create registers a new group and makes the actor its OWNER in the same transaction.
func (s *GroupService) Create(ctx context.Context, actorID string, input CreateGroupInput) (*models.StudyGroup, error) {
	ctx = ensureContext(ctx)

	actorID = strings.TrimSpace(actorID)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("group name is required")
	}
	if err := ensureUserExists(s.db.WithContext(ctx), actorID); err != nil {
		return nil, err
	}

	group := &models.StudyGroup{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedByID: actorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		_, err := s.members.addMember(tx, actorID, group.ID, models.RoleOwner)
		return err
	})
	if err != nil {
		return nil, storeError("group service: create group", err, ErrGroupNameTaken)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		GroupID:  group.ID,
		Action:   ActionGroupCreate,
		Detail:   group.Name,
		Metadata: map[string]any{"name": group.Name},
	})

	return group, nil
}

// Get returns a group visible to the actor. Only members may read a group.
func (s *GroupService) Get(ctx context.Context, actorID, id string) (*models.StudyGroup, error) {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, id); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// ListForUser returns the groups the user belongs to ordered by name.
func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]models.StudyGroup, error) {
	ctx = ensureContext(ctx)

	memberOf := s.db.Model(&models.Membership{}).
		Select("group_id").
		Where("user_id = ?", strings.TrimSpace(userID))

	var groups []models.StudyGroup
	if err := s.db.WithContext(ctx).
		Where("id IN (?)", memberOf).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("group service: list groups: %w", err)
	}
	return groups, nil
}

// Update modifies group metadata. Owner only.
func (s *GroupService) Update(ctx context.Context, actorID, id string, input UpdateGroupInput) (*models.StudyGroup, error) {
	ctx = ensureContext(ctx)

	if err := s.members.RequireOwner(ctx, actorID, id); err != nil {
		return nil, err
	}

	group, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := trimmedPtr(input.Name); name != nil {
		if *name == "" {
			return nil, apperrors.NewBadRequest("group name cannot be empty")
		}
		updates["name"] = *name
	}
	if description := trimmedPtr(input.Description); description != nil {
		updates["description"] = *description
	}

	if len(updates) == 0 {
		return group, nil
	}

	if err := s.db.WithContext(ctx).Model(group).Updates(updates).Error; err != nil {
		return nil, storeError("group service: update group", err, ErrGroupNameTaken)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   strings.TrimSpace(actorID),
		GroupID:  group.ID,
		Action:   ActionGroupUpdate,
		Metadata: updates,
	})

	return s.load(ctx, id)
}

// Delete removes the group with its tasks, resources, memberships and invitations. Owner only.
func (s *GroupService) Delete(ctx context.Context, actorID, id string) error {
	ctx = ensureContext(ctx)

	if err := s.members.RequireOwner(ctx, actorID, id); err != nil {
		return err
	}

	group, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteGroupCascade(tx, group.ID)
	}); err != nil {
		return fmt.Errorf("group service: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   strings.TrimSpace(actorID),
		GroupID:  group.ID,
		Action:   ActionGroupDelete,
		Detail:   group.Name,
	})
	publishGroupEvent(s.publisher, group.ID, realtime.EventGroupDeleted, map[string]string{"group_id": group.ID})

	return nil
}

func (s *GroupService) load(ctx context.Context, id string) (*models.StudyGroup, error) {
	var group models.StudyGroup
	err := s.db.WithContext(ctx).First(&group, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("group service: load group: %w", err)
	}
	return &group, nil
}

// deleteGroupCascade removes a group and everything scoped to it. Activity entries are kept.
func deleteGroupCascade(tx *gorm.DB, groupID string) error {
	children := []any{
		&models.Task{},
		&models.Resource{},
		&models.Invitation{},
		&models.Membership{},
	}
	for _, model := range children {
		if err := tx.Where("group_id = ?", groupID).Delete(model).Error; err != nil {
			return fmt.Errorf("delete group %s children %T: %w", groupID, model, err)
		}
	}
	if err := tx.Where("id = ?", groupID).Delete(&models.StudyGroup{}).Error; err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}
	return nil
}
