package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/models"
	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
)

// ErrResourceNotFound indicates the requested resource does not exist in the group.
var ErrResourceNotFound = apperrors.New("RESOURCE_NOT_FOUND", "Resource not found", http.StatusNotFound)

// CreateResourceInput captures a shared link.
type CreateResourceInput struct {
	Title string
	URL   string
}

// ResourceService manages links shared inside a group.
type ResourceService struct {
	db       *gorm.DB
	members  *MembershipService
	activity *ActivityService
}

// NewResourceService constructs a ResourceService instance.
func NewResourceService(db *gorm.DB, members *MembershipService, activity *ActivityService) (*ResourceService, error) {
	if db == nil {
		return nil, errors.New("resource service: db is required")
	}
	if members == nil {
		return nil, errors.New("resource service: membership service is required")
	}
	return &ResourceService{db: db, members: members, activity: activity}, nil
}

// Create shares a new link with the group.
func (s *ResourceService) Create(ctx context.Context, actorID, groupID string, input CreateResourceInput) (*models.Resource, error) {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("resource title is required")
	}
	link := strings.TrimSpace(input.URL)
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, apperrors.NewBadRequest("resource url must be an absolute http(s) url")
	}

	resource := &models.Resource{
		GroupID:     strings.TrimSpace(groupID),
		CreatedByID: strings.TrimSpace(actorID),
		Title:       title,
		URL:         link,
	}

	if err := s.db.WithContext(ctx).Create(resource).Error; err != nil {
		return nil, fmt.Errorf("resource service: create resource: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   resource.CreatedByID,
		GroupID:  resource.GroupID,
		Action:   ActionResourceCreate,
		Detail:   resource.Title,
		Metadata: map[string]any{"resource_id": resource.ID, "url": resource.URL},
	})

	return resource, nil
}

// List returns the links shared with the group, newest first.
func (s *ResourceService) List(ctx context.Context, actorID, groupID string) ([]models.Resource, error) {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}

	var resources []models.Resource
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", strings.TrimSpace(groupID)).
		Order("created_at DESC").
		Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("resource service: list resources: %w", err)
	}
	return resources, nil
}

// Delete removes a link. Members may delete their own links; owners may delete any.
func (s *ResourceService) Delete(ctx context.Context, actorID, groupID, resourceID string) error {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, groupID); err != nil {
		return err
	}

	var resource models.Resource
	err := s.db.WithContext(ctx).
		Where("id = ? AND group_id = ?", strings.TrimSpace(resourceID), strings.TrimSpace(groupID)).
		First(&resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResourceNotFound
	}
	if err != nil {
		return fmt.Errorf("resource service: load resource: %w", err)
	}

	if resource.CreatedByID != strings.TrimSpace(actorID) {
		isOwner, err := s.members.IsOwner(ctx, actorID, groupID)
		if err != nil {
			return err
		}
		if !isOwner {
			return ErrOwnerRequired
		}
	}

	if err := s.db.WithContext(ctx).Delete(&resource).Error; err != nil {
		return fmt.Errorf("resource service: delete resource: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   strings.TrimSpace(actorID),
		GroupID:  resource.GroupID,
		Action:   ActionResourceDelete,
		Detail:   resource.Title,
		Metadata: map[string]any{"resource_id": resource.ID},
	})
	return nil
}
