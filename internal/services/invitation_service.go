package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/realtime"
	"github.com/studyhub/studyhub-server/pkg/crypto"
	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/metrics"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

var (
	// ErrInvitationTokenRequired is returned when no token was supplied.
	ErrInvitationTokenRequired = apperrors.New("BAD_REQUEST", "Invitation token is required", http.StatusBadRequest)
	// ErrInvitationNotFound indicates no invitation matches the provided token.
	ErrInvitationNotFound = apperrors.New("INVITATION_NOT_FOUND", "Invitation not found", http.StatusNotFound)
	// ErrInvitationForbidden is returned when a non-owner tries to manage invitations.
	ErrInvitationForbidden = apperrors.New("INVITATION_FORBIDDEN", "Only the owner of a group may create invitations", http.StatusForbidden)
	// ErrInvitationExpired indicates the invitation passed its expiry.
	ErrInvitationExpired = apperrors.New("INVITATION_EXPIRED", "Token is expired", http.StatusForbidden)
	// ErrInvitationNotActive indicates the invitation was already used or revoked.
	ErrInvitationNotActive = apperrors.New("INVITATION_NOT_ACTIVE", "Token is not active", http.StatusForbidden)
)

// InvitationPreview is the public view of a token shown before it is accepted.
type InvitationPreview struct {
	GroupID   string                  `json:"group_id"`
	GroupName string                  `json:"group_name"`
	Status    models.InvitationStatus `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationTTL overrides the invitation lifetime.
func WithInvitationTTL(d time.Duration) InvitationOption {
	return func(s *InvitationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithInvitationClock injects a custom clock primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithInvitationTokenGenerator replaces the token source.
func WithInvitationTokenGenerator(fn func() (string, error)) InvitationOption {
	return func(s *InvitationService) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// InvitationService creates, validates and redeems group invitation tokens.
//
// An invitation starts ACTIVE and ends either USED (accepted once) or EXPIRED
// (discovered past its expiry, or revoked). Terminal states are never left.
type InvitationService struct {
	db        *gorm.DB
	members   *MembershipService
	activity  *ActivityService
	publisher EventPublisher
	ttl       time.Duration
	now       func() time.Time
	newToken  func() (string, error)
}

// NewInvitationService constructs an InvitationService with the provided dependencies.
func NewInvitationService(db *gorm.DB, members *MembershipService, activity *ActivityService, publisher EventPublisher, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	if members == nil {
		return nil, errors.New("invitation service: membership service is required")
	}

	service := &InvitationService{
		db:        db,
		members:   members,
		activity:  activity,
		publisher: publisher,
		ttl:       defaultInvitationTTL,
		now:       time.Now,
		newToken:  crypto.NewInvitationToken,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Create issues a new ACTIVE invitation for the group. Only the group owner may do so.
func (s *InvitationService) Create(ctx context.Context, actorID, groupID string) (invitation *models.Invitation, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeInvitation("create", err) }()

	actorID = strings.TrimSpace(actorID)
	groupID = strings.TrimSpace(groupID)

	if err := ensureGroupExists(s.db.WithContext(ctx), groupID); err != nil {
		return nil, err
	}

	isOwner, err := s.members.IsOwner(ctx, actorID, groupID)
	if err != nil {
		return nil, fmt.Errorf("invitation service: check owner: %w", err)
	}
	if !isOwner {
		return nil, ErrInvitationForbidden
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate token: %w", err)
	}

	now := s.now()
	invitation = &models.Invitation{
		Token:       token,
		GroupID:     groupID,
		CreatedByID: actorID,
		ExpiresAt:   now.Add(s.ttl),
		Status:      models.InvitationActive,
	}
	invitation.CreatedAt = now

	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   actorID,
		GroupID:  groupID,
		Action:   ActionInvitationCreate,
		Detail:   "created invitation",
		Metadata: map[string]any{"invitation_id": invitation.ID},
	})

	return invitation, nil
}

// ValidateToken returns the invitation when it is ACTIVE and not past its expiry.
// An ACTIVE invitation found past its expiry is moved to EXPIRED before failing; that write
// is kept even though the call fails.
func (s *InvitationService) ValidateToken(ctx context.Context, token string) (invitation *models.Invitation, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeInvitation("validate", err) }()

	return s.validate(ctx, token)
}

func (s *InvitationService) validate(ctx context.Context, token string) (*models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvitationTokenRequired
	}

	var invitation models.Invitation
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("invitation service: find invitation: %w", err)
	}

	now := s.now()
	if invitation.Status.Terminal() {
		if invitation.Status == models.InvitationExpired && invitation.ExpiredAt(now) {
			return nil, ErrInvitationExpired
		}
		return nil, ErrInvitationNotActive
	}
	if invitation.ExpiredAt(now) {
		if err := s.markExpired(ctx, invitation.ID, nil); err != nil {
			return nil, err
		}
		return nil, ErrInvitationExpired
	}
	return &invitation, nil
}

// Preview validates the token and returns the group it grants access to.
func (s *InvitationService) Preview(ctx context.Context, token string) (*InvitationPreview, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	var group models.StudyGroup
	if err := s.db.WithContext(ctx).First(&group, "id = ?", invitation.GroupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("invitation service: load group: %w", err)
	}

	return &InvitationPreview{
		GroupID:   group.ID,
		GroupName: group.Name,
		Status:    invitation.Status,
		ExpiresAt: invitation.ExpiresAt,
	}, nil
}

// Accept redeems the token for userID and adds them to the group as MEMBER.
// The status flip and the membership insert commit together; the status flip only succeeds
// while the row is still ACTIVE, so concurrent accepts of one token yield a single winner.
func (s *InvitationService) Accept(ctx context.Context, userID, token string) (invitation *models.Invitation, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeInvitation("accept", err) }()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	invitation, err = s.validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := ensureUserExists(s.db.WithContext(ctx), userID); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InvitationActive).
			Updates(map[string]any{
				"status":          models.InvitationUsed,
				"used_by_user_id": userID,
				"expires_at":      now,
			})
		if result.Error != nil {
			return fmt.Errorf("invitation service: mark used: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return ErrInvitationNotActive
		}

		_, err := s.members.addMember(tx, userID, invitation.GroupID, models.RoleMember)
		return err
	})
	if err != nil {
		return nil, err
	}

	invitation.Status = models.InvitationUsed
	invitation.UsedByUserID = &userID
	invitation.ExpiresAt = now

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		GroupID:  invitation.GroupID,
		Action:   ActionGroupJoin,
		Detail:   "joined group",
		Metadata: map[string]any{"invitation_id": invitation.ID},
	})
	publishGroupEvent(s.publisher, invitation.GroupID, realtime.EventMemberJoined, map[string]string{"user_id": userID})

	return invitation, nil
}

// ListForGroup returns every invitation of a group, newest first. Owner only.
func (s *InvitationService) ListForGroup(ctx context.Context, actorID, groupID string) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	if err := s.requireOwner(ctx, actorID, groupID); err != nil {
		return nil, err
	}

	var invitations []models.Invitation
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", strings.TrimSpace(groupID)).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}
	return invitations, nil
}

// Revoke expires an ACTIVE invitation immediately. Owner only.
func (s *InvitationService) Revoke(ctx context.Context, actorID, token string) (err error) {
	ctx = ensureContext(ctx)
	defer func() { observeInvitation("revoke", err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvitationTokenRequired
	}

	var invitation models.Invitation
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("invitation service: find invitation: %w", err)
	}

	if err := s.requireOwner(ctx, actorID, invitation.GroupID); err != nil {
		return err
	}

	now := s.now()
	if err := s.markExpired(ctx, invitation.ID, &now); err != nil {
		return err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   strings.TrimSpace(actorID),
		GroupID:  invitation.GroupID,
		Action:   ActionInvitationRevoke,
		Metadata: map[string]any{"invitation_id": invitation.ID},
	})
	return nil
}

// PurgeTerminal deletes USED and EXPIRED invitations whose expiry is older than the cutoff.
func (s *InvitationService) PurgeTerminal(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)

	cutoff := s.now().Add(-olderThan)
	result := s.db.WithContext(ctx).
		Where("status IN ? AND expires_at < ?", []models.InvitationStatus{models.InvitationUsed, models.InvitationExpired}, cutoff).
		Delete(&models.Invitation{})
	if result.Error != nil {
		return 0, fmt.Errorf("invitation service: purge: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// markExpired moves an ACTIVE invitation to EXPIRED. When expiresAt is set the expiry is
// pulled forward as well. Returns ErrInvitationNotActive if the row already left ACTIVE.
func (s *InvitationService) markExpired(ctx context.Context, id string, expiresAt *time.Time) error {
	updates := map[string]any{"status": models.InvitationExpired}
	if expiresAt != nil {
		updates["expires_at"] = *expiresAt
	}

	result := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, models.InvitationActive).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("invitation service: mark expired: %w", result.Error)
	}
	if result.RowsAffected == 0 && expiresAt != nil {
		return ErrInvitationNotActive
	}
	return nil
}

func (s *InvitationService) requireOwner(ctx context.Context, actorID, groupID string) error {
	err := s.members.RequireOwner(ctx, actorID, groupID)
	if errors.Is(err, ErrOwnerRequired) {
		return ErrInvitationForbidden
	}
	return err
}

func observeInvitation(operation string, err error) {
	result := "ok"
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			result = appErr.Code
		} else {
			result = "error"
		}
	}
	metrics.InvitationEvents.WithLabelValues(operation, result).Inc()
}
