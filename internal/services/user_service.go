package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/pkg/crypto"
	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken signals the email is already registered.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email is already registered", http.StatusConflict)
)

// RegisterInput describes the fields accepted when creating an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateProfileInput enumerates mutable user attributes.
type UpdateProfileInput struct {
	Name     *string
	Password *string
}

// UserService manages accounts and credential checks.
type UserService struct {
	db       *gorm.DB
	activity *ActivityService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, activity *ActivityService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{
		db:       db,
		activity: activity,
	}, nil
}

// Register provisions a new user with a bcrypt hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, storeError("user service: create user", err, ErrEmailTaken)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID: user.ID,
		Action: ActionUserRegister,
		Detail: "registered",
	})

	return user, nil
}

// Authenticate checks the email and password pair. Unknown emails and wrong passwords
// produce the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile changes the display name and optionally the password.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := trimmedPtr(input.Name); name != nil {
		if *name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = *name
	}
	if input.Password != nil {
		if strings.TrimSpace(*input.Password) == "" {
			return nil, apperrors.NewBadRequest("password cannot be empty")
		}
		hashed, err := crypto.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("user service: hash password: %w", err)
		}
		updates["password_hash"] = hashed
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update user: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes the account with its memberships, the groups it owns, the invitations,
// tasks and resources it created and its activity log.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ownedGroupIDs []string
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND role = ?", user.ID, models.RoleOwner).
			Pluck("group_id", &ownedGroupIDs).Error; err != nil {
			return fmt.Errorf("user service: load owned groups: %w", err)
		}
		for _, groupID := range ownedGroupIDs {
			if err := deleteGroupCascade(tx, groupID); err != nil {
				return fmt.Errorf("user service: %w", err)
			}
		}

		cascades := []struct {
			column string
			model  any
		}{
			{"user_id", &models.Membership{}},
			{"user_id", &models.ActivityLog{}},
			{"created_by_id", &models.Invitation{}},
			{"created_by_id", &models.Task{}},
			{"created_by_id", &models.Resource{}},
		}
		for _, cascade := range cascades {
			if err := tx.Where(cascade.column+" = ?", user.ID).Delete(cascade.model).Error; err != nil {
				return fmt.Errorf("user service: delete %T: %w", cascade.model, err)
			}
		}

		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("user service: delete user: %w", err)
		}
		return nil
	})
}
