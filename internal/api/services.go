package api

import (
	"errors"

	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/app"
	"github.com/studyhub/studyhub-server/internal/services"
)

// Services groups the domain services shared by the HTTP layer and background jobs.
type Services struct {
	Users       *services.UserService
	Groups      *services.GroupService
	Members     *services.MembershipService
	Invitations *services.InvitationService
	Activity    *services.ActivityService
	Tasks       *services.TaskService
	Resources   *services.ResourceService
}

// NewServices builds every domain service on top of db. publisher may be nil, in which case
// no realtime events are emitted.
func NewServices(db *gorm.DB, publisher services.EventPublisher, cfg *app.Config) (*Services, error) {
	if db == nil {
		return nil, errors.New("api: database handle must be provided")
	}

	activity, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}

	members, err := services.NewMembershipService(db, activity, publisher)
	if err != nil {
		return nil, err
	}

	var invitationOpts []services.InvitationOption
	if cfg != nil && cfg.Invitations.TTL > 0 {
		invitationOpts = append(invitationOpts, services.WithInvitationTTL(cfg.Invitations.TTL))
	}
	invitations, err := services.NewInvitationService(db, members, activity, publisher, invitationOpts...)
	if err != nil {
		return nil, err
	}

	users, err := services.NewUserService(db, activity)
	if err != nil {
		return nil, err
	}

	groups, err := services.NewGroupService(db, members, activity, publisher)
	if err != nil {
		return nil, err
	}

	tasks, err := services.NewTaskService(db, members, activity, publisher)
	if err != nil {
		return nil, err
	}

	resources, err := services.NewResourceService(db, members, activity)
	if err != nil {
		return nil, err
	}

	return &Services{
		Users:       users,
		Groups:      groups,
		Members:     members,
		Invitations: invitations,
		Activity:    activity,
		Tasks:       tasks,
		Resources:   resources,
	}, nil
}
