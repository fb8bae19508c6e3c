package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/realtime"
	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
)

func TestInvitationCreateByOwner(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")

	invitation, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitationActive, invitation.Status)
	require.NotEmpty(t, invitation.Token)
	require.Equal(t, group.ID, invitation.GroupID)
	require.Equal(t, alice.ID, invitation.CreatedByID)
	require.True(t, invitation.ExpiresAt.After(f.clock.Now().Add(6*24*time.Hour)))
	require.Equal(t, f.clock.Now().Add(7*24*time.Hour), invitation.ExpiresAt)
	require.EqualValues(t, 1, f.countActivity(t, ActionInvitationCreate))
}

func TestInvitationCreateByNonOwnerPersistsNothing(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	bob := f.mustRegister(t, "bob")
	group := f.mustCreateGroup(t, alice, "Physics")

	_, err := f.members.AddMember(ctx, bob.ID, group.ID, models.RoleMember)
	require.NoError(t, err)

	for _, actor := range []string{bob.ID, "stranger"} {
		_, err := f.invitations.Create(ctx, actor, group.ID)
		require.ErrorIs(t, err, ErrInvitationForbidden)
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Invitation{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestInvitationCreateUnknownGroup(t *testing.T) {
	f := newServiceFixture(t)
	alice := f.mustRegister(t, "alice")

	_, err := f.invitations.Create(context.Background(), alice.ID, "missing")
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestInvitationCreateUsesConfiguredTTL(t *testing.T) {
	f := newServiceFixture(t)
	svc, err := NewInvitationService(f.db, f.members, f.activity, nil,
		WithInvitationClock(f.clock.Now),
		WithInvitationTTL(48*time.Hour),
	)
	require.NoError(t, err)

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")

	invitation, err := svc.Create(context.Background(), alice.ID, group.ID)
	require.NoError(t, err)
	require.Equal(t, f.clock.Now().Add(48*time.Hour), invitation.ExpiresAt)
}

func TestValidateTokenEmptyCheckedBeforeLookup(t *testing.T) {
	f := newServiceFixture(t)

	for _, token := range []string{"", "   "} {
		_, err := f.invitations.ValidateToken(context.Background(), token)
		require.ErrorIs(t, err, ErrInvitationTokenRequired)
		require.ErrorIs(t, err, apperrors.ErrBadRequest)
	}
}

func TestValidateTokenUnknown(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.invitations.ValidateToken(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestValidateTokenActiveIsReadOnly(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")
	created, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	validated, err := f.invitations.ValidateToken(ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, created.ID, validated.ID)
	require.Equal(t, models.InvitationActive, validated.Status)

	var stored models.Invitation
	require.NoError(t, f.db.First(&stored, "id = ?", created.ID).Error)
	require.Equal(t, models.InvitationActive, stored.Status)
	require.Nil(t, stored.UsedByUserID)
}

func TestValidateTokenExpiredPersistsTransition(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")
	created, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)

	_, err = f.invitations.ValidateToken(ctx, created.Token)
	require.ErrorIs(t, err, ErrInvitationExpired)

	var stored models.Invitation
	require.NoError(t, f.db.First(&stored, "id = ?", created.ID).Error)
	require.Equal(t, models.InvitationExpired, stored.Status)

	// Terminal: a second check fails the same way and leaves the status alone.
	_, err = f.invitations.ValidateToken(ctx, created.Token)
	require.ErrorIs(t, err, ErrInvitationExpired)
	require.NoError(t, f.db.First(&stored, "id = ?", created.ID).Error)
	require.Equal(t, models.InvitationExpired, stored.Status)
}

func TestValidateTokenTerminalStatuses(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")

	used, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Invitation{}).Where("id = ?", used.ID).
		Update("status", models.InvitationUsed).Error)

	_, err = f.invitations.ValidateToken(ctx, used.Token)
	require.ErrorIs(t, err, ErrInvitationNotActive)

	// Expired before its deadline, e.g. revoked by the owner.
	revoked, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Invitation{}).Where("id = ?", revoked.ID).
		Update("status", models.InvitationExpired).Error)

	_, err = f.invitations.ValidateToken(ctx, revoked.Token)
	require.ErrorIs(t, err, ErrInvitationNotActive)
	require.NotErrorIs(t, err, ErrInvitationExpired)
}

func TestValidateTokenExactlyAtExpiryIsStillActive(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")
	created, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	f.clock.Advance(7 * 24 * time.Hour)

	_, err = f.invitations.ValidateToken(ctx, created.Token)
	require.NoError(t, err)
}

func TestAcceptInvitationScenario(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	bob := f.mustRegister(t, "bob")
	carol := f.mustRegister(t, "carol")
	physics := f.mustCreateGroup(t, alice, "Physics")

	invitation, err := f.invitations.Create(ctx, alice.ID, physics.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitationActive, invitation.Status)

	preview, err := f.invitations.Preview(ctx, invitation.Token)
	require.NoError(t, err)
	require.Equal(t, "Physics", preview.GroupName)
	require.Equal(t, models.InvitationActive, preview.Status)

	accepted, err := f.invitations.Accept(ctx, bob.ID, invitation.Token)
	require.NoError(t, err)
	require.Equal(t, models.InvitationUsed, accepted.Status)
	require.NotNil(t, accepted.UsedByUserID)
	require.Equal(t, bob.ID, *accepted.UsedByUserID)

	var membership models.Membership
	require.NoError(t, f.db.Where("user_id = ? AND group_id = ?", bob.ID, physics.ID).First(&membership).Error)
	require.Equal(t, models.RoleMember, membership.Role)

	var stored models.Invitation
	require.NoError(t, f.db.First(&stored, "id = ?", invitation.ID).Error)
	require.Equal(t, models.InvitationUsed, stored.Status)
	require.Equal(t, bob.ID, *stored.UsedByUserID)
	require.False(t, stored.ExpiresAt.After(f.clock.Now()))

	require.EqualValues(t, 1, f.countActivity(t, ActionGroupJoin))
	joined := f.events.Events(realtime.EventMemberJoined)
	require.Len(t, joined, 1)
	require.Equal(t, physics.ID, joined[0].GroupID)

	for _, user := range []*models.User{bob, carol} {
		_, err := f.invitations.Accept(ctx, user.ID, invitation.Token)
		require.ErrorIs(t, err, ErrInvitationNotActive)
	}

	// A used token keeps its redemption record.
	require.NoError(t, f.db.First(&stored, "id = ?", invitation.ID).Error)
	require.Equal(t, models.InvitationUsed, stored.Status)

	isMember, err := f.members.IsMember(ctx, carol.ID, physics.ID)
	require.NoError(t, err)
	require.False(t, isMember)
}

func TestAcceptExpiredInvitationDistinctFromUsed(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	bob := f.mustRegister(t, "bob")
	group := f.mustCreateGroup(t, alice, "Physics")

	invitation, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	f.clock.Advance(7*24*time.Hour + time.Second)

	_, err = f.invitations.Accept(ctx, bob.ID, invitation.Token)
	require.ErrorIs(t, err, ErrInvitationExpired)
	require.NotErrorIs(t, err, ErrInvitationNotActive)

	var stored models.Invitation
	require.NoError(t, f.db.First(&stored, "id = ?", invitation.ID).Error)
	require.Equal(t, models.InvitationExpired, stored.Status)
	require.Nil(t, stored.UsedByUserID)

	isMember, err := f.members.IsMember(ctx, bob.ID, group.ID)
	require.NoError(t, err)
	require.False(t, isMember)
}

func TestAcceptByExistingMemberKeepsRole(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")

	invitation, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	_, err = f.invitations.Accept(ctx, alice.ID, invitation.Token)
	require.NoError(t, err)

	isOwner, err := f.members.IsOwner(ctx, alice.ID, group.ID)
	require.NoError(t, err)
	require.True(t, isOwner)

	var count int64
	require.NoError(t, f.db.Model(&models.Membership{}).Where("group_id = ?", group.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAcceptConcurrentRedemptionHasSingleWinner(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")

	const contenders = 8
	users := make([]*models.User, contenders)
	for i := range users {
		users[i] = f.mustRegister(t, "student"+string(rune('a'+i)))
	}

	invitation, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes = make(chan string, contenders)
		failures  = make(chan error, contenders)
	)
	for _, user := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			<-start
			if _, err := f.invitations.Accept(ctx, userID, invitation.Token); err != nil {
				failures <- err
				return
			}
			successes <- userID
		}(user.ID)
	}
	close(start)
	wg.Wait()
	close(successes)
	close(failures)

	var winners []string
	for id := range successes {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1)
	for err := range failures {
		require.ErrorIs(t, err, ErrInvitationNotActive)
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Membership{}).
		Where("group_id = ? AND role = ?", group.ID, models.RoleMember).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	var stored models.Invitation
	require.NoError(t, f.db.First(&stored, "id = ?", invitation.ID).Error)
	require.Equal(t, winners[0], *stored.UsedByUserID)
}

func TestTokenRoundTrip(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	bob := f.mustRegister(t, "bob")
	group := f.mustCreateGroup(t, alice, "Physics")

	created, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	validated, err := f.invitations.ValidateToken(ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, created.Token, validated.Token)

	accepted, err := f.invitations.Accept(ctx, bob.ID, created.Token)
	require.NoError(t, err)
	require.Equal(t, created.ID, accepted.ID)
}

func TestAcceptUnknownUser(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	group := f.mustCreateGroup(t, alice, "Physics")
	invitation, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	_, err = f.invitations.Accept(ctx, "ghost", invitation.Token)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.invitations.ValidateToken(ctx, invitation.Token)
	require.NoError(t, err)
}

func TestInvitationRevokeAndList(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	bob := f.mustRegister(t, "bob")
	group := f.mustCreateGroup(t, alice, "Physics")

	first, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	_, err = f.invitations.ListForGroup(ctx, bob.ID, group.ID)
	require.ErrorIs(t, err, ErrInvitationForbidden)

	require.ErrorIs(t, f.invitations.Revoke(ctx, bob.ID, first.Token), ErrInvitationForbidden)
	require.NoError(t, f.invitations.Revoke(ctx, alice.ID, first.Token))
	require.ErrorIs(t, f.invitations.Revoke(ctx, alice.ID, first.Token), ErrInvitationNotActive)

	f.clock.Advance(time.Second)
	_, err = f.invitations.Accept(ctx, bob.ID, first.Token)
	require.ErrorIs(t, err, ErrInvitationExpired)

	invitations, err := f.invitations.ListForGroup(ctx, alice.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, invitations, 2)

	statuses := map[models.InvitationStatus]int{}
	for _, inv := range invitations {
		statuses[inv.Status]++
	}
	require.Equal(t, 1, statuses[models.InvitationExpired])
	require.Equal(t, 1, statuses[models.InvitationActive])
}

func TestInvitationPurgeTerminal(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice")
	bob := f.mustRegister(t, "bob")
	group := f.mustCreateGroup(t, alice, "Physics")

	used, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)
	_, err = f.invitations.Accept(ctx, bob.ID, used.Token)
	require.NoError(t, err)

	active, err := f.invitations.Create(ctx, alice.ID, group.ID)
	require.NoError(t, err)

	f.clock.Advance(3 * 24 * time.Hour)

	removed, err := f.invitations.PurgeTerminal(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.Invitation
	require.NoError(t, f.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, active.ID, remaining[0].ID)

	removed, err = f.invitations.PurgeTerminal(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestNewInvitationServiceRequiresDependencies(t *testing.T) {
	_, err := NewInvitationService(nil, nil, nil, nil)
	require.Error(t, err)

	f := newServiceFixture(t)
	_, err = NewInvitationService(f.db, nil, nil, nil)
	require.Error(t, err)
}
