package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/database/testutil"
	"github.com/studyhub/studyhub-server/internal/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type publishedEvent struct {
	GroupID string
	Event   string
	Data    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishGroupEvent(groupID, event string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{GroupID: groupID, Event: event, Data: data})
}

func (p *recordingPublisher) Events(event string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []publishedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type serviceFixture struct {
	db          *gorm.DB
	clock       *testClock
	events      *recordingPublisher
	activity    *ActivityService
	members     *MembershipService
	users       *UserService
	groups      *GroupService
	invitations *InvitationService
	tasks       *TaskService
	resources   *ResourceService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := newTestClock()
	events := &recordingPublisher{}

	activity, err := NewActivityService(db, WithActivityClock(clock.Now))
	require.NoError(t, err)
	members, err := NewMembershipService(db, activity, events, WithMembershipClock(clock.Now))
	require.NoError(t, err)
	users, err := NewUserService(db, activity)
	require.NoError(t, err)
	groups, err := NewGroupService(db, members, activity, events)
	require.NoError(t, err)
	invitations, err := NewInvitationService(db, members, activity, events, WithInvitationClock(clock.Now))
	require.NoError(t, err)
	tasks, err := NewTaskService(db, members, activity, events)
	require.NoError(t, err)
	resources, err := NewResourceService(db, members, activity)
	require.NoError(t, err)

	return &serviceFixture{
		db:          db,
		clock:       clock,
		events:      events,
		activity:    activity,
		members:     members,
		users:       users,
		groups:      groups,
		invitations: invitations,
		tasks:       tasks,
		resources:   resources,
	}
}

func (f *serviceFixture) mustRegister(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	return user
}

func (f *serviceFixture) mustCreateGroup(t *testing.T, owner *models.User, name string) *models.StudyGroup {
	t.Helper()
	group, err := f.groups.Create(context.Background(), owner.ID, CreateGroupInput{Name: name})
	require.NoError(t, err)
	return group
}

func (f *serviceFixture) countActivity(t *testing.T, action string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.ActivityLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}
