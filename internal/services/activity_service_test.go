package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/studyhub/studyhub-server/internal/database/testutil"
	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/pkg/logger"
)

func TestActivityServiceLogAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewActivityService(db)
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, ActivityEntry{
		UserID:   "user-1",
		GroupID:  "group-1",
		Action:   ActionGroupJoin,
		Detail:   "joined group",
		Metadata: map[string]any{"invitation_id": "inv-1"},
	}))
	require.NoError(t, svc.Log(ctx, ActivityEntry{UserID: "user-1", Action: ActionUserRegister}))
	require.NoError(t, svc.Log(ctx, ActivityEntry{UserID: "user-2", GroupID: "group-1", Action: ActionTaskCreate}))

	entries, err := svc.ListForUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var join models.ActivityLog
	for _, entry := range entries {
		if entry.Action == ActionGroupJoin {
			join = entry
		}
	}
	require.NotNil(t, join.GroupID)
	require.Equal(t, "group-1", *join.GroupID)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(join.Metadata, &meta))
	require.Equal(t, "inv-1", meta["invitation_id"])

	groupEntries, err := svc.ListForGroup(ctx, "group-1", 1)
	require.NoError(t, err)
	require.Len(t, groupEntries, 1)
}

func TestActivityServiceLogValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewActivityService(db)
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), ActivityEntry{Action: ActionGroupJoin}))
	require.Error(t, svc.Log(context.Background(), ActivityEntry{UserID: "user-1"}))

	_, err = NewActivityService(nil)
	require.Error(t, err)
}

func TestActivityServiceCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	future := time.Now().Add(48 * time.Hour)
	svc, err := NewActivityService(db, WithActivityClock(func() time.Time { return future }))
	require.NoError(t, err)

	require.NoError(t, svc.Log(ctx, ActivityEntry{UserID: "user-1", Action: ActionUserRegister}))

	removed, err := svc.CleanupOlderThan(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, removed)

	removed, err = svc.CleanupOlderThan(ctx, 7)
	require.NoError(t, err)
	require.Zero(t, removed)

	removed, err = svc.CleanupOlderThan(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}

func TestRecordActivityToleratesFailures(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(nil) })

	db := testutil.MustOpenTestDB(t)
	svc, err := NewActivityService(db)
	require.NoError(t, err)

	// No schema: the insert fails and is only reported.
	recordActivity(svc, context.Background(), ActivityEntry{UserID: "user-1", Action: ActionGroupJoin})
	require.Equal(t, 1, recorded.FilterMessage("failed to record activity").Len())

	recordActivity(nil, context.Background(), ActivityEntry{UserID: "user-1", Action: ActionGroupJoin})
}
