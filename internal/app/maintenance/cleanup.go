package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/studyhub/studyhub-server/pkg/logger"
)

const (
	defaultInvitationRetentionDays = 30
	defaultInvitationSpec          = "@daily"
	defaultActivitySpec            = "@weekly"
)

// InvitationPurger deletes terminal invitations older than a cutoff.
type InvitationPurger interface {
	PurgeTerminal(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ActivityPruner deletes activity entries older than a number of days.
type ActivityPruner interface {
	CleanupOlderThan(ctx context.Context, days int) (int64, error)
}

// Cleaner coordinates background maintenance: purging used or expired invitations and
// enforcing activity log retention.
type Cleaner struct {
	invitations InvitationPurger
	activity    ActivityPruner
	cron        *cron.Cron
	log         *zap.Logger

	invitationRetention int
	activityRetention   int

	invitationSchedule string
	activitySchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithInvitationRetentionDays sets how long USED and EXPIRED invitations are kept.
// Zero disables invitation purging.
func WithInvitationRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days >= 0 {
			cleaner.invitationRetention = days
		}
	}
}

// WithActivityRetentionDays sets how long activity entries are kept. Zero keeps them forever.
func WithActivityRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days >= 0 {
			cleaner.activityRetention = days
		}
	}
}

// WithInvitationSchedule overrides the cron specification for invitation purging.
func WithInvitationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.invitationSchedule = spec
		}
	}
}

// WithActivitySchedule overrides the cron specification for activity retention.
func WithActivitySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.activitySchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency or a zero retention skips the
// corresponding job.
func NewCleaner(invitations InvitationPurger, activity ActivityPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		invitations:         invitations,
		activity:            activity,
		invitationRetention: defaultInvitationRetentionDays,
		invitationSchedule:  defaultInvitationSpec,
		activitySchedule:    defaultActivitySpec,
		log:                 logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) invitationsEnabled() bool {
	return c.invitations != nil && c.invitationRetention > 0
}

func (c *Cleaner) activityEnabled() bool {
	return c.activity != nil && c.activityRetention > 0
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.invitationsEnabled() && !c.activityEnabled() {
		return nil
	}

	if c.invitationsEnabled() {
		if _, err := c.cron.AddFunc(c.invitationSchedule, func() {
			if err := c.purgeInvitations(context.Background()); err != nil {
				c.log.Warn("invitation cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.activityEnabled() {
		if _, err := c.cron.AddFunc(c.activitySchedule, func() {
			if err := c.pruneActivity(context.Background()); err != nil {
				c.log.Warn("activity cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all enabled cleanup routines sequentially and returns every failure.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.invitationsEnabled() {
		errs = multierr.Append(errs, c.purgeInvitations(ctx))
	}
	if c.activityEnabled() {
		errs = multierr.Append(errs, c.pruneActivity(ctx))
	}
	return errs
}

func (c *Cleaner) purgeInvitations(ctx context.Context) error {
	removed, err := c.invitations.PurgeTerminal(ctx, time.Duration(c.invitationRetention)*24*time.Hour)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("purged invitations", zap.Int64("removed", removed))
	}
	return nil
}

func (c *Cleaner) pruneActivity(ctx context.Context) error {
	removed, err := c.activity.CleanupOlderThan(ctx, c.activityRetention)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("pruned activity log", zap.Int64("removed", removed))
	}
	return nil
}
