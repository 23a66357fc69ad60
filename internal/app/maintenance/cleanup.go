package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kidslab/kidsmove/pkg/logger"
)

const (
	defaultInvitationSpec = "@hourly"
	defaultTokenSpec      = "@daily"
)

// InvitationExpirer marks pending invitations past their expiry as expired.
type InvitationExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// Purger deletes stale rows and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type purgeTask struct {
	name   string
	purger Purger
}

// Cleaner coordinates background maintenance: sweeping expired invitations and purging
// consumed sign-in tokens and stale cache entries. Shared links are never swept.
type Cleaner struct {
	invitations InvitationExpirer
	purges      []purgeTask
	cron        *cron.Cron
	log         *zap.Logger

	invitationSchedule string
	tokenSchedule      string
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

// WithInvitationSchedule overrides the cron specification for the invitation sweep.
func WithInvitationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.invitationSchedule = spec
		}
	}
}

// WithTokenSchedule overrides the cron specification for token and cache purges.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithPurger registers an additional purge job under name. A nil purger is ignored.
func WithPurger(name string, purger Purger) Option {
	return func(cleaner *Cleaner) {
		if purger != nil {
			cleaner.purges = append(cleaner.purges, purgeTask{name: name, purger: purger})
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil invitations skips the sweep.
func NewCleaner(invitations InvitationExpirer, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		invitations:        invitations,
		invitationSchedule: defaultInvitationSpec,
		tokenSchedule:      defaultTokenSpec,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one job exists.
func (c *Cleaner) Start() error {
	if c.invitations == nil && len(c.purges) == 0 {
		return nil
	}

	if c.invitations != nil {
		if _, err := c.cron.AddFunc(c.invitationSchedule, func() {
			if err := c.expireInvitations(context.Background()); err != nil {
				c.log.Warn("invitation sweep failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule invitation sweep: %w", err)
		}
	}

	for _, task := range c.purges {
		task := task
		if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
			if err := c.purge(context.Background(), task); err != nil {
				c.log.Warn("purge failed", zap.String("job", task.name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s purge: %w", task.name, err)
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

// RunOnce executes every configured job sequentially, collecting all failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.invitations != nil {
		errs = multierr.Append(errs, c.expireInvitations(ctx))
	}
	for _, task := range c.purges {
		errs = multierr.Append(errs, c.purge(ctx, task))
	}
	return errs
}

func (c *Cleaner) expireInvitations(ctx context.Context) error {
	count, err := c.invitations.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("expire invitations: %w", err)
	}
	if count > 0 {
		c.log.Info("expired stale invitations", zap.Int64("count", count))
	}
	return nil
}

func (c *Cleaner) purge(ctx context.Context, task purgeTask) error {
	count, err := task.purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge %s: %w", task.name, err)
	}
	if count > 0 {
		c.log.Info("purged stale rows", zap.String("job", task.name), zap.Int64("count", count))
	}
	return nil
}
