package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/kidslab/kidsmove/internal/cache"
	"github.com/kidslab/kidsmove/internal/database/testutil"
)

type countingJob struct {
	calls int
	count int64
	err   error
}

func (j *countingJob) ExpireStale(context.Context) (int64, error) {
	j.calls++
	return j.count, j.err
}

func (j *countingJob) PurgeExpired(context.Context) (int64, error) {
	j.calls++
	return j.count, j.err
}

func TestCleanerRunOnceRunsEveryJob(t *testing.T) {
	invitations := &countingJob{count: 2}
	tokens := &countingJob{count: 1}

	c := NewCleaner(invitations, WithPurger("magic_link_tokens", tokens), WithPurger("ignored", nil))
	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, 1, invitations.calls)
	require.Equal(t, 1, tokens.calls)
}

func TestCleanerRunOnceCollectsErrors(t *testing.T) {
	invitations := &countingJob{err: errors.New("db down")}
	tokens := &countingJob{err: errors.New("locked")}
	cacheEntries := &countingJob{}

	c := NewCleaner(invitations,
		WithPurger("magic_link_tokens", tokens),
		WithPurger("cache_entries", cacheEntries),
	)

	err := c.RunOnce(context.Background())
	require.ErrorContains(t, err, "expire invitations: db down")
	require.ErrorContains(t, err, "purge magic_link_tokens: locked")
	require.Equal(t, 1, cacheEntries.calls)
}

func TestCleanerPurgesDatabaseCache(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	current := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	store := cache.NewDatabaseStore(db, cache.WithDatabaseClock(func() time.Time { return current }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("b"), time.Hour))
	current = current.Add(10 * time.Minute)

	c := NewCleaner(nil, WithPurger("cache_entries", store))
	require.NoError(t, c.RunOnce(ctx))

	_, ok, err := store.Get(ctx, "long")
	require.NoError(t, err)
	require.True(t, ok)

	var remaining int64
	require.NoError(t, db.Table("cache_entries").Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

func TestCleanerStartSchedulesJobs(t *testing.T) {
	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	c := NewCleaner(&countingJob{},
		WithCron(scheduler),
		WithPurger("magic_link_tokens", &countingJob{}),
		WithInvitationSchedule("*/15 * * * *"),
	)

	require.NoError(t, c.Start())
	<-c.Stop().Done()
	require.Len(t, scheduler.Entries(), 2)
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	c := NewCleaner(&countingJob{}, WithInvitationSchedule("not a schedule"))
	require.ErrorContains(t, c.Start(), "schedule invitation sweep")
}

func TestCleanerStartWithoutJobsIsNoop(t *testing.T) {
	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	c := NewCleaner(nil, WithCron(scheduler))
	require.NoError(t, c.Start())
	require.Empty(t, scheduler.Entries())
}
