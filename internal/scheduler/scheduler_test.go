package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) UpdateNow(context.Context) error {
	r.calls.Add(1)
	return r.err
}

type fakeLocker struct {
	err      error
	unlocked atomic.Int32
	keys     []string
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.unlocked.Add(1) }, nil
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("not a cron", &countingRunner{}, nil)
	assert.Error(t, err)
}

func TestTrigger_UpdateNowAndScheduledRunSame(t *testing.T) {
	r := &countingRunner{}
	tr, err := New("0 * * * *", r, nil)
	require.NoError(t, err)

	require.NoError(t, tr.UpdateNow(context.Background()))
	require.NoError(t, tr.Scheduled(context.Background()))
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestTrigger_PropagatesRunnerError(t *testing.T) {
	boom := errors.New("boom")
	tr, err := New("0 * * * *", &countingRunner{err: boom}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, tr.UpdateNow(context.Background()), boom)
}

func TestTrigger_ScheduledTakesLock(t *testing.T) {
	r := &countingRunner{}
	l := &fakeLocker{}
	tr, err := New("0 * * * *", r, nil, WithLocker(l, "drtvfeed:lock:scheduled", nil))
	require.NoError(t, err)

	require.NoError(t, tr.Scheduled(context.Background()))
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, int32(1), l.unlocked.Load())
	assert.Equal(t, []string{"drtvfeed:lock:scheduled"}, l.keys)

	require.NoError(t, tr.UpdateNow(context.Background()))
	assert.Len(t, l.keys, 1, "manual runs bypass the lock")
}

func TestTrigger_ScheduledSkipsWhenHeld(t *testing.T) {
	r := &countingRunner{}
	log, hook := test.NewNullLogger()
	tr, err := New("0 * * * *", r, log, WithLocker(&fakeLocker{err: ErrLocked}, "k", nil))
	require.NoError(t, err)

	require.NoError(t, tr.Scheduled(context.Background()))
	assert.Zero(t, r.calls.Load())
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "lock held")
}

func TestTrigger_ScheduledRunsWhenLockBroken(t *testing.T) {
	r := &countingRunner{}
	tr, err := New("0 * * * *", r, nil, WithLocker(&fakeLocker{err: errors.New("redis down")}, "k", nil))
	require.NoError(t, err)

	require.NoError(t, tr.Scheduled(context.Background()))
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestTrigger_NextInLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	tr, err := New("0 * * * *", &countingRunner{}, nil, WithLocation(loc))
	require.NoError(t, err)
	assert.True(t, tr.Next().IsZero())

	tr.Start()
	defer tr.Stop(context.Background())
	next := tr.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, loc, next.Location())
	assert.WithinDuration(t, time.Now(), next, time.Hour+time.Second)
}
