package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/drtvfeed/internal/config"
	"github.com/voyagen/drtvfeed/internal/models"
	"github.com/voyagen/drtvfeed/internal/store"
	"github.com/voyagen/drtvfeed/internal/testutil"
)

type runnerFunc func(ctx context.Context, ids []string) (models.Channels, error)

func (f runnerFunc) Run(ctx context.Context, ids []string) (models.Channels, error) {
	return f(ctx, ids)
}

type failingStore struct{ store.StateStore }

func (failingStore) Publish(context.Context, models.Snapshot) error {
	return errors.New("db down")
}

func publishDefaults() config.Publish {
	return config.Default().Publish
}

func TestUpdater_Publishes(t *testing.T) {
	p, _ := newTestPipeline(t)
	st := store.NewMemory()
	log, _ := test.NewNullLogger()
	u := NewUpdater(p, st, testutil.TargetIDs, publishDefaults(), nil, log)
	u.now = func() time.Time { return fixedNow }

	require.NoError(t, u.UpdateNow(context.Background()))

	snap, err := st.Latest(context.Background(), models.DefaultEntityID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T20:15:00Z", snap.State)
	assert.Equal(t, models.DefaultFriendlyName, snap.Attributes.FriendlyName)
	assert.Equal(t, models.DefaultIcon, snap.Attributes.Icon)
	assert.Len(t, snap.Attributes.Channels, 3)
	assert.NotEmpty(t, snap.RunID)
}

func TestUpdater_EmptyRunKeepsPreviousState(t *testing.T) {
	st := store.NewMemory()
	log, hook := test.NewNullLogger()

	ok := runnerFunc(func(context.Context, []string) (models.Channels, error) {
		return models.Channels{"DR1": models.NewChannelRecord("20875")}, nil
	})
	u := NewUpdater(ok, st, []string{"20875"}, publishDefaults(), nil, log)
	require.NoError(t, u.UpdateNow(context.Background()))
	first, err := st.Latest(context.Background(), models.DefaultEntityID)
	require.NoError(t, err)

	u.runner = runnerFunc(func(context.Context, []string) (models.Channels, error) {
		return models.Channels{}, ErrNoChannels
	})
	err = u.UpdateNow(context.Background())
	assert.ErrorIs(t, err, ErrNoChannels)

	latest, err := st.Latest(context.Background(), models.DefaultEntityID)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, latest.RunID)

	var aborted bool
	for _, e := range hook.AllEntries() {
		if e.Message == "No data received... Aborting update" {
			aborted = true
		}
	}
	assert.True(t, aborted)
}

func TestUpdater_PublishError(t *testing.T) {
	ok := runnerFunc(func(context.Context, []string) (models.Channels, error) {
		return models.Channels{"DR1": models.NewChannelRecord("20875")}, nil
	})
	u := NewUpdater(ok, failingStore{}, nil, publishDefaults(), nil, nil)
	err := u.UpdateNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestUpdater_OverlappingRunsBothPublish(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var calls atomic.Int32
	slow := runnerFunc(func(ctx context.Context, _ []string) (models.Channels, error) {
		n := calls.Add(1)
		started <- struct{}{}
		if n == 1 {
			<-release
		}
		return models.Channels{"DR1": models.NewChannelRecord("20875")}, nil
	})
	st := store.NewMemory()
	u := NewUpdater(slow, st, nil, publishDefaults(), nil, nil)

	first := make(chan error, 1)
	go func() { first <- u.UpdateNow(context.Background()) }()
	<-started

	require.NoError(t, u.UpdateNow(context.Background()), "manual run while another is in flight")
	<-started
	close(release)
	require.NoError(t, <-first)

	assert.Equal(t, int32(2), calls.Load())
	h, err := st.History(context.Background(), models.DefaultEntityID, 10)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.NotEqual(t, h[0].RunID, h[1].RunID)
}
