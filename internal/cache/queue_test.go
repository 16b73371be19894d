package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJob(t *testing.T) {
	job, err := decodeJob(`{"id":"abc","reason":"api","requested_at":"2024-01-01T20:00:00Z"}`)
	require.NoError(t, err)
	assert.Equal(t, "abc", job.ID)
	assert.Equal(t, "api", job.Reason)
	assert.Equal(t, 2024, job.RequestedAt.Year())

	_, err = decodeJob("not json")
	assert.Error(t, err)
}

func TestIsMiss(t *testing.T) {
	assert.True(t, IsMiss(redis.Nil))
	assert.False(t, IsMiss(nil))
	assert.False(t, IsMiss(ErrLocked))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("http://not-redis")
	assert.Error(t, err)

	r, err := New("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.NoError(t, r.Close())
}
