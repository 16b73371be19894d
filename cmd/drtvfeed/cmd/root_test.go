package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/drtvfeed/internal/config"
)

func TestInitConfig_RejectsBadLogLevelFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "")

	rootCmd.SetArgs([]string{"fetch", "--log-level", "bogus"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestInitConfig_AppliesLogFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "")

	c, rest, err := rootCmd.Find([]string{"update", "--log-level", "debug", "--log-format", "json"})
	require.NoError(t, err)
	require.NoError(t, c.ParseFlags(rest))

	require.NoError(t, initConfig(c))
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", log.GetLevel().String())
}
