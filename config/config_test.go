package config

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60.0, cfg.TickRate)
	assert.Equal(t, StateLogMemory, cfg.StateLog)
	assert.Equal(t, "propsim:states", cfg.RedisKey)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROPSIM_TICK_RATE", "30")
	t.Setenv("PROPSIM_STATE_LOG", "sqlite")
	t.Setenv("PROPSIM_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.TickRate)
	assert.Equal(t, StateLogSQLite, cfg.StateLog)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "bad number", key: "PROPSIM_TICK_RATE", val: "fast", want: "parse env:"},
		{name: "zero rate", key: "PROPSIM_TICK_RATE", val: "0", want: "tick rate"},
		{name: "unknown sink", key: "PROPSIM_STATE_LOG", val: "kafka", want: "unknown state log"},
		{name: "bad level", key: "PROPSIM_LOG_LEVEL", val: "loud", want: "invalid log level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.want), err.Error())
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
}
