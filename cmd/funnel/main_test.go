package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/funnel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "funnel version "))
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	t.Setenv("FUNNEL_LOG_LEVEL", "warn")
	require.NoError(t, serveCmd.ParseFlags([]string{"--log-level", "debug"}))

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
}
