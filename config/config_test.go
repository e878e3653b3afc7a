package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeCfg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxyroute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeCfg(t, `
proxy:
  url: "http://corp-proxy:3128"
  support: "override"
cache:
  capacity: 100
telemetry:
  enabled: true
  flush_after_idle: 5m
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://corp-proxy:3128", cfg.Proxy.URL)
	require.Equal(t, ModeOverride, cfg.Proxy.Support)
	require.Equal(t, 100, cfg.Cache.Capacity)
	require.Equal(t, 5*time.Minute, cfg.Telemetry.FlushAfterIdle)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeCfg(t, "telemetry:\n  enabled: true\n"))
	require.NoError(t, err)
	require.Equal(t, ModeOn, cfg.Proxy.Support)
	require.Equal(t, 5000, cfg.Cache.Capacity)
	require.Equal(t, 10*time.Minute, cfg.Telemetry.FlushAfterIdle)
}

func TestLoadConfig_InvalidMode(t *testing.T) {
	_, err := LoadConfig(writeCfg(t, "proxy:\n  support: \"sometimes\"\n"))
	require.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAdjustConfig(t *testing.T) {
	cfg := &Config{}
	cfg.AdjustConfig()
	require.Equal(t, ModeOn, cfg.Proxy.Support)
	require.Equal(t, 5000, cfg.Cache.Capacity)
	require.Equal(t, 10*time.Minute, cfg.Telemetry.FlushAfterIdle)
}
