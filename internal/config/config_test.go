package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"CONFIG_PATH", "DB_PATH", "GEMINI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./local-data/coffee.db", cfg.DBPath)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavTimeout)
	assert.Equal(t, 1200*time.Millisecond, cfg.Browser.SettleDelay)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.GeminiModel)
	assert.Equal(t, 45*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 5, cfg.Model.MaxImages)
}

func TestLoadFromYAML(t *testing.T) {
	dir := isolate(t)

	yaml := `
db_path: /data/beans.db
request_timeout: 90s
server:
  port: 9090
log:
  level: debug
  format: console
browser:
  settle_delay: 2s
  remote_url: ws://chrome:9222
model:
  provider: anthropic
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/beans.db", cfg.DBPath)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2*time.Second, cfg.Browser.SettleDelay)
	assert.Equal(t, "ws://chrome:9222", cfg.Browser.RemoteURL)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("BEANSCOUT_SERVER_PORT", "7070")
	t.Setenv("BEANSCOUT_MODEL_PROVIDER", "anthropic")
	t.Setenv("DB_PATH", "/legacy/coffee.db")
	t.Setenv("GEMINI_API_KEY", "legacy-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "/legacy/coffee.db", cfg.DBPath)
	assert.Equal(t, "legacy-key", cfg.Model.GeminiKey)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	isolate(t)
	t.Setenv("DB_PATH", "/legacy/coffee.db")
	t.Setenv("BEANSCOUT_DB_PATH", "/new/coffee.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/new/coffee.db", cfg.DBPath)
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := Config{Model: ModelConfig{GeminiKey: "secret", Provider: "gemini"}}

	red := cfg.Redacted()
	assert.Equal(t, "********", red.Model.GeminiKey)
	assert.Empty(t, red.Model.AnthropicKey)
	assert.Equal(t, "secret", cfg.Model.GeminiKey)
}

func TestInitLogger(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
