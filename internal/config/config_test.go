package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddr())
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL.Std())
	assert.Equal(t, "@every 1m", cfg.Sessions.ReapSchedule)
	assert.Equal(t, uint64(42), cfg.Pages.Seed)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, `{
		"server": {"port": 9090, "shutdown_timeout": "10s"},
		"security": {"jwt_secret": "from-file", "token_ttl": 3600000000000},
		"sessions": {"idle_ttl": "5m"},
		"pages": {"definitions_path": "pages.yaml", "size": 500},
		"export": {"orientation": "portrait"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, time.Hour, cfg.Security.TokenTTL.Std())
	assert.Equal(t, 5*time.Minute, cfg.Sessions.SessionConfig().IdleTTL)
	assert.Equal(t, "pages.yaml", cfg.Pages.DefinitionsPath)
	assert.Equal(t, 500, cfg.Pages.Size)

	opts := cfg.Export.ExportOptions()
	assert.Equal(t, "portrait", opts.PDF.Orientation)
	assert.Equal(t, "A4", opts.PDF.PageSize)

	ac := cfg.Security.AuthConfig()
	assert.Equal(t, "from-file", ac.Secret)
	assert.Equal(t, "ops-portal", ac.Issuer)
}

func TestLoadConfig_Malformed(t *testing.T) {
	_, err := LoadConfig(writeFile(t, `{"server": {"port": "eighty"}}`))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = LoadConfig(writeFile(t, `{"sessions": {"idle_ttl": "soon"}}`))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://ops.example, https://admin.example,")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("AUTH_ALLOW_DEV_TOKENS", "true")
	t.Setenv("SESSION_IDLE_TTL", "90s")
	t.Setenv("PAGES_SEED", "7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(writeFile(t, `{"security": {"jwt_secret": "from-file"}}`))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"https://ops.example", "https://admin.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "from-env", cfg.Security.JWTSecret)
	assert.True(t, cfg.Security.AllowDevTokens)
	assert.Equal(t, 90*time.Second, cfg.Sessions.IdleTTL.Std())
	assert.Equal(t, uint64(7), cfg.Pages.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":           "http",
		"AUTH_ALLOW_DEV_TOKENS": "maybe",
		"SESSION_IDLE_TTL":      "forever",
		"PAGES_SEED":            "-1",
		"PAGES_SIZE":            "lots",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig("")
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
