package configs

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AI_BACKEND", "")
	t.Setenv("QUERY_TIMEOUT", "")
	t.Setenv("PORT", "")
	t.Setenv("HOST", "")
	t.Setenv("CLAUDE_BIN", "")
	t.Setenv("MAX_BODY_BYTES", "")
	t.Setenv("METRICS_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendCLI, cfg.Backend)
	assert.Equal(t, "claude", cfg.ClaudeBin)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, time.Duration(0), cfg.QueryTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_APIBackend(t *testing.T) {
	t.Setenv("AI_BACKEND", BackendAPI)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_MAX_TOKENS", "512")
	t.Setenv("QUERY_TIMEOUT", "90s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendAPI, cfg.Backend)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 512, cfg.APIMaxTokens)
	assert.Equal(t, 90*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing api key", map[string]string{"AI_BACKEND": BackendAPI, "ANTHROPIC_API_KEY": ""}},
		{"unknown backend", map[string]string{"AI_BACKEND": "carrier-pigeon"}},
		{"bad timeout", map[string]string{"QUERY_TIMEOUT": "soon"}},
		{"negative timeout", map[string]string{"QUERY_TIMEOUT": "-1s"}},
		{"bad rate limit", map[string]string{"RATE_LIMIT_PER_MINUTE": "many"}},
		{"bad metrics flag", map[string]string{"METRICS_ENABLED": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNotifierEnabled(t *testing.T) {
	cfg := &Config{BotToken: "token"}
	assert.False(t, cfg.NotifierEnabled())

	cfg.BotChat = "@channel"
	assert.True(t, cfg.NotifierEnabled())
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, SetupLogging(&Config{LogLevel: "debug", LogFormat: "json"}))
	assert.Error(t, SetupLogging(&Config{LogLevel: "chatty", LogFormat: "text"}))
	assert.Error(t, SetupLogging(&Config{LogLevel: "info", LogFormat: "xml"}))
	assert.NoError(t, SetupLogging(&Config{LogLevel: "info", LogFormat: "text"}))
}

func TestGinMode(t *testing.T) {
	assert.Equal(t, gin.DebugMode, (&Config{LogLevel: "debug"}).GinMode())
	assert.Equal(t, gin.ReleaseMode, (&Config{LogLevel: "info"}).GinMode())
	assert.Equal(t, gin.ReleaseMode, (&Config{}).GinMode())
}
