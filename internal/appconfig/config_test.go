package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAuthKey    = "0123456789abcdef0123456789abcdef-auth"
	testContentKey = "0123456789abcdef0123456789abcdef-content"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func setKeys(t *testing.T) {
	t.Setenv("AUTH_KEY", testAuthKey)
	t.Setenv("CONTENT_KEY", testContentKey)
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	setKeys(t)
	t.Setenv("GOSEAL_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.GeneratedKeys)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	setKeys(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("TOKEN_TTL", "5m")
	t.Setenv("TOKEN_ISSUER", "goseal")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "7")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("METRICS_LATENCY_HISTOGRAMS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 7, cfg.RateLimit.MaxRequests)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)

	engineCfg := cfg.EngineConfig()
	assert.Equal(t, []byte(testAuthKey), engineCfg.Token.AuthKey)
	assert.Equal(t, []byte(testContentKey), engineCfg.Token.ContentKey)
	assert.Equal(t, "goseal", engineCfg.Token.Issuer)
	assert.Equal(t, 5*time.Minute, engineCfg.Token.TTL)
	assert.Equal(t, 7, engineCfg.RateLimit.MaxRequests)
	assert.True(t, engineCfg.Metrics.EnableLatencyHistograms)
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	chdirTemp(t)
	setKeys(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("TOKEN_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, Defaults().Auth.TokenTTL, cfg.Auth.TokenTTL)
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "goseal.yml")
	body := `
environment: staging
server:
  port: 7000
  cors_origins: ["https://app.example"]
auth:
  auth_key: "` + testAuthKey + `"
  content_key: "` + testContentKey + `"
  token_ttl: 2m
  audience: api
rate_limit:
  enabled: false
observability:
  log_level: debug
  log_format: console
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("GOSEAL_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 7001, cfg.Server.Port, "environment wins over file")
	assert.Equal(t, []string{"https://app.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "api", cfg.Auth.Audience)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset file fields keep defaults")

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadMissingYAML(t *testing.T) {
	chdirTemp(t)
	setKeys(t)
	t.Setenv("GOSEAL_CONFIG", "/nonexistent/goseal.yml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open config")
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	env := "AUTH_KEY=" + testAuthKey + "\nCONTENT_KEY=" + testContentKey + "\nTOKEN_AUDIENCE=from-dotenv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	// godotenv does not override variables that are already set; make sure
	// these start empty and are restored afterwards.
	t.Setenv("AUTH_KEY", "")
	t.Setenv("CONTENT_KEY", "")
	t.Setenv("TOKEN_AUDIENCE", "")
	require.NoError(t, os.Unsetenv("AUTH_KEY"))
	require.NoError(t, os.Unsetenv("CONTENT_KEY"))
	require.NoError(t, os.Unsetenv("TOKEN_AUDIENCE"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, testAuthKey, cfg.Auth.AuthKey)
	assert.Equal(t, "from-dotenv", cfg.Auth.Audience)
}

func TestLoadGeneratesDevelopmentKeys(t *testing.T) {
	chdirTemp(t)
	t.Setenv("AUTH_KEY", "")
	t.Setenv("CONTENT_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GeneratedKeys)
	assert.Len(t, cfg.Auth.AuthKey, 64)
	assert.NotEqual(t, cfg.Auth.AuthKey, cfg.Auth.ContentKey)
}

func TestLoadProductionRequiresKeys(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_KEY", "")
	t.Setenv("CONTENT_KEY", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"bad log level", func(c *Config) { c.Observability.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.Observability.LogFormat = "xml" }},
		{"same keys", func(c *Config) { c.Auth.ContentKey = c.Auth.AuthKey }},
		{"short key", func(c *Config) { c.Auth.AuthKey = "short" }},
		{"production without redis", func(c *Config) { c.Environment = "production" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Auth.AuthKey = testAuthKey
			cfg.Auth.ContentKey = testContentKey
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
