package appconfig

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	goSeal "github.com/MrEthical07/goSeal"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the complete goseal-server configuration.
type Config struct {
	Environment   string              `yaml:"environment"`
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Redis         RedisConfig         `yaml:"redis"`
	Store         StoreConfig         `yaml:"store"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`

	// GeneratedKeys is set when development keys were generated because
	// AUTH_KEY and CONTENT_KEY were both empty.
	GeneratedKeys bool `yaml:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// AuthConfig holds token keys and claim pinning.
type AuthConfig struct {
	AuthKey    string        `yaml:"auth_key"`
	ContentKey string        `yaml:"content_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	Leeway     time.Duration `yaml:"leeway"`
}

// RedisConfig holds the connection used by the limiter and the redis store.
// An empty Addr means the server runs an embedded instance.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// StoreConfig selects the principal store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// RateLimitConfig mirrors goSeal.RateLimitConfig.
type RateLimitConfig struct {
	Enabled          bool          `yaml:"enabled"`
	EnableIPThrottle bool          `yaml:"enable_ip_throttle"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LoginCooldown    time.Duration `yaml:"login_cooldown"`
	MaxRequests      int           `yaml:"max_requests"`
	RequestWindow    time.Duration `yaml:"request_window"`
}

// ObservabilityConfig holds logging, metrics and audit settings.
type ObservabilityConfig struct {
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
	MetricsEnabled    bool   `yaml:"metrics_enabled"`
	LatencyHistograms bool   `yaml:"latency_histograms"`
	AuditEnabled      bool   `yaml:"audit_enabled"`
}

// Load reads .env (if present), the YAML file named by GOSEAL_CONFIG (if
// set) and the environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Defaults()
	if path := os.Getenv("GOSEAL_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if cfg.IsDevelopment() && cfg.Auth.AuthKey == "" && cfg.Auth.ContentKey == "" {
		if err := cfg.generateKeys(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	rl := goSeal.DefaultConfig().RateLimit
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
			CORSOrigins:     []string{"*"},
		},
		Auth: AuthConfig{
			TokenTTL: goSeal.DefaultConfig().Token.TTL,
		},
		Redis: RedisConfig{
			Prefix: rl.RedisPrefix,
		},
		Store: StoreConfig{
			Backend: StoreMemory,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			EnableIPThrottle: rl.EnableIPThrottle,
			MaxLoginAttempts: rl.MaxLoginAttempts,
			LoginCooldown:    rl.LoginCooldown,
			MaxRequests:      rl.MaxRequests,
			RequestWindow:    rl.RequestWindow,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
			AuditEnabled:   true,
		},
	}
}

func (c *Config) overlayFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("PORT", getEnvAsInt("SERVER_PORT", c.Server.Port))
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.MaxBodyBytes = int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", int(c.Server.MaxBodyBytes)))
	c.Server.CORSOrigins = getEnvAsList("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Auth.AuthKey = getEnv("AUTH_KEY", c.Auth.AuthKey)
	c.Auth.ContentKey = getEnv("CONTENT_KEY", c.Auth.ContentKey)
	c.Auth.TokenTTL = getEnvAsDuration("TOKEN_TTL", c.Auth.TokenTTL)
	c.Auth.Issuer = getEnv("TOKEN_ISSUER", c.Auth.Issuer)
	c.Auth.Audience = getEnv("TOKEN_AUDIENCE", c.Auth.Audience)
	c.Auth.Leeway = getEnvAsDuration("TOKEN_LEEWAY", c.Auth.Leeway)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.Prefix = getEnv("REDIS_PREFIX", c.Redis.Prefix)

	c.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", c.Store.Backend))

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.EnableIPThrottle = getEnvAsBool("RATE_LIMIT_IP_THROTTLE", c.RateLimit.EnableIPThrottle)
	c.RateLimit.MaxLoginAttempts = getEnvAsInt("RATE_LIMIT_MAX_LOGIN_ATTEMPTS", c.RateLimit.MaxLoginAttempts)
	c.RateLimit.LoginCooldown = getEnvAsDuration("RATE_LIMIT_LOGIN_COOLDOWN", c.RateLimit.LoginCooldown)
	c.RateLimit.MaxRequests = getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", c.RateLimit.MaxRequests)
	c.RateLimit.RequestWindow = getEnvAsDuration("RATE_LIMIT_REQUEST_WINDOW", c.RateLimit.RequestWindow)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsEnabled = getEnvAsBool("METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.LatencyHistograms = getEnvAsBool("METRICS_LATENCY_HISTOGRAMS", c.Observability.LatencyHistograms)
	c.Observability.AuditEnabled = getEnvAsBool("AUDIT_ENABLED", c.Observability.AuditEnabled)
}

func (c *Config) generateKeys() error {
	auth, err := randomKey()
	if err != nil {
		return err
	}
	content, err := randomKey()
	if err != nil {
		return err
	}
	c.Auth.AuthKey = auth
	c.Auth.ContentKey = content
	c.GeneratedKeys = true
	return nil
}

func randomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Validate checks the server settings and the derived engine configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max body bytes must be > 0")
	}
	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.IsProduction() && c.Redis.Addr == "" && (c.RateLimit.Enabled || c.Store.Backend == StoreRedis) {
		return fmt.Errorf("redis address is required in production")
	}
	if _, err := zapcore.ParseLevel(c.Observability.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.Observability.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Observability.LogFormat)
	}

	engineCfg := c.EngineConfig()
	if err := engineCfg.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Address returns the listen address.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// EngineConfig builds the goSeal engine configuration.
func (c *Config) EngineConfig() goSeal.Config {
	cfg := goSeal.DefaultConfig()

	cfg.Token.TTL = c.Auth.TokenTTL
	cfg.Token.AuthKey = []byte(c.Auth.AuthKey)
	cfg.Token.ContentKey = []byte(c.Auth.ContentKey)
	cfg.Token.Issuer = c.Auth.Issuer
	cfg.Token.Audience = c.Auth.Audience
	cfg.Token.Leeway = c.Auth.Leeway

	cfg.RateLimit.Enabled = c.RateLimit.Enabled
	cfg.RateLimit.RedisPrefix = c.Redis.Prefix
	cfg.RateLimit.EnableIPThrottle = c.RateLimit.EnableIPThrottle
	cfg.RateLimit.MaxLoginAttempts = c.RateLimit.MaxLoginAttempts
	cfg.RateLimit.LoginCooldown = c.RateLimit.LoginCooldown
	cfg.RateLimit.MaxRequests = c.RateLimit.MaxRequests
	cfg.RateLimit.RequestWindow = c.RateLimit.RequestWindow

	cfg.Audit.Enabled = c.Observability.AuditEnabled
	cfg.Metrics.Enabled = c.Observability.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.Observability.MetricsEnabled && c.Observability.LatencyHistograms
	return cfg
}

// Logger builds the process logger from the observability settings.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Observability.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Observability.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
