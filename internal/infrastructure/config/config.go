package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"

	minSecretLen = 32
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth      AuthConfig
	WebSocket WebSocketConfig
	Mongo     MongoConfig
	Redis     RedisConfig

	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`
}

type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET"`
	GuestTokenTTL     time.Duration `env:"GUEST_TOKEN_TTL,       default=1h"`
	SessionTTL        time.Duration `env:"SESSION_TTL,           default=24h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME,   default=sessionid"`
	CookieSecure      bool          `env:"COOKIE_SECURE,         default=false"`
	SessionBackend    string        `env:"SESSION_BACKEND,       default=redis"`
	AllowAnonymous    bool          `env:"ALLOW_ANONYMOUS_ROOMS, default=false"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `env:"WS_PING_INTERVAL,    default=30s"`
	PongTimeout    time.Duration `env:"WS_PONG_TIMEOUT,     default=60s"`
	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE, default=65536"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=room_access"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from an explicit set of variables.
func LoadWith(ctx context.Context, vars map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(vars))
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Auth.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	switch c.Auth.SessionBackend {
	case SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q", SessionBackendRedis, SessionBackendMemory)
	}
	if c.Auth.GuestTokenTTL <= 0 || c.Auth.SessionTTL <= 0 {
		return errors.New("GUEST_TOKEN_TTL and SESSION_TTL must be positive")
	}
	if c.WebSocket.PingInterval >= c.WebSocket.PongTimeout {
		return errors.New("WS_PING_INTERVAL must be shorter than WS_PONG_TIMEOUT")
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
