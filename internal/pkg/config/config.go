package config

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session store backends.
const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Host     string `env:"HOST,      default=127.0.0.1"`
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend BackendConfig
	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Events  EventsConfig
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:4000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=10s"`
}

type SessionConfig struct {
	Store         string        `env:"SESSION_BACKEND,        default=redis"`
	Key           string        `env:"SESSION_KEY,            default=user"`
	Secret        string        `env:"SESSION_SECRET"`
	Duration      time.Duration `env:"SESSION_DURATION,       default=30m"`
	CheckInterval time.Duration `env:"SESSION_CHECK_INTERVAL, default=60s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=qa_dashboard"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type EventsConfig struct {
	AMQPURL string `env:"AMQP_URL"`
	Queue   string `env:"SESSION_EVENTS_QUEUE, default=dashboard.session.events"`
}

// Addr is the listen address for the HTTP server. Host defaults to loopback:
// every caller shares the one operator session, so listening beyond the local
// machine is opt-in.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsLoopback reports whether Host only accepts local connections.
func (c *Config) IsLoopback() bool {
	if c.Host == "localhost" {
		return true
	}
	ip := net.ParseIP(c.Host)
	return ip != nil && ip.IsLoopback()
}

// IsDevelopment reports whether ENV selects the development profile.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("config: SESSION_BACKEND must be one of redis, mongo, memory (got %q)", c.Session.Store)
	}
	if c.Session.Duration <= 0 {
		return fmt.Errorf("config: SESSION_DURATION must be positive")
	}
	if c.Session.CheckInterval <= 0 {
		return fmt.Errorf("config: SESSION_CHECK_INTERVAL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
