package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
	RepositoryInMemory = "inmemory"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	EnvPrefix = "TODOLIST"
)

const developmentSecret = "development-only-secret"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`

	// AutoMigrate applies the embedded migrations before serve opens the pool.
	AutoMigrate bool `yaml:"auto_migrate"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // postgres, sqlite or inmemory
}

type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	CookieName    string        `yaml:"cookie_name"`
	Secure        bool          `yaml:"secure"`
	Store         string        `yaml:"store"` // memory or redis
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Load reads the yaml file at path, applies TODOLIST_* environment overrides,
// fills defaults and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open %s: %w", path, err)
		default:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	flag := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	str("server.host", &cfg.Server.Host)
	str("server.port", &cfg.Server.Port)
	dur("server.read_timeout", &cfg.Server.ReadTimeout)
	dur("server.write_timeout", &cfg.Server.WriteTimeout)
	dur("server.request_timeout", &cfg.Server.RequestTimeout)
	dur("server.shutdown_timeout", &cfg.Server.ShutdownTimeout)

	str("database.url", &cfg.Database.URL)
	num("database.max_connections", &cfg.Database.MaxConnections)
	num("database.min_connections", &cfg.Database.MinConnections)
	flag("database.auto_migrate", &cfg.Database.AutoMigrate)

	str("sqlite.path", &cfg.SQLite.Path)
	flag("logging.development", &cfg.Logging.Development)
	str("repository.type", &cfg.Repository.Type)

	str("session.secret", &cfg.Session.Secret)
	dur("session.ttl", &cfg.Session.TTL)
	str("session.cookie_name", &cfg.Session.CookieName)
	flag("session.secure", &cfg.Session.Secure)
	str("session.store", &cfg.Session.Store)

	str("redis.addr", &cfg.Redis.Addr)
	str("redis.password", &cfg.Redis.Password)
	num("redis.db", &cfg.Redis.DB)

	if v.IsSet("cors.allowed_origins") {
		cfg.CORS.AllowedOrigins = strings.Split(v.GetString("cors.allowed_origins"), ",")
	}
	num("rate_limit.requests_per_minute", &cfg.RateLimit.RequestsPerMinute)
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 10
	}
	if c.Database.MinConnections == 0 {
		c.Database.MinConnections = 2
	}
	if c.Database.IdleTimeout == 0 {
		c.Database.IdleTimeout = 5 * time.Minute
	}

	if c.SQLite.Path == "" {
		c.SQLite.Path = "todolist.db"
	}
	if c.Repository.Type == "" {
		c.Repository.Type = RepositoryInMemory
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = 14 * 24 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "todolist_session"
	}
	if c.Session.Store == "" {
		c.Session.Store = SessionStoreMemory
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = 10 * time.Minute
	}
	if c.Session.Secret == "" && c.Logging.Development {
		c.Session.Secret = developmentSecret
	}

	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 300
	}
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for the postgres repository")
		}
		if c.Database.MinConnections > c.Database.MaxConnections {
			return errors.New("config: database.min_connections exceeds max_connections")
		}
	case RepositorySQLite, RepositoryInMemory:
	default:
		return fmt.Errorf("config: unknown repository type %q", c.Repository.Type)
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("config: redis.addr is required for the redis session store")
		}
	default:
		return fmt.Errorf("config: unknown session store %q", c.Session.Store)
	}

	if c.Session.Secret == "" {
		return errors.New("config: session.secret must be set outside development")
	}

	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.request_timeout":  c.Server.RequestTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"session.ttl":             c.Session.TTL,
		"session.sweep_interval":  c.Session.SweepInterval,
	} {
		if d < 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		return errors.New("config: rate_limit.requests_per_minute must not be negative")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
