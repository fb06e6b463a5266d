// Package config loads DIYnow settings. Values are layered: defaults, then an
// optional YAML file, then DIYNOW_* environment variables (a .env file in the
// working directory is loaded into the environment first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Featured FeaturedConfig `yaml:"featured"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // ex: 5s
	RequestTimeout  time.Duration `yaml:"request_timeout"`  // per-request deadline, covers a full crawl
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Pretty bool   `yaml:"pretty"` // true => zap dev (color), false => zap prod (JSON)
}

type CrawlerConfig struct {
	Seed           uint64        `yaml:"seed"`         // 0 => time-derived
	MaxResample    int           `yaml:"max_resample"` // draws before a malformed listing is skipped
	Workers        int           `yaml:"workers"`      // sites crawled in parallel
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Client         string        `yaml:"client"`     // "browser" | "cloudflare"
	UserAgent      string        `yaml:"user_agent"` // overrides the client's user agent

	Sites map[string]SiteConfig `yaml:"sites"`
}

// SiteConfig overrides one site's defaults. A nil DenyList keeps the built-in
// list; an empty one disables it.
type SiteConfig struct {
	Quota     int    `yaml:"quota"`
	StartURL  string `yaml:"start_url"`
	SearchURL string `yaml:"search_url"`
	DenyList  []int  `yaml:"deny_list"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	Driver       string        `yaml:"driver"` // "sqlite" | "postgres" | "supabase"
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxIdle  time.Duration `yaml:"conn_max_idle"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life"`

	SupabaseURL      string `yaml:"supabase_url"`
	SupabaseKey      string `yaml:"supabase_key"`
	SupabasePassword string `yaml:"supabase_password"`
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	PoolSize       int           `yaml:"pool_size"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // total time spent retrying
	RetryInterval  time.Duration `yaml:"retry_interval"`  // grows exponentially up to MaxWait
	MaxWait        time.Duration `yaml:"max_wait"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	WarnThreshold  int           `yaml:"warn_threshold"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
	ResultsTTL time.Duration `yaml:"results_ttl"` // lifetime of a session's last crawl results
}

type FeaturedConfig struct {
	Schedule string        `yaml:"schedule"` // cron spec, empty disables
	TTL      time.Duration `yaml:"ttl"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"` // empty disables the archive
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Log: LogConfig{Level: "info", Pretty: true},
		Crawler: CrawlerConfig{
			MaxResample:    32,
			Workers:        3,
			RequestTimeout: 15 * time.Second,
			Client:         "browser",
		},
		Output: OutputConfig{Path: "ProjectOut.json"},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "diynow.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnMaxIdle:  5 * time.Minute,
			ConnMaxLife:  time.Hour,
		},
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			PoolSize:       10,
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			ConnectTimeout: 30 * time.Second,
			RetryInterval:  2 * time.Second,
			MaxWait:        10 * time.Second,
			PingTimeout:    5 * time.Second,
			WarnThreshold:  3,
		},
		Session: SessionConfig{
			CookieName: "diynow_session",
			TTL:        24 * time.Hour,
			ResultsTTL: time.Hour,
		},
		Featured: FeaturedConfig{
			Schedule: "@every 6h",
			TTL:      12 * time.Hour,
		},
		Mongo: MongoConfig{
			Database:   "diynow",
			Collection: "projects",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// DIYNOW_CONFIG is consulted; with neither set only defaults and the
// environment apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("DIYNOW_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getenv("DIYNOW_LISTEN_ADDR", c.Server.Addr)
	c.Server.ShutdownTimeout = mustDuration("DIYNOW_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.RequestTimeout = mustDuration("DIYNOW_SERVER_REQUEST_TIMEOUT", c.Server.RequestTimeout)

	c.Log.Level = getenv("DIYNOW_LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = mustBool("DIYNOW_PRETTY_LOG", c.Log.Pretty)

	c.Crawler.Seed = getenvUint64("DIYNOW_SEED", c.Crawler.Seed)
	c.Crawler.MaxResample = getenvInt("DIYNOW_MAX_RESAMPLE", c.Crawler.MaxResample)
	c.Crawler.Workers = getenvInt("DIYNOW_WORKERS", c.Crawler.Workers)
	c.Crawler.RequestTimeout = mustDuration("DIYNOW_REQUEST_TIMEOUT", c.Crawler.RequestTimeout)
	c.Crawler.Client = getenv("DIYNOW_CLIENT", c.Crawler.Client)
	c.Crawler.UserAgent = getenv("DIYNOW_USER_AGENT", c.Crawler.UserAgent)

	c.Output.Path = getenv("DIYNOW_OUTPUT", c.Output.Path)

	c.Database.Driver = getenv("DIYNOW_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getenv("DIYNOW_DB_DSN", c.Database.DSN)
	c.Database.MaxOpenConns = getenvInt("DIYNOW_DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getenvInt("DIYNOW_DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.SupabaseURL = getenv("DIYNOW_SUPABASE_URL", c.Database.SupabaseURL)
	c.Database.SupabaseKey = getenv("DIYNOW_SUPABASE_KEY", c.Database.SupabaseKey)
	c.Database.SupabasePassword = getenv("DIYNOW_SUPABASE_PASSWORD", c.Database.SupabasePassword)

	c.Redis.Addr = getenv("DIYNOW_REDIS_ADDR", c.Redis.Addr)
	c.Redis.User = getenv("DIYNOW_REDIS_USER", c.Redis.User)
	c.Redis.Password = getenv("DIYNOW_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getenvInt("DIYNOW_REDIS_DB", c.Redis.DB)
	c.Redis.ConnectTimeout = mustDuration("DIYNOW_REDIS_CONNECT_TIMEOUT", c.Redis.ConnectTimeout)

	c.Session.CookieName = getenv("DIYNOW_SESSION_COOKIE", c.Session.CookieName)
	c.Session.TTL = mustDuration("DIYNOW_SESSION_TTL", c.Session.TTL)
	c.Session.Secure = mustBool("DIYNOW_SESSION_SECURE", c.Session.Secure)

	if v, ok := os.LookupEnv("DIYNOW_FEATURED_SCHEDULE"); ok {
		c.Featured.Schedule = v
	}

	c.Mongo.URI = getenv("DIYNOW_MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getenv("DIYNOW_MONGO_DATABASE", c.Mongo.Database)
	c.Mongo.Collection = getenv("DIYNOW_MONGO_COLLECTION", c.Mongo.Collection)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Crawler.MaxResample <= 0 {
		return fmt.Errorf("crawler.max_resample must be > 0, got %d", c.Crawler.MaxResample)
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be > 0, got %d", c.Crawler.Workers)
	}
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0, got %v", c.Crawler.RequestTimeout)
	}
	switch c.Crawler.Client {
	case "browser", "cloudflare":
	default:
		return fmt.Errorf("crawler.client must be browser or cloudflare, got %q", c.Crawler.Client)
	}
	for name, s := range c.Crawler.Sites {
		if !knownSite(name) {
			return fmt.Errorf("crawler.sites: unknown site %q", name)
		}
		if s.Quota < 0 {
			return fmt.Errorf("crawler.sites.%s.quota must be >= 0, got %d", name, s.Quota)
		}
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	case "supabase":
		if c.Database.DSN == "" && (c.Database.SupabaseURL == "" || c.Database.SupabasePassword == "") {
			return errors.New("database: supabase needs a dsn or supabase_url and supabase_password")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or supabase, got %q", c.Database.Driver)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0, got %v", c.Session.TTL)
	}
	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	const mask = "***REDACTED***"
	if c.Redis.Password != "" {
		c.Redis.Password = mask
	}
	if c.Database.SupabaseKey != "" {
		c.Database.SupabaseKey = mask
	}
	if c.Database.SupabasePassword != "" {
		c.Database.SupabasePassword = mask
	}
	if c.Database.Driver != "sqlite" && c.Database.DSN != "" {
		c.Database.DSN = mask
	}
	if c.Mongo.URI != "" {
		c.Mongo.URI = mask
	}
	return c
}

func knownSite(name string) bool {
	switch name {
	case "makezine", "instructables", "lifehacker":
		return true
	}
	return false
}
