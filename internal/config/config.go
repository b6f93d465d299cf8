// Package config loads fieldwork settings from a YAML file, a .env file and
// FIELDWORK_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIELDWORK_"

// Config is the full runtime configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Drafts DraftsConfig `yaml:"drafts"`
	Lock   LockConfig   `yaml:"lock"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per client; 0 disables
	RateBurst int     `yaml:"rate_burst"`
}

type StoreConfig struct {
	Driver   string         `yaml:"driver"` // memory, redis or postgres
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

type DraftsConfig struct {
	Driver string `yaml:"driver"` // memory, file or redis
	Dir    string `yaml:"dir"`

	// EncryptionKey is a base64 AES-256 key; drafts are stored encrypted when set.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

type LockConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", RateLimit: 20, RateBurst: 40},
		Store: StoreConfig{
			Driver: "memory",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "fieldwork:"},
			Postgres: PostgresConfig{
				MaxOpenConns: 10,
				MaxIdleConns: 5,
				AutoMigrate:  true,
			},
		},
		Drafts: DraftsConfig{Driver: "memory", Dir: ".fieldwork/drafts"},
		Lock:   LockConfig{TTL: 30 * time.Second},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty), then .env (if present), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown drivers and driver settings that cannot work.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis":
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Drafts.Driver {
	case "memory", "redis":
	case "file":
		if c.Drafts.Dir == "" {
			return errors.New("drafts.dir is required for the file driver")
		}
	default:
		return fmt.Errorf("unknown drafts driver %q", c.Drafts.Driver)
	}
	return nil
}

// UsesRedis reports whether any component needs a redis connection.
func (c Config) UsesRedis() bool {
	return c.Store.Driver == "redis" || c.Drafts.Driver == "redis"
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"SERVER_ADDR":    &cfg.Server.Addr,
		"STORE_DRIVER":   &cfg.Store.Driver,
		"REDIS_ADDR":     &cfg.Store.Redis.Addr,
		"REDIS_PASSWORD": &cfg.Store.Redis.Password,
		"REDIS_PREFIX":   &cfg.Store.Redis.Prefix,
		"POSTGRES_DSN":   &cfg.Store.Postgres.DSN,
		"DRAFTS_DRIVER":  &cfg.Drafts.Driver,
		"DRAFTS_DIR":     &cfg.Drafts.Dir,
		"DRAFTS_KEY":     &cfg.Drafts.EncryptionKey,
		"LOG_LEVEL":      &cfg.Log.Level,
		"LOG_FORMAT":     &cfg.Log.Format,
		"LOG_FILE":       &cfg.Log.File,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REDIS_DB":          &cfg.Store.Redis.DB,
		"SERVER_RATE_BURST": &cfg.Server.RateBurst,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"REDIS_TTL": &cfg.Store.Redis.TTL,
		"LOCK_TTL":  &cfg.Lock.TTL,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SERVER_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSERVER_RATE_LIMIT: %w", EnvPrefix, err)
		}
		cfg.Server.RateLimit = f
	}
	return nil
}
