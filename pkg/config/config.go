// Package config loads storekit settings from a TOML file and the
// environment.
//
// Precedence, lowest first: [Default], the config file, an optional
// dotenv file, STOREKIT_* environment variables, then command-line flags
// applied by the caller.
//
// Example config.toml:
//
//	api_base = "https://shop.example.com/api"
//	locale = "en"
//	page_size = 500
//	freshness = "10s"
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[compare]
//	max_items = 4
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/identity"
	"github.com/matzehuels/storekit/pkg/storage"
)

const appName = "storekit"

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all storekit settings.
type Config struct {
	APIBase        string   `toml:"api_base" yaml:"api_base"`
	Locale         string   `toml:"locale" yaml:"locale"`
	PageSize       int      `toml:"page_size" yaml:"page_size"`
	PageTimeout    Duration `toml:"page_timeout" yaml:"page_timeout"`
	Freshness      Duration `toml:"freshness" yaml:"freshness"`
	RequestTimeout Duration `toml:"request_timeout" yaml:"request_timeout"`
	RetryAttempts  int      `toml:"retry_attempts" yaml:"retry_attempts"`

	Store   StoreConfig   `toml:"store" yaml:"store"`
	Compare CompareConfig `toml:"compare" yaml:"compare"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend       string `toml:"backend" yaml:"backend"`
	Dir           string `toml:"dir" yaml:"dir,omitempty"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr,omitempty"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db,omitempty"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri,omitempty"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database,omitempty"`
	PostgresDSN   string `toml:"postgres_dsn" yaml:"postgres_dsn,omitempty"`
	PostgresTable string `toml:"postgres_table" yaml:"postgres_table,omitempty"`
}

type CompareConfig struct {
	MaxItems int `toml:"max_items" yaml:"max_items"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIBase:        "http://127.0.0.1:8000/api",
		Locale:         "ar",
		PageSize:       1000,
		PageTimeout:    Duration{30 * time.Second},
		Freshness:      Duration{5 * time.Second},
		RequestTimeout: Duration{15 * time.Second},
		RetryAttempts:  3,
		Store:          StoreConfig{Backend: storage.BackendFile},
		Compare:        CompareConfig{MaxItems: 4},
	}
}

// Path returns the default config file location:
// $XDG_CONFIG_HOME/storekit/config.toml, else ~/.config/storekit/config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path on top of Default and applies the environment. An empty
// path means Path(); a missing file at the default location is not an
// error, but a missing explicit path is.
func Load(path string) (Config, error) {
	return LoadFiles(path, "")
}

// LoadFiles is Load with a dotenv file whose STOREKIT_* entries apply
// beneath the process environment. An empty envFile skips it; a named one
// must exist.
func LoadFiles(path, envFile string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = Path(); err != nil {
			return cfg, err
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, skerrors.New(skerrors.ErrCodeInvalidConfig, "%s: unknown keys %v", path, undecoded)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, skerrors.Wrap(skerrors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	lookup := os.LookupEnv
	if envFile != "" {
		dotenv, err := godotenv.Read(envFile)
		if err != nil {
			return cfg, skerrors.Wrap(skerrors.ErrCodeInvalidConfig, err, "read %s", envFile)
		}
		lookup = func(name string) (string, bool) {
			if v, ok := os.LookupEnv(name); ok && v != "" {
				return v, true
			}
			v, ok := dotenv[name]
			return v, ok
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Normalize rewrites values that have a canonical form, such as a
// regional locale tag ("en-GB" becomes "en").
func (c *Config) Normalize() error {
	if c.Locale == "" {
		return nil
	}
	locale, err := identity.NormalizeLocale(c.Locale)
	if err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInvalidConfig, err, "locale")
	}
	c.Locale = locale
	return nil
}

// ApplyEnv overlays STOREKIT_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"STOREKIT_API_BASE":       &c.APIBase,
		"STOREKIT_LOCALE":         &c.Locale,
		"STOREKIT_STORE":          &c.Store.Backend,
		"STOREKIT_STORE_DIR":      &c.Store.Dir,
		"STOREKIT_REDIS_ADDR":     &c.Store.RedisAddr,
		"STOREKIT_MONGO_URI":      &c.Store.MongoURI,
		"STOREKIT_MONGO_DATABASE": &c.Store.MongoDatabase,
		"STOREKIT_POSTGRES_DSN":   &c.Store.PostgresDSN,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"STOREKIT_PAGE_SIZE": &c.PageSize,
		"STOREKIT_REDIS_DB":  &c.Store.RedisDB,
	}
	for name, dst := range ints {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return skerrors.Wrap(skerrors.ErrCodeInvalidConfig, err, "%s", name)
			}
			*dst = n
		}
	}
	return nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if err := skerrors.ValidateURL(c.APIBase); err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInvalidConfig, err, "api_base")
	}
	if err := skerrors.ValidateLocale(c.Locale); err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInvalidConfig, err, "locale")
	}
	if c.PageSize < 1 {
		return skerrors.New(skerrors.ErrCodeInvalidConfig, "page_size must be positive, got %d", c.PageSize)
	}
	if c.RetryAttempts < 1 {
		return skerrors.New(skerrors.ErrCodeInvalidConfig, "retry_attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.Compare.MaxItems < 1 {
		return skerrors.New(skerrors.ErrCodeInvalidConfig, "compare.max_items must be positive, got %d", c.Compare.MaxItems)
	}
	switch c.Store.Backend {
	case storage.BackendMemory, storage.BackendFile:
	case storage.BackendRedis:
		if c.Store.RedisAddr == "" {
			return skerrors.New(skerrors.ErrCodeInvalidConfig, "store.redis_addr is required for the redis backend")
		}
	case storage.BackendMongo:
		if c.Store.MongoURI == "" {
			return skerrors.New(skerrors.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
		}
	case storage.BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return skerrors.New(skerrors.ErrCodeInvalidConfig, "store.postgres_dsn is required for the postgres backend")
		}
	default:
		return skerrors.New(skerrors.ErrCodeInvalidConfig, "unknown store.backend %q (want %s)", c.Store.Backend,
			strings.Join(Backends(), ", "))
	}
	return nil
}

// StorageConfig converts the store section for storage.Open.
func (c Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend:       c.Store.Backend,
		Dir:           c.Store.Dir,
		RedisAddr:     c.Store.RedisAddr,
		RedisDB:       c.Store.RedisDB,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
		PostgresDSN:   c.Store.PostgresDSN,
		PostgresTable: c.Store.PostgresTable,
	}
}

// Backends lists the accepted store.backend values.
func Backends() []string {
	return []string{storage.BackendMemory, storage.BackendFile, storage.BackendRedis, storage.BackendMongo, storage.BackendPostgres}
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// EncodeYAML writes c as YAML.
func (c Config) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
