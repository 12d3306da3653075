// Package config loads shelf settings from shelf.yml, a .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hmans/shelf/internal/store"
)

// ConfigFile is the default config file name, looked up in the working directory.
const ConfigFile = "shelf.yml"

// Environment variables that override file settings.
const (
	EnvStorageDriver = "SHELF_STORAGE_DRIVER"
	EnvStoragePath   = "SHELF_STORAGE_PATH"
	EnvDatabaseURL   = "SHELF_DATABASE_URL"
	EnvDatabaseName  = "SHELF_DATABASE_NAME"
	EnvPort          = "SHELF_PORT"
	EnvLogLevel      = "SHELF_LOG_LEVEL"
	EnvLogFormat     = "SHELF_LOG_FORMAT"
)

// Config holds the shelf configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and addresses the store backend.
type StorageConfig struct {
	// Driver is one of memory, sqlite, postgres or mongo.
	Driver string `yaml:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path,omitempty"`
	// URL is the postgres or mongo connection string.
	URL string `yaml:"url,omitempty"`
	// Database is the mongo database name.
	Database string `yaml:"database,omitempty"`
}

// ServerConfig configures `shelf serve`.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RateLimit is the sustained requests per second allowed per client IP;
	// zero disables limiting.
	RateLimit      float64       `yaml:"rate_limit,omitempty"`
	RateBurst      int           `yaml:"rate_burst,omitempty"`
}

// LogConfig configures the logger. An empty format picks pretty output on a
// terminal and JSON otherwise.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:   store.DriverSQLite,
			Path:     "shelf.db",
			Database: "shelf",
		},
		Server: ServerConfig{
			Port:           4000,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path on top of the defaults.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides settings from environment variables looked up with lookup,
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvStorageDriver: &c.Storage.Driver,
		EnvStoragePath:   &c.Storage.Path,
		EnvDatabaseURL:   &c.Storage.URL,
		EnvDatabaseName:  &c.Storage.Database,
		EnvLogLevel:      &c.Log.Level,
		EnvLogFormat:     &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case store.DriverMemory:
	case store.DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case store.DriverPostgres:
		if c.Storage.URL == "" {
			return errors.New("storage.url is required for the postgres driver")
		}
	case store.DriverMongo:
		if c.Storage.URL == "" {
			return errors.New("storage.url is required for the mongo driver")
		}
		if c.Storage.Database == "" {
			return errors.New("storage.database is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (valid: %s)", c.Storage.Driver, strings.Join(Drivers(), ", "))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RequestTimeout < 0 {
		return errors.New("server.request_timeout must not be negative")
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New("server.rate_limit and server.rate_burst must not be negative")
	}

	switch c.Log.Format {
	case "", "pretty", "json":
	default:
		return fmt.Errorf("unknown log format %q (valid: pretty, json)", c.Log.Format)
	}
	return nil
}

// Drivers returns the supported storage driver names.
func Drivers() []string {
	return []string{store.DriverMemory, store.DriverSQLite, store.DriverPostgres, store.DriverMongo}
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
