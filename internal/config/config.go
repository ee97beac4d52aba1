package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by StorageConfig.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
	DriverFS       = "fs"
	DriverMemory   = "memory"
)

// ValidDrivers lists every supported storage driver.
var ValidDrivers = []string{DriverSQLite, DriverPostgres, DriverS3, DriverFS, DriverMemory}

// Config holds all handbook configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Seed    SeedConfig    `yaml:"seed"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// StorageConfig selects and parameterizes the blob backend.
type StorageConfig struct {
	Driver       string   `yaml:"driver"`
	Key          string   `yaml:"key"`
	HistoryLimit int      `yaml:"history_limit"`
	SQLitePath   string   `yaml:"sqlite_path"`
	FSDir        string   `yaml:"fs_dir"`
	PostgresDSN  string   `yaml:"postgres_dsn"`
	S3           S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	Prefix    string `yaml:"prefix"`
}

// SeedConfig names the bulk-load source used when no catalog is stored yet.
type SeedConfig struct {
	URL       string `yaml:"url"`
	File      string `yaml:"file"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EnvPath names the variable that points at the config file.
const EnvPath = "HANDBOOK_CONFIG"

func baseDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".handbook")
	}
	return ".handbook"
}

// Path returns $HANDBOOK_CONFIG, or ~/.handbook/config.yaml when unset.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return filepath.Join(baseDir(), "config.yaml")
}

// DefaultConfig returns a Config with sensible defaults. Data lives under ~/.handbook.
func DefaultConfig() Config {
	base := baseDir()
	return Config{
		Storage: StorageConfig{
			Driver:       DriverSQLite,
			Key:          "handbook:catalog",
			HistoryLimit: 20,
			SQLitePath:   filepath.Join(base, "handbook.db"),
			FSDir:        filepath.Join(base, "blobs"),
			S3:           S3Config{Region: "us-east-1"},
		},
		Seed:    SeedConfig{TimeoutMs: 10000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// Load reads an optional YAML file and then applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Redacted returns a copy of c that is safe to print.
func (c Config) Redacted() Config {
	if c.Storage.PostgresDSN != "" {
		c.Storage.PostgresDSN = "<redacted>"
	}
	return c
}

func (c *Config) applyEnvOverrides() {
	envString("HANDBOOK_BACKEND", &c.Storage.Driver)
	envString("HANDBOOK_DB", &c.Storage.SQLitePath)
	envString("HANDBOOK_FS_DIR", &c.Storage.FSDir)
	envString("HANDBOOK_PG_DSN", &c.Storage.PostgresDSN)
	envString("HANDBOOK_S3_BUCKET", &c.Storage.S3.Bucket)
	envString("HANDBOOK_S3_REGION", &c.Storage.S3.Region)
	envString("HANDBOOK_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	envString("HANDBOOK_S3_PREFIX", &c.Storage.S3.Prefix)
	if v := os.Getenv("HANDBOOK_S3_PATH_STYLE"); v != "" {
		c.Storage.S3.PathStyle, _ = strconv.ParseBool(v)
	}
	envString("HANDBOOK_STORAGE_KEY", &c.Storage.Key)
	envPositiveInt("HANDBOOK_HISTORY_LIMIT", &c.Storage.HistoryLimit)
	envString("HANDBOOK_SEED_URL", &c.Seed.URL)
	envString("HANDBOOK_SEED_FILE", &c.Seed.File)
	envPositiveInt("HANDBOOK_FETCH_TIMEOUT_MS", &c.Seed.TimeoutMs)
	envString("HANDBOOK_LOG_LEVEL", &c.Logging.Level)
	envString("HANDBOOK_LOG_FORMAT", &c.Logging.Format)
	envString("HANDBOOK_ADDR", &c.Server.Addr)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envPositiveInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

// FetchTimeout returns the seed fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Seed.TimeoutMs) * time.Millisecond
}

// Validate rejects unknown drivers and drivers missing their parameters.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver (set HANDBOOK_PG_DSN)")
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver (set HANDBOOK_S3_BUCKET)")
		}
	case DriverFS:
		if c.Storage.FSDir == "" {
			return fmt.Errorf("storage.fs_dir is required for the fs driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage driver: %q (valid: %s)", c.Storage.Driver, strings.Join(ValidDrivers, ", "))
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage.key must not be empty")
	}
	if c.Seed.URL != "" && c.Seed.File != "" {
		return fmt.Errorf("seed.url and seed.file are mutually exclusive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging format: %q (valid: console, json)", c.Logging.Format)
	}
	return nil
}
