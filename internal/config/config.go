package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const envPrefix = "JOBBOARD_"

type Config struct {
	Addr           string          `yaml:"addr"`
	APITimeout     time.Duration   `yaml:"timeout"`
	Storage        StorageConfig   `yaml:"storage"`
	UploadDir      string          `yaml:"upload_dir"`
	MaxUploadBytes int64           `yaml:"max_upload_bytes"`
	SeedDemo       bool            `yaml:"seed_demo"`
	LogLevel       string          `yaml:"log_level"`
	LogFormat      string          `yaml:"log_format"`
	CORS           CORSConfig      `yaml:"cors"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Backup         BackupConfig    `yaml:"backup"`
}

type StorageConfig struct {
	// Backend is "csv" or "sqlite".
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir"`
	DatabasePath string `yaml:"database_path"`
	// OnMalformed is "reject" or "skip".
	OnMalformed string `yaml:"on_malformed"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type BackupConfig struct {
	// Schedule is a cron expression; empty disables scheduled snapshots.
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Addr:       ":5001",
		APITimeout: 15 * time.Second,
		Storage: StorageConfig{
			Backend:      "csv",
			DataDir:      "data",
			DatabasePath: "jobboard.db",
			OnMalformed:  "reject",
		},
		UploadDir:      "uploads",
		MaxUploadBytes: 10 << 20,
		SeedDemo:       true,
		LogLevel:       "info",
		LogFormat:      "json",
		CORS:           CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit:      RateLimitConfig{RequestsPerSecond: 0, Burst: 20},
		Backup:         BackupConfig{Dir: "backups", Keep: 7},
	}
}

// LoadConfig reads defaults, then the YAML file at path (if any), then
// JOBBOARD_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv(envPrefix+"ADDR", c.Addr)
	c.Storage.Backend = getEnv(envPrefix+"STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.DataDir = getEnv(envPrefix+"DATA_DIR", c.Storage.DataDir)
	c.Storage.DatabasePath = getEnv(envPrefix+"DATABASE_PATH", c.Storage.DatabasePath)
	c.Storage.OnMalformed = getEnv(envPrefix+"ON_MALFORMED", c.Storage.OnMalformed)
	c.UploadDir = getEnv(envPrefix+"UPLOAD_DIR", c.UploadDir)
	c.LogLevel = getEnv(envPrefix+"LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv(envPrefix+"LOG_FORMAT", c.LogFormat)
	c.Backup.Schedule = getEnv(envPrefix+"BACKUP_SCHEDULE", c.Backup.Schedule)
	c.Backup.Dir = getEnv(envPrefix+"BACKUP_DIR", c.Backup.Dir)
	if v := os.Getenv(envPrefix + "CORS_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv(envPrefix + "SEED_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSEED_DEMO: %w", envPrefix, err)
		}
		c.SeedDemo = b
	}
	if v := os.Getenv(envPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		c.APITimeout = d
	}
	if v := os.Getenv(envPrefix + "RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT_RPS: %w", envPrefix, err)
		}
		c.RateLimit.RequestsPerSecond = f
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	switch c.Storage.Backend {
	case "csv":
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir is required for the csv backend"))
		}
	case "sqlite":
		if c.Storage.DatabasePath == "" {
			errs = append(errs, errors.New("storage.database_path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be csv or sqlite, got %q", c.Storage.Backend))
	}
	switch strings.ToLower(c.Storage.OnMalformed) {
	case "", "reject", "skip":
	default:
		errs = append(errs, fmt.Errorf("storage.on_malformed must be reject or skip, got %q", c.Storage.OnMalformed))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload_dir is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log_format must be json or text, got %q", c.LogFormat))
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_second must not be negative"))
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit.burst must be positive when rate limiting is enabled"))
	}
	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("backup.schedule: %w", err))
		}
		if c.Backup.Dir == "" {
			errs = append(errs, errors.New("backup.dir is required when backup.schedule is set"))
		}
	}
	if c.Backup.Keep < 0 {
		errs = append(errs, errors.New("backup.keep must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
