package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/profit-tracker/internal/reserve"
)

// Storage drivers understood by app.OpenRepository.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverBigQuery = "bigquery"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig    `json:"server" yaml:"server"`
	Logging LoggingConfig   `json:"logging" yaml:"logging"`
	Storage StorageConfig   `json:"storage" yaml:"storage"`
	Reserve reserve.Options `json:"reserve" yaml:"reserve"`
	Jobs    JobsConfig      `json:"jobs" yaml:"jobs"`
	Export  ExportConfig    `json:"export" yaml:"export"`
}

type ServerConfig struct {
	Port         string `json:"port" yaml:"port"`
	ReadTimeout  string `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout string `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  string `json:"idle_timeout" yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// StorageConfig selects and parameterises the ledger repository.
type StorageConfig struct {
	Driver          string `json:"driver" yaml:"driver"` // "memory", "sqlite" or "bigquery"
	SQLitePath      string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	BigQueryProject string `json:"bigquery_project,omitempty" yaml:"bigquery_project,omitempty"`
	BigQueryDataset string `json:"bigquery_dataset,omitempty" yaml:"bigquery_dataset,omitempty"`
}

// JobsConfig sizes the background report queue.
type JobsConfig struct {
	Workers    int `json:"workers" yaml:"workers"`
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExportConfig holds report destinations. Empty values disable a destination.
type ExportConfig struct {
	GCSBucket        string `json:"gcs_bucket,omitempty" yaml:"gcs_bucket,omitempty"`
	GCSVerify        bool   `json:"gcs_verify,omitempty" yaml:"gcs_verify,omitempty"`
	NotionToken      string `json:"notion_token,omitempty" yaml:"notion_token,omitempty"`
	NotionDatabaseID string `json:"notion_database_id,omitempty" yaml:"notion_database_id,omitempty"`
}

// Timeouts parses the server durations. Validate guarantees they parse.
func (s ServerConfig) Timeouts() (read, write, idle time.Duration) {
	read, _ = time.ParseDuration(s.ReadTimeout)
	write, _ = time.ParseDuration(s.WriteTimeout)
	idle, _ = time.ParseDuration(s.IdleTimeout)
	return read, write, idle
}

// Load reads path when it is non-empty, otherwise starts from Default.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides selected fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PT_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("PT_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := getenv("PT_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := getenv("PT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("PT_INCLUDE_FUTURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Reserve.IncludeFuture = b
		}
	}
	if v := getenv("PT_GCS_BUCKET"); v != "" {
		c.Export.GCSBucket = v
	}
	if v := getenv("NOTION_TOKEN"); v != "" {
		c.Export.NotionToken = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric")
	}
	for name, v := range map[string]string{
		"read_timeout":  c.Server.ReadTimeout,
		"write_timeout": c.Server.WriteTimeout,
		"idle_timeout":  c.Server.IdleTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("server.%s: %w", name, err)
		}
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path required for sqlite driver")
		}
	case DriverBigQuery:
		if c.Storage.BigQueryProject == "" || c.Storage.BigQueryDataset == "" {
			return fmt.Errorf("storage.bigquery_project and storage.bigquery_dataset required for bigquery driver")
		}
	default:
		return fmt.Errorf("storage.driver must be 'memory', 'sqlite' or 'bigquery'")
	}
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be positive")
	}
	if c.Jobs.BufferSize <= 0 {
		return fmt.Errorf("jobs.buffer_size must be positive")
	}
	if c.Jobs.MaxRetries < 0 {
		return fmt.Errorf("jobs.max_retries must not be negative")
	}
	if c.Export.GCSVerify && c.Export.GCSBucket == "" {
		return fmt.Errorf("export.gcs_verify requires export.gcs_bucket")
	}
	if (c.Export.NotionToken == "") != (c.Export.NotionDatabaseID == "") {
		return fmt.Errorf("export.notion_token and export.notion_database_id must be set together")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
			IdleTimeout:  "60s",
		},
		Logging: LoggingConfig{Level: "info"},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "./profit-tracker.sqlite",
		},
		Jobs: JobsConfig{
			Workers:    5,
			BufferSize: 100,
			MaxRetries: 3,
		},
	}
}
