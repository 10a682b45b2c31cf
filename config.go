package metabridge

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config consolidates all adapter settings.
type Config struct {
	// CollectionID identifies the metadata collection this adapter
	// represents in the federation.
	CollectionID string `json:"collectionId" yaml:"collectionId"`
	// CollectionName is the human-readable name of the collection.
	CollectionName string `json:"collectionName" yaml:"collectionName"`

	Remote  RemoteConfig  `json:"remote" yaml:"remote"`
	Mapping MappingConfig `json:"mapping" yaml:"mapping"`
	Events  EventsConfig  `json:"events" yaml:"events"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// RemoteConfig describes the vendor catalog endpoint.
type RemoteConfig struct {
	BaseURL  string        `json:"baseUrl" yaml:"baseUrl"`
	Username string        `json:"username" yaml:"username"`
	Password string        `json:"password" yaml:"password"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// MappingConfig locates the static type-correspondence artifact. An empty
// ArtifactPath means the embedded default document; an s3:// URI is fetched
// from object storage.
type MappingConfig struct {
	ArtifactPath string `json:"artifactPath" yaml:"artifactPath"`
	S3Region     string `json:"s3Region" yaml:"s3Region"`
}

// EventsConfig controls the change-notification consumer loop.
type EventsConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	BufferSize int           `json:"bufferSize" yaml:"bufferSize"`
	RetryDelay time.Duration `json:"retryDelay" yaml:"retryDelay"`
}

// JournalConfig controls the optional type-record journal. When DSN is empty
// the journal is disabled and type records live only in memory.
type JournalConfig struct {
	DSN   string `json:"dsn" yaml:"dsn"`
	Table string `json:"table" yaml:"table"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CollectionID:   "",
		CollectionName: "metabridge",
		Remote: RemoteConfig{
			BaseURL: "http://localhost:21000",
			Timeout: 30 * time.Second,
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 256,
			RetryDelay: time.Second,
		},
		Journal: JournalConfig{
			Table: "type_records",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults and then applies
// environment-variable overrides. Path may be empty.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Events.BufferSize <= 0 {
		cfg.Events.BufferSize = 256
	}
	if cfg.Journal.Table == "" {
		cfg.Journal.Table = "type_records"
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.CollectionID = getEnv("BRIDGE_COLLECTION_ID", c.CollectionID)
	c.CollectionName = getEnv("BRIDGE_COLLECTION_NAME", c.CollectionName)
	c.Remote.BaseURL = getEnv("BRIDGE_REMOTE_URL", c.Remote.BaseURL)
	c.Remote.Username = getEnv("BRIDGE_REMOTE_USER", c.Remote.Username)
	c.Remote.Password = getEnv("BRIDGE_REMOTE_PASSWORD", c.Remote.Password)
	c.Mapping.ArtifactPath = getEnv("BRIDGE_MAPPING_ARTIFACT", c.Mapping.ArtifactPath)
	c.Mapping.S3Region = getEnv("BRIDGE_MAPPING_S3_REGION", c.Mapping.S3Region)
	c.Journal.DSN = getEnv("BRIDGE_JOURNAL_DSN", c.Journal.DSN)
	c.Journal.Table = getEnv("BRIDGE_JOURNAL_TABLE", c.Journal.Table)
	c.Logging.Level = getEnv("BRIDGE_LOG_LEVEL", c.Logging.Level)
	c.Events.Enabled = getEnvBool("BRIDGE_EVENTS_ENABLED", c.Events.Enabled)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
