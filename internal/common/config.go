package common

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production" - controls CRM fail-open behavior
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Ingest      IngestConfig      `toml:"ingest"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Suppression SuppressionConfig `toml:"suppression"`
	CRM         CRMConfig         `toml:"crm"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// EmbeddingConfig selects the embedding provider. "local" is a
// deterministic offline vectorizer; "gemini" uses the Google GenAI API.
type EmbeddingConfig struct {
	Provider  string `toml:"provider"`  // "local" or "gemini"
	Model     string `toml:"model"`     // Gemini embedding model name
	Dimension int    `toml:"dimension"` // Vector dimension (must match across ingest and query)
	APIKey    string `toml:"api_key"`   // Overridden by GEMINI_API_KEY
}

type IngestConfig struct {
	MaxChunkChars int `toml:"max_chunk_chars"` // Re-split units above this size
	OverlapChars  int `toml:"overlap_chars"`   // Tail carried into the next chunk on re-split
	MinChunkChars int `toml:"min_chunk_chars"` // Units below this are discarded as noise
}

type RetrievalConfig struct {
	DistanceThreshold float64 `toml:"distance_threshold"` // Squared L2 grounding cutoff
	TopK              int     `toml:"top_k"`              // Default result count
	CacheSize         int     `toml:"cache_size"`         // Bounded query cache capacity
}

type SuppressionConfig struct {
	DebounceSeconds   float64 `toml:"debounce_seconds"`     // Minimum gap between any two shown cards
	MaxCardsPerWindow int     `toml:"max_cards_per_window"` // Rate cap over the trailing 5 minutes
}

// CRMConfig configures the outbound push to the external CRM.
type CRMConfig struct {
	BaseURL           string        `toml:"base_url"`
	APIKey            string        `toml:"api_key"` // Overridden by GHL_API_KEY; empty degrades to mock success
	RequestTimeout    time.Duration `toml:"request_timeout"`
	MaxRetries        int           `toml:"max_retries"`
	BaseDelay         time.Duration `toml:"base_delay"`
	RequestsPerSecond int           `toml:"requests_per_second"`
	Idempotency       string        `toml:"idempotency"` // "memory" or "persisted" - one model per deployment
	DedupeTTL         time.Duration `toml:"dedupe_ttl"`  // TTL for the in-memory model
}

type MaintenanceConfig struct {
	Schedule string `toml:"schedule"` // Cron schedule for suppression/dedupe sweeps
}

// DefaultConfig returns the baseline configuration before file, env and
// CLI overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/livewire",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Embedding: EmbeddingConfig{
			Provider:  "local",
			Model:     "gemini-embedding-001",
			Dimension: 256,
		},
		Ingest: IngestConfig{
			MaxChunkChars: 1000,
			OverlapChars:  100,
			MinChunkChars: 15,
		},
		Retrieval: RetrievalConfig{
			DistanceThreshold: 1.2,
			TopK:              3,
			CacheSize:         128,
		},
		Suppression: SuppressionConfig{
			DebounceSeconds:   30,
			MaxCardsPerWindow: 3,
		},
		CRM: CRMConfig{
			BaseURL:           "https://api.ghl.com",
			RequestTimeout:    10 * time.Second,
			MaxRetries:        5,
			BaseDelay:         2 * time.Second,
			RequestsPerSecond: 10,
			Idempotency:       "memory",
			DedupeTTL:         60 * time.Minute,
		},
		Maintenance: MaintenanceConfig{
			Schedule: "@every 1m",
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each file in order
// (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides. Env always
// wins over file values; CLI flags are applied separately and win over env.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LIVEWIRE_ENV"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("LIVEWIRE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("LIVEWIRE_DATA_DIR"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Embedding.APIKey = v
	}
	if v := os.Getenv("GHL_API_KEY"); v != "" {
		config.CRM.APIKey = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, dataDir, logLevel string) {
	if dataDir != "" {
		config.Storage.Badger.Path = dataDir
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// IsProduction reports whether the fail-open CRM mock contract is disabled.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
