package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// DataDir is the root for per-conversation state
	DataDir string `json:"data_dir"`

	// Storage selects and configures the timeline store backend
	Storage StorageConfig `json:"storage"`

	// Albert configures the remote semantic store
	Albert AlbertConfig `json:"albert"`

	// LLM configures the silent-extraction collaborator
	LLM LLMConfig `json:"llm"`

	// Extraction configures the free-text heuristics
	Extraction ExtractionConfig `json:"extraction"`
}

// StorageConfig selects the timeline store backend
type StorageConfig struct {
	// Backend is one of "json", "sqlite", "albert"
	Backend string `json:"backend"`

	// SQLitePath is the database path for the sqlite backend
	SQLitePath string `json:"sqlite_path,omitempty"`
}

// AlbertConfig holds remote semantic store settings
type AlbertConfig struct {
	BaseURL             string  `json:"base_url,omitempty"`
	APIKey              string  `json:"api_key,omitempty"`
	EmbedModel          string  `json:"embed_model,omitempty"`
	Collection          string  `json:"collection,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// LLMConfig holds chat-completion settings for silent extraction
type LLMConfig struct {
	APIKey   string `json:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // For Albert or custom endpoints
	Model    string `json:"model,omitempty"`

	// ExtractionModel is an optional lighter model dedicated to the
	// extraction calls
	ExtractionModel string `json:"extraction_model,omitempty"`

	// PromptFile is the YAML file carrying the extraction prompt
	PromptFile string `json:"prompt_file,omitempty"`
}

// ExtractionConfig holds heuristic extraction preferences
type ExtractionConfig struct {
	// YearFallback enables the bare-year strategy (high false-positive
	// rate; kept on by default for parity with the primary path)
	YearFallback bool `json:"year_fallback"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Storage: StorageConfig{
			Backend:    "json",
			SQLitePath: filepath.Join("data", "timeline.db"),
		},
		Albert: AlbertConfig{
			Collection:          "legal_timeline",
			SimilarityThreshold: 0.85,
		},
		LLM: LLMConfig{
			PromptFile: "prompt.yml",
		},
		Extraction: ExtractionConfig{
			YearFallback: true,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chronolex", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults and try to auto-populate from environment
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}

	cfg.AutoPopulateFromEnv()
	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// AutoPopulateFromEnv fills in keys and paths from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if key := os.Getenv("ALBERT_API_KEY"); key != "" {
		c.Albert.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		// The Albert platform reuses the OpenAI key variable
		if c.Albert.APIKey == "" {
			c.Albert.APIKey = key
		}
	}
	if dir := os.Getenv("CHRONOLEX_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if backend := os.Getenv("CHRONOLEX_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}
}
