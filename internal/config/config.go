// Package config loads and validates the fleet's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig configures the Postgres connection used by the store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the optional cross-run location cache.
type RedisConfig struct {
	URL string `yaml:"url"`
	TTL int    `yaml:"ttlMinutes"`
}

// BrowserConfig holds the headless browser settings. BinaryPath is passed
// to the browser driver; the timeout fields are defaulted by Load but not
// read elsewhere, and internal/browser and the platform scrapers use their
// own fixed timeouts.
type BrowserConfig struct {
	BinaryPath        string `yaml:"binaryPath"`
	NavigationMs      int    `yaml:"navigationMs"`
	DetailMs          int    `yaml:"detailMs"`
	SelectorWaitMs    int    `yaml:"selectorWaitMs"`
	PaginationProbeMs int    `yaml:"paginationProbeMs"`
}

// WorkerConfig holds detail-fetch concurrency and retry settings. They are
// defaulted by Load but not passed to the pipeline, which applies its own
// defaults (10 workers, 3 attempts, 2s base backoff).
type WorkerConfig struct {
	DetailConcurrency int `yaml:"detailConcurrency"`
	DetailRetries     int `yaml:"detailRetries"`
	DetailBackoffMs   int `yaml:"detailBackoffMs"`
}

// OpenAIConfig configures the OpenAI-compatible chat-completions endpoint
// used for location enrichment.
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// LLMConfig controls the IntelligentLocationParser's LLM backend.
type LLMConfig struct {
	Enabled    bool         `yaml:"enabled"`
	OpenAI     OpenAIConfig `yaml:"openai"`
	TimeoutMs  int          `yaml:"timeoutMs"`
	MaxRetries int          `yaml:"maxRetries"`
}

// BoardsConfig points at the externally-maintained job-board CSV.
type BoardsConfig struct {
	CSVPath string `yaml:"csvPath"`
}

// FleetConfig controls the top-level crawl run.
type FleetConfig struct {
	MaxPages     int    `yaml:"maxPages"`
	ShowProgress bool   `yaml:"showProgress"`
	ToCSV        bool   `yaml:"toCsv"`
	OutputFile   string `yaml:"outputFilename"`
	BoardLockDir string `yaml:"boardLockDir"`
}

// Config is the fleet's top-level configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Browser  BrowserConfig  `yaml:"browser"`
	Worker   WorkerConfig   `yaml:"worker"`
	LLM      LLMConfig      `yaml:"llm"`
	Boards   BoardsConfig   `yaml:"boards"`
	Fleet    FleetConfig    `yaml:"fleet"`
}

// Load reads and decodes the YAML config file at path, exiting the process
// on failure just like the teacher's own config loader.
func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Worker.DetailConcurrency <= 0 {
		cfg.Worker.DetailConcurrency = 10
	}
	if cfg.Worker.DetailRetries <= 0 {
		cfg.Worker.DetailRetries = 3
	}
	if cfg.Worker.DetailBackoffMs <= 0 {
		cfg.Worker.DetailBackoffMs = 2000
	}
	if cfg.Browser.NavigationMs <= 0 {
		cfg.Browser.NavigationMs = 20000
	}
	if cfg.Browser.DetailMs <= 0 {
		cfg.Browser.DetailMs = 60000
	}
	if cfg.Browser.SelectorWaitMs <= 0 {
		cfg.Browser.SelectorWaitMs = 10000
	}
	if cfg.Browser.PaginationProbeMs <= 0 {
		cfg.Browser.PaginationProbeMs = 5000
	}
	if cfg.LLM.TimeoutMs <= 0 {
		cfg.LLM.TimeoutMs = 30000
	}
	if cfg.LLM.MaxRetries <= 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 7 * 24 * 60
	}
	if cfg.Fleet.BoardLockDir == "" {
		cfg.Fleet.BoardLockDir = os.TempDir()
	}
}

// Validate performs sanity checks so obviously broken configuration fails
// fast at startup rather than mid-crawl.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return errors.New("database.dsn must be set")
	}
	if cfg.LLM.Enabled {
		if strings.TrimSpace(cfg.LLM.OpenAI.APIKey) == "" || strings.TrimSpace(cfg.LLM.OpenAI.Model) == "" {
			return errors.New("llm is enabled but openai.apiKey or openai.model is missing")
		}
	}
	if strings.TrimSpace(cfg.Boards.CSVPath) == "" {
		return fmt.Errorf("boards.csvPath must be set")
	}
	return nil
}
