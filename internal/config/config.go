// Package config loads service settings: defaults, then an optional TOML
// file named by DOCSPLIT_CONFIG, then environment variables (env wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dgallion1/docsplit/internal/extract"
	"github.com/dgallion1/docsplit/internal/splitter"
)

// LLM providers for keyword enrichment.
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Port string `toml:"port"`

	// Pathstore connection
	PathstoreURL    string `toml:"pathstore_url"`
	PathstoreAPIKey string `toml:"-"`
	PathstoreRoot   string `toml:"pathstore_root"`

	// Auth
	APIKey string `toml:"-"`

	// Keyword generation backend
	LLMProvider     string `toml:"llm_provider"`
	AnthropicAPIKey string `toml:"-"`
	AnthropicModel  string `toml:"anthropic_model"`
	OpenAIAPIKey    string `toml:"-"`
	OpenAIBaseURL   string `toml:"openai_base_url"`
	OpenAIModel     string `toml:"openai_model"`

	// Rolling window for generation latency stats
	StatsWindow time.Duration `toml:"-"`

	// Worker pool
	WorkerCount  int `toml:"worker_count"`
	MaxQueueSize int `toml:"max_queue_size"`

	// Request limits
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
	MaxSplitBytes  int64 `toml:"max_split_bytes"`

	// Job state
	JobTTL time.Duration `toml:"-"`

	// PDF
	PDFFallbackPdftotext bool `toml:"pdf_fallback_pdftotext"`

	Splitter splitter.Config       `toml:"splitter"`
	Keywords extract.KeywordConfig `toml:"keywords"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:                 "8090",
		PathstoreURL:         "http://localhost:8080",
		PathstoreRoot:        "docsplit",
		LLMProvider:          ProviderAnthropic,
		AnthropicModel:       "claude-sonnet-4-5-20250929",
		OpenAIModel:          "gpt-4o-mini",
		StatsWindow:          time.Hour,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		MaxSplitBytes:        5242880,  // 5MB
		JobTTL:               time.Hour,
		PDFFallbackPdftotext: true,
		Splitter:             splitter.DefaultConfig(),
		Keywords:             extract.DefaultKeywordConfig(),
	}
}

// Load reads config: defaults -> TOML file -> env vars.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DOCSPLIT_CONFIG"); path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)

	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)
	cfg.PathstoreRoot = envOr("PATHSTORE_ROOT", cfg.PathstoreRoot)

	cfg.APIKey = envOr("DOCSPLIT_API_KEY", cfg.APIKey)

	cfg.LLMProvider = strings.ToLower(envOr("LLM_PROVIDER", cfg.LLMProvider))
	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = envOr("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.StatsWindow = envDuration("LLM_STATS_WINDOW", cfg.StatsWindow)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxSplitBytes = envInt64("MAX_SPLIT_BYTES", cfg.MaxSplitBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.Splitter.HeaderLevel = envInt("SPLIT_HEADER_LEVEL", cfg.Splitter.HeaderLevel)
	cfg.Splitter.MaxChunkSize = envInt("SPLIT_MAX_CHUNK_SIZE", cfg.Splitter.MaxChunkSize)
	cfg.Splitter.MinChunkSize = envInt("SPLIT_MIN_CHUNK_SIZE", cfg.Splitter.MinChunkSize)
	if v := os.Getenv("SPLIT_PATH_MODE"); v != "" {
		mode, err := splitter.ParsePathMode(v)
		if err != nil {
			return cfg, fmt.Errorf("SPLIT_PATH_MODE: %w", err)
		}
		cfg.Splitter.PathMode = mode
	}

	cfg.Keywords.Enabled = envBool("KEYWORDS_ENABLED", cfg.Keywords.Enabled)
	cfg.Keywords.MinKeywords = envInt("KEYWORDS_MIN", cfg.Keywords.MinKeywords)
	cfg.Keywords.MaxKeywords = envInt("KEYWORDS_MAX", cfg.Keywords.MaxKeywords)
	cfg.Keywords.MetadataKey = envOr("KEYWORDS_METADATA_KEY", cfg.Keywords.MetadataKey)
	cfg.Keywords.Concurrency = envInt("KEYWORDS_CONCURRENCY", cfg.Keywords.Concurrency)

	cfg.applyFallbacks()
	return cfg, nil
}

// decodeFile overlays the TOML file at path. Keys the file omits keep their
// current values; unknown keys are an error.
func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyFallbacks() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 52428800
	}
	if c.MaxSplitBytes <= 0 {
		c.MaxSplitBytes = 5242880
	}
	if c.JobTTL <= 0 {
		c.JobTTL = time.Hour
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = time.Hour
	}
}

// Validate reports every missing credential and invalid section.
func (c Config) Validate() error {
	var errs []error
	if c.PathstoreAPIKey == "" {
		errs = append(errs, errors.New("PATHSTORE_API_KEY is required"))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("DOCSPLIT_API_KEY is required"))
	}
	if c.Keywords.Enabled {
		switch c.LLMProvider {
		case ProviderAnthropic:
			if c.AnthropicAPIKey == "" {
				errs = append(errs, errors.New("ANTHROPIC_API_KEY is required when keywords are enabled"))
			}
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				errs = append(errs, errors.New("OPENAI_API_KEY is required when keywords are enabled"))
			}
		default:
			errs = append(errs, fmt.Errorf("LLM_PROVIDER %q cannot serve keyword enrichment", c.LLMProvider))
		}
		if err := c.Keywords.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Splitter.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
