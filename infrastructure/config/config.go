// Package config loads run settings from an optional YAML file, environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"browser_agent/infrastructure/logging"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "BROWSER_AGENT"

// Browser backends
const (
	BackendPlaywright = "playwright"
	BackendSelenium   = "selenium"
	BackendRod        = "rod"
	BackendChromedp   = "chromedp"
)

// Model providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Browser BrowserConfig  `mapstructure:"browser"`
	LLM     LLMConfig      `mapstructure:"llm"`
	Agent   AgentConfig    `mapstructure:"agent"`
	Log     logging.Config `mapstructure:"log"`
}

type BrowserConfig struct {
	Backend          string        `mapstructure:"backend"`
	Headless         bool          `mapstructure:"headless"`
	StartURL         string        `mapstructure:"start_url"`
	StabilityTimeout time.Duration `mapstructure:"stability_timeout"`
	// Stealth applies anti-detection patches (rod only)
	Stealth     bool   `mapstructure:"stealth"`
	DriverPath  string `mapstructure:"driver_path"`
	BinaryPath  string `mapstructure:"binary_path"`
	UserDataDir string `mapstructure:"user_data_dir"`
	DriverPort  int    `mapstructure:"driver_port"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	MaxRetries  int     `mapstructure:"max_retries"`
	// RequestsPerMinute throttles model calls client-side; 0 disables
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type AgentConfig struct {
	IncludeParagraphs bool   `mapstructure:"include_paragraphs"`
	MaxCycles         int    `mapstructure:"max_cycles"`
	TranscriptPath    string `mapstructure:"transcript_path"`
}

// SetDefaults registers every key so environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("browser.backend", BackendPlaywright)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.start_url", "https://duckduckgo.com/")
	v.SetDefault("browser.stability_timeout", 5*time.Second)
	v.SetDefault("browser.stealth", false)
	v.SetDefault("browser.driver_path", "")
	v.SetDefault("browser.binary_path", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.driver_port", 9515)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 100)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.timeout", 0)

	v.SetDefault("agent.include_paragraphs", true)
	v.SetDefault("agent.max_cycles", 0)
	v.SetDefault("agent.transcript_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)
}

// Load reads file (or ./config.yaml when file is empty and it exists),
// then environment variables, into a validated Config. Flags must already
// be bound to v.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyProviderEnv(&cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyProviderEnv fills settings left empty from the selected provider's
// own variables. OPENAI_MODEL never leaks into a gemini run.
func applyProviderEnv(llm *LLMConfig) {
	fill := func(field *string, names ...string) {
		for _, name := range names {
			if *field != "" {
				return
			}
			*field = os.Getenv(name)
		}
	}

	switch llm.Provider {
	case ProviderGemini:
		fill(&llm.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	default:
		fill(&llm.APIKey, "OPENAI_API_KEY")
		fill(&llm.Model, "OPENAI_MODEL")
		fill(&llm.BaseURL, "OPENAI_BASE_URL")
	}
}

// Validate rejects settings no run could use
func (c Config) Validate() error {
	switch c.Browser.Backend {
	case BackendPlaywright, BackendSelenium, BackendRod, BackendChromedp:
	default:
		return fmt.Errorf("unknown browser backend %q", c.Browser.Backend)
	}
	if c.Browser.StartURL == "" {
		return errors.New("browser.start_url is required")
	}
	if c.Browser.StabilityTimeout <= 0 {
		return fmt.Errorf("browser.stability_timeout must be positive, got %s", c.Browser.StabilityTimeout)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must not be negative, got %v", c.LLM.RequestsPerMinute)
	}

	if c.Agent.MaxCycles < 0 {
		return fmt.Errorf("agent.max_cycles must not be negative, got %d", c.Agent.MaxCycles)
	}
	return nil
}
