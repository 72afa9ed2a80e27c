// Package config handles configuration loading for edgarlens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	SEC     SECConfig     `mapstructure:"sec"     yaml:"sec"`
	Yahoo   YahooConfig   `mapstructure:"yahoo"   yaml:"yahoo"`
	Finnhub FinnhubConfig `mapstructure:"finnhub" yaml:"finnhub"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	Prices  PricesConfig  `mapstructure:"prices"  yaml:"prices"`
	HTTP    HTTPConfig    `mapstructure:"http"    yaml:"http"`
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SECConfig holds SEC EDGAR endpoints and access policy.
type SECConfig struct {
	// SEC requires a descriptive User-Agent with contact details.
	UserAgent   string        `mapstructure:"user_agent"   yaml:"user_agent"   validate:"required"`
	TickersURL  string        `mapstructure:"tickers_url"  yaml:"tickers_url"  validate:"required,url"`
	DataURL     string        `mapstructure:"data_url"     yaml:"data_url"     validate:"required,url"`
	RateLimit   int           `mapstructure:"rate_limit"   yaml:"rate_limit"   validate:"gte=1,lte=10"` // requests/second
	RegistryTTL time.Duration `mapstructure:"registry_ttl" yaml:"registry_ttl" validate:"gte=0"`
}

// YahooConfig holds the Yahoo Finance chart endpoint.
type YahooConfig struct {
	ChartURL  string `mapstructure:"chart_url"  yaml:"chart_url"  validate:"required,url"`
	RSSURL    string `mapstructure:"rss_url"    yaml:"rss_url"    validate:"required,url"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=1"`
}

// FinnhubConfig holds Finnhub API settings.
type FinnhubConfig struct {
	BaseURL   string `mapstructure:"base_url"   yaml:"base_url"   validate:"required,url"`
	APIKey    string `mapstructure:"api_key"    yaml:"api_key"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=1"`
}

// NewsConfig controls the news sampler.
type NewsConfig struct {
	Provider   string `mapstructure:"provider"    yaml:"provider"    validate:"oneof=finnhub rss"`
	Days       int    `mapstructure:"days"        yaml:"days"        validate:"gte=1"`
	SampleSize int    `mapstructure:"sample_size" yaml:"sample_size" validate:"gte=1"`
}

// PricesConfig controls the price series analyzer.
type PricesConfig struct {
	WindowDays int `mapstructure:"window_days" yaml:"window_days" validate:"gte=2"`
}

// HTTPConfig holds outbound HTTP settings.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary      string        `mapstructure:"primary"       yaml:"primary"       validate:"oneof=openai anthropic"`
	OpenAIKey    string        `mapstructure:"openai_key"    yaml:"openai_key"`
	OpenAIURL    string        `mapstructure:"openai_url"    yaml:"openai_url"    validate:"omitempty,url"`
	AnthropicKey string        `mapstructure:"anthropic_key" yaml:"anthropic_key"`
	Model        string        `mapstructure:"model"         yaml:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"    yaml:"max_tokens"    validate:"gte=1"`
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"       validate:"gt=0"`
}

// OutputConfig controls where raw bundles are persisted.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"       yaml:"dir"       validate:"required"`
	Timestamp bool   `mapstructure:"timestamp" yaml:"timestamp"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         validate:"gte=1,lte=65535"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.edgarlens/config.yaml (home directory)
//  3. /etc/edgarlens/config.yaml (system)
//
// A .env file in the working directory is loaded into the process
// environment first. Environment variables override config file values.
// Format: EDGARLENS_<SECTION>_<KEY>, e.g., EDGARLENS_FINNHUB_API_KEY
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".edgarlens"))
	v.AddConfigPath("/etc/edgarlens")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return finish(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return finish(v)
}

// Default returns the built-in configuration with environment overrides
// applied but without reading any config file.
func Default() (*Config, error) {
	return finish(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("EDGARLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// SEC EDGAR
	v.SetDefault("sec.user_agent", "edgarlens admin@example.com")
	v.SetDefault("sec.tickers_url", "https://www.sec.gov/files/company_tickers.json")
	v.SetDefault("sec.data_url", "https://data.sec.gov")
	v.SetDefault("sec.rate_limit", 10)
	v.SetDefault("sec.registry_ttl", 24*time.Hour)

	// Yahoo Finance
	v.SetDefault("yahoo.chart_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoo.rss_url", "https://feeds.finance.yahoo.com/rss/2.0/headline")
	v.SetDefault("yahoo.rate_limit", 5)

	// Finnhub (free tier: 60 calls/minute)
	v.SetDefault("finnhub.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("finnhub.rate_limit", 1)

	v.SetDefault("news.provider", "finnhub")
	v.SetDefault("news.days", 30)
	v.SetDefault("news.sample_size", 20)

	v.SetDefault("prices.window_days", 60)

	v.SetDefault("http.timeout", 30*time.Second)

	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 120*time.Second)

	v.SetDefault("output.dir", "reports")
	v.SetDefault("output.timestamp", true)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The bare provider variable names are honored as well, so an existing .env
// with FINNHUB_API_KEY or OPENAI_API_KEY works unchanged.
func overrideFromEnv(cfg *Config) {
	if key := firstEnv("EDGARLENS_FINNHUB_API_KEY", "FINNHUB_API_KEY"); key != "" {
		cfg.Finnhub.APIKey = key
	}
	if key := firstEnv("EDGARLENS_LLM_OPENAI_KEY", "OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := firstEnv("EDGARLENS_LLM_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.AnthropicKey = key
	}
	if ua := os.Getenv("EDGARLENS_SEC_USER_AGENT"); ua != "" {
		cfg.SEC.UserAgent = ua
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// loadDotEnv loads ./.env if present. Existing variables win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
