// Package config provides configuration management for the goingest service.
// It handles loading, validation, and access to configuration values from
// YAML files and environment variables via Viper. The result is an explicit
// Config value handed to constructors; there is no package-level state.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/goingest/internal/logger"
)

// Crawl defaults.
const (
	defaultConcurrency      = 4
	defaultRateLimitRPS     = 2.0
	defaultPageSize         = 100
	defaultMaxRetries       = 3
	defaultBackoffBase      = time.Second
	defaultBackoffMax       = 60 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultFailureThreshold = 3
	defaultStatePath        = "parser_state.json"
)

// Validation errors.
var (
	ErrMissingCatalogURL  = errors.New("catalog base URL is required")
	ErrMissingMetadataURL = errors.New("metadata base URL is required")
	ErrMissingImportURL   = errors.New("import base URL is required")
	ErrMissingSourceName  = errors.New("import source name is required")
)

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	// BaseURL is the catalog API root.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Token authenticates catalog API requests.
	Token string `yaml:"token" mapstructure:"token"`
	// PageSize is the fixed listing page size the source supports.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// MetadataConfig holds metadata source settings.
type MetadataConfig struct {
	// BaseURL is the metadata API root.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ImportConfig holds downstream import API settings.
type ImportConfig struct {
	// BaseURL is the import API root.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// InternalToken is sent as X-Internal-Token on every import call.
	InternalToken string `yaml:"internal_token" mapstructure:"internal_token"`
	// SourceName identifies this ingestion source to the import API.
	SourceName string `yaml:"source_name" mapstructure:"source_name"`
}

// CrawlConfig holds crawl loop and HTTP behavior settings.
type CrawlConfig struct {
	// Concurrency caps simultaneous entity pipelines per page.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// RateLimitRPS is the shared outbound request rate. Zero or negative
	// disables rate limiting.
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	// BackoffMax caps the backoff delay.
	BackoffMax time.Duration `yaml:"backoff_max" mapstructure:"backoff_max"`
	// RequestTimeout bounds each HTTP attempt.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	// FailureThreshold is the number of consecutive all-failed pages that
	// trips the circuit breaker.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	// StatePath is the location of the persisted crawl state snapshot.
	StatePath string `yaml:"state_path" mapstructure:"state_path"`
}

// Config is the application configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Metadata MetadataConfig `yaml:"metadata" mapstructure:"metadata"`
	Import   ImportConfig   `yaml:"import" mapstructure:"import"`
	Crawl    CrawlConfig    `yaml:"crawl" mapstructure:"crawl"`
	Logger   logger.Config  `yaml:"logger" mapstructure:"logger"`
}

// Load reads configuration from the optional config file, environment
// variables, and defaults, in ascending precedence of env over file over
// defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	// Config file is optional: file absence falls back to env + defaults.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers default values on the Viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.page_size", defaultPageSize)
	v.SetDefault("crawl.concurrency", defaultConcurrency)
	v.SetDefault("crawl.rate_limit_rps", defaultRateLimitRPS)
	v.SetDefault("crawl.max_retries", defaultMaxRetries)
	v.SetDefault("crawl.backoff_base", defaultBackoffBase)
	v.SetDefault("crawl.backoff_max", defaultBackoffMax)
	v.SetDefault("crawl.request_timeout", defaultRequestTimeout)
	v.SetDefault("crawl.failure_threshold", defaultFailureThreshold)
	v.SetDefault("crawl.state_path", defaultStatePath)
	v.SetDefault("import.source_name", "catalog-metadata")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
}

// bindEnvVars maps well-known environment variables to config keys.
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"catalog.base_url":      {"CATALOG_BASE_URL"},
		"catalog.token":         {"CATALOG_API_TOKEN"},
		"metadata.base_url":     {"METADATA_BASE_URL"},
		"import.base_url":       {"IMPORT_BASE_URL", "BACKEND_BASE_URL"},
		"import.internal_token": {"INTERNAL_TOKEN"},
		"import.source_name":    {"SOURCE_NAME"},
		"crawl.concurrency":     {"CONCURRENCY"},
		"crawl.rate_limit_rps":  {"RATE_LIMIT_RPS"},
		"crawl.max_retries":     {"MAX_RETRIES"},
		"crawl.state_path":      {"STATE_PATH"},
		"logger.level":          {"LOG_LEVEL"},
		"logger.encoding":       {"LOG_FORMAT"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	return nil
}

// Validate checks that required settings are present and normalizes
// out-of-range values back to defaults.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return ErrMissingCatalogURL
	}
	if c.Metadata.BaseURL == "" {
		return ErrMissingMetadataURL
	}
	if c.Import.BaseURL == "" {
		return ErrMissingImportURL
	}
	if c.Import.SourceName == "" {
		return ErrMissingSourceName
	}

	if c.Crawl.Concurrency <= 0 {
		c.Crawl.Concurrency = defaultConcurrency
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = defaultPageSize
	}
	if c.Crawl.MaxRetries < 0 {
		c.Crawl.MaxRetries = 0
	}
	if c.Crawl.BackoffBase <= 0 {
		c.Crawl.BackoffBase = defaultBackoffBase
	}
	if c.Crawl.BackoffMax < c.Crawl.BackoffBase {
		c.Crawl.BackoffMax = defaultBackoffMax
	}
	if c.Crawl.RequestTimeout <= 0 {
		c.Crawl.RequestTimeout = defaultRequestTimeout
	}
	if c.Crawl.FailureThreshold <= 0 {
		c.Crawl.FailureThreshold = defaultFailureThreshold
	}
	if c.Crawl.StatePath == "" {
		c.Crawl.StatePath = defaultStatePath
	}

	return nil
}
