// Package config loads and validates service configuration from a YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeoutSeconds is the default HTTP read timeout in seconds
	DefaultReadTimeoutSeconds = 10
	// DefaultWriteTimeoutSeconds is the default HTTP write timeout in seconds
	DefaultWriteTimeoutSeconds = 30

	defaultPublishTimeout   = 30 * time.Second
	defaultGenerateTimeout  = 60 * time.Second
	defaultEmbeddingTimeout = 15 * time.Second
	defaultCRMTimeout       = 15 * time.Second
	defaultEmbeddingDim     = 384

	// Per-platform request budgets, expressed as requests per hour.
	defaultFacebookRateLimit  = 600
	defaultInstagramRateLimit = 200
	defaultTikTokRateLimit    = 100
	defaultTwitterRateLimit   = 1200
)

type Config struct {
	Debug        bool               `yaml:"debug"`
	Server       ServerConfig       `yaml:"server"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Redis        RedisConfig        `yaml:"redis"`
	Content      ContentConfig      `yaml:"content"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Platforms    PlatformsConfig    `yaml:"platforms"`
	CRM          CRMConfig          `yaml:"crm"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`       // e.g., ":8080"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"` // Default: 30s
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ContentConfig configures the content generation collaborator, an
// OpenAI-compatible chat completions endpoint.
type ContentConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding provider used by the memory store.
type EmbeddingConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

type PlatformsConfig struct {
	Facebook  FacebookConfig  `yaml:"facebook"`
	Instagram InstagramConfig `yaml:"instagram"`
	TikTok    TikTokConfig    `yaml:"tiktok"`
	Twitter   TwitterConfig   `yaml:"twitter"`
}

type FacebookConfig struct {
	AccessToken string `yaml:"access_token"`
	PageID      string `yaml:"page_id"`
	RateLimit   int    `yaml:"rate_limit"` // requests per hour
}

type InstagramConfig struct {
	AccessToken       string `yaml:"access_token"`
	BusinessAccountID string `yaml:"business_account_id"`
	RateLimit         int    `yaml:"rate_limit"`
}

type TikTokConfig struct {
	AccessToken string `yaml:"access_token"`
	RateLimit   int    `yaml:"rate_limit"`
}

type TwitterConfig struct {
	BearerToken string `yaml:"bearer_token"`
	RateLimit   int    `yaml:"rate_limit"`
}

// CRMConfig configures the GoHighLevel bridge.
type CRMConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	LocationID string        `yaml:"location_id"`
	PipelineID string        `yaml:"pipeline_id"`
	Timeout    time.Duration `yaml:"timeout"`
}

type OrchestratorConfig struct {
	PublishTimeout  time.Duration `yaml:"publish_timeout"`  // per-platform optimize+publish budget
	GenerateTimeout time.Duration `yaml:"generate_timeout"` // content generation budget
	ReportTimeout   time.Duration `yaml:"report_timeout"`   // fire-and-forget memory/CRM budget
}

// Validate checks if the server configuration is valid and sets defaults.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeoutSeconds * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeoutSeconds * time.Second
	}
	return nil
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Postgres.Host == "" {
		return errors.New("postgres.host is required")
	}
	if c.Content.BaseURL == "" {
		return errors.New("content.base_url is required")
	}
	if c.Content.Model == "" {
		return errors.New("content.model is required")
	}
	if c.Embedding.BaseURL == "" {
		return errors.New("embedding.base_url is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.CRM.BaseURL == "" {
		return errors.New("crm.base_url is required")
	}
	return nil
}

// setDefaults sets default values for configuration fields
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeoutSeconds * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeoutSeconds * time.Second
	}
	if cfg.Postgres.Port == "" {
		cfg.Postgres.Port = "5432"
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = "postgres"
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = "socialswarm"
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Content.Timeout == 0 {
		cfg.Content.Timeout = defaultGenerateTimeout
	}
	if cfg.Content.Temperature == 0 {
		cfg.Content.Temperature = 0.7
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = defaultEmbeddingTimeout
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = defaultEmbeddingDim
	}
	if cfg.CRM.BaseURL == "" {
		cfg.CRM.BaseURL = "https://services.leadconnectorhq.com"
	}
	if cfg.CRM.Timeout == 0 {
		cfg.CRM.Timeout = defaultCRMTimeout
	}
	if cfg.Orchestrator.PublishTimeout == 0 {
		cfg.Orchestrator.PublishTimeout = defaultPublishTimeout
	}
	if cfg.Orchestrator.GenerateTimeout == 0 {
		cfg.Orchestrator.GenerateTimeout = defaultGenerateTimeout
	}
	if cfg.Orchestrator.ReportTimeout == 0 {
		cfg.Orchestrator.ReportTimeout = defaultPublishTimeout
	}
	if cfg.Platforms.Facebook.RateLimit == 0 {
		cfg.Platforms.Facebook.RateLimit = defaultFacebookRateLimit
	}
	if cfg.Platforms.Instagram.RateLimit == 0 {
		cfg.Platforms.Instagram.RateLimit = defaultInstagramRateLimit
	}
	if cfg.Platforms.TikTok.RateLimit == 0 {
		cfg.Platforms.TikTok.RateLimit = defaultTikTokRateLimit
	}
	if cfg.Platforms.Twitter.RateLimit == 0 {
		cfg.Platforms.Twitter.RateLimit = defaultTwitterRateLimit
	}
}

// overrideWithEnvVars overrides configuration with environment variables
func overrideWithEnvVars(cfg *Config) {
	if appDebug := os.Getenv("APP_DEBUG"); appDebug != "" {
		cfg.Debug = parseBool(appDebug)
	}
	if port := os.Getenv("API_PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		cfg.Postgres.Port = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Postgres.DBName = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Content.APIKey = v
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}
	if v := os.Getenv("FACEBOOK_ACCESS_TOKEN"); v != "" {
		cfg.Platforms.Facebook.AccessToken = v
		if cfg.Platforms.Instagram.AccessToken == "" {
			cfg.Platforms.Instagram.AccessToken = v
		}
	}
	if v := os.Getenv("TIKTOK_ACCESS_TOKEN"); v != "" {
		cfg.Platforms.TikTok.AccessToken = v
	}
	if v := os.Getenv("TWITTER_BEARER_TOKEN"); v != "" {
		cfg.Platforms.Twitter.BearerToken = v
	}
	if v := os.Getenv("GHL_API_KEY"); v != "" {
		cfg.CRM.APIKey = v
	}
	if v := os.Getenv("GHL_LOCATION_ID"); v != "" {
		cfg.CRM.LocationID = v
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("server config validation: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseBool parses a string value as a boolean.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
