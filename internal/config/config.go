// Package config loads application configuration with Viper.
// Sources are merged in priority order: environment, YAML file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fleveque/etf-lens/internal/analysis"
)

// Config is the root configuration struct.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	ExportDir    string `mapstructure:"export_dir"`
}

// AuthConfig lists accepted keys. An empty APIKeys list leaves the public API open.
type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	// Provider selects the backend: gemini, anthropic or openai.
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	AnalysisMode string `mapstructure:"analysis_mode"`
	TextModel    string `mapstructure:"text_model"`
	ImageModel   string `mapstructure:"image_model"`
	ChatModel    string `mapstructure:"chat_model"`
	// RatePerMinute paces outbound model calls. Zero disables pacing.
	RatePerMinute int `mapstructure:"rate_per_minute"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File enables a rotated log file next to stderr output.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// credentialEnv lists the conventional variables checked, in order, when
// llm.api_key is not set.
var credentialEnv = map[string][]string{
	ProviderGemini:    {"GEMINI_API_KEY", "API_KEY", "VITE_API_KEY", "REACT_APP_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ProviderOpenAI:    {"OPENAI_API_KEY"},
}

// providerModels holds the model IDs used when llm.*_model is left unset.
// Claude has no image model, so its image entry stays empty.
var providerModels = map[string]struct{ Text, Image, Chat string }{
	ProviderGemini:    {"gemini-flash-lite-latest", "gemini-3-pro-image-preview", "gemini-flash-lite-latest"},
	ProviderAnthropic: {"claude-sonnet-4-5-20250929", "", "claude-sonnet-4-5-20250929"},
	ProviderOpenAI:    {"gpt-4o", "dall-e-3", "gpt-4o"},
}

// In Go, functions return errors as the last value and callers must check them.
// Load reads configuration from a .env file, a YAML file and environment variables.
// A missing API key is not an error: the services answer with their fallbacks instead.
func Load(configPath string) (*Config, error) {
	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/etf-lens.db")
	v.SetDefault("storage.export_dir", "./storage/exports")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.analysis_mode", string(analysis.ModeGrounded))
	v.SetDefault("llm.text_model", "")
	v.SetDefault("llm.image_model", "")
	v.SetDefault("llm.chat_model", "")
	v.SetDefault("llm.rate_per_minute", 30)
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Defaults and env are enough when no file is found.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// ETF_ prefix + nested keys: ETF_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("ETF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.LLM.AnalysisMode = strings.ToLower(strings.TrimSpace(cfg.LLM.AnalysisMode))
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = lookupCredential(cfg.LLM.Provider)
	}
	cfg.LLM.applyModelDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the services cannot run with.
func (c *Config) Validate() error {
	if _, ok := credentialEnv[c.LLM.Provider]; !ok {
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if !analysis.ValidMode(c.LLM.AnalysisMode) {
		return fmt.Errorf("unknown analysis mode %q", c.LLM.AnalysisMode)
	}
	if c.LLM.Provider == ProviderOpenAI && c.LLM.AnalysisMode == string(analysis.ModeGrounded) {
		return errors.New("openai provider has no live search; use analysis_mode: schema")
	}
	if c.LLM.RatePerMinute < 0 {
		return fmt.Errorf("llm.rate_per_minute must not be negative, got %d", c.LLM.RatePerMinute)
	}
	return nil
}

// applyModelDefaults fills each empty model with the provider's default.
// An unknown provider is left alone; Validate reports it.
func (l *LLMConfig) applyModelDefaults() {
	defaults, ok := providerModels[l.Provider]
	if !ok {
		return
	}
	// Go note: a pointer receiver (l *LLMConfig) lets the method modify the
	// struct in place, much like `self.text_model ||= ...` in Ruby.
	if l.TextModel == "" {
		l.TextModel = defaults.Text
	}
	if l.ImageModel == "" {
		l.ImageModel = defaults.Image
	}
	if l.ChatModel == "" {
		l.ChatModel = defaults.Chat
	}
}

// lookupCredential returns the first non-empty conventional variable for the provider.
func lookupCredential(provider string) string {
	for _, name := range credentialEnv[provider] {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
