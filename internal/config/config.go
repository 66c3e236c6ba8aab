package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "LINKSENTRY_CONFIG"
	serverAddrEnv     = "SERVER_ADDR"
	adminAPIKeyEnv    = "ADMIN_API_KEY"
	databasePathEnv   = "DATABASE_PATH"
	llmAPIKeysEnv     = "LLM_API_KEYS"
	llmModelEnv       = "LLM_MODEL"
	llmEndpointEnv    = "LLM_ENDPOINT"
	chromePathEnv     = "CHROME_PATH"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Cache         CacheConfig        `yaml:"cache"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Renderer      RendererConfig     `yaml:"renderer"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Notifications NotificationConfig `yaml:"notifications"`
	Review        ReviewConfig       `yaml:"review"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig describes the HTTP listener and the admin API key.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"apiKey"`
}

// DatabaseConfig describes the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig bounds the in-memory reputation cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// FetcherConfig throttles outbound content fetches.
type FetcherConfig struct {
	RatePerSecond float64 `yaml:"ratePerSecond"`
	UserAgent     string  `yaml:"userAgent"`
}

// RendererConfig controls the headless-browser fallback.
type RendererConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ChromePath string `yaml:"chromePath"`
}

// ClassifierConfig defines how to contact the chat completions API. APIKeys
// takes a comma-separated list so several keys can share the call volume.
type ClassifierConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKeys      string `yaml:"apiKeys"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// Keys splits the configured key list, dropping empty entries.
func (c ClassifierConfig) Keys() []string {
	var keys []string
	for _, k := range strings.Split(c.APIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// ReviewConfig tunes the pending-review reminder loop.
type ReviewConfig struct {
	ReminderInterval time.Duration `yaml:"reminderInterval"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path wins over the LINKSENTRY_CONFIG variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(adminAPIKeyEnv); v != "" {
		c.Server.APIKey = v
	}

	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(llmEndpointEnv); v != "" {
		c.Classifier.Endpoint = v
	}

	if v := os.Getenv(llmAPIKeysEnv); v != "" {
		c.Classifier.APIKeys = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.Classifier.Model = v
	}

	if v := os.Getenv(chromePathEnv); v != "" {
		c.Renderer.ChromePath = v
		c.Renderer.Enabled = true
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.APIKey != "" {
		base.Server.APIKey = override.Server.APIKey
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Cache.Capacity > 0 {
		base.Cache = override.Cache
	}

	if override.Fetcher.RatePerSecond > 0 {
		base.Fetcher.RatePerSecond = override.Fetcher.RatePerSecond
	}
	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}

	if override.Renderer.ChromePath != "" || override.Renderer.Enabled {
		base.Renderer = override.Renderer
	}

	if override.Classifier.Endpoint != "" {
		base.Classifier.Endpoint = override.Classifier.Endpoint
	}
	if override.Classifier.Model != "" {
		base.Classifier.Model = override.Classifier.Model
	}
	if override.Classifier.APIKeys != "" {
		base.Classifier.APIKeys = override.Classifier.APIKeys
	}
	if override.Classifier.SystemPrompt != "" {
		base.Classifier.SystemPrompt = override.Classifier.SystemPrompt
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Review.ReminderInterval > 0 {
		base.Review = override.Review
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "linksentry.db"},
		Cache:    CacheConfig{Capacity: 1000},
		Fetcher:  FetcherConfig{RatePerSecond: 2},
		Renderer: RendererConfig{Enabled: false},
		Classifier: ClassifierConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKeys:      "",
			SystemPrompt: "",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Review: ReviewConfig{ReminderInterval: time.Hour},
	}
}
