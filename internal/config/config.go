package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataService struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"data_service"`
	Charts struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"charts"`
	Schedule struct {
		DigestCron  string `yaml:"digest_cron"`
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	// Watchlist names the products compared in the scheduled digest.
	Watchlist []string `yaml:"watchlist"`
	Journal   struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"journal"`
	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env, then the YAML file at path, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("DATA_SERVICE_URL"); v != "" {
		c.DataService.BaseURL = v
	}
	if v := os.Getenv("DATA_SERVICE_API_KEY"); v != "" {
		c.DataService.APIKey = v
	}
	if v := os.Getenv("DATA_SERVICE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DATA_SERVICE_TIMEOUT: %w", err)
		}
		c.DataService.Timeout = d
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CHART_DIR"); v != "" {
		c.Charts.OutputDir = v
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		c.Schedule.DigestCron = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = splitList(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Journal.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_JSON: %w", err)
		}
		c.Log.JSON = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataService.BaseURL == "" {
		c.DataService.BaseURL = "http://localhost:5000"
	}
	if c.DataService.Timeout == 0 {
		c.DataService.Timeout = 30 * time.Second
	}
	if c.Charts.OutputDir == "" {
		c.Charts.OutputDir = "data/charts"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 9 * * 1"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */30 * * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == 0 && len(c.Watchlist) > 0 {
		return fmt.Errorf("telegram.chat_id is required when a watchlist is configured")
	}
	if !strings.HasPrefix(c.DataService.BaseURL, "http://") && !strings.HasPrefix(c.DataService.BaseURL, "https://") {
		return fmt.Errorf("data_service.base_url must be an http(s) URL, got %q", c.DataService.BaseURL)
	}
	if c.DataService.Timeout < 0 {
		return fmt.Errorf("data_service.timeout must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
