package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/pipeline"
	"RiskSentinel/internal/recorder"
)

// Config holds all application configuration.
type Config struct {
	Risk struct {
		ConfidenceLevel float64 `yaml:"confidence_level"`
		SimulationCount int     `yaml:"simulation_count"`
		RandomSeed      *int64  `yaml:"random_seed"`
		QuantileMethod  string  `yaml:"quantile_method"`
	} `yaml:"risk"`
	DataSource struct {
		Provider     string   `yaml:"provider"`
		BaseURL      string   `yaml:"base_url"`
		APIKey       string   `yaml:"api_key"`
		Symbols      []string `yaml:"symbols"`
		LookbackDays int      `yaml:"lookback_days"`
	} `yaml:"data_source"`
	Store struct {
		Kind           string `yaml:"kind"`
		Mode           string `yaml:"mode"`
		ArchiveSamples *bool  `yaml:"archive_samples"`
		SQLitePath     string `yaml:"sqlite_path"`
		Parquet        struct {
			Dir         string `yaml:"dir"`
			Compression string `yaml:"compression"`
			S3          struct {
				Bucket          string `yaml:"bucket"`
				Prefix          string `yaml:"prefix"`
				Region          string `yaml:"region"`
				AccessKeyID     string `yaml:"access_key_id"`
				SecretAccessKey string `yaml:"secret_access_key"`
			} `yaml:"s3"`
		} `yaml:"parquet"`
	} `yaml:"store"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	API struct {
		Listen string `yaml:"listen"`
	} `yaml:"api"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

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
	if v := os.Getenv("VAR_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("VAR_CONFIDENCE: %w", err)
		}
		c.Risk.ConfidenceLevel = f
	}
	if v := os.Getenv("VAR_SIMULATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VAR_SIMULATIONS: %w", err)
		}
		c.Risk.SimulationCount = n
	}
	if v := os.Getenv("VAR_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("VAR_SEED: %w", err)
		}
		c.Risk.RandomSeed = &n
	}
	if v := os.Getenv("VAR_SYMBOLS"); v != "" {
		c.DataSource.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("AWS_S3_BUCKET"); v != "" {
		c.Store.Parquet.S3.Bucket = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// defaults returns the configuration used for every key the file and the
// environment leave unset. Explicit zero values from either source are kept
// and rejected by Validate.
func defaults() *Config {
	c := &Config{}
	c.Risk.ConfidenceLevel = 0.95
	c.Risk.SimulationCount = 10000
	c.Risk.QuantileMethod = string(calculator.QuantileLinear)
	c.DataSource.Symbols = []string{"SPX500"}
	c.DataSource.LookbackDays = 730
	c.Store.Kind = "sqlite"
	c.Store.Mode = string(recorder.ModeOverwrite)
	c.Store.SQLitePath = "data/risk_sentinel.db"
	c.Store.Parquet.Dir = "data/parquet"
	c.Store.Parquet.Compression = "snappy"
	c.Schedule.Cron = "0 30 22 * * 1-5"
	c.API.Listen = ":8080"
	c.Log.Level = "info"
	return c
}

// applyDefaults fills the settings that depend on other keys.
func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = "vstrader"
		}
	}
	if c.Store.ArchiveSamples == nil {
		yes := true
		c.Store.ArchiveSamples = &yes
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if err := c.Pipeline().Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for vstrader")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.LookbackDays < 2 {
		return fmt.Errorf("data_source.lookback_days must be at least 2")
	}
	switch c.Store.Kind {
	case "sqlite", "parquet", "none":
	default:
		return fmt.Errorf("store.kind %q is not supported", c.Store.Kind)
	}
	if _, err := recorder.ParseWriteMode(c.Store.Mode); err != nil {
		return fmt.Errorf("store.mode: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Pipeline returns the computation settings of the risk section.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		ConfidenceLevel: c.Risk.ConfidenceLevel,
		SimulationCount: c.Risk.SimulationCount,
		RandomSeed:      c.Risk.RandomSeed,
		QuantileMethod:  calculator.QuantileMethod(c.Risk.QuantileMethod),
	}
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
