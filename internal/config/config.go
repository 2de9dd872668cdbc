package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every tunable of the conversion service. Values are fixed for
// the lifetime of the process; jobs receive the struct by value.
type Config struct {
	BotToken  string `toml:"bot_token"`
	AdminAddr string `toml:"admin_addr"`
	TempDir   string `toml:"temp_dir"`

	MaxItems      int   `toml:"max_items"`
	MaxItemBytes  int64 `toml:"max_item_bytes"`
	ProgressEvery int   `toml:"progress_every"`
	JPEGQuality   int   `toml:"jpeg_quality"`

	ArchiveSuffix string `toml:"archive_suffix"`

	FetchTimeoutSeconds    int `toml:"fetch_timeout_seconds"`
	JobTTLMinutes          int `toml:"job_ttl_minutes"`
	CleanupIntervalMinutes int `toml:"cleanup_interval_minutes"`
}

// Default returns the built-in configuration. TempDir empty means the OS
// temp directory.
func Default() Config {
	return Config{
		AdminAddr:              ":8080",
		MaxItems:               100,
		MaxItemBytes:           5 << 20,
		ProgressEvery:          5,
		JPEGQuality:            95,
		ArchiveSuffix:          "sticker_set_jpg_archive.zip",
		FetchTimeoutSeconds:    60,
		JobTTLMinutes:          24 * 60,
		CleanupIntervalMinutes: 30,
	}
}

// Load builds the effective config: defaults, then the optional TOML file
// named by STICKERZIP_CONFIG, then STICKERZIP_* environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("STICKERZIP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BotToken = envOrDefault("STICKERZIP_BOT_TOKEN", c.BotToken)
	c.AdminAddr = envOrDefault("STICKERZIP_ADMIN_ADDR", c.AdminAddr)
	c.TempDir = envOrDefault("STICKERZIP_TEMP_DIR", c.TempDir)
	c.ArchiveSuffix = envOrDefault("STICKERZIP_ARCHIVE_SUFFIX", c.ArchiveSuffix)
	c.MaxItems = envIntOrDefault("STICKERZIP_MAX_ITEMS", c.MaxItems)
	c.MaxItemBytes = envInt64OrDefault("STICKERZIP_MAX_ITEM_BYTES", c.MaxItemBytes)
	c.ProgressEvery = envIntOrDefault("STICKERZIP_PROGRESS_EVERY", c.ProgressEvery)
	c.JPEGQuality = envIntOrDefault("STICKERZIP_JPEG_QUALITY", c.JPEGQuality)
	c.FetchTimeoutSeconds = envIntOrDefault("STICKERZIP_FETCH_TIMEOUT_SECONDS", c.FetchTimeoutSeconds)
	c.JobTTLMinutes = envIntOrDefault("STICKERZIP_JOB_TTL_MINUTES", c.JobTTLMinutes)
	c.CleanupIntervalMinutes = envIntOrDefault("STICKERZIP_CLEANUP_INTERVAL_MINUTES", c.CleanupIntervalMinutes)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot token is required (STICKERZIP_BOT_TOKEN)")
	}
	if c.MaxItems < 1 {
		return fmt.Errorf("max_items must be positive, got %d", c.MaxItems)
	}
	if c.MaxItemBytes < 1 {
		return fmt.Errorf("max_item_bytes must be positive, got %d", c.MaxItemBytes)
	}
	if c.ProgressEvery < 1 {
		return fmt.Errorf("progress_every must be positive, got %d", c.ProgressEvery)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be in 1..100, got %d", c.JPEGQuality)
	}
	return nil
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c Config) JobTTL() time.Duration {
	return time.Duration(c.JobTTLMinutes) * time.Minute
}

func (c Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64OrDefault(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
