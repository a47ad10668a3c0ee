// Package util provides common utilities for xrayboard.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// Xray proxy integration
	XrayConfigPath string `mapstructure:"xray_config_path"`
	XrayService    string `mapstructure:"xray_service"`
	InboundTag     string `mapstructure:"inbound_tag"`
	PublicHost     string `mapstructure:"public_host"`
	BackupsDir     string `mapstructure:"backups_dir"`

	// Client link generation
	RealityPBK  string `mapstructure:"reality_pbk"`
	Fingerprint string `mapstructure:"fingerprint"`
	Flow        string `mapstructure:"flow"`

	// Usage reporting
	UsageDir            string        `mapstructure:"usage_dir"`
	DefaultLookbackDays int           `mapstructure:"default_lookback_days"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	AnomalyGBPerDay     float64       `mapstructure:"anomaly_gb_per_day"`

	// Web server
	WebHost string `mapstructure:"web_host"`
	WebPort int    `mapstructure:"web_port"`
}

// AnomalyThresholdBytes converts the configured GB/day threshold to bytes.
func (c *Config) AnomalyThresholdBytes() int64 {
	return int64(c.AnomalyGBPerDay * 1_000_000_000)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".xrayboard")

	return &Config{
		DataDir:  dataDir,
		LogLevel: "info",
		LogFile:  filepath.Join(dataDir, "xrayboard.log"),

		XrayConfigPath: "/usr/local/etc/xray/config.json",
		XrayService:    "xray",
		InboundTag:     "",
		PublicHost:     "",
		BackupsDir:     filepath.Join(dataDir, "backups"),

		RealityPBK:  "",
		Fingerprint: "chrome",
		Flow:        "xtls-rprx-vision",

		UsageDir:            "/var/log/xray/usage",
		DefaultLookbackDays: 14,
		CacheTTL:            15 * time.Second,
		AnomalyGBPerDay:     1.0,

		WebHost: "127.0.0.1",
		WebPort: 8090,
	}
}

// LoadConfig loads configuration from file and environment.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	// Ensure config directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(cfg.DataDir)
	viper.AddConfigPath(".")

	// Set defaults in viper
	viper.SetDefault("data_dir", cfg.DataDir)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_file", cfg.LogFile)
	viper.SetDefault("xray_config_path", cfg.XrayConfigPath)
	viper.SetDefault("xray_service", cfg.XrayService)
	viper.SetDefault("inbound_tag", cfg.InboundTag)
	viper.SetDefault("public_host", cfg.PublicHost)
	viper.SetDefault("backups_dir", cfg.BackupsDir)
	viper.SetDefault("reality_pbk", cfg.RealityPBK)
	viper.SetDefault("fingerprint", cfg.Fingerprint)
	viper.SetDefault("flow", cfg.Flow)
	viper.SetDefault("usage_dir", cfg.UsageDir)
	viper.SetDefault("default_lookback_days", cfg.DefaultLookbackDays)
	viper.SetDefault("cache_ttl", cfg.CacheTTL)
	viper.SetDefault("anomaly_gb_per_day", cfg.AnomalyGBPerDay)
	viper.SetDefault("web_host", cfg.WebHost)
	viper.SetDefault("web_port", cfg.WebPort)

	// Environment overrides: XRAYBOARD_USAGE_DIR, XRAYBOARD_CACHE_TTL, ...
	viper.SetEnvPrefix("xrayboard")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// EnsureDir ensures a directory exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
