package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Browser  BrowserConfig  `json:"browser"`
	Capture  CaptureConfig  `json:"capture"`
	Kimi     EndpointConfig `json:"kimi"`
	GLM      EndpointConfig `json:"glm"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

// BrowserConfig controls the Chromium instance used for session
// capture. Bin is empty when rod should locate or download its own
// browser.
type BrowserConfig struct {
	Bin string `json:"bin"`
}

// CaptureConfig tunes the localStorage polling loops. The values are
// fixed constants of the integration, not computed.
type CaptureConfig struct {
	PollInterval       time.Duration `json:"poll_interval"`
	SilentTimeout      time.Duration `json:"silent_timeout"`
	InteractiveTimeout time.Duration `json:"interactive_timeout"`
}

// EndpointConfig overrides a web-session provider's API and home URLs,
// mainly for tests and regional mirrors.
type EndpointConfig struct {
	BaseURL string `json:"base_url"`
	HomeURL string `json:"home_url"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".pagelens"))
	}

	setDefaults(homeDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults cover a local install.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func setDefaults(homeDir string) {
	dbPath := "pagelens.db"
	if homeDir != "" {
		dbPath = filepath.Join(homeDir, ".pagelens", "pagelens.db")
	}

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8930)
	viper.SetDefault("database.path", dbPath)
	viper.SetDefault("browser.bin", "")
	viper.SetDefault("capture.pollinterval", 500*time.Millisecond)
	viper.SetDefault("capture.silenttimeout", 10*time.Second)
	viper.SetDefault("capture.interactivetimeout", 120*time.Second)
	viper.SetDefault("kimi.baseurl", "https://www.kimi.com/api")
	viper.SetDefault("kimi.homeurl", "https://www.kimi.com")
	viper.SetDefault("glm.baseurl", "https://chatglm.cn/chatglm/backend-api")
	viper.SetDefault("glm.homeurl", "https://chatglm.cn")
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("PAGELENS_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if dbPath := os.Getenv("PAGELENS_DB"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if bin := os.Getenv("PAGELENS_BROWSER_BIN"); bin != "" {
		cfg.Browser.Bin = bin
	}
}
