package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// External ML processing service
	MLBaseURL          string `mapstructure:"ml_base_url" yaml:"ml_base_url"`
	ProcessTimeoutMin  int    `mapstructure:"process_timeout_min" yaml:"process_timeout_min"`
	DownloadTimeoutSec int    `mapstructure:"download_timeout_sec" yaml:"download_timeout_sec"`

	// Dataset catalog (Kaggle CLI)
	KaggleUsername string `mapstructure:"kaggle_username" yaml:"kaggle_username"`
	KaggleKey      string `mapstructure:"kaggle_key" yaml:"kaggle_key"`
	KaggleBin      string `mapstructure:"kaggle_bin" yaml:"kaggle_bin"`
	DownloadsDir   string `mapstructure:"downloads_dir" yaml:"downloads_dir"`

	// Generative-text backends
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	OpenAIAPIKey    string  `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// Search cache (Redis); empty addr disables it
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`

	// Import history; empty driver disables it
	DatabaseDriver string `mapstructure:"database_driver" yaml:"database_driver"`
	DatabaseDSN    string `mapstructure:"database_dsn" yaml:"database_dsn"`
}

// IsProduction reports whether internal error detail must be hidden from callers.
func (g *Global) IsProduction() bool {
	return g.Environment == "production"
}

// KaggleConfigured reports whether catalog credentials are present.
func (g *Global) KaggleConfigured() bool {
	return g.KaggleUsername != "" && g.KaggleKey != ""
}

func (g *Global) ProcessTimeout() time.Duration {
	return time.Duration(g.ProcessTimeoutMin) * time.Minute
}

func (g *Global) DownloadTimeout() time.Duration {
	return time.Duration(g.DownloadTimeoutSec) * time.Second
}

func (g *Global) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLSec) * time.Second
}

// Dir returns the default configuration directory (~/.aistudio).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".aistudio"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.aistudio/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// defaults lists every key so that env overrides reach Unmarshal even when
// no config file exists. An empty default_model means the provider's
// default from ai.DefaultModel; empty redis_addr and database_driver
// disable the cache and the import history.
var defaults = map[string]any{
	"environment":          "development",
	"listen_addr":          ":5000",
	"max_upload_mb":        100,
	"ml_base_url":          "http://localhost:5001",
	"process_timeout_min":  120,
	"download_timeout_sec": 120,
	"kaggle_bin":           "kaggle",
	"downloads_dir":        "kaggle_downloads",
	"default_model":        "",
	"default_provider":     "",
	"max_tokens":           1024,
	"temperature":          0.2,
	"http_timeout_sec":     60,
	"retry_max_attempts":   3,
	"retry_base_delay_ms":  500,
	"retry_max_delay_ms":   4000,
	"ollama_host":          "http://127.0.0.1:11434",
	"ollama_timeout_sec":   60,
	"redis_addr":           "",
	"redis_password":       "",
	"redis_db":             0,
	"cache_ttl_sec":        600,
	"database_driver":      "",
	"database_dsn":         "",
	"api_key":              "",
	"openai_api_key":       "",
	"anthropic_api_key":    "",
	"kaggle_username":      "",
	"kaggle_key":           "",
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > .env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AISTUDIO")
	v.AutomaticEnv()
	// Catalog credentials keep their conventional unprefixed names.
	_ = v.BindEnv("kaggle_username", "AISTUDIO_KAGGLE_USERNAME", "KAGGLE_USERNAME")
	_ = v.BindEnv("kaggle_key", "AISTUDIO_KAGGLE_KEY", "KAGGLE_KEY")
	_ = v.BindEnv("openai_api_key", "AISTUDIO_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic_api_key", "AISTUDIO_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("ml_base_url", "AISTUDIO_ML_BASE_URL", "FLASK_API_URL")

	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if !errors.As(err, &missing) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
