package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/ai"
	cfgpkg "github.com/KaramelBytes/aistudio/internal/config"
	"github.com/KaramelBytes/aistudio/internal/store"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set AI Studio configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		showConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func showConfig(w io.Writer, c *cfgpkg.Global) {
	fmt.Fprintf(w, "environment: %s\n", c.Environment)
	fmt.Fprintf(w, "listen_addr: %s\n", c.ListenAddr)
	fmt.Fprintf(w, "max_upload_mb: %d\n", c.MaxUploadMB)
	fmt.Fprintf(w, "ml_base_url: %s\n", c.MLBaseURL)
	fmt.Fprintf(w, "process_timeout_min: %d\n", c.ProcessTimeoutMin)
	fmt.Fprintf(w, "download_timeout_sec: %d\n", c.DownloadTimeoutSec)
	fmt.Fprintf(w, "kaggle_username: %s\n", c.KaggleUsername)
	fmt.Fprintf(w, "kaggle_key: %s\n", mask(c.KaggleKey))
	fmt.Fprintf(w, "downloads_dir: %s\n", c.DownloadsDir)
	if c.DefaultProvider != "" {
		fmt.Fprintf(w, "default_provider: %s\n", c.DefaultProvider)
		fmt.Fprintf(w, "default_model: %s\n", c.DefaultModel)
		fmt.Fprintf(w, "api_key: %s\n", mask(c.APIKey))
	}
	if c.RedisAddr != "" {
		fmt.Fprintf(w, "redis_addr: %s (db %d, ttl %ds)\n", c.RedisAddr, c.RedisDB, c.CacheTTLSec)
	}
	if c.DatabaseDriver != "" {
		fmt.Fprintf(w, "database_driver: %s\n", c.DatabaseDriver)
	}
}

// configSetters maps each settable key to a parser that updates the config.
var configSetters = map[string]func(c *cfgpkg.Global, val string) error{
	"environment": func(c *cfgpkg.Global, v string) error {
		switch v {
		case "development", "production", "test":
			c.Environment = v
			return nil
		}
		return fmt.Errorf("invalid environment: %s (use development, production or test)", v)
	},
	"listen_addr":     func(c *cfgpkg.Global, v string) error { c.ListenAddr = v; return nil },
	"ml_base_url":     func(c *cfgpkg.Global, v string) error { c.MLBaseURL = strings.TrimRight(v, "/"); return nil },
	"kaggle_username": func(c *cfgpkg.Global, v string) error { c.KaggleUsername = v; return nil },
	"kaggle_key":      func(c *cfgpkg.Global, v string) error { c.KaggleKey = v; return nil },
	"downloads_dir":   func(c *cfgpkg.Global, v string) error { c.DownloadsDir = v; return nil },
	"api_key":         func(c *cfgpkg.Global, v string) error { c.APIKey = v; return nil },
	"default_model":   func(c *cfgpkg.Global, v string) error { c.DefaultModel = v; return nil },
	"default_provider": func(c *cfgpkg.Global, v string) error {
		p := ai.NormalizeProvider(v)
		if p == "" {
			return fmt.Errorf("invalid default_provider: %s (use openrouter, openai, anthropic or ollama)", v)
		}
		c.DefaultProvider = p
		return nil
	},
	"redis_addr": func(c *cfgpkg.Global, v string) error { c.RedisAddr = v; return nil },
	"database_driver": func(c *cfgpkg.Global, v string) error {
		if !store.SupportedDriver(v) {
			return fmt.Errorf("%w: %s (use sqlite or postgres)", store.ErrUnsupportedDriver, v)
		}
		c.DatabaseDriver = v
		return nil
	},
	"database_dsn":         func(c *cfgpkg.Global, v string) error { c.DatabaseDSN = v; return nil },
	"max_upload_mb":        intSetter(func(c *cfgpkg.Global, i int) { c.MaxUploadMB = i }),
	"process_timeout_min":  intSetter(func(c *cfgpkg.Global, i int) { c.ProcessTimeoutMin = i }),
	"download_timeout_sec": intSetter(func(c *cfgpkg.Global, i int) { c.DownloadTimeoutSec = i }),
	"cache_ttl_sec":        intSetter(func(c *cfgpkg.Global, i int) { c.CacheTTLSec = i }),
	"max_tokens":           intSetter(func(c *cfgpkg.Global, i int) { c.MaxTokens = i }),
	"temperature": func(c *cfgpkg.Global, v string) error {
		f, err := cast.ToFloat64E(v)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v", v)
		}
		c.Temperature = f
		return nil
	},
}

func intSetter(set func(*cfgpkg.Global, int)) func(*cfgpkg.Global, string) error {
	return func(c *cfgpkg.Global, v string) error {
		i, err := cast.ToIntE(v)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int: %v", v)
		}
		set(c, i)
		return nil
	}
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		set, ok := configSetters[key]
		if !ok {
			keys := make([]string, 0, len(configSetters))
			for k := range configSetters {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(keys, ", "))
		}
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := set(cfg, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
