package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/KaramelBytes/aistudio/internal/ai"
	"github.com/KaramelBytes/aistudio/internal/catalog"
	cfgpkg "github.com/KaramelBytes/aistudio/internal/config"
	"github.com/KaramelBytes/aistudio/internal/logging"
	"github.com/KaramelBytes/aistudio/internal/recommend"
	"github.com/KaramelBytes/aistudio/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

var (
	// Global flags
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "aistudio",
	Short: "AI Studio: find, profile and process datasets for ML projects",
	Long: `AI Studio searches the Kaggle catalog (with a curated offline list), infers the ML task
behind a topic, ranks candidate datasets, profiles tabular files and relays processing jobs
to the ML service. Run "aistudio serve" for the HTTP API.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.aistudio/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "model backend HTTP timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands report it when they need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
}

func loadedConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func newLogger(c *cfgpkg.Global) (*zap.Logger, error) {
	logger, err := logging.New(c.Environment, debug)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// buildCatalog wires the Kaggle CLI client and, when redis_addr is set and
// reachable, the search cache. The returned func releases the cache.
func buildCatalog(ctx context.Context, c *cfgpkg.Global, logger *zap.Logger) (*catalog.Service, func()) {
	client := catalog.NewClient(c.KaggleBin, c.KaggleUsername, c.KaggleKey, nil)
	var opts []catalog.Option
	release := func() {}
	if c.RedisAddr != "" {
		rc := catalog.NewRedisCache(c.RedisAddr, c.RedisPassword, c.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable; search cache disabled", zap.String("addr", c.RedisAddr), zap.Error(err))
			_ = rc.Close()
		} else {
			opts = append(opts, catalog.WithCache(rc, c.CacheTTL()))
			release = func() { _ = rc.Close() }
		}
	}
	if !client.Configured() {
		logger.Info("kaggle credentials not set; serving the curated dataset list")
	}
	return catalog.NewService(client, logger, opts...), release
}

// buildSynthesizer attaches a model backend when default_provider names one
// and its credentials are present; otherwise recommendations use keyword rules.
func buildSynthesizer(c *cfgpkg.Global, logger *zap.Logger) *recommend.Synthesizer {
	opts := []recommend.Option{recommend.WithGeneration(c.MaxTokens, c.Temperature)}
	provider := ai.NormalizeProvider(c.DefaultProvider)
	if provider == "" {
		return recommend.NewSynthesizer(logger, opts...)
	}

	key := c.APIKey
	timeout := time.Duration(c.HTTPTimeoutSec) * time.Second
	switch provider {
	case ai.ProviderOpenAI:
		if c.OpenAIAPIKey != "" {
			key = c.OpenAIAPIKey
		}
	case ai.ProviderAnthropic:
		if c.AnthropicAPIKey != "" {
			key = c.AnthropicAPIKey
		}
	case ai.ProviderOllama:
		timeout = time.Duration(c.OllamaTimeoutSec) * time.Second
	}
	if key == "" && provider != ai.ProviderOllama {
		logger.Warn("no API key for model provider; using keyword rules", zap.String("provider", provider))
		return recommend.NewSynthesizer(logger, opts...)
	}

	rt, ok := ai.GetRuntime(provider, ai.RuntimeConfig{
		HTTPTimeout: timeout,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      key,
		Host:        c.OllamaHost,
	})
	if !ok {
		return recommend.NewSynthesizer(logger, opts...)
	}
	model := c.DefaultModel
	if model == "" {
		model, _ = ai.DefaultModel(provider)
	}
	logger.Info("model backend enabled", zap.String("provider", provider), zap.String("model", model))
	return recommend.NewSynthesizer(logger, append(opts, recommend.WithRuntime(rt, model))...)
}

// openStore connects the import-history database; nil when database_driver is empty.
func openStore(ctx context.Context, c *cfgpkg.Global, logger *zap.Logger) (*store.Store, error) {
	if c.DatabaseDriver == "" {
		return nil, nil
	}
	st := store.New(c.DatabaseDriver, c.DatabaseDSN, logger)
	if _, err := st.Connect(ctx); err != nil {
		return nil, err
	}
	return st, nil
}
