package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/aistudio/internal/api"
	cfgpkg "github.com/KaramelBytes/aistudio/internal/config"
	"github.com/KaramelBytes/aistudio/internal/datasets"
	"github.com/KaramelBytes/aistudio/internal/forwarder"
	"github.com/KaramelBytes/aistudio/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handler, release, err := buildAPI(ctx, c, logger)
		if err != nil {
			return err
		}
		defer release()

		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		// No WriteTimeout: /api/process may legitimately run for the full process timeout.
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening",
				zap.String("addr", addr),
				zap.String("environment", c.Environment),
				zap.String("ml_base_url", c.MLBaseURL),
				zap.String("version", version),
			)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// buildAPI assembles every dependency of the router. release closes the
// cache and database connections.
func buildAPI(ctx context.Context, c *cfgpkg.Global, logger *zap.Logger) (http.Handler, func(), error) {
	cat, closeCache := buildCatalog(ctx, c, logger)
	st, err := openStore(ctx, c, logger)
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	release := func() {
		closeCache()
		if st != nil {
			if err := st.Close(); err != nil {
				logger.Warn("close database", zap.Error(err))
			}
		}
	}

	var recorder datasets.Recorder
	if st != nil {
		recorder = st
	}
	synth := buildSynthesizer(c, logger)
	deps := api.Deps{
		Catalog:     cat,
		Synthesizer: synth,
		Importer:    datasets.NewImporter(cat.Source(), c.DownloadsDir, recorder, logger),
		AutoFetcher: datasets.NewAutoFetcher(cat, synth, logger),
		Forwarder: forwarder.New(forwarder.Config{
			BaseURL:         c.MLBaseURL,
			ProcessTimeout:  c.ProcessTimeout(),
			DownloadTimeout: c.DownloadTimeout(),
		}, logger),
		Store:          st,
		Metrics:        metrics.New(),
		Logger:         logger,
		Production:     c.IsProduction(),
		MaxUploadBytes: int64(c.MaxUploadMB) << 20,
		Version:        version,
	}
	return api.NewRouter(deps), release, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}
