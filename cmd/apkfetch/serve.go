package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/apkfetch/apkfetch/internal/config"
	"github.com/apkfetch/apkfetch/internal/log"
	"github.com/apkfetch/apkfetch/internal/provider"
	"github.com/apkfetch/apkfetch/internal/server"
)

var (
	flagConfig string
	flagAddr   string
	flagStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP resolution service",
	Long: `Run the apkfetch HTTP API.

Endpoints:
  POST /api/download      resolve a package or app name to a download URL
  GET  /api/download-apk  follow landing pages and stream the artifact
  GET  /api/health        liveness probe

Providers can be replaced with a TOML descriptor file; see the
providers_file config key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagAddr != "" {
			cfg.Addr = flagAddr
		}
		if flagStatic != "" {
			cfg.StaticDir = flagStatic
		}

		set := provider.Defaults()
		if cfg.ProvidersFile != "" {
			set, err = provider.LoadFile(cfg.ProvidersFile)
			if err != nil {
				return err
			}
		}

		logger := log.Default()
		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           server.New(server.Options{Config: cfg, Providers: set, Logger: logger}).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.Addr, "providers", len(set.All()))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "config file (TOML)")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagStatic, "static", "", "static UI directory (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
