package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiv1 "github.com/mapgrid/tileserv/internal/api/v1"
	"github.com/mapgrid/tileserv/internal/config"
	"github.com/mapgrid/tileserv/internal/logger"
	"github.com/mapgrid/tileserv/internal/mbtiles"
	"github.com/mapgrid/tileserv/internal/service"
	"github.com/mapgrid/tileserv/internal/source"
	"github.com/mapgrid/tileserv/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tile server",
	Long: `Start the tile server.

The server requires a configuration file (--config) declaring the vector
data sources (mbtiles archives), styles, and composite source groupings.
Sources are resolved once at startup; a source that fails to resolve is
reported and skipped without affecting the others.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // must exceed serverRequestTimeout so middleware handles timeouts
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	address := viper.GetString("address")

	configPath := viper.GetString("config")
	cfg, err := config.NewLoader().LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (%d data sources, %d styles)",
		configPath, len(cfg.Data), len(cfg.Styles))

	// Resolution phase: open every declared archive with bounded fan-out,
	// then aggregate composites strictly after the join.
	registry := source.NewRegistry()
	resolver := source.NewResolver(registry, func(path string) (source.TileStore, error) {
		return mbtiles.Open(path)
	})
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Errorf("Failed to close tile stores: %v", err)
		}
	}()

	defs, composites := source.Definitions(cfg)
	resolver.ResolveAll(ctx, defs)
	resolver.RegisterComposites(composites)
	logger.Infof("Resolved %d of %d vector sources", registry.Len(), len(defs))

	svc := service.NewService(registry, service.WithDomains(cfg.Domains))

	metrics := telemetry.NewMetrics()
	router := apiv1.NewServer(svc,
		apiv1.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			metrics.Middleware,
			apiv1.LoggingMiddleware,
		),
		apiv1.WithMetricsHandler(metrics.Handler()),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
