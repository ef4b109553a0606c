package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"csd-portal/ops-portal/ops-portal-backend/internal/api"
	"csd-portal/ops-portal/ops-portal-backend/internal/auth"
	"csd-portal/ops-portal/ops-portal-backend/internal/config"
	"csd-portal/ops-portal/ops-portal-backend/internal/fixtures"
	"csd-portal/ops-portal/ops-portal-backend/internal/live"
	"csd-portal/ops-portal/ops-portal-backend/internal/pages"
	"csd-portal/ops-portal/ops-portal-backend/internal/session"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Page registry over the fixture dataset
	defs, err := pages.LoadFile(cfg.Pages.DefinitionsPath)
	if err != nil {
		return fmt.Errorf("failed to load page definitions: %w", err)
	}
	dataset := fixtures.Generate(cfg.Pages.Seed, cfg.Pages.Size)
	registry, err := pages.NewRegistry(defs, pages.FixtureSources(dataset), logger.Named("pages"))
	if err != nil {
		return err
	}
	logger.Info("Loaded page definitions",
		zap.Int("pages", len(registry.Definitions())),
		zap.Uint64("seed", dataset.Seed),
		zap.Int("settlements", len(dataset.Settlements)))

	authorizer, err := auth.NewAuthorizer(cfg.Security.AuthConfig(), logger.Named("auth"))
	if err != nil {
		return err
	}
	if cfg.Security.AllowDevTokens {
		logger.Warn("Development token issuing is enabled")
	}

	sessions := session.NewManager(registry, cfg.Sessions.SessionConfig(), logger.Named("sessions"))
	if err := sessions.Start(); err != nil {
		return err
	}
	defer sessions.Stop()

	hub := live.NewHub(logger.Named("live"), cfg.Server.AllowedOrigins)
	defer hub.Close()

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(registry, sessions, hub, authorizer, cfg.Export.ExportOptions(), logger.Named("api"))
	router := api.NewRouter(
		api.RouterConfig{AllowedOrigins: cfg.Server.AllowedOrigins},
		handler,
		auth.NewHandler(authorizer, cfg.Security.AllowDevTokens, logger.Named("auth")),
		authorizer,
		logger.Named("http"),
	)

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
