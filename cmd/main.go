package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"melina-board/internal/api"
	"melina-board/internal/api/routes"
	v1 "melina-board/internal/api/routes/v1"
	"melina-board/internal/channel"
	"melina-board/internal/config"
	"melina-board/internal/discovery"
	"melina-board/internal/handlers"
	"melina-board/internal/imageimport"
	"melina-board/internal/libraries"
	"melina-board/internal/repo"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Fatal skips deferred cleanup, so everything that opens resources lives in run
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("board server failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	// Connect to database
	db, err := config.ConnectDB(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer config.CloseDB(db)
	logger.Info().Msg("database connected")

	// Run migrations
	if cfg.Migrate {
		if err := config.MigrateAllModels(db); err != nil {
			return err
		}
		logger.Info().Msg("migrations completed")
	} else {
		logger.Info().Msg("skipping migration")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	health := map[string]handlers.Pinger{
		"postgres": sqlDB.PingContext,
		"redis":    nil,
	}

	// Redis relays board writes between server instances
	var relay *channel.RedisChannel
	if cfg.RedisURL != "" {
		client, err := channel.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer client.Close()
		relay = channel.NewRedisChannel(client, logger)
		health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		logger.Info().Msg("connected to Redis")
	}

	// Image uploads
	var images imageimport.ImageStore = imageimport.DataURLStore{}
	if cfg.GCSBucket != "" {
		clients, err := libraries.NewClients(ctx, cfg.GCPCredentials, cfg.GCPProjectID)
		if err != nil {
			return fmt.Errorf("failed to init gcp clients: %w", err)
		}
		defer clients.Close()
		images = libraries.NewGCSImageStore(clients.GCS, cfg.GCSBucket)
		logger.Info().Str("bucket", cfg.GCSBucket).Msg("storing images in GCS")
	}

	hub := libraries.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	// Create and configure Fiber app
	app := api.NewServer(logger)

	deps := v1.Deps{
		Boards:  repo.NewBoardRepository(db),
		Hub:     hub,
		Images:  images,
		Health:  health,
		BaseURL: cfg.PublicBaseURL,
		Logger:  logger,
	}
	if relay != nil {
		deps.Relay = relay
	}

	// Register routes
	boardHandler := routes.Register(app, deps)

	if relay != nil {
		unsubscribe, err := relay.SubscribeAll(boardHandler.RelayUpdate)
		if err != nil {
			return fmt.Errorf("redis subscribe failed: %w", err)
		}
		defer unsubscribe()
	}

	if cfg.MDNSEnabled {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", cfg.Port, err)
		}
		server, err := discovery.Advertise(port)
		if err != nil {
			logger.Error().Err(err).Msg("mDNS advertisement failed")
		} else {
			defer server.Shutdown()
			logger.Info().Str("service", discovery.ServiceType).Msg("advertising on the local network")
		}
	}

	// Start server in goroutine
	listenErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting board server")

		listenErr <- app.Listen(":" + cfg.Port)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	}

	logger.Info().Msg("shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}
