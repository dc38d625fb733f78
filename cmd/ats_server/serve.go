package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonathan/agency-ats/internal/config"
	"github.com/jonathan/agency-ats/internal/db"
	"github.com/jonathan/agency-ats/internal/logging"
	"github.com/jonathan/agency-ats/internal/memstore"
	"github.com/jonathan/agency-ats/internal/server"
	"github.com/jonathan/agency-ats/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the agency API and the public shortlist share links.

Without DATABASE_URL the server keeps everything in memory, which is only suitable for local use.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store server.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = memstore.New()
	} else {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if serveMigrate {
			if err := database.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("database schema applied")
		}
		store = database
	}

	redisClient := connectRedis(cfg.RedisURL, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("redis close failed", "error", err)
			}
		}()
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	srv, err := server.New(server.Config{
		App:     cfg,
		Store:   store,
		Limiter: newLimiter(redisClient, logger),
		JWT:     server.NewJWTService(jwtConfig),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// connectRedis returns a client for url, or nil when url is empty or Redis is unreachable.
func connectRedis(url string, logger *slog.Logger) *redis.Client {
	if url == "" {
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Error("redis url parse failed", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping failed, using in-process rate limiter", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// newLimiter picks the shared Redis limiter when a client is available.
func newLimiter(client *redis.Client, logger *slog.Logger) ratelimit.RequestLimiter {
	rlConfig := ratelimit.LoadConfig()
	if client != nil {
		return ratelimit.NewRedisLimiter(client, rlConfig, logger)
	}
	return ratelimit.NewLimiter(rlConfig)
}
