package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/Ruthe06/cloudsharefiles/internal/config"
	"github.com/Ruthe06/cloudsharefiles/internal/server"
	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
	"github.com/Ruthe06/cloudsharefiles/internal/storage"
	"github.com/Ruthe06/cloudsharefiles/internal/transfer"
)

var (
	serveAddr      string
	servePublicURL string
	serveRedisAddr string
	serveSecret    string
	serveMemory    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling and chunk relay server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&servePublicURL, "public-url", "", "public base URL for signed chunk links")
	serveCmd.Flags().StringVar(&serveRedisAddr, "redis", "", "redis address for chunk storage, e.g. 127.0.0.1:6379")
	serveCmd.Flags().StringVar(&serveSecret, "secret", "", "HMAC secret for signed URLs")
	serveCmd.Flags().BoolVar(&serveMemory, "memory-storage", false, "store chunks in process memory (single node, dev)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Options{
		ListenAddr:    serveAddr,
		PublicBaseURL: servePublicURL,
		RedisAddr:     serveRedisAddr,
		SignSecret:    serveSecret,
	})
	if err != nil {
		return err
	}

	logger := slog.Default()
	signer := storage.NewSigner(cfg.SignSecret)

	gateway, err := buildGateway(cfg, signer, logger)
	if err != nil {
		return err
	}

	hub := signaling.NewHub(logger)
	go hub.Run()

	janitor := transfer.NewJanitor(gateway, cfg.ChunkExpiry, logger)
	srv := server.New(cfg, hub, gateway, signer, janitor, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = server.ErrorHandler(e, logger)
	srv.Routes(e)

	logger.Info("starting relay server", "addr", cfg.ListenAddr, "public_url", cfg.PublicBaseURL)
	return e.Start(cfg.ListenAddr)
}

// buildGateway picks the chunk store. No store at all is a legal deploy for
// signaling-only use; uploads then fail per request instead of at boot.
func buildGateway(cfg *config.Config, signer *storage.Signer, logger *slog.Logger) (storage.Gateway, error) {
	if serveMemory {
		logger.Info("using in-memory chunk storage")
		return storage.NewMemoryGateway(signer, cfg.PublicBaseURL), nil
	}

	if cfg.RedisAddr == "" {
		logger.Warn("no storage backend configured; chunk uploads will be rejected")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect ping failed: %w", err)
	}

	logger.Info("connected to redis chunk storage", "addr", cfg.RedisAddr)
	return storage.NewRedisGateway(client, signer, cfg.PublicBaseURL, cfg.StorageTTL), nil
}
