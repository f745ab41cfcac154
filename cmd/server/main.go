package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/auth"
	"github.com/contentwriter/api/internal/backend"
	"github.com/contentwriter/api/internal/client"
	"github.com/contentwriter/api/internal/clipboard"
	"github.com/contentwriter/api/internal/config"
	"github.com/contentwriter/api/internal/logger"
	"github.com/contentwriter/api/internal/server"
	"github.com/contentwriter/api/internal/service"
	"github.com/contentwriter/api/internal/store"
	ws "github.com/contentwriter/api/internal/websocket"
	"github.com/contentwriter/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg)

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis not available")
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(redisOpt(cfg))
	defer asynqClient.Close()

	// Initialize WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	provider, err := backend.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Backend.Provider).Msg("failed to initialize generation backend")
	}
	log.Info().Str("provider", provider.Name).Str("text_model", provider.TextModel).Str("image_model", provider.ImageModel).Msg("generation backend ready")

	// Image archive is optional
	var archive client.StorageClient
	if cfg.R2.AccountID != "" {
		r2Client, err := client.NewR2Client(ctx, &cfg.R2)
		if err != nil {
			log.Warn().Err(err).Msg("image archive disabled")
		} else {
			archive = r2Client
		}
	}

	// External identity provider tokens are accepted when configured
	var verifier auth.TokenVerifier
	if cfg.OIDC.Issuer != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(ctx, &cfg.OIDC)
		if err != nil {
			log.Warn().Err(err).Str("issuer", cfg.OIDC.Issuer).Msg("external token verification disabled")
		} else {
			verifier = jwksVerifier
		}
	}

	var credentials store.CredentialStore
	switch cfg.Auth.Store {
	case "memory":
		credentials = store.NewMemoryCredentialStore()
	default:
		credentials = store.NewRedisCredentialStore(redisClient)
	}

	// Initialize services
	results := store.NewResultStore(redisClient)
	topicsService := service.NewTopicsService(provider, results, asynqClient,
		cfg.Topics.Temperature, time.Duration(cfg.Topics.TimeoutSeconds)*time.Second)
	generationService := service.NewGenerationService(provider, results, topicsService,
		clipboard.NewTracker(redisClient), archive, log)
	generationService.SetTimeout(time.Duration(cfg.Backend.TimeoutSeconds) * time.Second)
	authService := service.NewAuthService(credentials, cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Hour)

	app := server.New(server.Deps{
		Config:     cfg,
		Redis:      redisClient,
		Auth:       authService,
		Generation: generationService,
		Topics:     topicsService,
		Owner:      results,
		Hub:        hub,
		Verifier:   verifier,
		Log:        log,
		ServiceInfo: fiber.Map{
			"backend": provider.Name,
			"archive": archive != nil,
		},
	})

	// Start Asynq worker server
	go startWorkerServer(cfg, topicsService, hub, log)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("env", cfg.Server.Env).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

func workerLogLevel(level string) asynq.LogLevel {
	if strings.EqualFold(level, "debug") {
		return asynq.DebugLevel
	}
	return asynq.InfoLevel
}

func startWorkerServer(cfg *config.Config, topicsService *service.TopicsService, hub *ws.Hub, log zerolog.Logger) {
	concurrency := cfg.Topics.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				service.TopicsQueue: 1,
			},
			LogLevel: workerLogLevel(cfg.Server.LogLevel),
		},
	)

	topicsWorker := worker.NewTopicsWorker(topicsService, hub, log)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRelatedTopics, topicsWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Error().Err(err).Msg("asynq worker error")
	}
}
