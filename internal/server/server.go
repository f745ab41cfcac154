// Package server assembles the HTTP application.
package server

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/auth"
	"github.com/contentwriter/api/internal/config"
	"github.com/contentwriter/api/internal/handler"
	"github.com/contentwriter/api/internal/middleware"
	"github.com/contentwriter/api/internal/service"
	ws "github.com/contentwriter/api/internal/websocket"
	"github.com/contentwriter/api/pkg/response"
)

// GenerationOwner reports the generation currently shown to a user
type GenerationOwner interface {
	CurrentGeneration(ctx context.Context, userID string) (string, error)
}

// Deps are the collaborators of the HTTP application
type Deps struct {
	Config      *config.Config
	Redis       *redis.Client
	Auth        *service.AuthService
	Generation  *service.GenerationService
	Topics      *service.TopicsService
	Owner       GenerationOwner
	Hub         *ws.Hub
	Verifier    auth.TokenVerifier
	Log         zerolog.Logger
	ServiceInfo fiber.Map
}

// New builds the Fiber app with all routes
func New(d Deps) *fiber.App {
	cfg := d.Config
	validate := validator.New()

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, d.Auth)
	if d.Verifier != nil {
		authMiddleware.WithVerifier(d.Verifier)
	}

	var apiAuth fiber.Handler
	if cfg.Gateway.Enabled {
		d.Log.Info().Msg("gateway mode enabled, using header-based auth")
		apiAuth = middleware.GatewayAuthMiddleware()
	} else {
		apiAuth = authMiddleware.Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(d.Redis, d.Log)

	authHandler := handler.NewAuthHandler(d.Auth, authMiddleware, validate)
	generationHandler := handler.NewGenerationHandler(d.Generation, validate)
	topicsHandler := handler.NewTopicsHandler(d.Topics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.Name,
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(d.Log, d.Log.GetLevel() <= zerolog.DebugLevel))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		redisOK := d.Redis.Ping(c.Context()).Err() == nil
		return c.JSON(fiber.Map{
			"status":   "ok",
			"services": d.serviceInfo(redisOK),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authRoutes := app.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/verify", authHandler.Verify)

	api := app.Group("/api", apiAuth)

	api.Post("/auth/logout", authHandler.Logout)
	api.Get("/auth/me", authHandler.Me)

	api.Get("/options", generationHandler.Options)
	api.Post("/generate",
		rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerMin),
		rateLimiter.ImageLimit(cfg.RateLimit.ImagePerHour),
		generationHandler.Generate,
	)

	api.Get("/generations/last", generationHandler.Last)
	api.Post("/generations/last/copy", generationHandler.Copy)
	api.Get("/generations/last/download", generationHandler.Download)

	api.Get("/topics/last", topicsHandler.Last)
	api.Post("/segments", rateLimiter.SegmentLimit(cfg.RateLimit.SegmentPerMin), generationHandler.Segments)

	// WebSocket routes authenticate with the token query parameter
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if cfg.Gateway.Enabled {
			return apiAuth(c)
		}
		identity, err := authMiddleware.Identify(c.Context(), c.Query("token"))
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		c.Locals("userId", identity.UserID)
		return c.Next()
	})

	app.Get("/ws/topics/:generationId", func(c *fiber.Ctx) error {
		generationID := c.Params("generationId")
		current, err := d.Owner.CurrentGeneration(c.Context(), middleware.GetUserID(c))
		if err != nil || current != generationID {
			return response.NotFound(c, "Generation not found")
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		d.Hub.HandleConnection(c, c.Params("generationId"))
	}))

	return app
}

func (d Deps) serviceInfo(redisOK bool) fiber.Map {
	info := fiber.Map{"redis": redisOK}
	for k, v := range d.ServiceInfo {
		info[k] = v
	}
	return info
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
