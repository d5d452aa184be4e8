// Package server contains the HTTP and WebSocket handlers of the vacancy API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	_ "vacancyhub/docs" // swagger docs
	"vacancyhub/internal/cache"
	"vacancyhub/internal/config"
	"vacancyhub/internal/database"
	"vacancyhub/internal/middleware"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/repository"
	"vacancyhub/internal/service"
	"vacancyhub/internal/storage"
	"vacancyhub/internal/telegram"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// The collectors behind fiberprometheus live in the default registry and can be
// registered only once per process.
var httpMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return middleware.InitMetrics("vacancyhub-api")
})

// Deps are the process-wide collaborators a Server is built from.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Notifier notifications.Notifier
	Media    storage.Store
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo repository.UserRepository
	media    storage.Store
	notifier notifications.Notifier
	events   *notifications.EventBus
	feedHub  *notifications.FeedHub

	moderationService *service.ModerationService
	submissionService *service.SubmissionService
	channelService    *service.ChannelService
	imageService      *service.ImageService
	statsService      *service.StatsService
}

// NewServer connects the database, Redis, the Telegram bot and the media store
// described by cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.Connect(context.Background(), cfg.RedisURL)

	var notifier notifications.Notifier = notifications.NoopNotifier{}
	if cfg.BotEnabled() {
		bot := telegram.NewClient(cfg.TelegramBaseURL, cfg.BotToken, &http.Client{Timeout: 10 * time.Second})
		notifier = notifications.NewTelegramNotifier(bot, cfg.GroupID, cfg.CallbackSecret)
	} else {
		middleware.Logger.Warn("BOT_TOKEN not set, Telegram delivery disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	media, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media store init failed: %w", err)
	}

	return NewServerWithDeps(cfg, Deps{
		DB:       db,
		Redis:    redisClient,
		Notifier: notifier,
		Media:    media,
	})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Notifier disables Telegram delivery; a nil Redis disables the channel
// cache, rate limiting and the moderation feed.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Media == nil {
		return nil, fmt.Errorf("media store is required")
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NoopNotifier{}
	}

	postingRepo := repository.NewPostingRepository(deps.DB)
	channelRepo := repository.NewChannelRepository(deps.DB, cache.New(deps.Redis))
	userRepo := repository.NewUserRepository(deps.DB)
	events := notifications.NewEventBus(deps.Redis)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: httpMetrics(),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		userRepo:       userRepo,
		media:          deps.Media,
		notifier:       notifier,
		events:         events,
		feedHub:        notifications.NewFeedHub(),
	}

	s.moderationService = service.NewModerationService(postingRepo, channelRepo, userRepo, notifier, deps.Media, events)
	s.submissionService = service.NewSubmissionService(postingRepo, userRepo, notifier, deps.Media, events, cfg.QueueLanguage)
	s.channelService = service.NewChannelService(channelRepo, userRepo, notifier)
	s.imageService = service.NewImageService(deps.Media, cfg)
	s.statsService = service.NewStatsService(postingRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(middleware.TracingMiddleware())
	app.Use(helmet.New(helmet.Config{
		// Grant images are embedded by the mini app from another origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.media.(*storage.LocalStore); ok {
		api.Static("/media", local.Root(), fiber.Static{Browse: false, MaxAge: 3600})
	}

	apiKey := middleware.APIKeyRequired(s.config.APIKey)

	moderation := api.Group("/moderation", apiKey)
	moderation.Post("/approve", s.ApproveVacancy)
	moderation.Post("/reject", s.RejectVacancy)
	moderation.Post("/republish", s.RepublishVacancy)
	moderation.Get("/feed", s.FeedUpgrade, s.ModerationFeedHandler())

	channels := api.Group("/bot/channels", apiKey)
	channels.Get("/", s.ListChannels)
	channels.Post("/", s.CreateChannel)
	channels.Get("/lookup", s.LookupChannel)
	channels.Get("/:id", s.GetChannel)
	channels.Put("/:id", s.UpdateChannel)
	channels.Delete("/:id", s.DeleteChannel)

	api.Get("/stats/postings", apiKey, s.GetPostingStats)

	// Author routes are keyed by a single path segment, so they are registered
	// last and without a group middleware that would match every /api path.
	auth := middleware.AuthRequired(s.config.JWTSecret, s.userRepo)
	api.Post("/:kind", s.requireKind, auth,
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "submit_vacancy"), s.SubmitVacancy)
	api.Get("/:kind/mine", s.requireKind, auth, s.ListMyVacancies)
	api.Put("/:kind/:id", s.requireKind, auth, s.UpdateVacancy)
	api.Delete("/:kind/:id", s.requireKind, auth, s.DeleteVacancy)
}

// StartFeed subscribes the moderation feed hub to the event bus. It returns
// immediately; the subscription lives until Shutdown.
func (s *Server) StartFeed() {
	if s.redis == nil {
		middleware.Logger.Warn("Redis unavailable, moderation feed disabled")
		return
	}
	go func() {
		if err := s.feedHub.StartWiring(s.shutdownCtx, s.events); err != nil {
			middleware.Logger.Error("moderation feed stopped", slog.String("hub", s.feedHub.Name()), slog.String("error", err.Error()))
		}
	}()
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional here: without it the service runs uncached.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"feed":     s.feedHub.Count(),
		},
		"time": time.Now(),
	})
}

// Shutdown stops the feed and releases the database and Redis connections.
// The Fiber app must already be shut down.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	if err := s.feedHub.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", s.feedHub.Name(), err))
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	middleware.Logger.InfoContext(ctx, "server resources released", slog.Int("errors", len(errs)))
	return errors.Join(errs...)
}
