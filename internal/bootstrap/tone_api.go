package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tone_server/adapter/in/http"
	"tone_server/config"
	"tone_server/infra/database"
	"tone_server/infra/middleware"
	"tone_server/pkg/logger"
	"tone_server/pkg/metrics"
	"tone_server/pkg/ratelimit"
)

const improvePerMinute = 20

func NewAPI(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json for request and response bodies
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:   10 * 1024 * 1024,
		ReadTimeout: cfg.JobTimeout() * 2,

		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.ValidateContentType())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: "X-Request-ID,Retry-After",
		MaxAge:        86400,
	}))

	// Health and metrics
	health := http.NewHealthHandler().
		WithCheck("postgres", deps.Postgres.Ping).
		WithCheck("mongodb", func(ctx context.Context) error {
			return deps.MongoDB.Ping(ctx, readpref.Primary())
		}).
		WithStats("postgres_pool", func() any { return deps.Postgres.Stats() }).
		WithStats("sql_pool", func() any {
			s := metrics.GetDBPoolStats(deps.Postgres.DB.DB)
			return fiber.Map{"stats": s, "health": metrics.AssessDBPoolHealth(s)}
		}).
		WithStats("analysis_pool", func() any { return deps.Pool.GetMetrics() }).
		WithStats("analysis_latency", func() any { return deps.Pool.Latency().ToMap() }).
		WithStats("profile_l1_cache", func() any {
			hits, misses := deps.L1Cache.Stats()
			return fiber.Map{"items": deps.L1Cache.Len(), "hits": hits, "misses": misses}
		})

	var improveLimiter ratelimit.Limiter
	if deps.Redis != nil {
		redisClient := deps.Redis
		health.WithCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }).
			WithStats("redis_pool", func() any { return database.RedisPoolStats(redisClient) })
		improveLimiter = ratelimit.NewSlidingWindowLimiter(redisClient, "improve", improvePerMinute, time.Minute)
	}
	if deps.LLM != nil {
		llmClient := deps.LLM
		health.WithStats("llm", func() any { return fiber.Map{"circuit_open": llmClient.IsOpen()} })
	}
	health.Register(app)

	api := app.Group("/api/v1")
	http.NewToneHandler(deps.Service, improveLimiter, cfg.MaxEmailsPerCall).Register(api)

	logger.Info("API routes registered")
	return app, cleanup, nil
}
