package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"tone_server/adapter/in/worker"
	"tone_server/adapter/out/llm"
	"tone_server/adapter/out/mongodb"
	"tone_server/adapter/out/persistence"
	"tone_server/config"
	"tone_server/core/service/analysis"
	"tone_server/core/service/feature"
	"tone_server/core/service/profile"
	"tone_server/core/service/style"
	"tone_server/core/service/tone"
	"tone_server/infra/database"
	"tone_server/internal/stream"
	"tone_server/pkg/cache"
	"tone_server/pkg/logger"
)

type Dependencies struct {
	Config   *config.Config
	Postgres *database.Postgres
	Redis    *redis.Client
	MongoDB  *mongo.Client

	Stream  *stream.RedisStream
	L1Cache *cache.L1Cache
	LLM     *llm.OpenAIAdapter
	Pool    *worker.Pool
	Service *analysis.Service
}

// NewDependencies connects storage and builds the analysis service.
// Postgres and MongoDB are required; Redis and the LLM are optional.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	log := logger.Default()
	zlog := log.Zerolog()

	// Postgres (pgxpool + sqlx)
	pg, err := database.NewPostgres(ctx, cfg.DatabaseURL, cfg.PoolSizing())
	if err != nil {
		return fail(fmt.Errorf("postgres: %w", err))
	}
	deps.Postgres = pg
	cleanups = append(cleanups, pg.Close)

	analyses := persistence.NewAnalysisAdapter(pg.DB)
	if err := analyses.Migrate(ctx); err != nil {
		return fail(err)
	}

	// MongoDB
	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, nil)
	if err != nil {
		return fail(err)
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() { _ = mongoClient.Disconnect(context.Background()) })

	profiles := mongodb.NewProfileAdapter(mongoClient.Database(cfg.MongoDBName))
	if err := profiles.EnsureIndexes(ctx); err != nil {
		log.Warn("[NewDependencies] profile indexes: %v", err)
	}

	// Scoring core
	lex, err := feature.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return fail(err)
	}
	nlp, err := feature.NewProsePipeline()
	if err != nil {
		return fail(err)
	}
	extractor := feature.NewExtractor(lex, nlp, cfg.Thresholds, feature.WithLogger(log))
	classifier := tone.NewClassifier(cfg.Thresholds)
	pipeline := analysis.NewPipeline(extractor, classifier)
	validator := style.NewValidator(extractor, classifier, cfg.Thresholds)

	deps.Pool = worker.NewPool(pipeline, &worker.PoolConfig{
		Workers:        cfg.WorkerCount,
		BatchSize:      cfg.WorkerBatchSize,
		WorkerChanSize: cfg.WorkerChanSize,
		JobTimeout:     cfg.JobTimeout(),
	}, zlog)

	svcDeps := analysis.Dependencies{
		Pipeline:   pipeline,
		Batch:      deps.Pool,
		Analyses:   analyses,
		Profiles:   profiles,
		Aggregator: profile.NewAggregator(cfg.Thresholds, log),
		Validator:  validator,
		Logger:     log,
	}

	// Profile cache: in-process L1, backed by Redis when configured
	deps.L1Cache = cache.NewL1Cache(&cache.L1Config{MaxItems: cfg.L1CacheItems, DefaultTTL: cfg.L1CacheTTL()})
	var profileStore cache.JSONStore = deps.L1Cache

	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(ctx, cfg.RedisURL, cfg.PoolSizing())
		if err != nil {
			log.Warn("[NewDependencies] Redis unavailable, cache and async jobs disabled: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { _ = redisClient.Close() })

			deps.Stream = stream.NewRedisStream(redisClient, cfg.ConsumerGroup, zlog).
				WithRead(time.Duration(cfg.ConsumerBlockMS)*time.Millisecond, int64(cfg.ConsumerCount))
			profileStore = cache.NewTieredStore(deps.L1Cache, cache.NewRedisCache(redisClient))
			svcDeps.Publisher = stream.NewProducer(deps.Stream)
		}
	}
	svcDeps.Cache = cache.NewProfileCache(profileStore, cfg.ProfileCacheTTL())

	// LLM
	if cfg.OpenAIAPIKey != "" {
		deps.LLM = llm.NewOpenAIAdapter(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     time.Duration(cfg.LLMTimeoutSec) * time.Second,
		})
		svcDeps.Improver = style.NewImprover(deps.LLM, validator, cfg.Thresholds, log)
	} else {
		log.Warn("[NewDependencies] OPENAI_API_KEY not set, draft improvement disabled")
	}

	deps.Service = analysis.NewService(svcDeps)

	zlog.Info().
		Bool("redis", deps.Redis != nil).
		Bool("llm", deps.LLM != nil).
		Int("workers", cfg.WorkerCount).
		Msg("dependencies ready")

	return deps, cleanup, nil
}

func componentLogger(name string) zerolog.Logger {
	return logger.Default().Zerolog().With().Str("component", name).Logger()
}
