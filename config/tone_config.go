package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tone_server/core/domain"
	"tone_server/infra/database"
)

// generateConsumerName creates a unique stream consumer name using hostname and PID
func generateConsumerName() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "tone"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Storage
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	PostgresMaxConns int
	RedisPoolSize    int

	// OpenAI
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	// Analysis pool
	WorkerCount      int
	WorkerBatchSize  int
	WorkerChanSize   int
	JobTimeoutSec    int
	MaxEmailsPerCall int

	// Consumer (Redis Stream)
	ConsumerName    string
	ConsumerGroup   string
	ConsumerBlockMS int
	ConsumerCount   int

	// Cache
	ProfileCacheTTLMin int
	L1CacheItems       int
	L1CacheTTLSec      int

	// Scoring
	LexiconPath string
	Thresholds  domain.Thresholds

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "tone"),
		RedisURL:    getEnv("REDIS_URL", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 60),

		WorkerCount:      getEnvInt("WORKER_COUNT", 8),
		WorkerBatchSize:  getEnvInt("WORKER_BATCH_SIZE", 4),
		WorkerChanSize:   getEnvInt("WORKER_CHAN_SIZE", 64),
		JobTimeoutSec:    getEnvInt("JOB_TIMEOUT_SEC", 30),
		MaxEmailsPerCall: getEnvInt("MAX_EMAILS_PER_CALL", 500),

		ConsumerName:    getEnv("CONSUMER_NAME", generateConsumerName()),
		ConsumerGroup:   getEnv("CONSUMER_GROUP", "tone-workers"),
		ConsumerBlockMS: getEnvInt("CONSUMER_BLOCK_MS", 5000),
		ConsumerCount:   getEnvInt("CONSUMER_COUNT", 10),

		ProfileCacheTTLMin: getEnvInt("PROFILE_CACHE_TTL_MIN", 30),
		L1CacheItems:       getEnvInt("L1_CACHE_ITEMS", 10000),
		L1CacheTTLSec:      getEnvInt("L1_CACHE_TTL_SEC", 60),

		PostgresMaxConns: getEnvInt("POSTGRES_MAX_CONNS", 20),
		RedisPoolSize:    getEnvInt("REDIS_POOL_SIZE", 32),

		LexiconPath: getEnv("LEXICON_PATH", ""),
		Thresholds:  loadThresholds(),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the analysis code cannot run with.
func (c *Config) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	if c.Thresholds.MaxClusters < 2 {
		return fmt.Errorf("TONE_MAX_CLUSTERS must be at least 2, got %d", c.Thresholds.MaxClusters)
	}
	if c.Thresholds.StyleMatchThreshold < 0 || c.Thresholds.StyleMatchThreshold > 1 {
		return fmt.Errorf("TONE_STYLE_MATCH_THRESHOLD must be within [0,1], got %v", c.Thresholds.StyleMatchThreshold)
	}
	return nil
}

// loadThresholds starts from the documented defaults and applies TONE_* overrides.
func loadThresholds() domain.Thresholds {
	th := domain.DefaultThresholds()

	th.ClosingWindow = getEnvInt("TONE_CLOSING_WINDOW", th.ClosingWindow)
	th.FrustrationTone = getEnvFloat("TONE_FRUSTRATION_THRESHOLD", th.FrustrationTone)
	th.LongSentence = getEnvFloat("TONE_LONG_SENTENCE", th.LongSentence)
	th.FormalGrade = getEnvFloat("TONE_FORMAL_GRADE", th.FormalGrade)
	th.EmojiHigh = getEnvInt("TONE_EMOJI_HIGH", th.EmojiHigh)
	th.DirectYouRatio = getEnvFloat("TONE_DIRECT_YOU_RATIO", th.DirectYouRatio)

	th.MaxClusters = getEnvInt("TONE_MAX_CLUSTERS", th.MaxClusters)
	th.DefaultClusters = getEnvInt("TONE_DEFAULT_CLUSTERS", th.DefaultClusters)
	th.KMeansSeed = uint64(getEnvInt("TONE_KMEANS_SEED", int(th.KMeansSeed)))

	th.StyleMatchThreshold = getEnvFloat("TONE_STYLE_MATCH_THRESHOLD", th.StyleMatchThreshold)
	th.ReadabilityTolerance = getEnvFloat("TONE_READABILITY_TOLERANCE", th.ReadabilityTolerance)

	return th
}

// PoolSizing maps the pool settings onto the database package.
func (c *Config) PoolSizing() database.PoolSizing {
	return database.PoolSizing{
		PostgresMaxConns: int32(c.PostgresMaxConns),
		RedisPoolSize:    c.RedisPoolSize,
	}
}

// L1CacheTTL bounds how long a process serves a profile without asking Redis.
func (c *Config) L1CacheTTL() time.Duration {
	return time.Duration(c.L1CacheTTLSec) * time.Second
}

// ProfileCacheTTL returns the profile cache TTL.
func (c *Config) ProfileCacheTTL() time.Duration {
	return time.Duration(c.ProfileCacheTTLMin) * time.Minute
}

// JobTimeout returns the per-email analysis timeout.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
