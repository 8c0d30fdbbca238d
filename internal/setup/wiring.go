package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/analytics"
	"github.com/bimsrama/relasi4warna/internal/config"
	"github.com/bimsrama/relasi4warna/internal/detector"
	"github.com/bimsrama/relasi4warna/internal/gate"
	"github.com/bimsrama/relasi4warna/internal/keywords"
	"github.com/bimsrama/relasi4warna/internal/llm"
	"github.com/bimsrama/relasi4warna/internal/llm/bedrock"
	"github.com/bimsrama/relasi4warna/internal/pipeline"
	"github.com/bimsrama/relasi4warna/internal/queue"
	"github.com/bimsrama/relasi4warna/internal/rewrite"
	"github.com/bimsrama/relasi4warna/internal/scoring"
	"github.com/bimsrama/relasi4warna/internal/store"
)

type Config struct {
	AWSRegion       string
	ClaudeModelID   string
	FallbackModelID string
	DatabaseURL     string
	MaxTokens       int
	Temperature     float64
	GenTimeoutSecs  int
}

type Dependencies struct {
	Pipeline  *pipeline.Pipeline
	Queue     *queue.Service
	Registry  *keywords.Registry
	Analytics *analytics.Service
	Store     store.Store
	Logger    *zerolog.Logger

	closeStore func()
}

func LoadConfig() *Config {
	return &Config{
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:   getEnv("CLAUDE_MODEL_ID", ""),
		FallbackModelID: getEnv("FALLBACK_MODEL_ID", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MaxTokens:       getEnvInt("GEN_MAX_TOKENS", 4096),
		Temperature:     getEnvFloat("GEN_TEMPERATURE", 0.7),
		GenTimeoutSecs:  getEnvInt("GEN_TIMEOUT_SECONDS", 60),
	}
}

// Wire builds the full pipeline graph: store (Postgres when DATABASE_URL is
// set, in-memory otherwise), keyword registry seeded from the YAML config,
// detector, scoring engine, rewriter, moderation queue, gate, generator and
// analytics.
func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	keywordsConfig, err := config.LoadKeywordsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load keywords config: %w", err)
	}

	st, closeStore, err := createStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := keywords.NewRegistry(st, logger)
	if err := registry.Load(ctx, keywordsConfig.SeedKeywords()); err != nil {
		return nil, fmt.Errorf("failed to load keyword set: %w", err)
	}

	rewriter := rewrite.New()
	queueService := queue.NewService(st, rewriter, logger)
	safetyGate := gate.New(queueService, rewriter, st, keywordsConfig.SamplingRate, logger)
	engine := scoring.NewEngine(keywordsConfig.FlagIncrements, logger)

	generator, err := createGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(
		registry,
		detector.New(),
		engine,
		safetyGate,
		rewriter,
		generator,
		st,
		logger,
	)

	return &Dependencies{
		Pipeline:   p,
		Queue:      queueService,
		Registry:   registry,
		Analytics:  analytics.NewService(st, logger),
		Store:      st,
		Logger:     logger,
		closeStore: closeStore,
	}, nil
}

// Close releases the store connection pool, if any.
func (d *Dependencies) Close() {
	if d.closeStore != nil {
		d.closeStore()
	}
}

func createStore(ctx context.Context, cfg *Config, logger *zerolog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), nil, nil
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pg.RunMigrations(cfg.DatabaseURL); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Msg("Postgres store ready")
	return pg, pg.Close, nil
}

func createGenerator(ctx context.Context, cfg *Config, logger *zerolog.Logger) (llm.DraftGenerator, error) {
	primary, err := bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
	}

	fallbackModel := cfg.FallbackModelID
	if fallbackModel == "" {
		fallbackModel = cfg.ClaudeModelID
	}
	fallback, err := bedrock.NewClient(ctx, cfg.AWSRegion, fallbackModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback Bedrock client: %w", err)
	}

	return llm.NewFallbackGenerator(
		primary,
		fallback,
		fallbackModel,
		cfg.MaxTokens,
		cfg.Temperature,
		time.Duration(cfg.GenTimeoutSecs)*time.Second,
		logger,
	), nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}
