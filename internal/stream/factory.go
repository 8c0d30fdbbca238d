package stream

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/pipeline"
	"github.com/bimsrama/relasi4warna/internal/stream/redis"
)

type StreamConfig struct {
	Provider    string // redis for now, kafka/sqs later
	RedisConfig *redis.RedisStreamConfig
}

func NewStreamConsumer(
	ctx context.Context,
	cfg *StreamConfig,
	p *pipeline.Pipeline,
	logger *zerolog.Logger,
) (StreamConsumer, error) {

	provider := cfg.Provider
	if provider == "" {
		provider = "redis"
	}

	switch provider {
	case "redis":
		if cfg.RedisConfig == nil {
			return nil, fmt.Errorf("redis config required")
		}

		client, err := redis.Connect(ctx, cfg.RedisConfig)
		if err != nil {
			return nil, err
		}

		return redis.NewConsumer(
			client,
			cfg.RedisConfig.Stream,
			cfg.RedisConfig.Group,
			cfg.RedisConfig.ConsumerName,
			p,
			logger,
		), nil

	default:
		return nil, fmt.Errorf("unsupported stream provider: %s", cfg.Provider)
	}
}
