package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bimsrama/relasi4warna/internal/redis"
)

type RedisStreamConfig struct {
	RedisAddr     string
	RedisPassword string
	Stream        string
	Group         string
	ConsumerName  string
}

func NewRedisStreamConfig(redisAddr string, redisPassword string, stream string, group string, consumerName string) *RedisStreamConfig {
	return &RedisStreamConfig{
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		Stream:        stream,
		Group:         group,
		ConsumerName:  consumerName,
	}
}

// Connect dials the broker named by cfg.
func Connect(ctx context.Context, cfg *RedisStreamConfig) (*goredis.Client, error) {
	return redis.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
}
