package db

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// ConnectRedis accepts either a redis:// URL or a bare host:port.
func ConnectRedis(ctx context.Context, redisURL string) error {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	Redis = redis.NewClient(opt)

	return Redis.Ping(ctx).Err()
}

func CloseRedis() {
	if Redis != nil {
		Redis.Close()
	}
}
