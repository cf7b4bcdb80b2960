package redis

import (
	"context"
	"log"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/config"

	"github.com/redis/go-redis/v9"
)

// Connect returns a Redis client, or nil when no address is configured.
// Callers treat a nil client as "caching disabled".
func Connect(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, caching is disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Error connecting to Redis: %s", err)
	} else {
		log.Println("Successfully connected to Redis")
	}

	return client
}
