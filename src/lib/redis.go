package lib

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetRedisClient returns nil when no host is configured or the server is
// unreachable; callers treat a nil client as "feature off".
func GetRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("Error parsing redis url: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Error connecting to redis: %s\n", err.Error())
		rdb.Close()
		return nil
	}
	return rdb
}
