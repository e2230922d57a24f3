package rdx

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

func RdxSet(key, value string, ttl time.Duration) error {
	return Conn.Set(context.Background(), key, value, ttl).Err()
}

func RdxGet(key string) (string, error) {
	return Conn.Get(context.Background(), key).Result()
}

func RdxDel(key string) error {
	return Conn.Del(context.Background(), key).Err()
}

func RdxSetNX(key, value string, ttl time.Duration) (bool, error) {
	return Conn.SetNX(context.Background(), key, value, ttl).Result()
}
