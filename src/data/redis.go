package data

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const eventStream = "courtbot.events"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// PublishEvent appends a workflow event to the courtbot stream. Consumers are
// optional; callers treat failures as best-effort.
func PublishEvent(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStream,
		Values: payload,
	}).Result()
	return err
}
