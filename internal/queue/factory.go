package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"easymo/internal/config"
)

func New(cfg config.QueueConfig, redisClient *redis.Client) (Queue, error) {
	switch cfg.Type {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis queue requires a connected redis client")
		}
		return NewRedisQueue(redisClient, cfg.Name), nil
	case "kafka":
		return NewKafkaQueue(cfg.Kafka, cfg.Name), nil
	default:
		return nil, fmt.Errorf("unknown queue type: %s", cfg.Type)
	}
}
