package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"easymo/pkg/models"
)

const defaultPollWindow = 5 * time.Second

// RedisQueue is a list-backed queue on the shared cache client: LPUSH to
// enqueue, BRPOP to consume.
type RedisQueue struct {
	client *redis.Client
	name   string
	poll   time.Duration
}

func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{
		client: client,
		name:   name,
		poll:   defaultPollWindow,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, body).Err(); err != nil {
		return fmt.Errorf("redis LPUSH failed: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*models.Notification, error) {
	res, err := q.client.BRPop(ctx, q.poll, q.name).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis BRPOP failed: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, ErrMalformed
	}

	var n models.Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		return nil, ErrMalformed
	}
	return &n, nil
}

// Close is a no-op: the underlying client is owned by the bootstrap
// connector, not the queue.
func (q *RedisQueue) Close() error {
	return nil
}
