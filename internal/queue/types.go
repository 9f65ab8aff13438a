package queue

import (
	"context"
	"errors"

	"easymo/pkg/models"
)

// ErrMalformed marks a queue entry that could not be decoded. The entry is
// already consumed; the caller should count it failed and move on rather
// than back off.
var ErrMalformed = errors.New("queue: malformed notification")

// Queue is the worker's subscription to outbound notifications. Dequeue
// blocks up to the implementation's poll window and returns (nil, nil)
// when nothing arrived, so the caller can check for shutdown between
// polls.
type Queue interface {
	Enqueue(ctx context.Context, n models.Notification) error
	Dequeue(ctx context.Context) (*models.Notification, error)
	Close() error
}
