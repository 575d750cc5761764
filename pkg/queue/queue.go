package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by Enqueue when the queue has no room left.
var ErrQueueFull = errors.New("queue is full")

// Queue represents a bounded FIFO queue. Enqueue never blocks.
type Queue[T any] interface {
	Enqueue(item T) error
	Dequeue(ctx context.Context) (T, error)
	Size() int
	ReadAllMessages() []T
	ClearQueue()
}
