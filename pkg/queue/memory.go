// queue package

package queue

import (
	"context"
	"fmt"
)

// InMemoryQueue implements a bounded in-memory queue. It is safe for one or
// more producers and consumers.
type InMemoryQueue[T any] struct {
	ch chan T
}

// NewInMemoryQueue creates a new queue that holds at most size items.
func NewInMemoryQueue[T any](size int) *InMemoryQueue[T] {
	return &InMemoryQueue[T]{
		ch: make(chan T, size),
	}
}

// Enqueue adds an item to the end of the queue, or returns ErrQueueFull.
func (q *InMemoryQueue[T]) Enqueue(item T) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return fmt.Errorf("%w: %d items", ErrQueueFull, cap(q.ch))
	}
}

// Dequeue removes and returns the item from the front of the queue. It
// blocks until an item is available or ctx is done.
func (q *InMemoryQueue[T]) Dequeue(ctx context.Context) (T, error) {
	select {
	case item := <-q.ch:
		return item, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue[T]) Size() int {
	return len(q.ch)
}

// ReadAllMessages reads all pending messages in the queue
func (q *InMemoryQueue[T]) ReadAllMessages() []T {
	var messages []T
	for {
		select {
		case item := <-q.ch:
			messages = append(messages, item)
		default:
			return messages
		}
	}
}

// ClearQueue clears all messages from the queue.
func (q *InMemoryQueue[T]) ClearQueue() {
	q.ReadAllMessages()
}
