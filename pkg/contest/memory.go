package contest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type InMemoryTracker struct {
	clock   clock.Clock
	lock    sync.RWMutex
	engaged map[string]time.Time
}

func NewInMemoryTracker(clk clock.Clock) *InMemoryTracker {
	if clk == nil {
		clk = clock.New()
	}
	return &InMemoryTracker{
		clock:   clk,
		engaged: make(map[string]time.Time),
	}
}

func (t *InMemoryTracker) Engage(ctx context.Context, ids ...string) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("party id is required")
		}
	}
	now := t.clock.Now()
	for _, id := range ids {
		t.engaged[id] = now
	}
	return nil
}

func (t *InMemoryTracker) Release(ctx context.Context, id string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	delete(t.engaged, id)
	return nil
}

func (t *InMemoryTracker) IsEngagedElsewhere(ctx context.Context, id string) (bool, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	_, ok := t.engaged[id]
	return ok, nil
}

// EngagedSince returns when id was engaged.
func (t *InMemoryTracker) EngagedSince(id string) (time.Time, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	since, ok := t.engaged[id]
	return since, ok
}

// Engaged returns the engaged party ids in sorted order.
func (t *InMemoryTracker) Engaged() []string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	ids := make([]string, 0, len(t.engaged))
	for id := range t.engaged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
