package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbodonnell/wager/pkg/negotiation"
)

var _ Sweeper = (*negotiation.Registry)(nil)

type recordingSweeper struct {
	lock  sync.Mutex
	calls []time.Time
}

func (s *recordingSweeper) Sweep(now time.Time) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls = append(s.calls, now)
	return 1
}

func (s *recordingSweeper) Calls() []time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]time.Time(nil), s.calls...)
}

func TestSweepWorker(t *testing.T) {
	mock := clock.NewMock()
	sweeper := &recordingSweeper{}
	worker := NewSweepWorker(NewSweepWorkerOptions{
		Sweeper:  sweeper,
		Clock:    mock,
		Interval: 30 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		mock.Add(30 * time.Second)
		return len(sweeper.Calls()) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	calls := sweeper.Calls()
	assert.True(t, calls[1].After(calls[0]))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
