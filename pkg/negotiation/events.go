package negotiation

import (
	"sync"

	"github.com/cbodonnell/wager/pkg/log"
)

// Listener receives a snapshot after every observable change to a session.
// Listeners run synchronously under the session lock, in the order the
// changes happened. They must not block and must not call back into the session.
type Listener func(snapshot Snapshot)

// EventManager fans session snapshots out to listeners.
type EventManager struct {
	lock      sync.RWMutex
	listeners []Listener
}

func NewEventManager() *EventManager {
	return &EventManager{}
}

// Subscribe registers a listener for all sessions.
func (em *EventManager) Subscribe(listener Listener) {
	em.lock.Lock()
	defer em.lock.Unlock()
	em.listeners = append(em.listeners, listener)
}

func (em *EventManager) publish(snapshot Snapshot) {
	em.lock.RLock()
	listeners := em.listeners
	em.lock.RUnlock()
	for _, listener := range listeners {
		em.notify(listener, snapshot)
	}
}

func (em *EventManager) notify(listener Listener, snapshot Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Session %s listener panicked: %v", snapshot.SessionID, r)
		}
	}()
	listener(snapshot)
}
