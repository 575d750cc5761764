package negotiation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/cbodonnell/wager/pkg/log"
)

// Registry owns the live sessions and indexes them by party.
//
// Lock order is session -> registry: a session deregisters itself while
// holding its own lock, so the registry never calls into a session while
// holding the registry lock.
type Registry struct {
	deps       *sessionDeps
	engagement EngagementChecker

	lock     sync.RWMutex
	sessions map[uuid.UUID]*Session
	byParty  map[string]*Session
}

// NewRegistryOptions contains options for creating a new Registry.
type NewRegistryOptions struct {
	// Clock drives countdown ticks and activity timestamps. Defaults to the wall clock.
	Clock      clock.Clock
	Rules      SelectionRules
	Balances   BalanceProvider
	Engagement EngagementChecker
	Settlement Settlement
	// Returner and Observer are optional.
	Returner StakeReturner
	Observer Observer
	Settings Settings
}

func NewRegistry(opts NewRegistryOptions) (*Registry, error) {
	if opts.Rules == nil {
		return nil, fmt.Errorf("selection rules are required")
	}
	if opts.Balances == nil {
		return nil, fmt.Errorf("balance provider is required")
	}
	if opts.Engagement == nil {
		return nil, fmt.Errorf("engagement checker is required")
	}
	if opts.Settlement == nil {
		return nil, fmt.Errorf("settlement is required")
	}

	r := &Registry{
		engagement: opts.Engagement,
		sessions:   make(map[uuid.UUID]*Session),
		byParty:    make(map[string]*Session),
	}
	r.deps = &sessionDeps{
		clock:      opts.Clock,
		rules:      opts.Rules,
		balances:   opts.Balances,
		settlement: opts.Settlement,
		returner:   opts.Returner,
		observer:   opts.Observer,
		events:     NewEventManager(),
		settings:   opts.Settings.withDefaults(),
		onTerminal: r.remove,
	}
	if r.deps.clock == nil {
		r.deps.clock = clock.New()
	}
	if r.deps.returner == nil {
		r.deps.returner = nopReturner{}
	}
	if r.deps.observer == nil {
		r.deps.observer = nopObserver{}
	}
	return r, nil
}

// Settings returns the settings applied to new sessions.
func (r *Registry) Settings() Settings {
	return r.deps.settings
}

// Subscribe registers a listener for snapshots of every session in the registry.
func (r *Registry) Subscribe(listener Listener) {
	r.deps.events.Subscribe(listener)
}

// CreateSession pairs idA with idB in a new session.
func (r *Registry) CreateSession(ctx context.Context, idA, idB string) (*Session, error) {
	if idA == "" || idB == "" || idA == idB {
		return nil, newError(CodeSelfPairing, "cannot pair %q with %q", idA, idB)
	}
	if err := r.checkUnpaired(idA, idB); err != nil {
		return nil, err
	}
	for _, id := range []string{idA, idB} {
		engaged, err := r.engagement.IsEngagedElsewhere(ctx, id)
		if err != nil {
			return nil, wrapError(CodeBusy, err, "failed to check engagement of %s", id)
		}
		if engaged {
			return nil, newError(CodeBusy, "party %s is engaged elsewhere", id)
		}
	}

	r.lock.Lock()
	// another pairing may have won while the engagement check ran
	if err := r.checkUnpairedLocked(idA, idB); err != nil {
		r.lock.Unlock()
		return nil, err
	}
	session := newSession(idA, idB, r.deps)
	r.sessions[session.id] = session
	r.byParty[idA] = session
	r.byParty[idB] = session
	r.lock.Unlock()

	log.Info("Session %s created between %s and %s", session.id, idA, idB)
	r.deps.observer.SessionCreated()
	session.publishCreated()
	return session, nil
}

func (r *Registry) checkUnpaired(ids ...string) error {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.checkUnpairedLocked(ids...)
}

func (r *Registry) checkUnpairedLocked(ids ...string) error {
	for _, id := range ids {
		if existing, ok := r.byParty[id]; ok {
			return newError(CodeAlreadyPaired, "party %s is already in session %s", id, existing.id)
		}
	}
	return nil
}

// SessionFor returns the live session that partyID belongs to.
func (r *Registry) SessionFor(partyID string) (*Session, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	session, ok := r.byParty[partyID]
	return session, ok
}

// Session returns the live session with the given id.
func (r *Registry) Session(id uuid.UUID) (*Session, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Sessions returns all live sessions.
func (r *Registry) Sessions() []*Session {
	r.lock.RLock()
	defer r.lock.RUnlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.sessions)
}

// RemoveSession deregisters session. A live session is cancelled first so
// that its stakes are returned. Removing twice is a no-op.
func (r *Registry) RemoveSession(session *Session) {
	session.abort(ReasonCancelled)
	r.remove(session)
}

func (r *Registry) remove(session *Session) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if current, ok := r.sessions[session.id]; ok && current == session {
		delete(r.sessions, session.id)
	}
	for _, id := range []string{session.a.id, session.b.id} {
		if current, ok := r.byParty[id]; ok && current == session {
			delete(r.byParty, id)
		}
	}
}

// Sweep aborts every session that has been idle longer than the expiry
// window at now and returns how many it aborted.
func (r *Registry) Sweep(now time.Time) int {
	swept := 0
	for _, session := range r.Sessions() {
		if session.Expire(now) {
			swept++
		}
	}
	return swept
}

// Disconnect aborts the session holding partyID because the party became
// unreachable. It returns true if a session was aborted.
func (r *Registry) Disconnect(partyID string) bool {
	session, ok := r.SessionFor(partyID)
	if !ok {
		return false
	}
	return session.Disconnect(partyID)
}

// Shutdown aborts every live session so that all stakes are returned.
func (r *Registry) Shutdown() {
	for _, session := range r.Sessions() {
		session.abort(ReasonShutdown)
	}
}
