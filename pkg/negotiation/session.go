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

// State is the lifecycle state of a session.
type State int

const (
	StateEditing State = iota
	StateArmed
	StateCountingDown
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateArmed:
		return "armed"
	case StateCountingDown:
		return "counting_down"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateAborted
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateEditing, StateArmed, StateCountingDown, StateCommitted, StateAborted} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session state: %s", text)
}

// Reason explains why a session was aborted.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonCancelled        Reason = "cancelled"
	ReasonExpired          Reason = "expired"
	ReasonDisconnected     Reason = "disconnected"
	ReasonSettlementFailed Reason = "settlement_failed"
	ReasonShutdown         Reason = "shutdown"
	ReasonInternal         Reason = "internal"
)

const (
	DefaultCountdownTicks    = 5
	DefaultTickInterval      = time.Second
	DefaultExpiryWindow      = 5 * time.Minute
	DefaultSettlementTimeout = 5 * time.Second
)

// Settings tunes every session created by a registry. Zero values fall back to defaults.
type Settings struct {
	Capacity          int
	CountdownTicks    int
	TickInterval      time.Duration
	ExpiryWindow      time.Duration
	SettlementTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Capacity:          DefaultCapacity,
		CountdownTicks:    DefaultCountdownTicks,
		TickInterval:      DefaultTickInterval,
		ExpiryWindow:      DefaultExpiryWindow,
		SettlementTimeout: DefaultSettlementTimeout,
	}
}

func (s Settings) withDefaults() Settings {
	defaults := DefaultSettings()
	if s.Capacity <= 0 {
		s.Capacity = defaults.Capacity
	}
	if s.CountdownTicks <= 0 {
		s.CountdownTicks = defaults.CountdownTicks
	}
	if s.TickInterval <= 0 {
		s.TickInterval = defaults.TickInterval
	}
	if s.ExpiryWindow <= 0 {
		s.ExpiryWindow = defaults.ExpiryWindow
	}
	if s.SettlementTimeout <= 0 {
		s.SettlementTimeout = defaults.SettlementTimeout
	}
	return s
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	SessionID      uuid.UUID     `json:"session_id"`
	Version        uint64        `json:"version"`
	State          State         `json:"state"`
	Reason         Reason        `json:"reason,omitempty"`
	Countdown      int           `json:"countdown"`
	Selection      Selection     `json:"selection"`
	PartyA         PartySnapshot `json:"party_a"`
	PartyB         PartySnapshot `json:"party_b"`
	CreatedAt      time.Time     `json:"created_at"`
	LastActivityAt time.Time     `json:"last_activity_at"`
}

// Party returns the side of the snapshot that belongs to partyID.
func (s Snapshot) Party(partyID string) (PartySnapshot, bool) {
	switch partyID {
	case s.PartyA.ID:
		return s.PartyA, true
	case s.PartyB.ID:
		return s.PartyB, true
	default:
		return PartySnapshot{}, false
	}
}

// sessionDeps are shared by all sessions of one registry.
type sessionDeps struct {
	clock      clock.Clock
	rules      SelectionRules
	balances   BalanceProvider
	settlement Settlement
	returner   StakeReturner
	observer   Observer
	events     *EventManager
	settings   Settings
	onTerminal func(*Session)
}

// Session is a bilateral negotiation between two parties. Every call, timer
// tick, sweep and disconnect goes through the session's single lock.
type Session struct {
	id   uuid.UUID
	deps *sessionDeps
	a, b *party

	lock           sync.Mutex
	selection      Selection
	state          State
	reason         Reason
	countdown      int
	generation     uint64
	timer          *clock.Timer
	createdAt      time.Time
	lastActivityAt time.Time
	version        uint64
	returned       bool
	settlementErr  error
}

func newSession(idA, idB string, deps *sessionDeps) *Session {
	now := deps.clock.Now()
	a, b := newPair(idA, idB, deps.settings.Capacity)
	return &Session{
		id:             uuid.New(),
		deps:           deps,
		a:              a,
		b:              b,
		state:          StateEditing,
		createdAt:      now,
		lastActivityAt: now,
		version:        1,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Parties returns the two party ids in creation order.
func (s *Session) Parties() (string, string) {
	return s.a.id, s.b.id
}

// Has reports whether partyID is one of the two parties.
func (s *Session) Has(partyID string) bool {
	return s.party(partyID) != nil
}

// party ids never change after creation, so this needs no lock
func (s *Session) party(partyID string) *party {
	switch partyID {
	case s.a.id:
		return s.a
	case s.b.id:
		return s.b
	default:
		return nil
	}
}

func (s *Session) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.snapshotLocked()
}

// Err returns the settlement error that aborted the session, if any.
func (s *Session) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.settlementErr
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:      s.id,
		Version:        s.version,
		State:          s.state,
		Reason:         s.reason,
		Countdown:      s.countdown,
		Selection:      s.selection,
		PartyA:         s.a.snapshot(),
		PartyB:         s.b.snapshot(),
		CreatedAt:      s.createdAt,
		LastActivityAt: s.lastActivityAt,
	}
}

// AddItem appends item to the party's stake.
func (s *Session) AddItem(partyID string, item Item) error {
	return s.apply(partyID, func(p *party) (effect, error) {
		if err := p.ledger.checkAdd(item); err != nil {
			return nil, err
		}
		return func() {
			p.ledger.add(item)
			p.confirmed = false
		}, nil
	})
}

// RemoveItem removes and returns the item at index in the party's stake.
func (s *Session) RemoveItem(partyID string, index int) (Item, error) {
	var removed Item
	err := s.apply(partyID, func(p *party) (effect, error) {
		if err := p.ledger.checkIndex(index); err != nil {
			return nil, err
		}
		return func() {
			removed = p.ledger.remove(index)
			p.confirmed = false
		}, nil
	})
	return removed, err
}

// SetCurrency sets the party's currency stake. The balance is read once,
// before the session lock is taken, and is not reserved. Setting the
// amount already staked changes nothing and leaves a countdown running.
func (s *Session) SetCurrency(ctx context.Context, partyID string, amount int64) error {
	var balance int64
	var balanceErr error
	if amount > 0 && s.Has(partyID) {
		balance, balanceErr = s.deps.balances.Balance(ctx, partyID)
	}

	return s.apply(partyID, func(p *party) (effect, error) {
		if amount < 0 {
			return nil, newError(CodeNegativeAmount, "amount must not be negative, got %d", amount)
		}
		if p.ledger.stake.Currency == amount {
			return nil, nil
		}
		if amount > 0 {
			if balanceErr != nil {
				return nil, wrapError(CodeBalanceUnavailable, balanceErr, "failed to read balance of %s", partyID)
			}
			if balance < amount {
				return nil, newError(CodeInsufficientFunds, "balance %d is below requested stake %d", balance, amount)
			}
		}
		return func() {
			p.ledger.setCurrency(amount)
			p.confirmed = false
		}, nil
	})
}

// SetArena chooses the arena. A kit the new arena does not allow is cleared.
// Choosing the current arena again is a no-op and leaves a countdown running.
func (s *Session) SetArena(partyID string, arena string) error {
	return s.apply(partyID, func(p *party) (effect, error) {
		if err := checkArena(s.deps.rules, arena); err != nil {
			return nil, err
		}
		if s.selection.Arena == arena {
			return nil, nil
		}
		return func() {
			s.selection = s.selection.withArena(s.deps.rules, arena)
			s.clearConfirmations()
		}, nil
	})
}

// SetKit chooses the kit. An arena must already be chosen. Choosing the
// current kit again is a no-op and leaves a countdown running.
func (s *Session) SetKit(partyID string, kit string) error {
	return s.apply(partyID, func(p *party) (effect, error) {
		if err := checkKit(s.deps.rules, s.selection, kit); err != nil {
			return nil, err
		}
		if s.selection.Kit == kit {
			return nil, nil
		}
		return func() {
			s.selection.Kit = kit
			s.clearConfirmations()
		}, nil
	})
}

// Confirm marks the party as ready. When both parties are confirmed the
// countdown starts. Confirming twice is a no-op.
func (s *Session) Confirm(partyID string) error {
	return s.apply(partyID, func(p *party) (effect, error) {
		if !s.selection.Complete() {
			return nil, newError(CodeIncompleteSelection, "arena and kit must be chosen before confirming")
		}
		if p.confirmed {
			return nil, nil
		}
		return func() {
			p.confirmed = true
		}, nil
	})
}

// WithdrawConfirm clears the party's confirmation.
func (s *Session) WithdrawConfirm(partyID string) error {
	return s.apply(partyID, func(p *party) (effect, error) {
		if !p.confirmed {
			return nil, nil
		}
		return func() {
			p.confirmed = false
		}, nil
	})
}

// Cancel aborts the session on behalf of partyID and returns both stakes.
// Cancelling an aborted session is a no-op.
func (s *Session) Cancel(partyID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.Has(partyID) {
		return s.notFound(partyID)
	}
	switch s.state {
	case StateAborted:
		return nil
	case StateCommitted:
		return s.alreadyTerminal()
	}
	s.abortLocked(ReasonCancelled)
	return nil
}

// Disconnect aborts the session because partyID became unreachable. It
// returns true if this call ended the session.
func (s *Session) Disconnect(partyID string) bool {
	if !s.Has(partyID) {
		return false
	}
	return s.abort(ReasonDisconnected)
}

// Expire aborts the session if its last accepted mutation is older than
// the expiry window at now. It returns true if this call ended the session.
func (s *Session) Expire(now time.Time) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state.IsTerminal() {
		return false
	}
	if !s.lastActivityAt.Before(now.Add(-s.deps.settings.ExpiryWindow)) {
		return false
	}
	s.abortLocked(ReasonExpired)
	return true
}

func (s *Session) abort(reason Reason) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state.IsTerminal() {
		return false
	}
	s.abortLocked(reason)
	return true
}

// effect is an accepted change. A nil effect means the call changes nothing.
type effect func()

// apply is the transition function for party-initiated mutations. check
// validates against the current state and returns the change to make.
// An accepted change during a countdown first reverts to editing and
// clears both confirmations.
func (s *Session) apply(partyID string, check func(p *party) (effect, error)) (err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	defer s.recoverInternal(&err)

	if s.state.IsTerminal() {
		return s.alreadyTerminal()
	}
	p := s.party(partyID)
	if p == nil {
		return s.notFound(partyID)
	}

	fx, err := check(p)
	if err != nil {
		s.deps.observer.MutationRejected(CodeOf(err))
		return err
	}
	if fx == nil {
		return nil
	}

	if s.interruptCountdown() {
		log.Debug("Session %s countdown cancelled by %s", s.id, partyID)
	}
	fx()
	s.lastActivityAt = s.deps.clock.Now()
	s.evaluate()
	s.changed()
	return nil
}

// evaluate arms the session and starts the countdown once both parties
// have confirmed a complete selection.
func (s *Session) evaluate() {
	if s.state != StateEditing {
		return
	}
	if !s.a.confirmed || !s.a.counterpart.confirmed {
		return
	}
	if !s.selection.Complete() {
		s.clearConfirmations()
		return
	}
	s.state = StateArmed
	s.startCountdown()
}

func (s *Session) startCountdown() {
	s.state = StateCountingDown
	s.countdown = s.deps.settings.CountdownTicks
	s.generation++
	s.scheduleTick()
	log.Debug("Session %s countdown started at %d", s.id, s.countdown)
}

func (s *Session) scheduleTick() {
	generation := s.generation
	s.timer = s.deps.clock.AfterFunc(s.deps.settings.TickInterval, func() {
		s.tick(generation)
	})
}

// tick advances the countdown scheduled under generation. A tick that
// lost a race with a cancellation finds a newer generation and does nothing.
func (s *Session) tick(generation uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	defer s.recoverInternal(nil)

	if s.state != StateCountingDown || generation != s.generation {
		return
	}
	s.countdown--
	if s.countdown > 0 {
		s.scheduleTick()
		s.changed()
		return
	}
	s.settle()
}

// interruptCountdown reverts a pending commit to editing.
func (s *Session) interruptCountdown() bool {
	if s.state != StateCountingDown && s.state != StateArmed {
		return false
	}
	s.stopCountdown()
	s.state = StateEditing
	s.clearConfirmations()
	return true
}

func (s *Session) stopCountdown() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
	s.countdown = 0
}

func (s *Session) clearConfirmations() {
	s.a.confirmed = false
	s.b.confirmed = false
}

func (s *Session) settle() {
	s.stopCountdown()
	deal := s.deal()
	if err := s.runSettlement(deal); err != nil {
		s.settlementErr = err
		log.Error("Session %s settlement failed, returning stakes: %v", s.id, err)
		s.abortLocked(ReasonSettlementFailed)
		return
	}
	s.state = StateCommitted
	log.Info("Session %s committed between %s and %s", s.id, s.a.id, s.b.id)
	s.finish()
}

func (s *Session) runSettlement(deal Deal) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = wrapError(CodeSettlementFailed, fmt.Errorf("panic: %v", r), "settlement of session %s failed", s.id)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.settings.SettlementTimeout)
	defer cancel()
	if err := s.deps.settlement.Settle(ctx, deal); err != nil {
		return wrapError(CodeSettlementFailed, err, "settlement of session %s failed", s.id)
	}
	return nil
}

func (s *Session) deal() Deal {
	return Deal{
		SessionID: s.id,
		PartyA:    s.a.id,
		StakeA:    s.a.ledger.stake.Clone(),
		PartyB:    s.b.id,
		StakeB:    s.b.ledger.stake.Clone(),
		Selection: s.selection,
	}
}

func (s *Session) abortLocked(reason Reason) {
	s.stopCountdown()
	s.state = StateAborted
	s.reason = reason
	s.clearConfirmations()
	s.returnStakes()
	log.Info("Session %s aborted: %s", s.id, reason)
	s.finish()
}

func (s *Session) returnStakes() {
	if s.returned {
		return
	}
	s.returned = true
	for _, p := range []*party{s.a, s.b} {
		s.returnStake(p.id, p.ledger.drain())
	}
}

func (s *Session) returnStake(partyID string, stake Stake) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Session %s failed to return stake to %s: %v", s.id, partyID, r)
		}
	}()
	s.deps.returner.ReturnStake(partyID, stake)
}

func (s *Session) finish() {
	s.changed()
	s.deps.observer.SessionFinished(s.state, s.reason)
	if s.deps.onTerminal != nil {
		s.deps.onTerminal(s)
	}
}

// changed bumps the version and publishes the new snapshot.
func (s *Session) changed() {
	s.version++
	s.deps.events.publish(s.snapshotLocked())
}

// publishCreated emits the initial snapshot.
func (s *Session) publishCreated() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state.IsTerminal() {
		return
	}
	s.deps.events.publish(s.snapshotLocked())
}

// recoverInternal turns a panic inside the transition function into an
// abort with both stakes returned.
func (s *Session) recoverInternal(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	log.Error("Session %s recovered from internal error: %v", s.id, r)
	if !s.state.IsTerminal() {
		s.abortLocked(ReasonInternal)
	}
	if errp != nil {
		*errp = newError(CodeInternal, "session %s aborted after an internal error", s.id)
	}
}

func (s *Session) notFound(partyID string) error {
	return newError(CodeNotFound, "party %s is not in session %s", partyID, s.id)
}

func (s *Session) alreadyTerminal() error {
	return newError(CodeAlreadyTerminal, "session %s is already %s", s.id, s.state)
}
