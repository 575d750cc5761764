package negotiation

import (
	"context"

	"github.com/google/uuid"
)

// BalanceProvider reports how much currency a party can put at stake.
type BalanceProvider interface {
	Balance(ctx context.Context, partyID string) (int64, error)
}

// EngagementChecker reports whether a party is already busy with something
// that should prevent a new session, such as a running contest.
type EngagementChecker interface {
	IsEngagedElsewhere(ctx context.Context, partyID string) (bool, error)
}

// Settlement receives the final terms of a committed session. A returned
// error aborts the session and returns both stakes.
//
// Settle runs under the session lock. It must not call back into the
// session, and it must return once ctx is done: the registry's sweep and
// shutdown wait on the same lock.
type Settlement interface {
	Settle(ctx context.Context, deal Deal) error
}

// StakeReturner gives a party back its stake after an abort. It is called
// exactly once per party per aborted session.
type StakeReturner interface {
	ReturnStake(partyID string, stake Stake)
}

// StakeReturnerFunc adapts a function to a StakeReturner.
type StakeReturnerFunc func(partyID string, stake Stake)

func (f StakeReturnerFunc) ReturnStake(partyID string, stake Stake) {
	f(partyID, stake)
}

// Observer is notified of lifecycle events, typically for metrics.
type Observer interface {
	SessionCreated()
	SessionFinished(state State, reason Reason)
	MutationRejected(code Code)
}

// Deal is the set of terms handed to Settlement on commit.
type Deal struct {
	SessionID uuid.UUID `json:"session_id"`
	PartyA    string    `json:"party_a"`
	StakeA    Stake     `json:"stake_a"`
	PartyB    string    `json:"party_b"`
	StakeB    Stake     `json:"stake_b"`
	Selection Selection `json:"selection"`
}

type nopReturner struct{}

func (nopReturner) ReturnStake(string, Stake) {}

type nopObserver struct{}

func (nopObserver) SessionCreated()               {}
func (nopObserver) SessionFinished(State, Reason) {}
func (nopObserver) MutationRejected(Code)         {}
