// Package settlement executes committed wagers against the wallet store.
package settlement

import (
	"context"
	"fmt"

	"github.com/cbodonnell/wager/pkg/contest"
	"github.com/cbodonnell/wager/pkg/log"
	"github.com/cbodonnell/wager/pkg/negotiation"
)

// Debiter removes currency from several wallets in one transaction.
type Debiter interface {
	Debit(ctx context.Context, debits map[string]int64) error
}

// Settler moves both parties into a contest and debits their currency
// stakes. Either both happen or neither does.
type Settler struct {
	debiter Debiter
	tracker contest.Tracker
}

// NewSettlerOptions contains options for creating a new Settler.
type NewSettlerOptions struct {
	Debiter Debiter
	Tracker contest.Tracker
}

func NewSettler(opts NewSettlerOptions) *Settler {
	return &Settler{
		debiter: opts.Debiter,
		tracker: opts.Tracker,
	}
}

func (s *Settler) Settle(ctx context.Context, deal negotiation.Deal) error {
	if err := s.tracker.Engage(ctx, deal.PartyA, deal.PartyB); err != nil {
		return fmt.Errorf("failed to engage parties: %w", err)
	}

	debits := map[string]int64{
		deal.PartyA: deal.StakeA.Currency,
		deal.PartyB: deal.StakeB.Currency,
	}
	if err := s.debiter.Debit(ctx, debits); err != nil {
		s.release(deal.PartyA, deal.PartyB)
		return fmt.Errorf("failed to debit stakes: %w", err)
	}

	log.Info("Session %s settled: %s staked %d items and %d, %s staked %d items and %d in %s/%s",
		deal.SessionID,
		deal.PartyA, len(deal.StakeA.Items), deal.StakeA.Currency,
		deal.PartyB, len(deal.StakeB.Items), deal.StakeB.Currency,
		deal.Selection.Arena, deal.Selection.Kit,
	)
	return nil
}

// release runs on a fresh context because ctx may be the one that expired.
func (s *Settler) release(ids ...string) {
	for _, id := range ids {
		if err := s.tracker.Release(context.Background(), id); err != nil {
			log.Error("Failed to release %s after a failed settlement: %v", id, err)
		}
	}
}
