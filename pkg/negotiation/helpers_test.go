package negotiation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/cbodonnell/wager/pkg/negotiation"
)

type testRules map[string][]string

func (r testRules) ValidArena(arena string) bool {
	_, ok := r[arena]
	return ok
}

func (r testRules) ValidKit(arena, kit string) bool {
	for _, allowed := range r[arena] {
		if allowed == kit {
			return true
		}
	}
	return false
}

var rules = testRules{
	"colosseum": {"iron", "diamond"},
	"pit":       {"iron", "bare"},
}

type staticBalances map[string]int64

func (b staticBalances) Balance(_ context.Context, partyID string) (int64, error) {
	return b[partyID], nil
}

type noEngagement struct{}

func (noEngagement) IsEngagedElsewhere(context.Context, string) (bool, error) {
	return false, nil
}

type recordingReturner struct {
	lock     sync.Mutex
	returned map[string][]negotiation.Stake
}

func (r *recordingReturner) ReturnStake(partyID string, stake negotiation.Stake) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.returned == nil {
		r.returned = make(map[string][]negotiation.Stake)
	}
	r.returned[partyID] = append(r.returned[partyID], stake)
}

func (r *recordingReturner) Returned(partyID string) []negotiation.Stake {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]negotiation.Stake(nil), r.returned[partyID]...)
}

type recordingSettlement struct {
	lock  sync.Mutex
	deals []negotiation.Deal
	err   error
}

func (s *recordingSettlement) Settle(_ context.Context, deal negotiation.Deal) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.deals = append(s.deals, deal)
	return s.err
}

func (s *recordingSettlement) Deals() []negotiation.Deal {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]negotiation.Deal(nil), s.deals...)
}

type snapshotRecorder struct {
	lock      sync.Mutex
	snapshots []negotiation.Snapshot
}

func (r *snapshotRecorder) record(snapshot negotiation.Snapshot) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func (r *snapshotRecorder) All() []negotiation.Snapshot {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]negotiation.Snapshot(nil), r.snapshots...)
}

type harness struct {
	clock      *clock.Mock
	registry   *negotiation.Registry
	returner   *recordingReturner
	settlement *recordingSettlement
	snapshots  *snapshotRecorder
}

func newHarnessWith(opts negotiation.NewRegistryOptions) *harness {
	h := &harness{
		clock:      clock.NewMock(),
		returner:   &recordingReturner{},
		settlement: &recordingSettlement{},
		snapshots:  &snapshotRecorder{},
	}
	opts.Clock = h.clock
	if opts.Rules == nil {
		opts.Rules = rules
	}
	if opts.Balances == nil {
		opts.Balances = staticBalances{"alice": 100, "bob": 100}
	}
	if opts.Engagement == nil {
		opts.Engagement = noEngagement{}
	}
	if opts.Settlement == nil {
		opts.Settlement = h.settlement
	}
	if opts.Returner == nil {
		opts.Returner = h.returner
	}
	registry, err := negotiation.NewRegistry(opts)
	if err != nil {
		panic(err)
	}
	registry.Subscribe(h.snapshots.record)
	h.registry = registry
	return h
}

func newHarness() *harness {
	return newHarnessWith(negotiation.NewRegistryOptions{})
}

func (h *harness) pair(t *testing.T) *negotiation.Session {
	t.Helper()
	session, err := h.registry.CreateSession(context.Background(), "alice", "bob")
	require.NoError(t, err)
	return session
}

// armed returns a session that is counting down with a complete selection.
func (h *harness) armed(t *testing.T) *negotiation.Session {
	t.Helper()
	session := h.pair(t)
	require.NoError(t, session.SetArena("alice", "colosseum"))
	require.NoError(t, session.SetKit("bob", "iron"))
	require.NoError(t, session.Confirm("alice"))
	require.NoError(t, session.Confirm("bob"))
	require.Equal(t, negotiation.StateCountingDown, session.Snapshot().State)
	return session
}

func item(id string) negotiation.Item {
	return negotiation.Item{ID: id, Name: id, Quantity: 1}
}
