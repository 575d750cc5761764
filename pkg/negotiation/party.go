package negotiation

// party is one side of a session. All access happens under the session lock.
type party struct {
	id          string
	ledger      ledger
	confirmed   bool
	counterpart *party
}

func newPair(idA, idB string, capacity int) (*party, *party) {
	a := &party{id: idA, ledger: newLedger(capacity)}
	b := &party{id: idB, ledger: newLedger(capacity)}
	a.counterpart = b
	b.counterpart = a
	return a, b
}

func (p *party) snapshot() PartySnapshot {
	return PartySnapshot{
		ID:        p.id,
		Stake:     p.ledger.stake.Clone(),
		Confirmed: p.confirmed,
	}
}

// PartySnapshot is a point-in-time copy of one party's side of a session.
type PartySnapshot struct {
	ID        string `json:"id"`
	Stake     Stake  `json:"stake"`
	Confirmed bool   `json:"confirmed"`
}
