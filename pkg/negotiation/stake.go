package negotiation

// DefaultCapacity is the number of item slots in a stake.
const DefaultCapacity = 12

// Item is a discrete thing a party puts at stake. The core never looks
// inside an item beyond validating it.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

func (i Item) validate() error {
	if i.ID == "" {
		return newError(CodeInvalidItem, "item id is required")
	}
	if i.Quantity < 1 {
		return newError(CodeInvalidItem, "item %s quantity must be positive, got %d", i.ID, i.Quantity)
	}
	return nil
}

// Stake is what one party offers: an ordered list of items and an amount of currency.
type Stake struct {
	Items    []Item `json:"items,omitempty"`
	Currency int64  `json:"currency"`
}

// Clone returns a deep copy. An empty item list is always nil in the copy.
func (s Stake) Clone() Stake {
	clone := Stake{Currency: s.Currency}
	if len(s.Items) > 0 {
		clone.Items = make([]Item, len(s.Items))
		copy(clone.Items, s.Items)
	}
	return clone
}

// IsEmpty reports whether the stake holds neither items nor currency.
func (s Stake) IsEmpty() bool {
	return len(s.Items) == 0 && s.Currency == 0
}

// ledger is the mutable stake of one party. Every method assumes the
// owning session's lock is held.
type ledger struct {
	capacity int
	stake    Stake
}

func newLedger(capacity int) ledger {
	return ledger{capacity: capacity}
}

func (l *ledger) len() int {
	return len(l.stake.Items)
}

func (l *ledger) checkAdd(item Item) error {
	if err := item.validate(); err != nil {
		return err
	}
	if l.len() >= l.capacity {
		return newError(CodeCapacityExceeded, "stake is at capacity (%d items)", l.capacity)
	}
	return nil
}

func (l *ledger) add(item Item) {
	l.stake.Items = append(l.stake.Items, item)
}

func (l *ledger) checkIndex(index int) error {
	if index < 0 || index >= l.len() {
		return newError(CodeIndexOutOfRange, "index %d out of range [0, %d)", index, l.len())
	}
	return nil
}

func (l *ledger) remove(index int) Item {
	item := l.stake.Items[index]
	l.stake.Items = append(l.stake.Items[:index:index], l.stake.Items[index+1:]...)
	return item
}

func (l *ledger) setCurrency(amount int64) {
	l.stake.Currency = amount
}

// drain empties the ledger and returns what it held.
func (l *ledger) drain() Stake {
	stake := l.stake.Clone()
	l.stake = Stake{}
	return stake
}
