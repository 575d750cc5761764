// Package contest tracks which parties are currently fighting out a
// settled wager.
package contest

import (
	"context"
)

// Tracker provides shared access to the set of engaged parties.
// Implementations must be thread-safe.
type Tracker interface {
	// Engage marks every id as taking part in a contest.
	Engage(ctx context.Context, ids ...string) error
	// Release marks id as free again. Releasing a free party is a no-op.
	Release(ctx context.Context, id string) error
	// IsEngagedElsewhere reports whether id is in a contest.
	IsEngagedElsewhere(ctx context.Context, id string) (bool, error)
}
