package repositories

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"sort"
	"strings"
)

//go:embed migrations
var migrations embed.FS

// Repository stores the currency balance of every party.
type Repository interface {
	Close(ctx context.Context) error
	// Balance returns the party's balance, or 0 if the party has no wallet.
	Balance(ctx context.Context, partyID string) (int64, error)
	// Credit adds amount to the party's wallet, creating it if needed.
	Credit(ctx context.Context, partyID string, amount int64) error
	// Debit subtracts every amount in one transaction. Nothing is debited
	// if any wallet would go negative.
	Debit(ctx context.Context, debits map[string]int64) error
}

// New opens the repository named by a connection URL. sqlite://<path>
// opens a SQLite file and postgresql:// or postgres:// connects to Postgres.
func New(ctx context.Context, connStr string) (Repository, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	switch u.Scheme {
	case "sqlite":
		return NewSQLiteRepository(ctx, strings.TrimPrefix(connStr, "sqlite://"))
	case "postgresql", "postgres":
		return NewPostgresRepository(ctx, connStr)
	default:
		return nil, fmt.Errorf("unknown database type %s", u.Scheme)
	}
}

// readMigrations returns the migration scripts for dialect in file name order.
func readMigrations(dialect string) ([]string, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		migration, err := fs.ReadFile(migrations, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		scripts = append(scripts, string(migration))
	}
	return scripts, nil
}

// debitOrder returns the party ids of debits in a stable order so that
// concurrent transactions lock wallet rows in the same sequence.
func debitOrder(debits map[string]int64) ([]string, error) {
	ids := make([]string, 0, len(debits))
	for id, amount := range debits {
		if amount < 0 {
			return nil, fmt.Errorf("debit of %d from %s is negative", amount, id)
		}
		if amount == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func checkCredit(partyID string, amount int64) error {
	if partyID == "" {
		return fmt.Errorf("party id is required")
	}
	if amount < 0 {
		return fmt.Errorf("credit of %d to %s is negative", amount, partyID)
	}
	return nil
}
