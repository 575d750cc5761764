package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbodonnell/wager/pkg/log"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to Postgres and applies the migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %w", err)
	}
	log.Info("Connected to %s as %s", database, username)

	scripts, err := readMigrations("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	for i, migration := range scripts {
		if _, err := pool.Exec(ctx, migration); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Balance(ctx context.Context, partyID string) (int64, error) {
	q := `
	SELECT balance FROM wallets WHERE party_id = $1;
	`
	var balance int64
	if err := r.pool.QueryRow(ctx, q, partyID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan wallet: %w", err)
	}
	return balance, nil
}

func (r *PostgresRepository) Credit(ctx context.Context, partyID string, amount int64) error {
	if err := checkCredit(partyID, amount); err != nil {
		return err
	}
	q := `
	INSERT INTO wallets (party_id, balance, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (party_id) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = now();
	`
	if _, err := r.pool.Exec(ctx, q, partyID, amount); err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Debit(ctx context.Context, debits map[string]int64) error {
	ids, err := debitOrder(debits)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range ids {
		q := `
		UPDATE wallets SET balance = balance - $1, updated_at = now()
		WHERE party_id = $2 AND balance >= $1;
		`
		tag, err := tx.Exec(ctx, q, debits[id], id)
		if err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return r.debitFailure(ctx, tx, id, debits[id])
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) debitFailure(ctx context.Context, tx pgx.Tx, partyID string, amount int64) error {
	var exists bool
	q := `
	SELECT EXISTS (SELECT 1 FROM wallets WHERE party_id = $1);
	`
	if err := tx.QueryRow(ctx, q, partyID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to scan wallet: %w", err)
	}
	if !exists {
		return &ErrNotFound{PartyID: partyID}
	}
	return &ErrInsufficientBalance{PartyID: partyID, Amount: amount}
}
