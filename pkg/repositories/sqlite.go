package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between concurrent debits
	db.SetMaxOpenConns(1)

	scripts, err := readMigrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for i, migration := range scripts {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) Balance(ctx context.Context, partyID string) (int64, error) {
	q := `
	SELECT balance FROM wallets WHERE party_id = ?;
	`
	var balance int64
	if err := r.db.QueryRowContext(ctx, q, partyID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan wallet: %w", err)
	}
	return balance, nil
}

func (r *SQLiteRepository) Credit(ctx context.Context, partyID string, amount int64) error {
	if err := checkCredit(partyID, amount); err != nil {
		return err
	}
	q := `
	INSERT INTO wallets (party_id, balance, updated_at) VALUES (?, ?, ?)
	ON CONFLICT (party_id) DO UPDATE SET balance = balance + excluded.balance, updated_at = excluded.updated_at;
	`
	if _, err := r.db.ExecContext(ctx, q, partyID, amount, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Debit(ctx context.Context, debits map[string]int64) error {
	ids, err := debitOrder(debits)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for _, id := range ids {
		q := `
		UPDATE wallets SET balance = balance - ?, updated_at = ?
		WHERE party_id = ? AND balance >= ?;
		`
		result, err := tx.ExecContext(ctx, q, debits[id], now, id, debits[id])
		if err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		if affected == 0 {
			return r.debitFailure(ctx, tx, id, debits[id])
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) debitFailure(ctx context.Context, tx *sql.Tx, partyID string, amount int64) error {
	var exists bool
	q := `
	SELECT EXISTS (SELECT 1 FROM wallets WHERE party_id = ?);
	`
	if err := tx.QueryRowContext(ctx, q, partyID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to scan wallet: %w", err)
	}
	if !exists {
		return &ErrNotFound{PartyID: partyID}
	}
	return &ErrInsufficientBalance{PartyID: partyID, Amount: amount}
}
