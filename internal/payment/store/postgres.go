package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"verigate/internal/payment"
	dErrors "verigate/pkg/domain-errors"
	txcontext "verigate/pkg/platform/tx"
)

// PostgresStore persists payment transactions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed transaction store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer joins a caller-supplied transaction when one is on the context.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, tx payment.Transaction) error {
	if tx.Reference == "" {
		return dErrors.New(dErrors.CodeBadRequest, "transaction reference is required")
	}
	query := `
		INSERT INTO payment_transactions (reference, email, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (reference) DO UPDATE SET
			email = EXCLUDED.email,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		tx.Reference,
		tx.Email,
		tx.Amount,
		tx.Currency,
		string(tx.Status),
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, reference string) (*payment.Transaction, error) {
	query := `
		SELECT reference, email, amount, currency, status, created_at, updated_at
		FROM payment_transactions
		WHERE reference = $1
	`
	var (
		tx     payment.Transaction
		status string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, reference).Scan(
		&tx.Reference,
		&tx.Email,
		&tx.Amount,
		&tx.Currency,
		&status,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	tx.Status = payment.TransactionStatus(status)
	return &tx, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, reference string, status payment.TransactionStatus, at time.Time) error {
	query := `
		UPDATE payment_transactions
		SET status = $2, updated_at = $3
		WHERE reference = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, reference, string(status), at)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	return nil
}

// ListRecent returns up to limit transactions, newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]payment.Transaction, error) {
	query := `
		SELECT reference, email, amount, currency, status, created_at, updated_at
		FROM payment_transactions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []payment.Transaction
	for rows.Next() {
		var (
			tx     payment.Transaction
			status string
		)
		if err := rows.Scan(&tx.Reference, &tx.Email, &tx.Amount, &tx.Currency, &status, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Status = payment.TransactionStatus(status)
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}
