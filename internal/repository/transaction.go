package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
)

const transactionColumns = `id, user_id, type, amount, currency, meta, created_at`

// TransactionRepository handles transaction data persistence.
type TransactionRepository struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a transaction record.
func (r *TransactionRepository) Create(ctx context.Context, userID int64, txType string, amount decimal.Decimal, currency, meta string) (*model.Transaction, error) {
	const query = `
		INSERT INTO transactions (user_id, type, amount, currency, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + transactionColumns

	var tx model.Transaction
	err := r.db.QueryRow(ctx, query, userID, txType, amount, currency, meta).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.Currency,
		&tx.Meta,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &tx, nil
}

// List returns the latest transactions, newest id first.
func (r *TransactionRepository) List(ctx context.Context, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListByUser returns a user's latest transactions, newest id first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return collectTransactions(rows)
}

// Count returns the total number of transaction records.
func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func collectTransactions(rows pgx.Rows) ([]*model.Transaction, error) {
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var tx model.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Type,
			&tx.Amount,
			&tx.Currency,
			&tx.Meta,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
