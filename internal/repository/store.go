// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors for repository operations.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrGuildNotFound = errors.New("guild not found")
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository can run either standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles all repositories over one DBTX.
type Store struct {
	pool *pgxpool.Pool // nil when the store is bound to a transaction

	Users        *UserRepository
	Transactions *TransactionRepository
	Settings     *SettingsRepository
	Catalog      *CatalogRepository
	Activity     *ActivityRepository
	Guilds       *GuildRepository
}

// NewStore creates a Store backed by the connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	s := newStore(pool)
	s.pool = pool
	return s
}

func newStore(db DBTX) *Store {
	return &Store{
		Users:        NewUserRepository(db),
		Transactions: NewTransactionRepository(db),
		Settings:     NewSettingsRepository(db),
		Catalog:      NewCatalogRepository(db),
		Activity:     NewActivityRepository(db),
		Guilds:       NewGuildRepository(db),
	}
}

// InTx runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise. Calling InTx on a
// store that is already bound to a transaction simply reuses it.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newStore(tx))
	})
}
