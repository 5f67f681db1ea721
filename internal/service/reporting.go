package service

import (
	"context"
	"fmt"

	"shi-bot/internal/model"
	"shi-bot/internal/repository"
)

// MaxListLimit caps leaderboard and transaction listings.
const MaxListLimit = 100

// ReportingService provides read-only views over the ledger.
type ReportingService struct {
	store        *repository.Store
	defaultLimit int
}

// NewReportingService creates a new ReportingService instance.
func NewReportingService(store *repository.Store, defaultLimit int) *ReportingService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &ReportingService{store: store, defaultLimit: defaultLimit}
}

func (s *ReportingService) clamp(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	return min(limit, MaxListLimit)
}

// Leaderboard returns the richest users by SHI, highest first.
func (s *ReportingService) Leaderboard(ctx context.Context, limit int) ([]*model.User, error) {
	return s.store.Users.GetTop(ctx, s.clamp(limit))
}

// Stats returns the user count, the total SHI in circulation and the
// number of transactions.
func (s *ReportingService) Stats(ctx context.Context) (*model.Stats, error) {
	users, err := s.store.Users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	total, err := s.store.Users.SumShi(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	txs, err := s.store.Transactions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	return &model.Stats{Users: users, TotalShi: total, Transactions: txs}, nil
}

// ListTransactions returns the most recent transactions, newest first.
func (s *ReportingService) ListTransactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
	return s.store.Transactions.List(ctx, s.clamp(limit))
}
