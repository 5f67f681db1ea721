package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
)

// ActivityRepository records battles and referrals.
type ActivityRepository struct {
	db DBTX
}

// NewActivityRepository creates a new ActivityRepository instance.
func NewActivityRepository(db DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// RecordBattle stores a battle outcome.
func (r *ActivityRepository) RecordBattle(ctx context.Context, userID int64, opponent string, win bool, rewardShi decimal.Decimal, rewardCoins int64) (*model.Battle, error) {
	const query = `
		INSERT INTO battles (user_id, opponent, win, reward_shi, reward_coins, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, user_id, opponent, win, reward_shi, reward_coins, created_at
	`

	var b model.Battle
	err := r.db.QueryRow(ctx, query, userID, opponent, win, rewardShi, rewardCoins).Scan(
		&b.ID,
		&b.UserID,
		&b.Opponent,
		&b.Win,
		&b.RewardShi,
		&b.RewardCoins,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record battle: %w", err)
	}
	return &b, nil
}

// CountBattles returns how many battles a user has fought.
func (r *ActivityRepository) CountBattles(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM battles WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count battles: %w", err)
	}
	return n, nil
}

// AddReferral links referred to referrer. It reports false without error
// when the referred user already has a referrer.
func (r *ActivityRepository) AddReferral(ctx context.Context, referrer, referred int64) (bool, error) {
	const query = `
		INSERT INTO referrals (referrer, referred, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (referred) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, referrer, referred)
	if err != nil {
		return false, fmt.Errorf("failed to add referral: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountReferrals returns how many users a referrer has invited.
func (r *ActivityRepository) CountReferrals(ctx context.Context, referrer int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM referrals WHERE referrer = $1`, referrer).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return n, nil
}
