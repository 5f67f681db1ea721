package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
)

const userColumns = `user_id, username, shi_balance, level, exp, stars_balance, coins, last_daily, banned, created_at`

// UserRepository handles user data persistence.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.ShiBalance,
		&user.Level,
		&user.Exp,
		&user.StarsBalance,
		&user.Coins,
		&user.LastDaily,
		&user.Banned,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Register inserts a user with zero balances, or refreshes the username of an
// existing one when a non-empty name is given. It reports whether the row was
// newly created.
func (r *UserRepository) Register(ctx context.Context, userID int64, username string) (*model.User, bool, error) {
	// xmax = 0 only for freshly inserted tuples.
	const query = `
		INSERT INTO users (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username)
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted
	`

	var user model.User
	var inserted bool
	err := r.db.QueryRow(ctx, query, userID, username).Scan(
		&user.UserID,
		&user.Username,
		&user.ShiBalance,
		&user.Level,
		&user.Exp,
		&user.StarsBalance,
		&user.Coins,
		&user.LastDaily,
		&user.Banned,
		&user.CreatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to register user: %w", err)
	}

	return &user, inserted, nil
}

// GetByID retrieves a user by their Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetForUpdate retrieves a user and locks the row until the surrounding
// transaction ends. Outside a transaction it behaves like GetByID.
func (r *UserRepository) GetForUpdate(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 FOR UPDATE`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return user, nil
}

// updateReturning runs an UPDATE ... RETURNING on a single user row.
func (r *UserRepository) updateReturning(ctx context.Context, op, setClause string, args ...any) (*model.User, error) {
	query := `UPDATE users SET ` + setClause + ` WHERE user_id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return user, nil
}

// AddShi adds delta (possibly negative) to the SHI balance.
func (r *UserRepository) AddShi(ctx context.Context, userID int64, delta decimal.Decimal) (*model.User, error) {
	return r.updateReturning(ctx, "update shi balance", `shi_balance = shi_balance + $2`, userID, delta)
}

// SetShi overwrites the SHI balance.
func (r *UserRepository) SetShi(ctx context.Context, userID int64, value decimal.Decimal) (*model.User, error) {
	return r.updateReturning(ctx, "set shi balance", `shi_balance = $2`, userID, value)
}

// AddStars adds delta (possibly negative) to the stars balance.
func (r *UserRepository) AddStars(ctx context.Context, userID int64, delta int64) (*model.User, error) {
	return r.updateReturning(ctx, "update stars balance", `stars_balance = stars_balance + $2`, userID, delta)
}

// AddCoins adds delta (possibly negative) to the coin balance.
func (r *UserRepository) AddCoins(ctx context.Context, userID int64, delta int64) (*model.User, error) {
	return r.updateReturning(ctx, "update coins", `coins = coins + $2`, userID, delta)
}

// SetCoins overwrites the coin balance.
func (r *UserRepository) SetCoins(ctx context.Context, userID int64, value int64) (*model.User, error) {
	return r.updateReturning(ctx, "set coins", `coins = $2`, userID, value)
}

// SetLastDaily records the unix time of the latest daily claim.
func (r *UserRepository) SetLastDaily(ctx context.Context, userID int64, claimedAt int64) (*model.User, error) {
	return r.updateReturning(ctx, "update daily claim", `last_daily = $2`, userID, claimedAt)
}

// SetBanned sets or clears the banned flag.
func (r *UserRepository) SetBanned(ctx context.Context, userID int64, banned bool) (*model.User, error) {
	return r.updateReturning(ctx, "update banned flag", `banned = $2`, userID, banned)
}

// GetTop retrieves the top N users by SHI balance. Ties keep user_id order.
func (r *UserRepository) GetTop(ctx context.Context, limit int) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY shi_balance DESC, user_id ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// SumShi returns the total SHI held by all users, zero when there are none.
func (r *UserRepository) SumShi(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(shi_balance), 0) FROM users`).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum shi balances: %w", err)
	}
	return total, nil
}

// Exists checks if a user with the given Telegram ID exists.
func (r *UserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
