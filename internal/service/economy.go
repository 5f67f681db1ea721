// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"shi-bot/internal/game"
	"shi-bot/internal/model"
	"shi-bot/internal/pkg/lock"
	"shi-bot/internal/repository"
)

// Economy errors.
var (
	ErrInvalidRate   = errors.New("conversion rate must be positive")
	ErrInvalidAmount = errors.New("invalid amount: must be positive")
)

// EconomyOptions holds the fixed economy parameters that are not runtime settings.
type EconomyOptions struct {
	CoinsPerShi   int64
	ShiPerChunk   decimal.Decimal
	DailyCooldown time.Duration
}

// EconomyService owns every mutation of user balances. Each multi-step
// operation runs in one database transaction under the user's row lock and
// the in-process per-user lock.
type EconomyService struct {
	store    *repository.Store
	settings *SettingsService
	userLock *lock.UserLock
	rng      game.Source
	opts     EconomyOptions
}

// NewEconomyService creates a new EconomyService instance.
// A nil rng uses the global generator.
func NewEconomyService(
	store *repository.Store,
	settings *SettingsService,
	userLock *lock.UserLock,
	rng game.Source,
	opts EconomyOptions,
) *EconomyService {
	if rng == nil {
		rng = game.DefaultSource
	}
	if opts.DailyCooldown <= 0 {
		opts.DailyCooldown = 24 * time.Hour
	}
	return &EconomyService{
		store:    store,
		settings: settings,
		userLock: userLock,
		rng:      rng,
		opts:     opts,
	}
}

// mutate runs fn inside one transaction with the user's row locked. The user
// is created on first contact.
func (s *EconomyService) mutate(ctx context.Context, userID int64, fn func(tx *repository.Store, user *model.User) error) error {
	return s.userLock.WithLock(ctx, userID, func() error {
		return s.store.InTx(ctx, func(tx *repository.Store) error {
			user, err := tx.Users.GetForUpdate(ctx, userID)
			if errors.Is(err, repository.ErrUserNotFound) {
				user, _, err = tx.Users.Register(ctx, userID, "")
			}
			if err != nil {
				return err
			}
			return fn(tx, user)
		})
	})
}

// Register creates the user if needed and refreshes the display name.
// It reports whether the user was newly created.
func (s *EconomyService) Register(ctx context.Context, userID int64, username string) (*model.User, bool, error) {
	user, created, err := s.store.Users.Register(ctx, userID, username)
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Info().Int64("user_id", userID).Str("username", username).Msg("New user registered")
	}
	return user, created, nil
}

// GetUser returns the user, creating an empty account on first read.
func (s *EconomyService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, _, err = s.store.Users.Register(ctx, userID, "")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func creditShiTx(ctx context.Context, tx *repository.Store, userID int64, delta decimal.Decimal, txType, meta string) (*model.User, error) {
	user, err := tx.Users.AddShi(ctx, userID, delta)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Transactions.Create(ctx, userID, txType, delta, model.CurrencyShi, meta); err != nil {
		return nil, err
	}
	return user, nil
}

func addCoinsTx(ctx context.Context, tx *repository.Store, userID int64, delta int64, meta string) (*model.User, error) {
	user, err := tx.Users.AddCoins(ctx, userID, delta)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Transactions.Create(ctx, userID, model.TxTypeCoinsAdd, decimal.NewFromInt(delta), model.CurrencyCoins, meta); err != nil {
		return nil, err
	}
	return user, nil
}

// CreditShi adds delta (possibly negative) to the SHI balance and logs a
// shi_update transaction. The balance is not floored at zero.
func (s *EconomyService) CreditShi(ctx context.Context, userID int64, delta decimal.Decimal) (*model.User, error) {
	var out *model.User
	err := s.mutate(ctx, userID, func(tx *repository.Store, _ *model.User) error {
		var err error
		out, err = creditShiTx(ctx, tx, userID, delta, model.TxTypeShiUpdate, "update_shi")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit shi: %w", err)
	}
	return out, nil
}

// CreditStars adds delta (possibly negative) to the stars balance and logs a
// stars_update transaction.
func (s *EconomyService) CreditStars(ctx context.Context, userID int64, delta int64) (*model.User, error) {
	var out *model.User
	err := s.mutate(ctx, userID, func(tx *repository.Store, _ *model.User) error {
		var err error
		if out, err = tx.Users.AddStars(ctx, userID, delta); err != nil {
			return err
		}
		_, err = tx.Transactions.Create(ctx, userID, model.TxTypeStarsUpdate, decimal.NewFromInt(delta), model.CurrencyStars, "update_stars")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit stars: %w", err)
	}
	return out, nil
}

// AddCoins adds delta to the coin balance and logs a coins_add transaction.
func (s *EconomyService) AddCoins(ctx context.Context, userID int64, delta int64) (*model.User, error) {
	var out *model.User
	err := s.mutate(ctx, userID, func(tx *repository.Store, _ *model.User) error {
		var err error
		out, err = addCoinsTx(ctx, tx, userID, delta, "add_coins")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add coins: %w", err)
	}
	return out, nil
}

// SetCoins overwrites the coin balance. No transaction is logged.
func (s *EconomyService) SetCoins(ctx context.Context, userID int64, value int64) (*model.User, error) {
	var out *model.User
	err := s.mutate(ctx, userID, func(tx *repository.Store, _ *model.User) error {
		var err error
		out, err = tx.Users.SetCoins(ctx, userID, value)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set coins: %w", err)
	}
	return out, nil
}

// SetShi overwrites the SHI balance. No transaction is logged.
func (s *EconomyService) SetShi(ctx context.Context, userID int64, value decimal.Decimal) (*model.User, error) {
	var out *model.User
	err := s.mutate(ctx, userID, func(tx *repository.Store, _ *model.User) error {
		var err error
		out, err = tx.Users.SetShi(ctx, userID, value)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set shi: %w", err)
	}
	return out, nil
}

// SplitCoins divides coins into whole chunks of perChunk using floor
// division. remainder always has the sign of perChunk.
func SplitCoins(coins, perChunk int64) (chunks, remainder int64) {
	chunks = coins / perChunk
	remainder = coins % perChunk
	if remainder != 0 && (remainder < 0) != (perChunk < 0) {
		chunks--
		remainder += perChunk
	}
	return chunks, remainder
}

// convertTx converts the user's coins into SHI in whole chunks and keeps the
// remainder as coins. Returns zero without writing when not even one chunk fits.
func convertTx(ctx context.Context, tx *repository.Store, user *model.User, coinsPerUnit int64, unitPerChunk decimal.Decimal) (decimal.Decimal, error) {
	chunks, remainder := SplitCoins(user.Coins, coinsPerUnit)
	if chunks <= 0 {
		return decimal.Zero, nil
	}

	credited := unitPerChunk.Mul(decimal.NewFromInt(chunks))
	if _, err := tx.Users.SetCoins(ctx, user.UserID, remainder); err != nil {
		return decimal.Zero, err
	}
	if _, err := creditShiTx(ctx, tx, user.UserID, credited, model.TxTypeCoinsConvert, "coins->"+credited.String()); err != nil {
		return decimal.Zero, err
	}

	log.Debug().
		Int64("user_id", user.UserID).
		Int64("chunks", chunks).
		Str("amount", credited.String()).
		Msg("Converted coins")

	return credited, nil
}

// ConvertCoins converts the user's coins into SHI: every coinsPerUnit coins
// become unitPerChunk SHI and the remainder stays as coins. It returns the
// SHI credited, which is zero when the balance does not cover one chunk.
func (s *EconomyService) ConvertCoins(ctx context.Context, userID int64, coinsPerUnit int64, unitPerChunk decimal.Decimal) (decimal.Decimal, error) {
	if coinsPerUnit <= 0 {
		return decimal.Zero, ErrInvalidRate
	}

	var credited decimal.Decimal
	err := s.mutate(ctx, userID, func(tx *repository.Store, user *model.User) error {
		var err error
		credited, err = convertTx(ctx, tx, user, coinsPerUnit, unitPerChunk)
		return err
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert coins: %w", err)
	}
	return credited, nil
}

// PurchaseItem buys one unit of an item with SHI. It returns false without
// changing anything when the item does not exist or the balance is short.
func (s *EconomyService) PurchaseItem(ctx context.Context, userID, itemID int64) (bool, error) {
	item, err := s.store.Catalog.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return false, nil
		}
		return false, err
	}

	purchased := false
	err = s.mutate(ctx, userID, func(tx *repository.Store, user *model.User) error {
		if user.ShiBalance.LessThan(item.PriceShi) {
			return nil
		}
		if _, err := tx.Users.AddShi(ctx, userID, item.PriceShi.Neg()); err != nil {
			return err
		}
		if err := tx.Catalog.AddToInventory(ctx, userID, item.ID); err != nil {
			return err
		}
		meta := "item_id:" + strconv.FormatInt(item.ID, 10)
		if _, err := tx.Transactions.Create(ctx, userID, model.TxTypeBuyItem, item.PriceShi, model.CurrencyShi, meta); err != nil {
			return err
		}
		purchased = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to purchase item: %w", err)
	}

	if purchased {
		log.Info().Int64("user_id", userID).Int64("item_id", itemID).Str("amount", item.PriceShi.String()).Msg("Item purchased")
	}
	return purchased, nil
}

// DailyResult describes the outcome of a daily claim.
type DailyResult struct {
	Claimed   bool
	Shi       decimal.Decimal
	Coins     int64
	Remaining time.Duration // time until the next claim when Claimed is false
	User      *model.User
}

// DailyRemaining returns how long until the next daily claim is allowed,
// or zero when a claim is allowed now. lastDaily is unix seconds.
func DailyRemaining(lastDaily int64, now time.Time, cooldown time.Duration) time.Duration {
	elapsed := time.Duration(now.Unix()-lastDaily) * time.Second
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}

// ClaimDaily credits the daily SHI and a random amount of coins at most
// once per cooldown window.
func (s *EconomyService) ClaimDaily(ctx context.Context, userID int64, now time.Time) (*DailyResult, error) {
	dailyShi, err := s.settings.DailyShi(ctx)
	if err != nil {
		return nil, err
	}
	lo, hi, err := s.settings.DailyCoinsRange(ctx)
	if err != nil {
		return nil, err
	}

	result := &DailyResult{}
	err = s.mutate(ctx, userID, func(tx *repository.Store, user *model.User) error {
		if remaining := DailyRemaining(user.LastDaily, now, s.opts.DailyCooldown); remaining > 0 {
			result.Remaining = remaining
			result.User = user
			return nil
		}

		coins := int64(game.Between(s.rng, lo, hi))
		if _, err := creditShiTx(ctx, tx, userID, dailyShi, model.TxTypeShiUpdate, "daily"); err != nil {
			return err
		}
		if _, err := addCoinsTx(ctx, tx, userID, coins, "daily"); err != nil {
			return err
		}
		updated, err := tx.Users.SetLastDaily(ctx, userID, now.Unix())
		if err != nil {
			return err
		}

		result.Claimed = true
		result.Shi = dailyShi
		result.Coins = coins
		result.User = updated
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim daily reward: %w", err)
	}
	return result, nil
}

// AdminGrant adds delta (possibly negative) SHI on behalf of an admin.
func (s *EconomyService) AdminGrant(ctx context.Context, userID int64, delta decimal.Decimal, adminID int64) (*model.User, error) {
	var out *model.User
	err := s.mutate(ctx, userID, func(tx *repository.Store, _ *model.User) error {
		var err error
		out, err = creditShiTx(ctx, tx, userID, delta, model.TxTypeAdminGrant, "admin:"+strconv.FormatInt(adminID, 10))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grant shi: %w", err)
	}

	log.Info().Int64("user_id", userID).Int64("admin_id", adminID).Str("amount", delta.String()).Msg("Admin grant")
	return out, nil
}

// SetBanned sets or clears the user's banned flag.
func (s *EconomyService) SetBanned(ctx context.Context, userID int64, banned bool) (*model.User, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Users.SetBanned(ctx, userID, banned)
}

// IsBanned reports whether the user is banned. Unknown users are not banned.
func (s *EconomyService) IsBanned(ctx context.Context, userID int64) (bool, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Banned, nil
}
