// Package model defines the data models for the SHI bot.
package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a Telegram user account in the economy.
type User struct {
	UserID       int64           `db:"user_id"`
	Username     string          `db:"username"`
	ShiBalance   decimal.Decimal `db:"shi_balance"`
	Level        int             `db:"level"`
	Exp          int             `db:"exp"`
	StarsBalance int64           `db:"stars_balance"`
	Coins        int64           `db:"coins"`
	LastDaily    int64           `db:"last_daily"` // unix seconds, 0 = never claimed
	Banned       bool            `db:"banned"`
	CreatedAt    time.Time       `db:"created_at"`
}

// DisplayName returns the username or a fallback built from the id.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return "user" + strconv.FormatInt(u.UserID, 10)
}

// Setting is a single key/value configuration row.
type Setting struct {
	Key   string `db:"keyname"`
	Value string `db:"value"`
}

// Item is a purchasable shop item.
type Item struct {
	ID       int64           `db:"id"`
	Name     string          `db:"name"`
	Power    int             `db:"power"`
	PriceShi decimal.Decimal `db:"price_shi"`
}

// InventoryEntry is a user's stack of a single item.
type InventoryEntry struct {
	UserID   int64  `db:"user_id"`
	ItemID   int64  `db:"item_id"`
	Quantity int    `db:"qty"`
	Name     string `db:"name"`
	Power    int    `db:"power"`
}

// Transaction is an append-only ledger record of a balance mutation.
type Transaction struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Type      string          `db:"type"`
	Amount    decimal.Decimal `db:"amount"`
	Currency  string          `db:"currency"`
	Meta      string          `db:"meta"`
	CreatedAt time.Time       `db:"created_at"`
}

// Battle is an informational record of a fight outcome.
type Battle struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	Opponent    string          `db:"opponent"`
	Win         bool            `db:"win"`
	RewardShi   decimal.Decimal `db:"reward_shi"`
	RewardCoins int64           `db:"reward_coins"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Referral links a referred user to the user who invited them.
type Referral struct {
	ID        int64     `db:"id"`
	Referrer  int64     `db:"referrer"`
	Referred  int64     `db:"referred"`
	CreatedAt time.Time `db:"created_at"`
}

// Guild is a named group of users.
type Guild struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Owner     int64     `db:"owner"`
	CreatedAt time.Time `db:"created_at"`
}

// GuildMember is a single (guild, user) membership.
type GuildMember struct {
	GuildID  int64     `db:"guild_id"`
	UserID   int64     `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}

// Stats is an aggregate snapshot of the economy.
type Stats struct {
	Users        int64           `json:"users"`
	TotalShi     decimal.Decimal `json:"total_shi"`
	Transactions int64           `json:"transactions"`
}

// Currency tags recorded on transactions.
const (
	CurrencyShi   = "SHI"
	CurrencyStars = "XTR"
	CurrencyCoins = "COINS"
)

// Transaction types for categorizing balance changes.
const (
	TxTypeShiUpdate      = "shi_update"      // Generic SHI credit/debit
	TxTypeStarsUpdate    = "stars_update"    // Stars balance change
	TxTypeCoinsAdd       = "coins_add"       // Coins reward
	TxTypeBuyItem        = "buy_item"        // Shop purchase
	TxTypeCoinsConvert   = "coins_convert"   // Coins converted into SHI
	TxTypeReferralReward = "referral_reward" // Reward for inviting a user
	TxTypeStarsPayment   = "stars_payment"   // SHI bought with Telegram Stars
	TxTypeAdminGrant     = "admin_grant"     // Admin added or removed SHI
)

// Settings keys.
const (
	SettingStarsPerShi   = "STARS_PER_SHI"
	SettingDailyShi      = "DAILY_SHI"
	SettingDailyCoinsMin = "DAILY_COINS_MIN"
	SettingDailyCoinsMax = "DAILY_COINS_MAX"
	SettingLastPaymentTS = "last_payment_ts"
)
