package menu

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shi-bot/internal/model"
)

func TestNormalizeCallback(t *testing.T) {
	assert.Equal(t, "profile", NormalizeCallback("\fprofile"))
	assert.Equal(t, "buyitem_3", NormalizeCallback("\fbuyitem_3"))
	assert.Equal(t, "shop", NormalizeCallback("shop"))
	assert.Equal(t, "battle", NormalizeCallback("\fbattle|extra"))
}

func TestItemIDFromCallback(t *testing.T) {
	id, ok := ItemIDFromCallback("buyitem_12")
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)

	for _, data := range []string{"buyitem_", "buyitem_x", "buyitem_-1", "shop", "buyitem_0"} {
		_, ok := ItemIDFromCallback(data)
		assert.False(t, ok, data)
	}
}

func TestShopMenu(t *testing.T) {
	items := []*model.Item{
		{ID: 1, Name: "Wooden Sword"},
		{ID: 9, Name: "Steel Sword"},
	}

	markup := ShopMenu(items)

	require.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, "buyitem_1", markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "buyitem_9", markup.InlineKeyboard[1][0].Unique)
	assert.Equal(t, CallbackStart, markup.InlineKeyboard[2][0].Unique)
}

func TestMainMenu(t *testing.T) {
	markup := MainMenu("SHI")

	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			data = append(data, btn.Unique)
		}
	}
	assert.Equal(t, []string{CallbackProfile, CallbackBattle, CallbackShop, CallbackBuyShi}, data)
	assert.Contains(t, markup.InlineKeyboard[3][0].Text, "SHI")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m"},
		{-time.Minute, "0m"},
		{30 * time.Second, "1m"},
		{59 * time.Minute, "59m"},
		{time.Hour, "1h 0m"},
		{23*time.Hour + 59*time.Minute + time.Second, "24h 0m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestFormatBattle(t *testing.T) {
	win := FormatBattle(true, 40, decimal.RequireFromString("0.01"), "SHI")
	assert.Contains(t, win, "won")
	assert.Contains(t, win, "40")
	assert.Contains(t, win, "0.01")

	loss := FormatBattle(false, 12, decimal.Zero, "SHI")
	assert.Contains(t, loss, "lost")
	assert.Contains(t, loss, "12")
}

func TestFormatLeaderboard(t *testing.T) {
	assert.Contains(t, FormatLeaderboard(nil, "SHI"), "No players")

	out := FormatLeaderboard([]*model.User{
		{UserID: 1, Username: "alice", ShiBalance: decimal.NewFromInt(5)},
		{UserID: 2, ShiBalance: decimal.NewFromInt(3)},
	}, "SHI")
	assert.Contains(t, out, "1. alice - 5 SHI")
	assert.Contains(t, out, "2. user2 - 3 SHI")
}

func TestFormatTransactions(t *testing.T) {
	out := FormatTransactions([]*model.Transaction{
		{ID: 2, UserID: 7, Type: model.TxTypeBuyItem, Amount: decimal.NewFromInt(2), Currency: "SHI", Meta: "item_id:1"},
		{ID: 1, UserID: 7, Type: model.TxTypeCoinsAdd, Amount: decimal.NewFromInt(20), Currency: "COINS"},
	})
	assert.Contains(t, out, "#2 user 7 buy_item 2 SHI (item_id:1)")
	assert.Contains(t, out, "#1 user 7 coins_add 20 COINS")
	assert.Equal(t, "🧾 No transactions.", FormatTransactions(nil))
}

func TestFormatDaily(t *testing.T) {
	assert.Contains(t, FormatDaily(false, decimal.Zero, 0, 2*time.Hour, "SHI"), "2h 0m")
	assert.Contains(t, FormatDaily(true, decimal.NewFromInt(1), 15, 0, "SHI"), "1 SHI and 15 coins")
}
