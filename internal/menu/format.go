package menu

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
)

const divider = "━━━━━━━━━━━━━━━\n"

// Welcome is the /start greeting.
func Welcome(created bool) string {
	if created {
		return "🎉 Welcome to the game! Open the menu below."
	}
	return "👋 Welcome back! Open the menu below."
}

// FormatProfile renders a user's balances, items and guilds.
func FormatProfile(u *model.User, currency string, inv []*model.InventoryEntry, guilds []*model.Guild) string {
	var sb strings.Builder
	sb.WriteString("👤 Your profile\n")
	sb.WriteString(divider)
	fmt.Fprintf(&sb, "💰 %s: %s\n", currency, u.ShiBalance.String())
	fmt.Fprintf(&sb, "🪙 Coins: %d\n", u.Coins)
	fmt.Fprintf(&sb, "⭐ Stars: %d\n", u.StarsBalance)
	fmt.Fprintf(&sb, "🎚️ Level: %d  EXP: %d\n", u.Level, u.Exp)

	if len(inv) > 0 {
		sb.WriteString(divider)
		sb.WriteString("🎒 Items\n")
		for _, e := range inv {
			fmt.Fprintf(&sb, "• %s x%d (power %d)\n", e.Name, e.Quantity, e.Power)
		}
	}
	if len(guilds) > 0 {
		sb.WriteString(divider)
		sb.WriteString("🏰 Guilds\n")
		for _, g := range guilds {
			fmt.Fprintf(&sb, "• #%d %s\n", g.ID, g.Name)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatBattle renders a fight outcome.
func FormatBattle(win bool, coins int64, converted decimal.Decimal, currency string) string {
	if win {
		return fmt.Sprintf("🎉 You won! Coins earned: %d\nCoins converted to %s: %s",
			coins, currency, converted.StringFixed(2))
	}
	msg := fmt.Sprintf("😵 You lost, but still earned %d coins.", coins)
	if converted.IsPositive() {
		msg += fmt.Sprintf("\nCoins converted to %s: %s", currency, converted.StringFixed(2))
	} else {
		msg += "\nCoins convert automatically once you have enough."
	}
	return msg
}

// FormatShop lists the catalog.
func FormatShop(items []*model.Item, currency string) string {
	if len(items) == 0 {
		return "🛒 The shop is empty."
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "🛒 Shop")
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("• %s | power: %d | price: %s %s", it.Name, it.Power, it.PriceShi.String(), currency))
	}
	return strings.Join(lines, "\n")
}

// FormatPurchase renders the result of an item purchase.
func FormatPurchase(ok bool, currency string) string {
	if ok {
		return "✅ Purchase successful!"
	}
	return fmt.Sprintf("⛔ Not enough %s!", currency)
}

// FormatBuyPrompt asks for the amount of SHI to buy.
func FormatBuyPrompt(currency string, starsPerShi int) string {
	return fmt.Sprintf("How many %s do you want to buy? Send a number, or /cancel.\nCurrent rate: 1 %s = %d ⭐",
		currency, currency, starsPerShi)
}

// FormatAmountTooLarge re-asks for an amount within the per-invoice cap.
func FormatAmountTooLarge(currency string, maxAmount int64) string {
	return fmt.Sprintf("That is too much for one invoice. Send a number up to %d %s, or /cancel.", maxAmount, currency)
}

// FormatDaily renders a daily claim result.
func FormatDaily(claimed bool, shi decimal.Decimal, coins int64, remaining time.Duration, currency string) string {
	if !claimed {
		return "⏳ Daily reward already claimed. Come back in " + FormatDuration(remaining) + "."
	}
	return fmt.Sprintf("🎁 Daily reward: %s %s and %d coins!", shi.String(), currency, coins)
}

// FormatDuration renders d as hours and minutes, rounding up to the minute.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	mins := int64((d + time.Minute - 1) / time.Minute)
	h, m := mins/60, mins%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatLeaderboard renders the richest users.
func FormatLeaderboard(users []*model.User, currency string) string {
	if len(users) == 0 {
		return "🏆 Leaderboard\nNo players yet."
	}
	lines := make([]string, 0, len(users)+1)
	lines = append(lines, "🏆 Leaderboard")
	for i, u := range users {
		lines = append(lines, fmt.Sprintf("%d. %s - %s %s", i+1, u.DisplayName(), u.ShiBalance.String(), currency))
	}
	return strings.Join(lines, "\n")
}

// FormatStats renders the admin stats view.
func FormatStats(s *model.Stats, currency string) string {
	return fmt.Sprintf("📊 Stats\n%s👥 Users: %d\n💰 Total %s: %s\n🧾 Transactions: %d",
		divider, s.Users, currency, s.TotalShi.String(), s.Transactions)
}

// FormatItems renders the admin items view.
func FormatItems(items []*model.Item, currency string) string {
	if len(items) == 0 {
		return "📦 No items."
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "📦 Items")
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("#%d %s | power %d | %s %s", it.ID, it.Name, it.Power, it.PriceShi.String(), currency))
	}
	return strings.Join(lines, "\n")
}

// FormatTransactions renders the admin transaction view, newest first.
func FormatTransactions(txs []*model.Transaction) string {
	if len(txs) == 0 {
		return "🧾 No transactions."
	}
	lines := make([]string, 0, len(txs)+1)
	lines = append(lines, "🧾 Latest transactions")
	for _, tx := range txs {
		line := fmt.Sprintf("#%d user %d %s %s %s", tx.ID, tx.UserID, tx.Type, tx.Amount.String(), tx.Currency)
		if tx.Meta != "" {
			line += " (" + tx.Meta + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
