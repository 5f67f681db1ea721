// Package menu builds the bot's inline keyboards and message texts.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/model"
)

// Callback data values
const (
	CallbackStart       = "start"
	CallbackProfile     = "profile"
	CallbackBattle      = "battle"
	CallbackShop        = "shop"
	CallbackBuyShi      = "buy_shi"
	CallbackBuyItem     = "buyitem_" // buyitem_<item id>
	CallbackAdminStats  = "admin_stats"
	CallbackAdminItems  = "admin_items"
	CallbackAdminTxs    = "admin_txs"
	callbackPrefixBreak = "\f"
)

// NormalizeCallback strips the marker telebot puts in front of button data.
func NormalizeCallback(data string) string {
	data = strings.TrimPrefix(data, callbackPrefixBreak)
	// markup.Data(text, unique, payload) encodes as unique|payload
	if i := strings.IndexByte(data, '|'); i >= 0 {
		data = data[:i]
	}
	return data
}

// ItemIDFromCallback extracts the item id from buyitem_<id>.
func ItemIDFromCallback(data string) (int64, bool) {
	raw, ok := strings.CutPrefix(data, CallbackBuyItem)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// MainMenu is the keyboard shown by /start.
func MainMenu(currency string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("👤 Profile", CallbackProfile)),
		markup.Row(markup.Data("⚔️ Battle", CallbackBattle)),
		markup.Row(markup.Data("🛒 Shop", CallbackShop)),
		markup.Row(markup.Data(fmt.Sprintf("💫 Buy %s with Stars", currency), CallbackBuyShi)),
	)
	return markup
}

// BackMenu has a single button returning to the main menu.
func BackMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("↩️ Back", CallbackStart)))
	return markup
}

// ShopMenu lists one buy button per item plus a back button.
func ShopMenu(items []*model.Item) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := make([]tele.Row, 0, len(items)+1)
	for _, item := range items {
		btn := markup.Data("Buy "+item.Name, CallbackBuyItem+strconv.FormatInt(item.ID, 10))
		rows = append(rows, markup.Row(btn))
	}
	rows = append(rows, markup.Row(markup.Data("↩️ Back", CallbackStart)))

	markup.Inline(rows...)
	return markup
}

// AdminMenu is the admin panel keyboard.
func AdminMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("📊 Stats", CallbackAdminStats), markup.Data("📦 Items", CallbackAdminItems)),
		markup.Row(markup.Data("🧾 Transactions", CallbackAdminTxs)),
		markup.Row(markup.Data("↩️ Back", CallbackStart)),
	)
	return markup
}
