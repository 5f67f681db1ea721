package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/menu"
	"shi-bot/internal/service"
)

// adminListSize bounds the admin transactions view.
const adminListSize = 10

// AdminHandler handles admin-only commands and panel callbacks.
type AdminHandler struct {
	economy   *service.EconomyService
	catalog   *service.CatalogService
	settings  *service.SettingsService
	reporting *service.ReportingService
	currency  string
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	economy *service.EconomyService,
	catalog *service.CatalogService,
	settings *service.SettingsService,
	reporting *service.ReportingService,
	currency string,
) *AdminHandler {
	return &AdminHandler{
		economy:   economy,
		catalog:   catalog,
		settings:  settings,
		reporting: reporting,
		currency:  currency,
	}
}

func logAdmin(c tele.Context, op string) *zerolog.Event {
	return log.Info().Int64("admin_id", c.Sender().ID).Str("operation", op)
}

// HandleAdmin shows the admin panel.
func (h *AdminHandler) HandleAdmin(c tele.Context) error {
	return c.Send("🛠️ Admin panel", menu.AdminMenu())
}

// HandleAddItem handles /add_item <price> <power> <name>.
func (h *AdminHandler) HandleAddItem(c tele.Context) error {
	spec, err := ParseItemSpec(c.Args())
	if err != nil {
		return c.Send("Usage: /add_item <price> <power> <name>")
	}

	item, err := h.catalog.AddItem(context.Background(), spec.Name, spec.Power, spec.Price)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add item")
		return c.Send("❌ Could not add the item.")
	}

	logAdmin(c, "add_item").Int64("item_id", item.ID).Msg("Admin operation executed")
	return c.Send(fmt.Sprintf("✅ Item #%d %s added.", item.ID, item.Name))
}

// HandleSetSetting handles /set_setting <key> <value>.
func (h *AdminHandler) HandleSetSetting(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Usage: /set_setting <key> <value>")
	}
	key, value := args[0], strings.Join(args[1:], " ")

	if err := h.settings.Set(context.Background(), key, value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to update setting")
		return c.Send("❌ Could not update the setting.")
	}

	logAdmin(c, "set_setting").Str("key", key).Str("value", value).Msg("Admin operation executed")
	return c.Send(fmt.Sprintf("✅ %s = %s", key, value))
}

// HandleGive handles /give <user_id> <amount>. Negative amounts deduct.
func (h *AdminHandler) HandleGive(c tele.Context) error {
	userID, amount, err := parseUserAmount(c.Args())
	if err != nil || amount.IsZero() {
		return c.Send("Usage: /give <user_id> <amount>")
	}

	user, err := h.economy.AdminGrant(context.Background(), userID, amount, c.Sender().ID)
	if err != nil {
		log.Error().Err(err).Int64("target_id", userID).Msg("Admin grant failed")
		return c.Send("❌ Operation failed.")
	}

	logAdmin(c, "give").Int64("target_id", userID).Str("amount", amount.String()).Msg("Admin operation executed")
	return c.Send(fmt.Sprintf("✅ %s now has %s %s.", user.DisplayName(), user.ShiBalance.String(), h.currency))
}

// HandleSetShi handles /set_shi <user_id> <amount>.
func (h *AdminHandler) HandleSetShi(c tele.Context) error {
	userID, amount, err := parseUserAmount(c.Args())
	if err != nil || amount.IsNegative() {
		return c.Send("Usage: /set_shi <user_id> <amount>")
	}

	user, err := h.economy.SetShi(context.Background(), userID, amount)
	if err != nil {
		log.Error().Err(err).Int64("target_id", userID).Msg("Set balance failed")
		return c.Send("❌ Operation failed.")
	}

	logAdmin(c, "set_shi").Int64("target_id", userID).Str("amount", amount.String()).Msg("Admin operation executed")
	return c.Send(fmt.Sprintf("✅ %s balance set to %s %s.", user.DisplayName(), user.ShiBalance.String(), h.currency))
}

// HandleBan handles /ban <user_id>.
func (h *AdminHandler) HandleBan(c tele.Context) error {
	return h.setBanned(c, true)
}

// HandleUnban handles /unban <user_id>.
func (h *AdminHandler) HandleUnban(c tele.Context) error {
	return h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c tele.Context, banned bool) error {
	op := "unban"
	if banned {
		op = "ban"
	}

	userID, err := parseID(c.Args())
	if err != nil {
		return c.Send(fmt.Sprintf("Usage: /%s <user_id>", op))
	}

	if _, err := h.economy.SetBanned(context.Background(), userID, banned); err != nil {
		log.Error().Err(err).Int64("target_id", userID).Msg("Ban update failed")
		return c.Send("❌ Operation failed.")
	}

	logAdmin(c, op).Int64("target_id", userID).Msg("Admin operation executed")
	return c.Send(fmt.Sprintf("✅ User %d %sned.", userID, op))
}

// HandleStatsCallback shows aggregate stats.
func (h *AdminHandler) HandleStatsCallback(c tele.Context) error {
	stats, err := h.reporting.Stats(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load stats")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Stats unavailable", ShowAlert: true})
	}
	_ = c.Respond()
	return c.EditOrSend(menu.FormatStats(stats, h.currency), menu.AdminMenu())
}

// HandleItemsCallback lists every catalog item.
func (h *AdminHandler) HandleItemsCallback(c tele.Context) error {
	items, err := h.catalog.ListItems(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Items unavailable", ShowAlert: true})
	}
	_ = c.Respond()
	return c.EditOrSend(menu.FormatItems(items, h.currency), menu.AdminMenu())
}

// HandleTransactionsCallback shows the latest ledger entries.
func (h *AdminHandler) HandleTransactionsCallback(c tele.Context) error {
	txs, err := h.reporting.ListTransactions(context.Background(), adminListSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list transactions")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Transactions unavailable", ShowAlert: true})
	}
	_ = c.Respond()
	return c.EditOrSend(menu.FormatTransactions(txs), menu.AdminMenu())
}
