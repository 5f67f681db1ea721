// Package bot wires the Telegram client, middleware and handlers together.
package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/config"
	"shi-bot/internal/handler"
	"shi-bot/internal/menu"
	"shi-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler *handler.AccountHandler
	shopHandler    *handler.ShopHandler
	gameHandler    *handler.GameHandler
	guildHandler   *handler.GuildHandler
	paymentHandler *handler.PaymentHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config    *config.Config
	Settings  *service.SettingsService
	Economy   *service.EconomyService
	Catalog   *service.CatalogService
	Activity  *service.ActivityService
	Reporting *service.ReportingService
	Sessions  *service.SessionStore

	// Offline skips the getMe call; used by tests.
	Offline bool
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" && !deps.Offline {
		return nil, errors.New("bot token is required")
	}

	pref := tele.Settings{
		Token:   deps.Config.Bot.Token,
		Poller:  &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: onError,
		Offline: deps.Offline,
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	currency := deps.Config.Bot.CurrencyName
	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,

		accountHandler: handler.NewAccountHandler(deps.Economy, deps.Activity, deps.Catalog, deps.Reporting,
			currency, deps.Config.Economy.LeaderboardSize),
		shopHandler:    handler.NewShopHandler(deps.Economy, deps.Catalog, currency),
		gameHandler:    handler.NewGameHandler(deps.Activity, currency),
		guildHandler:   handler.NewGuildHandler(deps.Activity),
		paymentHandler: handler.NewPaymentHandler(deps.Economy, deps.Settings, deps.Sessions, currency),
		adminHandler:   handler.NewAdminHandler(deps.Economy, deps.Catalog, deps.Settings, deps.Reporting, currency),
	}

	b.registerMiddleware(deps.Economy)
	b.registerHandlers()

	return b, nil
}

// onError logs handler failures and sends the user a generic apology.
func onError(err error, c tele.Context) {
	if c == nil {
		log.Error().Err(err).Msg("Bot error")
		return
	}

	logEvent := log.Error().Err(err).Str(RequestIDKey, RequestID(c))
	if sender := c.Sender(); sender != nil {
		logEvent = logEvent.Int64("user_id", sender.ID)
	}
	logEvent.Msg("Handler failed")

	if c.Chat() != nil {
		_ = c.Send("❌ Sorry, something went wrong. Please try again later.")
	}
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware(bans BanChecker) {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(BanMiddleware(bans))
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/profile", b.accountHandler.HandleProfile)
	b.bot.Handle("/daily", b.accountHandler.HandleDaily)
	b.bot.Handle("/leaderboard", b.accountHandler.HandleLeaderboard)

	b.bot.Handle("/guild_create", b.guildHandler.HandleCreate)
	b.bot.Handle("/guild_join", b.guildHandler.HandleJoin)
	b.bot.Handle("/guild_leave", b.guildHandler.HandleLeave)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin", b.adminHandler.HandleAdmin)
	adminGroup.Handle("/add_item", b.adminHandler.HandleAddItem)
	adminGroup.Handle("/set_setting", b.adminHandler.HandleSetSetting)
	adminGroup.Handle("/give", b.adminHandler.HandleGive)
	adminGroup.Handle("/set_shi", b.adminHandler.HandleSetShi)
	adminGroup.Handle("/ban", b.adminHandler.HandleBan)
	adminGroup.Handle("/unban", b.adminHandler.HandleUnban)

	b.bot.Handle("/cancel", b.paymentHandler.HandleCancel)
	b.bot.Handle(tele.OnText, b.paymentHandler.HandleText)
	b.bot.Handle(tele.OnCheckout, b.paymentHandler.HandleCheckout)
	b.bot.Handle(tele.OnPayment, b.paymentHandler.HandlePayment)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes inline button presses by their data.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	data := menu.NormalizeCallback(callback.Data)
	log.Debug().Str("data", data).Msg("Callback received")

	switch data {
	case menu.CallbackStart:
		return b.accountHandler.HandleMenuCallback(c)
	case menu.CallbackProfile:
		return b.accountHandler.HandleProfileCallback(c)
	case menu.CallbackBattle:
		return b.gameHandler.HandleBattleCallback(c)
	case menu.CallbackShop:
		return b.shopHandler.HandleShopCallback(c)
	case menu.CallbackBuyShi:
		return b.paymentHandler.HandleBuyShiCallback(c)
	case menu.CallbackAdminStats, menu.CallbackAdminItems, menu.CallbackAdminTxs:
		return b.handleAdminCallback(c, data)
	}

	if strings.HasPrefix(data, menu.CallbackBuyItem) {
		return b.shopHandler.HandleBuyItemCallback(c, data)
	}

	log.Debug().Str("data", data).Msg("Unknown callback")
	return c.Respond()
}

func (b *Bot) handleAdminCallback(c tele.Context, data string) error {
	sender := c.Sender()
	if sender == nil || !b.cfg.IsAdmin(sender.ID) {
		return c.Respond(&tele.CallbackResponse{Text: "⛔", ShowAlert: true})
	}

	switch data {
	case menu.CallbackAdminStats:
		return b.adminHandler.HandleStatsCallback(c)
	case menu.CallbackAdminItems:
		return b.adminHandler.HandleItemsCallback(c)
	default:
		return b.adminHandler.HandleTransactionsCallback(c)
	}
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("bot", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// Telebot returns the underlying telebot instance.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}
