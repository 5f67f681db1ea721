package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/menu"
	"shi-bot/internal/service"
)

// AccountHandler handles registration, profile, daily reward and leaderboard.
type AccountHandler struct {
	economy   *service.EconomyService
	activity  *service.ActivityService
	catalog   *service.CatalogService
	reporting *service.ReportingService
	currency  string
	topSize   int
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	economy *service.EconomyService,
	activity *service.ActivityService,
	catalog *service.CatalogService,
	reporting *service.ReportingService,
	currency string,
	topSize int,
) *AccountHandler {
	return &AccountHandler{
		economy:   economy,
		activity:  activity,
		catalog:   catalog,
		reporting: reporting,
		currency:  currency,
		topSize:   topSize,
	}
}

// HandleStart registers the sender, credits an inviter for new users
// arriving through a ref_<id> link and shows the main menu.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	_, created, err := h.economy.Register(ctx, sender.ID, displayName(sender))
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to register user")
		return c.Send("❌ Something went wrong, please try again later.")
	}

	if created && c.Message() != nil {
		if referrer, ok := ParseReferral(c.Message().Payload); ok {
			rewarded, err := h.activity.AddReferral(ctx, referrer, sender.ID)
			if err != nil {
				log.Error().Err(err).
					Int64("referrer", referrer).
					Int64("referred", sender.ID).
					Msg("Failed to record referral")
			} else if rewarded {
				log.Info().Int64("referrer", referrer).Int64("referred", sender.ID).Msg("Referral recorded")
			}
		}
	}

	return c.Send(menu.Welcome(created), menu.MainMenu(h.currency))
}

// HandleMenuCallback returns to the main menu.
func (h *AccountHandler) HandleMenuCallback(c tele.Context) error {
	_ = c.Respond()
	return c.EditOrSend(menu.Welcome(false), menu.MainMenu(h.currency))
}

func (h *AccountHandler) profileText(ctx context.Context, userID int64) (string, error) {
	user, err := h.economy.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	inv, err := h.catalog.Inventory(ctx, userID)
	if err != nil {
		return "", err
	}
	guilds, err := h.activity.GuildsOf(ctx, userID)
	if err != nil {
		return "", err
	}
	return menu.FormatProfile(user, h.currency, inv, guilds), nil
}

// HandleProfile handles the /profile command.
func (h *AccountHandler) HandleProfile(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	text, err := h.profileText(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load profile")
		return c.Send("❌ Could not load your profile.")
	}
	return c.Send(text, menu.BackMenu())
}

// HandleProfileCallback renders the profile in place of the menu.
func (h *AccountHandler) HandleProfileCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	text, err := h.profileText(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load profile")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Could not load your profile.", ShowAlert: true})
	}
	_ = c.Respond()
	return c.EditOrSend(text, menu.BackMenu())
}

// HandleDaily handles the /daily command.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	res, err := h.economy.ClaimDaily(context.Background(), sender.ID, time.Now())
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Daily claim failed")
		return c.Send("❌ Daily reward failed, please try again later.")
	}
	return c.Send(menu.FormatDaily(res.Claimed, res.Shi, res.Coins, res.Remaining, h.currency))
}

// HandleLeaderboard handles the /leaderboard command.
func (h *AccountHandler) HandleLeaderboard(c tele.Context) error {
	users, err := h.reporting.Leaderboard(context.Background(), h.topSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load leaderboard")
		return c.Send("❌ Could not load the leaderboard.")
	}
	return c.Send(menu.FormatLeaderboard(users, h.currency))
}
