package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/menu"
	"shi-bot/internal/service"
)

// GameHandler handles NPC battles.
type GameHandler struct {
	activity *service.ActivityService
	currency string
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(activity *service.ActivityService, currency string) *GameHandler {
	return &GameHandler{activity: activity, currency: currency}
}

// HandleBattleCallback fights an NPC and shows the outcome.
func (h *GameHandler) HandleBattleCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	res, err := h.activity.Battle(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Battle failed")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Battle failed, please try again later.", ShowAlert: true})
	}

	log.Info().
		Int64("user_id", sender.ID).
		Bool("win", res.Outcome.Win).
		Int64("coins", res.Outcome.RewardCoins).
		Str("converted", res.Converted.String()).
		Msg("Battle finished")

	_ = c.Respond()
	return c.EditOrSend(
		menu.FormatBattle(res.Outcome.Win, res.Outcome.RewardCoins, res.Converted, h.currency),
		menu.BackMenu(),
	)
}
