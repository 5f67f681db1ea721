package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"shi-bot/internal/service"
)

// GuildHandler handles guild membership commands.
type GuildHandler struct {
	activity *service.ActivityService
}

// NewGuildHandler creates a new GuildHandler.
func NewGuildHandler(activity *service.ActivityService) *GuildHandler {
	return &GuildHandler{activity: activity}
}

// HandleCreate handles /guild_create <name>.
func (h *GuildHandler) HandleCreate(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	name := strings.TrimSpace(strings.Join(c.Args(), " "))
	guild, err := h.activity.CreateGuild(context.Background(), name, sender.ID)
	if errors.Is(err, service.ErrInvalidGuildName) {
		return c.Send("Usage: /guild_create <name>")
	}
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to create guild")
		return c.Send("❌ Could not create the guild.")
	}
	return c.Send(fmt.Sprintf("🏰 Guild #%d \"%s\" created.", guild.ID, guild.Name))
}

// HandleJoin handles /guild_join <id>.
func (h *GuildHandler) HandleJoin(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	guildID, err := parseID(c.Args())
	if err != nil {
		return c.Send("Usage: /guild_join <guild id>")
	}

	ctx := context.Background()
	member, err := h.activity.IsGuildMember(ctx, guildID, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("guild_id", guildID).Msg("Failed to check guild membership")
		return c.Send("❌ Could not join the guild.")
	}
	if member {
		return c.Send(fmt.Sprintf("You are already in guild #%d.", guildID))
	}

	joined, err := h.activity.JoinGuild(ctx, guildID, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("guild_id", guildID).Msg("Failed to join guild")
		return c.Send("❌ Could not join the guild.")
	}
	if !joined {
		return c.Send("❌ Guild not found.")
	}
	return c.Send(fmt.Sprintf("✅ You joined guild #%d.", guildID))
}

// HandleLeave handles /guild_leave <id>.
func (h *GuildHandler) HandleLeave(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	guildID, err := parseID(c.Args())
	if err != nil {
		return c.Send("Usage: /guild_leave <guild id>")
	}

	left, err := h.activity.LeaveGuild(context.Background(), guildID, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("guild_id", guildID).Msg("Failed to leave guild")
		return c.Send("❌ Could not leave the guild.")
	}
	if !left {
		return c.Send("You are not a member of that guild.")
	}
	return c.Send(fmt.Sprintf("👋 You left guild #%d.", guildID))
}
