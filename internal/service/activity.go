package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"shi-bot/internal/game/battle"
	"shi-bot/internal/model"
	"shi-bot/internal/repository"
)

// ErrInvalidGuildName is returned for blank guild names.
var ErrInvalidGuildName = errors.New("guild name must not be empty")

// MaxGuildNameLength bounds guild names in runes.
const MaxGuildNameLength = 64

// BattleResult is a fought battle and the rewards it produced.
type BattleResult struct {
	Outcome   battle.Outcome
	Converted decimal.Decimal // SHI converted from coins after the reward
	User      *model.User
}

// ActivityService records battles, referrals and guild membership.
type ActivityService struct {
	economy        *EconomyService
	store          *repository.Store
	referralReward decimal.Decimal
}

// NewActivityService creates a new ActivityService instance.
func NewActivityService(economy *EconomyService, store *repository.Store, referralReward decimal.Decimal) *ActivityService {
	return &ActivityService{
		economy:        economy,
		store:          store,
		referralReward: referralReward,
	}
}

// RecordBattle stores a battle outcome without touching balances.
func (s *ActivityService) RecordBattle(ctx context.Context, userID int64, opponent string, win bool, rewardShi decimal.Decimal, rewardCoins int64) (*model.Battle, error) {
	return s.store.Activity.RecordBattle(ctx, userID, opponent, win, rewardShi, rewardCoins)
}

// Battle fights an NPC. Coins are awarded win or lose, then converted to SHI
// in whole chunks, and the fight is recorded with the converted amount.
func (s *ActivityService) Battle(ctx context.Context, userID int64) (*BattleResult, error) {
	e := s.economy
	result := &BattleResult{}

	err := e.mutate(ctx, userID, func(tx *repository.Store, user *model.User) error {
		out := battle.Fight(e.rng, user.Level)

		updated, err := addCoinsTx(ctx, tx, userID, out.RewardCoins, "battle")
		if err != nil {
			return err
		}
		converted, err := convertTx(ctx, tx, updated, e.opts.CoinsPerShi, e.opts.ShiPerChunk)
		if err != nil {
			return err
		}
		if _, err := tx.Activity.RecordBattle(ctx, userID, battle.Opponent, out.Win, converted, out.RewardCoins); err != nil {
			return err
		}
		final, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		result.Outcome = out
		result.Converted = converted
		result.User = final
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run battle: %w", err)
	}

	log.Debug().
		Int64("user_id", userID).
		Bool("win", result.Outcome.Win).
		Int64("coins", result.Outcome.RewardCoins).
		Str("converted", result.Converted.String()).
		Msg("Battle fought")

	return result, nil
}

// AddReferral credits referrer with the referral reward for bringing in
// referred. It returns false for self-referrals, for unknown referrers and
// for users that already have a referrer.
func (s *ActivityService) AddReferral(ctx context.Context, referrer, referred int64) (bool, error) {
	if referrer == referred {
		return false, nil
	}
	known, err := s.store.Users.Exists(ctx, referrer)
	if err != nil {
		return false, fmt.Errorf("failed to add referral: %w", err)
	}
	if !known {
		log.Debug().Int64("referrer", referrer).Int64("referred", referred).Msg("Ignoring referral from unknown user")
		return false, nil
	}

	added := false
	err = s.economy.mutate(ctx, referrer, func(tx *repository.Store, _ *model.User) error {
		ok, err := tx.Activity.AddReferral(ctx, referrer, referred)
		if err != nil || !ok {
			return err
		}
		meta := "referred:" + strconv.FormatInt(referred, 10)
		if _, err := creditShiTx(ctx, tx, referrer, s.referralReward, model.TxTypeReferralReward, meta); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to add referral: %w", err)
	}

	if added {
		log.Info().Int64("user_id", referrer).Int64("referred", referred).Msg("Referral rewarded")
	}
	return added, nil
}

// ReferralCount returns how many users the referrer has brought in.
func (s *ActivityService) ReferralCount(ctx context.Context, referrer int64) (int64, error) {
	return s.store.Activity.CountReferrals(ctx, referrer)
}

// CreateGuild creates a guild and makes the owner its first member.
func (s *ActivityService) CreateGuild(ctx context.Context, name string, owner int64) (*model.Guild, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidGuildName
	}
	if r := []rune(name); len(r) > MaxGuildNameLength {
		name = string(r[:MaxGuildNameLength])
	}

	var guild *model.Guild
	err := s.economy.mutate(ctx, owner, func(tx *repository.Store, _ *model.User) error {
		var err error
		if guild, err = tx.Guilds.Create(ctx, name, owner); err != nil {
			return err
		}
		return tx.Guilds.AddMember(ctx, guild.ID, owner)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create guild: %w", err)
	}

	log.Info().Int64("guild_id", guild.ID).Int64("user_id", owner).Str("name", name).Msg("Guild created")
	return guild, nil
}

// JoinGuild adds the user to a guild. It returns false when the guild does
// not exist; joining twice leaves a single membership.
func (s *ActivityService) JoinGuild(ctx context.Context, guildID, userID int64) (bool, error) {
	if _, err := s.store.Guilds.GetByID(ctx, guildID); err != nil {
		if errors.Is(err, repository.ErrGuildNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := s.store.Guilds.AddMember(ctx, guildID, userID); err != nil {
		return false, err
	}
	return true, nil
}

// IsGuildMember reports whether the user belongs to the guild.
func (s *ActivityService) IsGuildMember(ctx context.Context, guildID, userID int64) (bool, error) {
	return s.store.Guilds.IsMember(ctx, guildID, userID)
}

// LeaveGuild removes the membership and reports whether one existed.
func (s *ActivityService) LeaveGuild(ctx context.Context, guildID, userID int64) (bool, error) {
	return s.store.Guilds.RemoveMember(ctx, guildID, userID)
}

// GuildsOf returns the guilds the user belongs to.
func (s *ActivityService) GuildsOf(ctx context.Context, userID int64) ([]*model.Guild, error) {
	return s.store.Guilds.ListByMember(ctx, userID)
}
