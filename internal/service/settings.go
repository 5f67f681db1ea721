package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"shi-bot/internal/model"
	"shi-bot/internal/repository"
)

// Fallbacks used when a setting is missing or unusable.
const (
	DefaultStarsPerShi   = 5
	DefaultDailyCoinsMin = 10
	DefaultDailyCoinsMax = 30
)

// DefaultDailyShi is the daily SHI reward used when the setting is absent.
var DefaultDailyShi = decimal.NewFromInt(1)

// SettingsService reads and writes runtime-tunable economy settings.
type SettingsService struct {
	repo *repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService instance.
func NewSettingsService(repo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the stored value for key, or def when the key is absent.
func (s *SettingsService) Get(ctx context.Context, key, def string) (string, error) {
	value, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, key, value)
}

// Seed writes the given defaults for keys that are not yet stored.
// Existing values are never overwritten.
func (s *SettingsService) Seed(ctx context.Context, defaults map[string]string) error {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		wrote, err := s.repo.SetIfAbsent(ctx, key, defaults[key])
		if err != nil {
			return err
		}
		if wrote {
			log.Info().Str("key", key).Str("value", defaults[key]).Msg("Seeded setting")
		}
	}
	return nil
}

// Int returns the setting parsed as an integer. An unparsable stored value
// falls back to def.
func (s *SettingsService) Int(ctx context.Context, key string, def int) (int, error) {
	raw, err := s.Get(ctx, key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Setting is not an integer, using default")
		return def, nil
	}
	return n, nil
}

// Decimal returns the setting parsed as a decimal. An unparsable stored value
// falls back to def.
func (s *SettingsService) Decimal(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw, err := s.Get(ctx, key, "")
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Setting is not a number, using default")
		return def, nil
	}
	return d, nil
}

// StarsPerShi returns how many Telegram Stars buy one SHI. Non-positive
// values are treated as unset.
func (s *SettingsService) StarsPerShi(ctx context.Context) (int, error) {
	n, err := s.Int(ctx, model.SettingStarsPerShi, DefaultStarsPerShi)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		log.Warn().Int("value", n).Msg("STARS_PER_SHI must be positive, using default")
		return DefaultStarsPerShi, nil
	}
	return n, nil
}

// DailyShi returns the SHI credited by a daily claim.
func (s *SettingsService) DailyShi(ctx context.Context) (decimal.Decimal, error) {
	return s.Decimal(ctx, model.SettingDailyShi, DefaultDailyShi)
}

// DailyCoinsRange returns the inclusive bounds of the daily coin reward,
// ordered so that lo <= hi.
func (s *SettingsService) DailyCoinsRange(ctx context.Context) (lo, hi int, err error) {
	if lo, err = s.Int(ctx, model.SettingDailyCoinsMin, DefaultDailyCoinsMin); err != nil {
		return 0, 0, err
	}
	if hi, err = s.Int(ctx, model.SettingDailyCoinsMax, DefaultDailyCoinsMax); err != nil {
		return 0, 0, err
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, nil
}
