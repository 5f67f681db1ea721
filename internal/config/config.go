// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Session   SessionConfig   `mapstructure:"session"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token        string `mapstructure:"token"`
	CurrencyName string `mapstructure:"currency_name"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// EconomyConfig holds the economy tuning knobs.
// StarsPerShi, DailyShi and the daily coin bounds only seed the settings
// table on first run; afterwards the settings table is authoritative.
type EconomyConfig struct {
	StarsPerShi        int    `mapstructure:"stars_per_shi"`
	DailyShi           string `mapstructure:"daily_shi"`
	DailyCoinsMin      int    `mapstructure:"daily_coins_min"`
	DailyCoinsMax      int    `mapstructure:"daily_coins_max"`
	DailyCooldownHours int    `mapstructure:"daily_cooldown_hours"`
	CoinsPerShi        int64  `mapstructure:"coins_per_shi"`
	ShiPerChunk        string `mapstructure:"shi_per_chunk"`
	ReferralReward     string `mapstructure:"referral_reward"`
	LeaderboardSize    int    `mapstructure:"leaderboard_size"`
	SeedSampleItems    bool   `mapstructure:"seed_sample_items"`
}

// SessionConfig holds purchase session configuration.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SchedulerConfig holds cron specs (with seconds field) for periodic jobs.
type SchedulerConfig struct {
	SessionSweep string `mapstructure:"session_sweep"`
	StatsReport  string `mapstructure:"stats_report"`
}

// HTTPConfig holds the ops HTTP API configuration.
// An empty Addr disables the server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g., BOT_TOKEN, DATABASE_HOST, ECONOMY_COINS_PER_SHI
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindLegacyEnv lets the bare settings names (STARS_PER_SHI, ...) provide
// first-run defaults alongside the prefixed ECONOMY_* variables.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"economy.stars_per_shi":   {"ECONOMY_STARS_PER_SHI", "STARS_PER_SHI"},
		"economy.daily_shi":       {"ECONOMY_DAILY_SHI", "DAILY_SHI"},
		"economy.daily_coins_min": {"ECONOMY_DAILY_COINS_MIN", "DAILY_COINS_MIN"},
		"economy.daily_coins_max": {"ECONOMY_DAILY_COINS_MAX", "DAILY_COINS_MAX"},
		"economy.coins_per_shi":   {"ECONOMY_COINS_PER_SHI", "COINS_PER_SHI"},
		"bot.currency_name":       {"BOT_CURRENCY_NAME", "CURRENCY_NAME"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.currency_name", "SHI")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "shibot")
	v.SetDefault("database.name", "shibot")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Economy defaults
	v.SetDefault("economy.stars_per_shi", 5)
	v.SetDefault("economy.daily_shi", "1")
	v.SetDefault("economy.daily_coins_min", 10)
	v.SetDefault("economy.daily_coins_max", 30)
	v.SetDefault("economy.daily_cooldown_hours", 24)
	v.SetDefault("economy.coins_per_shi", 100)
	v.SetDefault("economy.shi_per_chunk", "0.01")
	v.SetDefault("economy.referral_reward", "0.5")
	v.SetDefault("economy.leaderboard_size", 10)
	v.SetDefault("economy.seed_sample_items", true)

	v.SetDefault("session.ttl", "10m")

	v.SetDefault("scheduler.session_sweep", "0 * * * * *")
	v.SetDefault("scheduler.stats_report", "0 0 * * * *")

	v.SetDefault("log.level", "info")
}

// Validate checks the economy values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Economy.CoinsPerShi <= 0 {
		return fmt.Errorf("economy.coins_per_shi must be positive, got %d", c.Economy.CoinsPerShi)
	}
	if c.Economy.StarsPerShi <= 0 {
		return fmt.Errorf("economy.stars_per_shi must be positive, got %d", c.Economy.StarsPerShi)
	}
	if c.Economy.DailyCoinsMin > c.Economy.DailyCoinsMax {
		return fmt.Errorf("economy.daily_coins_min (%d) exceeds daily_coins_max (%d)",
			c.Economy.DailyCoinsMin, c.Economy.DailyCoinsMax)
	}
	for name, raw := range map[string]string{
		"economy.daily_shi":       c.Economy.DailyShi,
		"economy.shi_per_chunk":   c.Economy.ShiPerChunk,
		"economy.referral_reward": c.Economy.ReferralReward,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}
	return nil
}

// ShiPerChunkDecimal returns the parsed SHI credited per converted coin chunk.
func (e *EconomyConfig) ShiPerChunkDecimal() decimal.Decimal {
	return decimal.RequireFromString(e.ShiPerChunk)
}

// ReferralRewardDecimal returns the parsed referral reward.
func (e *EconomyConfig) ReferralRewardDecimal() decimal.Decimal {
	return decimal.RequireFromString(e.ReferralReward)
}

// SettingDefaults returns the first-run values for the settings table.
func (e *EconomyConfig) SettingDefaults() map[string]string {
	return map[string]string{
		"STARS_PER_SHI":   strconv.Itoa(e.StarsPerShi),
		"DAILY_SHI":       e.DailyShi,
		"DAILY_COINS_MIN": strconv.Itoa(e.DailyCoinsMin),
		"DAILY_COINS_MAX": strconv.Itoa(e.DailyCoinsMax),
	}
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
