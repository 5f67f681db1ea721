package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			shi_balance NUMERIC(20,8) NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			exp INT NOT NULL DEFAULT 0,
			stars_balance BIGINT NOT NULL DEFAULT 0,
			coins BIGINT NOT NULL DEFAULT 0,
			last_daily BIGINT NOT NULL DEFAULT 0,
			banned BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_shi_balance ON users(shi_balance DESC);
	`},
	{"settings", `
		CREATE TABLE IF NOT EXISTS settings (
			keyname TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`},
	{"items", `
		CREATE TABLE IF NOT EXISTS items (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			power INT NOT NULL DEFAULT 0,
			price_shi NUMERIC(20,8) NOT NULL
		);
	`},
	{"inventory", `
		CREATE TABLE IF NOT EXISTS inventory (
			user_id BIGINT NOT NULL REFERENCES users(user_id),
			item_id BIGINT NOT NULL REFERENCES items(id),
			qty INT NOT NULL DEFAULT 1 CHECK (qty >= 1),
			PRIMARY KEY (user_id, item_id)
		);
	`},
	{"transactions", `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			amount NUMERIC(20,8) NOT NULL,
			currency VARCHAR(10) NOT NULL,
			meta TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, id DESC);
	`},
	{"battles", `
		CREATE TABLE IF NOT EXISTS battles (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			opponent TEXT NOT NULL,
			win BOOLEAN NOT NULL,
			reward_shi NUMERIC(20,8) NOT NULL DEFAULT 0,
			reward_coins BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{"referrals", `
		CREATE TABLE IF NOT EXISTS referrals (
			id BIGSERIAL PRIMARY KEY,
			referrer BIGINT NOT NULL,
			referred BIGINT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{"guilds", `
		CREATE TABLE IF NOT EXISTS guilds (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			owner BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS guild_members (
			guild_id BIGINT NOT NULL REFERENCES guilds(id),
			user_id BIGINT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (guild_id, user_id)
		);
	`},
}

// Migrate creates every table the bot needs. It is safe to run on each start.
func Migrate(ctx context.Context, db Execer) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", i+1, m.name, err)
		}
		log.Debug().Int("step", i+1).Str("table", m.name).Msg("Migration applied")
	}

	log.Info().Int("steps", len(migrations)).Msg("All migrations completed successfully")
	return nil
}
