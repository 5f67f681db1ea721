package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"shi-bot/internal/model"
)

// GuildRepository handles guilds and their memberships.
type GuildRepository struct {
	db DBTX
}

// NewGuildRepository creates a new GuildRepository instance.
func NewGuildRepository(db DBTX) *GuildRepository {
	return &GuildRepository{db: db}
}

// Create inserts a guild and returns it with its assigned id.
func (r *GuildRepository) Create(ctx context.Context, name string, owner int64) (*model.Guild, error) {
	const query = `
		INSERT INTO guilds (name, owner, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, owner, created_at
	`

	var g model.Guild
	if err := r.db.QueryRow(ctx, query, name, owner).Scan(&g.ID, &g.Name, &g.Owner, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create guild: %w", err)
	}
	return &g, nil
}

// GetByID retrieves a guild.
// Returns ErrGuildNotFound if the guild does not exist.
func (r *GuildRepository) GetByID(ctx context.Context, id int64) (*model.Guild, error) {
	const query = `SELECT id, name, owner, created_at FROM guilds WHERE id = $1`

	var g model.Guild
	if err := r.db.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name, &g.Owner, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGuildNotFound
		}
		return nil, fmt.Errorf("failed to get guild: %w", err)
	}
	return &g, nil
}

// AddMember inserts a membership. Adding an existing member is a no-op.
func (r *GuildRepository) AddMember(ctx context.Context, guildID, userID int64) error {
	const query = `
		INSERT INTO guild_members (guild_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (guild_id, user_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to add guild member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership and reports whether one existed.
func (r *GuildRepository) RemoveMember(ctx context.Context, guildID, userID int64) (bool, error) {
	const query = `DELETE FROM guild_members WHERE guild_id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove guild member: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IsMember checks whether a user belongs to a guild.
func (r *GuildRepository) IsMember(ctx context.Context, guildID, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM guild_members WHERE guild_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.QueryRow(ctx, query, guildID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check guild membership: %w", err)
	}
	return ok, nil
}

// ListByMember returns the guilds a user belongs to, ordered by id.
func (r *GuildRepository) ListByMember(ctx context.Context, userID int64) ([]*model.Guild, error) {
	const query = `
		SELECT g.id, g.name, g.owner, g.created_at
		FROM guilds g
		JOIN guild_members m ON m.guild_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var guilds []*model.Guild
	for rows.Next() {
		var g model.Guild
		if err := rows.Scan(&g.ID, &g.Name, &g.Owner, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guild: %w", err)
		}
		guilds = append(guilds, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guilds: %w", err)
	}

	return guilds, nil
}

// CountMembers returns the number of members in a guild.
func (r *GuildRepository) CountMembers(ctx context.Context, guildID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM guild_members WHERE guild_id = $1`, guildID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count guild members: %w", err)
	}
	return n, nil
}
