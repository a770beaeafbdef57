package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"royale-tracker/internal/domain"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

// Upsert stores the player profile, keyed by nickname. Re-saving a player
// refreshes the mutable profile fields.
func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	id := player.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	now := time.Now()
	_, err := r.db.ExecContext(ctx, `INSERT INTO players
		(id, nickname, level, trophies, total_games, wins, losses, clan, last_fetch_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (nickname) DO UPDATE SET
			level = excluded.level,
			trophies = excluded.trophies,
			total_games = excluded.total_games,
			wins = excluded.wins,
			losses = excluded.losses,
			clan = excluded.clan,
			last_fetch_at = excluded.last_fetch_at,
			updated_at = excluded.updated_at`,
		id, player.Nickname, player.Level, player.Trophies,
		player.TotalGames, player.Wins, player.Losses, player.Clan,
		player.LastFetchAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player %q: %w", player.Nickname, err)
	}

	r.logger.Debug().Str("nickname", player.Nickname).Msg("player stored")
	return nil
}

// FindByNickname returns every player whose nickname contains the query,
// case-insensitive.
func (r *PlayerRepository) FindByNickname(ctx context.Context, nickname string) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, nickname, level, trophies, total_games, wins, losses, clan, last_fetch_at, created_at, updated_at
		FROM players WHERE nickname LIKE ? COLLATE NOCASE ORDER BY nickname`,
		"%"+nickname+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find players by nickname %q: %w", nickname, err)
	}
	defer rows.Close()

	players := []domain.Player{}
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(
			&p.ID, &p.Nickname, &p.Level, &p.Trophies,
			&p.TotalGames, &p.Wins, &p.Losses, &p.Clan,
			&p.LastFetchAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}
