package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"royale-tracker/internal/constants"
	"royale-tracker/internal/domain"
)

// ErrNotFound is returned by point lookups that match no row.
var ErrNotFound = errors.New("record not found")

const battleColumns = `id, battle_time, player1, player2,
	player1_towers_destroyed, player2_towers_destroyed, winner, loser,
	player1_deck, player2_deck, player1_trophies, player2_trophies,
	created_at, updated_at`

type BattleRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewBattleRepository(sqlDB *sql.DB, logger zerolog.Logger) *BattleRepository {
	return &BattleRepository{db: sqlDB, logger: logger}
}

// ListByTimeRange returns every battle with battle_time in [start, end],
// inclusive on both ends, oldest first.
func (r *BattleRepository) ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Battle, error) {
	query := fmt.Sprintf(`SELECT %s FROM battles WHERE battle_time >= ? AND battle_time <= ? ORDER BY battle_time`, battleColumns)
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles by time range: %w", err)
	}
	defer rows.Close()
	return scanBattles(rows)
}

// ListAll returns the whole corpus, oldest first.
func (r *BattleRepository) ListAll(ctx context.Context) ([]domain.Battle, error) {
	query := fmt.Sprintf(`SELECT %s FROM battles ORDER BY battle_time`, battleColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	defer rows.Close()
	return scanBattles(rows)
}

// FindWithCard returns the oldest battle in which either deck contains a
// card of the given name, or ErrNotFound. Decks are stored as JSON, so the
// match is on the serialized name field.
func (r *BattleRepository) FindWithCard(ctx context.Context, name string) (*domain.Battle, error) {
	pattern := `%"name":` + string(mustJSON(name)) + `%`
	query := fmt.Sprintf(`SELECT %s FROM battles
		WHERE player1_deck LIKE ? OR player2_deck LIKE ?
		ORDER BY battle_time LIMIT 1`, battleColumns)

	row := r.db.QueryRowContext(ctx, query, pattern, pattern)
	battle, err := scanBattle(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find battle with card %q: %w", name, err)
	}
	return battle, nil
}

// ListByPlayer returns battles where player1 matches the nickname,
// case-insensitive substring semantics.
func (r *BattleRepository) ListByPlayer(ctx context.Context, nickname string) ([]domain.Battle, error) {
	query := fmt.Sprintf(`SELECT %s FROM battles
		WHERE player1 LIKE ? COLLATE NOCASE ORDER BY battle_time DESC`, battleColumns)
	rows, err := r.db.QueryContext(ctx, query, "%"+nickname+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list battles for player %q: %w", nickname, err)
	}
	defer rows.Close()
	return scanBattles(rows)
}

// UpsertBatch stores a batch of battles in one transaction. Re-ingested
// battles (same time and participants) are skipped, so replaying a
// battle log is idempotent. Returns the number of rows actually inserted.
func (r *BattleRepository) UpsertBatch(ctx context.Context, battles []domain.Battle) (int, error) {
	if len(battles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO battles (`+battleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (battle_time, player1, player2) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := 0; i < len(battles); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(battles) {
			end = len(battles)
		}

		for _, b := range battles[i:end] {
			id := b.ID
			if id == "" {
				id, err = gonanoid.New()
				if err != nil {
					return 0, fmt.Errorf("failed to generate nanoid: %w", err)
				}
			}

			deck1, err := json.Marshal(b.Player1Deck)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal player1 deck: %w", err)
			}
			deck2, err := json.Marshal(b.Player2Deck)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal player2 deck: %w", err)
			}

			now := time.Now()
			res, err := stmt.ExecContext(ctx,
				id, b.BattleTime, b.Player1, b.Player2,
				b.Player1TowersDestroyed, b.Player2TowersDestroyed,
				string(b.Winner), string(b.Loser),
				string(deck1), string(deck2),
				b.Player1Trophies, b.Player2Trophies,
				now, now,
			)
			if err != nil {
				return 0, fmt.Errorf("failed to insert battle %s vs %s: %w", b.Player1, b.Player2, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit battles: %w", err)
	}

	r.logger.Debug().Int("total", len(battles)).Int("inserted", inserted).Msg("battle batch stored")
	return inserted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBattle(row rowScanner) (*domain.Battle, error) {
	var b domain.Battle
	var winner, loser, deck1, deck2 string
	err := row.Scan(
		&b.ID, &b.BattleTime, &b.Player1, &b.Player2,
		&b.Player1TowersDestroyed, &b.Player2TowersDestroyed,
		&winner, &loser, &deck1, &deck2,
		&b.Player1Trophies, &b.Player2Trophies,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Winner = domain.Side(winner)
	b.Loser = domain.Side(loser)
	if err := json.Unmarshal([]byte(deck1), &b.Player1Deck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player1 deck: %w", err)
	}
	if err := json.Unmarshal([]byte(deck2), &b.Player2Deck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player2 deck: %w", err)
	}
	return &b, nil
}

func scanBattles(rows *sql.Rows) ([]domain.Battle, error) {
	battles := []domain.Battle{}
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, err
		}
		battles = append(battles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return battles, nil
}

func mustJSON(s string) []byte {
	out, _ := json.Marshal(s)
	return out
}
