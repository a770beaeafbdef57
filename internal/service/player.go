package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"royale-tracker/internal/api"
	"royale-tracker/internal/constants"
	"royale-tracker/internal/domain"
	"royale-tracker/internal/repository"
)

// battleTimeLayout is the compact timestamp the game API emits,
// e.g. "20260301T195102.000Z". Normalized here; nothing downstream parses it.
const battleTimeLayout = "20060102T150405.000Z"

type PlayerService struct {
	clash      *api.ClashClient
	playerRepo *repository.PlayerRepository
	battleRepo *repository.BattleRepository
	logger     zerolog.Logger
}

func NewPlayerService(clash *api.ClashClient, playerRepo *repository.PlayerRepository, battleRepo *repository.BattleRepository, logger zerolog.Logger) *PlayerService {
	return &PlayerService{clash: clash, playerRepo: playerRepo, battleRepo: battleRepo, logger: logger}
}

// IngestResult summarizes one player ingestion.
type IngestResult struct {
	Nickname        string `json:"nickname"`
	BattlesFetched  int    `json:"battlesFetched"`
	BattlesInserted int    `json:"battlesInserted"`
	BattlesSkipped  int    `json:"battlesSkipped"`
}

// SavePlayerAndBattles fetches a player's profile and battle log from the
// game API and stores both. The two fetches run in parallel. Battle-log
// entries without a decisive crown difference are skipped: the game's
// ladder rules tie-break every match, so an equal crown count only shows up
// on modes this tracker does not ingest.
func (s *PlayerService) SavePlayerAndBattles(ctx context.Context, tag string) (*IngestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
	if tag == "" {
		return nil, fmt.Errorf("%w: player tag is required", ErrInvalidInput)
	}

	s.logger.Info().Str("tag", tag).Msg("ingesting player")

	profile, battleLog, err := s.fetchPlayerData(ctx, tag)
	if err != nil {
		return nil, err
	}

	player := mapPlayer(profile)
	if err := s.playerRepo.Upsert(ctx, player); err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("failed to store player")
		return nil, fmt.Errorf("failed to store player: %w", err)
	}

	battles := make([]domain.Battle, 0, len(battleLog))
	skipped := 0
	for _, entry := range battleLog {
		battle, ok, err := mapBattle(entry)
		if err != nil {
			s.logger.Warn().Err(err).Str("tag", tag).Msg("skipping malformed battle log entry")
			skipped++
			continue
		}
		if !ok {
			skipped++
			continue
		}
		battles = append(battles, *battle)
	}

	inserted, err := s.battleRepo.UpsertBatch(ctx, battles)
	if err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("failed to store battles")
		return nil, fmt.Errorf("failed to store battles: %w", err)
	}

	result := &IngestResult{
		Nickname:        player.Nickname,
		BattlesFetched:  len(battleLog),
		BattlesInserted: inserted,
		BattlesSkipped:  skipped,
	}

	s.logger.Info().
		Str("nickname", player.Nickname).
		Int("fetched", result.BattlesFetched).
		Int("inserted", result.BattlesInserted).
		Int("skipped", result.BattlesSkipped).
		Msg("player ingested")
	return result, nil
}

// SaveAll ingests a list of player tags sequentially, continuing past
// per-player failures. Returns one result per successful tag.
func (s *PlayerService) SaveAll(ctx context.Context, tags []string) ([]IngestResult, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: at least one player tag is required", ErrInvalidInput)
	}

	results := make([]IngestResult, 0, len(tags))
	failed := 0
	for _, tag := range tags {
		result, err := s.SavePlayerAndBattles(ctx, tag)
		if err != nil {
			s.logger.Warn().Err(err).Str("tag", tag).Msg("failed to ingest player, continuing")
			failed++
			continue
		}
		results = append(results, *result)
	}

	s.logger.Info().Int("ingested", len(results)).Int("failed", failed).Msg("bulk ingestion finished")
	return results, nil
}

// Profile returns stored players whose nickname matches, case-insensitive.
func (s *PlayerService) Profile(ctx context.Context, nickname string) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", ErrInvalidInput)
	}
	return s.playerRepo.FindByNickname(ctx, nickname)
}

// Battles returns the stored battles a player appears in as player1.
func (s *PlayerService) Battles(ctx context.Context, nickname string) ([]domain.Battle, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", ErrInvalidInput)
	}
	return s.battleRepo.ListByPlayer(ctx, nickname)
}

func (s *PlayerService) fetchPlayerData(ctx context.Context, tag string) (*api.PlayerResponse, api.BattleLog, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	var profile *api.PlayerResponse
	var battleLog api.BattleLog

	g.Go(func() error {
		var err error
		profile, err = s.clash.GetPlayer(gCtx, tag)
		return err
	})

	g.Go(func() error {
		var err error
		battleLog, err = s.clash.GetBattleLog(gCtx, tag)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("failed to fetch player data from API")
		return nil, nil, fmt.Errorf("failed to fetch player data: %w", err)
	}

	s.logger.Debug().Str("tag", tag).Int("battle_count", len(battleLog)).Msg("player data fetched")
	return profile, battleLog, nil
}

func mapPlayer(p *api.PlayerResponse) *domain.Player {
	clan := "No clan"
	if p.Clan != nil && p.Clan.Name != "" {
		clan = p.Clan.Name
	}
	return &domain.Player{
		Nickname:    p.Name,
		Level:       p.ExpLevel,
		Trophies:    p.Trophies,
		TotalGames:  p.BattleCount,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Clan:        clan,
		LastFetchAt: time.Now(),
	}
}

// mapBattle converts one battle-log entry into a domain battle. The second
// return is false for entries this tracker does not model: missing
// participants or a crown tie.
func mapBattle(entry api.BattleLogEntry) (*domain.Battle, bool, error) {
	if len(entry.Team) == 0 || len(entry.Opponent) == 0 {
		return nil, false, nil
	}

	team, opponent := entry.Team[0], entry.Opponent[0]
	if team.Crowns == opponent.Crowns {
		return nil, false, nil
	}

	battleTime, err := time.Parse(battleTimeLayout, entry.BattleTime)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse battle time %q: %w", entry.BattleTime, err)
	}

	winner, loser := domain.Player1, domain.Player2
	if opponent.Crowns > team.Crowns {
		winner, loser = domain.Player2, domain.Player1
	}

	return &domain.Battle{
		BattleTime:             battleTime,
		Player1:                team.Name,
		Player2:                opponent.Name,
		Player1TowersDestroyed: team.Crowns,
		Player2TowersDestroyed: opponent.Crowns,
		Winner:                 winner,
		Loser:                  loser,
		Player1Deck:            mapDeck(team.Cards),
		Player2Deck:            mapDeck(opponent.Cards),
		Player1Trophies:        team.StartingTrophies,
		Player2Trophies:        opponent.StartingTrophies,
	}, true, nil
}

func mapDeck(cards []api.BattleCard) domain.Deck {
	deck := make(domain.Deck, len(cards))
	for i, c := range cards {
		deck[i] = domain.Card{Name: c.Name, ImageURL: c.IconUrls.Medium}
	}
	return deck
}
