package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"royale-tracker/internal/constants"
	"royale-tracker/internal/domain"
	"royale-tracker/internal/repository"
	"royale-tracker/internal/stats"
)

// ErrNoBattles signals a query that executed successfully but matched zero
// records, for operations where an empty window makes the statistic
// meaningless rather than zero.
var ErrNoBattles = errors.New("no battles found")

// ErrInvalidInput signals a rejected parameter; nothing was computed.
var ErrInvalidInput = errors.New("invalid input")

// BattleStore supplies the battle snapshots the statistics engine consumes.
// Implemented by repository.BattleRepository.
type BattleStore interface {
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]domain.Battle, error)
	ListAll(ctx context.Context) ([]domain.Battle, error)
	FindWithCard(ctx context.Context, name string) (*domain.Battle, error)
}

// BattleStatsService runs one aggregation per call over a point-in-time
// snapshot fetched from the store. Queries are read-only and independent;
// store failures propagate unchanged, retry policy belongs to the caller.
type BattleStatsService struct {
	store  BattleStore
	logger zerolog.Logger
}

func NewBattleStatsService(store BattleStore, logger zerolog.Logger) *BattleStatsService {
	return &BattleStatsService{store: store, logger: logger}
}

func (s *BattleStatsService) snapshot(ctx context.Context, start, end time.Time) ([]domain.Battle, error) {
	battles, err := s.store.ListByTimeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch battle snapshot: %w", err)
	}
	return battles, nil
}

// CardWinRate reports the win/loss percentage of a card over the window.
// Returns ErrNoBattles when no battle in the window contains the card.
func (s *BattleStatsService) CardWinRate(ctx context.Context, card string, start, end time.Time) (*stats.CardReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if card == "" {
		return nil, fmt.Errorf("%w: card is required", ErrInvalidInput)
	}

	battles, err := s.snapshot(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report, ok := stats.CardWinRate(battles, card)
	if !ok {
		s.logger.Info().Str("card", card).Time("start", start).Time("end", end).Msg("no battles with card in window")
		return nil, ErrNoBattles
	}

	s.logger.Info().Str("card", card).Int("total", report.Total).Float64("win_pct", report.WinPct).Msg("card win rate computed")
	return &report, nil
}

// DeckWinRates reports the win rate of every distinct deck in the window
// with winPct >= minWinPct, least successful first.
func (s *BattleStatsService) DeckWinRates(ctx context.Context, minWinPct float64, start, end time.Time) ([]stats.DeckReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	battles, err := s.snapshot(ctx, start, end)
	if err != nil {
		return nil, err
	}

	reports := stats.DeckWinRates(battles, minWinPct)
	s.logger.Info().Int("battles", len(battles)).Int("decks", len(reports)).Float64("min_win_pct", minWinPct).Msg("deck win rates computed")
	return reports, nil
}

// ComboDefeats counts losses in which the combo was a subset of the losing
// deck. The combo arrives as a comma-delimited string; entries are trimmed
// and duplicates collapse. An empty combo is rejected.
func (s *BattleStatsService) ComboDefeats(ctx context.Context, rawCombo string, start, end time.Time) (*stats.ComboDefeatReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	combo := stats.NormalizeCombo(rawCombo)
	if len(combo) == 0 {
		return nil, fmt.Errorf("%w: cardCombo is required", ErrInvalidInput)
	}

	battles, err := s.snapshot(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := stats.ComboDefeats(battles, combo)
	s.logger.Info().Strs("combo", combo).Int("defeats", report.Defeats).Msg("combo defeats counted")
	return &report, nil
}

// TrophyUpsetWins counts close upset wins involving the card: the loser
// destroyed at least two towers and the winner entered with at most
// (1 - trophyPct/100) times the loser's trophies. A zero count is a valid
// report, not an error. The card image falls back to a whole-corpus lookup
// when the card never appears inside the window.
func (s *BattleStatsService) TrophyUpsetWins(ctx context.Context, card string, trophyPct float64, start, end time.Time) (*stats.TrophyUpsetReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if card == "" {
		return nil, fmt.Errorf("%w: card is required", ErrInvalidInput)
	}
	if trophyPct < 0 || trophyPct > 100 {
		return nil, fmt.Errorf("%w: trophyPercentage must be between 0 and 100", ErrInvalidInput)
	}

	battles, err := s.snapshot(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := stats.TrophyUpsetWins(battles, card, trophyPct)
	if report.ImageURL == "" {
		if battle, err := s.store.FindWithCard(ctx, card); err == nil {
			report.ImageURL = stats.FirstImage([]domain.Battle{*battle}, card)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	s.logger.Info().Str("card", card).Float64("trophy_pct", trophyPct).Int("wins", report.Wins).Msg("trophy upset wins counted")
	return &report, nil
}

// FixedSizeComboRates reports win rates of first-N-card combos with
// winPct >= minWinPct, least successful first.
func (s *BattleStatsService) FixedSizeComboRates(ctx context.Context, deckSize int, minWinPct float64, start, end time.Time) ([]stats.ComboReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if deckSize < 1 || deckSize > constants.DeckSize {
		return nil, fmt.Errorf("%w: deckSize must be between 1 and %d", ErrInvalidInput, constants.DeckSize)
	}

	battles, err := s.snapshot(ctx, start, end)
	if err != nil {
		return nil, err
	}

	reports := stats.FixedSizeComboRates(battles, deckSize, minWinPct)
	s.logger.Info().Int("deck_size", deckSize).Int("combos", len(reports)).Msg("fixed-size combo rates computed")
	return reports, nil
}

// PopularDecks ranks every distinct deck in the whole corpus by play count,
// most popular first.
func (s *BattleStatsService) PopularDecks(ctx context.Context) ([]stats.PopularDeckReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	battles, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch battle corpus: %w", err)
	}

	reports := stats.PopularDecks(battles)
	s.logger.Info().Int("battles", len(battles)).Int("decks", len(reports)).Msg("popular decks ranked")
	return reports, nil
}
