package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royale-tracker/internal/domain"
)

func TestCardWinRateSingleBattle(t *testing.T) {
	battles := []domain.Battle{battle(domain.Player1, deckAH, deckIP)}

	report, ok := CardWinRate(battles, "A")
	require.True(t, ok)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Wins)
	assert.Equal(t, 0, report.Losses)
	assert.InDelta(t, 100, report.WinPct, 1e-9)
	assert.InDelta(t, 0, report.LossPct, 1e-9)
	assert.Equal(t, "https://cdn.example/cards/A.png", report.ImageURL)
}

func TestCardWinRateCountsLosingSide(t *testing.T) {
	battles := []domain.Battle{
		battle(domain.Player1, deckAH, deckIP), // A wins
		battle(domain.Player2, deckAH, deckIP), // A loses
		battle(domain.Player2, deckIP, deckAH), // A wins
		battle(domain.Player1, deckIP, deckQX), // A absent
	}

	report, ok := CardWinRate(battles, "A")
	require.True(t, ok)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Wins)
	assert.Equal(t, 1, report.Losses)
	assert.InDelta(t, 200.0/3.0, report.WinPct, 1e-9)
}

func TestCardWinRateInvariants(t *testing.T) {
	battles := []domain.Battle{
		battle(domain.Player1, deckAH, deckIP),
		battle(domain.Player2, deckAH, deckIP),
		battle(domain.Player1, deckAH, deckQX),
		battle(domain.Player2, deckQX, deckAH),
		battle(domain.Player1, deckIP, deckQX),
	}

	for _, card := range []string{"A", "I", "Q"} {
		report, ok := CardWinRate(battles, card)
		require.True(t, ok, card)
		assert.Equal(t, report.Total, report.Wins+report.Losses, "wins+losses must equal total for %s", card)
		assert.InDelta(t, 100, report.WinPct+report.LossPct, 1e-9, "percentages must sum to 100 for %s", card)
	}
}

func TestCardWinRateNoBattles(t *testing.T) {
	battles := []domain.Battle{battle(domain.Player1, deckAH, deckIP)}

	_, ok := CardWinRate(battles, "NeverPlayed")
	assert.False(t, ok)

	_, ok = CardWinRate(nil, "A")
	assert.False(t, ok)
}

func TestTrophyUpsetWins(t *testing.T) {
	// Winner has 4000 trophies, loser 5000, loser took 2 towers: a close upset.
	upset := battle(domain.Player1, deckAH, deckIP, withTrophies(4000, 5000), withTowers(3, 2))
	// Loser routed: only 1 tower destroyed by the loser.
	rout := battle(domain.Player1, deckAH, deckIP, withTrophies(4000, 5000), withTowers(3, 1))
	// Winner has more trophies than the loser: not an upset.
	favored := battle(domain.Player1, deckAH, deckIP, withTrophies(6000, 5000), withTowers(3, 2))

	battles := []domain.Battle{upset, rout, favored}

	// 10% threshold: winner must have at most 90% of the loser's trophies.
	report := TrophyUpsetWins(battles, "A", 10)
	assert.Equal(t, 1, report.Wins)
	assert.Equal(t, "A", report.Card)
	assert.Equal(t, "https://cdn.example/cards/A.png", report.ImageURL)
}

func TestTrophyUpsetWinsZeroThreshold(t *testing.T) {
	tie := battle(domain.Player1, deckAH, deckIP, withTrophies(5000, 5000), withTowers(3, 2))
	above := battle(domain.Player1, deckAH, deckIP, withTrophies(5001, 5000), withTowers(3, 2))

	// pct = 0 admits any winner at or below the loser's trophies, ties included.
	report := TrophyUpsetWins([]domain.Battle{tie, above}, "A", 0)
	assert.Equal(t, 1, report.Wins)
}

func TestTrophyUpsetWinsFullThreshold(t *testing.T) {
	b := battle(domain.Player1, deckAH, deckIP, withTrophies(4000, 5000), withTowers(3, 2))
	zero := battle(domain.Player1, deckAH, deckIP, withTrophies(0, 5000), withTowers(3, 2))

	// pct = 100 requires winnerTrophies <= 0.
	report := TrophyUpsetWins([]domain.Battle{b, zero}, "A", 100)
	assert.Equal(t, 1, report.Wins)
}

func TestTrophyUpsetWinsCardOnLosingSideCounts(t *testing.T) {
	// Card I is only in the losing deck; the battle still involves the card.
	b := battle(domain.Player1, deckAH, deckIP, withTrophies(4000, 5000), withTowers(3, 2))

	report := TrophyUpsetWins([]domain.Battle{b}, "I", 10)
	assert.Equal(t, 1, report.Wins)
}

func TestTrophyUpsetWinsWinnerEitherSide(t *testing.T) {
	// Player2 wins as the underdog; the loser (player1) destroyed 2 towers.
	b := battle(domain.Player2, deckAH, deckIP, withTrophies(5000, 4000), withTowers(2, 3))

	report := TrophyUpsetWins([]domain.Battle{b}, "A", 10)
	assert.Equal(t, 1, report.Wins)
}
