package stats

import (
	"royale-tracker/internal/domain"
)

// CardReport is the win/loss breakdown for a single card over a snapshot.
type CardReport struct {
	Card     string  `json:"card"`
	ImageURL string  `json:"imageURL"`
	Total    int     `json:"totalBattles"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	WinPct   float64 `json:"winPercentage"`
	LossPct  float64 `json:"lossPercentage"`
}

// CardWinRate computes the win and loss percentage of a card across every
// battle in the snapshot where the card appears in either deck. The second
// return is false when no battle contains the card, in which case no
// statistics are computable.
func CardWinRate(battles []domain.Battle, card string) (CardReport, bool) {
	var total, wins int
	image := ""
	for i := range battles {
		b := &battles[i]
		in1 := deckContains(b.Player1Deck, card)
		in2 := deckContains(b.Player2Deck, card)
		if !in1 && !in2 {
			continue
		}
		total++
		if image == "" {
			if in1 {
				image = firstImageIn(b.Player1Deck, card)
			} else {
				image = firstImageIn(b.Player2Deck, card)
			}
		}
		if (b.Winner == domain.Player1 && in1) || (b.Winner == domain.Player2 && in2) {
			wins++
		}
	}
	if total == 0 {
		return CardReport{}, false
	}
	losses := total - wins
	return CardReport{
		Card:     card,
		ImageURL: image,
		Total:    total,
		Wins:     wins,
		Losses:   losses,
		WinPct:   pct(wins, total),
		LossPct:  pct(losses, total),
	}, true
}

func firstImageIn(deck domain.Deck, name string) string {
	for _, c := range deck {
		if c.Name == name {
			return c.ImageURL
		}
	}
	return ""
}

// TrophyUpsetReport counts wins that qualified as close upsets for a card.
type TrophyUpsetReport struct {
	Card     string  `json:"card"`
	ImageURL string  `json:"imageURL"`
	Wins     int     `json:"winsCount"`
	Pct      float64 `json:"trophyPercentage"`
}

// TrophyUpsetWins counts battles where the card appears in either deck, the
// loser destroyed at least two of the winner's towers (a close loss, not a
// rout), and the winner entered the battle with at most (1 - pct/100) times
// the loser's trophies. Comparison is exact floating-point multiplication
// with no rounding; pct = 0 admits any winner at or below the loser's
// trophy count, pct = 100 only admits winners with zero trophies.
func TrophyUpsetWins(battles []domain.Battle, card string, trophyPct float64) TrophyUpsetReport {
	threshold := 1 - trophyPct/100
	var wins int
	for i := range battles {
		b := &battles[i]
		if !deckContains(b.Player1Deck, card) && !deckContains(b.Player2Deck, card) {
			continue
		}
		if b.TowersDestroyedBy(b.Loser) < 2 {
			continue
		}
		if float64(b.TrophiesOf(b.Winner)) <= float64(b.TrophiesOf(b.Loser))*threshold {
			wins++
		}
	}
	return TrophyUpsetReport{
		Card:     card,
		ImageURL: FirstImage(battles, card),
		Wins:     wins,
		Pct:      trophyPct,
	}
}
