package stats

import (
	"time"

	"royale-tracker/internal/domain"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func deckOf(names ...string) domain.Deck {
	deck := make(domain.Deck, len(names))
	for i, n := range names {
		deck[i] = domain.Card{Name: n, ImageURL: "https://cdn.example/cards/" + n + ".png"}
	}
	return deck
}

type battleOpt func(*domain.Battle)

func withTrophies(p1, p2 int) battleOpt {
	return func(b *domain.Battle) {
		b.Player1Trophies = p1
		b.Player2Trophies = p2
	}
}

func withTowers(p1, p2 int) battleOpt {
	return func(b *domain.Battle) {
		b.Player1TowersDestroyed = p1
		b.Player2TowersDestroyed = p2
	}
}

func withTime(t time.Time) battleOpt {
	return func(b *domain.Battle) { b.BattleTime = t }
}

func battle(winner domain.Side, p1Deck, p2Deck domain.Deck, opts ...battleOpt) domain.Battle {
	loser := domain.Player2
	if winner == domain.Player2 {
		loser = domain.Player1
	}
	b := domain.Battle{
		BattleTime:             testStart,
		Player1:                "alice",
		Player2:                "bob",
		Winner:                 winner,
		Loser:                  loser,
		Player1Deck:            p1Deck,
		Player2Deck:            p2Deck,
		Player1Trophies:        5000,
		Player2Trophies:        5000,
		Player1TowersDestroyed: 3,
		Player2TowersDestroyed: 0,
	}
	if winner == domain.Player2 {
		b.Player1TowersDestroyed, b.Player2TowersDestroyed = 0, 3
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

var (
	deckAH = deckOf("A", "B", "C", "D", "E", "F", "G", "H")
	deckIP = deckOf("I", "J", "K", "L", "M", "N", "O", "P")
	deckQX = deckOf("Q", "R", "S", "T", "U", "V", "W", "X")
)
