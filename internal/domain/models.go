package domain

import (
	"time"
)

// Side identifies one of the two participants in a battle.
type Side string

const (
	Player1 Side = "player1"
	Player2 Side = "player2"
)

// Card identity is the name; ImageURL is descriptive metadata and may vary
// between records referencing the same name.
type Card struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageURL"`
}

// Deck is the ordered 8-card loadout one player used in a battle.
type Deck []Card

// Names returns the card names in stored order.
func (d Deck) Names() []string {
	names := make([]string, len(d))
	for i, c := range d {
		names[i] = c.Name
	}
	return names
}

// Battle is an immutable match record. Winner and Loser are always distinct;
// tied battles are dropped at ingestion and never reach the store.
type Battle struct {
	ID                     string    `json:"id"`
	BattleTime             time.Time `json:"battleTime"`
	Player1                string    `json:"player1"`
	Player2                string    `json:"player2"`
	Player1TowersDestroyed int       `json:"player1TowersDestroyed"`
	Player2TowersDestroyed int       `json:"player2TowersDestroyed"`
	Winner                 Side      `json:"winner"`
	Loser                  Side      `json:"loser"`
	Player1Deck            Deck      `json:"player1Deck"`
	Player2Deck            Deck      `json:"player2Deck"`
	Player1Trophies        int       `json:"player1Trophies"`
	Player2Trophies        int       `json:"player2Trophies"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// DeckOf returns the deck the given side played.
func (b *Battle) DeckOf(side Side) Deck {
	if side == Player2 {
		return b.Player2Deck
	}
	return b.Player1Deck
}

// TrophiesOf returns the pre-battle trophy count of the given side.
func (b *Battle) TrophiesOf(side Side) int {
	if side == Player2 {
		return b.Player2Trophies
	}
	return b.Player1Trophies
}

// TowersDestroyedBy returns how many towers the given side destroyed.
func (b *Battle) TowersDestroyedBy(side Side) int {
	if side == Player2 {
		return b.Player2TowersDestroyed
	}
	return b.Player1TowersDestroyed
}

type Player struct {
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	Level       int       `json:"level"`
	Trophies    int       `json:"trophies"`
	TotalGames  int       `json:"totalGames"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Clan        string    `json:"clan"`
	LastFetchAt time.Time `json:"lastFetchAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
