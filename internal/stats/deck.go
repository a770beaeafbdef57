// Package stats is the battle statistics engine. Every function is a pure
// computation over an explicitly passed snapshot of battle records: no I/O,
// no clock, no shared state. Callers fetch the snapshot for the time window
// they care about and hand it in; any number of computations may run
// concurrently over the same snapshot.
package stats

import (
	"sort"
	"strings"

	"royale-tracker/internal/domain"
)

// DeckKey returns the canonical, order-independent identity of a deck: the
// set of its card names, sorted and joined. Two decks with the same card
// names produce equal keys regardless of the order cards were recorded in.
// Duplicate names collapse.
func DeckKey(deck domain.Deck) string {
	seen := make(map[string]struct{}, len(deck))
	names := make([]string, 0, len(deck))
	for _, c := range deck {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// dedupeCards reduces a card list to its unique names, keeping the
// first-seen ImageURL per name. Order follows first appearance.
func dedupeCards(cards []domain.Card) []domain.Card {
	seen := make(map[string]struct{}, len(cards))
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}

func deckContains(deck domain.Deck, name string) bool {
	for _, c := range deck {
		if c.Name == name {
			return true
		}
	}
	return false
}

// containsAll reports whether every name is present in the deck.
func containsAll(deck domain.Deck, names []string) bool {
	for _, n := range names {
		if !deckContains(deck, n) {
			return false
		}
	}
	return true
}

// FirstImage scans the snapshot for the first battle in which either deck
// contains a card of the given name and returns its image URL, or "" if the
// card has never been observed.
func FirstImage(battles []domain.Battle, name string) string {
	for i := range battles {
		for _, deck := range [2]domain.Deck{battles[i].Player1Deck, battles[i].Player2Deck} {
			for _, c := range deck {
				if c.Name == name {
					return c.ImageURL
				}
			}
		}
	}
	return ""
}

func pct(part, total int) float64 {
	return float64(part) / float64(total) * 100
}
