package stats

import (
	"sort"

	"royale-tracker/internal/domain"
)

// DeckReport is the aggregated record of one distinct deck.
type DeckReport struct {
	Deck   []domain.Card `json:"deck"`
	Played int           `json:"played"`
	Won    int           `json:"won"`
	WinPct float64       `json:"winPercentage"`
}

type deckGroup struct {
	key    string
	cards  []domain.Card
	seen   map[string]struct{}
	played int
	won    int
}

func (g *deckGroup) observe(deck domain.Deck, won bool) {
	g.played++
	if won {
		g.won++
	}
	for _, c := range deck {
		if _, ok := g.seen[c.Name]; ok {
			continue
		}
		g.seen[c.Name] = struct{}{}
		g.cards = append(g.cards, c)
	}
}

// DeckWinRates groups every deck observation in the snapshot by canonical
// deck key and reports the win rate per distinct deck. Each battle
// contributes exactly two observations, one per side. Only groups with
// winPct >= minWinPct are returned, sorted ascending by winPct (ties broken
// by key for determinism). The stored card list is deduplicated to the
// unique {name, imageURL} set, first-seen image per name winning.
func DeckWinRates(battles []domain.Battle, minWinPct float64) []DeckReport {
	groups := make(map[string]*deckGroup)
	for i := range battles {
		b := &battles[i]
		for _, side := range [2]domain.Side{domain.Player1, domain.Player2} {
			deck := b.DeckOf(side)
			key := DeckKey(deck)
			g, ok := groups[key]
			if !ok {
				g = &deckGroup{key: key, seen: make(map[string]struct{}, len(deck))}
				groups[key] = g
			}
			g.observe(deck, b.Winner == side)
		}
	}

	kept := make([]*deckGroup, 0, len(groups))
	for _, g := range groups {
		if pct(g.won, g.played) < minWinPct {
			continue
		}
		kept = append(kept, g)
	}
	sort.Slice(kept, func(i, j int) bool {
		wi, wj := pct(kept[i].won, kept[i].played), pct(kept[j].won, kept[j].played)
		if wi != wj {
			return wi < wj
		}
		return kept[i].key < kept[j].key
	})

	reports := make([]DeckReport, 0, len(kept))
	for _, g := range kept {
		reports = append(reports, DeckReport{
			Deck:   g.cards,
			Played: g.played,
			Won:    g.won,
			WinPct: pct(g.won, g.played),
		})
	}
	return reports
}

// PopularDeckReport ranks one distinct deck by play frequency.
type PopularDeckReport struct {
	Deck   []domain.Card `json:"deck"`
	Played int           `json:"played"`
}

// PopularDecks ranks every distinct deck in the snapshot (both sides of
// every battle) by how often it was played, most popular first. Ties are
// broken by deck key so the ranking is stable. The first entry is the most
// popular deck of the corpus.
func PopularDecks(battles []domain.Battle) []PopularDeckReport {
	groups := make(map[string]*deckGroup)
	for i := range battles {
		b := &battles[i]
		for _, side := range [2]domain.Side{domain.Player1, domain.Player2} {
			deck := b.DeckOf(side)
			key := DeckKey(deck)
			g, ok := groups[key]
			if !ok {
				g = &deckGroup{key: key, seen: make(map[string]struct{}, len(deck))}
				groups[key] = g
			}
			g.observe(deck, false)
		}
	}

	ranked := make([]*deckGroup, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, g)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].played != ranked[j].played {
			return ranked[i].played > ranked[j].played
		}
		return ranked[i].key < ranked[j].key
	})

	reports := make([]PopularDeckReport, 0, len(ranked))
	for _, g := range ranked {
		reports = append(reports, PopularDeckReport{Deck: g.cards, Played: g.played})
	}
	return reports
}
