package stats

import (
	"sort"
	"strings"

	"royale-tracker/internal/domain"
)

// NormalizeCombo parses a delimited card-combo string into a clean name
// list: entries are split on commas, trimmed, and duplicates and empties
// dropped. Subset matching uses set semantics, so order is irrelevant but
// first-seen order is preserved for reporting.
func NormalizeCombo(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ComboDefeatReport counts losses in which a card combo was present.
type ComboDefeatReport struct {
	Deck    []domain.Card `json:"deck"`
	Defeats int           `json:"defeatsCount"`
}

// ComboDefeats counts battles in which the combo was a subset of the losing
// side's deck, whichever side that was. A combo of more than 8 cards can
// never be contained in a deck and always counts zero. Card images in the
// report are resolved from the snapshot; unseen cards get an empty URL.
func ComboDefeats(battles []domain.Battle, combo []string) ComboDefeatReport {
	deck := make([]domain.Card, len(combo))
	for i, name := range combo {
		deck[i] = domain.Card{Name: name, ImageURL: FirstImage(battles, name)}
	}

	var defeats int
	if len(combo) <= 8 {
		for i := range battles {
			b := &battles[i]
			if containsAll(b.DeckOf(b.Loser), combo) {
				defeats++
			}
		}
	}
	return ComboDefeatReport{Deck: deck, Defeats: defeats}
}

// ComboReport is the win rate of one fixed-size card combo.
type ComboReport struct {
	Combo     []domain.Card `json:"combo"`
	Total     int           `json:"total"`
	Victories int           `json:"victories"`
	WinPct    float64       `json:"winPercentage"`
}

type comboGroup struct {
	key       string
	cards     []domain.Card
	total     int
	victories int
}

// FixedSizeComboRates truncates both decks of every battle to their first
// deckSize cards by stored order and reports the win rate per resulting
// combo. Every appearance of a combo on either side counts toward its
// total; a victory is counted only when the side holding the combo won, so
// the percentage is meaningful rather than trivially 100. Truncation by
// stored order makes the result sensitive to how cards were recorded; the
// combo key itself is order-independent. Only combos with
// winPct >= minWinPct are returned, sorted ascending by winPct.
func FixedSizeComboRates(battles []domain.Battle, deckSize int, minWinPct float64) []ComboReport {
	groups := make(map[string]*comboGroup)
	for i := range battles {
		b := &battles[i]
		for _, side := range [2]domain.Side{domain.Player1, domain.Player2} {
			deck := b.DeckOf(side)
			if len(deck) > deckSize {
				deck = deck[:deckSize]
			}
			key := DeckKey(deck)
			g, ok := groups[key]
			if !ok {
				g = &comboGroup{key: key, cards: dedupeCards(deck)}
				groups[key] = g
			}
			g.total++
			if b.Winner == side {
				g.victories++
			}
		}
	}

	kept := make([]*comboGroup, 0, len(groups))
	for _, g := range groups {
		if pct(g.victories, g.total) < minWinPct {
			continue
		}
		kept = append(kept, g)
	}
	sort.Slice(kept, func(i, j int) bool {
		wi, wj := pct(kept[i].victories, kept[i].total), pct(kept[j].victories, kept[j].total)
		if wi != wj {
			return wi < wj
		}
		return kept[i].key < kept[j].key
	})

	reports := make([]ComboReport, 0, len(kept))
	for _, g := range kept {
		reports = append(reports, ComboReport{
			Combo:     g.cards,
			Total:     g.total,
			Victories: g.victories,
			WinPct:    pct(g.victories, g.total),
		})
	}
	return reports
}
