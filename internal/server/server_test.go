package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royale-tracker/internal/domain"
	"royale-tracker/internal/repository"
	"royale-tracker/internal/service"
	"royale-tracker/internal/stats"
)

type stubStore struct {
	battles []domain.Battle
	err     error
}

func (s *stubStore) ListByTimeRange(_ context.Context, start, end time.Time) ([]domain.Battle, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Battle
	for _, b := range s.battles {
		if !b.BattleTime.Before(start) && !b.BattleTime.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubStore) ListAll(context.Context) ([]domain.Battle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.battles, nil
}

func (s *stubStore) FindWithCard(_ context.Context, name string) (*domain.Battle, error) {
	for i := range s.battles {
		for _, deck := range [2]domain.Deck{s.battles[i].Player1Deck, s.battles[i].Player2Deck} {
			for _, c := range deck {
				if c.Name == name {
					return &s.battles[i], nil
				}
			}
		}
	}
	return nil, repository.ErrNotFound
}

func testDeck(names ...string) domain.Deck {
	deck := make(domain.Deck, len(names))
	for i, n := range names {
		deck[i] = domain.Card{Name: n, ImageURL: "https://cdn.example/" + n + ".png"}
	}
	return deck
}

func testBattle(at time.Time, winner domain.Side) domain.Battle {
	loser := domain.Player2
	if winner == domain.Player2 {
		loser = domain.Player1
	}
	return domain.Battle{
		BattleTime:             at,
		Player1:                "alice",
		Player2:                "bob",
		Winner:                 winner,
		Loser:                  loser,
		Player1Deck:            testDeck("A", "B", "C", "D", "E", "F", "G", "H"),
		Player2Deck:            testDeck("I", "J", "K", "L", "M", "N", "O", "P"),
		Player1Trophies:        4000,
		Player2Trophies:        5000,
		Player1TowersDestroyed: 3,
		Player2TowersDestroyed: 2,
	}
}

func newTestServer(store service.BattleStore) *Server {
	statsSvc := service.NewBattleStatsService(store, zerolog.Nop())
	return New(statsSvc, nil, zerolog.Nop())
}

func doGet(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestCardWinRateEndpoint(t *testing.T) {
	store := &stubStore{battles: []domain.Battle{
		testBattle(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), domain.Player1),
		testBattle(time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), domain.Player2),
	}}
	rec := doGet(t, newTestServer(store), "/battles/win-loss-percentage?card=A&startTime=2026-03-01&endTime=2026-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	var report stats.CardReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "A", report.Card)
	assert.Equal(t, 2, report.Total)
	assert.InDelta(t, 50, report.WinPct, 1e-9)
}

func TestCardWinRateEndpointRejectsMissingCard(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/battles/win-loss-percentage?startTime=2026-03-01&endTime=2026-03-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCardWinRateEndpointNotFound(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/battles/win-loss-percentage?card=A&startTime=2026-03-01&endTime=2026-03-31")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardWinRateEndpointStoreFailure(t *testing.T) {
	store := &stubStore{err: errors.New("db gone")}
	rec := doGet(t, newTestServer(store), "/battles/win-loss-percentage?card=A&startTime=2026-03-01&endTime=2026-03-31")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTimeRangeValidation(t *testing.T) {
	s := newTestServer(&stubStore{})

	rec := doGet(t, s, "/battles/win-loss-percentage?card=A&startTime=garbage&endTime=2026-03-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// endTime before startTime.
	rec = doGet(t, s, "/battles/win-loss-percentage?card=A&startTime=2026-03-31&endTime=2026-03-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// RFC 3339 timestamps are accepted too.
	rec = doGet(t, s, "/battles/win-loss-percentage?card=A&startTime=2026-03-01T00:00:00Z&endTime=2026-03-31T23:59:59Z")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeckWinRatesEndpoint(t *testing.T) {
	store := &stubStore{battles: []domain.Battle{
		testBattle(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), domain.Player1),
	}}
	rec := doGet(t, newTestServer(store), "/battles/decks-win-percentage?winPercentage=50&startTime=2026-03-01&endTime=2026-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	var reports []stats.DeckReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.InDelta(t, 100, reports[0].WinPct, 1e-9)
}

func TestDeckWinRatesEndpointEmptyWindowIsEmptyList(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/battles/decks-win-percentage?winPercentage=0&startTime=2026-03-01&endTime=2026-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	var reports []stats.DeckReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	assert.Empty(t, reports)
}

func TestComboDefeatsEndpoint(t *testing.T) {
	store := &stubStore{battles: []domain.Battle{
		testBattle(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), domain.Player2),
	}}
	rec := doGet(t, newTestServer(store), "/battles/defeats-by-card-combo?cardCombo=A,B&startTime=2026-03-01&endTime=2026-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	var report stats.ComboDefeatReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Defeats)
}

func TestComboDefeatsEndpointRejectsEmptyCombo(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/battles/defeats-by-card-combo?cardCombo=%20,%20&startTime=2026-03-01&endTime=2026-03-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrophyUpsetWinsEndpoint(t *testing.T) {
	store := &stubStore{battles: []domain.Battle{
		testBattle(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), domain.Player1),
	}}
	rec := doGet(t, newTestServer(store), "/battles/wins-by-card-and-trophies?card=A&trophyPercentage=10&startTime=2026-03-01&endTime=2026-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	var report stats.TrophyUpsetReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Wins)
}

func TestTrophyUpsetWinsEndpointRejectsOutOfRangePercentage(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/battles/wins-by-card-and-trophies?card=A&trophyPercentage=150&startTime=2026-03-01&endTime=2026-03-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFixedSizeCombosEndpoint(t *testing.T) {
	store := &stubStore{battles: []domain.Battle{
		testBattle(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), domain.Player1),
	}}
	rec := doGet(t, newTestServer(store), "/battles/combos-win-percentage?deckSize=4&winPercentage=0&startTime=2026-03-01&endTime=2026-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	var reports []stats.ComboReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 2)
}

func TestFixedSizeCombosEndpointRejectsBadDeckSize(t *testing.T) {
	s := newTestServer(&stubStore{})

	rec := doGet(t, s, "/battles/combos-win-percentage?deckSize=abc&winPercentage=0&startTime=2026-03-01&endTime=2026-03-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, s, "/battles/combos-win-percentage?deckSize=9&winPercentage=0&startTime=2026-03-01&endTime=2026-03-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPopularDecksEndpoint(t *testing.T) {
	store := &stubStore{battles: []domain.Battle{
		testBattle(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), domain.Player1),
		testBattle(time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), domain.Player1),
	}}
	rec := doGet(t, newTestServer(store), "/battles/popular-decks")

	require.Equal(t, http.StatusOK, rec.Code)
	var reports []stats.PopularDeckReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.NotEmpty(t, reports)
	assert.Equal(t, 2, reports[0].Played)
}
