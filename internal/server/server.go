package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"royale-tracker/internal/service"
)

// Server is the JSON query surface over the statistics engine. Parameter
// parsing and status-code mapping live here; all computation is in the
// services.
type Server struct {
	statsSvc  *service.BattleStatsService
	playerSvc *service.PlayerService
	logger    zerolog.Logger
}

func New(statsSvc *service.BattleStatsService, playerSvc *service.PlayerService, logger zerolog.Logger) *Server {
	return &Server{statsSvc: statsSvc, playerSvc: playerSvc, logger: logger}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	battles := r.PathPrefix("/battles").Subrouter()
	battles.HandleFunc("/win-loss-percentage", s.handleCardWinRate).Methods(http.MethodGet)
	battles.HandleFunc("/decks-win-percentage", s.handleDeckWinRates).Methods(http.MethodGet)
	battles.HandleFunc("/defeats-by-card-combo", s.handleComboDefeats).Methods(http.MethodGet)
	battles.HandleFunc("/wins-by-card-and-trophies", s.handleTrophyUpsetWins).Methods(http.MethodGet)
	battles.HandleFunc("/combos-win-percentage", s.handleFixedSizeCombos).Methods(http.MethodGet)
	battles.HandleFunc("/popular-decks", s.handlePopularDecks).Methods(http.MethodGet)

	players := r.PathPrefix("/player").Subrouter()
	players.HandleFunc("/profile/{nickname}", s.handlePlayerProfile).Methods(http.MethodGet)
	players.HandleFunc("/battles/{nickname}", s.handlePlayerBattles).Methods(http.MethodGet)
	players.HandleFunc("/save/{tag}", s.handleSavePlayer).Methods(http.MethodPost)
	players.HandleFunc("/save-all", s.handleSaveAll).Methods(http.MethodPost)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCardWinRate(w http.ResponseWriter, r *http.Request) {
	card := r.URL.Query().Get("card")
	if card == "" {
		writeError(w, http.StatusBadRequest, "card parameter is required")
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.statsSvc.CardWinRate(r.Context(), card, start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "no battles found with this card in the given time range")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeckWinRates(w http.ResponseWriter, r *http.Request) {
	minWinPct, err := parseFloatParam(r, "winPercentage")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := s.statsSvc.DeckWinRates(r.Context(), minWinPct, start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleComboDefeats(w http.ResponseWriter, r *http.Request) {
	rawCombo := r.URL.Query().Get("cardCombo")
	if rawCombo == "" {
		writeError(w, http.StatusBadRequest, "cardCombo parameter is required")
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.statsSvc.ComboDefeats(r.Context(), rawCombo, start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTrophyUpsetWins(w http.ResponseWriter, r *http.Request) {
	card := r.URL.Query().Get("card")
	if card == "" {
		writeError(w, http.StatusBadRequest, "card parameter is required")
		return
	}
	trophyPct, err := parseFloatParam(r, "trophyPercentage")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.statsSvc.TrophyUpsetWins(r.Context(), card, trophyPct, start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFixedSizeCombos(w http.ResponseWriter, r *http.Request) {
	deckSizeRaw := r.URL.Query().Get("deckSize")
	if deckSizeRaw == "" {
		writeError(w, http.StatusBadRequest, "deckSize parameter is required")
		return
	}
	deckSize, err := strconv.Atoi(deckSizeRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "deckSize must be an integer")
		return
	}
	minWinPct, err := parseFloatParam(r, "winPercentage")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := s.statsSvc.FixedSizeComboRates(r.Context(), deckSize, minWinPct, start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handlePopularDecks(w http.ResponseWriter, r *http.Request) {
	reports, err := s.statsSvc.PopularDecks(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handlePlayerProfile(w http.ResponseWriter, r *http.Request) {
	nickname := mux.Vars(r)["nickname"]

	players, err := s.playerSvc.Profile(r.Context(), nickname)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	if len(players) == 0 {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) handlePlayerBattles(w http.ResponseWriter, r *http.Request) {
	nickname := mux.Vars(r)["nickname"]

	battles, err := s.playerSvc.Battles(r.Context(), nickname)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, battles)
}

func (s *Server) handleSavePlayer(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]

	result, err := s.playerSvc.SavePlayerAndBattles(r.Context(), tag)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type saveAllRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) handleSaveAll(w http.ResponseWriter, r *http.Request) {
	var req saveAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a tags array")
		return
	}

	results, err := s.playerSvc.SaveAll(r.Context(), req.Tags)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// writeServiceError maps service sentinels to status codes: invalid input
// is a 400, an empty statistic a 404, anything else a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoBattles):
		if notFoundMsg == "" {
			notFoundMsg = "no matching records found"
		}
		writeError(w, http.StatusNotFound, notFoundMsg)
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Time parameters accept RFC 3339 or a plain date.
var timeLayouts = []string{time.RFC3339, "2006-01-02"}

func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	start, err := parseTimeParam(r, "startTime")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimeParam(r, "endTime")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("endTime must not be before startTime")
	}
	return start, end, nil
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s parameter is required", name)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s must be RFC 3339 or YYYY-MM-DD", name)
}

func parseFloatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s parameter is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
