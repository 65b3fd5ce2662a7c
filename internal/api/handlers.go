package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/utakatalp/fantasy-simulator/internal/league"
	"github.com/utakatalp/fantasy-simulator/internal/montecarlo"
	"github.com/utakatalp/fantasy-simulator/internal/payload"
	"github.com/utakatalp/fantasy-simulator/internal/sleeper"
	"github.com/utakatalp/fantasy-simulator/internal/store"
)

const maxBodyBytes = 10 << 20

var (
	errNoStore    = errors.New("league storage is not configured")
	errNoImporter = errors.New("sleeper import is not configured")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, payload.ErrInvalidInput),
		errors.Is(err, montecarlo.ErrInvalidOptions),
		errors.Is(err, league.ErrUnknownTeam):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrLeagueNotFound),
		errors.Is(err, sleeper.ErrLeagueNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errNoStore),
		errors.Is(err, errNoImporter):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	req, err := payload.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	teams, matchups, err := req.Tables()
	if err != nil {
		s.writeError(w, err)
		return
	}

	forecast, err := s.forecaster.Forecast(r.Context(), teams, matchups, req.Options.Apply(s.defaults))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) simulateLeague(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errNoStore)
		return
	}
	leagueID := mux.Vars(r)["leagueID"]

	overrides, err := payload.DecodeOptions(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	teams, err := s.store.GetTeams(r.Context(), leagueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	matchups, err := s.store.LoadMatchups(r.Context(), leagueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	slots, err := s.store.PlayoffSlots(r.Context(), leagueID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.defaults
	if slots > 0 {
		opts.PlayoffSlots = slots
	}
	forecast, err := s.forecaster.Forecast(r.Context(), teams, matchups, overrides.Apply(opts))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

// simulateSleeper imports a Sleeper league and simulates it with the
// league's own playoff slots unless the body overrides them.
func (s *Server) simulateSleeper(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		s.writeError(w, errNoImporter)
		return
	}
	leagueID := mux.Vars(r)["leagueID"]

	overrides, err := payload.DecodeOptions(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	imp, err := s.importer.ImportLeague(r.Context(), leagueID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.defaults
	if imp.PlayoffSlots > 0 {
		opts.PlayoffSlots = imp.PlayoffSlots
	}
	forecast, err := s.forecaster.Forecast(r.Context(), imp.Teams, imp.Matchups, overrides.Apply(opts))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) getLeague(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errNoStore)
		return
	}
	leagueID := mux.Vars(r)["leagueID"]

	teams, err := s.store.GetTeams(r.Context(), leagueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	matchups, err := s.store.LoadMatchups(r.Context(), leagueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	slots, err := s.store.PlayoffSlots(r.Context(), leagueID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := payload.FromTables(teams, matchups)
	if slots > 0 {
		body.Options = &payload.OptionsInput{PlayoffSlots: &slots}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) putLeague(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errNoStore)
		return
	}
	leagueID := mux.Vars(r)["leagueID"]

	req, err := payload.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	teams, matchups, err := req.Tables()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var slots int
	if req.Options != nil && req.Options.PlayoffSlots != nil {
		slots = *req.Options.PlayoffSlots
	}
	if err := s.store.SaveLeague(r.Context(), leagueID, teams, matchups, slots); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"league_id": leagueID,
		"teams":     len(teams),
		"matchups":  len(matchups),
	})
}

func (s *Server) deleteLeague(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errNoStore)
		return
	}
	if err := s.store.DeleteLeague(r.Context(), mux.Vars(r)["leagueID"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
