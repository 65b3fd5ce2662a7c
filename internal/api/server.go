package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-simulator/internal/league"
	"github.com/utakatalp/fantasy-simulator/internal/montecarlo"
	"github.com/utakatalp/fantasy-simulator/internal/sleeper"
)

// Forecaster runs a full simulation for a league.
type Forecaster interface {
	Forecast(ctx context.Context, teams []league.Team, matchups []league.Matchup, opts montecarlo.Options) (*montecarlo.Forecast, error)
}

// LeagueStore persists league inputs by id.
type LeagueStore interface {
	SaveLeague(ctx context.Context, leagueID string, teams []league.Team, matchups []league.Matchup, playoffSlots int) error
	GetTeams(ctx context.Context, leagueID string) ([]league.Team, error)
	LoadMatchups(ctx context.Context, leagueID string) ([]league.Matchup, error)
	PlayoffSlots(ctx context.Context, leagueID string) (int, error)
	DeleteLeague(ctx context.Context, leagueID string) error
}

// LeagueImporter fetches a league from Sleeper.
type LeagueImporter interface {
	ImportLeague(ctx context.Context, leagueID string) (*sleeper.Import, error)
}

// Server exposes the simulator over HTTP. The store and importer are
// optional; without them their routes answer 503.
type Server struct {
	forecaster Forecaster
	store      LeagueStore
	importer   LeagueImporter
	defaults   montecarlo.Options
	logger     *logrus.Logger
}

func NewServer(forecaster Forecaster, store LeagueStore, importer LeagueImporter, defaults montecarlo.Options, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		forecaster: forecaster,
		store:      store,
		importer:   importer,
		defaults:   defaults,
		logger:     logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestLogger)

	router.HandleFunc("/healthz", s.healthCheck).Methods("GET")
	router.HandleFunc("/simulate", s.simulate).Methods("POST")

	router.HandleFunc("/leagues/{leagueID}", s.getLeague).Methods("GET")
	router.HandleFunc("/leagues/{leagueID}", s.putLeague).Methods("PUT")
	router.HandleFunc("/leagues/{leagueID}", s.deleteLeague).Methods("DELETE")
	router.HandleFunc("/leagues/{leagueID}/simulate", s.simulateLeague).Methods("POST")

	router.HandleFunc("/sleeper/{leagueID}/simulate", s.simulateSleeper).Methods("POST")
	return router
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.WithField("addr", addr).Info("HTTP server listening")
	return srv.ListenAndServe()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"latency":    time.Since(startTime),
			"user_agent": r.UserAgent(),
		})
		switch {
		case rec.status >= 500:
			entry.Error("Internal Server Error")
		case rec.status >= 400:
			entry.Warn("Client Error")
		default:
			entry.Info("Request completed")
		}
	})
}
