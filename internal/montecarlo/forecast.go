package montecarlo

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

// Forecast is the outcome of one full simulation request.
type Forecast struct {
	Standings                []league.StandingsRow   `json:"standings"`
	AverageSimulationResults []league.MatchupAverage `json:"average_simulation_results"`
}

// Service runs simulations and aggregates their results.
type Service struct {
	logger *logrus.Logger
}

func NewService(logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{logger: logger}
}

// Forecast simulates the remaining season opts.TotalIterations times and
// returns projected standings and per-matchup averages.
func (s *Service) Forecast(ctx context.Context, teams []league.Team, matchups []league.Matchup, opts Options) (*Forecast, error) {
	table, err := league.NewTeamTable(teams)
	if err != nil {
		return nil, fmt.Errorf("building team table: %w", err)
	}
	schedule := league.NewSchedule(matchups)

	runner, err := NewRunner(opts, s.logger)
	if err != nil {
		return nil, err
	}
	ensemble, err := runner.Run(ctx, table, schedule)
	if err != nil {
		return nil, err
	}

	var forecast Forecast
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := Standings(gctx, table, ensemble, opts.TeamBatchSize, opts.Workers)
		forecast.Standings = rows
		return err
	})
	g.Go(func() error {
		rows, err := MatchupAverages(gctx, ensemble, schedule.Weeks(), opts.Workers)
		forecast.AverageSimulationResults = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"teams":    table.Len(),
		"matchups": len(schedule.Matchups),
		"seasons":  len(ensemble),
	}).Info("Forecast ready")
	return &forecast, nil
}
