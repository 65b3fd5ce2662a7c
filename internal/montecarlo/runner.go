package montecarlo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

// Ensemble is the full set of seasons produced by one run. Its order is
// the order in which batches finished and carries no meaning.
type Ensemble []league.Season

type seasonFunc func(league.Schedule, *league.TeamTable, league.SeasonParams, rand.Source) (league.Season, error)

// Runner runs many independent season simulations in parallel batches.
type Runner struct {
	opts     Options
	logger   *logrus.Logger
	simulate seasonFunc
}

// NewRunner validates the options and returns a runner.
func NewRunner(opts Options, logger *logrus.Logger) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		opts:     opts,
		logger:   logger,
		simulate: league.SimulateSeason,
	}, nil
}

// Run simulates TotalIterations seasons. Every run draws from its own PCG
// stream keyed by the run index, so a fixed Seed reproduces the same
// seasons no matter how batches are scheduled. A failure in any batch
// fails the whole run.
func (r *Runner) Run(ctx context.Context, teams *league.TeamTable, schedule league.Schedule) (Ensemble, error) {
	start := time.Now()
	total, size := r.opts.TotalIterations, r.opts.BatchSize
	numBatches := (total + size - 1) / size

	seed := r.opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	log := r.logger.WithFields(logrus.Fields{
		"iterations":    total,
		"batches":       numBatches,
		"workers":       r.opts.Workers,
		"matchups":      len(schedule.Matchups),
		"open_matchups": schedule.Open(),
		"playoff_slots": r.opts.PlayoffSlots,
		"score_std_dev": r.opts.ScoreStdDev,
	})
	log.Info("Starting Monte Carlo simulation")

	done := make(chan []league.Season, numBatches)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for b := 0; b < numBatches; b++ {
		first := b * size
		n := min(size, total-first)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seasons, err := r.runBatch(b, first, n, seed, teams, schedule)
			if err != nil {
				return err
			}
			done <- seasons
			log.WithFields(logrus.Fields{"batch": b, "seasons": len(seasons)}).Debug("Batch completed")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monte carlo simulation: %w", err)
	}
	close(done)

	ensemble := make(Ensemble, 0, total)
	for seasons := range done {
		ensemble = append(ensemble, seasons...)
	}

	log.WithFields(logrus.Fields{
		"seasons":        len(ensemble),
		"execution_time": time.Since(start),
	}).Info("Monte Carlo simulation completed")
	return ensemble, nil
}

func (r *Runner) runBatch(batch, first, n int, seed uint64, teams *league.TeamTable, schedule league.Schedule) (seasons []league.Season, err error) {
	defer func() {
		if p := recover(); p != nil {
			seasons, err = nil, fmt.Errorf("batch %d panicked: %v", batch, p)
		}
	}()

	params := r.opts.seasonParams()
	seasons = make([]league.Season, 0, n)
	for i := 0; i < n; i++ {
		run := first + i
		season, simErr := r.simulate(schedule, teams, params, rand.NewPCG(seed, uint64(run)))
		if simErr != nil {
			return nil, fmt.Errorf("batch %d run %d: %w", batch, run, simErr)
		}
		seasons = append(seasons, season)
	}
	return seasons, nil
}
