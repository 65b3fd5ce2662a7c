package montecarlo

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

var (
	// ErrInvalidOptions is returned when simulation options are out of range.
	ErrInvalidOptions = errors.New("invalid simulation options")
	// ErrEmptyEnsemble is returned when aggregating zero simulated seasons.
	ErrEmptyEnsemble = errors.New("empty ensemble")
)

const (
	DefaultTotalIterations = 10_000
	DefaultBatchSize       = 1_000
	DefaultTeamBatchSize   = 1_000
)

// Options configures one forecast run.
type Options struct {
	TotalIterations int     `json:"total_iterations"`
	BatchSize       int     `json:"batch_size"`
	TeamBatchSize   int     `json:"team_batch_size"`
	Workers         int     `json:"workers"`
	PlayoffSlots    int     `json:"playoff_slots"`
	ScoreStdDev     float64 `json:"score_std_dev"`
	// Seed makes runs reproducible. Zero picks a random seed.
	Seed uint64 `json:"seed"`
}

// DefaultOptions returns the default forecast options. Workers is derived
// from the host CPU count here and nowhere else.
func DefaultOptions() Options {
	return Options{
		TotalIterations: DefaultTotalIterations,
		BatchSize:       DefaultBatchSize,
		TeamBatchSize:   DefaultTeamBatchSize,
		Workers:         runtime.NumCPU(),
		PlayoffSlots:    league.DefaultPlayoffSlots,
		ScoreStdDev:     league.DefaultScoreStdDev,
	}
}

// Validate checks that every option is usable.
func (o Options) Validate() error {
	switch {
	case o.TotalIterations <= 0:
		return fmt.Errorf("%w: total iterations must be positive, got %d", ErrInvalidOptions, o.TotalIterations)
	case o.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidOptions, o.BatchSize)
	case o.TeamBatchSize <= 0:
		return fmt.Errorf("%w: team batch size must be positive, got %d", ErrInvalidOptions, o.TeamBatchSize)
	case o.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidOptions, o.Workers)
	case o.PlayoffSlots <= 0:
		return fmt.Errorf("%w: playoff slots must be positive, got %d", ErrInvalidOptions, o.PlayoffSlots)
	case o.ScoreStdDev < 0:
		return fmt.Errorf("%w: score std dev must not be negative, got %g", ErrInvalidOptions, o.ScoreStdDev)
	}
	return nil
}

func (o Options) seasonParams() league.SeasonParams {
	return league.SeasonParams{
		ScoreStdDev:  o.ScoreStdDev,
		PlayoffSlots: o.PlayoffSlots,
	}
}
