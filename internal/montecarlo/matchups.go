package montecarlo

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

type pairing struct {
	team1, team2 int
}

type pairingSamples struct {
	scores1, scores2 []float64
	wins1, wins2     int
}

// MatchupAverages averages every (week, team1, team2) pairing over the
// ensemble. Weeks are processed in parallel. Rows are ordered by week and,
// inside a week, by the order the pairings appear in the schedule.
func MatchupAverages(ctx context.Context, ensemble Ensemble, weeks []int, workers int) ([]league.MatchupAverage, error) {
	if len(weeks) == 0 {
		return []league.MatchupAverage{}, nil
	}
	if len(ensemble) == 0 {
		return nil, ErrEmptyEnsemble
	}
	if workers <= 0 {
		return nil, fmt.Errorf("%w: workers %d", ErrInvalidOptions, workers)
	}

	done := make(chan []league.MatchupAverage, len(weeks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, week := range weeks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := weekBatch(week, ensemble)
			if err != nil {
				return err
			}
			done <- rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating matchups: %w", err)
	}
	close(done)

	var rows []league.MatchupAverage
	for weekRows := range done {
		rows = append(rows, weekRows...)
	}
	// Each week's rows arrive together and already in pairing order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Week < rows[j].Week
	})
	return rows, nil
}

// averageWeek is replaced in tests to fail a single week.
var averageWeek = weekAverages

func weekBatch(week int, ensemble Ensemble) (rows []league.MatchupAverage, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("week %d panicked: %v", week, p)
		}
	}()
	rows, err = averageWeek(week, ensemble)
	if err != nil {
		return nil, fmt.Errorf("week %d: %w", week, err)
	}
	return rows, nil
}

func weekAverages(week int, ensemble Ensemble) ([]league.MatchupAverage, error) {
	var order []pairing
	samples := make(map[pairing]*pairingSamples)
	for _, season := range ensemble {
		for _, r := range season.Results {
			if r.Week != week {
				continue
			}
			key := pairing{r.Team1, r.Team2}
			s, ok := samples[key]
			if !ok {
				s = &pairingSamples{}
				samples[key] = s
				order = append(order, key)
			}
			s.scores1 = append(s.scores1, r.Team1Score)
			s.scores2 = append(s.scores2, r.Team2Score)
			switch r.Winner {
			case r.Team1:
				s.wins1++
			case r.Team2:
				s.wins2++
			}
		}
	}

	rows := make([]league.MatchupAverage, 0, len(order))
	for _, key := range order {
		s := samples[key]
		n := float64(len(s.scores1))
		rows = append(rows, league.MatchupAverage{
			Week:         week,
			Team1:        key.team1,
			Team2:        key.team2,
			Team1Score:   sortedMean(s.scores1),
			Team2Score:   sortedMean(s.scores2),
			Team1WinProb: float64(s.wins1) / n,
			Team2WinProb: float64(s.wins2) / n,
		})
	}
	return rows, nil
}

// sortedMean sums in ascending order so the mean does not depend on the
// order seasons were collected in.
func sortedMean(xs []float64) float64 {
	sort.Float64s(xs)
	return stat.Mean(xs, nil)
}
