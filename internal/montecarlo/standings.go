package montecarlo

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

type teamTally struct {
	wins, losses, playoffs int
}

// Standings averages every team's wins, losses and playoff appearances
// over the ensemble. Teams are split into batches of batchSize that are
// processed in parallel, and the rows come back in team table order
// rounded to two decimals.
func Standings(ctx context.Context, teams *league.TeamTable, ensemble Ensemble, batchSize, workers int) ([]league.StandingsRow, error) {
	if len(ensemble) == 0 {
		return nil, ErrEmptyEnsemble
	}
	if batchSize <= 0 || workers <= 0 {
		return nil, fmt.Errorf("%w: batch size %d, workers %d", ErrInvalidOptions, batchSize, workers)
	}
	// Every season plays the same schedule, so one empty season means no games at all.
	if len(ensemble[0].Results) == 0 {
		return []league.StandingsRow{}, nil
	}

	all := teams.Teams()
	numBatches := (len(all) + batchSize - 1) / batchSize
	done := make(chan []league.StandingsRow, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for b := 0; b < numBatches; b++ {
		batch := all[b*batchSize : min((b+1)*batchSize, len(all))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := standingsBatch(b, batch, ensemble)
			if err != nil {
				return err
			}
			done <- rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating standings: %w", err)
	}
	close(done)

	rows := make([]league.StandingsRow, 0, len(all))
	for batchRows := range done {
		rows = append(rows, batchRows...)
	}
	sort.Slice(rows, func(i, j int) bool {
		return teams.Position(rows[i].TeamID) < teams.Position(rows[j].TeamID)
	})
	return rows, nil
}

// tallyStandings is replaced in tests to fail a single batch.
var tallyStandings = tallyTeams

func standingsBatch(batch int, teams []league.Team, ensemble Ensemble) (rows []league.StandingsRow, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("standings batch %d panicked: %v", batch, p)
		}
	}()
	rows, err = tallyStandings(teams, ensemble)
	if err != nil {
		return nil, fmt.Errorf("standings batch %d: %w", batch, err)
	}
	return rows, nil
}

func tallyTeams(teams []league.Team, ensemble Ensemble) ([]league.StandingsRow, error) {
	tallies := make(map[int]*teamTally, len(teams))
	for _, t := range teams {
		tallies[t.ID] = &teamTally{}
	}

	for _, season := range ensemble {
		for _, r := range season.Results {
			winner, loser := r.Team1, r.Team2
			if r.Winner == r.Team2 {
				winner, loser = r.Team2, r.Team1
			}
			if t, ok := tallies[winner]; ok {
				t.wins++
			}
			if t, ok := tallies[loser]; ok {
				t.losses++
			}
		}
		for _, id := range season.PlayoffTeams {
			if t, ok := tallies[id]; ok {
				t.playoffs++
			}
		}
	}

	n := float64(len(ensemble))
	rows := make([]league.StandingsRow, 0, len(teams))
	for _, t := range teams {
		tally := tallies[t.ID]
		rows = append(rows, league.StandingsRow{
			TeamID:        t.ID,
			TeamName:      t.Name,
			AvgWins:       round2(float64(tally.wins) / n),
			AvgLosses:     round2(float64(tally.losses) / n),
			PlayoffChance: round2(float64(tally.playoffs) / n),
		})
	}
	return rows, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
