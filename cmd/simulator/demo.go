package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

const (
	demoSeasonWeeks = 14
	demoPlayedWeeks = 4
	demoSeed        = 2024
)

// demoLeague builds a league of n teams on a round-robin schedule cut to
// seasonWeeks. The first playedWeeks weeks are already decided and the
// team records reflect them.
func demoLeague(n, playedWeeks, seasonWeeks int) ([]league.Team, []league.Matchup) {
	teams := make([]league.Team, n)
	ids := make([]int, n)
	for i := range teams {
		ids[i] = i + 1
		teams[i] = league.Team{
			ID:        i + 1,
			Name:      fmt.Sprintf("Team %d", i+1),
			Owner:     fmt.Sprintf("owner%d", i+1),
			AvgPoints: 95 + float64((i*7)%25),
		}
	}

	rounds := 1
	if n > 1 {
		rounds = (seasonWeeks + n - 2) / (n - 1)
	}
	var matchups []league.Matchup
	for _, m := range league.RoundRobin(ids, rounds) {
		if m.Week > seasonWeeks {
			break
		}
		matchups = append(matchups, m)
	}

	src := rand.NewPCG(demoSeed, 0)
	for i := range matchups {
		m := &matchups[i]
		if m.Week > playedWeeks {
			break
		}
		home, away := &teams[m.Team1-1], &teams[m.Team2-1]
		s1, s2, winner := league.SimulateMatch(*home, *away, league.DefaultScoreStdDev, src)
		m.Team1Score, m.Team2Score, m.Winner = &s1, &s2, &winner

		home.TotalPoints += s1
		away.TotalPoints += s2
		if winner == home.ID {
			home.Wins++
			away.Losses++
		} else {
			away.Wins++
			home.Losses++
		}
	}
	return teams, matchups
}
