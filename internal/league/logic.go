// internal/league/logic.go
package league

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultScoreStdDev is the spread of a simulated team score around its average.
const DefaultScoreStdDev = 30.0

// DefaultPlayoffSlots is the number of teams that qualify for the playoffs.
const DefaultPlayoffSlots = 6

// SeasonParams controls how a single season is simulated.
type SeasonParams struct {
	ScoreStdDev  float64
	PlayoffSlots int
}

// TableEntry holds the standings info for one team in one season.
type TableEntry struct {
	TeamID    int
	Wins      int
	Losses    int
	PointsFor float64
}

func (r MatchResult) ScoreLine() string {
	return fmt.Sprintf("week %d: %d %.2f - %.2f %d (winner %d)",
		r.Week, r.Team1, r.Team1Score,
		r.Team2Score, r.Team2, r.Winner,
	)
}

// SimulateMatch draws a score for each team from a Normal distribution
// centred on its average points. An exact tie goes to team1.
func SimulateMatch(team1, team2 Team, stdDev float64, src rand.Source) (score1, score2 float64, winner int) {
	score1 = distuv.Normal{Mu: team1.AvgPoints, Sigma: stdDev, Src: src}.Rand()
	score2 = distuv.Normal{Mu: team2.AvgPoints, Sigma: stdDev, Src: src}.Rand()

	winner = team1.ID
	if score2 > score1 {
		winner = team2.ID
	}
	return score1, score2, winner
}

// SimulateSeason plays out every open matchup in the schedule, keeps the
// settled ones as recorded, and picks the playoff teams for the result.
func SimulateSeason(schedule Schedule, teams *TeamTable, params SeasonParams, src rand.Source) (Season, error) {
	results := make([]MatchResult, 0, len(schedule.Matchups))
	for _, m := range schedule.Matchups {
		if m.Settled() {
			results = append(results, settledResult(m))
			continue
		}

		team1, err := teams.Team(m.Team1)
		if err != nil {
			return Season{}, fmt.Errorf("week %d matchup: %w", m.Week, err)
		}
		team2, err := teams.Team(m.Team2)
		if err != nil {
			return Season{}, fmt.Errorf("week %d matchup: %w", m.Week, err)
		}

		s1, s2, winner := SimulateMatch(team1, team2, params.ScoreStdDev, src)
		results = append(results, MatchResult{
			Week:       m.Week,
			Team1:      m.Team1,
			Team2:      m.Team2,
			Team1Score: s1,
			Team2Score: s2,
			Winner:     winner,
		})
	}

	playoffs, err := PlayoffTeams(results, teams, params.PlayoffSlots)
	if err != nil {
		return Season{}, err
	}
	return Season{Results: results, PlayoffTeams: playoffs}, nil
}

func settledResult(m Matchup) MatchResult {
	r := MatchResult{
		Week:   m.Week,
		Team1:  m.Team1,
		Team2:  m.Team2,
		Winner: *m.Winner,
	}
	if m.Team1Score != nil {
		r.Team1Score = *m.Team1Score
	}
	if m.Team2Score != nil {
		r.Team2Score = *m.Team2Score
	}
	return r
}

// CalculateTable ranks every team in the table by wins, then points for.
// Points for starts at the team's current total and adds the team's own
// score from each result it played. Remaining ties keep table order.
func CalculateTable(results []MatchResult, teams *TeamTable) ([]*TableEntry, error) {
	entries := make([]*TableEntry, teams.Len())
	for i, t := range teams.Teams() {
		entries[i] = &TableEntry{TeamID: t.ID, PointsFor: t.TotalPoints}
	}

	for _, r := range results {
		p1, p2 := teams.Position(r.Team1), teams.Position(r.Team2)
		if p1 < 0 {
			return nil, fmt.Errorf("week %d result: team %d: %w", r.Week, r.Team1, ErrUnknownTeam)
		}
		if p2 < 0 {
			return nil, fmt.Errorf("week %d result: team %d: %w", r.Week, r.Team2, ErrUnknownTeam)
		}
		home, away := entries[p1], entries[p2]
		home.PointsFor += r.Team1Score
		away.PointsFor += r.Team2Score

		switch r.Winner {
		case r.Team1:
			home.Wins++
			away.Losses++
		case r.Team2:
			away.Wins++
			home.Losses++
		default:
			return nil, fmt.Errorf("week %d result: winner %d: %w", r.Week, r.Winner, ErrUnknownTeam)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.PointsFor > b.PointsFor
	})
	return entries, nil
}

// PlayoffTeams returns the ids of the top slots teams of the season.
func PlayoffTeams(results []MatchResult, teams *TeamTable, slots int) ([]int, error) {
	table, err := CalculateTable(results, teams)
	if err != nil {
		return nil, err
	}
	if slots > len(table) {
		slots = len(table)
	}
	if slots < 0 {
		slots = 0
	}

	ids := make([]int, slots)
	for i := 0; i < slots; i++ {
		ids[i] = table[i].TeamID
	}
	return ids, nil
}

// RoundRobin returns a schedule in which every team meets every other team
// once per round, using the circle method. Home and away swap on every
// second round. Weeks are numbered from 1.
func RoundRobin(teamIDs []int, rounds int) []Matchup {
	ids := make([]*int, len(teamIDs))
	for i := range teamIDs {
		ids[i] = &teamIDs[i]
	}
	// If odd number of teams, add a nil placeholder (bye)
	if len(ids)%2 != 0 {
		ids = append(ids, nil)
	}
	n := len(ids)
	if n < 2 || rounds < 1 {
		return nil
	}

	var schedule []Matchup
	week := 1
	for r := 0; r < rounds; r++ {
		teams := make([]*int, n)
		copy(teams, ids)
		for i := 0; i < n-1; i++ {
			for j := 0; j < n/2; j++ {
				home, away := teams[j], teams[n-1-j]
				if home == nil || away == nil {
					continue
				}
				if r%2 == 1 {
					home, away = away, home
				}
				schedule = append(schedule, Matchup{Week: week, Team1: *home, Team2: *away})
			}
			week++

			// Rotate every team except the first
			last := teams[n-1]
			copy(teams[2:], teams[1:n-1])
			teams[1] = last
		}
	}
	return schedule
}
