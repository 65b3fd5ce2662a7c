package league

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTeam is returned when a matchup or result names a team id
// that is not present in the team table.
var ErrUnknownTeam = errors.New("unknown team")

// Team represents a fantasy team in the league.
type Team struct {
	ID          int     `json:"team_id"`
	Name        string  `json:"team_name"`
	Owner       string  `json:"team_owner"`
	AvgPoints   float64 `json:"avg_points"`
	TotalPoints float64 `json:"total_points"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
}

// Matchup is a scheduled game between two teams. A matchup with a Winner
// is settled and is carried through every simulation unchanged.
type Matchup struct {
	Week       int      `json:"week"`
	Team1      int      `json:"team1"`
	Team2      int      `json:"team2"`
	Winner     *int     `json:"winner,omitempty"`
	Team1Score *float64 `json:"team1_score,omitempty"`
	Team2Score *float64 `json:"team2_score,omitempty"`
}

// Settled reports whether the matchup already has a recorded winner.
func (m Matchup) Settled() bool {
	return m.Winner != nil
}

// MatchResult is one played (or simulated) game.
type MatchResult struct {
	Week       int     `json:"week"`
	Team1      int     `json:"team1"`
	Team2      int     `json:"team2"`
	Team1Score float64 `json:"team1_score"`
	Team2Score float64 `json:"team2_score"`
	Winner     int     `json:"winner"`
}

// Season is one complete simulated season.
type Season struct {
	Results      []MatchResult
	PlayoffTeams []int
}

// StandingsRow holds the projected record for one team.
type StandingsRow struct {
	TeamID        int     `json:"team_id"`
	TeamName      string  `json:"team_name"`
	AvgWins       float64 `json:"avg_wins"`
	AvgLosses     float64 `json:"avg_losses"`
	PlayoffChance float64 `json:"playoff_chance"`
}

// MatchupAverage holds the averaged outcome of one pairing in one week.
type MatchupAverage struct {
	Week         int     `json:"week"`
	Team1        int     `json:"team1"`
	Team2        int     `json:"team2"`
	Team1Score   float64 `json:"team1_score"`
	Team2Score   float64 `json:"team2_score"`
	Team1WinProb float64 `json:"team1_win_prob"`
	Team2WinProb float64 `json:"team2_win_prob"`
}

// TeamTable indexes teams by id while keeping their input order.
type TeamTable struct {
	teams []Team
	index map[int]int
}

// NewTeamTable builds a lookup table. Duplicate ids are rejected.
func NewTeamTable(teams []Team) (*TeamTable, error) {
	tt := &TeamTable{
		teams: make([]Team, len(teams)),
		index: make(map[int]int, len(teams)),
	}
	copy(tt.teams, teams)
	for i, t := range teams {
		if _, dup := tt.index[t.ID]; dup {
			return nil, fmt.Errorf("duplicate team id %d", t.ID)
		}
		tt.index[t.ID] = i
	}
	return tt, nil
}

// Team looks up a team by id.
func (tt *TeamTable) Team(id int) (Team, error) {
	i, ok := tt.index[id]
	if !ok {
		return Team{}, fmt.Errorf("team %d: %w", id, ErrUnknownTeam)
	}
	return tt.teams[i], nil
}

// Position returns the input position of the team, or -1.
func (tt *TeamTable) Position(id int) int {
	if i, ok := tt.index[id]; ok {
		return i
	}
	return -1
}

// Teams returns the teams in input order. The slice must not be modified.
func (tt *TeamTable) Teams() []Team {
	return tt.teams
}

// Len returns the number of teams.
func (tt *TeamTable) Len() int {
	return len(tt.teams)
}

// Schedule is a week-ordered list of matchups.
type Schedule struct {
	Matchups []Matchup
	weeks    []int
}

// NewSchedule copies the matchups and sorts them by week, keeping the
// original order inside each week.
func NewSchedule(matchups []Matchup) Schedule {
	ms := make([]Matchup, len(matchups))
	copy(ms, matchups)
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Week < ms[j].Week
	})

	var weeks []int
	for i, m := range ms {
		if i == 0 || m.Week != ms[i-1].Week {
			weeks = append(weeks, m.Week)
		}
	}
	return Schedule{Matchups: ms, weeks: weeks}
}

// Weeks returns the distinct week numbers in ascending order.
func (s Schedule) Weeks() []int {
	return s.weeks
}

// Open returns the number of matchups that still need simulating.
func (s Schedule) Open() int {
	n := 0
	for _, m := range s.Matchups {
		if !m.Settled() {
			n++
		}
	}
	return n
}
