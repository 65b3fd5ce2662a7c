package sleeper

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

const unknownOwner = "Unknown"

// Import is a Sleeper league converted into simulator tables.
type Import struct {
	League       League           `json:"league"`
	Teams        []league.Team    `json:"teams"`
	Matchups     []league.Matchup `json:"matchups"`
	PlayoffSlots int              `json:"playoff_slots"`
}

// ImportLeague pulls a league's rosters, members and regular season
// schedule. The season length comes from the league's playoff start week,
// or defaultWeeks when the league does not set one.
func (c *Client) ImportLeague(ctx context.Context, leagueID string, defaultWeeks int) (*Import, error) {
	l, err := c.League(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	weeks := defaultWeeks
	if l.Settings.PlayoffWeekStart > 1 {
		weeks = l.Settings.PlayoffWeekStart - 1
	}
	weeks = max(weeks, 0)

	var (
		rosters []Roster
		users   []User
		byWeek  = make([][]MatchupEntry, weeks)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rosters, err = c.Rosters(gctx, leagueID)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = c.Users(gctx, leagueID)
		return err
	})
	for w := 1; w <= weeks; w++ {
		g.Go(func() error {
			entries, err := c.Matchups(gctx, leagueID, w)
			if err != nil {
				return fmt.Errorf("week %d: %w", w, err)
			}
			byWeek[w-1] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("importing league %s: %w", leagueID, err)
	}

	imp := &Import{
		League:       *l,
		Teams:        buildTeams(rosters, users),
		PlayoffSlots: l.Settings.PlayoffTeams,
	}
	for i, entries := range byWeek {
		imp.Matchups = append(imp.Matchups, pairMatchups(i+1, entries)...)
	}

	c.logger.WithFields(logrus.Fields{
		"league_id":     leagueID,
		"league_name":   l.Name,
		"teams":         len(imp.Teams),
		"matchups":      len(imp.Matchups),
		"weeks":         weeks,
		"playoff_slots": imp.PlayoffSlots,
	}).Info("Imported Sleeper league")
	return imp, nil
}

func buildTeams(rosters []Roster, users []User) []league.Team {
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	teams := make([]league.Team, 0, len(rosters))
	for _, r := range rosters {
		owner := unknownOwner
		name := fmt.Sprintf("Team %d", r.RosterID)
		if u, ok := byID[r.OwnerID]; ok {
			if u.DisplayName != "" {
				owner = u.DisplayName
				name = u.DisplayName
			}
			if u.Metadata.TeamName != "" {
				name = u.Metadata.TeamName
			}
		}

		s := r.Settings
		total := float64(s.Fpts) + float64(s.FptsDecimal)/100
		avg := 0.0
		if games := s.Wins + s.Losses; games > 0 {
			avg = total / float64(games)
		}
		teams = append(teams, league.Team{
			ID:          r.RosterID,
			Name:        name,
			Owner:       owner,
			AvgPoints:   round2(avg),
			TotalPoints: round2(total),
			Wins:        s.Wins,
			Losses:      s.Losses,
		})
	}
	return teams
}

// pairMatchups joins the two sides sharing a matchup id. The first roster
// seen is team1. A game is settled once both sides have scored.
func pairMatchups(week int, entries []MatchupEntry) []league.Matchup {
	var (
		out   []league.Matchup
		index = make(map[int]int)
	)
	for _, e := range entries {
		if e.MatchupID == nil {
			continue
		}
		i, ok := index[*e.MatchupID]
		if !ok {
			index[*e.MatchupID] = len(out)
			score := e.Points
			out = append(out, league.Matchup{Week: week, Team1: e.RosterID, Team1Score: &score})
			continue
		}
		score := e.Points
		out[i].Team2 = e.RosterID
		out[i].Team2Score = &score
	}

	paired := out[:0]
	for _, m := range out {
		if m.Team2Score == nil {
			continue
		}
		if *m.Team1Score > 0 && *m.Team2Score > 0 {
			winner := m.Team1
			if *m.Team2Score > *m.Team1Score {
				winner = m.Team2
			}
			m.Winner = &winner
		} else {
			m.Team1Score, m.Team2Score = nil, nil
		}
		paired = append(paired, m)
	}
	return paired
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
