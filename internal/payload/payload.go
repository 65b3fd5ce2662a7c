// Package payload decodes and validates league data arriving from the
// outside: HTTP bodies and league files.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/utakatalp/fantasy-simulator/internal/league"
	"github.com/utakatalp/fantasy-simulator/internal/montecarlo"
)

// ErrInvalidInput is returned for any malformed league payload.
var ErrInvalidInput = errors.New("invalid input")

// TeamInput is a team as submitted. Every field is required.
type TeamInput struct {
	TeamID      *int     `json:"team_id" yaml:"team_id" validate:"required"`
	TeamName    *string  `json:"team_name" yaml:"team_name" validate:"required"`
	TeamOwner   *string  `json:"team_owner" yaml:"team_owner" validate:"required"`
	AvgPoints   *float64 `json:"avg_points" yaml:"avg_points" validate:"required"`
	TotalPoints *float64 `json:"total_points" yaml:"total_points" validate:"required"`
	Wins        *int     `json:"wins" yaml:"wins" validate:"required"`
	Losses      *int     `json:"losses" yaml:"losses" validate:"required"`
}

// MatchupInput is a matchup as submitted. A null or missing winner marks
// the game as still to be played.
type MatchupInput struct {
	Week       *int     `json:"week" yaml:"week" validate:"required,gt=0"`
	Team1      *int     `json:"team1" yaml:"team1" validate:"required"`
	Team2      *int     `json:"team2" yaml:"team2" validate:"required,nefield=Team1"`
	Winner     *int     `json:"winner" yaml:"winner"`
	Team1Score *float64 `json:"team1_score" yaml:"team1_score"`
	Team2Score *float64 `json:"team2_score" yaml:"team2_score"`
}

// OptionsInput overrides simulation defaults field by field.
type OptionsInput struct {
	TotalIterations *int     `json:"total_iterations" yaml:"total_iterations"`
	BatchSize       *int     `json:"batch_size" yaml:"batch_size"`
	PlayoffSlots    *int     `json:"playoff_slots" yaml:"playoff_slots"`
	ScoreStdDev     *float64 `json:"score_std_dev" yaml:"score_std_dev"`
	Seed            *uint64  `json:"seed" yaml:"seed"`
}

// SimulationRequest is the body of a simulation request and the layout
// of a league file.
type SimulationRequest struct {
	Teams    []TeamInput    `json:"teams" yaml:"teams" validate:"required,min=1,unique=TeamID,dive"`
	Matchups []MatchupInput `json:"matchups" yaml:"matchups" validate:"required,min=1,dive"`
	Options  *OptionsInput  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Decode reads a JSON simulation request.
func Decode(r io.Reader) (*SimulationRequest, error) {
	var req SimulationRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: decoding request: %v", ErrInvalidInput, err)
	}
	return &req, nil
}

// DecodeOptions reads a body that may only carry options. An empty body
// yields no overrides; any other top-level key is rejected.
func DecodeOptions(r io.Reader) (*OptionsInput, error) {
	var body struct {
		Options *OptionsInput `json:"options"`
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: decoding options: %v", ErrInvalidInput, err)
	}
	return body.Options, nil
}

// Validate checks the request tags first (presence, positive weeks,
// unique team ids, no team playing itself), then that every matchup refers
// to known teams and names one of its own sides as winner.
func (r *SimulationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidInput, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ids := make(map[int]struct{}, len(r.Teams))
	for _, t := range r.Teams {
		ids[*t.TeamID] = struct{}{}
	}
	for i, m := range r.Matchups {
		for _, id := range []int{*m.Team1, *m.Team2} {
			if _, ok := ids[id]; !ok {
				return fmt.Errorf("%w: matchups[%d]: team %d: %v", ErrInvalidInput, i, id, league.ErrUnknownTeam)
			}
		}
		if m.Winner != nil && *m.Winner != *m.Team1 && *m.Winner != *m.Team2 {
			return fmt.Errorf("%w: matchups[%d]: winner %d is not one of the two teams", ErrInvalidInput, i, *m.Winner)
		}
	}
	return nil
}

// Tables validates the request and converts it into league tables.
func (r *SimulationRequest) Tables() ([]league.Team, []league.Matchup, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, err
	}

	teams := make([]league.Team, len(r.Teams))
	for i, t := range r.Teams {
		teams[i] = league.Team{
			ID:          *t.TeamID,
			Name:        *t.TeamName,
			Owner:       *t.TeamOwner,
			AvgPoints:   *t.AvgPoints,
			TotalPoints: *t.TotalPoints,
			Wins:        *t.Wins,
			Losses:      *t.Losses,
		}
	}

	matchups := make([]league.Matchup, len(r.Matchups))
	for i, m := range r.Matchups {
		matchups[i] = league.Matchup{
			Week:       *m.Week,
			Team1:      *m.Team1,
			Team2:      *m.Team2,
			Winner:     m.Winner,
			Team1Score: m.Team1Score,
			Team2Score: m.Team2Score,
		}
	}
	return teams, matchups, nil
}

// Apply returns base with every set override copied over it. A nil
// receiver returns base unchanged.
func (o *OptionsInput) Apply(base montecarlo.Options) montecarlo.Options {
	if o == nil {
		return base
	}
	if o.TotalIterations != nil {
		base.TotalIterations = *o.TotalIterations
	}
	if o.BatchSize != nil {
		base.BatchSize = *o.BatchSize
	}
	if o.PlayoffSlots != nil {
		base.PlayoffSlots = *o.PlayoffSlots
	}
	if o.ScoreStdDev != nil {
		base.ScoreStdDev = *o.ScoreStdDev
	}
	if o.Seed != nil {
		base.Seed = *o.Seed
	}
	return base
}

// FromTables is the inverse of Tables, used when a league that is already
// loaded needs to be written back out.
func FromTables(teams []league.Team, matchups []league.Matchup) *SimulationRequest {
	req := &SimulationRequest{
		Teams:    make([]TeamInput, len(teams)),
		Matchups: make([]MatchupInput, len(matchups)),
	}
	for i := range teams {
		t := &teams[i]
		req.Teams[i] = TeamInput{
			TeamID:      &t.ID,
			TeamName:    &t.Name,
			TeamOwner:   &t.Owner,
			AvgPoints:   &t.AvgPoints,
			TotalPoints: &t.TotalPoints,
			Wins:        &t.Wins,
			Losses:      &t.Losses,
		}
	}
	for i := range matchups {
		m := &matchups[i]
		req.Matchups[i] = MatchupInput{
			Week:       &m.Week,
			Team1:      &m.Team1,
			Team2:      &m.Team2,
			Winner:     m.Winner,
			Team1Score: m.Team1Score,
			Team2Score: m.Team2Score,
		}
	}
	return req
}
