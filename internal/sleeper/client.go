package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Sleeper API root.
const DefaultBaseURL = "https://api.sleeper.app/v1"

// ErrLeagueNotFound is returned when Sleeper has no league for an id.
var ErrLeagueNotFound = errors.New("sleeper league not found")

// Client talks to the Sleeper fantasy football API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *logrus.Logger
	rateLimiter *rate.Limiter
}

// NewClient creates a Sleeper API client limited to requestsPerSecond.
func NewClient(baseURL string, requestsPerSecond float64, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Sleeper API response structures
type League struct {
	LeagueID string         `json:"league_id"`
	Name     string         `json:"name"`
	Season   string         `json:"season"`
	Status   string         `json:"status"`
	Settings LeagueSettings `json:"settings"`
}

type LeagueSettings struct {
	PlayoffTeams     int `json:"playoff_teams"`
	PlayoffWeekStart int `json:"playoff_week_start"`
}

type Roster struct {
	RosterID int            `json:"roster_id"`
	OwnerID  string         `json:"owner_id"`
	Settings RosterSettings `json:"settings"`
}

type RosterSettings struct {
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Ties        int `json:"ties"`
	Fpts        int `json:"fpts"`
	FptsDecimal int `json:"fpts_decimal"`
}

type User struct {
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name"`
	Metadata    UserMetadata `json:"metadata"`
}

type UserMetadata struct {
	TeamName string `json:"team_name"`
}

// MatchupEntry is one roster's side of a weekly matchup. Rosters on a bye
// have no matchup id.
type MatchupEntry struct {
	RosterID  int     `json:"roster_id"`
	MatchupID *int    `json:"matchup_id"`
	Points    float64 `json:"points"`
}

// League fetches league metadata and settings.
func (c *Client) League(ctx context.Context, leagueID string) (*League, error) {
	var l *League
	if err := c.get(ctx, "/league/"+leagueID, &l); err != nil {
		return nil, err
	}
	// Sleeper answers unknown ids with a JSON null.
	if l == nil {
		return nil, fmt.Errorf("league %s: %w", leagueID, ErrLeagueNotFound)
	}
	return l, nil
}

// Rosters fetches every roster in the league.
func (c *Client) Rosters(ctx context.Context, leagueID string) ([]Roster, error) {
	var rosters []Roster
	if err := c.get(ctx, "/league/"+leagueID+"/rosters", &rosters); err != nil {
		return nil, err
	}
	return rosters, nil
}

// Users fetches the league members.
func (c *Client) Users(ctx context.Context, leagueID string) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/league/"+leagueID+"/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Matchups fetches one week of matchups.
func (c *Client) Matchups(ctx context.Context, leagueID string, week int) ([]MatchupEntry, error) {
	var entries []MatchupEntry
	if err := c.get(ctx, fmt.Sprintf("/league/%s/matchups/%d", leagueID, week), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start),
	}).Debug("Sleeper request completed")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status code: %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
