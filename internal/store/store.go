package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/utakatalp/fantasy-simulator/internal/league"
)

// ErrLeagueNotFound is returned when no teams are stored for a league id.
var ErrLeagueNotFound = errors.New("league not found")

// Store wraps a Postgres connection and persists league inputs: the team
// table, the schedule and the league's playoff slots. Simulation output is
// never stored.
type Store struct {
	DB *sql.DB
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leagues (
		    league_id     TEXT PRIMARY KEY,
		    playoff_slots INT
		);`,
		`CREATE TABLE IF NOT EXISTS league_teams (
		    league_id    TEXT             NOT NULL,
		    team_id      INT              NOT NULL,
		    position     INT              NOT NULL,
		    name         TEXT             NOT NULL,
		    owner        TEXT             NOT NULL DEFAULT '',
		    avg_points   DOUBLE PRECISION NOT NULL DEFAULT 0,
		    total_points DOUBLE PRECISION NOT NULL DEFAULT 0,
		    wins         INT              NOT NULL DEFAULT 0,
		    losses       INT              NOT NULL DEFAULT 0,
		    PRIMARY KEY (league_id, team_id)
		);`,
		`CREATE TABLE IF NOT EXISTS league_matchups (
		    id          SERIAL PRIMARY KEY,
		    league_id   TEXT NOT NULL,
		    week        INT  NOT NULL,
		    team1       INT  NOT NULL,
		    team2       INT  NOT NULL,
		    winner      INT,
		    team1_score DOUBLE PRECISION,
		    team2_score DOUBLE PRECISION,
		    FOREIGN KEY (league_id, team1) REFERENCES league_teams (league_id, team_id),
		    FOREIGN KEY (league_id, team2) REFERENCES league_teams (league_id, team_id)
		);`,
		`CREATE INDEX IF NOT EXISTS league_matchups_league_week ON league_matchups (league_id, week);`,
	}
	for _, q := range queries {
		if _, err := s.DB.Exec(q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// SaveLeague replaces everything stored for leagueID with the given teams
// and matchups in a single transaction. playoffSlots of 0 leaves the slot
// count unset so simulations fall back to their default.
func (s *Store) SaveLeague(ctx context.Context, leagueID string, teams []league.Team, matchups []league.Matchup, playoffSlots int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveLeague tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := deleteLeague(ctx, tx, leagueID); err != nil {
		return err
	}

	var slots sql.NullInt64
	if playoffSlots > 0 {
		slots = sql.NullInt64{Int64: int64(playoffSlots), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO leagues (league_id, playoff_slots) VALUES ($1, $2);`, leagueID, slots,
	); err != nil {
		return fmt.Errorf("inserting league %q: %w", leagueID, err)
	}

	const insertTeam = `
    INSERT INTO league_teams (league_id, team_id, position, name, owner, avg_points, total_points, wins, losses)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	for i, t := range teams {
		if _, err := tx.ExecContext(ctx, insertTeam,
			leagueID, t.ID, i, t.Name, t.Owner, t.AvgPoints, t.TotalPoints, t.Wins, t.Losses,
		); err != nil {
			return fmt.Errorf("inserting team %d (%s): %w", t.ID, t.Name, err)
		}
	}

	const insertMatchup = `
    INSERT INTO league_matchups (league_id, week, team1, team2, winner, team1_score, team2_score)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	for _, m := range matchups {
		if _, err := tx.ExecContext(ctx, insertMatchup,
			leagueID, m.Week, m.Team1, m.Team2, m.Winner, m.Team1Score, m.Team2Score,
		); err != nil {
			return fmt.Errorf("inserting week %d matchup %d-%d: %w", m.Week, m.Team1, m.Team2, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveLeague tx: %w", err)
	}
	return nil
}

// GetTeams returns the league's teams in the order they were saved.
func (s *Store) GetTeams(ctx context.Context, leagueID string) ([]league.Team, error) {
	const q = `
        SELECT
            team_id,
            name,
            owner,
            avg_points,
            total_points,
            wins,
            losses
        FROM league_teams
        WHERE league_id = $1
        ORDER BY position
    `
	rows, err := s.DB.QueryContext(ctx, q, leagueID)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Owner,
			&t.AvgPoints,
			&t.TotalPoints,
			&t.Wins,
			&t.Losses,
		); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams rows: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("league %q: %w", leagueID, ErrLeagueNotFound)
	}
	return teams, nil
}

// LoadMatchups fetches the league's schedule ordered by week. Rows with a
// NULL winner are open.
func (s *Store) LoadMatchups(ctx context.Context, leagueID string) ([]league.Matchup, error) {
	const q = `
SELECT week, team1, team2, winner, team1_score, team2_score
FROM league_matchups
WHERE league_id = $1
ORDER BY week, id;
`
	rows, err := s.DB.QueryContext(ctx, q, leagueID)
	if err != nil {
		return nil, fmt.Errorf("querying matchups: %w", err)
	}
	defer rows.Close()

	var matchups []league.Matchup
	for rows.Next() {
		var (
			m              league.Matchup
			winner         sql.NullInt64
			score1, score2 sql.NullFloat64
		)
		if err := rows.Scan(&m.Week, &m.Team1, &m.Team2, &winner, &score1, &score2); err != nil {
			return nil, fmt.Errorf("scanning matchup: %w", err)
		}
		if winner.Valid {
			w := int(winner.Int64)
			m.Winner = &w
		}
		if score1.Valid {
			m.Team1Score = &score1.Float64
		}
		if score2.Valid {
			m.Team2Score = &score2.Float64
		}
		matchups = append(matchups, m)
	}
	return matchups, rows.Err()
}

// PlayoffSlots returns the stored playoff slot count for a league, or 0
// when none was saved.
func (s *Store) PlayoffSlots(ctx context.Context, leagueID string) (int, error) {
	var slots sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT playoff_slots FROM leagues WHERE league_id = $1;`, leagueID,
	).Scan(&slots)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying playoff slots: %w", err)
	}
	return int(slots.Int64), nil
}

// DeleteLeague removes a league's teams, matchups and settings.
func (s *Store) DeleteLeague(ctx context.Context, leagueID string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin DeleteLeague tx: %w", err)
	}
	defer tx.Rollback()

	n, err := deleteLeague(ctx, tx, leagueID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("league %q: %w", leagueID, ErrLeagueNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit DeleteLeague tx: %w", err)
	}
	return nil
}

// deleteLeague returns the number of team rows removed.
func deleteLeague(ctx context.Context, tx *sql.Tx, leagueID string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM league_matchups WHERE league_id = $1;`, leagueID); err != nil {
		return 0, fmt.Errorf("deleting matchups: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM league_teams WHERE league_id = $1;`, leagueID)
	if err != nil {
		return 0, fmt.Errorf("deleting teams: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting teams: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM leagues WHERE league_id = $1;`, leagueID); err != nil {
		return 0, fmt.Errorf("deleting league: %w", err)
	}
	return n, nil
}
