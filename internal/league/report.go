package league

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// PrintStandings writes the projected standings as an aligned table.
func PrintStandings(out io.Writer, label string, rows []StandingsRow) error {
	fmt.Fprintln(out, label)
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintln(w, "Team\tW\tL\tPlayoffs")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.1f%%\n",
			r.TeamName, r.AvgWins, r.AvgLosses, r.PlayoffChance*100)
	}
	return w.Flush()
}

// PrintMatchups writes the per-game averages, resolving team names from
// the table where possible.
func PrintMatchups(out io.Writer, label string, rows []MatchupAverage, teams *TeamTable) error {
	fmt.Fprintln(out, label)
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintln(w, "Week\tMatch\tScore\tWin %")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s vs %s\t%.2f - %.2f\t%.1f%% - %.1f%%\n",
			r.Week, teamName(teams, r.Team1), teamName(teams, r.Team2),
			r.Team1Score, r.Team2Score,
			r.Team1WinProb*100, r.Team2WinProb*100,
		)
	}
	return w.Flush()
}

func teamName(teams *TeamTable, id int) string {
	if teams != nil {
		if t, err := teams.Team(id); err == nil && t.Name != "" {
			return t.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}
