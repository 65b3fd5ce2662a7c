package league

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func twoTeams() []Team {
	return []Team{
		{ID: 1, Name: "Team A", Owner: "Owner1", AvgPoints: 100.5, TotalPoints: 1206, Wins: 6, Losses: 6},
		{ID: 2, Name: "Team B", Owner: "Owner2", AvgPoints: 95.3, TotalPoints: 1143.6, Wins: 5, Losses: 7},
	}
}

func mustTable(t *testing.T, teams []Team) *TeamTable {
	t.Helper()
	tt, err := NewTeamTable(teams)
	require.NoError(t, err)
	return tt
}

func TestSimulateMatch_TwoTeams(t *testing.T) {
	teams := twoTeams()
	src := rand.NewPCG(1, 2)

	for i := 0; i < 10; i++ {
		s1, s2, winner := SimulateMatch(teams[0], teams[1], DefaultScoreStdDev, src)
		assert.NotEqual(t, s1, s2)
		assert.Contains(t, []int{1, 2}, winner)
		if s1 > s2 {
			assert.Equal(t, 1, winner)
		} else {
			assert.Equal(t, 2, winner)
		}
	}
}

func TestSimulateMatch_TieGoesToTeam1(t *testing.T) {
	a := Team{ID: 7, AvgPoints: 100}
	b := Team{ID: 9, AvgPoints: 100}

	s1, s2, winner := SimulateMatch(a, b, 0, rand.NewPCG(3, 4))

	assert.Equal(t, 100.0, s1)
	assert.Equal(t, 100.0, s2)
	assert.Equal(t, 7, winner)
}

func TestSimulateMatch_SameSourceSameScores(t *testing.T) {
	teams := twoTeams()
	a1, a2, aw := SimulateMatch(teams[0], teams[1], 30, rand.NewPCG(42, 0))
	b1, b2, bw := SimulateMatch(teams[0], teams[1], 30, rand.NewPCG(42, 0))

	assert.Equal(t, a1, b1)
	assert.Equal(t, a2, b2)
	assert.Equal(t, aw, bw)
}

func TestSimulateSeason_SingleOpenMatchup(t *testing.T) {
	table := mustTable(t, twoTeams())
	schedule := NewSchedule([]Matchup{{Week: 1, Team1: 1, Team2: 2}})
	params := SeasonParams{ScoreStdDev: DefaultScoreStdDev, PlayoffSlots: DefaultPlayoffSlots}

	for i := 0; i < 10; i++ {
		season, err := SimulateSeason(schedule, table, params, rand.NewPCG(uint64(i), 1))
		require.NoError(t, err)
		require.Len(t, season.Results, 1)
		assert.Equal(t, 1, season.Results[0].Week)
		assert.Contains(t, []int{1, 2}, season.Results[0].Winner)
		assert.ElementsMatch(t, []int{1, 2}, season.PlayoffTeams)
	}
}

func TestSimulateSeason_SettledMatchupsCopied(t *testing.T) {
	table := mustTable(t, twoTeams())
	schedule := NewSchedule([]Matchup{
		{Week: 2, Team1: 2, Team2: 1},
		{Week: 1, Team1: 1, Team2: 2, Winner: intPtr(2), Team1Score: floatPtr(88.2), Team2Score: floatPtr(101.4)},
	})
	params := SeasonParams{ScoreStdDev: 30, PlayoffSlots: 1}

	season, err := SimulateSeason(schedule, table, params, rand.NewPCG(5, 5))

	require.NoError(t, err)
	require.Len(t, season.Results, 2)
	assert.Equal(t, MatchResult{Week: 1, Team1: 1, Team2: 2, Team1Score: 88.2, Team2Score: 101.4, Winner: 2}, season.Results[0])
	assert.Equal(t, 2, season.Results[1].Week)
	assert.Len(t, season.PlayoffTeams, 1)
}

func TestSimulateSeason_SettledWithoutScores(t *testing.T) {
	table := mustTable(t, twoTeams())
	schedule := NewSchedule([]Matchup{{Week: 1, Team1: 1, Team2: 2, Winner: intPtr(1)}})

	season, err := SimulateSeason(schedule, table, SeasonParams{ScoreStdDev: 30, PlayoffSlots: 2}, rand.NewPCG(1, 1))

	require.NoError(t, err)
	assert.Equal(t, 0.0, season.Results[0].Team1Score)
	assert.Equal(t, 0.0, season.Results[0].Team2Score)
	assert.Equal(t, 1, season.Results[0].Winner)
}

func TestSimulateSeason_UnknownTeam(t *testing.T) {
	table := mustTable(t, twoTeams())
	schedule := NewSchedule([]Matchup{{Week: 1, Team1: 1, Team2: 99}})

	_, err := SimulateSeason(schedule, table, SeasonParams{ScoreStdDev: 30, PlayoffSlots: 6}, rand.NewPCG(1, 1))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTeam))
	assert.Contains(t, err.Error(), "team 99")
}

func TestSimulateSeason_NoMatchups(t *testing.T) {
	teams := twoTeams()
	table := mustTable(t, teams)

	season, err := SimulateSeason(NewSchedule(nil), table, SeasonParams{ScoreStdDev: 30, PlayoffSlots: 1}, rand.NewPCG(1, 1))

	require.NoError(t, err)
	assert.Empty(t, season.Results)
	// With no games the higher starting total qualifies.
	assert.Equal(t, []int{1}, season.PlayoffTeams)
}

func TestCalculateTable_SymmetricPointsFor(t *testing.T) {
	table := mustTable(t, []Team{
		{ID: 1, TotalPoints: 0},
		{ID: 2, TotalPoints: 0},
		{ID: 3, TotalPoints: 0},
	})
	results := []MatchResult{
		{Week: 1, Team1: 1, Team2: 2, Team1Score: 90, Team2Score: 110, Winner: 2},
		{Week: 2, Team1: 3, Team2: 1, Team1Score: 80, Team2Score: 120, Winner: 1},
		{Week: 3, Team1: 2, Team2: 3, Team1Score: 70, Team2Score: 75, Winner: 3},
	}

	entries, err := CalculateTable(results, table)

	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Everyone is 1-1; ranked by points for: 1 (210), 2 (180), 3 (155).
	assert.Equal(t, 1, entries[0].TeamID)
	assert.Equal(t, 210.0, entries[0].PointsFor)
	assert.Equal(t, 2, entries[1].TeamID)
	assert.Equal(t, 180.0, entries[1].PointsFor)
	assert.Equal(t, 3, entries[2].TeamID)
	assert.Equal(t, 155.0, entries[2].PointsFor)
	for _, e := range entries {
		assert.Equal(t, 1, e.Wins)
		assert.Equal(t, 1, e.Losses)
	}
}

func TestPlayoffTeams_WinsBeforePoints(t *testing.T) {
	table := mustTable(t, []Team{
		{ID: 1, TotalPoints: 5000},
		{ID: 2, TotalPoints: 0},
	})
	results := []MatchResult{{Week: 1, Team1: 1, Team2: 2, Team1Score: 50, Team2Score: 60, Winner: 2}}

	ids, err := PlayoffTeams(results, table, 1)

	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids)
}

func TestPlayoffTeams_Deterministic(t *testing.T) {
	teams := make([]Team, 8)
	ids := make([]int, 8)
	for i := range teams {
		teams[i] = Team{ID: i + 1, AvgPoints: 100, TotalPoints: 1000}
		ids[i] = i + 1
	}
	table := mustTable(t, teams)
	season, err := SimulateSeason(NewSchedule(RoundRobin(ids, 1)), table, SeasonParams{ScoreStdDev: 30, PlayoffSlots: 6}, rand.NewPCG(9, 9))
	require.NoError(t, err)

	first, err := PlayoffTeams(season.Results, table, 6)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := PlayoffTeams(season.Results, table, 6)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, first, season.PlayoffTeams)
}

func TestPlayoffTeams_FullTiesKeepTableOrder(t *testing.T) {
	table := mustTable(t, []Team{{ID: 4}, {ID: 2}, {ID: 9}})

	ids, err := PlayoffTeams(nil, table, 2)

	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, ids)
}

func TestPlayoffTeams_MoreSlotsThanTeams(t *testing.T) {
	table := mustTable(t, twoTeams())

	ids, err := PlayoffTeams(nil, table, 6)

	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestPlayoffTeams_UnknownWinner(t *testing.T) {
	table := mustTable(t, twoTeams())
	results := []MatchResult{{Week: 1, Team1: 1, Team2: 2, Winner: 3}}

	_, err := PlayoffTeams(results, table, 2)

	assert.True(t, errors.Is(err, ErrUnknownTeam))
}

func TestPlayoffTeams_RoundRobinAlwaysSixDistinct(t *testing.T) {
	teams := make([]Team, 10)
	ids := make([]int, 10)
	for i := range teams {
		teams[i] = Team{ID: i + 1, AvgPoints: 90 + float64(i), TotalPoints: 900}
		ids[i] = i + 1
	}
	table := mustTable(t, teams)
	schedule := NewSchedule(RoundRobin(ids, 2))
	params := SeasonParams{ScoreStdDev: DefaultScoreStdDev, PlayoffSlots: DefaultPlayoffSlots}

	for run := 0; run < 500; run++ {
		season, err := SimulateSeason(schedule, table, params, rand.NewPCG(uint64(run), 77))
		require.NoError(t, err)
		require.Len(t, season.PlayoffTeams, 6)
		seen := map[int]bool{}
		for _, id := range season.PlayoffTeams {
			assert.False(t, seen[id], "team %d qualified twice", id)
			seen[id] = true
			assert.GreaterOrEqual(t, id, 1)
			assert.LessOrEqual(t, id, 10)
		}
	}
}

func TestRoundRobin_EveryPairOncePerRound(t *testing.T) {
	ids := []int{1, 2, 3, 4, 5, 6}
	schedule := RoundRobin(ids, 1)

	assert.Len(t, schedule, 15)
	pairs := map[[2]int]int{}
	perWeek := map[int]map[int]bool{}
	for _, m := range schedule {
		a, b := m.Team1, m.Team2
		if a > b {
			a, b = b, a
		}
		pairs[[2]int{a, b}]++
		if perWeek[m.Week] == nil {
			perWeek[m.Week] = map[int]bool{}
		}
		assert.False(t, perWeek[m.Week][m.Team1], "team %d plays twice in week %d", m.Team1, m.Week)
		assert.False(t, perWeek[m.Week][m.Team2], "team %d plays twice in week %d", m.Team2, m.Week)
		perWeek[m.Week][m.Team1] = true
		perWeek[m.Week][m.Team2] = true
	}
	assert.Len(t, pairs, 15)
	for _, n := range pairs {
		assert.Equal(t, 1, n)
	}
	assert.Len(t, perWeek, 5)
}

func TestRoundRobin_OddTeamsGetByes(t *testing.T) {
	schedule := RoundRobin([]int{1, 2, 3, 4, 5}, 2)

	assert.Len(t, schedule, 20)
	assert.Equal(t, 10, schedule[len(schedule)-1].Week)
}

func TestRoundRobin_SecondRoundSwapsSides(t *testing.T) {
	schedule := RoundRobin([]int{1, 2}, 2)

	require.Len(t, schedule, 2)
	assert.Equal(t, Matchup{Week: 1, Team1: 1, Team2: 2}, schedule[0])
	assert.Equal(t, Matchup{Week: 2, Team1: 2, Team2: 1}, schedule[1])
}

func TestNewSchedule_SortsByWeekStable(t *testing.T) {
	s := NewSchedule([]Matchup{
		{Week: 3, Team1: 1, Team2: 2},
		{Week: 1, Team1: 3, Team2: 4},
		{Week: 3, Team1: 5, Team2: 6},
		{Week: 1, Team1: 7, Team2: 8, Winner: intPtr(7)},
	})

	assert.Equal(t, []int{1, 3}, s.Weeks())
	assert.Equal(t, 3, s.Matchups[0].Team1)
	assert.Equal(t, 7, s.Matchups[1].Team1)
	assert.Equal(t, 1, s.Matchups[2].Team1)
	assert.Equal(t, 5, s.Matchups[3].Team1)
	assert.Equal(t, 3, s.Open())
}

func TestNewTeamTable_DuplicateID(t *testing.T) {
	_, err := NewTeamTable([]Team{{ID: 1}, {ID: 1}})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate team id 1")
}

func TestPrintStandings(t *testing.T) {
	var buf bytes.Buffer
	err := PrintStandings(&buf, "Standings", []StandingsRow{
		{TeamID: 1, TeamName: "Team A", AvgWins: 8.25, AvgLosses: 5.75, PlayoffChance: 0.81},
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Standings")
	assert.Contains(t, out, "Team A")
	assert.Contains(t, out, "8.25")
	assert.Contains(t, out, "81.0%")
}

func TestPrintMatchups(t *testing.T) {
	table := mustTable(t, twoTeams())
	var buf bytes.Buffer
	err := PrintMatchups(&buf, "Games", []MatchupAverage{
		{Week: 3, Team1: 1, Team2: 5, Team1Score: 101.2, Team2Score: 97, Team1WinProb: 0.55, Team2WinProb: 0.45},
	}, table)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Team A vs #5")
	assert.Contains(t, out, "101.20 - 97.00")
	assert.Contains(t, out, "55.0% - 45.0%")
}

func TestScoreLine(t *testing.T) {
	r := MatchResult{Week: 2, Team1: 1, Team2: 2, Team1Score: 99.5, Team2Score: 87.25, Winner: 1}

	assert.Equal(t, "week 2: 1 99.50 - 87.25 2 (winner 1)", r.ScoreLine())
}
