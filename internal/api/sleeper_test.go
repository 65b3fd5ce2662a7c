package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/fantasy-simulator/internal/sleeper"
)

var sleeperRoutes = map[string]string{
	"/league/77":            `{"league_id": "77", "name": "Duo", "settings": {"playoff_teams": 1, "playoff_week_start": 2}}`,
	"/league/77/rosters":    `[{"roster_id": 1, "owner_id": "u1", "settings": {"wins": 0, "losses": 0, "fpts": 0}}, {"roster_id": 2, "owner_id": "u2", "settings": {"wins": 0, "losses": 0, "fpts": 0}}]`,
	"/league/77/users":      `[{"user_id": "u1", "display_name": "ana"}, {"user_id": "u2", "display_name": "bo"}]`,
	"/league/77/matchups/1": `[{"roster_id": 1, "matchup_id": 1, "points": 0}, {"roster_id": 2, "matchup_id": 1, "points": 0}]`,
	"/league/404":           `null`,
}

func newSleeperUpstream(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := sleeperRoutes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newImporter(t *testing.T, upstream string) *sleeper.CachedImporter {
	t.Helper()
	logger, _ := test.NewNullLogger()
	client := sleeper.NewClient(upstream, 1000, logger)
	return sleeper.NewCachedImporter(client, sleeper.NewMemoryCache(sleeper.DefaultCacheTTL), 14, logger)
}

func TestSimulateSleeper(t *testing.T) {
	upstream, hits := newSleeperUpstream(t)
	srv, _ := newTestServerWithImporter(t, nil, newImporter(t, upstream.URL))

	resp, out := do(t, "POST", srv.URL+"/sleeper/77/simulate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, hits.Load())

	standings, averages := decodeForecast(t, out)
	require.Len(t, standings, 2)
	assert.Equal(t, "ana", standings[0].TeamName)
	// The league sends one team to the playoffs.
	assert.InDelta(t, 1.0, standings[0].PlayoffChance+standings[1].PlayoffChance, 1e-9)
	require.Len(t, averages, 1)

	resp, out = do(t, "POST", srv.URL+"/sleeper/77/simulate", `{"options": {"playoff_slots": 2}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, hits.Load(), "second request should be served from cache")
	standings, _ = decodeForecast(t, out)
	assert.Equal(t, 1.0, standings[0].PlayoffChance)
	assert.Equal(t, 1.0, standings[1].PlayoffChance)
}

func TestSimulateSleeper_UnknownLeague(t *testing.T) {
	upstream, _ := newSleeperUpstream(t)
	srv, _ := newTestServerWithImporter(t, nil, newImporter(t, upstream.URL))

	resp, out := do(t, "POST", srv.URL+"/sleeper/404/simulate", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, errorMessage(t, out), "sleeper league not found")
}

func TestSimulateSleeper_UpstreamFailure(t *testing.T) {
	upstream, _ := newSleeperUpstream(t)
	srv, _ := newTestServerWithImporter(t, nil, newImporter(t, upstream.URL))

	resp, out := do(t, "POST", srv.URL+"/sleeper/missing/simulate", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, errorMessage(t, out), "unexpected status code")
}

type stubImporter struct{ imp *sleeper.Import }

func (s stubImporter) ImportLeague(context.Context, string) (*sleeper.Import, error) {
	return s.imp, nil
}

func TestSimulateSleeper_BadOptions(t *testing.T) {
	srv, _ := newTestServerWithImporter(t, nil, stubImporter{})

	resp, _ := do(t, "POST", srv.URL+"/sleeper/77/simulate", `{"playoff_slots": 2}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
