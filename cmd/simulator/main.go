package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-simulator/internal/api"
	"github.com/utakatalp/fantasy-simulator/internal/config"
	"github.com/utakatalp/fantasy-simulator/internal/league"
	"github.com/utakatalp/fantasy-simulator/internal/logger"
	"github.com/utakatalp/fantasy-simulator/internal/montecarlo"
	"github.com/utakatalp/fantasy-simulator/internal/payload"
	"github.com/utakatalp/fantasy-simulator/internal/sleeper"
	"github.com/utakatalp/fantasy-simulator/internal/store"
)

func main() {
	// .env is optional; real environment variables still apply.
	_ = godotenv.Load()

	//Flags
	filePtr := flag.String("file", "", "League file to simulate (.json, .yaml or .yml)")
	sleeperPtr := flag.String("sleeper", "", "Sleeper league id to import and simulate")
	leaguePtr := flag.String("league", "", "Stored league id to simulate (needs DATABASE_URL)")
	savePtr := flag.String("save", "", "Store the loaded league under this id (needs DATABASE_URL)")
	exportPtr := flag.String("export", "", "Write the loaded league to this file")
	demoPtr := flag.Int("demo", 0, "Simulate a generated round-robin league with this many teams")
	servePtr := flag.Bool("serve", false, "Run the HTTP API instead of a one-off simulation")
	iterationsPtr := flag.Int("iterations", 0, "Number of simulated seasons (0 uses SIM_TOTAL_ITERATIONS)")
	seedPtr := flag.Uint64("seed", 0, "Random seed (0 uses SIM_SEED, or a random seed)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	opts := cfg.SimulationOptions()
	applyFlags := func(o *montecarlo.Options) {
		if *iterationsPtr > 0 {
			o.TotalIterations = *iterationsPtr
		}
		if *seedPtr != 0 {
			o.Seed = *seedPtr
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var st *store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.NewStore(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to DB")
		}
		defer st.Close()
		if err := st.Migrate(); err != nil {
			log.WithError(err).Fatal("failed to migrate DB")
		}
		log.Info("Database connection established")
	}

	importer, closeCache, err := newImporter(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to set up Sleeper cache")
	}
	defer closeCache()

	if *servePtr {
		applyFlags(&opts)
		var ls api.LeagueStore
		if st != nil {
			ls = st
		}
		srv := api.NewServer(montecarlo.NewService(log), ls, importer, opts, log)
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			log.WithError(err).Fatal("HTTP server stopped")
		}
		return
	}

	teams, matchups, slots, err := loadLeague(ctx, st, importer, &opts, *filePtr, *sleeperPtr, *leaguePtr, *demoPtr)
	if err != nil {
		log.WithError(err).Fatal("failed to load league")
	}
	if slots > 0 {
		opts.PlayoffSlots = slots
	}
	applyFlags(&opts)

	if *savePtr != "" {
		if st == nil {
			log.Fatal("-save needs DATABASE_URL")
		}
		if err := st.SaveLeague(ctx, *savePtr, teams, matchups, slots); err != nil {
			log.WithError(err).Fatal("failed to save league")
		}
		log.WithField("league_id", *savePtr).Info("League saved")
	}
	if *exportPtr != "" {
		if err := payload.WriteFile(*exportPtr, payload.FromTables(teams, matchups)); err != nil {
			log.WithError(err).Fatal("failed to export league")
		}
		log.WithField("path", *exportPtr).Info("League exported")
	}

	forecast, err := montecarlo.NewService(log).Forecast(ctx, teams, matchups, opts)
	if err != nil {
		log.WithError(err).Fatal("simulation failed")
	}

	table, err := league.NewTeamTable(teams)
	if err != nil {
		log.WithError(err).Fatal("invalid team table")
	}
	label := fmt.Sprintf("Projected standings (%d seasons)", opts.TotalIterations)
	if err := league.PrintStandings(os.Stdout, label, forecast.Standings); err != nil {
		log.WithError(err).Fatal("failed to print standings")
	}
	fmt.Println()
	if err := league.PrintMatchups(os.Stdout, "Matchup averages", forecast.AverageSimulationResults, table); err != nil {
		log.WithError(err).Fatal("failed to print matchups")
	}
}

// newImporter caches Sleeper imports in Redis when REDIS_URL is set and
// in memory otherwise.
func newImporter(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*sleeper.CachedImporter, func(), error) {
	client := sleeper.NewClient(cfg.SleeperBaseURL, cfg.SleeperRequestsPerSecond, log)
	if cfg.RedisURL == "" {
		cache := sleeper.NewMemoryCache(cfg.SleeperCacheTTL)
		return sleeper.NewCachedImporter(client, cache, cfg.SleeperRegularSeasonWeeks, log), func() {}, nil
	}

	cache, err := sleeper.NewRedisCache(ctx, cfg.RedisURL, cfg.SleeperCacheTTL)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("ttl", cfg.SleeperCacheTTL).Info("Caching Sleeper imports in Redis")
	closeCache := func() {
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("failed to close Redis client")
		}
	}
	return sleeper.NewCachedImporter(client, cache, cfg.SleeperRegularSeasonWeeks, log), closeCache, nil
}

// loadLeague picks the league source named on the command line. The
// returned playoff slot count is 0 unless the source carries one: a file's
// options, a Sleeper league's settings or a stored league.
func loadLeague(ctx context.Context, st *store.Store, importer *sleeper.CachedImporter, opts *montecarlo.Options,
	file, sleeperID, leagueID string, demo int,
) ([]league.Team, []league.Matchup, int, error) {
	switch {
	case file != "":
		req, err := payload.LoadFile(file)
		if err != nil {
			return nil, nil, 0, err
		}
		*opts = req.Options.Apply(*opts)
		teams, matchups, err := req.Tables()
		if err != nil {
			return nil, nil, 0, err
		}
		var slots int
		if req.Options != nil && req.Options.PlayoffSlots != nil {
			slots = *req.Options.PlayoffSlots
		}
		return teams, matchups, slots, nil

	case sleeperID != "":
		imp, err := importer.ImportLeague(ctx, sleeperID)
		if err != nil {
			return nil, nil, 0, err
		}
		return imp.Teams, imp.Matchups, imp.PlayoffSlots, nil

	case leagueID != "":
		if st == nil {
			return nil, nil, 0, errors.New("-league needs DATABASE_URL")
		}
		teams, err := st.GetTeams(ctx, leagueID)
		if err != nil {
			return nil, nil, 0, err
		}
		matchups, err := st.LoadMatchups(ctx, leagueID)
		if err != nil {
			return nil, nil, 0, err
		}
		slots, err := st.PlayoffSlots(ctx, leagueID)
		if err != nil {
			return nil, nil, 0, err
		}
		return teams, matchups, slots, nil

	case demo > 1:
		teams, matchups := demoLeague(demo, demoPlayedWeeks, demoSeasonWeeks)
		return teams, matchups, 0, nil
	}
	return nil, nil, 0, errors.New("one of -file, -sleeper, -league, -demo or -serve is required")
}
