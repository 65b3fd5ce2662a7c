package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/utakatalp/fantasy-simulator/internal/league"
	"github.com/utakatalp/fantasy-simulator/internal/montecarlo"
	"github.com/utakatalp/fantasy-simulator/internal/sleeper"
)

type Config struct {
	// Server
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis caches Sleeper imports when set; otherwise they are cached in memory.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Simulation
	TotalIterations int     `mapstructure:"SIM_TOTAL_ITERATIONS"`
	BatchSize       int     `mapstructure:"SIM_BATCH_SIZE"`
	TeamBatchSize   int     `mapstructure:"SIM_TEAM_BATCH_SIZE"`
	PlayoffSlots    int     `mapstructure:"SIM_PLAYOFF_SLOTS"`
	ScoreStdDev     float64 `mapstructure:"SIM_SCORE_STD_DEV"`
	Workers         int     `mapstructure:"SIM_WORKERS"` // 0 means one per CPU
	Seed            uint64  `mapstructure:"SIM_SEED"`

	// Sleeper API
	SleeperBaseURL            string        `mapstructure:"SLEEPER_BASE_URL"`
	SleeperRequestsPerSecond  float64       `mapstructure:"SLEEPER_REQUESTS_PER_SECOND"`
	SleeperRegularSeasonWeeks int           `mapstructure:"SLEEPER_REGULAR_SEASON_WEEKS"`
	SleeperCacheTTL           time.Duration `mapstructure:"SLEEPER_CACHE_TTL"`
}

// Load reads configuration from defaults, an optional .env file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	return load(".", "..")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("SIM_TOTAL_ITERATIONS", montecarlo.DefaultTotalIterations)
	v.SetDefault("SIM_BATCH_SIZE", montecarlo.DefaultBatchSize)
	v.SetDefault("SIM_TEAM_BATCH_SIZE", montecarlo.DefaultTeamBatchSize)
	v.SetDefault("SIM_PLAYOFF_SLOTS", league.DefaultPlayoffSlots)
	v.SetDefault("SIM_SCORE_STD_DEV", league.DefaultScoreStdDev)
	v.SetDefault("SIM_WORKERS", 0)
	v.SetDefault("SIM_SEED", 0)

	v.SetDefault("SLEEPER_BASE_URL", sleeper.DefaultBaseURL)
	v.SetDefault("SLEEPER_REQUESTS_PER_SECOND", 10)
	v.SetDefault("SLEEPER_REGULAR_SEASON_WEEKS", 14)
	v.SetDefault("SLEEPER_CACHE_TTL", sleeper.DefaultCacheTTL)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// SimulationOptions returns the configured simulation defaults.
func (c *Config) SimulationOptions() montecarlo.Options {
	return montecarlo.Options{
		TotalIterations: c.TotalIterations,
		BatchSize:       c.BatchSize,
		TeamBatchSize:   c.TeamBatchSize,
		Workers:         c.Workers,
		PlayoffSlots:    c.PlayoffSlots,
		ScoreStdDev:     c.ScoreStdDev,
		Seed:            c.Seed,
	}
}
