// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory"
)

const (
	defaultPort            = 3318
	defaultSQLitePath      = "gatherfun.db"
	defaultBaseURL         = "http://localhost:3318/"
	defaultTieBreakMinutes = 3
	defaultTieBreakLanes   = 5
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	IdentitySalt string
	BaseURL      string
	PlacesAPIKey string
	NATSURL      string

	TieBreakMinutes  int
	TieBreakLanes    int
	SharedConnectors bool
	FreeLaneChoice   bool
}

// LoadEnv reads KEY=value pairs from path into the environment. Variables that
// are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ParseFlags reads flags, then falls back to environment variables and defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var shared, freeLane string

	fl := flag.NewFlagSet("gatherfun", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fl.IntVar(&cfg.Port, "p", 0, "Server port")
	fl.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or sqlite path")
	fl.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or memory)")
	fl.StringVar(&cfg.BaseURL, "base-url", "", "Public URL used in share links")
	fl.StringVar(&cfg.NATSURL, "nats", "", "NATS server URL for multi-instance push")

	// Secrets (prefer env variables, but allow CLI for dev)
	fl.StringVar(&cfg.IdentitySalt, "identity-salt", "", "Participant token salt (prefer env)")
	fl.StringVar(&cfg.PlacesAPIKey, "places-key", "", "Google Places API key (prefer env)")

	// Game rules
	fl.IntVar(&cfg.TieBreakMinutes, "tiebreak-minutes", 0, "Tie-break window in minutes")
	fl.IntVar(&cfg.TieBreakLanes, "lanes", 0, "Number of tie-break lanes")
	fl.StringVar(&shared, "shared-connectors", "", "Everyone walks the same rungs (true/false)")
	fl.StringVar(&freeLane, "free-lane", "", "Participants pick their start lane (true/false)")

	if err := fl.Parse(args); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.Port, err = intSetting(cfg.Port, "PORT", defaultPort); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
	}
	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = DatabaseSQLite
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	switch cfg.DatabaseType {
	case DatabaseSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = defaultSQLitePath
		}
	case DatabasePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	case DatabaseMemory:
	default:
		return Config{}, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}

	cfg.BaseURL = stringSetting(cfg.BaseURL, "BASE_URL", defaultBaseURL)
	cfg.NATSURL = stringSetting(cfg.NATSURL, "NATS_URL", "")
	cfg.PlacesAPIKey = stringSetting(cfg.PlacesAPIKey, "PLACES_API_KEY", "")

	// Secrets - MUST be provided
	cfg.IdentitySalt = stringSetting(cfg.IdentitySalt, "IDENTITY_SALT", "")
	if cfg.IdentitySalt == "" {
		return Config{}, errors.New("IDENTITY_SALT required")
	}

	if cfg.TieBreakMinutes, err = intSetting(cfg.TieBreakMinutes, "TIEBREAK_MINUTES", defaultTieBreakMinutes); err != nil {
		return Config{}, err
	}
	if cfg.TieBreakMinutes < 1 {
		return Config{}, errors.New("tie-break window must be at least one minute")
	}
	if cfg.TieBreakLanes, err = intSetting(cfg.TieBreakLanes, "TIEBREAK_LANES", defaultTieBreakLanes); err != nil {
		return Config{}, err
	}
	if cfg.TieBreakLanes < 2 {
		return Config{}, errors.New("tie-break needs at least two lanes")
	}

	if cfg.SharedConnectors, err = boolSetting(shared, "SHARED_CONNECTORS", true); err != nil {
		return Config{}, err
	}
	if cfg.FreeLaneChoice, err = boolSetting(freeLane, "FREE_LANE_CHOICE", true); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func stringSetting(flagVal, env, def string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func intSetting(flagVal int, env string, def int) (int, error) {
	if flagVal != 0 {
		return flagVal, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", env)
	}
	return v, nil
}

func boolSetting(flagVal, env string, def bool) (bool, error) {
	s := flagVal
	if s == "" {
		s = os.Getenv(env)
	}
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q", env, s)
	}
	return v, nil
}
