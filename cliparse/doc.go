// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadEnv reads an optional .env file, then ParseFlags returns a Config:

	if err := cliparse.LoadEnv(".env"); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

CLI flags take precedence over environment variables, which take precedence
over defaults. Variables already in the environment are never overwritten by
the .env file.

# Flags and Environment Variables

	-p                  PORT               (default 3318)
	-t                  DATABASE_TYPE      sqlite, postgres or memory (default sqlite)
	-d                  DATABASE_URL       sqlite path or postgres DSN
	-base-url           BASE_URL           public URL used in share links
	-nats               NATS_URL           enables cross-instance push
	-identity-salt      IDENTITY_SALT      participant token secret (required)
	-places-key         PLACES_API_KEY     Google Places key; static pool when empty
	-tiebreak-minutes   TIEBREAK_MINUTES   (default 3)
	-lanes              TIEBREAK_LANES     (default 5)
	-shared-connectors  SHARED_CONNECTORS  (default true)
	-free-lane          FREE_LANE_CHOICE   (default true)

# Validation

ParseFlags returns an error when IDENTITY_SALT is missing, when postgres is
selected without a DSN, or when a numeric or boolean value does not parse.
*/
package cliparse
