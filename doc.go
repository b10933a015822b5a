// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the gatherfun API server.

gatherfun lets a group decide where to eat. A host opens a session, friends
join and submit preferences, everyone swipes on candidate restaurants, and an
amidakuji (ghost leg) tie-break settles the top picks before a time limit runs
out.

# Starting the Server

With no configuration the server runs on sqlite in the working directory:

	IDENTITY_SALT=change-me go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -identity-salt change-me

A .env file in the working directory is loaded first. Variables already set
in the environment win.

# Configuration

Required settings:

  - IDENTITY_SALT (-identity-salt): Secret for participant token HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - DATABASE_URL (-d): Connection string or sqlite path
  - BASE_URL (-base-url): Frontend URL used in share links
  - PLACES_API_KEY (-places-key): Google Places key; the static pool is used without it
  - NATS_URL (-nats): Relay session changes between processes
  - TIEBREAK_MINUTES, TIEBREAK_LANES, SHARED_CONNECTORS, FREE_LANE_CHOICE: game rules

# Architecture

  - session: Lifecycle state machine, deadline monitor and finalizer
  - tally: Vote counting and deterministic rankings
  - amidakuji: Ladder generation and path tracing
  - store: Memory and SQL session stores with change fan-out
  - places: Candidate providers with fallback
  - regions: Country, city and district catalog for session locations
  - messaging: Share messages, map and calendar links
  - handlers, router, middleware: HTTP and WebSocket surface
  - models, auth, db, cliparse, metrics: Supporting types and plumbing

See package documentation for each component.
*/
package main
