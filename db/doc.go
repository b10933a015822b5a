// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the SQL database and creates the schema.

# Drivers

Two drivers are registered by importing this package:

  - modernc.org/sqlite as "sqlite" (pure Go, no cgo)
  - github.com/lib/pq as "postgres"

Open picks the driver from the dialect and pings the database:

	conn, err := db.Open(db.DialectSQLite, "file:gatherfun.db")
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

CreateSchema is safe to call multiple times - uses IF NOT EXISTS for all
tables and indexes.

# Tables

  - gathering_session: one row per session. The doc column holds the full
    session as JSON; host_id, status, wait_deadline and the timestamps are
    copied out for indexing. version is bumped on every write and used for
    optimistic concurrency.

# Placeholders

Queries are written with ? placeholders. Rebind converts them to $n for
postgres.
*/
package db
