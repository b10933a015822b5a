// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package places loads the candidate pool for a new session. Google queries the
// Places API text search; Static serves a fixed demo pool; Searcher chains the
// two so session creation always gets a non-empty pool.
package places
