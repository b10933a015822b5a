// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP and WebSocket handlers for the gatherfun API.

# Handler

SessionHandler wraps a session.Service, the deadline monitor and the config:

	h := handlers.NewSessionHandler(svc, monitor, cfg)

# Identity

Creating or joining a session returns a participant token. Every later
participant action sends it in the X-Participant-Token header (or the "token"
query parameter on the events stream). Tokens are bound to one session.

# Session Flow

	POST /sessions                      → CreateSession (host token)
	POST /sessions/{id}/join            → Join (participant token)
	POST /sessions/{id}/preferences     → SubmitPreferences
	POST /sessions/{id}/votes           → SubmitVotes
	POST /sessions/{id}/advance         → Advance (host)
	POST /sessions/{id}/tiebreak        → StartTieBreak (host)
	POST /sessions/{id}/tiebreak/play   → PlayTieBreak
	GET  /sessions/{id}                 → GetSession
	GET  /sessions/{id}/me              → GetProgress
	GET  /sessions/{id}/result          → GetResult (sealed until finished)
	GET  /sessions/{id}/share           → GetShare
	GET  /sessions/{id}/events          → Events (WebSocket)
	GET  /regions                       → GetRegions

# Errors

	400  validation failures and bad JSON
	401  missing or invalid participant token
	403  not the host, not a participant, or result still sealed
	404  unknown session
	409  action not allowed in the current phase
	503  storage failure or write contention; the client should retry
*/
package handlers
