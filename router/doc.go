// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the gatherfun API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, monitor, rec, cfg)

Every session route is wrapped with request logging and Prometheus request
metrics labelled by its route pattern.

# Endpoints

Operational:

	GET /health  - Liveness
	GET /metrics - Prometheus exposition

Regions:

	GET /regions                      - Country, city and district catalog (?country= for one)

Sessions:

	POST /sessions                    - Create session (returns host token)
	GET  /sessions/{id}               - Full session snapshot
	POST /sessions/{id}/join          - Join or rejoin
	POST /sessions/{id}/advance       - Host moves to the next phase
	POST /sessions/{id}/preferences   - Submit preferences
	POST /sessions/{id}/votes         - Submit swipe votes
	GET  /sessions/{id}/me            - Caller's progress and countdown
	POST /sessions/{id}/tiebreak      - Host starts the tie-break
	POST /sessions/{id}/tiebreak/play - Play the amidakuji once
	GET  /sessions/{id}/result        - Final outcome (finished only)
	GET  /sessions/{id}/share         - Share message and links
	GET  /sessions/{id}/events        - WebSocket snapshot stream
*/
package router
