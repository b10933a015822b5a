// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging and Metrics

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))
	mux.HandleFunc(pattern, middleware.WithMetrics(rec, pattern, handler))

WithLogging logs method, path, status, client IP and duration_ms once the
handler returns. WithMetrics feeds the same facts to the Prometheus recorder.
Both pass Hijack through, so WebSocket handlers can sit behind them.

# CORS

	handler := middleware.CORS(origins, mux)

Backed by github.com/rs/cors. Allows GET, HEAD, POST and OPTIONS with the
Content-Type and X-Participant-Token headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "name: is required")
	err := middleware.ParseJSONBody(r, &req)
*/
package middleware
