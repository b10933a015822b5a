// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session runs the gathering workflow: recruiting, swiping, the
amidakuji tie-break, and finalization.

# Lifecycle

	recruiting ──host_advance──▶ swiping
	recruiting|swiping ──host_start_tiebreak|all_swiped|deadline (votes)──▶ tiebreak
	recruiting|swiping ──deadline (no votes)──▶ finished
	tiebreak ──all_played|deadline──▶ finished

Transitions are decided server-side from the stored session inside a single
store update, so the first writer wins and later triggers see the new status.

# Service

Service exposes one method per user action:

	svc := session.New(st, searcher, session.WithMetrics(rec))
	sess, err := svc.CreateSession(ctx, hostID, req)
	sess, err = svc.SubmitPreferences(ctx, sess.ID, participantID, prefs)
	sess, err = svc.SubmitVotes(ctx, sess.ID, participantID, liked)
	res, sess, err := svc.PlayTieBreak(ctx, sess.ID, participantID, play)

Validation failures are returned as *ValidationError and write nothing.

# Deadlines

Monitor owns the only deadline timers. Track a session once and the monitor
fires HandleDeadline whenever its wait deadline passes, re-arming when a phase
change moves the deadline and stopping once the session finishes.

# Finalization

Finalize is a pure function. Its rule order is tie-break tally, then swipe
ranking, then the first pool candidate.
*/
package session
