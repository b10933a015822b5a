// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the session aggregate, its merge patch, and the API types.

# Session

Session is the single shared document for one gathering. It carries the host's
setup (dates, locations, cuisines, price range), the participant set, each
participant's preferences and swipe votes, the tie-break configuration and
results, and the terminal outcome.

# Status

Status values form a forward-only order:

	StatusRecruiting < StatusSwiping < StatusTieBreak < StatusFinished

# Patch

Every change to a session is expressed as a Patch and merged with Apply:

	changed := sess.Apply(models.Patch{
		Participants: []string{participantID},
		Preferences:  map[string]models.Preferences{participantID: prefs},
	})

Map fields are upserted per key and Participants is union-merged, so two
participants writing at the same time never overwrite each other. Apply also
refuses to regress Status or touch vote and result fields of a finished
session.

# Request and Response Types

  - CreateSessionRequest, SubmitPreferencesRequest, SubmitVotesRequest,
    PlayTieBreakRequest
  - CreateSessionResponse, JoinSessionResponse, PlayTieBreakResponse,
    ProgressResponse, ResultResponse, ShareResponse, ErrorResponse
*/
package models
