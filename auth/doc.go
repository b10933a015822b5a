// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and verifies participant tokens.

# Participant Tokens

A participant token names a participant and proves it was issued for one
session:

	id, token, err := auth.NewParticipant(sessionID, salt)
	participantID, err := auth.VerifyParticipantToken(sessionID, token, salt)

The token is "<participant id>.<signature>", where the signature is
HMAC-SHA256 over the session and participant IDs, URL-safe base64 without
padding. Tokens are deterministic, so verification needs no storage. Clients
send it in the X-Participant-Token header.

# ID Generation

Random hex IDs:

	id, err := auth.GenerateID(8)  // 16 hex characters
*/
package auth
