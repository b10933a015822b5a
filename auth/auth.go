// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ParticipantHeader carries the participant token on API requests.
const ParticipantHeader = "X-Participant-Token"

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrInvalidSignature = errors.New("participant token does not match session")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// sign binds a participant to one session. The same inputs always give the
// same signature, so nothing needs to be stored to verify a token.
func sign(sessionID, participantID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	h.Write([]byte(participantID))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}

// ParticipantToken returns "<participantID>.<signature>" for the session.
func ParticipantToken(sessionID, participantID, salt string) string {
	return participantID + "." + sign(sessionID, participantID, salt)
}

// NewParticipant draws a fresh participant ID and its token for the session.
func NewParticipant(sessionID, salt string) (id, token string, err error) {
	id, err = GenerateID(8)
	if err != nil {
		return "", "", err
	}
	return id, ParticipantToken(sessionID, id, salt), nil
}

// VerifyParticipantToken checks token against the session and returns the
// participant it names.
func VerifyParticipantToken(sessionID, token, salt string) (string, error) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" || sig == "" {
		return "", ErrInvalidToken
	}
	expected := sign(sessionID, id, salt)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrInvalidSignature
	}
	return id, nil
}
