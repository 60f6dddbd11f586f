package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionID is an opaque 128-bit linking-session identifier. Possession of
// the id is the only pre-check before the owning user is cross-validated, so
// ids come from crypto/rand and are never derived from user input.
type SessionID [16]byte

// NewSessionID returns a fresh random session id.
func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

// Bytes returns the raw id bytes.
func (s SessionID) Bytes() []byte {
	return s[:]
}

// String encodes the id as compact unpadded base64url.
func (s SessionID) String() string {
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// ParseSessionID decodes a session id produced by [SessionID.String].
func ParseSessionID(sessionID string) (SessionID, error) {
	var sid SessionID

	raw, err := base64.RawURLEncoding.DecodeString(sessionID)
	if err != nil {
		return sid, err
	}
	if len(raw) != len(sid) {
		return sid, errors.New("invalid session id size")
	}

	copy(sid[:], raw)
	return sid, nil
}
