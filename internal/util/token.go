package util

import (
	"crypto/rand"
	"encoding/base64"
)

// SessionTokenBytes is the entropy of a session token before encoding.
const SessionTokenBytes = 32

// GenerateSessionToken returns a URL-safe token drawn from crypto/rand.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
