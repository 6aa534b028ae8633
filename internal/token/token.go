package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Tokens are presented as `Authorization: EventsToken <token>`. Only the
// SHA-256 hash and the last four plaintext characters are stored.
const Prefix = "evt_"

const rawBytes = 32

type ApiToken struct {
	ID            string
	UserID        string
	TokenHash     string
	TokenLastFour string
	CreatedAt     time.Time
	LastUsedAt    *time.Time
	RevokedAt     *time.Time
}

// Generate returns the plaintext token, its hash and the last four
// characters. The plaintext is shown to the user once and never stored.
func Generate() (plain, hash, lastFour string, err error) {
	b := make([]byte, rawBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", "", err
	}
	plain = Prefix + hex.EncodeToString(b)
	return plain, Hash(plain), plain[len(plain)-4:], nil
}

// Hash is the irreversible lookup key for a presented token.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// WellFormed cheaply rejects garbage before the hash lookup.
func WellFormed(plain string) bool {
	if !strings.HasPrefix(plain, Prefix) {
		return false
	}
	body := strings.TrimPrefix(plain, Prefix)
	if len(body) != rawBytes*2 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}
