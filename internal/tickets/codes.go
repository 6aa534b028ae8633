package tickets

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	inviteCodeLen      = 24
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// NewInviteCode returns an unguessable single-use code.
func NewInviteCode() string {
	b := make([]byte, inviteCodeLen)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand failure is not recoverable
		}
		b[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(b)
}

// NewOrderNo builds the human-readable order number: time component plus a
// random numeric suffix.
func NewOrderNo(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("EVT%s%06d", now.Format("20060102150405"), n.Int64())
}
