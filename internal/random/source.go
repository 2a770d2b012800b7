// Package random generates the request correlation values (state and
// nonce) sent with every authorization request.
package random

import (
	"crypto/rand"
	"math/big"
)

const (
	stateLength = 64
	nonceLength = 32
)

// Generator produces request correlation values.
type Generator interface {
	State() string
	Nonce() string
}

// Source is the default Generator, backed by crypto/rand.
type Source struct{}

var _ Generator = Source{}

func (p Source) randString(n int) string {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

	ret := make([]byte, n)
	for i := range n {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		ret[i] = letters[num.Int64()]
	}

	return string(ret)
}

func (p Source) State() string {
	return p.randString(stateLength)
}

func (p Source) Nonce() string {
	return p.randString(nonceLength) // Entropy E = L * log2(63) = 32 * log2(63) = 191.3 bits
}

// Fixed always returns the same values.
//
// Deprecated: constant state and nonce values give no replay protection.
// Fixed only exists to talk to deployments that still expect the legacy
// literals (see LegacyFixed).
type Fixed struct {
	StateValue string
	NonceValue string
}

var _ Generator = Fixed{}

// LegacyFixed reproduces the hardcoded values of the first client release.
var LegacyFixed = Fixed{StateValue: "12345", NonceValue: "678910"}

func (f Fixed) State() string { return f.StateValue }
func (f Fixed) Nonce() string { return f.NonceValue }
