package auth

import (
	"crypto/rand"
	"errors"
	"strings"
)

// NonceCookieName is the client-visible cookie that carries the login nonce
// between the nonce request and the signed login attempt.
const NonceCookieName = "siwe_nonce"

const nonceLength = 32

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var ErrNonceMismatch = errors.New("nonce mismatch")

// NewNonce returns a random alphanumeric nonce. Wallet clients reject
// non-alphanumeric nonces, so no base64 padding characters here.
func NewNonce() (string, error) {
	buf := make([]byte, nonceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = nonceAlphabet[int(b)%len(nonceAlphabet)]
	}
	return string(buf), nil
}

// CheckNonce compares the nonce echoed by the client against the one issued
// in the cookie. Single use: the login handler clears the cookie afterwards.
func CheckNonce(issued, received string) error {
	issued = strings.TrimSpace(issued)
	received = strings.TrimSpace(received)
	if issued == "" || received == "" || issued != received {
		return ErrNonceMismatch
	}
	return nil
}
