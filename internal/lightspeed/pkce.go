package lightspeed

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const (
	stateBytes     = 32
	verifierBytes  = 64
	maxVerifierLen = 128
)

// randomURLSafe returns n random bytes encoded as unpadded base64url.
func randomURLSafe(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewState returns a random OAuth state value.
func NewState() (string, error) {
	return randomURLSafe(stateBytes)
}

// NewCodeVerifier returns a PKCE code verifier of 43 to 128 URL-safe
// characters.
func NewCodeVerifier() (string, error) {
	v, err := randomURLSafe(verifierBytes)
	if err != nil {
		return "", err
	}
	if len(v) > maxVerifierLen {
		v = v[:maxVerifierLen]
	}
	return v, nil
}

// CodeChallenge derives the S256 challenge for a verifier.
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyChallenge reports whether verifier hashes to challenge.
func VerifyChallenge(verifier, challenge string) bool {
	return subtle.ConstantTimeCompare([]byte(CodeChallenge(verifier)), []byte(challenge)) == 1
}

func statesEqual(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
