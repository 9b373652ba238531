package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
)

// ChallengeSize is the number of random bytes in a passkey challenge
const ChallengeSize = 32

var ErrInvalidPublicKey = errors.New("public key must be a base64 ed25519 key")

// ParsePublicKey decodes a base64 (std or url) ed25519 public key
func ParsePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := decodeBase64(encoded)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return ed25519.PublicKey(raw), nil
}

// NewChallenge returns fresh random challenge bytes
func NewChallenge() ([]byte, error) {
	b := make([]byte, ChallengeSize)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// VerifyChallenge reports whether signature (base64) signs challenge under publicKey
func VerifyChallenge(publicKey []byte, challenge []byte, signature string) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	sig, err := decodeBase64(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), challenge, sig)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
