package services

import (
	"golang.org/x/oauth2"
)

// PKCEPair verifier та похідний від нього S256 challenge
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE генерує новий verifier (32 випадкові байти, base64url без padding)
// і його challenge. Панікує лише якщо crypto/rand недоступний.
func GeneratePKCE() PKCEPair {
	verifier := oauth2.GenerateVerifier()
	return PKCEPair{
		Verifier:  verifier,
		Challenge: ComputeS256Challenge(verifier),
	}
}

// ComputeS256Challenge BASE64URL(SHA256(verifier)) без padding
func ComputeS256Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
