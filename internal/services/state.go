package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const stateBytes = 32

// GenerateState генерує новий state параметр для CSRF захисту
func GenerateState() (string, error) {
	randomBytes := make([]byte, stateBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}

	return hex.EncodeToString(randomBytes), nil
}

// StatesEqual точне порівняння збереженого і отриманого state.
// Порожній збережений state ніколи не збігається.
func StatesEqual(stored, received string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1
}

// truncate обрізає секрет для логів
func truncate(secret string, n int) string {
	if len(secret) <= n {
		return secret
	}
	return secret[:n] + "..."
}
