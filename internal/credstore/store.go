// Package credstore містить Credential Store: коротко живуче key-value сховище
// прив'язане до однієї браузерної сесії (cookie, in-memory або Redis).
package credstore

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Options задає TTL та прапорці безпеки для запису
type Options struct {
	TTL      time.Duration
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// Store інтерфейс Credential Store однієї сесії
type Store interface {
	// Get повертає значення і false якщо ключ відсутній або прострочений
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, opts Options) error
	// Delete не повертає помилку для відсутніх ключів
	Delete(ctx context.Context, key string) error
}

// Provider відкриває Store для конкретного HTTP запиту
type Provider interface {
	Open(w http.ResponseWriter, r *http.Request) (Store, error)
}

// Backend серверне сховище, в якому ключі вже містять префікс сесії
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Backend names
const (
	BackendCookie = "cookie"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ParseSameSite перетворює значення з конфігурації на http.SameSite
func ParseSameSite(value string) (http.SameSite, error) {
	switch value {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unknown same_site value: %s", value)
	}
}
