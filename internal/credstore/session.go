package credstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionOptions налаштування session cookie для серверних backend'ів
type SessionOptions struct {
	CookieName string
	Secret     string
	MaxAge     time.Duration
	Secure     bool
	SameSite   http.SameSite
}

// sessionProvider прив'язує браузер до простору ключів у Backend через підписаний cookie
type sessionProvider struct {
	backend Backend
	opts    SessionOptions
	now     func() time.Time
}

// NewSessionProvider створює Provider для memory/redis backend'ів
func NewSessionProvider(backend Backend, opts SessionOptions) (Provider, error) {
	if opts.Secret == "" {
		return nil, errors.New("session secret is required for server-side credential store")
	}
	if opts.CookieName == "" {
		opts.CookieName = "twauth_session"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 90 * 24 * time.Hour
	}

	return &sessionProvider{
		backend: backend,
		opts:    opts,
		now:     time.Now,
	}, nil
}

// Open відновлює сесію з cookie або створює нову
func (p *sessionProvider) Open(w http.ResponseWriter, r *http.Request) (Store, error) {
	if cookie, err := r.Cookie(p.opts.CookieName); err == nil {
		sessionID, err := p.parseSessionToken(cookie.Value)
		if err == nil {
			return &sessionStore{backend: p.backend, sessionID: sessionID}, nil
		}
		logrus.WithError(err).Debug("Discarding invalid session cookie")
	}

	sessionID := uuid.NewString()
	token, err := p.signSessionToken(sessionID)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(p.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.opts.Secure,
		SameSite: p.opts.SameSite,
	})

	logrus.WithField("session_id", sessionID).Debug("Started new credential session")

	return &sessionStore{backend: p.backend, sessionID: sessionID}, nil
}

// signSessionToken підписує session ID (HS256)
func (p *sessionProvider) signSessionToken(sessionID string) (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.opts.MaxAge)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.opts.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// parseSessionToken валідує підпис і повертає session ID
func (p *sessionProvider) parseSessionToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(p.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", fmt.Errorf("invalid session id: %w", err)
	}

	return claims.ID, nil
}

// sessionStore Store з ключами в просторі однієї сесії.
// Прапорці cookie тут не мають значення, використовується лише TTL.
type sessionStore struct {
	backend   Backend
	sessionID string
}

func (s *sessionStore) key(key string) string {
	return s.sessionID + "/" + key
}

func (s *sessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.backend.Get(ctx, s.key(key))
}

func (s *sessionStore) Set(ctx context.Context, key, value string, opts Options) error {
	return s.backend.Set(ctx, s.key(key), value, opts.TTL)
}

func (s *sessionStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.key(key))
}
