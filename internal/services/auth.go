package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"twitter-oauth/internal/credstore"
	"twitter-oauth/internal/models"

	"github.com/sirupsen/logrus"
)

// Ключі записів у Credential Store
const (
	KeyCodeVerifier = "twitter_code_verifier"
	KeyState        = "twitter_state"
	KeyAccessToken  = "twitter_access_token"
	KeyRefreshToken = "twitter_refresh_token"
	KeyUser         = "twitter_user"
)

// TokenPolicy TTL та прапорці записів Credential Store
type TokenPolicy struct {
	RequestContextTTL      time.Duration
	AccessTokenFallbackTTL time.Duration
	RefreshTokenTTL        time.Duration
	ProfileTTL             time.Duration
	Secure                 bool
	SameSite               http.SameSite
}

// DefaultTokenPolicy політика за замовчуванням
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{
		RequestContextTTL:      10 * time.Minute,
		AccessTokenFallbackTTL: 2 * time.Hour,
		RefreshTokenTTL:        90 * 24 * time.Hour,
		ProfileTTL:             24 * time.Hour,
		SameSite:               http.SameSiteLaxMode,
	}
}

func (p TokenPolicy) restricted(ttl time.Duration) credstore.Options {
	return credstore.Options{TTL: ttl, HTTPOnly: true, Secure: p.Secure, SameSite: p.SameSite}
}

func (p TokenPolicy) accessTokenTTL(expiresIn int64) time.Duration {
	if expiresIn > 0 {
		return time.Duration(expiresIn) * time.Second
	}
	return p.AccessTokenFallbackTTL
}

// authService реалізація AuthService
type authService struct {
	cfg      OAuthConfig
	exchange TokenExchangeClient
	api      APIClient
	policy   TokenPolicy
}

// NewAuthService створює новий AuthService
func NewAuthService(cfg OAuthConfig, exchange TokenExchangeClient, api APIClient, policy TokenPolicy) AuthService {
	return &authService{
		cfg:      cfg,
		exchange: exchange,
		api:      api,
		policy:   policy,
	}
}

// BeginLogin зберігає verifier та state і повертає URL авторизації Twitter
func (s *authService) BeginLogin(ctx context.Context, store credstore.Store) (string, error) {
	if !s.cfg.CanAuthorize() {
		logrus.Error("Twitter OAuth is not configured")
		return "", ErrConfigMissing
	}

	pkce := GeneratePKCE()
	state, err := GenerateState()
	if err != nil {
		return "", err
	}

	authURL, err := BuildAuthorizationURL(s.cfg, pkce.Challenge, state)
	if err != nil {
		return "", err
	}

	opts := s.policy.restricted(s.policy.RequestContextTTL)
	if err := store.Set(ctx, KeyCodeVerifier, pkce.Verifier, opts); err != nil {
		return "", fmt.Errorf("failed to store code verifier: %w", err)
	}
	if err := store.Set(ctx, KeyState, state, opts); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"state":        truncate(state, 10),
		"redirect_uri": s.cfg.RedirectURL,
	}).Info("Generated Twitter authorization URL")

	return authURL, nil
}

// HandleCallback обробляє redirect від Twitter.
// Помилка завжди має тип *CallbackError.
func (s *authService) HandleCallback(ctx context.Context, store credstore.Store, params models.CallbackParams) (profile *models.UserProfile, err error) {
	defer func() {
		outcome := "success"
		var cbErr *CallbackError
		if errors.As(err, &cbErr) {
			outcome = cbErr.Reason
			logrus.WithError(cbErr.Err).WithField("reason", cbErr.Reason).Warn("OAuth callback failed")
		}
		callbacksTotal.WithLabelValues(outcome).Inc()
	}()

	// Контекст авторизації одноразовий за будь-якого результату
	defer s.clearAuthorizationRequest(ctx, store)

	if params.Error != "" {
		return nil, &CallbackError{
			Reason:       ReasonProviderError,
			ProviderCode: sanitizeProviderCode(params.Error),
			Err:          fmt.Errorf("provider returned error %q", params.Error),
		}
	}

	if params.Code == "" || params.State == "" {
		return nil, newCallbackError(ReasonMissingCodeOrState, nil)
	}

	storedState, _, err := store.Get(ctx, KeyState)
	if err != nil {
		return nil, newCallbackError(ReasonAuthFailed, err)
	}
	if !StatesEqual(storedState, params.State) {
		return nil, newCallbackError(ReasonInvalidState, errors.New("state mismatch"))
	}

	verifier, ok, err := store.Get(ctx, KeyCodeVerifier)
	if err != nil {
		return nil, newCallbackError(ReasonAuthFailed, err)
	}
	if !ok || verifier == "" {
		return nil, newCallbackError(ReasonMissingCodeVerifier, nil)
	}

	if !s.cfg.Complete() {
		return nil, newCallbackError(ReasonConfigMissing, ErrConfigMissing)
	}

	tokens, err := s.exchange.ExchangeCode(ctx, params.Code, verifier)
	if err != nil {
		return nil, newCallbackError(ReasonTokenExchangeFailed, err)
	}

	// Без профілю набір токенів не зберігається
	profile, err = s.api.GetCurrentUser(ctx, tokens.AccessToken)
	if err != nil {
		return nil, newCallbackError(ReasonAuthFailed, fmt.Errorf("failed to fetch profile: %w", err))
	}

	if err := s.persistCredentials(ctx, store, tokens, profile); err != nil {
		return nil, newCallbackError(ReasonAuthFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  profile.ID,
		"username": profile.Username,
	}).Info("OAuth callback processed successfully")

	return profile, nil
}

// Logout видаляє токени та профіль; відсутні ключі не є помилкою
func (s *authService) Logout(ctx context.Context, store credstore.Store) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	logrus.Info("User logged out")
	return nil
}

// RefreshSession оновлює access token; при помилці збережені токени не змінюються
func (s *authService) RefreshSession(ctx context.Context, store credstore.Store) (*models.TokenSet, error) {
	refreshToken, ok, err := store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if !ok || refreshToken == "" {
		return nil, ErrUnauthenticated
	}

	tokens, err := s.exchange.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.writeTokens(ctx, store, tokens); err != nil {
		return nil, err
	}

	logrus.WithField("expires_in", tokens.ExpiresIn).Info("Tokens refreshed successfully")
	return tokens, nil
}

// CurrentProfile повертає кешований профіль (лише для відображення)
func (s *authService) CurrentProfile(ctx context.Context, store credstore.Store) (*models.UserProfile, error) {
	raw, ok, err := store.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if !ok {
		return nil, ErrUnauthenticated
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &profile, nil
}

// AccessToken повертає збережений access token або ErrUnauthenticated
func (s *authService) AccessToken(ctx context.Context, store credstore.Store) (string, error) {
	token, ok, err := store.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if !ok || token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// persistCredentials записує токени та профіль; при помилці записане відкочується
func (s *authService) persistCredentials(ctx context.Context, store credstore.Store, tokens *models.TokenSet, profile *models.UserProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if err := s.writeTokens(ctx, store, tokens); err != nil {
		return err
	}

	profileOpts := credstore.Options{
		TTL:      s.policy.ProfileTTL,
		HTTPOnly: false,
		Secure:   s.policy.Secure,
		SameSite: s.policy.SameSite,
	}
	if err := store.Set(ctx, KeyUser, string(profileJSON), profileOpts); err != nil {
		s.rollback(ctx, store, KeyAccessToken, KeyRefreshToken)
		return fmt.Errorf("failed to store profile: %w", err)
	}

	return nil
}

// writeTokens замінює набір токенів повністю
func (s *authService) writeTokens(ctx context.Context, store credstore.Store, tokens *models.TokenSet) error {
	accessOpts := s.policy.restricted(s.policy.accessTokenTTL(tokens.ExpiresIn))
	if err := store.Set(ctx, KeyAccessToken, tokens.AccessToken, accessOpts); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}

	var err error
	if tokens.HasRefreshToken() {
		err = store.Set(ctx, KeyRefreshToken, tokens.RefreshToken, s.policy.restricted(s.policy.RefreshTokenTTL))
	} else {
		err = store.Delete(ctx, KeyRefreshToken)
	}
	if err != nil {
		s.rollback(ctx, store, KeyAccessToken)
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

func (s *authService) rollback(ctx context.Context, store credstore.Store, keys ...string) {
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Error("Failed to roll back credential entry")
		}
	}
}

func (s *authService) clearAuthorizationRequest(ctx context.Context, store credstore.Store) {
	for _, key := range []string{KeyCodeVerifier, KeyState} {
		if err := store.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to delete authorization request entry")
		}
	}
}
