package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"twitter-oauth/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Grant types ендпоінту токенів
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// tokenExchangeClient реалізація TokenExchangeClient поверх golang.org/x/oauth2
type tokenExchangeClient struct {
	cfg        OAuthConfig
	httpClient *http.Client
}

// NewTokenExchangeClient створює клієнт ендпоінту токенів Twitter
func NewTokenExchangeClient(cfg OAuthConfig, timeout time.Duration) TokenExchangeClient {
	return &tokenExchangeClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ExchangeCode обмінює authorization code на токени, пред'являючи PKCE verifier
func (t *tokenExchangeClient) ExchangeCode(ctx context.Context, code, verifier string) (*models.TokenSet, error) {
	if !t.cfg.Complete() {
		return nil, ErrConfigMissing
	}
	if code == "" || verifier == "" {
		return nil, fmt.Errorf("%w: code and verifier are required", ErrInvalidInput)
	}

	logrus.WithFields(logrus.Fields{
		"code":         truncate(code, 10),
		"redirect_uri": t.cfg.RedirectURL,
	}).Info("Exchanging authorization code for tokens")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
	token, err := t.cfg.oauth2Config().Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, t.fail(GrantAuthorizationCode, "token exchange", err)
	}

	return t.succeed(GrantAuthorizationCode, token)
}

// Refresh отримує новий набір токенів за refresh token
func (t *tokenExchangeClient) Refresh(ctx context.Context, refreshToken string) (*models.TokenSet, error) {
	if !t.cfg.Complete() {
		return nil, ErrConfigMissing
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}

	logrus.Info("Refreshing Twitter access token")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
	token, err := t.cfg.oauth2Config().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, t.fail(GrantRefreshToken, "token refresh", err)
	}

	return t.succeed(GrantRefreshToken, token)
}

func (t *tokenExchangeClient) fail(grant, operation string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		tokenRequestsTotal.WithLabelValues(grant, statusLabel(retrieveErr.Response.StatusCode)).Inc()

		logrus.WithFields(logrus.Fields{
			"grant":       grant,
			"status_code": retrieveErr.Response.StatusCode,
			"response":    string(retrieveErr.Body),
		}).Error("Twitter token endpoint returned error")

		return &ProviderError{
			Operation:  operation,
			StatusCode: retrieveErr.Response.StatusCode,
			Body:       string(retrieveErr.Body),
		}
	}

	tokenRequestsTotal.WithLabelValues(grant, statusLabel(0)).Inc()
	logrus.WithError(err).WithField("grant", grant).Error("Twitter token request failed")

	return fmt.Errorf("%s failed: %w", operation, err)
}

func (t *tokenExchangeClient) succeed(grant string, token *oauth2.Token) (*models.TokenSet, error) {
	tokenRequestsTotal.WithLabelValues(grant, statusLabel(http.StatusOK)).Inc()

	tokens, err := tokenSetFromOAuth2(token)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"grant":         grant,
		"token_type":    tokens.TokenType,
		"expires_in":    tokens.ExpiresIn,
		"scope":         tokens.Scope,
		"refresh_token": tokens.HasRefreshToken(),
	}).Info("Successfully received tokens from Twitter")

	return tokens, nil
}

// tokenSetFromOAuth2 конвертує oauth2.Token в наш формат
func tokenSetFromOAuth2(token *oauth2.Token) (*models.TokenSet, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token is missing", ErrMalformedResponse)
	}

	tokens := &models.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    extraInt64(token, "expires_in"),
	}
	if scope, ok := token.Extra("scope").(string); ok {
		tokens.Scope = scope
	}

	return tokens, nil
}

// extraInt64 читає числове поле з сирої відповіді (JSON число або рядок)
func extraInt64(token *oauth2.Token, key string) int64 {
	switch v := token.Extra(key).(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
