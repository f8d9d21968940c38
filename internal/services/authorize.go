package services

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// TwitterScopes фіксований набір scope'ів
const TwitterScopes = "tweet.read tweet.write users.read dm.read dm.write offline.access"

// Ендпоінти Twitter за замовчуванням
const (
	DefaultAuthURL    = "https://twitter.com/i/oauth2/authorize"
	DefaultTokenURL   = "https://api.twitter.com/2/oauth2/token"
	DefaultAPIBaseURL = "https://api.twitter.com/2"
)

// OAuthConfig налаштування OAuth клієнта
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
}

// CanAuthorize чи достатньо налаштувань для побудови authorization URL
func (c OAuthConfig) CanAuthorize() bool {
	return c.ClientID != "" && c.RedirectURL != ""
}

// Complete чи задані client id, secret та redirect URI
func (c OAuthConfig) Complete() bool {
	return c.CanAuthorize() && c.ClientSecret != ""
}

func (c OAuthConfig) oauth2Config() *oauth2.Config {
	authURL := c.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       strings.Fields(TwitterScopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// BuildAuthorizationURL формує URL авторизації Twitter з PKCE (S256) та state
func BuildAuthorizationURL(cfg OAuthConfig, codeChallenge, state string) (string, error) {
	if !cfg.CanAuthorize() {
		return "", fmt.Errorf("%w: client_id and redirect_url are required", ErrConfigMissing)
	}
	if codeChallenge == "" || state == "" {
		return "", fmt.Errorf("%w: code challenge and state are required", ErrConfigMissing)
	}

	oc := cfg.oauth2Config()
	if _, err := url.ParseRequestURI(oc.Endpoint.AuthURL); err != nil {
		return "", fmt.Errorf("%w: invalid auth url: %v", ErrConfigMissing, err)
	}

	return oc.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}
