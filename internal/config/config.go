package config

import (
	"fmt"
	"os"
	"time"

	"twitter-oauth/internal/credstore"
	"twitter-oauth/internal/services"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty/function"
)

// Config представляє повну конфігурацію додатку
type Config struct {
	Server    ServerConfig    `hcl:"server,block"`
	Twitter   TwitterConfig   `hcl:"twitter,block"`
	Redirects RedirectsConfig `hcl:"redirects,block"`
	Tokens    TokensConfig    `hcl:"tokens,block"`
	Security  SecurityConfig  `hcl:"security,block"`
	Redis     RedisConfig     `hcl:"redis,block"`
}

// ServerConfig містить налаштування HTTP сервера
type ServerConfig struct {
	Host         string `hcl:"host"`
	Port         int    `hcl:"port"`
	Environment  string `hcl:"environment"`
	LogLevel     string `hcl:"log_level,optional"`
	LogFormat    string `hcl:"log_format,optional"`
	ReadTimeout  string `hcl:"read_timeout,optional"`
	WriteTimeout string `hcl:"write_timeout,optional"`
	IdleTimeout  string `hcl:"idle_timeout,optional"`
}

// TwitterConfig містить налаштування OAuth клієнта Twitter.
// Credentials не обов'язкові при старті: без них callback завершується oauth_config_missing.
type TwitterConfig struct {
	ClientID       string `hcl:"client_id,optional"`
	ClientSecret   string `hcl:"client_secret,optional"`
	RedirectURL    string `hcl:"redirect_url,optional"`
	AuthURL        string `hcl:"auth_url,optional"`
	TokenURL       string `hcl:"token_url,optional"`
	APIBaseURL     string `hcl:"api_base_url,optional"`
	RequestTimeout string `hcl:"request_timeout,optional"`
}

// RedirectsConfig куди перенаправляти браузер після callback'у
type RedirectsConfig struct {
	LandingURL string `hcl:"landing_url"`
	HomeURL    string `hcl:"home_url"`
}

// TokensConfig TTL записів Credential Store
type TokensConfig struct {
	RequestContextTTL      string `hcl:"request_context_ttl,optional"`
	AccessTokenFallbackTTL string `hcl:"access_token_fallback_ttl,optional"`
	RefreshTokenTTL        string `hcl:"refresh_token_ttl,optional"`
	ProfileTTL             string `hcl:"profile_ttl,optional"`
}

// SecurityConfig містить налаштування безпеки
type SecurityConfig struct {
	CORS      CORSConfig      `hcl:"cors,block"`
	RateLimit RateLimitConfig `hcl:"rate_limit,block"`
	Session   SessionConfig   `hcl:"session,block"`
}

// CORSConfig містить налаштування CORS
type CORSConfig struct {
	AllowedOrigins   []string `hcl:"allowed_origins"`
	AllowedMethods   []string `hcl:"allowed_methods"`
	AllowedHeaders   []string `hcl:"allowed_headers"`
	AllowCredentials bool     `hcl:"allow_credentials,optional"`
	MaxAge           int      `hcl:"max_age,optional"`
}

// RateLimitConfig містить налаштування rate limiting
type RateLimitConfig struct {
	Enabled           bool `hcl:"enabled"`
	RequestsPerMinute int  `hcl:"requests_per_minute,optional"`
	Burst             int  `hcl:"burst,optional"`
}

// SessionConfig містить налаштування Credential Store та session cookie
type SessionConfig struct {
	Backend         string `hcl:"backend,optional"`
	Secret          string `hcl:"secret,optional"`
	CookieName      string `hcl:"cookie_name,optional"`
	MaxAge          string `hcl:"max_age,optional"`
	Secure          bool   `hcl:"secure,optional"`
	SameSite        string `hcl:"same_site,optional"`
	CleanupInterval string `hcl:"cleanup_interval,optional"`
}

// RedisConfig містить налаштування Redis
type RedisConfig struct {
	Enabled    bool   `hcl:"enabled"`
	Host       string `hcl:"host,optional"`
	Port       int    `hcl:"port,optional"`
	Password   string `hcl:"password,optional"`
	Database   int    `hcl:"database,optional"`
	MaxRetries int    `hcl:"max_retries,optional"`
	PoolSize   int    `hcl:"pool_size,optional"`
}

// Значення за замовчуванням
const (
	DefaultRequestContextTTL      = 10 * time.Minute
	DefaultAccessTokenFallbackTTL = 2 * time.Hour
	DefaultRefreshTokenTTL        = 90 * 24 * time.Hour
	DefaultProfileTTL             = 24 * time.Hour
	DefaultRequestTimeout         = 15 * time.Second
	DefaultCleanupInterval        = 5 * time.Minute
)

// evalContext HCL контекст з функцією env()
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": EnvFunc,
		},
	}
}

// LoadConfig завантажує конфігурацію з HCL файлу
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var config Config
	err := hclsimple.DecodeFile(configPath, evalContext(), &config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate перевіряє валідність конфігурації
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Redirects.LandingURL == "" {
		return fmt.Errorf("redirects landing_url is required")
	}
	if c.Redirects.HomeURL == "" {
		return fmt.Errorf("redirects home_url is required")
	}

	durations := map[string]string{
		"twitter.request_timeout":           c.Twitter.RequestTimeout,
		"tokens.request_context_ttl":        c.Tokens.RequestContextTTL,
		"tokens.access_token_fallback_ttl":  c.Tokens.AccessTokenFallbackTTL,
		"tokens.refresh_token_ttl":          c.Tokens.RefreshTokenTTL,
		"tokens.profile_ttl":                c.Tokens.ProfileTTL,
		"security.session.max_age":          c.Security.Session.MaxAge,
		"security.session.cleanup_interval": c.Security.Session.CleanupInterval,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("invalid duration for %s: %q", name, value)
		}
	}

	if _, err := credstore.ParseSameSite(c.Security.Session.SameSite); err != nil {
		return err
	}

	switch c.SessionBackend() {
	case credstore.BackendCookie:
	case credstore.BackendMemory:
		if c.Security.Session.Secret == "" {
			return fmt.Errorf("session secret is required for %s backend", credstore.BackendMemory)
		}
	case credstore.BackendRedis:
		if c.Security.Session.Secret == "" {
			return fmt.Errorf("session secret is required for %s backend", credstore.BackendRedis)
		}
		if !c.Redis.Enabled {
			return fmt.Errorf("redis must be enabled for %s backend", credstore.BackendRedis)
		}
		if c.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis port: %d", c.Redis.Port)
		}
	default:
		return fmt.Errorf("unknown session backend: %s", c.Security.Session.Backend)
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit requests_per_minute must be positive")
	}

	if c.Twitter.ClientID == "" || c.Twitter.ClientSecret == "" || c.Twitter.RedirectURL == "" {
		logrus.Warn("Twitter OAuth credentials are incomplete, login will fail with oauth_config_missing")
	}

	return nil
}

// GetAddress повертає адресу для прослуховування сервера
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment перевіряє чи додаток працює в режимі розробки
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction перевіряє чи додаток працює в продакшн режимі
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// SessionBackend повертає назву backend'у Credential Store
func (c *Config) SessionBackend() string {
	if c.Security.Session.Backend == "" {
		return credstore.BackendCookie
	}
	return c.Security.Session.Backend
}

// OAuthConfig повертає налаштування OAuth клієнта
func (c *Config) OAuthConfig() services.OAuthConfig {
	return services.OAuthConfig{
		ClientID:     c.Twitter.ClientID,
		ClientSecret: c.Twitter.ClientSecret,
		RedirectURL:  c.Twitter.RedirectURL,
		AuthURL:      c.Twitter.AuthURL,
		TokenURL:     c.Twitter.TokenURL,
	}
}

// RequestTimeout таймаут вихідних запитів до Twitter
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Twitter.RequestTimeout, DefaultRequestTimeout)
}

// TokenPolicy повертає TTL та прапорці записів Credential Store
func (c *Config) TokenPolicy() services.TokenPolicy {
	sameSite, err := credstore.ParseSameSite(c.Security.Session.SameSite)
	if err != nil {
		logrus.Warnf("Invalid same_site, using lax: %v", err)
	}

	return services.TokenPolicy{
		RequestContextTTL:      parseDuration(c.Tokens.RequestContextTTL, DefaultRequestContextTTL),
		AccessTokenFallbackTTL: parseDuration(c.Tokens.AccessTokenFallbackTTL, DefaultAccessTokenFallbackTTL),
		RefreshTokenTTL:        parseDuration(c.Tokens.RefreshTokenTTL, DefaultRefreshTokenTTL),
		ProfileTTL:             parseDuration(c.Tokens.ProfileTTL, DefaultProfileTTL),
		Secure:                 c.Security.Session.Secure,
		SameSite:               sameSite,
	}
}

// parseDuration парсить тривалість або повертає значення за замовчуванням
func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logrus.Warnf("Invalid duration %q, using default %s", value, fallback)
		return fallback
	}
	return d
}
