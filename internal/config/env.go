package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envConfig змінні оточення для запуску в Kubernetes
type envConfig struct {
	Host         string   `env:"HOST"          envDefault:"0.0.0.0"`
	Port         int      `env:"PORT"          envDefault:"8080"`
	Mode         string   `env:"MODE"          envDefault:"production"`
	LogLevel     string   `env:"LOG_LEVEL"     envDefault:"info"`
	LogFormat    string   `env:"LOG_FORMAT"    envDefault:"json"`
	ReadTimeout  Duration `env:"READ_TIMEOUT"  envDefault:"30s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  Duration `env:"IDLE_TIMEOUT"  envDefault:"120s"`

	TwitterClientID       string   `env:"TWITTER_CLIENT_ID"`
	TwitterClientSecret   string   `env:"TWITTER_CLIENT_SECRET"`
	TwitterRedirectURL    string   `env:"TWITTER_REDIRECT_URI"`
	TwitterAuthURL        string   `env:"TWITTER_AUTH_URL"`
	TwitterTokenURL       string   `env:"TWITTER_TOKEN_URL"`
	TwitterAPIBaseURL     string   `env:"TWITTER_API_BASE_URL"`
	TwitterRequestTimeout Duration `env:"TWITTER_REQUEST_TIMEOUT" envDefault:"15s"`

	LandingURL string `env:"LANDING_URL" envDefault:"/dashboard"`
	HomeURL    string `env:"HOME_URL"    envDefault:"/"`

	RequestContextTTL      Duration `env:"REQUEST_CONTEXT_TTL"       envDefault:"10m"`
	AccessTokenFallbackTTL Duration `env:"ACCESS_TOKEN_FALLBACK_TTL" envDefault:"2h"`
	RefreshTokenTTL        Duration `env:"REFRESH_TOKEN_TTL"         envDefault:"2160h"`
	ProfileTTL             Duration `env:"PROFILE_TTL"               envDefault:"24h"`

	AllowedOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimitEnabled  bool     `env:"RATE_LIMIT_ENABLED"   envDefault:"true"`
	RequestsPerMinute int      `env:"RATE_LIMIT_RPM"       envDefault:"120"`
	Burst             int      `env:"RATE_LIMIT_BURST"     envDefault:"20"`

	SessionBackend  string   `env:"SESSION_BACKEND"          envDefault:"cookie"`
	SessionSecret   string   `env:"SESSION_SECRET"`
	SessionCookie   string   `env:"SESSION_COOKIE_NAME"      envDefault:"twauth_session"`
	SessionMaxAge   Duration `env:"SESSION_MAX_AGE"          envDefault:"2160h"`
	SessionSecure   bool     `env:"SESSION_SECURE"           envDefault:"true"`
	SessionSameSite string   `env:"SESSION_SAME_SITE"        envDefault:"lax"`
	SessionCleanup  Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	RedisEnabled    bool   `env:"REDIS_ENABLED"`
	RedisHost       string `env:"REDIS_HOST"        envDefault:"redis-service"`
	RedisPort       int    `env:"REDIS_PORT"        envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDatabase   int    `env:"REDIS_DB"          envDefault:"0"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	RedisPoolSize   int    `env:"REDIS_POOL_SIZE"   envDefault:"10"`
}

// LoadConfigFromEnv будує конфігурацію зі змінних оточення
func LoadConfigFromEnv() (*Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         raw.Host,
			Port:         raw.Port,
			Environment:  raw.Mode,
			LogLevel:     raw.LogLevel,
			LogFormat:    raw.LogFormat,
			ReadTimeout:  raw.ReadTimeout.String(),
			WriteTimeout: raw.WriteTimeout.String(),
			IdleTimeout:  raw.IdleTimeout.String(),
		},
		Twitter: TwitterConfig{
			ClientID:       raw.TwitterClientID,
			ClientSecret:   raw.TwitterClientSecret,
			RedirectURL:    raw.TwitterRedirectURL,
			AuthURL:        raw.TwitterAuthURL,
			TokenURL:       raw.TwitterTokenURL,
			APIBaseURL:     raw.TwitterAPIBaseURL,
			RequestTimeout: raw.TwitterRequestTimeout.String(),
		},
		Redirects: RedirectsConfig{
			LandingURL: raw.LandingURL,
			HomeURL:    raw.HomeURL,
		},
		Tokens: TokensConfig{
			RequestContextTTL:      raw.RequestContextTTL.String(),
			AccessTokenFallbackTTL: raw.AccessTokenFallbackTTL.String(),
			RefreshTokenTTL:        raw.RefreshTokenTTL.String(),
			ProfileTTL:             raw.ProfileTTL.String(),
		},
		Security: SecurityConfig{
			CORS: CORSConfig{
				AllowedOrigins:   trimCSV(raw.AllowedOrigins),
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Accept", "Origin", "X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           3600,
			},
			RateLimit: RateLimitConfig{
				Enabled:           raw.RateLimitEnabled,
				RequestsPerMinute: raw.RequestsPerMinute,
				Burst:             raw.Burst,
			},
			Session: SessionConfig{
				Backend:         raw.SessionBackend,
				Secret:          raw.SessionSecret,
				CookieName:      raw.SessionCookie,
				MaxAge:          raw.SessionMaxAge.String(),
				Secure:          raw.SessionSecure,
				SameSite:        raw.SessionSameSite,
				CleanupInterval: raw.SessionCleanup.String(),
			},
		},
		Redis: RedisConfig{
			Enabled:    raw.RedisEnabled,
			Host:       raw.RedisHost,
			Port:       raw.RedisPort,
			Password:   raw.RedisPassword,
			Database:   raw.RedisDatabase,
			MaxRetries: raw.RedisMaxRetries,
			PoolSize:   raw.RedisPoolSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// trimCSV прибирає порожні елементи після розбиття за комою
func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
