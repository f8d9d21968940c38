package config

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "twitter-oauth/docs"
	"twitter-oauth/internal/credstore"
	"twitter-oauth/internal/handlers"
	"twitter-oauth/internal/middleware"
	"twitter-oauth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies зібрані сервіси, з яких будується роутер
type Dependencies struct {
	Provider    credstore.Provider
	Backend     string
	HealthCheck handlers.HealthChecker
	Auth        services.AuthService
	API         services.APIClient
	closers     []func()
}

// Close звільняє ресурси backend'у Credential Store
func (d *Dependencies) Close() {
	for _, closeFn := range d.closers {
		closeFn()
	}
}

// NewDependencies створює Credential Store та сервіси з конфігурації
func NewDependencies(ctx context.Context, cfg *Config) (*Dependencies, error) {
	deps := &Dependencies{Backend: cfg.SessionBackend()}

	provider, err := newCredentialProvider(ctx, cfg, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Provider = provider

	timeout := cfg.RequestTimeout()
	oauthCfg := cfg.OAuthConfig()

	deps.API = services.NewAPIClient(cfg.Twitter.APIBaseURL, timeout)
	deps.Auth = services.NewAuthService(
		oauthCfg,
		services.NewTokenExchangeClient(oauthCfg, timeout),
		deps.API,
		cfg.TokenPolicy(),
	)

	return deps, nil
}

// newCredentialProvider вибирає backend Credential Store
func newCredentialProvider(ctx context.Context, cfg *Config, deps *Dependencies) (credstore.Provider, error) {
	if cfg.SessionBackend() == credstore.BackendCookie {
		logrus.Info("🍪 Using cookie credential store")
		return credstore.NewCookieProvider("/"), nil
	}

	var backend credstore.Backend
	switch cfg.SessionBackend() {
	case credstore.BackendMemory:
		memory := credstore.NewMemoryBackend(parseDuration(cfg.Security.Session.CleanupInterval, DefaultCleanupInterval))
		deps.closers = append(deps.closers, memory.Close)
		backend = memory
		logrus.Info("🧠 Using in-memory credential store")
	case credstore.BackendRedis:
		addr := net.JoinHostPort(cfg.Redis.Host, strconv.Itoa(cfg.Redis.Port))
		logrus.Infof("🔌 Connecting to Redis credential store: %s/%d", addr, cfg.Redis.Database)

		redisBackend, err := credstore.NewRedisBackend(ctx, credstore.RedisOptions{
			Addr:       addr,
			Password:   cfg.Redis.Password,
			Database:   cfg.Redis.Database,
			MaxRetries: cfg.Redis.MaxRetries,
			PoolSize:   cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.closers = append(deps.closers, func() {
			if err := redisBackend.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close redis client")
			}
		})
		deps.HealthCheck = redisBackend.Ping
		backend = redisBackend
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.SessionBackend())
	}

	sameSite, err := credstore.ParseSameSite(cfg.Security.Session.SameSite)
	if err != nil {
		return nil, err
	}

	return credstore.NewSessionProvider(backend, credstore.SessionOptions{
		CookieName: cfg.Security.Session.CookieName,
		Secret:     cfg.Security.Session.Secret,
		MaxAge:     parseDuration(cfg.Security.Session.MaxAge, DefaultRefreshTokenTTL),
		Secure:     cfg.Security.Session.Secure,
		SameSite:   sameSite,
	})
}

// StartServer запускає HTTP сервер з конфігурацією
func StartServer(cfg *Config) error {
	setupLogging(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	deps, err := NewDependencies(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	r := NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      r,
		ReadTimeout:  parseDuration(cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: parseDuration(cfg.Server.WriteTimeout, 30*time.Second),
		IdleTimeout:  parseDuration(cfg.Server.IdleTimeout, 120*time.Second),
	}

	// Канал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.Infof("🚀 Starting Twitter OAuth Server on %s", cfg.GetAddress())
		logrus.Infof("Environment: %s", cfg.Server.Environment)
		logrus.Infof("Credential store: %s", deps.Backend)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	logrus.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logrus.Info("✅ Server exited gracefully")
	return nil
}

// NewRouter налаштовує middleware та маршрути
func NewRouter(cfg *Config, deps *Dependencies) *gin.Engine {
	r := gin.New()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.Use(middleware.RequestID())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg))

	healthHandler := handlers.NewHealthHandler(deps.Backend, deps.HealthCheck)
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limited []gin.HandlerFunc
	if cfg.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
		limited = append(limited, limiter.Middleware())
	}

	authHandler := handlers.NewAuthHandler(deps.Auth, cfg.Redirects.LandingURL, cfg.Redirects.HomeURL)
	apiHandler := handlers.NewAPIHandler(deps.API)

	auth := r.Group("/auth", limited...)
	auth.Use(middleware.CredentialStore(deps.Provider))
	{
		auth.GET("/twitter", authHandler.Login)
		auth.GET("/twitter/callback", authHandler.Callback)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", authHandler.Me)
	}

	api := r.Group("/api/twitter", limited...)
	api.Use(middleware.CredentialStore(deps.Provider))
	api.Use(middleware.RequireAccessToken(deps.Auth))
	{
		api.POST("/tweet", apiHandler.CreateTweet)
		api.GET("/tweet/:id", apiHandler.GetTweet)
		api.GET("/tweet/:id/replies", apiHandler.GetReplies)
		api.POST("/dm", apiHandler.SendDirectMessage)
		api.GET("/user", apiHandler.GetUser)
	}

	return r
}

// setupLogging налаштовує логування
func setupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Server.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// corsMiddleware налаштовує CORS middleware
func corsMiddleware(cfg *Config) gin.HandlerFunc {
	cors := cfg.Security.CORS
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if isAllowedOrigin(origin, cors.AllowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if cors.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if cors.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", strconv.Itoa(cors.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
