package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"twitter-oauth/internal/build"
	"twitter-oauth/internal/config"
)

// configureAction генерує конфігурацію з шаблону
func configureAction(c *cli.Context) error {
	templatePath := c.String("template")
	outputPath := c.String("output")
	version := c.String("version")
	mode := c.String("mode")

	fmt.Printf("🔧 Configuring Twitter OAuth Server\n")
	fmt.Printf("Template: %s\n", templatePath)
	fmt.Printf("Output: %s\n", outputPath)
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Mode: %s\n", mode)

	templatePathAbs, err := absPath(templatePath)
	if err != nil {
		return err
	}
	outputPathAbs, err := absPath(outputPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(templatePathAbs); os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %s", templatePathAbs)
	}

	vars := getConfigVars(mode, version)

	if err := config.GenerateConfigFromTemplate(templatePathAbs, outputPathAbs, vars); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	fmt.Printf("✅ Configuration generated successfully: %s\n", outputPathAbs)
	return nil
}

// serverAction запускає OAuth сервер
func serverAction(c *cli.Context) error {
	configPath := c.String("config")

	fmt.Printf("🚀 Starting Twitter OAuth Server\n")
	fmt.Printf("Config: %s\n", configPath)
	fmt.Printf("Version: %s\n", build.Version)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s. Run 'configure' command first", configPath)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return config.StartServer(cfg)
}

// checkAction перевіряє конфігурацію
func checkAction(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	fmt.Printf("✅ Configuration is valid\n")
	fmt.Printf("Address: %s\n", cfg.GetAddress())
	fmt.Printf("Credential store: %s\n", cfg.SessionBackend())
	fmt.Printf("OAuth client configured: %t\n", cfg.OAuthConfig().Complete())
	return nil
}

// versionAction показує інформацію про версію
func versionAction(c *cli.Context) error {
	info := build.Info()

	fmt.Printf("Twitter OAuth Server\n")
	fmt.Printf("Version: %s\n", info["version"])
	fmt.Printf("Build Number: %s\n", info["number"])
	fmt.Printf("Git Commit: %s\n", info["git_commit"])
	fmt.Printf("Build Time: %s\n", info["build_time"])

	return nil
}

func absPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	workDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(workDir, path), nil
}

// getConfigVars повертає мапу змінних для конфігурації
func getConfigVars(mode, version string) map[string]interface{} {
	vars := map[string]interface{}{
		"build_version": version,
		"environment":   mode,
	}

	setVarFromEnv(vars, "server_host", "SERVER_HOST", "localhost")
	setVarFromEnv(vars, "server_port", "SERVER_PORT", 8080)
	setVarFromEnv(vars, "log_level", "LOG_LEVEL", getLogLevelForMode(mode))
	setVarFromEnv(vars, "log_format", "LOG_FORMAT", getLogFormatForMode(mode))

	// Twitter
	setVarFromEnv(vars, "twitter_client_id", "TWITTER_CLIENT_ID", "")
	setVarFromEnv(vars, "twitter_redirect_uri", "TWITTER_REDIRECT_URI", "http://localhost:8080/auth/twitter/callback")
	setVarFromEnv(vars, "landing_url", "LANDING_URL", "http://localhost:3000/dashboard")
	setVarFromEnv(vars, "home_url", "HOME_URL", "http://localhost:3000/")

	// Безпека
	vars["cors_allowed_origins"] = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"), "http://localhost:3000")
	setVarFromEnv(vars, "rate_limit_enabled", "RATE_LIMIT_ENABLED", true)
	setVarFromEnv(vars, "session_backend", "SESSION_BACKEND", "cookie")
	setVarFromEnv(vars, "session_secure", "SESSION_SECURE", mode == "production")

	// Redis
	setVarFromEnv(vars, "redis_enabled", "REDIS_ENABLED", false)
	setVarFromEnv(vars, "redis_host", "REDIS_HOST", "localhost")
	setVarFromEnv(vars, "redis_port", "REDIS_PORT", 6379)

	return vars
}

// setVarFromEnv встановлює змінну з оточення або дефолтне значення.
// Значення з оточення приводиться до типу дефолтного.
func setVarFromEnv(vars map[string]interface{}, key, envKey string, defaultValue interface{}) {
	envValue := os.Getenv(envKey)
	if envValue == "" {
		vars[key] = defaultValue
		return
	}

	switch defaultValue.(type) {
	case int:
		if n, err := strconv.Atoi(envValue); err == nil {
			vars[key] = n
			return
		}
	case bool:
		if b, err := strconv.ParseBool(envValue); err == nil {
			vars[key] = b
			return
		}
	}
	vars[key] = envValue
}

func splitList(value, fallback string) []string {
	if value == "" {
		value = fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getLogLevelForMode повертає рівень логування для режиму
func getLogLevelForMode(mode string) string {
	switch mode {
	case "production":
		return "warn"
	case "staging":
		return "info"
	default:
		return "debug"
	}
}

func getLogFormatForMode(mode string) string {
	if mode == "local" {
		return "text"
	}
	return "json"
}
