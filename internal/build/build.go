package build

import "fmt"

var (
	// Version додатку (встановлюється через ldflags)
	Version = "dev"

	// Number білда (встановлюється через ldflags)
	Number = "local"

	// GitCommit хеш коміту (встановлюється через ldflags)
	GitCommit = "unknown"

	// BuildTime час збірки (встановлюється через ldflags)
	BuildTime = "unknown"
)

// Service назва сервісу в User-Agent та health
const Service = "twitter-oauth"

// Info повертає інформацію про білд
func Info() map[string]string {
	return map[string]string{
		"service":    Service,
		"version":    Version,
		"number":     Number,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	}
}

// UserAgent значення заголовка для вихідних запитів до Twitter
func UserAgent() string {
	return fmt.Sprintf("%s/%s (+%s)", Service, Version, GitCommit)
}
