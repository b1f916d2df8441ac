package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBase is the hosted blog backend used when nothing else is configured.
const DefaultAPIBase = "https://blogbackend-6l7p.onrender.com"

type Config struct {
	// APIBase is the default blog API URL. A user-saved api-base in the session wins over it.
	APIBase string

	// StateDir holds the CLI session file (default ~/.blogclient).
	StateDir string

	// WebPort is the port the web front end listens on.
	WebPort string

	// SessionBackend is "memory" (default), "redis" or "file" for the web front end.
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// HTTPTimeout bounds each API call. Zero means no timeout.
	HTTPTimeout time.Duration

	// Env is "dev" (default) or "prod". When "prod", cookies are marked Secure.
	Env string

	LogLevel string
	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// AuthRatePerMinute limits login/register submissions per client IP on the web front end.
	AuthRatePerMinute int
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIBase:  strings.TrimRight(getEnv("BLOG_API_URL", DefaultAPIBase), "/"),
		StateDir: getEnv("BLOG_STATE_DIR", defaultStateDir()),
		WebPort:  getEnv("BLOG_WEB_PORT", "3000"),

		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),

		HTTPTimeout: time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,

		Env:       getEnv("ENV", "dev"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 10),
	}
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return c.Env == "prod"
}

func defaultStateDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".blogclient"
	}
	return filepath.Join(dir, ".blogclient")
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
