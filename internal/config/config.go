package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string
	WebDir     string

	BackendBaseURL    string
	BackendTimeoutSec int

	DemoMode    bool
	DemoDelayMS int

	ListCacheTTLSec   int
	DetailCacheTTLSec int
	HealthCacheTTLSec int
	RedisAddr         string

	DBDriver          string
	DBPath            string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	HTTPReadTimeoutSec       int
	HTTPReadHeaderTimeoutSec int
	HTTPWriteTimeoutSec      int
	HTTPIdleTimeoutSec       int

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
	Locale    string
}

// Load reads the whole configuration surface from the environment once
// at startup. There is no runtime reconfiguration.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:               env("LISTEN_ADDR", ":8090"),
		WebDir:                   env("WEB_DIR", "web"),
		BackendBaseURL:           env("BACKEND_BASE_URL", "http://localhost:8080"),
		BackendTimeoutSec:        envInt("BACKEND_TIMEOUT_SEC", 15),
		DemoMode:                 envBool("DEMO_MODE", false),
		DemoDelayMS:              envInt("DEMO_DELAY_MS", 400),
		ListCacheTTLSec:          envInt("LIST_CACHE_TTL_SEC", 30),
		DetailCacheTTLSec:        envInt("DETAIL_CACHE_TTL_SEC", 60),
		HealthCacheTTLSec:        envInt("HEALTH_CACHE_TTL_SEC", 60),
		RedisAddr:                env("REDIS_ADDR", ""),
		DBDriver:                 strings.ToLower(env("APP_DB_DRIVER", "sqlite")),
		DBPath:                   env("APP_DB_PATH", "./data/app.db"),
		DBDSN:                    env("APP_DB_DSN", ""),
		DBMaxOpenConns:           envInt("APP_DB_MAX_OPEN_CONNS", 4),
		DBMaxIdleConns:           envInt("APP_DB_MAX_IDLE_CONNS", 2),
		DBConnMaxLifetime:        time.Duration(envInt("APP_DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
		HTTPReadTimeoutSec:       envInt("HTTP_READ_TIMEOUT_SEC", 10),
		HTTPReadHeaderTimeoutSec: envInt("HTTP_READ_HEADER_TIMEOUT_SEC", 5),
		HTTPWriteTimeoutSec:      envInt("HTTP_WRITE_TIMEOUT_SEC", 60),
		HTTPIdleTimeoutSec:       envInt("HTTP_IDLE_TIMEOUT_SEC", 60),
		CORSAllowedOrigins:       envCSV("CORS_ALLOWED_ORIGINS"),
		LogLevel:                 strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:                strings.ToLower(env("LOG_FORMAT", "json")),
		Locale:                   env("DISPLAY_LOCALE", "pt-BR"),
	}

	u, err := url.Parse(cfg.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("BACKEND_BASE_URL must be an absolute http(s) URL, got %q", cfg.BackendBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Config{}, fmt.Errorf("BACKEND_BASE_URL scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.BackendTimeoutSec <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT_SEC must be positive")
	}
	if cfg.ListCacheTTLSec <= 0 || cfg.DetailCacheTTLSec <= 0 || cfg.HealthCacheTTLSec <= 0 {
		return Config{}, fmt.Errorf("cache TTLs must be positive")
	}
	if cfg.DemoDelayMS < 0 {
		return Config{}, fmt.Errorf("DEMO_DELAY_MS must not be negative")
	}
	if cfg.DBMaxOpenConns <= 0 || cfg.DBMaxIdleConns < 0 {
		return Config{}, fmt.Errorf("invalid DB pool config")
	}
	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(cfg.DBDSN) == "" {
			return Config{}, fmt.Errorf("APP_DB_DSN is required when APP_DB_DRIVER=postgres")
		}
	default:
		return Config{}, fmt.Errorf("APP_DB_DRIVER must be one of: sqlite, postgres")
	}
	return cfg, nil
}

func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

func (c Config) DemoDelay() time.Duration {
	return time.Duration(c.DemoDelayMS) * time.Millisecond
}

func (c Config) ListCacheTTL() time.Duration {
	return time.Duration(c.ListCacheTTLSec) * time.Second
}

func (c Config) DetailCacheTTL() time.Duration {
	return time.Duration(c.DetailCacheTTLSec) * time.Second
}

func (c Config) HealthCacheTTL() time.Duration {
	return time.Duration(c.HealthCacheTTLSec) * time.Second
}

func env(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d
	}
	return b
}

func envCSV(k string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
