package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSiteFile is read when PATTERNS_SITE_FILE is unset. It may be
// missing, in which case the built-in site defaults apply.
const DefaultSiteFile = "site.yaml"

type Config struct {
	ListenPort      string        // ex: ":4780"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ContentRoot    string        // directory holding the content base (empty = embedded content)
	SiteFile       string        // path to site.yaml (title, social links, declared sidebar)
	ReloadInterval time.Duration // interval to rebuild the site from the content root (default: 1h)
	Watch          bool          // rebuild on filesystem changes (only with ContentRoot)
	WatchDebounce  time.Duration // quiet period before a watch-triggered rebuild
	IncludeDrafts  bool          // render pages with draft: true
	ViewGCInterval time.Duration // interval to drop view counters of deleted pages

	// Redis (optional, empty RedisAddr disables page view persistence)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict /reload to specific Host headers
	AllowedCIDRS []string // optional, restrict admin endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	ReloadBurst  int // /reload rate limit bucket size per client IP
	ReloadPerMin int // /reload refill rate per client IP
}

// SiteFileOptional reports whether a missing site file falls back to the
// defaults instead of failing the build.
func (c *Config) SiteFileOptional() bool {
	return c.SiteFile == DefaultSiteFile
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PATTERNS_LISTEN_PORT", ":4780"),
		ShutdownTimeout: mustDuration("PATTERNS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PATTERNS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PATTERNS_PRETTY_LOG", true),

		// Content
		ContentRoot:    getenv("PATTERNS_CONTENT_ROOT", ""),
		SiteFile:       getenv("PATTERNS_SITE_FILE", DefaultSiteFile),
		ReloadInterval: mustDuration("PATTERNS_RELOAD_INTERVAL", time.Hour),
		Watch:          mustBool("PATTERNS_WATCH", false),
		WatchDebounce:  mustDuration("PATTERNS_WATCH_DEBOUNCE", 500*time.Millisecond),
		IncludeDrafts:  mustBool("PATTERNS_INCLUDE_DRAFTS", false),
		ViewGCInterval: mustDuration("PATTERNS_VIEW_GC_INTERVAL", 24*time.Hour),

		// Redis settings
		RedisAddr:             getenv("PATTERNS_REDIS_ADDR", ""),
		RedisUser:             getenv("PATTERNS_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("PATTERNS_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("PATTERNS_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("PATTERNS_REDIS_DB", 0),
		RedisDT:               mustDuration("PATTERNS_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("PATTERNS_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("PATTERNS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("PATTERNS_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("PATTERNS_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("PATTERNS_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("PATTERNS_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("PATTERNS_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("PATTERNS_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("PATTERNS_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("PATTERNS_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("PATTERNS_TRUST_PROXY", false),

		ReloadBurst:  getenvInt("PATTERNS_RELOAD_BURST", 3),
		ReloadPerMin: getenvInt("PATTERNS_RELOAD_PER_MIN", 6),
	}

	if cfg.ReloadInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: PATTERNS_RELOAD_INTERVAL must be > 0, got %v", cfg.ReloadInterval))
	}
	if cfg.ViewGCInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: PATTERNS_VIEW_GC_INTERVAL must be > 0, got %v", cfg.ViewGCInterval))
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: PATTERNS_REDIS_PASSWORD is required when PATTERNS_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Validate checks the settings that command line flags may still change
// after Load.
func (c *Config) Validate() error {
	if c.Watch && c.ContentRoot == "" {
		return errors.New("watching requires a content root on disk (PATTERNS_CONTENT_ROOT or --content), embedded content cannot change")
	}
	return nil
}

// RedisEnabled reports whether page views are persisted.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
