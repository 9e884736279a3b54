// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig holds the Redis report-cache configuration. Caching is
// optional; a server without a Redis address generates every report
// fresh.
type CacheConfig struct {
	RedisAddr     string        // Redis host:port; empty disables caching
	RedisPassword string        // Redis AUTH password (optional)
	RedisDB       int           // Redis logical database (default 0)
	TTL           time.Duration // cached report lifetime (default 5m)
}

// Enabled returns true when a Redis address is configured.
func (c *CacheConfig) Enabled() bool { return c.RedisAddr != "" }

// ScheduleConfig holds the background report generation schedule.
type ScheduleConfig struct {
	Spec        string   // cron spec; empty disables the scheduler
	Departments []string // departments to generate for
	ReportTypes []string // report types to generate (default: daywise)
}

// Enabled returns true when a cron spec is configured.
func (s *ScheduleConfig) Enabled() bool { return s.Spec != "" }

// Config holds the configuration for the report server and CLI.
type Config struct {
	ConfigDir     string // directory of report config layers (default "config.d")
	ArchiveDBPath string // path to the SQLite report archive (default "millreport.sqlite")
	DataDBPath    string // path to the SQLite production dataset (optional)
	ListenAddr    string // HTTP listen address (default ":8080")
	LogLevel      string // log level: debug, info, warn, error (default "info")
	Env           string // environment: "development" (default) or "production"

	// Formula failure handling
	FormulaPolicy   string  // "fail" (default) or "substitute"
	FormulaSentinel float64 // value recorded for failed formulas under "substitute"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Cache    CacheConfig
	Schedule ScheduleConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables. Cache and
// schedule settings are optional; the server can start without them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ConfigDir:     os.Getenv("REPORT_CONFIG_DIR"),
		ArchiveDBPath: os.Getenv("ARCHIVE_DB_PATH"),
		DataDBPath:    os.Getenv("DATA_DB_PATH"),
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Env:           os.Getenv("ENV"),
		FormulaPolicy: strings.ToLower(os.Getenv("FORMULA_POLICY")),
	}

	if v := os.Getenv("FORMULA_SENTINEL"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("FORMULA_SENTINEL: %w", err)
		}
		cfg.FormulaSentinel = f
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Cache
	cfg.Cache = CacheConfig{
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Cache.RedisDB = n
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = d
	}

	// Schedule
	cfg.Schedule = ScheduleConfig{Spec: os.Getenv("REPORT_SCHEDULE")}
	if v := os.Getenv("SCHEDULE_DEPARTMENTS"); v != "" {
		depts := strings.Split(v, ",")
		for i := range depts {
			depts[i] = strings.TrimSpace(depts[i])
		}
		cfg.Schedule.Departments = compactNonEmpty(depts)
	}
	if v := os.Getenv("SCHEDULE_REPORT_TYPES"); v != "" {
		types := strings.Split(v, ",")
		for i := range types {
			types[i] = strings.TrimSpace(types[i])
		}
		cfg.Schedule.ReportTypes = compactNonEmpty(types)
	}

	// Defaults
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = "config.d"
	}
	if cfg.ArchiveDBPath == "" {
		cfg.ArchiveDBPath = "millreport.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.FormulaPolicy == "" {
		cfg.FormulaPolicy = "fail"
	}
	if cfg.FormulaPolicy != "fail" && cfg.FormulaPolicy != "substitute" {
		return nil, fmt.Errorf("FORMULA_POLICY must be \"fail\" or \"substitute\", got %q", cfg.FormulaPolicy)
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Cache.Enabled() && cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Schedule.Enabled() && len(cfg.Schedule.ReportTypes) == 0 {
		cfg.Schedule.ReportTypes = []string{"daywise"}
	}
	if cfg.Schedule.Enabled() && len(cfg.Schedule.Departments) == 0 {
		return nil, fmt.Errorf("SCHEDULE_DEPARTMENTS is required when REPORT_SCHEDULE is set")
	}
	if cfg.Schedule.Enabled() && cfg.DataDBPath == "" {
		return nil, fmt.Errorf("DATA_DB_PATH is required when REPORT_SCHEDULE is set")
	}
	if !cfg.Cache.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "REDIS_ADDR not set — report caching disabled")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
