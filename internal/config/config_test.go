package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	t.Setenv("REPORT_CONFIG_DIR", "/etc/millreport/config.d")
	t.Setenv("ARCHIVE_DB_PATH", "/tmp/archive.sqlite")
	t.Setenv("DATA_DB_PATH", "/tmp/data.sqlite")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FORMULA_POLICY", "substitute")
	t.Setenv("FORMULA_SENTINEL", "-1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/etc/millreport/config.d", cfg.ConfigDir)
	assert.Equal(t, "/tmp/archive.sqlite", cfg.ArchiveDBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "substitute", cfg.FormulaPolicy)
	assert.Equal(t, -1.0, cfg.FormulaSentinel)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("REPORT_CONFIG_DIR", "")
	t.Setenv("ARCHIVE_DB_PATH", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("FORMULA_POLICY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REPORT_SCHEDULE", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "config.d", cfg.ConfigDir)
	assert.Equal(t, "millreport.sqlite", cfg.ArchiveDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "fail", cfg.FormulaPolicy)
	assert.Equal(t, 100.0, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.Cache.Enabled())
	assert.False(t, cfg.Schedule.Enabled())
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFromEnv_CacheTTLDefault(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Cache.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoadFromEnv_InvalidFormulaPolicy(t *testing.T) {
	t.Setenv("FORMULA_POLICY", "ignore")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORMULA_POLICY")
}

func TestLoadFromEnv_ScheduleRequiresDepartments(t *testing.T) {
	t.Setenv("REPORT_SCHEDULE", "0 6 * * *")
	t.Setenv("SCHEDULE_DEPARTMENTS", "")
	t.Setenv("DATA_DB_PATH", "/tmp/data.sqlite")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHEDULE_DEPARTMENTS")
}

func TestLoadFromEnv_ScheduleDefaults(t *testing.T) {
	t.Setenv("REPORT_SCHEDULE", "0 6 * * *")
	t.Setenv("SCHEDULE_DEPARTMENTS", "ringframe, carding")
	t.Setenv("SCHEDULE_REPORT_TYPES", "")
	t.Setenv("DATA_DB_PATH", "/tmp/data.sqlite")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Schedule.Enabled())
	assert.Equal(t, []string{"ringframe", "carding"}, cfg.Schedule.Departments)
	assert.Equal(t, []string{"daywise"}, cfg.Schedule.ReportTypes)
}

func TestLoadFromEnv_ProductionRejectsCORSWildcard(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel().String(), "level %q", tt.level)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_KEY=test_value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_KEY"); val != "test_value" {
		t.Errorf("TEST_KEY = %q, want %q", val, "test_value")
	}
	_ = os.Unsetenv("TEST_KEY")
}

func TestLoadDotEnv_SkipsComments(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("# comment\nTEST_COMMENT_KEY=value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_COMMENT_KEY"); val != "value" {
		t.Errorf("TEST_COMMENT_KEY = %q, want %q", val, "value")
	}
	_ = os.Unsetenv("TEST_COMMENT_KEY")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_PRECEDENCE_KEY"); val != "from_env" {
		t.Errorf("TEST_PRECEDENCE_KEY = %q, want %q (env precedence)", val, "from_env")
	}
}
