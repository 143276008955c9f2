package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "HTTP_ADDR", "SUPABASE_URL", "SUPABASE_KEY", "DATABASE_URL",
		"JWT_SECRET", "JWT_TTL", "BACKEND_TIMEOUT", "REDIS_ADDR", "REDIS_DB",
		"LOG_LEVEL", "LOG_FORMAT", "MATCH_MODE", "DEMO_SEED", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "exact", cfg.MatchMode)
	assert.True(t, cfg.DemoSeed)
	assert.Equal(t, ModeDemo, cfg.Mode())
}

func TestConfig_Mode(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want Mode
	}{
		{"nothing configured", Config{}, ModeDemo},
		{"placeholder url", Config{SupabaseURL: "https://your_project.supabase.co", SupabaseKey: "abc"}, ModeDemo},
		{"placeholder key", Config{SupabaseURL: "https://x.supabase.co", SupabaseKey: "your_anon_key"}, ModeDemo},
		{"supabase", Config{SupabaseURL: "https://x.supabase.co", SupabaseKey: "abc"}, ModeLive},
		{"supabase wins over database", Config{SupabaseURL: "https://x.supabase.co", SupabaseKey: "abc", DatabaseURL: "postgres://db"}, ModeLive},
		{"database", Config{DatabaseURL: "file:blood.db"}, ModeSQL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Mode())
		})
	}
}

func TestLoad_RejectsUnknownMatchMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("MATCH_MODE", "fuzzy")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATCH_MODE")
}

func TestLoad_ProdRequiresSecretAndBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage backend")

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/blood")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeSQL, cfg.Mode())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.org, ,https://b.example.org ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.CORSAllowedOrigins)
}
