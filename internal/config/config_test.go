package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSessionConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("SESSION_REMEMBER_TTL", "")

	cfg := LoadSessionConfig()
	assert.Equal(t, SessionBackendRedis, cfg.Backend)
	assert.Equal(t, "session_id", cfg.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.TTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RememberTTL)
	assert.False(t, cfg.Secure)
}

func TestLoadSessionConfig_UnknownBackendFallsBack(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "cookie-jar")
	assert.Equal(t, SessionBackendRedis, LoadSessionConfig().Backend)

	t.Setenv("SESSION_BACKEND", " JWT ")
	assert.Equal(t, SessionBackendJWT, LoadSessionConfig().Backend)
}

func TestLoadSessionConfig_RememberNeverShorterThanTTL(t *testing.T) {
	t.Setenv("SESSION_TTL", "48h")
	t.Setenv("SESSION_REMEMBER_TTL", "1h")

	cfg := LoadSessionConfig()
	assert.Equal(t, 48*time.Hour, cfg.RememberTTL)
}

func TestLoadDemoConfig_DisabledByDefault(t *testing.T) {
	t.Setenv("DEMO_LOGIN_ENABLED", "")
	t.Setenv("DEMO_EMAIL", "")

	cfg := LoadDemoConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "admin@example.com", cfg.Email)
	assert.Equal(t, "password", cfg.Password)
}

func TestLoadDemoConfig_NormalizesEmail(t *testing.T) {
	t.Setenv("DEMO_LOGIN_ENABLED", "yes")
	t.Setenv("DEMO_EMAIL", "  Boss@Example.COM ")

	cfg := LoadDemoConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "boss@example.com", cfg.Email)
}

func TestValidate(t *testing.T) {
	base := Config{
		Env:        "dev",
		BcryptCost: 10,
		Session:    SessionConfig{Backend: SessionBackendRedis},
	}
	require.NoError(t, base.Validate())

	prodDemo := base
	prodDemo.Env = "PROD"
	prodDemo.Demo.Enabled = true
	assert.Error(t, prodDemo.Validate())

	shortSecret := base
	shortSecret.Session = SessionConfig{Backend: SessionBackendJWT, Secret: "short"}
	assert.Error(t, shortSecret.Validate())

	badCost := base
	badCost.BcryptCost = 2
	assert.Error(t, badCost.Validate())
}

func TestLoadRateLimitConfig_Normalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "rl:auth", cfg.Prefix)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")

	assert.False(t, envBool("X_BOOL", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.Equal(t, "fallback", envStr("X_MISSING_FOR_TEST", "fallback"))
}

func TestRedisOptions_HostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TLS", "1")

	opts := RedisOptions()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.NotNil(t, opts.TLSConfig)
}

func TestAdminEmails(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Ops@Example.com, ,root@example.com")
	cfg := Config{AdminEmails: envList("ADMIN_EMAILS")}

	assert.Equal(t, []string{"ops@example.com", "root@example.com"}, cfg.AdminEmails)
	assert.True(t, cfg.IsAdmin("OPS@example.com "))
	assert.False(t, cfg.IsAdmin("jane@example.com"))
	assert.False(t, Config{}.IsAdmin(""))
}
