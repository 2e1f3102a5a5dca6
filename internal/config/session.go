package config

import (
	"strings"
	"time"
)

// Session store backends accepted in SESSION_BACKEND.
const (
	SessionBackendRedis  = "redis"
	SessionBackendJWT    = "jwt"
	SessionBackendMemory = "memory"
	SessionBackendMySQL  = "mysql"
)

// SessionConfig describes how the session gate stores sessions and shapes the
// cookie that references them.  TTL applies to ordinary logins, RememberTTL
// when the client asked to be remembered.
type SessionConfig struct {
	Backend     string
	Secret      string
	CookieName  string
	TTL         time.Duration
	RememberTTL time.Duration
	Secure      bool
	KeyPrefix   string
}

// DemoConfig holds the fixed demonstration credential pair.  It is disabled
// unless DEMO_LOGIN_ENABLED is set explicitly.
type DemoConfig struct {
	Enabled  bool
	Email    string
	Password string
}

// LoadSessionConfig reads SESSION_* variables.  Unknown backends fall back to
// redis.
func LoadSessionConfig() SessionConfig {
	backend := strings.ToLower(strings.TrimSpace(envStr("SESSION_BACKEND", SessionBackendRedis)))
	switch backend {
	case SessionBackendRedis, SessionBackendJWT, SessionBackendMemory, SessionBackendMySQL:
	default:
		backend = SessionBackendRedis
	}
	cfg := SessionConfig{
		Backend:     backend,
		Secret:      envStr("SESSION_SECRET", ""),
		CookieName:  envStr("SESSION_COOKIE", "session_id"),
		TTL:         envDur("SESSION_TTL", 24*time.Hour),
		RememberTTL: envDur("SESSION_REMEMBER_TTL", 30*24*time.Hour),
		Secure:      envBool("SESSION_SECURE", false),
		KeyPrefix:   envStr("SESSION_KEY_PREFIX", "session:"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RememberTTL < cfg.TTL {
		cfg.RememberTTL = cfg.TTL
	}
	return cfg
}

// LoadDemoConfig reads DEMO_* variables.
func LoadDemoConfig() DemoConfig {
	return DemoConfig{
		Enabled:  envBool("DEMO_LOGIN_ENABLED", false),
		Email:    strings.ToLower(strings.TrimSpace(envStr("DEMO_EMAIL", "admin@example.com"))),
		Password: envStr("DEMO_PASSWORD", "password"),
	}
}
