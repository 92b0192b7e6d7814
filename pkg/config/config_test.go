package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIREBASE_API_KEY", "key")
	t.Setenv("FIREBASE_PROJECT_ID", "demo-project")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Guard.VerificationGracePeriod)
	assert.Equal(t, "/login", cfg.Guard.LoginPath)
	assert.Equal(t, "sa_session", cfg.Session.CookieName)
	assert.Empty(t, cfg.Redis.Host)
}

func TestLoad_GracePeriodOverride(t *testing.T) {
	t.Setenv("FIREBASE_API_KEY", "key")
	t.Setenv("FIREBASE_PROJECT_ID", "demo-project")
	t.Setenv("GUARD_VERIFICATION_GRACE_PERIOD", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Guard.VerificationGracePeriod)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Environment: "development"},
			Firebase: FirebaseConfig{APIKey: "key", ProjectID: "p"},
			Session:  SessionConfig{Secret: "dev-session-secret-change-in-production"},
			Guard:    GuardConfig{VerificationGracePeriod: 30 * time.Second},
		}
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.Firebase.APIKey = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.Guard.VerificationGracePeriod = -time.Second
	assert.Error(t, c.Validate())

	c = valid()
	c.Server.Environment = "production"
	assert.Error(t, c.Validate(), "default session secret must be rejected in production")

	c.Session.Secret = "a-real-secret"
	assert.NoError(t, c.Validate())
}

func TestGetRedisAddr(t *testing.T) {
	c := &Config{Redis: RedisConfig{Host: "cache", Port: "6380"}}
	assert.Equal(t, "cache:6380", c.GetRedisAddr())
}
