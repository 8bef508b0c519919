package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "user-service", cfg.AppName)
	assert.Equal(t, 24*time.Hour, cfg.AccessTTL)
	assert.Equal(t, "user-service", cfg.JWTAudience)
	assert.Equal(t, "RS256", cfg.JWTAlgorithm)
	assert.Equal(t, "certs/private.pem", cfg.JWTPrivateKey)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.UseMemoryStore())
	assert.Empty(t, cfg.ESAddrs())
	assert.Equal(t, 256, cfg.HookQueueSize)
	assert.Equal(t, 5*time.Second, cfg.HookTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRES_MINUTES", "15")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("DATABASE_USER", "svc")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_NAME", "identity")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test, ,http://b.test ")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, "postgres://svc:secret@db:5432/identity?sslmode=disable", cfg.PostgresDSN())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, 12, cfg.BcryptCost, "invalid ints fall back to the default")
	assert.False(t, cfg.RateLimitEnabled)
}
