package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "rbac-engine", cfg.AppName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, "role-events", cfg.RabbitMQAuditQueue)
	assert.Equal(t, "roles", cfg.ESRolesIndex)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.EqualValues(t, 25, cfg.DBMaxConns)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins())
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("JWT_ACCESS_TTL", "soon")
	t.Setenv("COOKIE_SECURE", "yep")

	cfg := Load()

	assert.EqualValues(t, 10, cfg.DBMaxConns)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.False(t, cfg.CookieSecure)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "rbac", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/rbac?sslmode=disable", cfg.PostgresDSN())
}
