package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 60, cfg.JWT.ExpireMinutes)
	assert.Equal(t, "https://api.wishlist.com/errors/", cfg.Problem.TypeBaseURI)

	// debug mode gets a generated secret
	assert.True(t, cfg.JWT.Generated)
	assert.Len(t, cfg.JWT.Secret, 48)
}

func TestLoad_RequiredFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  mode: release
  shutdown_timeout: 5s
database:
  driver: postgres
  host: db.internal
  dbname: wishes
jwt:
  secret: from-file
  expire_minutes: 15
log:
  format: console
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.False(t, cfg.JWT.Generated)
	assert.Equal(t, 15, cfg.JWT.ExpireMinutes)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "host=db.internal port=6543 user=wishlist password= dbname=wishes sslmode=disable", cfg.Database.DSN())
}

func TestLoad_ReleaseRequiresSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  mode: release\n")

	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"zero ttl", func(c *Config) { c.JWT.ExpireMinutes = 0 }, "jwt.expire_minutes"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"redis without channel", func(c *Config) { c.Redis.Enabled = true; c.Redis.Channel = "" }, "redis.channel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.JWT.Secret = "secret"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}
