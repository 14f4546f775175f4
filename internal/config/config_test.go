package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "8081", cfg.HTTP.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL)
	assert.True(t, cfg.Leave.AllowRedecide)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/a.db")
	t.Setenv("ACCESS_TTL", "30m")
	t.Setenv("LEAVE_ALLOW_REDECIDE", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/a.db", cfg.Store.SQLitePath)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
	assert.False(t, cfg.Leave.AllowRedecide)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: dev
http_server:
  port: "9000"
store:
  backend: postgres
  database_url: postgres://u:p@db/attendance
`), 0o600))
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.HTTP.Port)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://u:p@db/attendance", cfg.Store.DatabaseURL)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() App {
		return App{
			Env:   EnvProd,
			Store: Store{Backend: StoreMemory},
			Cache: Cache{Backend: CacheMemory},
			Auth:  Auth{SigningKey: "0123456789abcdef0123456789abcdef", AccessTTL: time.Hour},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*App){
		"dev key in prod":   func(a *App) { a.Auth.SigningKey = DevSigningKey },
		"short key in prod": func(a *App) { a.Auth.SigningKey = "short" },
		"unknown env":       func(a *App) { a.Env = "staging" },
		"unknown store":     func(a *App) { a.Store.Backend = "mysql" },
		"postgres no url":   func(a *App) { a.Store.Backend = StorePostgres },
		"redis no addr":     func(a *App) { a.Cache.Backend = CacheRedis },
		"zero ttl":          func(a *App) { a.Auth.AccessTTL = 0 },
		"negative limit":    func(a *App) { a.RateLimitPerMin = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	dev := valid()
	dev.Env = EnvDev
	dev.Auth.SigningKey = DevSigningKey
	assert.NoError(t, dev.Validate())
}
