package providers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotad/internal/structures"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const minimalConfig = `
logger:
  dir: /tmp
`

func TestNewConfigProvider_Defaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, AppName, conf.AppName)
	assert.Equal(t, path, conf.Path)
	assert.True(t, conf.Debug)
	assert.Equal(t, 8080, conf.WebServer.Port)
	assert.Equal(t, 1, conf.Quota.AnonymousDailyLimit)
	assert.Equal(t, 3, conf.Quota.RegisteredDailyLimit)
	assert.Equal(t, 2, conf.Quota.MaxAdWatches)
	assert.Equal(t, "convertpro_usage", conf.Quota.StorageKey)
	assert.Equal(t, "memory", conf.Storage.Driver)
	assert.Equal(t, 48*time.Hour, conf.Storage.RecordTTL)
	assert.Equal(t, "quotad_bid", conf.Identity.CookieName)
	assert.Equal(t, uint32(0644), conf.Logger.Mode)
}

func TestNewConfigProvider_FileValues(t *testing.T) {
	path := writeConfig(t, `
webServer:
  host: 127.0.0.1
  port: 9000
logger:
  level: debug
  dir: /tmp
quota:
  anonymousDailyLimit: 0
  registeredDailyLimit: 10
  maxAdWatches: 5
  timezone: Europe/Berlin
storage:
  driver: freecache
  recordTTL: 36h
cache:
  size: 16
persistence:
  filePath: /tmp/usage.dat
  saveInterval: 1m
cors:
  allowedOrigins:
    - https://convert.example
metrics:
  enabled: true
`)

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", conf.WebServer.Host)
	assert.Equal(t, 9000, conf.WebServer.Port)
	assert.Equal(t, 0, conf.Quota.AnonymousDailyLimit)
	assert.Equal(t, 10, conf.Quota.RegisteredDailyLimit)
	assert.Equal(t, "Europe/Berlin", conf.Quota.Timezone)
	assert.Equal(t, "freecache", conf.Storage.Driver)
	assert.Equal(t, 36*time.Hour, conf.Storage.RecordTTL)
	assert.Equal(t, time.Minute, conf.Persistence.SaveInterval)
	assert.Equal(t, []string{"https://convert.example"}, conf.Cors.AllowedOrigins)
	assert.True(t, conf.Metrics.Enabled)
}

func TestNewConfigProvider_EnvOverrides(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	t.Setenv("QUOTAD_STORAGE_DRIVER", "redis")
	t.Setenv("QUOTAD_REDIS_ADDRESS", "redis:6379")
	t.Setenv("QUOTAD_IDENTITY_SECRET", "s3cret")
	t.Setenv("QUOTAD_CORS_ORIGINS", "https://a.example, https://b.example")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "redis", conf.Storage.Driver)
	assert.Equal(t, "redis:6379", conf.Redis.Address)
	assert.Equal(t, "s3cret", conf.Identity.Secret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, conf.Cors.AllowedOrigins)
}

func TestNewConfigProvider_MissingFile(t *testing.T) {
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yml")})
	assert.Error(t, err)
}

func TestNewConfigProvider_InvalidValues(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
storage:
  driver: sqlite
`)
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err)
}

func TestSplitOrigins(t *testing.T) {
	assert.Nil(t, splitOrigins(nil))
	assert.Equal(t, []string{"a", "b", "c"}, splitOrigins([]string{"a, b", " c ", ""}))
}
