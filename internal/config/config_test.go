package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wirdan1/Webchat/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	data := `
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db.local
  port: 5432
  user: webchat
  password: pw
  dbname: webchat
  sslmode: disable
storage:
  region: eu-west-1
  bucket: chat-files
session:
  secret: s3cret
  secure_cookies: true
log:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "chat-files", cfg.Storage.Bucket)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.True(t, cfg.Session.SecureCookies)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "", cfg.APNS.CertPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "webchat",
		Password: "pw",
		DBName:   "webchat",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=db.local port=5432 user=webchat password=pw dbname=webchat sslmode=disable",
		cfg.DSN(),
	)
}
