package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, `
server:
  port: "8081"
mongo:
  uri: mongodb://db:27017
  database: shop
  transactions: true
auth:
  jwt_secret: s3cret
  token_expiration: 2h
  salt_rounds: 6
orders:
  strict_transitions: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "./uploads", cfg.Server.UploadDir)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "shop", cfg.Mongo.Database)
	assert.True(t, cfg.Mongo.Transactions)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, 6, cfg.Auth.SaltRounds)
	assert.False(t, cfg.Orders.StrictTransitions)
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "auth:\n  jwt_secret: from-file\n")
	t.Setenv("PORT", "9000")
	t.Setenv("MONGO_URI", "mongodb://env:27017")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SALT_ROUNDS", "12")
	t.Setenv("TOKEN_EXPIRATION", "30m")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mongodb://env:27017", cfg.Mongo.URI)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 12, cfg.Auth.SaltRounds)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenExpiration)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.True(t, cfg.Orders.StrictTransitions)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")

	cfg.Auth.JWTSecret = "x"
	cfg.Auth.SaltRounds = 3
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salt_rounds")

	cfg.Auth.SaltRounds = 10
	assert.NoError(t, cfg.Validate())
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("SALT_ROUNDS", "ten")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
