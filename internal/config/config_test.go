package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_POSTGRESQL_DSN", "postgres://localhost:5432/videoresizer?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "videoresizer-api", cfg.ServiceName)
	assert.Equal(t, ":8480", cfg.Addr())
	assert.Equal(t, int64(524288000), cfg.MaxUploadBytes)
	assert.Equal(t, []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}, cfg.AcceptedExtensions)
	assert.Equal(t, 120*time.Second, cfg.TranscoderTimeout)
	assert.True(t, cfg.IsS3Storage())
	assert.False(t, cfg.IsLocalStorage())
	assert.False(t, cfg.SessionStoreEnabled())
}

func TestLoad_RequiresDatabaseDSN(t *testing.T) {
	t.Setenv("DB_POSTGRESQL_DSN", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_NormalizesExtensions(t *testing.T) {
	t.Setenv("DB_POSTGRESQL_DSN", "postgres://localhost:5432/videoresizer")
	t.Setenv("PIPELINE_ACCEPTED_EXTENSIONS", "MP4, .MOV ,webm")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{".mp4", ".mov", ".webm"}, cfg.AcceptedExtensions)
}

func TestLoad_AuthRequiresIssuerAndJWKS(t *testing.T) {
	t.Setenv("DB_POSTGRESQL_DSN", "postgres://localhost:5432/videoresizer")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_ISSUER", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("AUTH_ISSUER", "https://auth.example.com/realms/videoresizer")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("AUTH_JWKS_URL", "https://auth.example.com/realms/videoresizer/protocol/openid-connect/certs")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AuthEnabled)
}
