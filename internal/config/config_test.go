package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.Backend.Provider)
	assert.Equal(t, 0.5, cfg.Topics.Temperature)
	assert.Empty(t, cfg.OIDC.Issuer)
}

func TestLoad_OIDCFromEnv(t *testing.T) {
	t.Setenv("OIDC_ISSUER", "https://id.example.com")
	t.Setenv("OIDC_CLIENT_ID", "content-writer")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://id.example.com", cfg.OIDC.Issuer)
	assert.Equal(t, "content-writer", cfg.OIDC.ClientID)
}

func TestLoad_SecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_id")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	t.Setenv("OIDC_CLIENT_ID", "")
	t.Setenv("OIDC_CLIENT_ID_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.OIDC.ClientID)
}
