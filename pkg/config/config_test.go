package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AQUA_URL", "AQUA_USERNAME", "AQUA_PASSWORD",
		"SDE_URL", "SDE_TOKEN", "CA_CERTS", "BUILD_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Ad Hoc Scans", cfg.Aqua.Registry)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gatecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aqua:
  url: https://aqua.acme.example
  username: scanner
  registry_prefix: ghcr.io/acme/
sde:
  url: https://sde.acme.example
timeout_seconds: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://aqua.acme.example", cfg.Aqua.URL)
	assert.Equal(t, "ghcr.io/acme/", cfg.Aqua.RegistryPrefix)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	// File values merge over defaults without clobbering them.
	assert.Equal(t, "Ad Hoc Scans", cfg.Aqua.Registry)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AQUA_PASSWORD", "hunter2")
	t.Setenv("SDE_TOKEN", "sde-token")
	t.Setenv("BUILD_URL", "https://github.com/acme/payments-api/actions/runs/42")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.Aqua.Password)
	assert.Equal(t, "sde-token", cfg.SDE.Token)
	assert.Equal(t, "https://github.com/acme/payments-api/actions/runs/42", cfg.BuildURL)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	assert.ErrorIs(t, cfg.ValidateAqua(), ErrMissingRequired)
	assert.ErrorIs(t, cfg.ValidateSDE(), ErrMissingRequired)

	cfg.Aqua.URL = "https://aqua.acme.example"
	cfg.Aqua.Username = "scanner"
	cfg.Aqua.Password = "hunter2"
	assert.NoError(t, cfg.ValidateAqua())

	cfg.SDE.URL = "https://sde.acme.example"
	cfg.SDE.Token = "tok"
	assert.NoError(t, cfg.ValidateSDE())
}
