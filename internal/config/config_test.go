package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndSelectOrg(t *testing.T) {
	path := writeConfig(t, `
default_org = "acme"

[orgs.acme]
token = "xoxp-acme"

[orgs.globex]
token = "xoxp-globex"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	t.Run("explicit name", func(t *testing.T) {
		org, err := cfg.GetOrg("globex")
		require.NoError(t, err)
		assert.Equal(t, "globex", org.Name)
		assert.Equal(t, "xoxp-globex", org.Token)
	})

	t.Run("default org", func(t *testing.T) {
		org, err := cfg.GetOrg("")
		require.NoError(t, err)
		assert.Equal(t, "acme", org.Name)
	})

	t.Run("unknown org lists available", func(t *testing.T) {
		_, err := cfg.GetOrg("initech")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "acme, globex")
	})
}

func TestSingleOrgIsImplicitDefault(t *testing.T) {
	path := writeConfig(t, `
[orgs.acme]
token = "xoxp-acme"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	org, err := cfg.GetOrg("")
	require.NoError(t, err)
	assert.Equal(t, "acme", org.Name)
}

func TestNoDefaultAmongSeveralOrgs(t *testing.T) {
	path := writeConfig(t, `
[orgs.acme]
token = "a"

[orgs.globex]
token = "b"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.GetOrg("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--org")
}

func TestMissingToken(t *testing.T) {
	path := writeConfig(t, `
[orgs.acme]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 'token'")
}

func TestMissingFileHasCreationHint(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[orgs.myworkspace]")
}

func TestTokenEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[orgs.acme]
token = "xoxp-from-file"
`)

	t.Setenv("SLACKCLI_TOKEN", "xoxp-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	org, err := cfg.GetOrg("acme")
	require.NoError(t, err)
	assert.Equal(t, "xoxp-from-env", org.Token)
}
