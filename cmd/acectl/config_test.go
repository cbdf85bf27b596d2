package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfig(t *testing.T) {
	t.Run("missing file yields zero config", func(t *testing.T) {
		cfg, err := loadAppConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Empty(t, cfg.EC.BaseURL)
	})

	t.Run("full config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "acekit.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
ec:
  base_url: https://ec.example.edu.cn
uaap:
  base_url: https://vpn.example.edu.cn
services:
  aac: https://vpn.example.edu.cn/aac/sso/login
vault:
  backend: file
  path: /tmp/vault.age
  passphrase_env: ACEKIT_VAULT_PASSPHRASE
retry:
  max_attempts: 3
log:
  level: debug
  format: json
`), 0o600))

		cfg, err := loadAppConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "https://ec.example.edu.cn", cfg.EC.BaseURL)
		assert.Equal(t, "https://vpn.example.edu.cn", cfg.UAAP.BaseURL)
		assert.Equal(t, "https://vpn.example.edu.cn/aac/sso/login", cfg.Services["aac"])
		assert.Equal(t, "file", cfg.Vault.Backend)
		assert.Equal(t, 3, cfg.Retry.MaxAttempts)
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}

func TestBuildStore(t *testing.T) {
	t.Run("default memory", func(t *testing.T) {
		store, err := buildStore(&appConfig{})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("file backend requires passphrase", func(t *testing.T) {
		cfg := &appConfig{}
		cfg.Vault.Backend = "file"
		cfg.Vault.Path = filepath.Join(t.TempDir(), "vault.age")
		cfg.Vault.PassphraseEnv = "ACEKIT_TEST_NO_SUCH_VAR"

		_, err := buildStore(cfg)
		assert.Error(t, err)
	})

	t.Run("file backend", func(t *testing.T) {
		t.Setenv("ACEKIT_TEST_PASSPHRASE", "correct horse battery staple")
		cfg := &appConfig{}
		cfg.Vault.Backend = "file"
		cfg.Vault.Path = filepath.Join(t.TempDir(), "vault.age")
		cfg.Vault.PassphraseEnv = "ACEKIT_TEST_PASSPHRASE"

		store, err := buildStore(cfg)
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &appConfig{}
		cfg.Vault.Backend = "etcd"
		_, err := buildStore(cfg)
		assert.Error(t, err)
	})
}

func TestCreateApp(t *testing.T) {
	app := createApp()
	require.NotNil(t, app)
	assert.Equal(t, "acectl", app.Name)

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"login", "check", "ticket", "logout"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
