package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"server_address": ":3000",
	"short_link_host": "https://json-config.app/",
	"file_storage_path": "json_storage.json",
	"database_dsn": "json-dsn",
	"database_driver": "sqlite"
}`

const testSigningKey = "bGlua2Z5LXRlc3Qtc2lnbmluZy1rZXk="

func setSigningKey(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SIGNING_KEY", testSigningKey)
}

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestConfigDefaults(t *testing.T) {
	setSigningKey(t)
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.RunAddr)
	assert.Equal(t, "linkfy.web.app", cfg.ShortLinkHost)
	assert.Equal(t, "user", cfg.SessionCookieName)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, 10*time.Second, cfg.DBConnectionTimeout)

	key, err := cfg.SigningKey()
	require.NoError(t, err)
	assert.Equal(t, "linkfy-test-signing-key", string(key))
}

func TestConfigRequiresSigningKey(t *testing.T) {
	t.Setenv("SESSION_SIGNING_KEY", "")

	_, err := New(WithDisableFlagsParsing(true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SessionSigningSecretKey")
}

func TestConfigSigningKeyFromFlag(t *testing.T) {
	t.Setenv("SESSION_SIGNING_KEY", "")

	cfg, err := New(WithArgs([]string{"-k", testSigningKey}))
	require.NoError(t, err)

	key, err := cfg.SigningKey()
	require.NoError(t, err)
	assert.Equal(t, "linkfy-test-signing-key", string(key))
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	setSigningKey(t)
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "json-config.app", cfg.ShortLinkHost)
	assert.Equal(t, "json_storage.json", cfg.DBFileName)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	setSigningKey(t)
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("SHORT_LINK_HOST", "env.app")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr) // env overrides json
	assert.Equal(t, "env.app", cfg.ShortLinkHost)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	setSigningKey(t)
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("SHORT_LINK_HOST", "env.app")

	cfg, err := New(WithArgs([]string{"-a", ":6000", "-s", "cli.app"}))
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "cli.app", cfg.ShortLinkHost)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigEnvOnly(t *testing.T) {
	setSigningKey(t)
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_COOKIE_NAME", "session")
	t.Setenv("DB_CONNECTION_TIMEOUT", "3s")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "session", cfg.SessionCookieName)
	assert.Equal(t, 3*time.Second, cfg.DBConnectionTimeout)
}

func TestConfigRejectsInvalidValues(t *testing.T) {
	setSigningKey(t)
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "driver", key: "DATABASE_DRIVER", value: "mysql"},
		{name: "signing key", key: "SESSION_SIGNING_KEY", value: "not base64!"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv(test.key, test.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestConfigMissingJSONFile(t *testing.T) {
	setSigningKey(t)
	t.Setenv("CONFIG", "definitely-missing-config.json")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestNormalizeShortLinkHost(t *testing.T) {
	assert.Equal(t, "linkfy.web.app", normalizeShortLinkHost("https://linkfy.web.app/"))
	assert.Equal(t, "linkfy.web.app", normalizeShortLinkHost("http://linkfy.web.app"))
	assert.Equal(t, "linkfy.web.app", normalizeShortLinkHost("linkfy.web.app"))
}
