package statslib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("LOG_URLS", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("LOG_URLS", "")

	path := writeConfig(t, `
repository:
  owner: getsentry
  name: XcodeBuildMCP
package:
  name: xcodebuildmcp
fallback:
  stars: 2000
  forks: 80
  version: v1.11.0
freshness: 30m
timeout: 5s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "getsentry", cfg.Repository.Owner)
	assert.Equal(t, DefaultAPIURL, cfg.Repository.APIURL)
	assert.Equal(t, DefaultRegistryURL, cfg.Package.RegistryURL)
	assert.Equal(t, Fallback{Stars: 2000, Forks: 80, Version: "v1.11.0"}, cfg.Fallback)
	assert.Equal(t, 30*time.Minute, cfg.Freshness)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("LOG_URLS", "")

	cfg, err := LoadConfig(writeConfig(t, "fallback:\n  version: v2.0.0\n"))
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", cfg.Fallback.Version)
	assert.Equal(t, 1900, cfg.Fallback.Stars)
	assert.Equal(t, "XcodeBuildMCP", cfg.Repository.Name)
	assert.Equal(t, time.Hour, cfg.Freshness)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_example")
	t.Setenv("HTTP_TIMEOUT", "3")
	t.Setenv("LOG_URLS", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "ghp_example", cfg.Token)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.True(t, cfg.LogURLs)
}

func TestLoadConfig_TokenNeverReadFromFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	cfg, err := LoadConfig(writeConfig(t, "token: from-file\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Token)
}

func TestLoadConfig_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		path           func(t *testing.T) string
		timeout        string
		expectedErrMsg string
	}{
		{
			name:           "missing file",
			path:           func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			expectedErrMsg: "failed to read config file",
		},
		{
			name:           "bad yaml",
			path:           func(t *testing.T) string { return writeConfig(t, "repository: [") },
			expectedErrMsg: "syntax error in config file",
		},
		{
			name:           "bad timeout",
			path:           func(t *testing.T) string { return "" },
			timeout:        "soon",
			expectedErrMsg: "invalid HTTP_TIMEOUT",
		},
		{
			name:           "empty repository",
			path:           func(t *testing.T) string { return writeConfig(t, "repository:\n  owner: \"\"\n") },
			expectedErrMsg: "repository owner and name are required",
		},
		{
			name:           "negative freshness",
			path:           func(t *testing.T) string { return writeConfig(t, "freshness: -1m\n") },
			expectedErrMsg: "freshness must be >= 0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HTTP_TIMEOUT", tc.timeout)

			_, err := LoadConfig(tc.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}
