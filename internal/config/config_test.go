package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 20, cfg.Picklist.BatchSize)
	assert.Equal(t, 3, cfg.Picklist.ReferenceTeams)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9090
picklist:
  batch_size: 12
  batching_threshold: 25
llm:
  model: gpt-4o-mini
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Picklist.BatchSize)
	assert.Equal(t, 25, cfg.Picklist.BatchingThreshold)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	// Untouched sections keep defaults.
	assert.Equal(t, "https://www.thebluealliance.com/api/v3", cfg.TBA.BaseURL)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("OPENAI_API_KEY sets the LLM key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	})

	t.Run("TBA_AUTH_KEY sets the TBA key", func(t *testing.T) {
		t.Setenv("TBA_AUTH_KEY", "tba-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "tba-key", cfg.TBA.AuthKey)
	})

	t.Run("GRIDSCOUT_PORT ignores garbage", func(t *testing.T) {
		t.Setenv("GRIDSCOUT_PORT", "not-a-port")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 8000, cfg.Server.Port)
	})

	t.Run("GOOGLE_APPLICATION_CREDENTIALS does not clobber explicit path", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/env/creds.json")

		cfg := DefaultConfig()
		cfg.Sheets.CredentialsFile = "/explicit/creds.json"
		cfg.applyEnvOverrides()
		assert.Equal(t, "/explicit/creds.json", cfg.Sheets.CredentialsFile)
	})
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, ParseDuration("500ms", time.Second))
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("bogus", time.Second))
}
