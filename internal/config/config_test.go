package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/social-swarm/internal/config"
)

const validYAML = `
debug: true
server:
  address: ":9090"
redis:
  url: "localhost:6379"
postgres:
  host: "localhost"
content:
  base_url: "https://api.openai.com"
  model: "gpt-4o-mini"
embedding:
  base_url: "https://api.openai.com"
  model: "text-embedding-3-small"
  dimension: 1536
crm:
  base_url: "https://services.leadconnectorhq.com"
  location_id: "loc-1"
platforms:
  facebook:
    access_token: "fb-token"
    page_id: "page-1"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "localhost:6379", cfg.Redis.URL)
	assert.Equal(t, "gpt-4o-mini", cfg.Content.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, "fb-token", cfg.Platforms.Facebook.AccessToken)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Positive(t, cfg.Orchestrator.PublishTimeout)
	assert.Positive(t, cfg.Orchestrator.GenerateTimeout)
	assert.Positive(t, cfg.Platforms.Facebook.RateLimit)
	assert.Positive(t, cfg.Platforms.Twitter.RateLimit)
	assert.InDelta(t, 0.7, cfg.Content.Temperature, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "8088")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TWITTER_BEARER_TOKEN", "bearer-test")

	cfg, err := config.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8088", cfg.Server.Address)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "sk-test", cfg.Content.APIKey)
	// Embedding key falls back to the shared OpenAI key
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "bearer-test", cfg.Platforms.Twitter.BearerToken)
}

func TestLoad_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{
			name: "missing redis url",
			yaml: `
postgres:
  host: "localhost"
content:
  base_url: "https://api.openai.com"
  model: "gpt-4o-mini"
embedding:
  base_url: "https://api.openai.com"
  model: "text-embedding-3-small"
`,
		},
		{
			name: "missing content model",
			yaml: `
redis:
  url: "localhost:6379"
postgres:
  host: "localhost"
content:
  base_url: "https://api.openai.com"
embedding:
  base_url: "https://api.openai.com"
  model: "text-embedding-3-small"
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
