package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Search.BodyWeight)
	assert.Equal(t, 3.0, cfg.Search.TitleWeight)
	assert.Equal(t, 0.2, cfg.Search.PageRankWeight)
	assert.Equal(t, 5, cfg.Search.SnippetResults)
	assert.Equal(t, 200, cfg.Search.SnippetLength)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, "porter", cfg.Search.Stemmer)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
store:
  driver: sqlite
  sqlitePath: /tmp/index.db
search:
  titleWeight: 4.0
  queryTimeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("SP_SEARCH_PAGE_RANK_WEIGHT", "0.5")
	t.Setenv("SP_SERVER_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/index.db", cfg.Store.SQLitePath)
	assert.Equal(t, 4.0, cfg.Search.TitleWeight)
	assert.Equal(t, 1.0, cfg.Search.BodyWeight)
	assert.Equal(t, 3*time.Second, cfg.Search.QueryTimeout)
	assert.Equal(t, 0.5, cfg.Search.PageRankWeight)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Store.Driver = "sqlite"; c.Store.SQLitePath = "" }},
		{"unknown stemmer", func(c *Config) { c.Search.Stemmer = "lancaster" }},
		{"negative weight", func(c *Config) { c.Search.TitleWeight = -1 }},
		{"zero distance", func(c *Config) { c.Search.DefaultPhraseDistance = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
