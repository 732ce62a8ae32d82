// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-dev/hindsight/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hindsight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Listen)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "hindsight.db", cfg.Storage.Path)
	assert.Equal(t, "openai", cfg.Oracle.Backend)
	assert.Equal(t, []string{"FOLLOWS", "PRECEDES", "CAUSED_BY", "RELATED_TO"}, cfg.Oracle.RelationTypes)
	assert.Equal(t, 100, cfg.Search.Limit)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: 0.0.0.0:9090
storage:
  backend: sqlite
  path: /tmp/test.db
oracle:
  backend: anthropic
  anthropic:
    api_key: sk-test
    model: claude-haiku-4-5
search:
  limit: 25
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Listen)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, "anthropic", cfg.Oracle.Backend)
	assert.Equal(t, 25, cfg.Search.Limit)

	backend := cfg.OracleBackend()
	assert.Equal(t, "sk-test", backend.APIKey)
	assert.Equal(t, "claude-haiku-4-5", backend.Model)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HINDSIGHT_SERVER_LISTEN", "127.0.0.1:7000")
	t.Setenv("HINDSIGHT_STORAGE_PATH", "env.db")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Listen)
	assert.Equal(t, "env.db", cfg.Storage.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{Listen: "not-an-address"},
		Storage: config.StorageConfig{Backend: "postgres", Path: "hindsight.db"},
		Oracle:  config.OracleConfig{Backend: "copilot"},
		Search:  config.SearchConfig{Limit: 0},
	}

	// One error per section: listen, storage backend, oracle backend, limit.
	errs := cfg.Validate()
	assert.Len(t, errs, 4)
}

func TestValidate_ListenVariants(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Server:  config.ServerConfig{Listen: "127.0.0.1:8787"},
			Storage: config.StorageConfig{Backend: "sqlite", Path: "hindsight.db"},
			Oracle:  config.OracleConfig{Backend: "openai"},
			Search:  config.SearchConfig{Limit: 10},
		}
	}

	tests := []struct {
		name    string
		listen  string
		wantErr bool
	}{
		{"host and port", "127.0.0.1:8787", false},
		{"port only", ":8787", false},
		{"missing port", "127.0.0.1", true},
		{"empty", "", true},
		{"bad port", "127.0.0.1:http", true},
		{"port out of range", "127.0.0.1:70000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			cfg.Server.Listen = tt.listen
			errs := cfg.Validate()
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidate_EmptyRelationType(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{Listen: "127.0.0.1:8787"},
		Storage: config.StorageConfig{Backend: "sqlite", Path: "hindsight.db"},
		Oracle:  config.OracleConfig{Backend: "openai", RelationTypes: []string{"FOLLOWS", " "}},
		Search:  config.SearchConfig{Limit: 10},
	}
	assert.NotEmpty(t, cfg.Validate())
}

func TestDefaultConfigYAML_IsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hindsight.yaml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfigYAML, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}
