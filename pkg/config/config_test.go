package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "config.json")
	prev := configPath
	ConfigSetPath(path)
	t.Cleanup(func() { ConfigSetPath(prev) })
	return path
}

func TestConfigLoad_WritesDefaultsOnFirstRun(t *testing.T) {
	path := useTempConfig(t)

	require.NoError(t, ConfigLoad())

	_, err := os.Stat(path)
	require.NoError(t, err, "default config file should be created")

	cfg := ConfigGet()
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 20, cfg.HistoryDepth)
	assert.Equal(t, "sqlite", cfg.SnapshotBackend)
}

func TestConfigLoad_FileValuesAndEnvOverrides(t *testing.T) {
	path := useTempConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"http_addr":":9999","history_depth":5}`), 0644))

	t.Setenv("OPENAI_MODEL", "gpt-test")
	t.Setenv("MINDMAP_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MINDMAP_CORS_ORIGINS", "http://a.test,http://b.test")

	require.NoError(t, ConfigLoad())
	cfg := ConfigGet()

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.HistoryDepth)
	assert.Equal(t, "mindmap.db", cfg.DatabaseFile, "missing keys keep their defaults")
	assert.Equal(t, "gpt-test", cfg.OpenAIModel)
	assert.Equal(t, "redis", cfg.SnapshotBackend)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*model.Config) {}},
		{name: "unknown database", mutate: func(c *model.Config) { c.DatabaseType = "oracle" }, wantErr: true},
		{name: "postgres needs dsn", mutate: func(c *model.Config) { c.DatabaseType = "postgres" }, wantErr: true},
		{name: "postgres with dsn", mutate: func(c *model.Config) {
			c.DatabaseType = "postgres"
			c.DatabaseDSN = "postgres://localhost/mindmap"
		}},
		{name: "redis needs url", mutate: func(c *model.Config) { c.SnapshotBackend = "redis" }, wantErr: true},
		{name: "history depth must be positive", mutate: func(c *model.Config) { c.HistoryDepth = 0 }, wantErr: true},
		{name: "jwks replaces secret", mutate: func(c *model.Config) {
			c.JWTSecret = ""
			c.JWKSURL = "https://issuer.test/.well-known/jwks.json"
		}},
		{name: "no signing source", mutate: func(c *model.Config) { c.JWTSecret = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigDefault()
			tt.mutate(cfg)
			err := ConfigValidate(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}
