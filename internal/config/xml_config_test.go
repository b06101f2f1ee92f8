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
	for _, k := range []string{"PORT", "DATA_DIR", "DALUX_API_KEY", "DALUX_BASE_URL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config is written on first run")

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "data", "archives"), cfg.GetArchiveDir())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 60*time.Second, cfg.UploadTimeout())
	assert.Equal(t, "document", cfg.Remote.DocumentKind)
	assert.Empty(t, cfg.Naming.TaxonomyFile)
}

func TestLoadConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	want := DefaultConfig()
	want.Server.Port = 9100
	want.Remote.APIKey = "from-file"
	want.Naming.TaxonomyFile = "taxonomy.yaml"
	require.NoError(t, want.Save(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Remote.APIKey)
	assert.Equal(t, filepath.Join(dir, "taxonomy.yaml"), cfg.Naming.TaxonomyFile)
	assert.Equal(t, "0.0.0.0:9100", cfg.GetServerAddr())
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "elsewhere")
	t.Setenv("PORT", "7001")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("DALUX_API_KEY", "env-key")
	t.Setenv("DALUX_BASE_URL", "http://localhost:1234/api")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dataDir, "archives"), cfg.GetArchiveDir())
	assert.Equal(t, "env-key", cfg.Remote.APIKey)
	assert.Equal(t, "http://localhost:1234/api", cfg.Remote.BaseURL)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{"defaults", func(c *AppConfig) {}, false},
		{"bad port", func(c *AppConfig) { c.Server.Port = 0 }, true},
		{"unknown backend", func(c *AppConfig) { c.Storage.Backend = "ftp" }, true},
		{"minio without bucket", func(c *AppConfig) {
			c.Storage.Backend = "MINIO"
			c.Storage.Minio.Bucket = ""
		}, true},
		{"minio", func(c *AppConfig) { c.Storage.Backend = "minio" }, false},
		{"no base url", func(c *AppConfig) { c.Remote.BaseURL = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvalidXML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("<DocSorter><Server>"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	c := DefaultConfig()
	c.Storage.DataDirectory = filepath.Join(dir, "data")
	c.Storage.ArchivesDirectory = filepath.Join(dir, "data", "archives")

	require.NoError(t, c.EnsureDirectories())
	_, err := os.Stat(c.Storage.ArchivesDirectory)
	assert.NoError(t, err)
}
