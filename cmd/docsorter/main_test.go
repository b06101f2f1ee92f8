package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/docsorter/backend/internal/config"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_DIR", "DALUX_API_KEY", "DALUX_BASE_URL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestArchiveCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scans"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scans", "plan.pdf"), []byte("%PDF-1.4"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0644))

	manifestFile := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(manifestFile, []byte(`
project: P1
files:
  - path: scans/plan.pdf
    documentType: NAC
    phase: PGD
    role: PRO
    date: "20240305"
    target: 02_Projektna_dok/02_PGD
  - path: notes.txt
`), 0644))

	out := filepath.Join(dir, "out.zip")
	stdout, err := execute(t, "archive",
		"--config", filepath.Join(dir, config.FileName),
		"--manifest", manifestFile,
		"--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 1 files")

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "02_Projektna_dok/02_PGD/P1-NAC-PGD-PRO-plan-20240305.pdf")
	assert.Contains(t, names, "00_Navodila/")
}

func TestArchiveCommandRejectsBadManifest(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	manifestFile := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(manifestFile, []byte("files: []\n"), 0644))

	_, err := execute(t, "archive",
		"--config", filepath.Join(dir, config.FileName),
		"--manifest", manifestFile,
		"--out", filepath.Join(dir, "out.zip"))
	assert.Error(t, err)
}

func TestProjectsCommand(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/5.1/projects" || r.Header.Get("X-API-KEY") != "secret" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"data":{"projectId":7,"number":"P1","projectName":"Bridge"}}]}`))
	}))
	defer srv.Close()

	t.Setenv("DALUX_BASE_URL", srv.URL)
	t.Setenv("DALUX_API_KEY", "secret")

	dir := t.TempDir()
	stdout, err := execute(t, "projects", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "7\tP1 - Bridge\n", stdout)
}
