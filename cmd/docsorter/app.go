package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docsorter/backend/internal/config"
	"github.com/docsorter/backend/internal/logging"
	"github.com/docsorter/backend/internal/manifest"
	"github.com/docsorter/backend/internal/naming"
	"github.com/docsorter/backend/internal/remote"
	"github.com/docsorter/backend/internal/session"
	"github.com/docsorter/backend/internal/storage"
	"github.com/docsorter/backend/internal/taxonomy"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
)

// app is the configuration shared by every command.
type app struct {
	configPath string
	cfg        *config.AppConfig
	log        *logrus.Logger
	taxonomy   *taxonomy.Taxonomy
	codes      *naming.CodeTables
}

func loadApp() (*app, error) {
	path := configPath
	if path == "" {
		// Get the executable's directory for config resolution
		exePath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		path = filepath.Join(filepath.Dir(exePath), config.FileName)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logging.New(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}

	a := &app{
		configPath: path,
		cfg:        cfg,
		log:        log,
		taxonomy:   taxonomy.Default(),
		codes:      naming.DefaultCodeTables(),
	}
	if f := cfg.Naming.TaxonomyFile; f != "" {
		if a.taxonomy, err = taxonomy.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load taxonomy %s: %w", f, err)
		}
	}
	if f := cfg.Naming.CodesFile; f != "" {
		if a.codes, err = naming.LoadCodeTables(f); err != nil {
			return nil, fmt.Errorf("failed to load code tables %s: %w", f, err)
		}
	}
	return a, nil
}

// newRemote builds a document service client. An empty apiKey uses the
// configured one.
func (a *app) newRemote(apiKey string) *remote.Client {
	if apiKey == "" {
		apiKey = a.cfg.Remote.APIKey
	}
	return remote.New(remote.Config{
		BaseURL:        a.cfg.Remote.BaseURL,
		APIKey:         apiKey,
		RequestTimeout: a.cfg.RequestTimeout(),
		UploadTimeout:  a.cfg.UploadTimeout(),
		Logger:         a.log,
	})
}

func (a *app) newStore(ctx context.Context) (storage.Store, error) {
	if a.cfg.Storage.Backend == config.BackendMinio {
		m := a.cfg.Storage.Minio
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Prefix:    m.Prefix,
			Region:    m.Region,
			UseSSL:    m.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := storage.NewLocalStore(a.cfg.GetArchiveDir())
	if err != nil {
		return nil, err
	}
	return store, nil
}

// loadManifestRun builds a run from a manifest. File paths are relative to
// the manifest's directory.
func (a *app) loadManifestRun(manifestPath string) (*session.Run, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	run, err := session.NewRun(session.Options{
		ProjectCode:  m.Project,
		Taxonomy:     a.taxonomy,
		Codes:        a.codes,
		Remote:       a.newRemote(""),
		DocumentKind: a.cfg.Remote.DocumentKind,
		Logger:       a.log,
	})
	if err != nil {
		return nil, err
	}

	if err := m.Populate(run, osfs.New(filepath.Dir(manifestPath))); err != nil {
		return nil, err
	}

	for _, f := range run.Files() {
		if !f.Complete {
			a.log.WithFields(logrus.Fields{"file": f.OriginalName, "missing": f.Missing}).Warn("file is incomplete and will be skipped")
		}
	}
	return run, nil
}
