// Package config provides XML-based configuration for the docsorter service.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileName is the default configuration file name.
const FileName = "docsorter.config.xml"

// Storage backends.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"DocSorter"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Archive storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Document service configuration
	Remote RemoteConfig `xml:"Remote"`

	// Naming tables
	Naming NamingConfig `xml:"Naming"`

	// Run lifecycle
	Session SessionConfig `xml:"Session"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains archive storage settings
type StorageConfig struct {
	DataDirectory     string      `xml:"DataDirectory"`
	ArchivesDirectory string      `xml:"ArchivesDirectory"`
	Backend           string      `xml:"Backend"`
	Minio             MinioConfig `xml:"Minio"`
}

// MinioConfig contains object store settings, used when Backend is minio
type MinioConfig struct {
	Endpoint  string `xml:"Endpoint"`
	AccessKey string `xml:"AccessKey"`
	SecretKey string `xml:"SecretKey"`
	Bucket    string `xml:"Bucket"`
	Prefix    string `xml:"Prefix"`
	Region    string `xml:"Region"`
	UseSSL    bool   `xml:"UseSSL"`
}

// RemoteConfig contains document service settings
type RemoteConfig struct {
	BaseURL               string `xml:"BaseURL"`
	APIKey                string `xml:"APIKey"`
	RequestTimeoutSeconds int    `xml:"RequestTimeoutSeconds"`
	UploadTimeoutSeconds  int    `xml:"UploadTimeoutSeconds"`
	DocumentKind          string `xml:"DocumentKind"`
}

// NamingConfig points at optional taxonomy and code table files
type NamingConfig struct {
	TaxonomyFile string `xml:"TaxonomyFile"`
	CodesFile    string `xml:"CodesFile"`
}

// SessionConfig contains run lifecycle settings
type SessionConfig struct {
	RunTimeoutMinutes      int `xml:"RunTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
	MaxRuns                int `xml:"MaxRuns"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 300,
			IdleTimeout:  120,
			BodyLimit:    "512M",
		},
		Storage: StorageConfig{
			DataDirectory:     "./data",
			ArchivesDirectory: "./data/archives",
			Backend:           BackendLocal,
			Minio: MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "docsorter-archives",
			},
		},
		Remote: RemoteConfig{
			BaseURL:               "https://node2.field.dalux.com/service/api",
			RequestTimeoutSeconds: 30,
			UploadTimeoutSeconds:  60,
			DocumentKind:          "document",
		},
		Session: SessionConfig{
			RunTimeoutMinutes:      120,
			CleanupIntervalMinutes: 10,
			MaxRuns:                20,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "text",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from an XML file. A missing file is
// created with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- DocSorter Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves the archives with it unless they were placed elsewhere
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		if c.Storage.ArchivesDirectory == "" || c.Storage.ArchivesDirectory == DefaultConfig().Storage.ArchivesDirectory {
			c.Storage.ArchivesDirectory = filepath.Join(dataDir, "archives")
		}
		c.Storage.DataDirectory = dataDir
	}

	if key := os.Getenv("DALUX_API_KEY"); key != "" {
		c.Remote.APIKey = key
	}
	if baseURL := os.Getenv("DALUX_BASE_URL"); baseURL != "" {
		c.Remote.BaseURL = baseURL
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// Validate rejects settings the service cannot start with
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "", BackendLocal:
		c.Storage.Backend = BackendLocal
	case BackendMinio:
		c.Storage.Backend = BackendMinio
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("minio backend needs an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote base URL is empty")
	}
	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.ArchivesDirectory,
		&c.Naming.TaxonomyFile,
		&c.Naming.CodesFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetArchiveDir returns the absolute archives directory path
func (c *AppConfig) GetArchiveDir() string {
	return c.Storage.ArchivesDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// RequestTimeout returns the per-call remote timeout
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Remote.RequestTimeoutSeconds) * time.Second
}

// UploadTimeout returns the content streaming timeout
func (c *AppConfig) UploadTimeout() time.Duration {
	return time.Duration(c.Remote.UploadTimeoutSeconds) * time.Second
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDirectory}
	if c.Storage.Backend == BackendLocal {
		dirs = append(dirs, c.Storage.ArchivesDirectory)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
