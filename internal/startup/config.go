package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"media-resolver/internal/cloud"
	"media-resolver/internal/logging"
	"media-resolver/internal/media"
)

// Config holds all application configuration
type Config struct {
	LibraryDir      string
	CacheDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	IndexInterval   time.Duration
	LogHealthChecks bool

	// Cloud backend for assets that are not on disk
	Cloud cloud.Config

	// FetchTimeout bounds every fetch; 0 leaves it to the request context.
	FetchTimeout time.Duration

	// Default processing options
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
	Normalize   bool

	VipsEnabled bool
	FFprobePath string

	// Derived paths
	DatabasePath string
	OutputDir    string

	// OutputEnabled is false when the output directory is not writable.
	OutputEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()
	heading("CONFIGURATION")

	config := &Config{
		LibraryDir:      getEnv("LIBRARY_DIR", "/library"),
		CacheDir:        getEnv("CACHE_DIR", "/cache"),
		DatabaseDir:     getEnv("DATABASE_DIR", "/database"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		IndexInterval:   getEnvDuration("INDEX_INTERVAL", 30*time.Minute),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		Cloud:           CloudConfigFromEnv(),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 0),
		MaxWidth:        getEnvInt("MAX_WIDTH", 0),
		MaxHeight:       getEnvInt("MAX_HEIGHT", 0),
		JPEGQuality:     getEnvInt("JPEG_QUALITY", media.DefaultJPEGQuality),
		Normalize:       getEnvBool("NORMALIZE", true),
		VipsEnabled:     getEnvBool("VIPS_ENABLED", true),
		FFprobePath:     getEnv("FFPROBE_PATH", "ffprobe"),
	}

	logSettings(
		"LIBRARY_DIR", config.LibraryDir,
		"CACHE_DIR", config.CacheDir,
		"DATABASE_DIR", config.DatabaseDir,
		"PORT", config.Port,
		"METRICS_PORT", config.MetricsPort,
		"METRICS_ENABLED", config.MetricsEnabled,
		"INDEX_INTERVAL", config.IndexInterval,
		"CLOUD_BACKEND", config.Cloud.Backend,
		"FETCH_TIMEOUT", config.FetchTimeout,
		"MAX_WIDTH/HEIGHT", fmt.Sprintf("%d/%d", config.MaxWidth, config.MaxHeight),
		"JPEG_QUALITY", config.JPEGQuality,
		"NORMALIZE", config.Normalize,
		"VIPS_ENABLED", config.VipsEnabled,
		"LOG_HEALTH_CHECKS", config.LogHealthChecks,
		"LOG_LEVEL", logging.GetLevel(),
	)

	if err := config.validate(); err != nil {
		return nil, err
	}

	heading("DIRECTORIES")

	if err := config.resolveDirectories(); err != nil {
		return nil, err
	}

	logging.Info("  cloud fetch %s, output files %s, metrics %s",
		onOff(config.Cloud.Backend != cloud.BackendNone), onOff(config.OutputEnabled), onOff(config.MetricsEnabled))

	return config, nil
}

// CloudConfigFromEnv reads the CLOUD_* variables.
func CloudConfigFromEnv() cloud.Config {
	return cloud.Config{
		Backend: strings.ToLower(getEnv("CLOUD_BACKEND", cloud.BackendNone)),
		Bucket:  getEnv("CLOUD_BUCKET", ""),
		BaseURL: getEnv("CLOUD_BASE_URL", ""),
		Dir:     getEnv("CLOUD_DIR", ""),
	}
}

// ValidateCloudConfig reports a backend that is missing its location.
func ValidateCloudConfig(c cloud.Config) error {
	switch c.Backend {
	case cloud.BackendNone:
	case cloud.BackendS3:
		if c.Bucket == "" {
			return fmt.Errorf("CLOUD_BACKEND=s3 requires CLOUD_BUCKET")
		}
	case cloud.BackendHTTP:
		if c.BaseURL == "" {
			return fmt.Errorf("CLOUD_BACKEND=http requires CLOUD_BASE_URL")
		}
	case cloud.BackendDirectory:
		if c.Dir == "" {
			return fmt.Errorf("CLOUD_BACKEND=directory requires CLOUD_DIR")
		}
	default:
		return fmt.Errorf("unknown CLOUD_BACKEND %q (want none, s3, http or directory)", c.Backend)
	}
	return nil
}

// validate checks settings that would otherwise fail later at first use.
func (c *Config) validate() error {
	if err := ValidateCloudConfig(c.Cloud); err != nil {
		return err
	}

	if c.MaxWidth < 0 || c.MaxHeight < 0 {
		return fmt.Errorf("MAX_WIDTH and MAX_HEIGHT must not be negative")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		logging.Warn("  JPEG_QUALITY %d out of range, using %d", c.JPEGQuality, media.DefaultJPEGQuality)
		c.JPEGQuality = media.DefaultJPEGQuality
	}
	return nil
}

func (c *Config) resolveDirectories() error {
	var err error
	for _, dir := range []struct {
		name string
		path *string
	}{
		{"library", &c.LibraryDir},
		{"cache", &c.CacheDir},
		{"database", &c.DatabaseDir},
	} {
		if *dir.path, err = filepath.Abs(*dir.path); err != nil {
			return fmt.Errorf("failed to resolve %s directory path: %w", dir.name, err)
		}
		logging.Info("  %s directory (absolute): %s", strings.ToUpper(dir.name[:1])+dir.name[1:], *dir.path)
	}

	// The library is mounted, not created; a problem is only a warning.
	if err := ensureDirectory(c.LibraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
	}

	if err := ensureDirectory(c.DatabaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(c.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	c.DatabasePath = filepath.Join(c.DatabaseDir, "catalog.db")
	c.OutputDir = filepath.Join(c.CacheDir, "output")
	c.OutputEnabled = setupOptionalDir(c.OutputDir, "output")
	return nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
