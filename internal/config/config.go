// =============================================================================
// Manifest to Scale - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a single YAML file.
//
// CONFIGURATION SECTIONS:
//   1. Directories: input, output and archive locations
//   2. Logging: level, format and optional log file
//   3. Output: file naming format
//   4. Processing: concurrency and company resolution for batch mode
//   5. Database: the processed manifest store
//   6. Server: the HTTP upload API
//   7. S3 and NATS: optional output archive and result notifications
//
// Every section has defaults, so an empty file is a valid configuration.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BryceStandley/ManifestToScale/internal/company"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for manifests in batch mode.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated Scale files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives manifests after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional log file written in addition to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// UUIDFormat names generated files. Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {time}      - Current time (HHMMSS)
	//   {company}   - Company slug
	//   {doc}       - receipt, shipment or manifest
	//   {manifest}  - Manifest date (YYYYMMDD)
	//   {original}  - Input file name without extension
	//
	// Default: "{company}_{doc}_{manifest}_{timestamp}"
	UUIDFormat string `yaml:"uuid_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	Processing ProcessingConfig `yaml:"processing"`

	// RetentionDays is how long files are kept by the cleanup command.
	// Default: 7
	RetentionDays int `yaml:"retention_days"`

	// =========================================================================
	// BACKENDS
	// =========================================================================

	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	S3       S3Config       `yaml:"s3"`
	NATS     NATSConfig     `yaml:"nats"`
}

// ProcessingConfig controls batch processing.
type ProcessingConfig struct {
	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files after a failure.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// DefaultCompany is used when no pattern matches a file name.
	DefaultCompany string `yaml:"default_company"`

	// CompanyPatterns map file name globs to companies, tried in order.
	//
	// Example:
	//   company_patterns:
	//     - pattern: "*azura*"
	//       company: caf
	CompanyPatterns []CompanyPattern `yaml:"company_patterns"`
}

// CompanyPattern maps a file name glob to a company name, code or slug.
type CompanyPattern struct {
	Pattern string `yaml:"pattern"`
	Company string `yaml:"company"`
}

// DatabaseConfig selects the processed manifest store.
type DatabaseConfig struct {
	// Driver is "sqlite", "postgres" or "none".
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the sqlite database file.
	// Default: "./data/manifests.db"
	Path string `yaml:"path"`

	// DSN is the postgres connection string.
	DSN string `yaml:"dsn"`
}

// ServerConfig configures the HTTP upload API.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// APIToken enables bearer token auth on upload routes when set.
	APIToken string `yaml:"api_token"`

	// MaxUploadMB caps the multipart form size.
	// Default: 32
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// S3Config configures the S3 output archive. It is disabled without a bucket.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// NATSConfig configures result notifications over NATS Streaming. It is
// disabled without a URL.
type NATSConfig struct {
	URL       string `yaml:"url"`
	ClusterID string `yaml:"cluster_id"`
	ClientID  string `yaml:"client_id"`
	Subject   string `yaml:"subject"`
}

// Enabled reports whether a NATS URL is configured.
func (c NATSConfig) Enabled() bool { return c.URL != "" }

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file
//     yields the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.UUIDFormat == "" {
		config.UUIDFormat = "{company}_{doc}_{manifest}_{timestamp}"
	}
	if config.Processing.MaxConcurrency == 0 {
		config.Processing.MaxConcurrency = 4
	}
	if config.Processing.ContinueOnError == nil {
		yes := true
		config.Processing.ContinueOnError = &yes
	}
	if config.RetentionDays == 0 {
		config.RetentionDays = 7
	}
	if config.Database.Driver == "" {
		config.Database.Driver = DriverSQLite
	}
	if config.Database.Path == "" {
		config.Database.Path = filepath.Join(".", "data", "manifests.db")
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 32
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 15 * time.Second
	}
	if config.S3.Region == "" {
		config.S3.Region = "us-east-1"
	}
	if config.NATS.ClusterID == "" {
		config.NATS.ClusterID = "test-cluster"
	}
	if config.NATS.ClientID == "" {
		config.NATS.ClientID = "manifest2scale"
	}
	if config.NATS.Subject == "" {
		config.NATS.Subject = "manifests.results"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	if config.Processing.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", config.Processing.MaxConcurrency)
	}

	if config.Processing.DefaultCompany != "" {
		if _, err := company.Parse(config.Processing.DefaultCompany); err != nil {
			return fmt.Errorf("default_company: %w", err)
		}
	}
	for i, p := range config.Processing.CompanyPatterns {
		if _, err := filepath.Match(p.Pattern, ""); err != nil {
			return fmt.Errorf("company_patterns[%d]: bad pattern %q: %w", i, p.Pattern, err)
		}
		if _, err := company.Parse(p.Company); err != nil {
			return fmt.Errorf("company_patterns[%d]: %w", i, err)
		}
	}

	switch config.Database.Driver {
	case DriverSQLite, DriverNone:
	case DriverPostgres:
		if config.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	if config.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be positive, got %d", config.RetentionDays)
	}
	if config.Server.MaxUploadMB < 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", config.Server.MaxUploadMB)
	}

	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// DefaultCompany returns the configured default company, or company.Unknown.
func (c *MainConfig) DefaultCompany() company.Company {
	comp, err := company.Parse(c.Processing.DefaultCompany)
	if err != nil {
		return company.Unknown
	}
	return comp
}

// CompanyPatterns resolves the configured patterns. Entries were checked by
// validateMainConfig, so unknown companies are dropped silently.
func (c *MainConfig) CompanyPatterns() []ResolvedPattern {
	var out []ResolvedPattern
	for _, p := range c.Processing.CompanyPatterns {
		comp, err := company.Parse(p.Company)
		if err != nil {
			continue
		}
		out = append(out, ResolvedPattern{Pattern: p.Pattern, Company: comp})
	}
	return out
}

// ResolvedPattern is a CompanyPattern with its company parsed.
type ResolvedPattern struct {
	Pattern string
	Company company.Company
}

// Retention returns RetentionDays as a duration.
func (c *MainConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// ContinueOnError reports the processing.continue_on_error setting.
func (c *MainConfig) ContinueOnError() bool {
	return c.Processing.ContinueOnError == nil || *c.Processing.ContinueOnError
}
