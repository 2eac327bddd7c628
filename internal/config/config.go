// =============================================================================
// Product Feed - Configuration Module
// =============================================================================
//
// This module loads the main configuration of the product feed tool.
//
// SOURCES (later sources win):
//   1. Built-in defaults
//   2. config.yaml (or the file named by --config)
//   3. PRODUCTFEED_* environment variables, which may come from a .env file
//
// A missing config.yaml at the default location is not an error; the
// defaults are used. A missing file named explicitly is.
//
// ENVIRONMENT OVERRIDES:
//   Every scalar key can be overridden by PRODUCTFEED_<KEY IN UPPER CASE>,
//   e.g. PRODUCTFEED_INPUT_DIR or PRODUCTFEED_ERROR_POLICY. List keys
//   (file_patterns, outputs) take a comma-separated value.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/popiel/code-exercise-services/internal/feed"
	"github.com/popiel/code-exercise-services/internal/fixedwidth"
	"github.com/popiel/code-exercise-services/internal/logger"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "config.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRODUCTFEED_"

// Output formats.
const (
	OutputXML  = "xml"
	OutputXLSX = "xlsx"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for product files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated files, error logs and summaries.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// FilePatterns are glob patterns matched against names in InputDir.
	// Default: ["*.txt", "*.dat"]
	FilePatterns []string `yaml:"file_patterns"`

	// Encoding is the character set of description and size text.
	// Valid values: "UTF-8", "ISO-8859-1", "Windows-1252" or any IANA name.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// ErrorPolicy decides what happens to malformed lines.
	// Valid values: "skip" (log and continue), "fail_fast" (fail the file)
	// Default: "skip"
	ErrorPolicy string `yaml:"error_policy"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// Outputs lists the formats written for every input file.
	// Valid values: "xml", "xlsx"
	// Default: ["xml"]
	Outputs []string `yaml:"outputs"`

	// WriteXSD writes products.xsd describing the XML output.
	// Default: false
	WriteXSD bool `yaml:"write_xsd"`

	// Archive moves processed input and copies output to the archive dirs.
	// Default: true
	Archive bool `yaml:"archive"`

	// UUIDFormat defines the base name of output files, without extension.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {source}    - Input file name without extension
	// Default: "{uuid}"
	UUIDFormat string `yaml:"uuid_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log encoding.
	// Valid values: "text", "json"
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// LogFile is appended to when set; otherwise logs go to stderr.
	// Default: ""
	LogFile string `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() *MainConfig {
	config := &MainConfig{Archive: true}
	applyMainConfigDefaults(config)
	return config
}

// =============================================================================
// LOADING
// =============================================================================

// LoadMainConfig loads the main configuration file and applies environment
// overrides.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - explicit: Whether the path was given by the user. A missing file is
//     only an error when it was.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string, explicit bool) (*MainConfig, error) {
	config := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvOverrides(config, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	applyMainConfigDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. Variables already set are left alone. A missing file is
// ignored unless required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
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
	if len(config.FilePatterns) == 0 {
		config.FilePatterns = []string{"*.txt", "*.dat"}
	}
	if config.Encoding == "" {
		config.Encoding = "UTF-8"
	}
	if config.ErrorPolicy == "" {
		config.ErrorPolicy = "skip"
	}
	if len(config.Outputs) == 0 {
		config.Outputs = []string{OutputXML}
	}
	if config.UUIDFormat == "" {
		config.UUIDFormat = "{uuid}"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envSetters maps a config key to the function applying its override.
var envSetters = map[string]func(c *MainConfig, value string) error{
	"input_dir":          func(c *MainConfig, v string) error { c.InputDir = v; return nil },
	"output_dir":         func(c *MainConfig, v string) error { c.OutputDir = v; return nil },
	"input_archive_dir":  func(c *MainConfig, v string) error { c.InputArchiveDir = v; return nil },
	"output_archive_dir": func(c *MainConfig, v string) error { c.OutputArchiveDir = v; return nil },
	"file_patterns":      func(c *MainConfig, v string) error { c.FilePatterns = splitList(v); return nil },
	"encoding":           func(c *MainConfig, v string) error { c.Encoding = v; return nil },
	"error_policy":       func(c *MainConfig, v string) error { c.ErrorPolicy = v; return nil },
	"outputs":            func(c *MainConfig, v string) error { c.Outputs = splitList(v); return nil },
	"write_xsd":          func(c *MainConfig, v string) error { return parseBool(v, &c.WriteXSD) },
	"archive":            func(c *MainConfig, v string) error { return parseBool(v, &c.Archive) },
	"uuid_format":        func(c *MainConfig, v string) error { c.UUIDFormat = v; return nil },
	"max_concurrency": func(c *MainConfig, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		c.MaxConcurrency = n
		return nil
	},
	"log_level":  func(c *MainConfig, v string) error { c.LogLevel = v; return nil },
	"log_format": func(c *MainConfig, v string) error { c.LogFormat = v; return nil },
	"log_file":   func(c *MainConfig, v string) error { c.LogFile = v; return nil },
}

// EnvKey returns the environment variable overriding a config key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

func applyEnvOverrides(config *MainConfig, lookup func(string) (string, bool)) error {
	for key, set := range envSetters {
		value, ok := lookup(EnvKey(key))
		if !ok {
			continue
		}
		if err := set(config, value); err != nil {
			return fmt.Errorf("%s: %w", EnvKey(key), err)
		}
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(value string, dst *bool) error {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks option values. It does not touch the file system.
func (c *MainConfig) Validate() error {
	if _, err := feed.ParsePolicy(c.ErrorPolicy); err != nil {
		return err
	}
	if _, err := fixedwidth.LookupEncoding(c.Encoding); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !logger.ValidFormat(c.LogFormat) {
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	for _, output := range c.Outputs {
		switch strings.ToLower(output) {
		case OutputXML, OutputXLSX:
		default:
			return fmt.Errorf("unknown output %q (want xml or xlsx)", output)
		}
	}
	return nil
}

// WantsOutput reports whether format is among the configured outputs.
func (c *MainConfig) WantsOutput(format string) bool {
	for _, output := range c.Outputs {
		if strings.EqualFold(output, format) {
			return true
		}
	}
	return false
}

// EnsureDirectories creates the directories the process command writes to.
func (c *MainConfig) EnsureDirectories() error {
	dirs := []string{c.InputDir, c.OutputDir}
	if c.Archive {
		dirs = append(dirs, c.InputArchiveDir, c.OutputArchiveDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
