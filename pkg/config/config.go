package config

import (
	"github.com/sdejongh/foldercheck/pkg/hashing"
	"github.com/sdejongh/foldercheck/pkg/models"
	"github.com/sdejongh/foldercheck/pkg/report"
)

// Config represents the application configuration.
// Folders are not part of it; they are always given on the command line.
type Config struct {
	Compare     CompareConfig     `yaml:"compare"`
	Reports     ReportsConfig     `yaml:"reports"`
	Repair      RepairConfig      `yaml:"repair"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Exclude     []string          `yaml:"exclude"`
}

// CompareConfig holds fingerprinting settings
type CompareConfig struct {
	HashAlgorithm string          `yaml:"hash_algorithm"`
	HashType      models.HashType `yaml:"hash_type"`
}

// ReportsConfig holds report file settings
type ReportsConfig struct {
	WriteMode            models.WriteMode `yaml:"write_mode"`
	ContentsFilename     string           `yaml:"contents_filename"` // derived from write_mode when empty
	MissingFilesFilename string           `yaml:"missing_files_filename"`
}

// RepairConfig holds repair loop settings
type RepairConfig struct {
	FixMissingFiles bool `yaml:"fix_missing_files"`
	MaxPasses       int  `yaml:"max_passes"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers     int   `yaml:"max_workers"`
	BufferSize     int   `yaml:"buffer_size"`
	BandwidthLimit int64 `yaml:"bandwidth_limit"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars on a terminal
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
	Verbose  bool   `yaml:"verbose"`  // Narrate every step
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // Log file path (empty = stderr)
	MaxSize    int64  `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Compare: CompareConfig{
			HashAlgorithm: hashing.DefaultAlgorithm,
			HashType:      models.HashContents,
		},
		Reports: ReportsConfig{
			WriteMode:            models.WriteNone,
			ContentsFilename:     "",
			MissingFilesFilename: report.MissingFilename,
		},
		Repair: RepairConfig{
			FixMissingFiles: false,
			MaxPasses:       5,
		},
		Performance: PerformanceConfig{
			MaxWorkers:     4,
			BufferSize:     hashing.BlockSize,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: false,
			Quiet:    false,
			Verbose:  false,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Format:     "text",
			Level:      "info",
			File:       "",
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 3,
		},
		Exclude: []string{},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := hashing.Lookup(c.Compare.HashAlgorithm); err != nil {
		return &models.ValidationError{
			Field:   "compare.hash_algorithm",
			Message: err.Error(),
		}
	}

	if !c.Compare.HashType.Valid() {
		return &models.ValidationError{
			Field:   "compare.hash_type",
			Message: "must be 'contents' or 'filenames'",
		}
	}

	if !c.Reports.WriteMode.Valid() {
		return &models.ValidationError{
			Field:   "reports.write_mode",
			Message: "must be 'none', 'json' or 'csv'",
		}
	}

	if c.Reports.MissingFilesFilename == "" {
		return &models.ValidationError{
			Field:   "reports.missing_files_filename",
			Message: "must not be empty",
		}
	}

	if !models.IsPlainFilename(c.Reports.MissingFilesFilename) {
		return &models.ValidationError{
			Field:   "reports.missing_files_filename",
			Message: "must be a plain file name without directories",
		}
	}

	if c.Reports.ContentsFilename != "" && !models.IsPlainFilename(c.Reports.ContentsFilename) {
		return &models.ValidationError{
			Field:   "reports.contents_filename",
			Message: "must be a plain file name without directories",
		}
	}

	if c.ContentsFilename() == c.Reports.MissingFilesFilename {
		return &models.ValidationError{
			Field:   "reports.contents_filename",
			Message: "must differ from reports.missing_files_filename",
		}
	}

	if c.Repair.MaxPasses < 1 {
		return &models.ValidationError{
			Field:   "repair.max_passes",
			Message: "must be at least 1",
		}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}

// ContentsFilename returns the configured index report name, derived from
// the write mode when unset
func (c *Config) ContentsFilename() string {
	return report.ContentsFilename(c.Reports.WriteMode, c.Reports.ContentsFilename)
}
