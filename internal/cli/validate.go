package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sdejongh/foldercheck/internal/platform"
	"github.com/sdejongh/foldercheck/pkg/config"
	"github.com/sdejongh/foldercheck/pkg/models"
)

// validateCheckFlags validates the folder flags before any configuration is loaded
func validateCheckFlags() error {
	for _, f := range []struct{ name, path string }{
		{"left", checkFlags.Left},
		{"right", checkFlags.Right},
	} {
		if err := platform.ValidatePath(f.path); err != nil {
			return models.NewError(models.KindConfig, "validate "+f.name+" folder", f.path, err)
		}

		info, err := os.Stat(f.path)
		if os.IsNotExist(err) {
			return models.NewError(models.KindConfig, "validate "+f.name+" folder", f.path,
				fmt.Errorf("%s folder does not exist", f.name))
		} else if err != nil {
			return models.NewError(models.KindConfig, "validate "+f.name+" folder", f.path, err)
		} else if !info.IsDir() {
			return models.NewError(models.KindConfig, "validate "+f.name+" folder", f.path,
				fmt.Errorf("%s folder is not a directory", f.name))
		}
	}

	same, err := platform.SamePath(checkFlags.Left, checkFlags.Right)
	if err != nil {
		return models.NewError(models.KindConfig, "validate folders", checkFlags.Left, err)
	}
	if same {
		return models.NewError(models.KindConfig, "validate folders", checkFlags.Left,
			fmt.Errorf("left and right folders cannot be the same"))
	}

	if checkFlags.MaxPasses < 0 {
		return models.NewError(models.KindConfig, "validate flags", "",
			fmt.Errorf("--max-passes must be positive, got %d", checkFlags.MaxPasses))
	}
	if checkFlags.Parallel < 0 {
		return models.NewError(models.KindConfig, "validate flags", "",
			fmt.Errorf("--parallel must be positive, got %d", checkFlags.Parallel))
	}

	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) error {
	// Fingerprinting
	if checkFlags.Algorithm != "" {
		cfg.Compare.HashAlgorithm = strings.ToLower(checkFlags.Algorithm)
	}
	if checkFlags.HashType != "" {
		t, err := models.ParseHashType(checkFlags.HashType)
		if err != nil {
			return err
		}
		cfg.Compare.HashType = t
	}

	// Reports
	if checkFlags.WriteMode != "" {
		m, err := models.ParseWriteMode(checkFlags.WriteMode)
		if err != nil {
			return err
		}
		cfg.Reports.WriteMode = m
	}
	if checkFlags.ContentsFilename != "" {
		cfg.Reports.ContentsFilename = checkFlags.ContentsFilename
	}
	if checkFlags.MissingFilename != "" {
		cfg.Reports.MissingFilesFilename = checkFlags.MissingFilename
	}

	// Repair loop
	if checkFlags.Fix {
		cfg.Repair.FixMissingFiles = true
	}
	if checkFlags.MaxPasses > 0 {
		cfg.Repair.MaxPasses = checkFlags.MaxPasses
	}

	// Parallel workers (default: 4)
	if checkFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = checkFlags.Parallel
	} else if cfg.Performance.MaxWorkers == 0 {
		cfg.Performance.MaxWorkers = 4
	}

	if checkFlags.Bandwidth != "" {
		limit, err := parseBandwidth(checkFlags.Bandwidth)
		if err != nil {
			return err
		}
		cfg.Performance.BandwidthLimit = limit
	}

	// Exclude patterns
	if len(checkFlags.Exclude) > 0 {
		cfg.Exclude = checkFlags.Exclude
	}

	// Output format
	if checkFlags.Output != "" {
		cfg.Output.Format = checkFlags.Output
	}
	if checkFlags.Progress {
		cfg.Output.Progress = true
	}

	// Verbose narration replaces the progress bars
	if globalFlags.Verbose {
		cfg.Output.Verbose = true
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
		cfg.Output.Verbose = false
	}

	// Logging
	if checkFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = checkFlags.LogFile
	}
	if checkFlags.LogFormat != "" {
		cfg.Logging.Format = checkFlags.LogFormat
	}
	if checkFlags.LogLevel != "" {
		cfg.Logging.Level = checkFlags.LogLevel
	}

	return nil
}

// parseBandwidth converts "512K", "10M", "1G" or a plain byte count
// into bytes per second. Suffixes are binary multiples.
func parseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/S"), "B")
	if s == "" {
		return 0, &models.ValidationError{Field: "bandwidth", Message: "empty value"}
	}

	multiplier := int64(1)
	switch s[len(s)-1] {
	case 'K':
		multiplier = 1 << 10
	case 'M':
		multiplier = 1 << 20
	case 'G':
		multiplier = 1 << 30
	}
	if multiplier > 1 {
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, &models.ValidationError{Field: "bandwidth", Message: fmt.Sprintf("invalid value %q (e.g. 512K, 10M, 1G)", s)}
	}
	return int64(value * float64(multiplier)), nil
}

// createCheckOperation creates a check operation from configuration
func createCheckOperation(cfg *config.Config) (*models.CheckOperation, error) {
	operation := &models.CheckOperation{
		LeftFolder:           platform.NormalizePath(checkFlags.Left),
		RightFolder:          platform.NormalizePath(checkFlags.Right),
		WriteMode:            cfg.Reports.WriteMode,
		HashAlgorithm:        cfg.Compare.HashAlgorithm,
		HashType:             cfg.Compare.HashType,
		ContentsFilename:     cfg.Reports.ContentsFilename,
		MissingFilesFilename: cfg.Reports.MissingFilesFilename,
		FixMissingFiles:      cfg.Repair.FixMissingFiles,
		MaxPasses:            cfg.Repair.MaxPasses,
		ExcludePatterns:      cfg.Exclude,
		MaxWorkers:           cfg.Performance.MaxWorkers,
		BandwidthLimit:       cfg.Performance.BandwidthLimit,
		BufferSize:           cfg.Performance.BufferSize,
		Verbose:              cfg.Output.Verbose,
		CreatedAt:            time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
