package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/foldercheck/pkg/config"
	"github.com/sdejongh/foldercheck/pkg/logging"
	"github.com/sdejongh/foldercheck/pkg/output"
	"github.com/sdejongh/foldercheck/pkg/reconcile"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that every left file exists in the right folder",
		Long: `Fingerprint the files directly inside the left and right folders and list
the left files whose fingerprint is not found on the right.

With --write-mode json|csv the fingerprint indexes and the missing list are
written into the folders. Adding --fix copies the missing files into the right
folder and checks again until nothing is missing or no progress is made.`,
		RunE: runCheck,
	}

	addFolderFlags(cmd)
	cmd.Flags().StringVarP(&checkFlags.WriteMode, "write-mode", "w", "", "report files to write: none, json, csv")
	cmd.Flags().StringVar(&checkFlags.ContentsFilename, "contents-filename", "", "index report name (default contents.json or contents.csv)")
	cmd.Flags().StringVar(&checkFlags.MissingFilename, "missing-filename", "", "missing list name (default missing.txt)")
	cmd.Flags().BoolVar(&checkFlags.Fix, "fix", false, "copy missing files into the right folder (requires --write-mode json or csv)")
	cmd.Flags().IntVar(&checkFlags.MaxPasses, "max-passes", 0, "maximum number of repair passes (default: 5)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	return executeCheck(cmd, true)
}

// executeCheck runs one reconciliation; allowFix=false forces report-only
func executeCheck(cmd *cobra.Command, allowFix bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Validate flags
	if err := validateCheckFlags(); err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cfg); err != nil {
		return err
	}
	if !allowFix {
		cfg.Repair.FixMissingFiles = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	operation, err := createCheckOperation(cfg)
	if err != nil {
		return fmt.Errorf("failed to create check operation: %w", err)
	}

	out := cmd.OutOrStdout()
	if cfg.Output.Quiet {
		out = io.Discard
	}

	formatter, err := createFormatter(cfg, out)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	reconciler, err := reconcile.New(operation, formatter, logger, reconcile.WithOutput(out))
	if err != nil {
		return err
	}

	report, err := reconciler.Run(ctx)
	if err != nil {
		return &ExitError{Code: report.Status.ExitCode(), Err: fmt.Errorf("check failed: %w", err)}
	}

	// Exit with appropriate code
	if code := report.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// createFormatter picks the output formatter for the run
func createFormatter(cfg *config.Config, out io.Writer) (output.Formatter, error) {
	if cfg.Output.Format == "json" {
		return output.NewJSONFormatter(), nil
	}
	if cfg.Output.Progress && !cfg.Output.Verbose && output.IsTerminal(out) {
		return output.NewProgressFormatter(), nil
	}
	return output.New(cfg.Output.Format, cfg.Output.Verbose)
}

// createLogger creates a logger based on configuration
func createLogger(cfg *config.Config) (logging.Logger, error) {
	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}
	level := logging.ParseLevel(cfg.Logging.Level)

	if cfg.Logging.File != "" {
		return logging.NewFileLogger(logging.FileLoggerConfig{
			Path:       cfg.Logging.File,
			Format:     format,
			Level:      level,
			MaxSize:    cfg.Logging.MaxSize,
			MaxBackups: cfg.Logging.MaxBackups,
		})
	}

	if cfg.Logging.Enabled {
		return logging.NewWriterLogger(os.Stderr, format, level), nil
	}

	// Verbose runs also log every step to stderr
	if cfg.Output.Verbose {
		return logging.NewConsoleLogger(os.Stderr, logging.DebugLevel), nil
	}
	return logging.NewNullLogger(), nil
}
