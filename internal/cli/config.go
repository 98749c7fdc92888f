package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/foldercheck/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the foldercheck configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Hash Algorithm: %s\n", cfg.Compare.HashAlgorithm)
			fmt.Fprintf(out, "Hash Type: %s\n", cfg.Compare.HashType)
			fmt.Fprintf(out, "Write Mode: %s\n", cfg.Reports.WriteMode)
			fmt.Fprintf(out, "Contents Filename: %s\n", cfg.ContentsFilename())
			fmt.Fprintf(out, "Missing Files Filename: %s\n", cfg.Reports.MissingFilesFilename)
			fmt.Fprintf(out, "Fix Missing Files: %t\n", cfg.Repair.FixMissingFiles)
			fmt.Fprintf(out, "Max Passes: %d\n", cfg.Repair.MaxPasses)
			fmt.Fprintf(out, "Max Workers: %d\n", cfg.Performance.MaxWorkers)
			fmt.Fprintf(out, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log Level: %s\n", cfg.Logging.Level)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}
}
