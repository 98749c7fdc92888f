package cli

import (
	"github.com/spf13/cobra"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "List missing files without repairing (report only)",
		Long: `Compare the left and right folders and list the left files whose
fingerprint is not found on the right, without copying anything.
This is equivalent to check without --fix.`,
		RunE: runCompare,
	}

	// Reuse check flags for comparison
	addFolderFlags(cmd)
	cmd.Flags().StringVarP(&checkFlags.WriteMode, "write-mode", "w", "", "report files to write: none, json, csv")
	cmd.Flags().StringVar(&checkFlags.ContentsFilename, "contents-filename", "", "index report name (default contents.json or contents.csv)")
	cmd.Flags().StringVar(&checkFlags.MissingFilename, "missing-filename", "", "missing list name (default missing.txt)")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	// Force report-only mode for compare command
	checkFlags.Fix = false
	return executeCheck(cmd, false)
}
