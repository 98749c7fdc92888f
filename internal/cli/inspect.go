package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/foldercheck/pkg/compare"
	"github.com/sdejongh/foldercheck/pkg/models"
	"github.com/sdejongh/foldercheck/pkg/report"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect <index> [other-index]",
		Short: "Print a written index report, or diff two of them",
		Long: `Print the digest and path of every entry of an index report written with
--write-mode json or csv. Given a second report, print instead the paths of
the first whose digest does not appear in the second, without rehashing.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := readIndexFile(args[0], format)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				for _, e := range left.Entries() {
					fmt.Fprintf(out, "%s  %s\n", e.Digest, e.Path)
				}
				return nil
			}

			right, err := readIndexFile(args[1], format)
			if err != nil {
				return err
			}
			missing := compare.Diff(left, right)
			for _, path := range missing {
				fmt.Fprintln(out, path)
			}
			if len(missing) > 0 {
				return &ExitError{Code: models.StatusMissing.ExitCode()}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "report format: json, csv (default: from extension)")

	return cmd
}

// readIndexFile loads an index report, guessing the format from the extension
func readIndexFile(path, format string) (*models.FingerprintIndex, error) {
	mode := models.WriteJSON
	switch {
	case format != "":
		m, err := models.ParseWriteMode(format)
		if err != nil {
			return nil, err
		}
		if !m.Enabled() {
			return nil, &models.ValidationError{Field: "format", Message: "must be 'json' or 'csv'"}
		}
		mode = m
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		mode = models.WriteCSV
	}

	idx, err := report.ReadIndex(filepath.Dir(path), mode, path)
	if err != nil {
		return nil, models.NewError(models.KindConfig, "read index", path, err)
	}
	return idx, nil
}
