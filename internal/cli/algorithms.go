package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/foldercheck/pkg/hashing"
)

// NewAlgorithmsCommand lists the supported hash algorithms
func NewAlgorithmsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List supported hash algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range hashing.Algorithms() {
				alg, err := hashing.Lookup(name)
				if err != nil {
					return err
				}
				marker := ""
				if name == hashing.DefaultAlgorithm {
					marker = " (default)"
				}
				fmt.Fprintf(out, "%-12s %4d bits%s\n", name, alg.Size*8, marker)
			}
			return nil
		},
	}
}
