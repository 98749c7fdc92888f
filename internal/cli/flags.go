package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/foldercheck/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"narrate every step",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// CheckFlags holds check and compare command flags
type CheckFlags struct {
	Left             string
	Right            string
	WriteMode        string
	Algorithm        string
	HashType         string
	ContentsFilename string
	MissingFilename  string
	Fix              bool
	MaxPasses        int
	Parallel         int
	Bandwidth        string
	Exclude          []string
	Output           string
	Progress         bool
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var checkFlags CheckFlags

// addFolderFlags registers the flags shared by check and compare
func addFolderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&checkFlags.Left, "left", "l", "", "folder whose files must all be present (required)")
	cmd.Flags().StringVarP(&checkFlags.Right, "right", "r", "", "folder checked for the left files (required)")
	cmd.MarkFlagRequired("left")
	cmd.MarkFlagRequired("right")

	cmd.Flags().StringVarP(&checkFlags.Algorithm, "algorithm", "a", "", "hash algorithm (see 'foldercheck algorithms', default md5)")
	cmd.Flags().StringVarP(&checkFlags.HashType, "hash-type", "t", "", "what to fingerprint: contents, filenames")
	cmd.Flags().StringSliceVar(&checkFlags.Exclude, "exclude", []string{}, "glob patterns of file names to ignore")
	cmd.Flags().IntVarP(&checkFlags.Parallel, "parallel", "p", 0, "number of files hashed or copied at once (default: 4)")
	cmd.Flags().StringVarP(&checkFlags.Bandwidth, "bandwidth", "b", "", "read bandwidth limit (e.g., \"10M\", \"1G\")")
	cmd.Flags().StringVarP(&checkFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().BoolVar(&checkFlags.Progress, "progress", false, "show progress bars when writing to a terminal")

	// Logging flags
	cmd.Flags().StringVar(&checkFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&checkFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&checkFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}
