package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sdejongh/foldercheck/pkg/models"
)

// HumanFormatter narrates a run line by line.
// Without verbose it prints only results, errors and the summary.
type HumanFormatter struct {
	mu      sync.Mutex
	writer  io.Writer
	verbose bool
	op      *models.CheckOperation
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(verbose bool) *HumanFormatter {
	return &HumanFormatter{verbose: verbose}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, op *models.CheckOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writer = writer
	f.op = op

	if writer != nil && f.verbose {
		fmt.Fprintf(writer, "[Left Folder Path] %s\n", op.LeftFolder)
		fmt.Fprintf(writer, "[Right Folder Path] %s\n", op.RightFolder)
	}

	return nil
}

// Progress reports progress during the run
func (f *HumanFormatter) Progress(u ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}
	w := f.writer

	switch u.Type {
	case UpdateFileSkipped, UpdateReportError, UpdateCopyError:
		// Errors are printed regardless of verbosity
		fmt.Fprintf(w, "[ERROR] %s: %v\n", u.FilePath, u.Error)

	case UpdateDiffComplete:
		if f.verbose {
			fmt.Fprintf(w, "\n[%d] Checking hashed files.\n", u.Action)
		}
		if len(u.Missing) == 0 {
			fmt.Fprintf(w, "RESULTS: All files present in right folder!\n")
		} else {
			fmt.Fprintf(w, "RESULTS: The following files were not present in the right folder:\n")
			for _, p := range u.Missing {
				fmt.Fprintf(w, "  %s\n", p)
			}
		}
	}

	if !f.verbose {
		return nil
	}

	switch u.Type {
	case UpdatePassStart:
		if u.Pass > 1 {
			fmt.Fprintf(w, "\n[%d] Rerunning check after repair (pass %d).\n", u.Action, u.Pass)
		}
	case UpdateScanStart:
		fmt.Fprintf(w, "\n[%d] Finding files in %s.\n", u.Action, u.FilePath)
	case UpdateScanListed:
		fmt.Fprintf(w, "[%d] Hashing %d %s files.\n", u.Action, u.Count, u.Side)
	case UpdateScanComplete:
		fmt.Fprintf(w, "Hashing %s files took %.3f seconds (%d entries).\n", u.Side, u.Elapsed.Seconds(), u.Count)
	case UpdateReportWritten:
		fmt.Fprintf(w, "[%d] Wrote %s.\n", u.Action, u.FilePath)
	case UpdateRepairStart:
		fmt.Fprintf(w, "\n[%d] Copying %d missing files.\n", u.Action, u.Count)
	case UpdateCopyComplete:
		fmt.Fprintf(w, "[ACTION] %s -> %s successfully.\n", u.FilePath, u.Dest)
	case UpdateCopySkipped:
		fmt.Fprintf(w, "[SKIP] %s already exists.\n", u.Dest)
	case UpdateCleanup:
		fmt.Fprintf(w, "[%d] Removed %s.\n", u.Action, u.FilePath)
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary prints the closing block shared by the text formatters
func writeSummary(w io.Writer, report *models.RunReport) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Check completed in %s (%d passes)\n", report.Duration.Round(time.Millisecond), len(report.Passes))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Hashed:\n")
	fmt.Fprintf(w, "    Left:           %d files\n", report.Stats.LeftFilesHashed.Load())
	fmt.Fprintf(w, "    Right:          %d files\n", report.Stats.RightFilesHashed.Load())
	fmt.Fprintf(w, "    Unreadable:     %d files\n", report.Stats.FilesSkipped.Load())
	fmt.Fprintf(w, "    Data:           %s\n", formatBytes(report.Stats.BytesHashed.Load()))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Missing on right: %d files\n", len(report.Missing()))

	if report.FixMissing {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "  Repair:\n")
		fmt.Fprintf(w, "    Files copied:   %d\n", report.Stats.FilesCopied.Load())
		fmt.Fprintf(w, "    Already there:  %d\n", report.Stats.CopiesSkipped.Load())
		fmt.Fprintf(w, "    Failed:         %d\n", report.Stats.CopiesFailed.Load())
		fmt.Fprintf(w, "    Data:           %s\n", formatBytes(report.Stats.BytesCopied.Load()))
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  [%s] %s: %s\n", err.Kind, err.FilePath, err.Error)
		}
	}
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
