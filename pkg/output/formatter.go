package output

import (
	"io"
	"time"

	"github.com/sdejongh/foldercheck/pkg/models"
)

// UpdateType identifies a progress notification
type UpdateType string

const (
	UpdatePassStart     UpdateType = "pass_start"     // Pass
	UpdateScanStart     UpdateType = "scan_start"     // Side, FilePath = directory
	UpdateScanListed    UpdateType = "scan_listed"    // Side, Count = files to hash
	UpdateFileHashed    UpdateType = "file_hashed"    // Side, FilePath, Bytes
	UpdateFileSkipped   UpdateType = "file_skipped"   // Side, FilePath, Error
	UpdateScanComplete  UpdateType = "scan_complete"  // Side, Count = index entries, Elapsed
	UpdateDiffComplete  UpdateType = "diff_complete"  // Missing
	UpdateReportWritten UpdateType = "report_written" // FilePath
	UpdateReportError   UpdateType = "report_error"   // FilePath, Error
	UpdateRepairStart   UpdateType = "repair_start"   // Count = files to copy
	UpdateCopyComplete  UpdateType = "copy_complete"  // FilePath, Dest, Bytes
	UpdateCopySkipped   UpdateType = "copy_skipped"   // FilePath, Dest
	UpdateCopyError     UpdateType = "copy_error"     // FilePath, Dest, Error
	UpdateCleanup       UpdateType = "cleanup"        // FilePath = removed report
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type     UpdateType
	Action   int // action counter, only used to number narration lines
	Pass     int
	Side     string // "left" or "right"
	FilePath string
	Dest     string
	Bytes    int64
	Count    int
	Missing  models.MissingSet
	Elapsed  time.Duration
	Error    error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters.
// Progress may be called from several goroutines at once.
type Formatter interface {
	// Start initializes the formatter for a new run
	Start(writer io.Writer, op *models.CheckOperation) error

	// Progress reports progress during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.RunReport) error

	// Error reports an error that aborted the run
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter registered under name
func New(name string, verbose bool) (Formatter, error) {
	switch name {
	case "", "human":
		return NewHumanFormatter(verbose), nil
	case "json":
		return NewJSONFormatter(), nil
	case "progress":
		return NewProgressFormatter(), nil
	default:
		return nil, &models.ValidationError{Field: "output.format", Message: "must be 'human', 'json' or 'progress'"}
	}
}
