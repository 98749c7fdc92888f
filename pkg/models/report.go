package models

import (
	"sync/atomic"
	"time"
)

// RunReport represents the results of a reconciliation run
type RunReport struct {
	// Operation details
	OperationID   string
	LeftFolder    string
	RightFolder   string
	HashAlgorithm string
	HashType      HashType
	WriteMode     WriteMode
	FixMissing    bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Passes in execution order; the last one decides the status
	Passes []*Pass

	// Statistics accumulated over every pass
	Stats Statistics

	// Errors encountered (skipped files, failed writes, aborting failures)
	Errors []RunError

	// Overall status
	Status RunStatus
}

// LastPass returns the most recent pass or nil
func (r *RunReport) LastPass() *Pass {
	if len(r.Passes) == 0 {
		return nil
	}
	return r.Passes[len(r.Passes)-1]
}

// Missing returns the missing set of the last pass
func (r *RunReport) Missing() MissingSet {
	if p := r.LastPass(); p != nil {
		return p.Missing
	}
	return nil
}

// Pass is the transient record of one scan/diff (and optional repair) cycle
type Pass struct {
	Number  int
	Left    *FingerprintIndex
	Right   *FingerprintIndex
	Missing MissingSet

	// Repair outcome, empty when no repair happened in this pass
	Copied  []string
	Skipped []string
	Failed  []string

	// Actions is the action counter value when the pass finished.
	// It only numbers progress lines.
	Actions int
}

// Statistics holds run metrics
type Statistics struct {
	LeftFilesHashed  atomic.Int32
	RightFilesHashed atomic.Int32
	FilesSkipped     atomic.Int32 // unhashable files left out of an index
	FilesCopied      atomic.Int32
	CopiesSkipped    atomic.Int32 // destination already existed
	CopiesFailed     atomic.Int32
	ReportsWritten   atomic.Int32
	BytesHashed      atomic.Int64
	BytesCopied      atomic.Int64
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusClean indicates every left digest exists on the right
	StatusClean RunStatus = "clean"
	// StatusMissing indicates files are missing and no repair was requested
	StatusMissing RunStatus = "missing"
	// StatusRepaired indicates missing files were copied and a rerun came back clean
	StatusRepaired RunStatus = "repaired"
	// StatusStalled indicates repair stopped making progress or hit the pass limit
	StatusStalled RunStatus = "stalled"
	// StatusFailed indicates the run was aborted
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run was cancelled
	StatusCancelled RunStatus = "cancelled"
)

// RunError represents an error recorded during a run
type RunError struct {
	Kind      ErrorKind
	FilePath  string
	Error     string
	Timestamp time.Time
}

// ExitCode returns the appropriate exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusClean, StatusRepaired:
		return 0
	case StatusMissing:
		return 1
	case StatusStalled:
		return 2
	case StatusFailed:
		return 3
	case StatusCancelled:
		return 4
	default:
		return 3
	}
}
