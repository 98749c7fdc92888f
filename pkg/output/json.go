package output

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sdejongh/foldercheck/pkg/models"
)

// JSONFormatter prints a single JSON document when the run completes,
// for automation and scripting
type JSONFormatter struct {
	mu     sync.Mutex
	writer io.Writer
	err    error
}

// JSONReportData represents the final report data
type JSONReportData struct {
	OperationID   string          `json:"operation_id"`
	LeftFolder    string          `json:"left_folder"`
	RightFolder   string          `json:"right_folder"`
	HashAlgorithm string          `json:"hash_algorithm"`
	HashType      string          `json:"hash_type"`
	WriteMode     string          `json:"write_mode"`
	FixMissing    bool            `json:"fix_missing_files"`
	Status        string          `json:"status"`
	ExitCode      int             `json:"exit_code"`
	Duration      string          `json:"duration"`
	DurationMs    int64           `json:"duration_ms"`
	Missing       []string        `json:"missing"`
	Passes        []JSONPassData  `json:"passes"`
	Stats         JSONStatsData   `json:"stats"`
	Errors        []JSONErrorData `json:"errors,omitempty"`
	Fatal         string          `json:"fatal,omitempty"`
}

// JSONPassData summarizes one pass
type JSONPassData struct {
	Number       int      `json:"number"`
	LeftEntries  int      `json:"left_entries"`
	RightEntries int      `json:"right_entries"`
	Missing      []string `json:"missing"`
	Copied       []string `json:"copied,omitempty"`
	Skipped      []string `json:"skipped,omitempty"`
	Failed       []string `json:"failed,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	LeftFilesHashed  int32 `json:"left_files_hashed"`
	RightFilesHashed int32 `json:"right_files_hashed"`
	FilesSkipped     int32 `json:"files_skipped"`
	BytesHashed      int64 `json:"bytes_hashed"`
	FilesCopied      int32 `json:"files_copied"`
	CopiesSkipped    int32 `json:"copies_skipped"`
	CopiesFailed     int32 `json:"copies_failed"`
	BytesCopied      int64 `json:"bytes_copied"`
	ReportsWritten   int32 `json:"reports_written"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, op *models.CheckOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress is ignored to keep the output a single parseable document
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete encodes the report
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}

	data := JSONReportData{
		OperationID:   report.OperationID,
		LeftFolder:    report.LeftFolder,
		RightFolder:   report.RightFolder,
		HashAlgorithm: report.HashAlgorithm,
		HashType:      string(report.HashType),
		WriteMode:     string(report.WriteMode),
		FixMissing:    report.FixMissing,
		Status:        string(report.Status),
		ExitCode:      report.Status.ExitCode(),
		Duration:      report.Duration.Round(time.Millisecond).String(),
		DurationMs:    report.Duration.Milliseconds(),
		Missing:       nonNil(report.Missing()),
		Passes:        make([]JSONPassData, 0, len(report.Passes)),
		Stats: JSONStatsData{
			LeftFilesHashed:  report.Stats.LeftFilesHashed.Load(),
			RightFilesHashed: report.Stats.RightFilesHashed.Load(),
			FilesSkipped:     report.Stats.FilesSkipped.Load(),
			BytesHashed:      report.Stats.BytesHashed.Load(),
			FilesCopied:      report.Stats.FilesCopied.Load(),
			CopiesSkipped:    report.Stats.CopiesSkipped.Load(),
			CopiesFailed:     report.Stats.CopiesFailed.Load(),
			BytesCopied:      report.Stats.BytesCopied.Load(),
			ReportsWritten:   report.Stats.ReportsWritten.Load(),
		},
	}

	for _, p := range report.Passes {
		data.Passes = append(data.Passes, JSONPassData{
			Number:       p.Number,
			LeftEntries:  p.Left.Len(),
			RightEntries: p.Right.Len(),
			Missing:      nonNil(p.Missing),
			Copied:       p.Copied,
			Skipped:      p.Skipped,
			Failed:       p.Failed,
		})
	}

	for _, e := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{
			Kind:  string(e.Kind),
			Path:  e.FilePath,
			Error: e.Error,
		})
	}

	if f.err != nil {
		data.Fatal = f.err.Error()
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error records the aborting error; it is emitted with the report
func (f *JSONFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
