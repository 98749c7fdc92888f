package output

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/foldercheck/pkg/models"
)

const (
	hashTemplate pb.ProgressBarTemplate = `{{string . "prefix"}} {{counters . }} {{bar . "[" "=" ">" "-" "]"}} {{percent . }} {{speed . "%s/s" "" }}`
	copyTemplate pb.ProgressBarTemplate = `{{string . "prefix"}} {{counters . }} {{bar . "[" "=" ">" "-" "]"}} {{percent . }}`
)

// getUpdateInterval returns the progress refresh interval based on OS
// Windows terminals have higher latency with ANSI sequences, so we use a longer interval
func getUpdateInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// ProgressFormatter shows one bar for hashing and one for copying per pass.
// Errors are collected and printed with the summary so they do not tear
// the bars.
type ProgressFormatter struct {
	mu        sync.Mutex
	writer    io.Writer
	termWidth int

	hashBar *pb.ProgressBar
	copyBar *pb.ProgressBar
	pass    int
	errors  []string
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, op *models.CheckOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer

	// Detect terminal width to prevent line wrapping issues
	if file, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.termWidth = width
		}
	}
	// Default to 120 if we couldn't detect (pipe, redirect, etc.)
	if f.termWidth == 0 {
		f.termWidth = 120
	}

	return nil
}

func (f *ProgressFormatter) newBar(tmpl pb.ProgressBarTemplate, prefix string, total int64) *pb.ProgressBar {
	bar := tmpl.New(0)
	bar.SetWriter(f.writer)
	bar.SetMaxWidth(f.termWidth)
	bar.SetRefreshRate(getUpdateInterval())
	bar.SetTotal(total)
	bar.Set("prefix", prefix)
	return bar.Start()
}

// Progress reports progress during the run
func (f *ProgressFormatter) Progress(u ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}

	switch u.Type {
	case UpdatePassStart:
		f.finishBars()
		f.pass = u.Pass

	case UpdateScanListed:
		if f.hashBar == nil {
			f.hashBar = f.newBar(hashTemplate, fmt.Sprintf("Pass %d hashing", f.pass), 0)
		}
		f.hashBar.SetTotal(f.hashBar.Total() + int64(u.Count))

	case UpdateFileHashed:
		if f.hashBar != nil {
			f.hashBar.Increment()
		}

	case UpdateFileSkipped:
		if f.hashBar != nil {
			f.hashBar.Increment()
		}
		f.errors = append(f.errors, fmt.Sprintf("%s: %v", u.FilePath, u.Error))

	case UpdateDiffComplete:
		f.finishBars()
		fmt.Fprintf(f.writer, "Pass %d: %d files missing on right\n", f.pass, len(u.Missing))

	case UpdateRepairStart:
		f.copyBar = f.newBar(copyTemplate, fmt.Sprintf("Pass %d copying", f.pass), int64(u.Count))

	case UpdateCopyComplete, UpdateCopySkipped:
		if f.copyBar != nil {
			f.copyBar.Increment()
		}

	case UpdateCopyError:
		if f.copyBar != nil {
			f.copyBar.Increment()
		}
		f.errors = append(f.errors, fmt.Sprintf("%s -> %s: %v", u.FilePath, u.Dest, u.Error))

	case UpdateReportError:
		f.errors = append(f.errors, fmt.Sprintf("%s: %v", u.FilePath, u.Error))
	}

	return nil
}

// finishBars must be called with f.mu held
func (f *ProgressFormatter) finishBars() {
	if f.hashBar != nil {
		f.hashBar.Finish()
		f.hashBar = nil
	}
	if f.copyBar != nil {
		f.copyBar.Finish()
		f.copyBar = nil
	}
}

// Complete finalizes output and displays summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}
	f.finishBars()

	if missing := report.Missing(); len(missing) > 0 {
		fmt.Fprintf(f.writer, "\nMissing on right:\n")
		for _, p := range missing {
			fmt.Fprintf(f.writer, "  %s\n", p)
		}
	}

	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finishBars()
	if f.writer != nil {
		fmt.Fprintf(f.writer, "\n❌ Error: %v\n", err)
	}
	return nil
}

// Errors returns the per-file errors collected so far
func (f *ProgressFormatter) Errors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errors...)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
