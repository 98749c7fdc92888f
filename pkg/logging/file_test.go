package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// openLog creates a file logger under a temp dir and returns it with its path
func openLog(t *testing.T, config FileLoggerConfig) (Logger, string) {
	t.Helper()
	if config.Path == "" {
		config.Path = filepath.Join(t.TempDir(), "foldercheck.log")
	}
	logger, err := NewFileLogger(config)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	return logger, config.Path
}

// readEvents decodes one JSON event per line
func readEvents(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var events []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("%s: line %d is not JSON: %v", path, len(events)+1, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return events
}

func messages(events []map[string]interface{}) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, fmt.Sprint(ev["message"]))
	}
	return out
}

func TestNewFileLogger(t *testing.T) {
	t.Run("CreatesNestedDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "run.log")
		logger, _ := openLog(t, FileLoggerConfig{Path: path, Format: FormatJSON, Level: InfoLevel})
		defer logger.Close()

		if _, err := os.Stat(path); err != nil {
			t.Errorf("log file not created: %v", err)
		}
	})

	t.Run("AppendsToExistingFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		for _, msg := range []string{"first run", "second run"} {
			logger, _ := openLog(t, FileLoggerConfig{Path: path, Format: FormatJSON, Level: InfoLevel})
			logger.Info(context.Background(), msg, nil)
			logger.Close()
		}

		if diff := cmp.Diff([]string{"first run", "second run"}, messages(readEvents(t, path))); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := NewFileLogger(FileLoggerConfig{Path: filepath.Join(blocker, "run.log")}); err == nil {
			t.Error("NewFileLogger() should fail when the parent is a file")
		}
	})
}

func TestFileLogger_JSONEvents(t *testing.T) {
	logger, path := openLog(t, FileLoggerConfig{Format: FormatJSON, Level: DebugLevel})
	ctx := context.Background()

	side := logger.WithFields(Fields{"operation_id": "op-1", "side": "left"})
	side.Debug(ctx, "Index built", Fields{"entries": 3})
	side.Warn(ctx, "Skipping unhashable file", Fields{"file": "locked.txt"})
	side.Error(ctx, "Check aborted", errors.New("left folder unreadable"), Fields{"status": "failed"})
	logger.Close()

	events := readEvents(t, path)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	var levels []string
	for _, ev := range events {
		levels = append(levels, fmt.Sprint(ev["level"]))
		if ev["operation_id"] != "op-1" || ev["side"] != "left" {
			t.Errorf("event %v lost the child logger fields", ev)
		}
		ts, _ := ev["timestamp"].(string)
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			t.Errorf("timestamp %q is not RFC3339: %v", ts, err)
		}
	}
	if diff := cmp.Diff([]string{"debug", "warn", "error"}, levels); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}

	if events[0]["entries"] != float64(3) {
		t.Errorf("entries = %v, want 3", events[0]["entries"])
	}
	if events[1]["file"] != "locked.txt" {
		t.Errorf("file = %v, want locked.txt", events[1]["file"])
	}
	if events[2]["error"] != "left folder unreadable" || events[2]["status"] != "failed" {
		t.Errorf("error event = %v", events[2])
	}
}

func TestFileLogger_LevelFilter(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{DebugLevel, []string{"d", "i", "w", "e"}},
		{InfoLevel, []string{"i", "w", "e"}},
		{WarnLevel, []string{"w", "e"}},
		{ErrorLevel, []string{"e"}},
	}

	for _, tt := range tests {
		t.Run(LevelString(tt.level), func(t *testing.T) {
			logger, path := openLog(t, FileLoggerConfig{Format: FormatJSON, Level: tt.level})
			ctx := context.Background()
			logger.Debug(ctx, "d", nil)
			logger.Info(ctx, "i", nil)
			logger.Warn(ctx, "w", nil)
			logger.Error(ctx, "e", nil, nil)
			logger.Close()

			if diff := cmp.Diff(tt.want, messages(readEvents(t, path))); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileLogger_TextFormat(t *testing.T) {
	logger, path := openLog(t, FileLoggerConfig{Format: FormatText, Level: InfoLevel})
	logger.Info(context.Background(), "Copying missing files", Fields{"count": 2, "right": "/right"})
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	for _, want := range []string{"[INFO]", "Copying missing files", "count=2", "right=/right"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if json.Valid(data) {
		t.Error("text format should not produce JSON")
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	t.Run("KeepsEveryEventAcrossBackups", func(t *testing.T) {
		logger, path := openLog(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel, MaxSize: 512, MaxBackups: 10})
		for i := 0; i < 30; i++ {
			logger.Info(context.Background(), fmt.Sprintf("event %02d", i), Fields{"pass": i})
		}
		logger.Close()

		var got []string
		for i := 10; i >= 1; i-- {
			backup := fmt.Sprintf("%s.%d", path, i)
			if _, err := os.Stat(backup); err != nil {
				continue
			}
			got = append(got, messages(readEvents(t, backup))...)
		}
		got = append(got, messages(readEvents(t, path))...)

		if len(got) != 30 {
			t.Fatalf("found %d events across files, want 30", len(got))
		}
		if !sort.StringsAreSorted(got) {
			t.Errorf("events out of order across backups: %v", got)
		}
		if _, err := os.Stat(path + ".1"); err != nil {
			t.Error("backup .1 should exist after rotation")
		}
	})

	t.Run("DropsOldestBeyondMaxBackups", func(t *testing.T) {
		logger, path := openLog(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel, MaxSize: 100, MaxBackups: 2})
		for i := 0; i < 30; i++ {
			logger.Info(context.Background(), "a message long enough to rotate after every write", nil)
		}
		logger.Close()

		for _, name := range []string{path, path + ".1", path + ".2"} {
			if _, err := os.Stat(name); err != nil {
				t.Errorf("%s should exist: %v", filepath.Base(name), err)
			}
		}
		if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
			t.Error("backup .3 should have been removed")
		}
	})
}

func TestFileLogger_ConcurrentWrites(t *testing.T) {
	logger, path := openLog(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			child := logger.WithFields(Fields{"worker": worker})
			for j := 0; j < 50; j++ {
				child.Info(ctx, "File hashed", Fields{"n": j})
			}
		}(w)
	}
	wg.Wait()
	logger.Close()

	// Every line must decode: events never interleave
	events := readEvents(t, path)
	if len(events) != 400 {
		t.Errorf("got %d events, want 400", len(events))
	}
}

func TestFileLogger_WriteAfterClose(t *testing.T) {
	logger, path := openLog(t, FileLoggerConfig{Format: FormatJSON, Level: InfoLevel})
	logger.Info(context.Background(), "before", nil)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	logger.Info(context.Background(), "after", nil)
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if diff := cmp.Diff([]string{"before"}, messages(readEvents(t, path))); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestNullLogger(t *testing.T) {
	var logger Logger = NewNullLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", errors.New("ignored"), nil)

	if logger.WithFields(Fields{"key": "value"}) == nil {
		t.Error("WithFields should return a logger")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		input string
		level Level
		name  string
	}{
		{"debug", DebugLevel, "DEBUG"},
		{"INFO", InfoLevel, "INFO"},
		{"warn", WarnLevel, "WARN"},
		{"WARNING", WarnLevel, "WARN"},
		{"error", ErrorLevel, "ERROR"},
		{"trace", InfoLevel, "INFO"},
		{"", InfoLevel, "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := ParseLevel(tt.input)
			if level != tt.level {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.level)
			}
			if got := LevelString(level); got != tt.name {
				t.Errorf("LevelString(%v) = %q, want %q", level, got, tt.name)
			}
		})
	}

	if got := LevelString(Level(99)); got != "UNKNOWN" {
		t.Errorf("LevelString(99) = %q, want UNKNOWN", got)
	}
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, WarnLevel)
	ctx := context.Background()

	logger.Info(ctx, "hidden", nil)
	logger.Warn(ctx, "Skipping unhashable file", Fields{"file": "a.txt"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info message should be filtered at WARN level")
	}
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "file=a.txt") {
		t.Errorf("unexpected console output: %q", out)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestWriterLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, FormatJSON, DebugLevel).WithFields(Fields{"dir": "/left"})
	logger.Debug(context.Background(), "Index built", Fields{"entries": 3})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["dir"] != "/left" || entry["entries"] != float64(3) {
		t.Errorf("entry = %v, want dir and entries fields", entry)
	}
}
