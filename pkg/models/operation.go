package models

import (
	"path/filepath"
	"strings"
	"time"
)

// HashType defines what part of a file is fingerprinted
type HashType string

const (
	// HashContents fingerprints the full byte content of a file
	HashContents HashType = "contents"
	// HashFilenames fingerprints only the file's base name
	HashFilenames HashType = "filenames"
)

// Valid reports whether t is a known hash type
func (t HashType) Valid() bool {
	return t == HashContents || t == HashFilenames
}

// WriteMode defines whether and how reports are persisted
type WriteMode string

const (
	// WriteNone disables report files; missing files are only printed
	WriteNone WriteMode = "none"
	// WriteJSON persists indexes as JSON objects
	WriteJSON WriteMode = "json"
	// WriteCSV persists indexes as CSV with a header line
	WriteCSV WriteMode = "csv"
)

// Valid reports whether m is a known write mode
func (m WriteMode) Valid() bool {
	switch m {
	case WriteNone, WriteJSON, WriteCSV:
		return true
	}
	return false
}

// Enabled reports whether report files are written
func (m WriteMode) Enabled() bool {
	return m == WriteJSON || m == WriteCSV
}

// ContentsFilename returns override when set, otherwise the index report
// name for m: contents.csv for csv, contents.json for anything else
func (m WriteMode) ContentsFilename(override string) string {
	if override != "" {
		return override
	}
	if m == WriteCSV {
		return "contents.csv"
	}
	return "contents.json"
}

// IsPlainFilename reports whether name is a single path element that stays
// inside the directory it is joined to
func IsPlainFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

// ParseWriteMode parses a write mode, treating "" as none
func ParseWriteMode(s string) (WriteMode, error) {
	if s == "" {
		return WriteNone, nil
	}
	m := WriteMode(strings.ToLower(s))
	if !m.Valid() {
		return "", &ValidationError{Field: "write_mode", Message: "must be 'none', 'json' or 'csv'"}
	}
	return m, nil
}

// ParseHashType parses a hash type, treating "" as contents
func ParseHashType(s string) (HashType, error) {
	if s == "" {
		return HashContents, nil
	}
	t := HashType(strings.ToLower(s))
	if !t.Valid() {
		return "", &ValidationError{Field: "hash_type", Message: "must be 'contents' or 'filenames'"}
	}
	return t, nil
}

// CheckOperation describes a single reconciliation request
type CheckOperation struct {
	ID                   string
	LeftFolder           string
	RightFolder          string
	WriteMode            WriteMode
	HashAlgorithm        string
	HashType             HashType
	ContentsFilename     string
	MissingFilesFilename string
	FixMissingFiles      bool
	MaxPasses            int
	ExcludePatterns      []string
	MaxWorkers           int
	BandwidthLimit       int64 // bytes per second, 0 = unlimited
	BufferSize           int
	Verbose              bool
	CreatedAt            time.Time
}

// Validate checks the operation fields that do not touch the filesystem
func (op *CheckOperation) Validate() error {
	if op.LeftFolder == "" {
		return &ValidationError{Field: "LeftFolder", Message: "left folder is required"}
	}
	if op.RightFolder == "" {
		return &ValidationError{Field: "RightFolder", Message: "right folder is required"}
	}
	if !op.WriteMode.Valid() {
		return &ValidationError{Field: "WriteMode", Message: "must be 'none', 'json' or 'csv'"}
	}
	if !op.HashType.Valid() {
		return &ValidationError{Field: "HashType", Message: "must be 'contents' or 'filenames'"}
	}
	if op.HashAlgorithm == "" {
		return &ValidationError{Field: "HashAlgorithm", Message: "hash algorithm is required"}
	}
	if op.MissingFilesFilename == "" {
		return &ValidationError{Field: "MissingFilesFilename", Message: "missing files filename is required"}
	}
	if !IsPlainFilename(op.MissingFilesFilename) {
		return &ValidationError{Field: "MissingFilesFilename", Message: "must be a plain file name without directories"}
	}
	if op.ContentsFilename != "" && !IsPlainFilename(op.ContentsFilename) {
		return &ValidationError{Field: "ContentsFilename", Message: "must be a plain file name without directories"}
	}
	if op.WriteMode.ContentsFilename(op.ContentsFilename) == op.MissingFilesFilename {
		return &ValidationError{Field: "ContentsFilename", Message: "must differ from the missing files filename"}
	}
	if op.MaxPasses < 1 {
		return &ValidationError{Field: "MaxPasses", Message: "max passes must be at least 1"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
