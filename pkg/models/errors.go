package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures by how far they propagate
type ErrorKind string

const (
	// KindConfig is a missing or invalid folder argument; aborts before scanning
	KindConfig ErrorKind = "config"
	// KindScan is an unreadable directory; aborts the run
	KindScan ErrorKind = "scan"
	// KindHash is a single unreadable file; the file is skipped
	KindHash ErrorKind = "hash"
	// KindWrite is an unwritable report or copy destination; logged, run continues
	KindWrite ErrorKind = "write"
)

// Error is a classified failure tied to a path
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s error: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error
func NewError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
