package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	// Convert to platform-specific separators
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// SamePath reports whether a and b name the same directory.
// Both must exist; symlinks and relative spellings resolve to the same file.
func SamePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(NormalizePath(a))
	if err != nil {
		return false, &PathError{Path: a, Message: err.Error()}
	}
	absB, err := filepath.Abs(NormalizePath(b))
	if err != nil {
		return false, &PathError{Path: b, Message: err.Error()}
	}
	if absA == absB {
		return true, nil
	}

	infoA, err := os.Stat(absA)
	if err != nil {
		return false, &PathError{Path: a, Message: err.Error()}
	}
	infoB, err := os.Stat(absB)
	if err != nil {
		return false, &PathError{Path: b, Message: err.Error()}
	}
	return os.SameFile(infoA, infoB), nil
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" && !IsUNCPath(path) {
		rest := strings.TrimPrefix(path, filepath.VolumeName(path))
		invalidChars := []string{"<", ">", ":", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(rest, char) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
