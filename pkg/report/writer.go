// Package report persists fingerprint indexes and missing-file lists.
package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sdejongh/foldercheck/pkg/models"
)

// MissingFilename is the default name of the missing-file list
const MissingFilename = "missing.txt"

// Writer persists reports
type Writer interface {
	// WriteIndex replaces the file at path with idx encoded as mode
	WriteIndex(idx *models.FingerprintIndex, mode models.WriteMode, path string) error

	// WriteList appends one entry per line to the file at path
	WriteList(list []string, path string) error
}

// FileWriter writes reports to the local filesystem
type FileWriter struct{}

// NewFileWriter creates a file-based report writer
func NewFileWriter() *FileWriter {
	return &FileWriter{}
}

// ContentsFilename returns override when set, otherwise contents.json or
// contents.csv depending on mode
func ContentsFilename(mode models.WriteMode, override string) string {
	return mode.ContentsFilename(override)
}

// WriteIndex implements Writer
func (w *FileWriter) WriteIndex(idx *models.FingerprintIndex, mode models.WriteMode, path string) error {
	var (
		data []byte
		err  error
	)
	switch mode {
	case models.WriteCSV:
		data, err = encodeCSV(idx)
	case models.WriteJSON:
		data, err = encodeJSON(idx)
	default:
		err = fmt.Errorf("unsupported write mode %q", mode)
	}
	if err != nil {
		return models.NewError(models.KindWrite, "encode index", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return models.NewError(models.KindWrite, "write index", path, err)
	}
	return nil
}

// WriteList implements Writer
func (w *FileWriter) WriteList(list []string, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return models.NewError(models.KindWrite, "open list", path, err)
	}

	bw := bufio.NewWriter(f)
	for _, entry := range list {
		bw.WriteString(entry)
		bw.WriteByte('\n')
	}
	err = bw.Flush()
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return models.NewError(models.KindWrite, "write list", path, err)
	}
	return nil
}

// encodeCSV emits the header row then one digest,path row per entry
func encodeCSV(idx *models.FingerprintIndex) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(models.IndexHeaders); err != nil {
		return nil, err
	}
	var werr error
	idx.Range(func(digest models.Digest, path string) bool {
		werr = cw.Write([]string{string(digest), path})
		return werr == nil
	})
	if werr != nil {
		return nil, werr
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

// encodeJSON emits a single object: "headers" first, then every digest in
// index order. encoding/json sorts map keys, so the object is built by hand.
func encodeJSON(idx *models.FingerprintIndex) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"headers":`)
	headers, err := json.Marshal(models.IndexHeaders)
	if err != nil {
		return nil, err
	}
	buf.Write(headers)

	var merr error
	idx.Range(func(digest models.Digest, path string) bool {
		var k, v []byte
		if k, merr = json.Marshal(string(digest)); merr != nil {
			return false
		}
		if v, merr = json.Marshal(path); merr != nil {
			return false
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return true
	})
	if merr != nil {
		return nil, merr
	}
	buf.WriteString("}")

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// ReadIndex loads an index previously written by WriteIndex
func ReadIndex(dir string, mode models.WriteMode, path string) (*models.FingerprintIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	idx := models.NewFingerprintIndex(dir)
	switch mode {
	case models.WriteCSV:
		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			return nil, err
		}
		for i, rec := range records {
			if i == 0 {
				continue
			}
			if len(rec) != 2 {
				return nil, fmt.Errorf("line %d: want 2 fields, got %d", i+1, len(rec))
			}
			idx.Set(models.Digest(rec[0]), rec[1])
		}
	case models.WriteJSON:
		if err := decodeJSON(data, idx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported write mode %q", mode)
	}
	return idx, nil
}

// decodeJSON walks the object with a token stream to keep key order
func decodeJSON(data []byte, idx *models.FingerprintIndex) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return errors.New("index is not a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		if key == "headers" {
			var headers []string
			if err := dec.Decode(&headers); err != nil {
				return err
			}
			continue
		}
		var path string
		if err := dec.Decode(&path); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		idx.Set(models.Digest(key), path)
	}
	return nil
}
