package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sdejongh/foldercheck/pkg/models"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.ContentsFilename() != "contents.json" {
		t.Errorf("ContentsFilename() = %q, want contents.json", cfg.ContentsFilename())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"UnknownAlgorithm", func(c *Config) { c.Compare.HashAlgorithm = "crc7" }, "compare.hash_algorithm"},
		{"BadHashType", func(c *Config) { c.Compare.HashType = "bytes" }, "compare.hash_type"},
		{"BadWriteMode", func(c *Config) { c.Reports.WriteMode = "xml" }, "reports.write_mode"},
		{"EmptyMissingName", func(c *Config) { c.Reports.MissingFilesFilename = "" }, "reports.missing_files_filename"},
		{"MissingNameWithDir", func(c *Config) { c.Reports.MissingFilesFilename = "../missing.txt" }, "reports.missing_files_filename"},
		{"MissingNameBackslash", func(c *Config) { c.Reports.MissingFilesFilename = `logs\missing.txt` }, "reports.missing_files_filename"},
		{"ContentsNameEscapes", func(c *Config) { c.Reports.ContentsFilename = "../escaped.csv" }, "reports.contents_filename"},
		{"ContentsNameDot", func(c *Config) { c.Reports.ContentsFilename = "." }, "reports.contents_filename"},
		{"ContentsSameAsMissing", func(c *Config) { c.Reports.ContentsFilename = "missing.txt" }, "reports.contents_filename"},
		{"DerivedContentsSameAsMissing", func(c *Config) {
			c.Reports.WriteMode = models.WriteCSV
			c.Reports.MissingFilesFilename = "contents.csv"
		}, "reports.contents_filename"},
		{"ZeroPasses", func(c *Config) { c.Repair.MaxPasses = 0 }, "repair.max_passes"},
		{"ZeroWorkers", func(c *Config) { c.Performance.MaxWorkers = 0 }, "performance.max_workers"},
		{"TinyBuffer", func(c *Config) { c.Performance.BufferSize = 10 }, "performance.buffer_size"},
		{"NegativeBandwidth", func(c *Config) { c.Performance.BandwidthLimit = -1 }, "performance.bandwidth_limit"},
		{"BadOutput", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			verr, ok := err.(*models.ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Compare.HashAlgorithm = "sha256"
	cfg.Reports.WriteMode = models.WriteCSV
	cfg.Repair.FixMissingFiles = true
	cfg.Exclude = []string{"*.tmp"}

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch (-saved +loaded):\n%s", diff)
	}
	if loaded.ContentsFilename() != "contents.csv" {
		t.Errorf("ContentsFilename() = %q, want contents.csv", loaded.ContentsFilename())
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "reports:\n  write_mode: json\nrepair:\n  max_passes: 2\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Reports.WriteMode != models.WriteJSON || cfg.Repair.MaxPasses != 2 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Compare.HashAlgorithm != "md5" || cfg.Reports.MissingFilesFilename != "missing.txt" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("compare:\n  hash_type: bytes\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() should reject an invalid hash_type")
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "reports:\n  missing_file_name: gone.txt\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := LoadFromFile(path)
	if err == nil {
		t.Fatal("LoadFromFile() should reject an unknown key")
	}
	if !strings.Contains(err.Error(), "missing_file_name") {
		t.Errorf("error %q should name the unknown key", err)
	}
}

func TestDecodeEmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeIndent(t *testing.T) {
	var buf strings.Builder
	if err := Encode(&buf, Default()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\nreports:\n  write_mode: ") {
		t.Errorf("expected two-space indented reports block, got:\n%s", buf.String())
	}
}

func TestLoadDefaultHonoursXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if want := filepath.Join(dir, "foldercheck", "config.yaml"); path != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", path, want)
	}

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("missing file should yield defaults (-want +got):\n%s", diff)
	}
}
