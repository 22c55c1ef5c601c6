package common

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WORK_ROOT", "")
	t.Setenv("MIN_ARCHIVE_BYTES", "")
	cfg := LoadConfig()
	if cfg.Batch.MinArchiveBytes != 7*1024 {
		t.Errorf("MinArchiveBytes = %d", cfg.Batch.MinArchiveBytes)
	}
	if cfg.Batch.SpreadsheetName != "finished.xlsx" || cfg.Batch.ArchiveName != "finished.zip" {
		t.Errorf("names = %s / %s", cfg.Batch.SpreadsheetName, cfg.Batch.ArchiveName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("QUEUE_WORKERS", "5")
	t.Setenv("QUEUE_TIMEOUT", "90s")
	t.Setenv("RENAME_DEFAULT", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MIN_ARCHIVE_BYTES", "not-a-number")
	cfg := LoadConfig()
	if cfg.Queue.Workers != 5 || cfg.Queue.Timeout != 90*time.Second {
		t.Errorf("queue = %+v", cfg.Queue)
	}
	if cfg.Batch.RenameDefault {
		t.Error("RenameDefault should be false")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.Batch.MinArchiveBytes != 7*1024 {
		t.Errorf("bad int should fall back to default, got %d", cfg.Batch.MinArchiveBytes)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DSN = "" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"unknown backend", func(c *Config) { c.PDF.Backend = "ocr" }},
		{"same artifact names", func(c *Config) { c.Batch.ArchiveName = c.Batch.SpreadsheetName }},
		{"no workers", func(c *Config) { c.Queue.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
				t.Fatalf("err = %v, want CONFIG_ERROR", err)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Error("config errors should wrap ErrInvalidInput")
			}
		})
	}
}

func TestValidator(t *testing.T) {
	dir := t.TempDir()
	v := NewValidator().
		Field("source_dir", dir, Required, ExistingDir).
		Field("archive_name", "finished.zip", BaseName)
	if err := v.Error(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	v = NewValidator().
		Field("source_dir", dir+"/missing", Required, ExistingDir).
		Field("archive_name", "../x.zip", BaseName).
		Field("batch_id", "nope", UUID)
	if len(v.Errors()) != 3 {
		t.Fatalf("errors = %v", v.Errors())
	}
	if !errors.Is(v.Error(), ErrValidation) {
		t.Error("Error() should wrap ErrValidation")
	}
	if st, _ := status.FromError(ValidateAndReturnError(v)); st.Code() != codes.InvalidArgument {
		t.Errorf("code = %v", st.Code())
	}
}

func TestWithinRoots(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	inside := filepath.Join(root, "in.pdf")
	escaped := filepath.Join(outside, "out.pdf")
	for _, p := range []string{inside, escaped} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(escaped, filepath.Join(root, "link.pdf")); err != nil {
		t.Fatal(err)
	}
	// shares root's prefix without being under it
	if err := os.Mkdir(root+"-other", 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		roots []string
		path  string
		ok    bool
	}{
		{"file inside", []string{root}, inside, true},
		{"root itself", []string{root}, root, true},
		{"second root", []string{outside, root}, inside, true},
		{"empty value", []string{root}, "", true},
		{"outside", []string{root}, escaped, false},
		{"dot dot", []string{root}, filepath.Join(root, "..", filepath.Base(outside), "out.pdf"), false},
		{"symlink out", []string{root}, filepath.Join(root, "link.pdf"), false},
		{"missing", []string{root}, filepath.Join(root, "nope.pdf"), false},
		{"no roots", nil, inside, false},
		{"sibling prefix", []string{root}, root + "-other", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WithinRoots(tt.roots...)("path", tt.path)
			if (err == nil) != tt.ok {
				t.Errorf("WithinRoots(%q) = %v, want ok=%v", tt.path, err, tt.ok)
			}
		})
	}
}

func TestSourceRootsList(t *testing.T) {
	t.Setenv("SOURCE_ROOTS", " /srv/in, ,/mnt/reports ")
	got := LoadConfig().Batch.SourceRoots
	if len(got) != 2 || got[0] != "/srv/in" || got[1] != "/mnt/reports" {
		t.Errorf("SourceRoots = %q", got)
	}
	t.Setenv("SOURCE_ROOTS", "")
	if got := LoadConfig().Batch.SourceRoots; len(got) != 0 {
		t.Errorf("SourceRoots = %q, want none", got)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{WrapError(ErrNotFound, "batch"), codes.NotFound},
		{NewAppError("BAD", "x", ErrInvalidInput), codes.InvalidArgument},
		{errors.New("disk full"), codes.Internal},
	}
	for _, tt := range tests {
		st, _ := status.FromError(ToStatus(tt.err))
		if st.Code() != tt.want {
			t.Errorf("ToStatus(%v) = %v, want %v", tt.err, st.Code(), tt.want)
		}
	}
	if ToStatus(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestSchemaValidation(t *testing.T) {
	schema, err := CompileSchema("t.json", map[string]any{
		"type":                 "object",
		"required":             []any{"name"},
		"additionalProperties": false,
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateJSON(schema, []byte(`{"name":"a"}`)); err != nil {
		t.Errorf("valid doc rejected: %v", err)
	}
	for _, bad := range []string{`{}`, `{"name":""}`, `{"name":"a","x":1}`, `not json`} {
		if err := ValidateJSON(schema, []byte(bad)); err == nil {
			t.Errorf("%s accepted", bad)
		}
	}
}

func TestContextIDs(t *testing.T) {
	ctx := WithBatchID(WithRequestID(context.Background(), "req-1"), "b-1")
	if RequestIDFromContext(ctx) != "req-1" || BatchIDFromContext(ctx) != "b-1" {
		t.Error("ids not round-tripped")
	}
	if LoggerFromContext(ctx, nil) == nil {
		t.Error("nil logger")
	}
}
