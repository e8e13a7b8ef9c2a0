package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/edgeparse/internal/testutil/testlog"
)

func TestLimitsTemplateMatchesDefaults(t *testing.T) {
	testlog.Start(t)
	tmpl, err := Template("limits")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	got, err := ParseLimits([]byte(tmpl))
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	if got != DefaultLimits() {
		t.Fatalf("template drifted from defaults: got=%+v want=%+v", got, DefaultLimits())
	}
}

func TestLoadLimitsOverridesOnlyGivenKeys(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "limits.toml")
	raw := "[json]\nmax_depth = 32\n\n[registry]\ncapacity = 8\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadLimits(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JSON.MaxDepth != 32 || cfg.Registry.Capacity != 8 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	def := DefaultLimits()
	if cfg.JSON.MaxNumberLen != def.JSON.MaxNumberLen || cfg.Multipart != def.Multipart || cfg.Headers != def.Headers {
		t.Fatalf("untouched keys lost their defaults: %+v", cfg)
	}
	if cfg.RegistryConfig().Capacity != 8 || cfg.JSONLimits().MaxDepth != 32 {
		t.Fatalf("conversion lost values: %+v", cfg)
	}
}

func TestLoadLimitsErrors(t *testing.T) {
	testlog.Start(t)
	if _, err := LoadLimits(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := ParseLimits([]byte("[json\nmax_depth = 1")); err == nil {
		t.Fatalf("expected parse error")
	}
	_, err := ParseLimits([]byte("[multipart]\nmax_parts = 0\n"))
	if err == nil || !strings.Contains(err.Error(), "multipart.max_parts") {
		t.Fatalf("expected validation error naming the key, got %v", err)
	}
	if _, err := ParseLimits([]byte("[registry]\ncapacity = 2000000\n")); err == nil {
		t.Fatalf("expected oversized registry to be rejected")
	}
}

func TestWriteTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "service.toml")
	if err := WriteTemplate(path, "service", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, "service", false); err == nil {
		t.Fatalf("expected existing file to be kept without overwrite")
	}
	if err := WriteTemplate(path, "limits", true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := LoadLimits(path); err != nil {
		t.Fatalf("written limits template does not load: %v", err)
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
