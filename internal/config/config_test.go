package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phenogen.yaml")
	data := []byte(`
server:
  addr: ":9090"
  log_level: debug
compiler:
  max_depth: 8
  allow_unknown_languages: true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PHENOGEN_SERVER_LOG_FORMAT", "json")
	t.Setenv("PHENOGEN_COMPILER_MAX_DEPTH", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Server.Addr = ":9090"
	want.Server.LogLevel = "debug"
	want.Server.LogFormat = "json"
	want.Compiler.MaxDepth = 4
	want.Compiler.AllowUnknownLanguages = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefaultDBPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got, want := DefaultDBPath(), filepath.Join(home, ".phenogen", "phenogen.db"); got != want {
		t.Errorf("DefaultDBPath() = %q, want %q", got, want)
	}
}
