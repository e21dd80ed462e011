package ci

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")
	w := NewFileWriter(path)

	if err := w.Set("tag", "v2.10.2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := w.Set("sha256", "d9822e3f"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := w.Set("updated", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "tag=v2.10.2\nsha256=d9822e3f\nupdated=true\n"
	if string(data) != want {
		t.Errorf("output file = %q, want %q", data, want)
	}
}

func TestSetDisabledWithoutEnv(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	w := NewWriter()

	if w.Enabled() {
		t.Error("writer should be disabled without GITHUB_OUTPUT")
	}
	if err := w.Set("tag", "v2.10.2"); err != nil {
		t.Errorf("disabled Set should be a no-op, got %v", err)
	}
}

func TestSetPicksUpEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")
	t.Setenv("GITHUB_OUTPUT", path)

	w := NewWriter()
	if !w.Enabled() {
		t.Fatal("writer should be enabled")
	}
	if err := w.Set("updated", "false"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "updated=false\n" {
		t.Errorf("output file = %q", data)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	w := NewFileWriter(filepath.Join(t.TempDir(), "github_output"))

	if err := w.Set("bad key", "value"); err == nil {
		t.Error("expected error for key with space")
	}
	if err := w.Set("tag", "v1\nv2"); err == nil {
		t.Error("expected error for value with newline")
	}
}
