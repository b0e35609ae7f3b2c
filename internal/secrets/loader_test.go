package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}
	t.Setenv("HH_INTERVIEWER_TEST_SECRET", " from-env ")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{"file wins", Source{File: file, Env: "HH_INTERVIEWER_TEST_SECRET", Value: "inline"}, "from-file"},
		{"env before inline", Source{Env: "HH_INTERVIEWER_TEST_SECRET", Value: "inline"}, "from-env"},
		{"inline", Source{Value: " inline "}, "inline"},
		{"unset env falls back to inline", Source{Env: "HH_INTERVIEWER_UNSET_SECRET", Value: "inline"}, "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	if _, err := Load(Source{Name: "api key", File: empty}); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
	if _, err := Load(Source{Name: "api key", File: filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	_, err := Load(Source{Name: "api key", Env: "HH_INTERVIEWER_UNSET_SECRET"})
	if err == nil || !strings.Contains(err.Error(), "HH_INTERVIEWER_UNSET_SECRET") {
		t.Fatalf("expected hint naming the variable, got %v", err)
	}
}

func TestConfigured(t *testing.T) {
	if (Source{}).Configured() {
		t.Fatalf("expected empty source to be unconfigured")
	}
	if !(Source{Value: "x"}).Configured() {
		t.Fatalf("expected inline source to be configured")
	}
	t.Setenv("HH_INTERVIEWER_TEST_SECRET", "x")
	if !(Source{Env: "HH_INTERVIEWER_TEST_SECRET"}).Configured() {
		t.Fatalf("expected env source to be configured")
	}
}
