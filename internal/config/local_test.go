package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `
target = "rcp"
repositories = ["repo", "/abs/repo", "https://repo.example.org/r"]

[variables]
workspace = "/src/rcp"

[environment]
os = "win32"
`
	if err := os.WriteFile(filepath.Join(dir, LocalConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	local, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal() error = %v", err)
	}

	want := &LocalConfig{
		Target:       "rcp",
		Repositories: []string{filepath.Join(dir, "repo"), "/abs/repo", "https://repo.example.org/r"},
		Variables:    map[string]string{"workspace": "/src/rcp"},
		Environment:  EnvironmentConfig{OS: "win32"},
	}
	if diff := cmp.Diff(want, local); diff != "" {
		t.Errorf("LoadLocal() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLocal_Missing(t *testing.T) {
	t.Parallel()

	local, err := LoadLocal(t.TempDir())
	if err != nil {
		t.Fatalf("LoadLocal() error = %v", err)
	}
	if local != nil {
		t.Errorf("LoadLocal() = %+v, want nil", local)
	}
}

func TestLoadLocal_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", "target = ", "failed to parse local config"},
		{"bad os", "[environment]\nos = \"plan9\"", "invalid environment.os"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, LocalConfigFileName), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadLocal(dir)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadLocal() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindLocal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindLocal(nested); got != "" && strings.HasPrefix(got, root) {
		t.Errorf("FindLocal() = %q before file exists", got)
	}

	if err := os.WriteFile(filepath.Join(root, "a", LocalConfigFileName), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got, want := FindLocal(nested), filepath.Join(root, "a"); got != want {
		t.Errorf("FindLocal() = %q, want %q", got, want)
	}
}

func TestHasScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		loc  string
		want bool
	}{
		{"https://x", true},
		{"file:/x", true},
		{"svn+ssh://x", true},
		{"/abs", false},
		{"repo", false},
		{"C:\\repo", false},
		{"a/b:c", false},
	}
	for _, tt := range tests {
		if got := hasScheme(tt.loc); got != tt.want {
			t.Errorf("hasScheme(%q) = %v, want %v", tt.loc, got, tt.want)
		}
	}
}
