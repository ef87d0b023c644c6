package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/resolve"
	"github.com/raphi011/tp/internal/target"
)

// TestNew_Local tests creating a local target.
//
// Scenario: User runs `tp new rcp --activate`
// Expected: Target is stored, registered, active and gets the configured environment
func TestNew_Local(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	out := env.mustRun(newNewCmd(), "rcp", "--activate", "--vm-args", "-Xmx1g")
	if !strings.Contains(out, "Created target rcp") {
		t.Errorf("output = %q", out)
	}

	def := env.load("rcp")
	if def.OS != "linux" || def.WS != "gtk" || def.Arch != "x86_64" {
		t.Errorf("environment = %s/%s/%s, want config defaults", def.OS, def.WS, def.Arch)
	}
	if def.VMArgs != "-Xmx1g" {
		t.Errorf("VMArgs = %q", def.VMArgs)
	}
	if _, ok := def.Handle().(*target.LocalHandle); !ok {
		t.Errorf("handle = %T, want local", def.Handle())
	}

	active, err := env.service().Active()
	if err != nil || active == nil || active.Memento() != def.Handle().Memento() {
		t.Errorf("Active() = %v, %v", active, err)
	}
}

// TestNew_File tests creating a target stored in a file.
//
// Scenario: User runs `tp new rcp --file rcp.target --os win32`
// Expected: The file is written in the working directory
func TestNew_File(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.mustRun(newNewCmd(), "rcp", "--file", "rcp.target", "--os", "win32", "--ws", "win32")

	path := filepath.Join(env.workDir, "rcp.target")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("target file not written: %v", err)
	}
	def := env.load("rcp")
	if def.Handle().Path() != path {
		t.Errorf("Path() = %q, want %q", def.Handle().Path(), path)
	}
	if def.OS != "win32" {
		t.Errorf("OS = %q, want win32", def.OS)
	}

	// The same file cannot be created twice.
	if _, err := env.run(newNewCmd(), "other", "--file", "rcp.target"); err == nil {
		t.Error("expected error for existing file")
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustRun(newNewCmd(), "rcp")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"duplicate", []string{"rcp"}, "already exists"},
		{"bad os", []string{"x", "--os", "beos"}, "invalid environment.os"},
		{"no name", nil, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(newNewCmd(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestList tests listing targets.
//
// Scenario: User creates two targets, labels one and runs `tp list`
// Expected: Both are listed; --label filters; --json is machine readable
func TestList(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	if out := env.mustRun(newListCmd()); !strings.Contains(out, "No targets") {
		t.Errorf("empty list output = %q", out)
	}

	env.mustRun(newNewCmd(), "rcp", "--activate")
	env.mustRun(newNewCmd(), "server")
	env.mustRun(newLabelCmd(), "add", "release", "server")

	out := env.mustRun(newListCmd())
	if !strings.Contains(out, "rcp") || !strings.Contains(out, "server") || !strings.Contains(out, "release") {
		t.Errorf("list output = %q", out)
	}

	var entries []entryView
	if err := json.Unmarshal([]byte(env.mustRun(newListCmd(), "--json")), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "rcp" || !entries[0].Active || entries[1].Active {
		t.Errorf("entries = %+v", entries)
	}

	if err := json.Unmarshal([]byte(env.mustRun(newListCmd(), "--json", "-l", "release")), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "server" {
		t.Errorf("labeled entries = %+v", entries)
	}

	if _, err := env.run(newListCmd(), "--json", "--yaml"); err == nil {
		t.Error("expected error for --json with --yaml")
	}
}

// TestShow tests showing a target.
//
// Scenario: User adds a directory location and runs `tp show rcp`
// Expected: Environment and locations are printed; --yaml prints the same data
func TestShow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	dir := t.TempDir()

	env.mustRun(newNewCmd(), "rcp", "--description", "RCP platform")
	env.mustRun(newLocationCmd(), "add", "dir", dir, "-t", "rcp")

	out := env.mustRun(newShowCmd(), "rcp")
	for _, want := range []string{"rcp", "RCP platform", "os=linux", "Directory", dir} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = env.mustRun(newShowCmd(), "rcp", "--yaml")
	if !strings.Contains(out, "type: Directory") || !strings.Contains(out, "location: "+dir) {
		t.Errorf("show --yaml output = %q", out)
	}
}

// TestShow_NoActive tests the error without a target argument.
//
// Scenario: User runs `tp show` with no active target
// Expected: An error pointing to tp activate
func TestShow_NoActive(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.run(newShowCmd())
	if !errors.Is(err, resolve.ErrNoActive) {
		t.Errorf("error = %v, want ErrNoActive", err)
	}
}

func TestShow_Suggestion(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustRun(newNewCmd(), "server")

	_, err := env.run(newShowCmd(), "srever")
	var nf *resolve.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if diff := cmp.Diff([]string{"server"}, nf.Suggestions); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}
}

// TestShow_ProjectTarget tests the target named in .tp.toml.
//
// Scenario: Config names a project target and user runs `tp show`
// Expected: The project target is shown, not the active one
func TestShow_ProjectTarget(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustRun(newNewCmd(), "rcp", "--activate")
	env.mustRun(newNewCmd(), "project")
	env.cfg.Target = "project"

	out := env.mustRun(newShowCmd(), "--json")
	var v targetView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatal(err)
	}
	if v.Name != "project" {
		t.Errorf("shown target = %q, want project", v.Name)
	}
}

// TestActivate tests setting, printing and clearing the active target.
func TestActivate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustRun(newNewCmd(), "rcp")

	if out := env.mustRun(newActivateCmd()); !strings.Contains(out, "No active target") {
		t.Errorf("output = %q", out)
	}
	env.mustRun(newActivateCmd(), "rcp")
	if out := env.mustRun(newActivateCmd()); !strings.Contains(out, "rcp") {
		t.Errorf("output = %q", out)
	}
	env.mustRun(newActivateCmd(), "--clear")

	h, err := env.service().Active()
	if err != nil || h != nil {
		t.Errorf("Active() after clear = %v, %v", h, err)
	}
}

// TestActivate_FileRegisters tests activating an unregistered target file.
//
// Scenario: User runs `tp activate ./other.target` on a file never imported
// Expected: The file is registered under its name and becomes active
func TestActivate_FileRegisters(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	path := filepath.Join(env.workDir, "other.target")
	content := `<?xml version="1.0" encoding="UTF-8"?>
<target name="other"><locations/></target>
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	env.mustRun(newActivateCmd(), "other.target")

	reg, err := registry.Load(env.cfg.MetadataDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Find("other"); err != nil {
		t.Errorf("file target not registered: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != content {
		t.Errorf("activate rewrote the target file: %q", data)
	}
}

// TestDelete tests deleting local and file targets.
//
// Scenario: User runs `tp delete local file`
// Expected: The local target file is removed; the user's file is kept
func TestDelete(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustRun(newNewCmd(), "local", "--activate")
	env.mustRun(newNewCmd(), "file", "--file", "file.target")
	localPath := env.load("local").Handle().Path()

	env.mustRun(newDeleteCmd(), "local", "file")

	if _, err := os.Stat(localPath); !os.IsNotExist(err) {
		t.Errorf("local target still exists: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.workDir, "file.target")); err != nil {
		t.Errorf("target file was deleted: %v", err)
	}
	handles, err := env.service().Targets()
	if err != nil || len(handles) != 0 {
		t.Errorf("Targets() = %v, %v; want none", handles, err)
	}
	if h, _ := env.service().Active(); h != nil {
		t.Errorf("active target not cleared: %v", h)
	}
}

// TestExportImport tests moving a target through a file.
//
// Scenario: User exports a target and imports it as a copy and as a link
// Expected: Both imports have the same content as the original
func TestExportImport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	dir := t.TempDir()

	env.mustRun(newNewCmd(), "rcp", "--activate")
	env.mustRun(newLocationCmd(), "add", "dir", dir)
	env.mustRun(newExportCmd(), "rcp", "-o", "out.target")

	path := filepath.Join(env.workDir, "out.target")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `name="rcp"`) {
		t.Errorf("exported XML = %s", data)
	}

	if out := env.mustRun(newExportCmd()); out != string(data) {
		t.Errorf("export to stdout differs from file:\n%s\n---\n%s", out, data)
	}

	env.mustRun(newImportCmd(), "out.target", "--name", "copy")
	env.mustRun(newImportCmd(), "out.target", "--link", "--name", "linked")

	orig := env.load("rcp")
	cp := env.load("copy")
	if !orig.ContentEqual(cp) {
		t.Error("imported copy differs from original")
	}
	if _, ok := cp.Handle().(*target.LocalHandle); !ok {
		t.Errorf("copy handle = %T, want local", cp.Handle())
	}

	reg, err := registry.Load(env.cfg.MetadataDir)
	if err != nil {
		t.Fatal(err)
	}
	linked, err := reg.Find("linked")
	if err != nil {
		t.Fatalf("linked target not registered: %v", err)
	}
	h, err := env.service().Handle(linked.Memento)
	if err != nil {
		t.Fatal(err)
	}
	if h.Path() != path {
		t.Errorf("linked path = %q, want %q", h.Path(), path)
	}
}

func TestImport_Invalid(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	path := filepath.Join(env.workDir, "bad.target")
	if err := os.WriteFile(path, []byte("<project/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := env.run(newImportCmd(), "bad.target")
	if !errors.Is(err, target.ErrInvalidFormat) {
		t.Errorf("error = %v, want ErrInvalidFormat", err)
	}
}

// TestLabel tests adding, listing and removing labels.
func TestLabel(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustRun(newNewCmd(), "rcp", "--activate")
	env.mustRun(newNewCmd(), "server")

	env.mustRun(newLabelCmd(), "add", "release")
	env.mustRun(newLabelCmd(), "add", "nightly", "rcp", "server")

	if out := env.mustRun(newLabelCmd(), "list", "rcp"); strings.TrimSpace(out) != "nightly, release" {
		t.Errorf("label list rcp = %q", out)
	}
	if out := env.mustRun(newLabelCmd(), "list", "-g"); out != "nightly\nrelease\n" {
		t.Errorf("label list -g = %q", out)
	}

	env.mustRun(newLabelCmd(), "remove", "nightly", "server")
	if out := env.mustRun(newLabelCmd(), "list", "server"); strings.TrimSpace(out) != "(no labels)" {
		t.Errorf("label list server = %q", out)
	}

	// Labels survive a save of the target.
	env.mustRun(newLocationCmd(), "add", "dir", t.TempDir(), "-t", "rcp")
	if out := env.mustRun(newLabelCmd(), "list", "rcp"); strings.TrimSpace(out) != "nightly, release" {
		t.Errorf("labels after save = %q", out)
	}
}
