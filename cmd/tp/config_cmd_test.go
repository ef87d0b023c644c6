package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/tp/internal/config"
)

// TestConfigShow tests showing the effective config.
//
// Scenario: A project .tp.toml exists in the work dir and user runs `tp config show --json`
// Expected: The merged values and the local file are shown
func TestConfigShow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.cfg.Repositories = []string{"https://repo.example.org/r"}
	env.cfg.Variables = map[string]string{"eclipse_home": "/opt/eclipse"}
	env.cfg.Target = "rcp"
	if err := os.WriteFile(filepath.Join(env.workDir, config.LocalConfigFileName), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var v configView
	if err := json.Unmarshal([]byte(env.mustRun(newConfigCmd(), "show", "--json")), &v); err != nil {
		t.Fatal(err)
	}
	if v.MetadataDir != env.cfg.MetadataDir || v.Target != "rcp" || v.Variables["eclipse_home"] != "/opt/eclipse" {
		t.Errorf("config view = %+v", v)
	}
	if v.BundlePool != filepath.Join(env.cfg.MetadataDir, "p2", "pool") {
		t.Errorf("BundlePool = %q, want default under metadata dir", v.BundlePool)
	}
	if v.LocalFile != filepath.Join(env.workDir, config.LocalConfigFileName) {
		t.Errorf("LocalFile = %q", v.LocalFile)
	}
	if v.Environment["os"] != "linux" {
		t.Errorf("Environment = %v", v.Environment)
	}

	out := env.mustRun(newConfigCmd(), "show")
	if !strings.Contains(out, `metadata_dir = "`+env.cfg.MetadataDir+`"`) || !strings.Contains(out, "# target: rcp") {
		t.Errorf("config show output = %q", out)
	}
}

// TestConfigInit_Local tests creating a project config.
//
// Scenario: User runs `tp config init --local` twice
// Expected: The file is created once; the second run needs -f
func TestConfigInit_Local(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.mustRun(newConfigCmd(), "init", "--local")
	path := filepath.Join(env.workDir, config.LocalConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != config.DefaultLocalConfig() {
		t.Error("local config content differs from template")
	}

	if _, err := env.run(newConfigCmd(), "init", "--local"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init error = %v", err)
	}
	env.mustRun(newConfigCmd(), "init", "--local", "-f")
}

func TestConfigInit_Stdout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	if out := env.mustRun(newConfigCmd(), "init", "-s"); out != config.DefaultConfig() {
		t.Errorf("init -s output differs from default config")
	}
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	out := env.mustRun(newCompletionCmd(), "bash")
	if !strings.Contains(out, "bash completion") {
		t.Errorf("bash completion output = %.80q", out)
	}
	if _, err := env.run(newCompletionCmd(), "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestVersionString(t *testing.T) {
	t.Parallel()

	if v := versionString(); !strings.HasPrefix(v, "tp dev (none, unknown, go") {
		t.Errorf("versionString() = %q", v)
	}
}
