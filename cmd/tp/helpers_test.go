package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/config"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/target"
)

// testEnv is an isolated metadata directory and working directory.
type testEnv struct {
	t       *testing.T
	cfg     *config.Config
	workDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.MetadataDir = t.TempDir()
	cfg.Environment = config.EnvironmentConfig{OS: "linux", WS: "gtk", Arch: "x86_64"}
	return &testEnv{t: t, cfg: &cfg, workDir: t.TempDir()}
}

// run executes cmd with args and returns what it printed.
func (e *testEnv) run(cmd *cobra.Command, args ...string) (string, error) {
	e.t.Helper()
	return e.runWithInput(cmd, nil, args...)
}

// testContext returns a context carrying the env's config and work dir.
func testContext(e *testEnv) context.Context {
	ctx := config.WithConfig(context.Background(), e.cfg)
	return config.WithWorkDir(ctx, e.workDir)
}

func (e *testEnv) runWithInput(cmd *cobra.Command, in *strings.Reader, args ...string) (string, error) {
	e.t.Helper()
	var out bytes.Buffer
	ctx := output.WithPrinter(testContext(e), &out)

	if args == nil {
		// cobra falls back to os.Args for nil args
		args = []string{}
	}
	cmd.SetContext(ctx)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if in != nil {
		cmd.SetIn(in)
	}
	err := cmd.Execute()
	return out.String(), err
}

// mustRun executes cmd and fails the test on error.
func (e *testEnv) mustRun(cmd *cobra.Command, args ...string) string {
	e.t.Helper()
	out, err := e.run(cmd, args...)
	if err != nil {
		e.t.Fatalf("%s %v failed: %v\n%s", cmd.Name(), args, err, out)
	}
	return out
}

// service returns a service over the test metadata directory.
func (e *testEnv) service() *target.Service {
	e.t.Helper()
	svc, err := target.NewService(target.Options{MetadataDir: e.cfg.MetadataDir})
	if err != nil {
		e.t.Fatal(err)
	}
	return svc
}

// load reads the target registered as name.
func (e *testEnv) load(name string) *target.Definition {
	e.t.Helper()
	svc := e.service()
	handles, err := svc.Targets()
	if err != nil {
		e.t.Fatal(err)
	}
	for _, h := range handles {
		def, err := svc.Load(h)
		if err == nil && def.Name == name {
			return def
		}
	}
	e.t.Fatalf("target %q not found", name)
	return nil
}

// writeBundle creates an exploded bundle <dir>/<name>_<version>.
func writeBundle(t *testing.T, dir, name, version string) string {
	t.Helper()
	root := filepath.Join(dir, name+"_"+version)
	mf := filepath.Join(root, "META-INF", "MANIFEST.MF")
	if err := os.MkdirAll(filepath.Dir(mf), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "Manifest-Version: 1.0\nBundle-SymbolicName: " + name + "\nBundle-Version: " + version + "\n"
	if err := os.WriteFile(mf, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}
