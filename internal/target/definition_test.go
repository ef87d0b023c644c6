package target

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raphi011/tp/internal/bundle"
)

func TestDefinition_ResolveBundles(t *testing.T) {
	t.Parallel()

	one, two := t.TempDir(), t.TempDir()
	writeBundle(t, one, "org.example.a", "1.0.0", "")
	writeBundle(t, one, "org.example.a", "2.0.0", "")
	writeBundle(t, one, "org.example.b", "1.0.0", "")
	writeBundle(t, two, "org.example.c", "1.0.0", "")

	s := newTestService(t)
	restricted := s.NewDirectoryContainer(one)
	restricted.SetRestrictions([]bundle.Restriction{
		{SymbolicName: "org.example.a"},
		{SymbolicName: "org.example.b", Version: "9.0.0"},
		{SymbolicName: "org.example.opt", Optional: true},
	})
	def := linuxTarget(s, restricted, s.NewDirectoryContainer(two))

	got, err := def.ResolveBundles(context.Background())
	if err != nil {
		t.Fatalf("ResolveBundles() error = %v", err)
	}
	if diff := cmp.Diff([]string{"org.example.a_2.0.0", "org.example.b_9.0.0", "org.example.opt", "org.example.c_1.0.0"}, ids(got)); diff != "" {
		t.Errorf("ResolveBundles() mismatch (-want +got):\n%s", diff)
	}
	if got[1].Status.Code != bundle.CodeVersionDoesNotExist || got[1].Status.Severity != bundle.SeverityError {
		t.Errorf("missing version status = %v", got[1].Status)
	}
	if got[2].Status.Severity != bundle.SeverityInfo || !got[2].Optional {
		t.Errorf("optional restriction = %+v", got[2])
	}
	if problems := bundle.Problems(got); len(problems) != 2 {
		t.Errorf("Problems() = %d, want 2", len(problems))
	}

	cp := Classpath(got)
	want := []string{filepath.Join(one, "org.example.a_2.0.0"), filepath.Join(two, "org.example.c_1.0.0")}
	if diff := cmp.Diff(want, cp); diff != "" {
		t.Errorf("Classpath() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinition_ResolveAborts(t *testing.T) {
	t.Parallel()

	good := t.TempDir()
	writeBundle(t, good, "org.example.a", "1.0.0", "")
	s := newTestService(t)
	def := linuxTarget(s, s.NewDirectoryContainer(good), s.NewDirectoryContainer(filepath.Join(good, "missing")))

	got, err := def.ResolveBundles(context.Background())
	var le *LocationError
	if !errors.As(err, &le) {
		t.Fatalf("ResolveBundles() error = %v, want LocationError", err)
	}
	if got != nil {
		t.Errorf("ResolveBundles() returned partial result %v", ids(got))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := def.ResolveSourceBundles(ctx); err != context.Canceled {
		t.Errorf("ResolveSourceBundles() error = %v, want context.Canceled", err)
	}

	empty := linuxTarget(s)
	if got, err := empty.ResolveBundles(context.Background()); err != nil || len(got) != 0 {
		t.Errorf("empty ResolveBundles() = %v, %v", got, err)
	}
}

func TestDefinition_Environment(t *testing.T) {
	t.Parallel()

	def := &Definition{}
	env := def.Environment()
	if env["os"] != RunningOS() || env["arch"] != RunningArch() {
		t.Errorf("Environment() = %v, want running platform", env)
	}

	def = &Definition{OS: "win32", Arch: "x86"}
	env = def.Environment()
	if env["os"] != "win32" || env["ws"] != "win32" || env["arch"] != "x86" {
		t.Errorf("Environment() = %v", env)
	}
	if got := def.environmentProperty(); got != "osgi.os=win32,osgi.ws=win32,osgi.arch=x86" {
		t.Errorf("environmentProperty() = %q", got)
	}
}

func TestDefinition_ProfileID(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	a, b := s.NewTarget(), s.NewTarget()
	if a.ProfileID() == b.ProfileID() {
		t.Error("ProfileID() is equal for different handles")
	}
	if a.ProfileID() != a.ProfileID() || !strings.HasPrefix(a.ProfileID(), "target-") {
		t.Errorf("ProfileID() = %q", a.ProfileID())
	}
	loaded := &Definition{handle: a.Handle()}
	if loaded.ProfileID() != a.ProfileID() {
		t.Error("ProfileID() differs for the same handle")
	}
}

func TestDefinition_ContentEqual(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	a := linuxTarget(s, s.NewDirectoryContainer("/a"))
	b := linuxTarget(s, s.NewDirectoryContainer("/a"))
	b.Name = "other"
	if !a.ContentEqual(b) {
		t.Error("ContentEqual() = false, names should be ignored")
	}

	restricted := s.NewDirectoryContainer("/a")
	restricted.SetRestrictions([]bundle.Restriction{{SymbolicName: "org.example.a"}})
	c := linuxTarget(s, restricted)
	if a.ContentEqual(c) {
		t.Error("ContentEqual() = true despite different restrictions")
	}
	d := linuxTarget(s, s.NewDirectoryContainer("/a"))
	d.VMArgs = "-Xmx1g"
	if a.ContentEqual(d) {
		t.Error("ContentEqual() = true despite different vm args")
	}
}
