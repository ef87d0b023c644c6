package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeLocal_Nil(t *testing.T) {
	t.Parallel()

	global := &Config{MetadataDir: "/m"}
	if got := MergeLocal(global, nil); got != global {
		t.Error("MergeLocal(global, nil) should return global")
	}
}

func TestMergeLocal(t *testing.T) {
	t.Parallel()

	global := &Config{
		MetadataDir:  "/m",
		Repositories: []string{"/r1", "/r2"},
		Variables:    map[string]string{"a": "global", "b": "global"},
		Environment:  EnvironmentConfig{OS: "linux", WS: "gtk", Arch: "x86_64"},
		Resolve:      ResolveConfig{Parallel: 3},
	}
	local := &LocalConfig{
		Target:       "rcp",
		Repositories: []string{"/r2", "/r3"},
		Variables:    map[string]string{"b": "local", "c": "local"},
		Environment:  EnvironmentConfig{Arch: "aarch64", NL: "de_DE"},
	}

	got := MergeLocal(global, local)

	want := &Config{
		MetadataDir:  "/m",
		Repositories: []string{"/r1", "/r2", "/r3"},
		Variables:    map[string]string{"a": "global", "b": "local", "c": "local"},
		Environment:  EnvironmentConfig{OS: "linux", WS: "gtk", Arch: "aarch64", NL: "de_DE"},
		Resolve:      ResolveConfig{Parallel: 3},
		Target:       "rcp",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeLocal() mismatch (-want +got):\n%s", diff)
	}

	// global must be untouched
	if global.Variables["b"] != "global" || len(global.Repositories) != 2 || global.Target != "" {
		t.Errorf("MergeLocal() mutated global: %+v", global)
	}
}

func TestMergeLocal_EmptyLocal(t *testing.T) {
	t.Parallel()

	global := &Config{
		Repositories: []string{"/r1"},
		Variables:    map[string]string{"a": "1"},
		Environment:  EnvironmentConfig{OS: "linux"},
	}
	got := MergeLocal(global, &LocalConfig{})
	if diff := cmp.Diff(global, got); diff != "" {
		t.Errorf("MergeLocal() with empty local changed config (-want +got):\n%s", diff)
	}
}

func TestAppendUnique(t *testing.T) {
	t.Parallel()

	base := []string{"a", "b"}
	got := appendUnique(base, []string{"b", "c", "c"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("appendUnique() mismatch (-want +got):\n%s", diff)
	}
	if len(base) != 2 {
		t.Error("appendUnique() mutated base")
	}
}
