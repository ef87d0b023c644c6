package variables

import (
	"errors"
	"runtime"
	"testing"
)

func TestSubstitute(t *testing.T) {
	t.Setenv("TP_TEST_VAR", "/from/env")

	m := New()
	m.Set("eclipse_home", "/opt/eclipse")
	m.Set("sdk", "${eclipse_home}/sdk")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no references", "/plain/path", "/plain/path"},
		{"plain", "${eclipse_home}/plugins", "/opt/eclipse/plugins"},
		{"nested value", "${sdk}/features", "/opt/eclipse/sdk/features"},
		{"env var", "${env_var:TP_TEST_VAR}/x", "/from/env/x"},
		{"system property", "${system_property:osgi.os}", runtime.GOOS},
		{"repeated", "${eclipse_home}:${eclipse_home}", "/opt/eclipse:/opt/eclipse"},
		{"not a reference", "$eclipse_home", "$eclipse_home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Substitute(tt.input)
			if err != nil {
				t.Fatalf("Substitute(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubstitute_Errors(t *testing.T) {
	t.Parallel()

	m := New()
	m.Set("loop", "${loop}x")
	m.Register("broken", func(string) (string, error) { return "", errors.New("boom") })

	if _, err := m.Substitute("${missing}/a"); !errors.Is(err, ErrUndefined) {
		t.Errorf("Substitute(missing) error = %v, want ErrUndefined", err)
	}
	if _, err := m.Substitute("${loop}"); err == nil {
		t.Error("Substitute(loop) expected error")
	}
	if _, err := m.Substitute("${broken:arg}"); err == nil {
		t.Error("Substitute(broken) expected error")
	}
	if _, err := m.Substitute("${env_var:TP_SURELY_UNSET_VARIABLE}"); err == nil {
		t.Error("Substitute(unset env) expected error")
	}
}

func TestContainsAndNames(t *testing.T) {
	t.Parallel()

	if !Contains("${a}/b") || Contains("/a/b") {
		t.Error("Contains() misclassified input")
	}

	m := New()
	m.SetAll(map[string]string{"b": "1", "a": "2"})
	names := m.Names()
	want := []string{"a", "b", "env_var", "system_property"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
