package config

import (
	"fmt"
	"slices"
	"strings"
)

// Valid enum values for configuration fields.
var (
	ValidOS         = []string{"linux", "win32", "macosx", "freebsd", "aix", "hpux", "solaris", "qnx"}
	ValidWS         = []string{"gtk", "win32", "cocoa", "motif", "photon", "wpf"}
	ValidArch       = []string{"x86", "x86_64", "aarch64", "arm", "ppc", "ppc64", "ppc64le", "riscv64", "s390x", "sparc"}
	ValidThemeNames = []string{"default", "nord", "none"}
	ValidThemeModes = []string{"auto", "light", "dark"}
)

func (e EnvironmentConfig) validate() error {
	if err := validateEnum(e.OS, "environment.os", ValidOS); err != nil {
		return err
	}
	if err := validateEnum(e.WS, "environment.ws", ValidWS); err != nil {
		return err
	}
	return validateEnum(e.Arch, "environment.arch", ValidArch)
}

// ValidateEnvironment checks os, ws and arch values given on the command
// line. Exported for use in CLI flag validation.
func ValidateEnvironment(os, ws, arch string) error {
	return EnvironmentConfig{OS: os, WS: ws, Arch: arch}.validate()
}

// validateEnum checks that value (if non-empty) is one of the allowed values.
// Returns a formatted error mentioning the field name and allowed options.
func validateEnum(value, field string, allowed []string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s %q: must be %s", field, value, formatOptions(allowed))
	}
	return nil
}

// formatOptions formats a list of allowed values for error messages.
// E.g., ["a", "b", "c"] -> `"a", "b", or "c"`
func formatOptions(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	if len(quoted) <= 2 {
		return strings.Join(quoted, " or ")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
