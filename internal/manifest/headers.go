package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Well-known header names.
const (
	BundleManifestVersion = "Bundle-ManifestVersion"
	BundleSymbolicName    = "Bundle-SymbolicName"
	BundleVersion         = "Bundle-Version"
	BundleName            = "Bundle-Name"
	BundleClassPath       = "Bundle-ClassPath"
	FragmentHost          = "Fragment-Host"
	RequireBundle         = "Require-Bundle"
	EclipseSourceBundle   = "Eclipse-SourceBundle"
)

// Headers is a parsed manifest main section. Lookups are case-insensitive.
type Headers map[string]string

// Get returns the value for name, matching the header name case-insensitively.
func (h Headers) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Has reports whether the header is present.
func (h Headers) Has(name string) bool {
	if _, ok := h[name]; ok {
		return true
	}
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// Parse reads the main section of a manifest.
// Continuation lines start with a single space. The main section ends at the
// first blank line; later (per-entry) sections are ignored.
func Parse(r io.Reader) (Headers, error) {
	h := make(Headers)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name string
	var value strings.Builder
	flush := func() {
		if name != "" {
			h[name] = strings.TrimSpace(value.String())
		}
		name = ""
		value.Reset()
	}

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if line == "" {
			if len(h) > 0 || name != "" {
				break
			}
			continue
		}

		if line[0] == ' ' {
			if name == "" {
				return nil, fmt.Errorf("line %d: continuation without header", lineNo)
			}
			value.WriteString(line[1:])
			continue
		}

		flush()
		k, v, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("line %d: invalid header %q", lineNo, line)
		}
		name = strings.TrimSpace(k)
		value.WriteString(strings.TrimPrefix(v, " "))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	flush()

	return h, nil
}

// SymbolicName returns the bundle symbolic name without directives, or "".
func SymbolicName(h Headers) (string, error) {
	raw := h.Get(BundleSymbolicName)
	if raw == "" {
		return "", nil
	}
	elems, err := ParseHeader(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", BundleSymbolicName, err)
	}
	if len(elems) == 0 {
		return "", nil
	}
	return elems[0].Value(), nil
}

// Version returns the first value of the Bundle-Version header, or "".
func Version(h Headers) (string, error) {
	raw := h.Get(BundleVersion)
	if raw == "" {
		return "", nil
	}
	elems, err := ParseHeader(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", BundleVersion, err)
	}
	if len(elems) == 0 {
		return "", nil
	}
	return elems[0].Value(), nil
}
