// Package variables expands ${name} and ${name:argument} references in
// location strings.
//
// Plain variables have a fixed value. Dynamic variables compute their value
// from the argument, e.g. ${env_var:HOME}. Values may themselves contain
// references; expansion repeats until nothing is left to expand.
package variables

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// ErrUndefined is returned for a reference to an unknown variable.
var ErrUndefined = errors.New("undefined variable")

// maxDepth bounds nested expansion so self-referencing values terminate.
const maxDepth = 16

// refRegex matches ${name} and ${name:argument}.
var refRegex = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_.\-]*)(?::([^}]*))?\}`)

// Resolver computes a dynamic variable's value from its argument.
type Resolver func(arg string) (string, error)

// Manager holds variable definitions. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	values  map[string]string
	dynamic map[string]Resolver
}

// New returns a manager with the built-in dynamic variables env_var and
// system_property.
func New() *Manager {
	m := &Manager{
		values:  make(map[string]string),
		dynamic: make(map[string]Resolver),
	}
	m.Register("env_var", envVar)
	m.Register("system_property", systemProperty)
	return m
}

// Set defines a plain variable.
func (m *Manager) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// SetAll defines every variable in vars.
func (m *Manager) SetAll(vars map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range vars {
		m.values[k] = v
	}
}

// Register defines a dynamic variable.
func (m *Manager) Register(name string, r Resolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dynamic[name] = r
}

// Names returns all defined variable names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.values)+len(m.dynamic))
	for k := range m.values {
		names = append(names, k)
	}
	for k := range m.dynamic {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Contains reports whether s has any variable reference.
func Contains(s string) bool {
	return refRegex.MatchString(s)
}

// Substitute expands all references in s.
func (m *Manager) Substitute(s string) (string, error) {
	for range maxDepth {
		if !refRegex.MatchString(s) {
			return s, nil
		}
		next, err := m.expandOnce(s)
		if err != nil {
			return "", err
		}
		if next == s {
			return s, nil
		}
		s = next
	}
	return "", fmt.Errorf("expand %q: references nested deeper than %d", s, maxDepth)
}

func (m *Manager) expandOnce(s string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var firstErr error
	out := refRegex.ReplaceAllStringFunc(s, func(match string) string {
		sub := refRegex.FindStringSubmatch(match)
		name, arg := sub[1], sub[2]
		hasArg := strings.Contains(match, ":")

		if r, ok := m.dynamic[name]; ok {
			v, err := r(arg)
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("expand ${%s}: %w", name, err)
			}
			return v
		}
		if v, ok := m.values[name]; ok && !hasArg {
			return v
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: %s", ErrUndefined, name)
		}
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func envVar(arg string) (string, error) {
	if arg == "" {
		return "", errors.New("env_var requires an argument")
	}
	v, ok := os.LookupEnv(arg)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", arg)
	}
	return v, nil
}

func systemProperty(arg string) (string, error) {
	switch arg {
	case "user.home":
		return os.UserHomeDir()
	case "user.dir":
		return os.Getwd()
	case "os.name", "osgi.os":
		return runtime.GOOS, nil
	case "os.arch", "osgi.arch":
		return runtime.GOARCH, nil
	case "file.separator":
		return string(os.PathSeparator), nil
	case "path.separator":
		return string(os.PathListSeparator), nil
	default:
		return "", fmt.Errorf("unknown system property %q", arg)
	}
}
