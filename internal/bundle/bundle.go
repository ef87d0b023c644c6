package bundle

import "fmt"

// Info identifies a bundle.
type Info struct {
	SymbolicName string `json:"symbolicName" yaml:"symbolicName"`
	Version      string `json:"version,omitempty" yaml:"version,omitempty"`
	Location     string `json:"location,omitempty" yaml:"location,omitempty"`
}

func (i Info) String() string {
	if i.Version == "" {
		return i.SymbolicName
	}
	return i.SymbolicName + "_" + i.Version
}

// Severity of a bundle status.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// Status codes.
const (
	CodeNone = iota
	CodeInvalidManifest
	CodeDoesNotExist
	CodeVersionDoesNotExist
)

// Status reports a problem with one bundle. The zero value is OK.
type Status struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     int      `json:"code,omitempty" yaml:"code,omitempty"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// IsOK reports whether the status carries no problem.
func (s Status) IsOK() bool {
	return s.Severity == SeverityOK
}

func (s Status) String() string {
	if s.IsOK() {
		return "ok"
	}
	return fmt.Sprintf("%s: %s", s.Severity, s.Message)
}

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	for _, sev := range []Severity{SeverityOK, SeverityInfo, SeverityWarning, SeverityError} {
		if sev.String() == string(text) {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// Resolved is a bundle found in a container.
type Resolved struct {
	Info     Info   `json:"info" yaml:"info"`
	Status   Status `json:"status" yaml:"status"`
	Source   bool   `json:"source,omitempty" yaml:"source,omitempty"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Fragment bool   `json:"fragment,omitempty" yaml:"fragment,omitempty"`

	// SourceTarget is the bundle this source bundle provides source for,
	// when declared by an Eclipse-SourceBundle header.
	SourceTarget *Info `json:"sourceTarget,omitempty" yaml:"sourceTarget,omitempty"`
	// SourcePath is the path attribute of a legacy source extension.
	SourcePath string `json:"sourcePath,omitempty" yaml:"sourcePath,omitempty"`
}

// Restriction selects one bundle of a container by name and optional version.
type Restriction struct {
	SymbolicName string
	Version      string
	Optional     bool
}

func (r Restriction) String() string {
	s := r.SymbolicName
	if r.Version != "" {
		s += "@" + r.Version
	}
	if r.Optional {
		s += " (optional)"
	}
	return s
}

// Problems returns the bundles whose status is not OK.
func Problems(bundles []Resolved) []Resolved {
	var out []Resolved
	for _, b := range bundles {
		if !b.Status.IsOK() {
			out = append(out, b)
		}
	}
	return out
}
