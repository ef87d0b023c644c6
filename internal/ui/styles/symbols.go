package styles

import (
	"github.com/raphi011/tp/internal/bundle"
)

// Symbols holds the icon set based on nerdfont configuration
type Symbols struct {
	OK       string
	Error    string
	Warning  string
	Info     string
	Source   string
	Fragment string
	Active   string
}

var defaultSymbols = Symbols{
	OK:       "✓",
	Error:    "✗",
	Warning:  "⚠",
	Info:     "ℹ",
	Source:   "S",
	Fragment: "F",
	Active:   "*",
}

var nerdfontSymbols = Symbols{
	OK:       "\uf00c", // nf-fa-check
	Error:    "\uf00d", // nf-fa-times
	Warning:  "\uf071", // nf-fa-warning
	Info:     "\uf05a", // nf-fa-info_circle
	Source:   "\uf121", // nf-fa-code
	Fragment: "\uf12e", // nf-fa-puzzle_piece
	Active:   "\uf005", // nf-fa-star
}

var useNerdfont bool

var currentSymbols = defaultSymbols

// SetNerdfont enables or disables nerd font symbols
func SetNerdfont(enabled bool) {
	useNerdfont = enabled
	if enabled {
		currentSymbols = nerdfontSymbols
	} else {
		currentSymbols = defaultSymbols
	}
}

// NerdfontEnabled returns whether nerd font symbols are enabled
func NerdfontEnabled() bool {
	return useNerdfont
}

// CurrentSymbols returns the current symbol set
func CurrentSymbols() Symbols {
	return currentSymbols
}

// StatusSymbol returns the colored symbol for a bundle status.
func StatusSymbol(s bundle.Status) string {
	switch s.Severity {
	case bundle.SeverityOK:
		return SuccessStyle.Render(currentSymbols.OK)
	case bundle.SeverityError:
		return ErrorStyle.Render(currentSymbols.Error)
	case bundle.SeverityWarning:
		return WarningStyle.Render(currentSymbols.Warning)
	default:
		return InfoStyle.Render(currentSymbols.Info)
	}
}

// Kind returns the kind markers of a resolved bundle: source, fragment and
// optional. Code bundles that are none of these get "".
func Kind(b bundle.Resolved) string {
	var k string
	if b.Source {
		k += currentSymbols.Source
	}
	if b.Fragment {
		k += currentSymbols.Fragment
	}
	if b.Optional {
		k += "?"
	}
	return k
}
