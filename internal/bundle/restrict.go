package bundle

import (
	"fmt"
	"slices"

	"github.com/raphi011/tp/internal/version"
)

// Restrict returns the bundles of collection selected by restrictions.
// A nil or empty restriction list returns collection unchanged.
//
// Each restriction picks the bundle with the given symbolic name and exact
// version, or the newest version when none is given. A restriction that
// matches nothing yields a placeholder bundle with an error status (info
// for optional restrictions) so the problem shows up in the result.
func Restrict(collection []Resolved, restrictions []Restriction) []Resolved {
	if len(restrictions) == 0 {
		return collection
	}

	byName := make(map[string][]Resolved, len(collection))
	for _, b := range collection {
		byName[b.Info.SymbolicName] = append(byName[b.Info.SymbolicName], b)
	}

	out := make([]Resolved, 0, len(restrictions))
	seen := make(map[Info]bool, len(restrictions))
	for _, r := range restrictions {
		rb := match(byName, r)
		if rb.Status.IsOK() {
			if seen[rb.Info] {
				continue
			}
			seen[rb.Info] = true
		}
		out = append(out, rb)
	}
	return out
}

func match(byName map[string][]Resolved, r Restriction) Resolved {
	severity := SeverityError
	if r.Optional {
		severity = SeverityInfo
	}
	missing := Resolved{
		Info:     Info{SymbolicName: r.SymbolicName, Version: r.Version},
		Optional: r.Optional,
	}

	candidates := byName[r.SymbolicName]
	if len(candidates) == 0 {
		missing.Status = Status{
			Severity: severity,
			Code:     CodeDoesNotExist,
			Message:  fmt.Sprintf("bundle %s does not exist", r.SymbolicName),
		}
		return missing
	}

	if r.Version == "" {
		newest := slices.MaxFunc(candidates, func(a, b Resolved) int {
			return version.CompareStrings(a.Info.Version, b.Info.Version)
		})
		newest.Optional = r.Optional
		return newest
	}

	for _, c := range candidates {
		if c.Info.Version == r.Version {
			c.Optional = r.Optional
			return c
		}
	}
	missing.Status = Status{
		Severity: severity,
		Code:     CodeVersionDoesNotExist,
		Message:  fmt.Sprintf("version %s of bundle %s does not exist", r.Version, r.SymbolicName),
	}
	return missing
}
