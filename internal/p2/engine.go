package p2

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphi011/tp/internal/cache"
	"github.com/raphi011/tp/internal/log"
)

// Phase is a set of engine phases.
type Phase uint

const (
	PhaseCollect Phase = 1 << iota
	PhaseCheckTrust
	PhaseUnconfigure
	PhaseUninstall
	PhaseProperty
	PhaseInstall
	PhaseConfigure
)

// DefaultPhases is the full phase set, in execution order.
const DefaultPhases = PhaseCollect | PhaseCheckTrust | PhaseUnconfigure | PhaseUninstall |
	PhaseProperty | PhaseInstall | PhaseConfigure

var phaseOrder = []Phase{
	PhaseCollect, PhaseCheckTrust, PhaseUnconfigure, PhaseUninstall,
	PhaseProperty, PhaseInstall, PhaseConfigure,
}

var phaseNames = map[Phase]string{
	PhaseCollect:     "collect",
	PhaseCheckTrust:  "checkTrust",
	PhaseUnconfigure: "unconfigure",
	PhaseUninstall:   "uninstall",
	PhaseProperty:    "property",
	PhaseInstall:     "install",
	PhaseConfigure:   "configure",
}

// Has reports whether every phase of q is in p.
func (p Phase) Has(q Phase) bool {
	return p&q == q
}

func (p Phase) String() string {
	if p == 0 {
		return "none"
	}
	var names []string
	for _, ph := range phaseOrder {
		if p.Has(ph) {
			names = append(names, phaseNames[ph])
		}
	}
	return strings.Join(names, "|")
}

// Engine performs plan operands against a profile.
type Engine interface {
	Perform(ctx context.Context, profile *Profile, phases Phase, operands []Operand, pc ProvisioningContext) error
}

// SimpleEngine runs phases in order, downloading artifacts into the bundle
// pool named by the profile's PropCache property and recording installed
// units in the profile. The profile is saved when all phases succeed.
type SimpleEngine struct {
	Repos    *RepositoryManager
	Profiles *ProfileRegistry
}

// Perform implements Engine. Cancellation is checked before each phase and
// returned unwrapped; phase failures are returned as *StatusError.
func (e *SimpleEngine) Perform(ctx context.Context, profile *Profile, phases Phase, operands []Operand, pc ProvisioningContext) error {
	l := log.FromContext(ctx)

	for _, ph := range phaseOrder {
		if !phases.Has(ph) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		done := l.Step("engine", phaseNames[ph])
		var err error
		switch ph {
		case PhaseCollect:
			err = e.collect(ctx, profile, operands, pc)
		case PhaseProperty:
			for _, op := range operands {
				if p, ok := op.(PropertyOperand); ok {
					if profile.Properties == nil {
						profile.Properties = make(map[string]string)
					}
					profile.Properties[p.Key] = p.Value
				}
			}
		case PhaseInstall:
			for _, op := range operands {
				switch o := op.(type) {
				case InstallOperand:
					profile.install(o.Unit)
				case UnitPropertyOperand:
					profile.setUnitProperty(o.Unit, o.Key, o.Value)
				}
			}
		case PhaseConfigure:
			for _, op := range operands {
				if in, ok := op.(InstallOperand); ok {
					profile.setUnitProperty(in.Unit, PropConfigured, "true")
				}
			}
		default:
			// Nothing is signed and plans never remove units.
		}
		done(time.Since(start))

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return &StatusError{Op: "phase " + phaseNames[ph], Status: errorStatus("%v", err)}
		}
	}

	if e.Profiles != nil {
		return e.Profiles.Save(profile)
	}
	return nil
}

func (e *SimpleEngine) collect(ctx context.Context, profile *Profile, operands []Operand, pc ProvisioningContext) error {
	dir := profile.Property(PropCache)
	if dir == "" {
		return fmt.Errorf("profile %s has no bundle pool", profile.ID)
	}
	pool, err := cache.Open(dir)
	if err != nil {
		return err
	}
	var repos []*ArtifactRepository
	if e.Repos != nil {
		if repos, err = e.Repos.ArtifactRepositories(ctx, pc.ArtifactRepositories); err != nil {
			return err
		}
	}

	l := log.FromContext(ctx)
	for _, op := range operands {
		in, ok := op.(InstallOperand)
		if !ok {
			continue
		}
		for _, key := range in.Unit.Artifacts {
			if pool.Contains(key) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			repo, d, found := findArtifact(repos, key)
			if !found {
				l.Warnf("artifact %s not found in any repository", key)
				continue
			}
			if _, err := e.Repos.Download(ctx, repo, d, pool); err != nil {
				return err
			}
			l.Debug("collected artifact", "key", key, "repository", repo.Location)
		}
	}
	return nil
}

func findArtifact(repos []*ArtifactRepository, key ArtifactKey) (*ArtifactRepository, ArtifactDescriptor, bool) {
	for _, r := range repos {
		if d, ok := r.Find(key); ok {
			return r, d, true
		}
	}
	return nil, ArtifactDescriptor{}, false
}
