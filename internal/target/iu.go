package target

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/cache"
	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/p2"
)

// provisionPhases runs everything except the phases that remove,
// unconfigure or verify content and the profile property phase.
const provisionPhases = p2.DefaultPhases &^
	(p2.PhaseCheckTrust | p2.PhaseUnconfigure | p2.PhaseUninstall | p2.PhaseProperty)

// IUContainer provides the bundles of installable units provisioned into
// the target's profile from metadata and artifact repositories.
//
// The unit list is looked up once and then kept, even when repositories
// change. Forget drops it.
type IUContainer struct {
	base
	units        []p2.Descriptor
	repositories []string

	includeAllRequired     bool
	includeAllEnvironments bool

	mu       sync.Mutex
	resolved []p2.Unit
}

func (c *IUContainer) Type() string { return TypeIU }

// Location returns the bundle pool the units are provisioned into, or ""
// for a container not yet added to a service.
func (c *IUContainer) Location(bool) (string, error) {
	if c.svc == nil {
		return "", nil
	}
	return c.svc.BundlePool(), nil
}

// Units returns the requested unit descriptors.
func (c *IUContainer) Units() []p2.Descriptor { return slices.Clone(c.units) }

// Repositories returns the configured repositories. Empty means the
// repository manager's known repositories.
func (c *IUContainer) Repositories() []string { return slices.Clone(c.repositories) }

// IncludeAllRequired reports whether the planner computes a complete,
// consistent install. When false, units are sliced permissively.
func (c *IUContainer) IncludeAllRequired() bool { return c.includeAllRequired }

// IncludeAllEnvironments reports whether slicing ignores platform filters.
// It has no effect when IncludeAllRequired is set.
func (c *IUContainer) IncludeAllEnvironments() bool { return c.includeAllEnvironments }

// SetIncludeMode changes how units are planned and drops the cached units.
func (c *IUContainer) SetIncludeMode(allRequired, allEnvironments bool) {
	c.includeAllRequired = allRequired
	c.includeAllEnvironments = allEnvironments
	c.Forget()
}

// ResolvedUnits returns the cached unit list, or nil before the first
// successful resolve.
func (c *IUContainer) ResolvedUnits() []p2.Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.resolved)
}

// Forget drops the cached unit list so the next resolve looks units up
// again.
func (c *IUContainer) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = nil
}

func (c *IUContainer) ResolveBundles(ctx context.Context, def *Definition) ([]bundle.Resolved, error) {
	return c.resolve(ctx, def, false)
}

func (c *IUContainer) ResolveSourceBundles(ctx context.Context, def *Definition) ([]bundle.Resolved, error) {
	return c.resolve(ctx, def, true)
}

func (c *IUContainer) resolve(ctx context.Context, def *Definition, source bool) ([]bundle.Resolved, error) {
	if def == nil {
		return nil, errors.New("installable units resolve against a target definition")
	}
	if c.svc == nil || c.svc.agent == nil {
		return nil, &p2.ServiceError{Service: "provisioning agent"}
	}
	agent := c.svc.agent
	profiles, err := agent.ProfileRegistry()
	if err != nil {
		return nil, err
	}
	repos, err := agent.RepositoryManager()
	if err != nil {
		return nil, err
	}
	planner, err := agent.Planner()
	if err != nil {
		return nil, err
	}
	engine, err := agent.Engine()
	if err != nil {
		return nil, err
	}

	id := def.ProfileID()
	unlock, err := profiles.Lock(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	profile, err := profiles.GetOrCreate(id, map[string]string{
		p2.PropCache:        c.svc.pool,
		p2.PropEnvironments: def.environmentProperty(),
	})
	if err != nil {
		return nil, err
	}

	locs, err := c.repositoryLocations()
	if err != nil {
		return nil, err
	}

	l := log.FromContext(ctx)
	report(ctx, "looking up %d installable units", len(c.units))
	units, err := c.lookup(ctx, profile, repos, locs)
	if err != nil {
		return nil, err
	}

	req := p2.NewChangeRequest(profile)
	req.Add(units...)
	for _, u := range units {
		req.SetUnitProperty(u, p2.PropInstalledIU, "true")
	}
	pc := p2.ProvisioningContext{
		MetadataRepositories: locs,
		ArtifactRepositories: locs,
		Environment:          def.Environment(),
		Permissive:           !c.includeAllRequired,
	}
	if !c.includeAllRequired && c.includeAllEnvironments {
		pc.Environment = nil
	}

	report(ctx, "planning %s", profile.ID)
	start := time.Now()
	done := l.Step("iu", "plan")
	plan, err := planner.GetPlan(ctx, req, pc)
	done(time.Since(start))
	if err != nil {
		return nil, err
	}
	if !plan.Status.IsOK() {
		return nil, &p2.StatusError{Op: "provisioning plan", Status: plan.Status}
	}

	report(ctx, "provisioning %s", profile.ID)
	if err := engine.Perform(ctx, profile, provisionPhases, plan.Operands, pc); err != nil {
		return nil, err
	}

	installed, err := p2.Slice(profile, units, pc.Environment)
	if err != nil {
		return nil, err
	}
	return c.bundles(ctx, profile, installed, source)
}

// lookup returns the unit for each requested descriptor, from the profile
// when installed, otherwise from the first repository that has it. The
// result is kept for later calls.
func (c *IUContainer) lookup(ctx context.Context, profile *p2.Profile, mgr *p2.RepositoryManager, locs []string) ([]p2.Unit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved != nil {
		return c.resolved, nil
	}

	var metas []*p2.MetadataRepository
	loaded := false
	out := make([]p2.Unit, 0, len(c.units))
	for _, d := range c.units {
		q := p2.UnitQuery(d.ID, d.Version)
		if found := profile.Query(q); len(found) > 0 {
			out = append(out, p2.Newest(found))
			continue
		}
		if !loaded {
			var err error
			if metas, err = mgr.MetadataRepositories(ctx, locs); err != nil {
				return nil, err
			}
			loaded = true
		}
		var hit []p2.Unit
		for _, m := range metas {
			if hit = m.Query(q); len(hit) > 0 {
				break
			}
		}
		if len(hit) == 0 {
			return nil, &p2.MissingUnitError{ID: d.ID, Version: d.Version}
		}
		out = append(out, p2.Newest(hit))
	}
	c.resolved = out
	return out, nil
}

func (c *IUContainer) repositoryLocations() ([]string, error) {
	locs := make([]string, 0, len(c.repositories))
	for _, r := range c.repositories {
		loc, err := c.substitute(r)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// bundles maps the artifacts of bundle-providing units to pool files.
// Artifacts missing from the pool are logged and skipped.
func (c *IUContainer) bundles(ctx context.Context, profile *p2.Profile, units []p2.Unit, source bool) ([]bundle.Resolved, error) {
	pool, err := cache.Open(profile.Property(p2.PropCache))
	if err != nil {
		return nil, err
	}
	l := log.FromContext(ctx)

	scope := bundle.NewScope()
	defer scope.Close()
	gen := bundle.NewGenerator(scope)

	var out []bundle.Resolved
	for _, u := range units {
		if !u.ProvidesBundle() {
			continue
		}
		for _, key := range u.Artifacts {
			file := pool.ArtifactFile(key)
			if file == "" {
				l.Warnf("artifact %s of %s is not in the bundle pool", key, u)
				continue
			}
			rb, err := gen.Generate(file)
			if err != nil {
				l.Debug("using artifact key for unreadable bundle", "path", file, "err", err)
				rb = &bundle.Resolved{Info: bundle.Info{SymbolicName: key.ID, Version: key.Version, Location: file}}
			}
			if rb.Source == source {
				out = append(out, *rb)
			}
		}
	}
	return out, nil
}

// Equal compares units with Descriptor.Equal, in order. The environment
// flag only matters to the slicer.
func (c *IUContainer) Equal(other Container) bool {
	o, ok := other.(*IUContainer)
	if !ok || len(c.units) != len(o.units) || !slices.Equal(c.repositories, o.repositories) {
		return false
	}
	if c.includeAllRequired != o.includeAllRequired {
		return false
	}
	if !c.includeAllRequired && c.includeAllEnvironments != o.includeAllEnvironments {
		return false
	}
	for i := range c.units {
		if !c.units[i].Equal(o.units[i]) {
			return false
		}
	}
	return restrictionsEqual(c.restrictions, o.restrictions)
}

func (c *IUContainer) String() string {
	ids := make([]string, len(c.units))
	for i, d := range c.units {
		ids[i] = d.String()
	}
	s := fmt.Sprintf("Installable units [%s]", strings.Join(ids, ", "))
	if len(c.repositories) > 0 {
		s += " from " + strings.Join(c.repositories, ", ")
	}
	return s
}
