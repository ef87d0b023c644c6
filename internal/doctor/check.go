package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/cache"
	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/target"
)

// checkRegistry finds registry entries that no longer point at a target.
func checkRegistry(svc *target.Service) ([]Issue, error) {
	reg, err := registry.Load(svc.MetadataDir())
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, t := range reg.Targets {
		key := t.Name
		if key == "" {
			key = t.Memento
		}
		h, err := svc.Handle(t.Memento)
		if err != nil {
			issues = append(issues, Issue{
				Key:         key,
				Description: fmt.Sprintf("invalid memento: %v", err),
				FixAction:   FixUnregister,
				Memento:     t.Memento,
			})
			continue
		}
		if !h.Exists() {
			issues = append(issues, Issue{
				Key:         key,
				Description: fmt.Sprintf("target file no longer exists: %s", h.Path()),
				FixAction:   FixUnregister,
				Memento:     t.Memento,
			})
		}
	}
	return issues, nil
}

// loadTargets loads every known target. Targets that fail to load are
// reported; missing ones are left to checkRegistry.
func loadTargets(svc *target.Service) ([]*target.Definition, []Issue, error) {
	handles, err := svc.Targets()
	if err != nil {
		return nil, nil, err
	}

	var defs []*target.Definition
	var issues []Issue
	for _, h := range handles {
		if !h.Exists() {
			continue
		}
		def, err := svc.Load(h)
		if err != nil {
			issues = append(issues, Issue{
				Key:         h.Memento(),
				Description: fmt.Sprintf("cannot be read: %v", err),
				Memento:     h.Memento(),
			})
			continue
		}
		defs = append(defs, def)
	}
	return defs, issues, nil
}

// checkLocations finds container locations that cannot be used.
func checkLocations(def *target.Definition) []Issue {
	var issues []Issue
	add := func(i int, c target.Container, format string, args ...any) {
		issues = append(issues, Issue{
			Key:         targetKey(def),
			Description: fmt.Sprintf("location %d (%s): ", i+1, c.Type()) + fmt.Sprintf(format, args...),
			Memento:     def.Handle().Memento(),
		})
	}

	for i, c := range def.Containers {
		if c.Type() == target.TypeIU {
			continue
		}
		loc, err := c.Location(true)
		if err != nil {
			add(i, c, "%v", err)
			continue
		}
		if _, err := os.Stat(loc); err != nil {
			add(i, c, "%s does not exist", loc)
			continue
		}
		switch c := c.(type) {
		case *target.FeatureContainer:
			if _, err := c.FeatureDir(); err != nil {
				add(i, c, "%v", err)
			}
		case *target.ProfileContainer:
			conf, err := c.ConfigurationLocation(true)
			if err != nil {
				add(i, c, "%v", err)
			} else if _, err := os.Stat(conf); conf != "" && err != nil {
				add(i, c, "configuration %s does not exist", conf)
			}
		}
	}
	return issues
}

// checkBundles resolves def and reports bundles with a problem status.
func checkBundles(ctx context.Context, def *target.Definition, stats *IssueStats) ([]Issue, error) {
	bundles, err := def.ResolveBundles(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		stats.LocationIssues++
		return []Issue{{
			Key:         targetKey(def),
			Description: fmt.Sprintf("resolution failed: %v", err),
			Category:    CategoryLocation,
			Memento:     def.Handle().Memento(),
		}}, nil
	}

	var issues []Issue
	for _, b := range bundle.Problems(bundles) {
		if b.Status.Severity == bundle.SeverityError {
			stats.BundleErrors++
		} else {
			stats.BundleWarnings++
		}
		issues = append(issues, Issue{
			Key:         targetKey(def),
			Description: fmt.Sprintf("%s: %s", b.Info, b.Status),
			Category:    CategoryBundle,
			Memento:     def.Handle().Memento(),
		})
	}
	log.FromContext(ctx).Debug("resolved", "target", targetKey(def), "bundles", len(bundles))
	return issues, nil
}

// checkPool finds pool index entries whose artifact is gone.
func checkPool(svc *target.Service, stats *IssueStats) ([]Issue, error) {
	if _, err := os.Stat(cache.IndexPath(svc.BundlePool())); os.IsNotExist(err) {
		return nil, nil
	}
	pool, err := cache.Open(svc.BundlePool())
	if err != nil {
		return nil, err
	}
	entries, err := pool.Entries()
	if err != nil {
		return nil, err
	}
	stats.PoolEntries = len(entries)

	missing, err := pool.Missing()
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(missing))
	for _, e := range missing {
		issues = append(issues, Issue{
			Key:         e.Key.String(),
			Description: fmt.Sprintf("artifact file missing: %s", e.File),
			FixAction:   FixPrune,
			Category:    CategoryPool,
		})
	}
	return issues, nil
}

func targetKey(def *target.Definition) string {
	if def.Name != "" {
		return def.Name
	}
	return def.Handle().Memento()
}
