package doctor

import (
	"context"
	"fmt"

	"github.com/raphi011/tp/internal/cache"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/target"
)

// fixAllIssues applies fixes for all fixable issues and returns how many
// were fixed.
func fixAllIssues(ctx context.Context, svc *target.Service, issues []Issue) (int, error) {
	out := output.FromContext(ctx)

	var unregister []Issue
	prune := false
	for _, issue := range issues {
		switch issue.FixAction {
		case FixUnregister:
			unregister = append(unregister, issue)
		case FixPrune:
			prune = true
		}
	}

	fixed := 0
	if len(unregister) > 0 {
		reg, unlock, err := registry.LoadWithLock(svc.MetadataDir())
		if err != nil {
			return fixed, err
		}
		for _, issue := range unregister {
			if reg.Remove(issue.Memento) {
				out.Printf("  ✓ Unregistered %q\n", issue.Key)
				fixed++
			}
			if reg.Active == issue.Memento {
				reg.Active = ""
			}
		}
		err = reg.Save()
		unlock()
		if err != nil {
			return fixed, err
		}
	}

	if prune {
		pool, err := cache.Open(svc.BundlePool())
		if err != nil {
			return fixed, err
		}
		n, err := pool.Prune()
		if err != nil {
			return fixed, fmt.Errorf("prune bundle pool: %w", err)
		}
		out.Printf("  ✓ Pruned %d pool entries\n", n)
		fixed += n
	}

	return fixed, nil
}
