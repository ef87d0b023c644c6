package doctor

import (
	"context"

	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/target"
)

// Check runs all diagnostics and returns the issues found.
func Check(ctx context.Context, svc *target.Service, opts Options) ([]Issue, IssueStats, error) {
	l := log.FromContext(ctx)
	var stats IssueStats
	var allIssues []Issue

	// Category 1: registry and target files
	l.Printf("Checking targets...\n")
	regIssues, err := checkRegistry(svc)
	if err != nil {
		return nil, stats, err
	}
	defs, loadIssues, err := loadTargets(svc)
	if err != nil {
		return nil, stats, err
	}
	targetIssues := append(regIssues, loadIssues...)
	for i := range targetIssues {
		targetIssues[i].Category = CategoryTarget
	}
	allIssues = append(allIssues, targetIssues...)
	stats.TargetIssues = len(targetIssues)
	stats.TargetsValid = len(defs)

	// Category 2: container locations
	l.Printf("Checking locations...\n")
	for _, def := range defs {
		locIssues := checkLocations(def)
		for i := range locIssues {
			locIssues[i].Category = CategoryLocation
		}
		stats.LocationIssues += len(locIssues)
		allIssues = append(allIssues, locIssues...)
	}

	// Category 3: resolution results
	if opts.Resolve {
		l.Printf("Resolving targets...\n")
		for _, def := range defs {
			bundleIssues, err := checkBundles(ctx, def, &stats)
			if err != nil {
				return nil, stats, err
			}
			allIssues = append(allIssues, bundleIssues...)
		}
	}

	// Category 4: bundle pool
	l.Printf("Checking bundle pool...\n")
	poolIssues, err := checkPool(svc, &stats)
	if err != nil {
		return nil, stats, err
	}
	stats.PoolMissing = len(poolIssues)
	allIssues = append(allIssues, poolIssues...)

	return allIssues, stats, nil
}

// Run performs diagnostic checks and optionally fixes issues. Results are
// printed to the context's printer.
func Run(ctx context.Context, svc *target.Service, opts Options) error {
	out := output.FromContext(ctx)

	issues, stats, err := Check(ctx, svc, opts)
	if err != nil {
		return err
	}

	printSummary(out, stats)

	if len(issues) == 0 {
		out.Println("\n✓ No issues found")
		return nil
	}

	out.Printf("\nFound %d issues:\n", len(issues))
	printIssuesByCategory(out, issues)

	fixable := 0
	for _, issue := range issues {
		if issue.FixAction != "" {
			fixable++
		}
	}

	if opts.Fix {
		if fixable == 0 {
			out.Println("\nNothing to fix automatically.")
			return nil
		}
		out.Println()
		fixed, err := fixAllIssues(ctx, svc, issues)
		if err != nil {
			return err
		}
		out.Printf("\nFixed %d issues.\n", fixed)
		return nil
	}

	if fixable > 0 {
		out.Println("\nRun 'tp doctor --fix' to repair.")
	}
	return nil
}

// printSummary prints a categorized summary.
func printSummary(out *output.Printer, stats IssueStats) {
	out.Println()

	out.Printf("  ✓ %d targets valid\n", stats.TargetsValid)
	if stats.TargetIssues > 0 {
		out.Printf("  ⚠ %d target issues\n", stats.TargetIssues)
	}
	if stats.LocationIssues > 0 {
		out.Printf("  ✗ %d unusable locations\n", stats.LocationIssues)
	}
	if stats.BundleErrors > 0 {
		out.Printf("  ✗ %d bundle errors\n", stats.BundleErrors)
	}
	if stats.BundleWarnings > 0 {
		out.Printf("  ⚠ %d bundle warnings\n", stats.BundleWarnings)
	}
	if stats.PoolEntries > 0 {
		out.Printf("  ✓ %d pool artifacts\n", stats.PoolEntries-stats.PoolMissing)
	}
	if stats.PoolMissing > 0 {
		out.Printf("  ⚠ %d pool entries without file\n", stats.PoolMissing)
	}
}

// printIssuesByCategory groups and prints issues.
func printIssuesByCategory(out *output.Printer, issues []Issue) {
	byCategory := make(map[IssueCategory][]Issue)
	for _, issue := range issues {
		byCategory[issue.Category] = append(byCategory[issue.Category], issue)
	}

	categoryNames := map[IssueCategory]string{
		CategoryTarget:   "Target issues",
		CategoryLocation: "Location issues",
		CategoryBundle:   "Bundle issues",
		CategoryPool:     "Pool issues",
	}

	for _, cat := range []IssueCategory{CategoryTarget, CategoryLocation, CategoryBundle, CategoryPool} {
		catIssues := byCategory[cat]
		if len(catIssues) == 0 {
			continue
		}

		out.Printf("\n%s:\n", categoryNames[cat])
		for _, issue := range catIssues {
			out.Printf("  • %s: %s\n", issue.Key, issue.Description)
		}
	}
}
