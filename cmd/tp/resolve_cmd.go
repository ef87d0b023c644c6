package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/resolve"
	"github.com/raphi011/tp/internal/target"
	"github.com/raphi011/tp/internal/ui/progress"
	"github.com/raphi011/tp/internal/ui/static"
	"github.com/raphi011/tp/internal/ui/styles"
)

// resolveResult is the outcome of resolving one target.
type resolveResult struct {
	def     *target.Definition
	label   string
	bundles []bundle.Resolved
	err     error
}

func newResolveCmd() *cobra.Command {
	var (
		source   bool
		all      bool
		label    string
		problems bool
		jsonOut  bool
		yamlOut  bool
	)

	cmd := &cobra.Command{
		Use:     "resolve [target]",
		Short:   "Resolve a target into bundles",
		GroupID: GroupResolve,
		Args:    cobra.MaximumNArgs(1),
		Long: `Resolve the bundles of a target.

Every location is resolved in order and its restrictions applied. Each
bundle is shown with its kind (S source, F fragment, ? optional) and any
problem, such as an invalid manifest or a restricted bundle missing from
its location.

With --all or --label several targets are resolved concurrently, up to
[resolve] parallel at a time.`,
		Example: `  tp resolve                # Active target
  tp resolve rcp --source   # Source bundles of 'rcp'
  tp resolve --problems     # Only bundles with problems
  tp resolve --all          # Every target
  tp resolve -l release     # Targets labeled 'release'
  tp resolve rcp --json     # Output as JSON`,
		ValidArgsFunction: completeFirstTarget,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			format := formatOf(jsonOut, yamlOut)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}

			if !all && label == "" {
				def, err := loadTarget(ctx, svc, argOrEmpty(args, 0))
				if err != nil {
					return err
				}
				res := resolveOne(ctx, def, source)
				if res.err != nil {
					return res.err
				}
				if format != output.FormatText {
					return out.Encode(format, resolveView{Target: res.label, Bundles: filterProblems(res.bundles, problems)})
				}
				printResolved(out, res.bundles, problems)
				return nil
			}

			if len(args) > 0 {
				return errors.New("a target argument cannot be combined with --all or --label")
			}

			var handles []target.Handle
			if label != "" {
				handles, err = resolve.ByLabel(svc, label)
			} else {
				handles, err = svc.Targets()
			}
			if err != nil {
				return err
			}
			if len(handles) == 0 {
				out.Println("No targets")
				return nil
			}

			results := resolveMany(ctx, svc, handles, source)

			var failed int
			views := make([]resolveView, 0, len(results))
			for _, res := range results {
				if res.err != nil {
					failed++
					log.FromContext(ctx).Warnf("%s: %v", res.label, res.err)
				}
				if format != output.FormatText {
					v := resolveView{Target: res.label, Bundles: filterProblems(res.bundles, problems)}
					if res.err != nil {
						v.Error = res.err.Error()
					}
					views = append(views, v)
					continue
				}
				if res.err != nil {
					continue
				}
				out.Println(styles.HeaderStyle.Render(res.label))
				printResolved(out, res.bundles, problems)
				out.Println()
			}

			if format != output.FormatText {
				if err := out.Encode(format, views); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d targets failed to resolve", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&source, "source", "s", false, "Resolve source bundles instead of code bundles")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Resolve every target")
	cmd.Flags().StringVarP(&label, "label", "l", "", "Resolve targets with this label")
	cmd.Flags().BoolVarP(&problems, "problems", "p", false, "Only show bundles with problems")
	addFormatFlags(cmd, &jsonOut, &yamlOut)
	cmd.MarkFlagsMutuallyExclusive("all", "label")
	cmd.RegisterFlagCompletionFunc("label", completeLabels)

	return cmd
}

// resolveOne resolves def showing a spinner with the current step.
func resolveOne(ctx context.Context, def *target.Definition, source bool) resolveResult {
	l := log.FromContext(ctx)
	res := resolveResult{def: def, label: targetLabel(def)}

	if !l.IsVerbose() {
		sp := progress.NewSpinner("Resolving " + res.label)
		sp.Start()
		defer sp.Stop()
		ctx = target.WithProgress(ctx, func(msg string) {
			sp.UpdateMessage(res.label + ": " + msg)
		})
	}

	start := time.Now()
	done := l.Step("resolve", res.label)
	res.bundles, res.err = resolveDefinition(ctx, def, source)
	done(time.Since(start))
	return res
}

// resolveMany resolves the targets of handles concurrently, keeping the
// order of handles in the result.
func resolveMany(ctx context.Context, svc *target.Service, handles []target.Handle, source bool) []resolveResult {
	cfg := configFromContext(ctx)
	l := log.FromContext(ctx)
	results := make([]resolveResult, len(handles))

	var bar *progress.Bar
	if !l.IsVerbose() {
		bar = progress.NewBar(len(handles), "Resolving targets")
		bar.Start()
		defer bar.Stop()
	}

	var g errgroup.Group
	g.SetLimit(max(cfg.Resolve.Parallel, 1))
	for i, h := range handles {
		g.Go(func() error {
			res := resolveResult{label: h.Memento()}
			def, err := svc.Load(h)
			if err != nil {
				res.err = err
			} else {
				res.def = def
				res.label = targetLabel(def)
				start := time.Now()
				done := l.Step("resolve", res.label)
				res.bundles, res.err = resolveDefinition(ctx, def, source)
				done(time.Since(start))
			}
			results[i] = res
			if bar != nil {
				bar.Increment(res.label)
			}
			return nil
		})
	}
	g.Wait()
	return results
}

func resolveDefinition(ctx context.Context, def *target.Definition, source bool) ([]bundle.Resolved, error) {
	if source {
		return def.ResolveSourceBundles(ctx)
	}
	return def.ResolveBundles(ctx)
}

func filterProblems(bundles []bundle.Resolved, problems bool) []bundle.Resolved {
	if !problems {
		return bundles
	}
	return bundle.Problems(bundles)
}

// printResolved prints the bundle table and a summary line.
func printResolved(out *output.Printer, bundles []bundle.Resolved, problems bool) {
	shown := filterProblems(bundles, problems)
	if len(shown) > 0 {
		out.Print(static.RenderBundles(shown))
	}

	var errs, warns int
	for _, b := range bundle.Problems(bundles) {
		if b.Status.Severity == bundle.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	parts := []string{plural(len(bundles), "bundle")}
	if errs > 0 {
		parts = append(parts, styles.ErrorStyle.Render(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, styles.WarningStyle.Render(plural(warns, "warning")))
	}
	out.Println(strings.Join(parts, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
