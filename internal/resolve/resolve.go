package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/raphi011/tp/internal/config"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/target"
)

// maxSuggestions limits the names offered for an unknown reference.
const maxSuggestions = 3

// ErrNoActive is returned for an empty reference when no default target is
// configured and none is active.
var ErrNoActive = errors.New("no target given and no active target (use 'tp activate')")

// NotFoundError reports a reference matching no target.
type NotFoundError struct {
	Ref         string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("target not found: %s", e.Ref)
	}
	return fmt.Sprintf("target not found: %s (did you mean: %s?)", e.Ref, strings.Join(e.Suggestions, ", "))
}

// Entry is a known target with its registry data.
type Entry struct {
	Handle target.Handle
	Name   string
	Labels []string
	Active bool
}

// Ref resolves a target reference to a handle. An empty ref selects the
// project target from the context config, then the active target.
func Ref(ctx context.Context, svc *target.Service, ref string) (target.Handle, error) {
	if ref == "" {
		if cfg := config.FromContext(ctx); cfg != nil && cfg.Target != "" {
			return Ref(ctx, svc, cfg.Target)
		}
		h, err := svc.Active()
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, ErrNoActive
		}
		return h, nil
	}

	if isMemento(ref) {
		h, err := svc.Handle(ref)
		if err != nil {
			return nil, err
		}
		if !h.Exists() {
			return nil, fmt.Errorf("%s: %w", ref, target.ErrNoTarget)
		}
		return h, nil
	}

	if h, ok := byPath(ctx, svc, ref); ok {
		return h, nil
	}

	reg, err := registry.Load(svc.MetadataDir())
	if err != nil {
		return nil, err
	}
	t, err := reg.Find(ref)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			return nil, err
		}
		return nil, &NotFoundError{Ref: ref, Suggestions: Suggest(ref, reg.AllNames())}
	}
	return svc.Handle(t.Memento)
}

// Definition resolves ref and loads the definition.
func Definition(ctx context.Context, svc *target.Service, ref string) (*target.Definition, error) {
	h, err := Ref(ctx, svc, ref)
	if err != nil {
		return nil, err
	}
	return svc.Load(h)
}

func isMemento(ref string) bool {
	return strings.HasPrefix(ref, "local:") || strings.HasPrefix(ref, "file:")
}

// byPath treats ref as a target file path if such a file exists.
func byPath(ctx context.Context, svc *target.Service, ref string) (target.Handle, bool) {
	if !strings.HasSuffix(ref, target.FileExtension) && !strings.ContainsRune(ref, filepath.Separator) {
		return nil, false
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(config.WorkDirFromContext(ctx), path)
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil, false
	}
	def, err := svc.NewFileTarget(path)
	if err != nil {
		return nil, false
	}
	return def.Handle(), true
}

// Suggest returns up to three names fuzzy-matching ref, best first.
// Without a fuzzy match, names sharing ref's first letter are offered.
func Suggest(ref string, names []string) []string {
	var out []string
	for _, m := range fuzzy.Find(ref, names) {
		if len(out) == maxSuggestions {
			return out
		}
		out = append(out, m.Str)
	}
	if len(out) > 0 || ref == "" {
		return out
	}
	for _, n := range names {
		if len(out) == maxSuggestions {
			break
		}
		if strings.HasPrefix(n, ref[:1]) {
			out = append(out, n)
		}
	}
	return out
}

// ByLabel returns the handles of all registered targets with label.
func ByLabel(svc *target.Service, label string) ([]target.Handle, error) {
	reg, err := registry.Load(svc.MetadataDir())
	if err != nil {
		return nil, err
	}
	matches := reg.FindByLabel(label)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no targets with label %q", label)
	}
	handles := make([]target.Handle, 0, len(matches))
	for _, t := range matches {
		h, err := svc.Handle(t.Memento)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// List returns all known targets in service order with registry names and
// labels. Targets missing from the registry are named from their file.
func List(svc *target.Service) ([]Entry, error) {
	handles, err := svc.Targets()
	if err != nil {
		return nil, err
	}
	reg, err := registry.Load(svc.MetadataDir())
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(handles))
	for _, h := range handles {
		e := Entry{Handle: h, Active: reg.Active == h.Memento()}
		if t, err := reg.Find(h.Memento()); err == nil {
			e.Name = t.Name
			e.Labels = t.Labels
		} else if def, err := svc.Load(h); err == nil {
			e.Name = def.Name
		}
		entries = append(entries, e)
	}
	return entries, nil
}
