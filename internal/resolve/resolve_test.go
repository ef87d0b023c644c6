package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raphi011/tp/internal/config"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/target"
)

func newService(t *testing.T) *target.Service {
	t.Helper()
	svc, err := target.NewService(target.Options{MetadataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func saveTarget(t *testing.T, svc *target.Service, name string) *target.Definition {
	t.Helper()
	def := svc.NewTarget()
	def.Name = name
	if err := svc.Save(def); err != nil {
		t.Fatal(err)
	}
	return def
}

func TestRef(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	rcp := saveTarget(t, svc, "rcp")
	ide := saveTarget(t, svc, "ide")

	work := t.TempDir()
	fileDef, err := svc.NewFileTarget(filepath.Join(work, "shared.target"))
	if err != nil {
		t.Fatal(err)
	}
	fileDef.Name = "shared"
	if err := svc.Save(fileDef); err != nil {
		t.Fatal(err)
	}

	ctx := config.WithWorkDir(context.Background(), work)

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"by name", "rcp", rcp.Handle().Memento()},
		{"by memento", ide.Handle().Memento(), ide.Handle().Memento()},
		{"by relative path", "shared.target", fileDef.Handle().Memento()},
		{"by absolute path", filepath.Join(work, "shared.target"), fileDef.Handle().Memento()},
		{"by file target name", "shared", fileDef.Handle().Memento()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Ref(ctx, svc, tt.ref)
			if err != nil {
				t.Fatalf("Ref(%q) error = %v", tt.ref, err)
			}
			if got := h.Memento(); got != tt.want {
				t.Errorf("Ref(%q) = %s, want %s", tt.ref, got, tt.want)
			}
		})
	}
}

func TestRef_Default(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	rcp := saveTarget(t, svc, "rcp")
	ide := saveTarget(t, svc, "ide")

	if _, err := Ref(context.Background(), svc, ""); !errors.Is(err, ErrNoActive) {
		t.Fatalf("Ref(\"\") error = %v, want ErrNoActive", err)
	}

	if err := svc.SetActive(rcp.Handle()); err != nil {
		t.Fatal(err)
	}
	h, err := Ref(context.Background(), svc, "")
	if err != nil {
		t.Fatalf("Ref(\"\") error = %v", err)
	}
	if h.Memento() != rcp.Handle().Memento() {
		t.Errorf("Ref(\"\") = %s, want active %s", h.Memento(), rcp.Handle().Memento())
	}

	// project config wins over the active target
	ctx := config.WithConfig(context.Background(), &config.Config{Target: "ide"})
	h, err = Ref(ctx, svc, "")
	if err != nil {
		t.Fatalf("Ref(\"\") error = %v", err)
	}
	if h.Memento() != ide.Handle().Memento() {
		t.Errorf("Ref(\"\") = %s, want project target %s", h.Memento(), ide.Handle().Memento())
	}
}

func TestRef_NotFound(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	saveTarget(t, svc, "rcp")
	saveTarget(t, svc, "server")

	_, err := Ref(context.Background(), svc, "rpc")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Ref() error = %v, want NotFoundError", err)
	}
	if diff := cmp.Diff([]string{"rcp"}, nf.Suggestions); diff != "" {
		t.Errorf("Suggestions mismatch (-want +got):\n%s", diff)
	}
	if got, want := nf.Error(), "target not found: rpc (did you mean: rcp?)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRef_Errors(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	saveTarget(t, svc, "dup")
	saveTarget(t, svc, "dup")

	tests := []struct {
		name string
		ref  string
	}{
		{"ambiguous name", "dup"},
		{"missing local target", "local:1.target"},
		{"bad memento", "local:abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ref(context.Background(), svc, tt.ref)
			if err == nil {
				t.Fatalf("Ref(%q) expected error", tt.ref)
			}
			var nf *NotFoundError
			if errors.As(err, &nf) {
				t.Errorf("Ref(%q) = NotFoundError, want a specific error", tt.ref)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	names := []string{"eclipse-ide", "rcp", "rcp-nightly", "server"}
	tests := []struct {
		ref  string
		want []string
	}{
		{"rcp", []string{"rcp", "rcp-nightly"}},
		{"nightly", []string{"rcp-nightly"}},
		{"svr", []string{"server"}},
		{"sever", []string{"server"}},
		{"xyz", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Suggest(tt.ref, names)); diff != "" {
			t.Errorf("Suggest(%q) mismatch (-want +got):\n%s", tt.ref, diff)
		}
	}
}

func TestByLabel(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	rcp := saveTarget(t, svc, "rcp")
	saveTarget(t, svc, "ide")

	reg, unlock, err := registry.LoadWithLock(svc.MetadataDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.AddLabel("rcp", "nightly"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Save(); err != nil {
		t.Fatal(err)
	}
	unlock()

	handles, err := ByLabel(svc, "nightly")
	if err != nil {
		t.Fatalf("ByLabel() error = %v", err)
	}
	if len(handles) != 1 || handles[0].Memento() != rcp.Handle().Memento() {
		t.Errorf("ByLabel() = %v, want [%s]", handles, rcp.Handle().Memento())
	}

	if _, err := ByLabel(svc, "none"); err == nil {
		t.Error("ByLabel() expected error for unused label")
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	rcp := saveTarget(t, svc, "rcp")
	saveTarget(t, svc, "ide")
	if err := svc.SetActive(rcp.Handle()); err != nil {
		t.Fatal(err)
	}

	entries, err := List(svc)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var got []string
	for _, e := range entries {
		s := e.Name
		if e.Active {
			s += "*"
		}
		got = append(got, s)
	}
	if diff := cmp.Diff([]string{"rcp*", "ide"}, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}
