package target

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raphi011/tp/internal/p2"
)

const iuContent = `name: Releases
units:
  - id: org.example.a
    version: 1.0.0
    provides:
      - {namespace: osgi.bundle, name: org.example.a, version: 1.0.0}
    requires:
      - {namespace: osgi.bundle, name: org.example.b, range: "[1.0.0,2.0.0)"}
    artifacts:
      - {classifier: osgi.bundle, id: org.example.a, version: 1.0.0}
  - id: org.example.b
    version: 1.5.0
    provides:
      - {namespace: osgi.bundle, name: org.example.b, version: 1.5.0}
    artifacts:
      - {classifier: osgi.bundle, id: org.example.b, version: 1.5.0}
  - id: org.example.a.source
    version: 1.0.0
    provides:
      - {namespace: osgi.bundle, name: org.example.a.source, version: 1.0.0}
    artifacts:
      - {classifier: osgi.bundle, id: org.example.a.source, version: 1.0.0}
  - id: org.example.broken
    version: 1.0.0
    requires:
      - {namespace: osgi.bundle, name: org.example.missing}
`

const iuArtifacts = `name: Releases
artifacts:
  - {classifier: osgi.bundle, id: org.example.a, version: 1.0.0, path: plugins/org.example.a_1.0.0.jar}
  - {classifier: osgi.bundle, id: org.example.b, version: 1.5.0, path: plugins/org.example.b_1.5.0}
  - {classifier: osgi.bundle, id: org.example.a.source, version: 1.0.0, path: plugins/org.example.a.source_1.0.0}
`

func writeIURepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, p2.ContentFile), iuContent)
	writeFile(t, filepath.Join(dir, p2.ArtifactsFile), iuArtifacts)
	plugins := filepath.Join(dir, "plugins")
	writeJar(t, filepath.Join(plugins, "org.example.a_1.0.0.jar"), "org.example.a", "1.0.0")
	writeBundle(t, plugins, "org.example.b", "1.5.0", "")
	writeBundle(t, plugins, "org.example.a.source", "1.0.0", "Eclipse-SourceBundle: org.example.a;version=\"1.0.0\"\n")
	return dir
}

// linuxTarget returns a definition with a fixed environment.
func linuxTarget(s *Service, containers ...Container) *Definition {
	def := s.NewTarget()
	def.OS, def.WS, def.Arch = "linux", "gtk", "x86_64"
	def.Containers = containers
	return def
}

func TestIUContainer_Resolve(t *testing.T) {
	t.Parallel()

	repo := writeIURepo(t)
	s := newTestService(t)
	iu := s.NewIUContainer([]p2.Descriptor{{ID: "org.example.a", Version: "1.0.0"}, {ID: "org.example.a.source"}}, []string{repo})
	def := linuxTarget(s, iu)

	var msgs []string
	ctx := WithProgress(context.Background(), func(msg string) { msgs = append(msgs, msg) })

	got, err := iu.ResolveBundles(ctx, def)
	if err != nil {
		t.Fatalf("ResolveBundles() error = %v", err)
	}
	if diff := cmp.Diff([]string{"org.example.a_1.0.0", "org.example.b_1.5.0"}, ids(got)); diff != "" {
		t.Errorf("ResolveBundles() mismatch (-want +got):\n%s", diff)
	}
	for _, b := range got {
		if !strings.HasPrefix(b.Info.Location, s.BundlePool()) {
			t.Errorf("bundle %s located at %s, want inside the pool", b.Info, b.Info.Location)
		}
	}
	if len(msgs) == 0 {
		t.Error("no progress reported")
	}

	src, err := iu.ResolveSourceBundles(context.Background(), def)
	if err != nil {
		t.Fatalf("ResolveSourceBundles() error = %v", err)
	}
	if diff := cmp.Diff([]string{"org.example.a.source_1.0.0"}, ids(src)); diff != "" {
		t.Errorf("ResolveSourceBundles() mismatch (-want +got):\n%s", diff)
	}

	profiles, err := s.Agent().ProfileRegistry()
	if err != nil {
		t.Fatal(err)
	}
	profile, err := profiles.Get(def.ProfileID())
	if err != nil {
		t.Fatalf("profile not saved: %v", err)
	}
	root := iu.ResolvedUnits()[0]
	if profile.UnitProperty(root, p2.PropInstalledIU) != "true" {
		t.Errorf("root unit not marked installed")
	}
	if profile.Property(p2.PropCache) != s.BundlePool() {
		t.Errorf("profile pool = %q, want %q", profile.Property(p2.PropCache), s.BundlePool())
	}
}

func TestIUContainer_Memoized(t *testing.T) {
	t.Parallel()

	repo := writeIURepo(t)
	s := newTestService(t)
	iu := s.NewIUContainer([]p2.Descriptor{{ID: "org.example.a"}}, []string{repo})
	def := linuxTarget(s, iu)

	if iu.ResolvedUnits() != nil {
		t.Fatal("ResolvedUnits() before resolve should be nil")
	}
	first, err := iu.ResolveBundles(context.Background(), def)
	if err != nil {
		t.Fatal(err)
	}
	units := iu.ResolvedUnits()

	writeFile(t, filepath.Join(repo, p2.ContentFile), "name: Emptied\nunits: []\n")
	mgr, err := s.Agent().RepositoryManager()
	if err != nil {
		t.Fatal(err)
	}
	mgr.Invalidate()

	second, err := iu.ResolveBundles(context.Background(), def)
	if err != nil {
		t.Fatalf("second ResolveBundles() error = %v", err)
	}
	if diff := cmp.Diff(unitIDs(units), unitIDs(iu.ResolvedUnits())); diff != "" {
		t.Errorf("ResolvedUnits() changed (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("bundles changed (-first +second):\n%s", diff)
	}

	iu.Forget()
	if iu.ResolvedUnits() != nil {
		t.Error("ResolvedUnits() after Forget should be nil")
	}
}

func unitIDs(us []p2.Unit) []string {
	var out []string
	for _, u := range us {
		out = append(out, u.Key())
	}
	return out
}

func TestIUContainer_Errors(t *testing.T) {
	t.Parallel()

	repo := writeIURepo(t)

	t.Run("missing unit", func(t *testing.T) {
		t.Parallel()
		s := newTestService(t)
		iu := s.NewIUContainer([]p2.Descriptor{{ID: "org.example.nope", Version: "1.0.0"}}, []string{repo})
		_, err := iu.ResolveBundles(context.Background(), linuxTarget(s, iu))
		var mue *p2.MissingUnitError
		if !errors.As(err, &mue) || mue.ID != "org.example.nope" {
			t.Errorf("ResolveBundles() error = %v, want MissingUnitError", err)
		}
	})

	t.Run("unsatisfied requirement", func(t *testing.T) {
		t.Parallel()
		s := newTestService(t)
		iu := s.NewIUContainer([]p2.Descriptor{{ID: "org.example.broken"}}, []string{repo})
		_, err := iu.ResolveBundles(context.Background(), linuxTarget(s, iu))
		var se *p2.StatusError
		if !errors.As(err, &se) {
			t.Errorf("ResolveBundles() error = %v, want StatusError", err)
		}

		// Slicing tolerates what planning rejects.
		iu.SetIncludeMode(false, false)
		got, err := iu.ResolveBundles(context.Background(), linuxTarget(s, iu))
		if err != nil {
			t.Fatalf("sliced ResolveBundles() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("sliced ResolveBundles() = %v, want none", ids(got))
		}
	})

	t.Run("missing services", func(t *testing.T) {
		t.Parallel()
		s, err := NewService(Options{MetadataDir: t.TempDir(), Agent: p2.NewAgent()})
		if err != nil {
			t.Fatal(err)
		}
		iu := s.NewIUContainer([]p2.Descriptor{{ID: "org.example.a"}}, []string{repo})
		_, err = iu.ResolveBundles(context.Background(), linuxTarget(s, iu))
		var svcErr *p2.ServiceError
		if !errors.As(err, &svcErr) {
			t.Errorf("ResolveBundles() error = %v, want ServiceError", err)
		}
	})

	t.Run("unbound container", func(t *testing.T) {
		t.Parallel()
		def, err := Read(strings.NewReader(`<target><locations><location type="InstallableUnit"><unit id="org.example.a"/></location></locations></target>`))
		if err != nil {
			t.Fatal(err)
		}
		_, err = def.ResolveBundles(context.Background())
		var svcErr *p2.ServiceError
		if !errors.As(err, &svcErr) {
			t.Errorf("ResolveBundles() error = %v, want ServiceError", err)
		}
	})
}

func TestIUContainer_Equal(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	units := []p2.Descriptor{{ID: "org.example.a", Version: "1.0.0"}}
	a := s.NewIUContainer(units, []string{"https://repo"})
	b := s.NewIUContainer(units, []string{"https://repo"})
	if !a.Equal(b) {
		t.Error("Equal() = false for identical containers")
	}

	qualified := s.NewIUContainer([]p2.Descriptor{{ID: "com.vendor.org.example.a", Version: "1.0.0"}}, []string{"https://repo"})
	if !a.Equal(qualified) {
		t.Error("Equal() = false for a unit id matching by suffix")
	}
	other := s.NewIUContainer([]p2.Descriptor{{ID: "org.example.a", Version: "1.0.1"}}, []string{"https://repo"})
	if a.Equal(other) {
		t.Error("Equal() = true for a different unit version")
	}

	b.SetIncludeMode(true, true)
	if !a.Equal(b) {
		t.Error("Equal() = false when only the environment flag differs in planner mode")
	}
	b.SetIncludeMode(false, true)
	if a.Equal(b) {
		t.Error("Equal() = true for different include modes")
	}
	c := s.NewIUContainer(units, []string{"https://repo"})
	c.SetIncludeMode(false, false)
	if b.Equal(c) {
		t.Error("Equal() = true for slicers with different environment flags")
	}

	if a.Equal(s.NewDirectoryContainer("https://repo")) {
		t.Error("Equal() = true for a different container type")
	}
}

func TestIUContainer_Location(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	c := s.NewIUContainer([]p2.Descriptor{{ID: "org.example.a"}}, []string{"https://repo"})
	for _, resolve := range []bool{false, true} {
		if loc, err := c.Location(resolve); err != nil || loc != s.BundlePool() {
			t.Errorf("Location(%v) = %q, %v, want %q", resolve, loc, err, s.BundlePool())
		}
	}
}
