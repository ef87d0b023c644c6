package target

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphi011/tp/internal/bundle"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeBundle creates an exploded bundle <dir>/<name>_<version>.
func writeBundle(t *testing.T, dir, name, version, extra string) string {
	t.Helper()
	root := filepath.Join(dir, name+"_"+version)
	writeFile(t, filepath.Join(root, "META-INF", "MANIFEST.MF"),
		"Manifest-Version: 1.0\nBundle-SymbolicName: "+name+"\nBundle-Version: "+version+"\n"+extra)
	return root
}

// writeJar creates an archived bundle at path.
func writeJar(t *testing.T, path, name, version string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("META-INF/MANIFEST.MF")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("Bundle-SymbolicName: " + name + "\nBundle-Version: " + version + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(Options{MetadataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// ids returns name_version for each bundle.
func ids(bundles []bundle.Resolved) []string {
	var out []string
	for _, b := range bundles {
		out = append(out, b.Info.String())
	}
	return out
}
