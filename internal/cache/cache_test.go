package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var keyA = Key{Classifier: ClassifierBundle, ID: "org.example.a", Version: "1.0.0"}

func TestKey_String(t *testing.T) {
	t.Parallel()

	if got := keyA.String(); got != "osgi.bundle/org.example.a/1.0.0" {
		t.Errorf("String() = %q", got)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	t.Parallel()

	idx, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if idx.Artifacts == nil || len(idx.Artifacts) != 0 {
		t.Errorf("Load() = %+v, want empty initialized index", idx)
	}
}

func TestLoad_Corrupted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(IndexPath(dir), []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	idx, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(idx.Artifacts) != 0 {
		t.Errorf("Load() of corrupted index = %+v, want empty", idx)
	}
}

func TestPool_Store(t *testing.T) {
	t.Parallel()

	pool, err := Open(filepath.Join(t.TempDir(), "pool"))
	if err != nil {
		t.Fatal(err)
	}

	if pool.Contains(keyA) {
		t.Fatal("empty pool should not contain artifact")
	}

	path, err := pool.Store(keyA, strings.NewReader("jar-bytes"))
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	want := filepath.Join(pool.Dir(), "plugins", "org.example.a_1.0.0.jar")
	if path != want {
		t.Errorf("Store() = %q, want %q", path, want)
	}
	if got := pool.ArtifactFile(keyA); got != want {
		t.Errorf("ArtifactFile() = %q, want %q", got, want)
	}

	entries, err := pool.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Size != int64(len("jar-bytes")) {
		t.Errorf("Entries() = %+v", entries)
	}
	if _, err := os.Stat(want + ".tmp"); err == nil {
		t.Error("temp file left behind")
	}
}

func TestPool_StoreTree(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "src")
	if err := os.MkdirAll(filepath.Join(src, "META-INF"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "META-INF", "MANIFEST.MF"), []byte("Bundle-SymbolicName: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pool, err := Open(filepath.Join(t.TempDir(), "pool"))
	if err != nil {
		t.Fatal(err)
	}
	feat := Key{Classifier: ClassifierFeature, ID: "f", Version: "1.0.0"}
	path, err := pool.StoreTree(feat, src)
	if err != nil {
		t.Fatalf("StoreTree() error = %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != "features" {
		t.Errorf("StoreTree() = %q, want under features/", path)
	}
	if _, err := os.Stat(filepath.Join(path, "META-INF", "MANIFEST.MF")); err != nil {
		t.Errorf("manifest not copied: %v", err)
	}
}

func TestPool_RejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  Key
	}{
		{"parent id", Key{Classifier: ClassifierBundle, ID: "../../outside/evil", Version: "1.0.0"}},
		{"dotdot id", Key{Classifier: ClassifierBundle, ID: "..", Version: "1"}},
		{"separator version", Key{Classifier: ClassifierFeature, ID: "f", Version: "1/../../x"}},
		{"backslash id", Key{Classifier: ClassifierBundle, ID: `org\x`, Version: "1"}},
		{"empty version", Key{Classifier: ClassifierBundle, ID: "org.example.a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			pool, err := Open(filepath.Join(root, "pool"))
			if err != nil {
				t.Fatal(err)
			}

			if _, err := pool.Store(tt.key, bytes.NewReader([]byte("jar"))); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Store() error = %v, want ErrInvalidKey", err)
			}

			victim := filepath.Join(root, "keep")
			if err := os.MkdirAll(victim, 0o755); err != nil {
				t.Fatal(err)
			}
			if _, err := pool.StoreTree(tt.key, victim); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("StoreTree() error = %v, want ErrInvalidKey", err)
			}

			entries, err := os.ReadDir(root)
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range entries {
				if e.Name() != "pool" && e.Name() != "keep" {
					t.Errorf("unexpected entry %q next to the pool", e.Name())
				}
			}
			if _, err := os.Stat(victim); err != nil {
				t.Errorf("directory next to the pool removed: %v", err)
			}
		})
	}
}

func TestPool_MissingAndPrune(t *testing.T) {
	t.Parallel()

	pool, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path, err := pool.Store(keyA, strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if pool.ArtifactFile(keyA) != "" {
		t.Error("ArtifactFile() should be empty once the file is gone")
	}
	missing, err := pool.Missing()
	if err != nil || len(missing) != 1 {
		t.Fatalf("Missing() = %+v, %v, want one entry", missing, err)
	}

	n, err := pool.Prune()
	if err != nil || n != 1 {
		t.Errorf("Prune() = %d, %v, want 1, nil", n, err)
	}
	entries, _ := pool.Entries()
	if len(entries) != 0 {
		t.Errorf("Entries() after Prune = %+v, want empty", entries)
	}
}
