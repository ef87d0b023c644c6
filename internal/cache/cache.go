package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/raphi011/tp/internal/storage"
)

// Artifact classifiers with a fixed pool folder.
const (
	ClassifierBundle  = "osgi.bundle"
	ClassifierFeature = "org.eclipse.update.feature"
)

// Key identifies an artifact.
type Key struct {
	Classifier string `json:"classifier" yaml:"classifier"`
	ID         string `json:"id" yaml:"id"`
	Version    string `json:"version" yaml:"version"`
}

func (k Key) String() string {
	return k.Classifier + "/" + k.ID + "/" + k.Version
}

// ErrInvalidKey is returned for keys that cannot name a pool file.
var ErrInvalidKey = errors.New("invalid artifact key")

// Validate checks that the id and version of k are usable as a single
// file name component.
func (k Key) Validate() error {
	for _, part := range []string{k.ID, k.Version} {
		if part == "" || part == "." ||
			strings.ContainsAny(part, `/\`) || strings.Contains(part, "..") {
			return fmt.Errorf("%w: %s", ErrInvalidKey, k)
		}
	}
	return nil
}

// Entry is one stored artifact.
type Entry struct {
	Key     Key       `json:"key"`
	File    string    `json:"file"` // relative to the pool directory
	Size    int64     `json:"size,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Index is the pool index stored in .tp-pool.json.
type Index struct {
	Artifacts map[string]*Entry `json:"artifacts,omitempty"`
}

// IndexPath returns the path to the index file for a pool directory.
func IndexPath(dir string) string {
	return filepath.Join(dir, ".tp-pool.json")
}

// LockPath returns the path to the lock file for a pool directory.
func LockPath(dir string) string {
	return filepath.Join(dir, ".tp-pool.lock")
}

// Load loads the index from disk. A missing or corrupted index loads empty;
// artifacts are then downloaded again.
func Load(dir string) (*Index, error) {
	data, err := os.ReadFile(IndexPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{Artifacts: make(map[string]*Entry)}, nil
		}
		return nil, err
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return &Index{Artifacts: make(map[string]*Entry)}, nil
	}
	if idx.Artifacts == nil {
		idx.Artifacts = make(map[string]*Entry)
	}
	return &idx, nil
}

// Save saves the index to disk atomically.
func Save(dir string, idx *Index) error {
	return storage.SaveJSON(IndexPath(dir), idx)
}

// LoadWithLock acquires the pool lock and loads the index.
// Caller must defer unlock() if err == nil.
func LoadWithLock(dir string) (*Index, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	lock := NewFileLock(LockPath(dir))
	if err := lock.Lock(); err != nil {
		return nil, nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	idx, err := Load(dir)
	if err != nil {
		lock.Unlock()
		return nil, nil, fmt.Errorf("failed to load pool index: %w", err)
	}

	unlock := func() { _ = lock.Unlock() }
	return idx, unlock, nil
}

// Pool is a bundle pool rooted at a directory.
type Pool struct {
	dir string
}

// Open returns the pool at dir, creating the directory if needed.
func Open(dir string) (*Pool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bundle pool: %w", err)
	}
	return &Pool{dir: dir}, nil
}

// Dir returns the pool directory.
func (p *Pool) Dir() string {
	return p.dir
}

// ArtifactFile returns the stored file for key, or "" when the pool has no
// usable copy.
func (p *Pool) ArtifactFile(key Key) string {
	idx, err := Load(p.dir)
	if err != nil {
		return ""
	}
	e, ok := idx.Artifacts[key.String()]
	if !ok {
		return ""
	}
	path := filepath.Join(p.dir, e.File)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Contains reports whether the pool has a usable copy of key.
func (p *Pool) Contains(key Key) bool {
	return p.ArtifactFile(key) != ""
}

// relPath returns where key is stored, relative to the pool.
func relPath(key Key, dir bool) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	folder := "binary"
	switch key.Classifier {
	case ClassifierBundle:
		folder = "plugins"
	case ClassifierFeature:
		folder = "features"
	}
	name := key.ID + "_" + key.Version
	if !dir {
		name += ".jar"
	}
	rel := filepath.Join(folder, name)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return rel, nil
}

// Store copies an archived artifact from r into the pool and returns the
// stored path.
func (p *Pool) Store(key Key, r io.Reader) (string, error) {
	rel, err := relPath(key, false)
	if err != nil {
		return "", err
	}
	idx, unlock, err := LoadWithLock(p.dir)
	if err != nil {
		return "", err
	}
	defer unlock()

	dst := filepath.Join(p.dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	tmp := dst + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", err
	}

	idx.Artifacts[key.String()] = &Entry{Key: key, File: rel, Size: n, AddedAt: time.Now().UTC()}
	if err := Save(p.dir, idx); err != nil {
		return "", err
	}
	return dst, nil
}

// StoreTree copies an exploded artifact directory into the pool.
func (p *Pool) StoreTree(key Key, src string) (string, error) {
	rel, err := relPath(key, true)
	if err != nil {
		return "", err
	}
	idx, unlock, err := LoadWithLock(p.dir)
	if err != nil {
		return "", err
	}
	defer unlock()

	dst := filepath.Join(p.dir, rel)
	if err := os.RemoveAll(dst); err != nil {
		return "", err
	}

	var size int64
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		r, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, r)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		n, err := copyFile(path, target)
		size += n
		return err
	})
	if err != nil {
		os.RemoveAll(dst)
		return "", fmt.Errorf("store %s: %w", key, err)
	}

	idx.Artifacts[key.String()] = &Entry{Key: key, File: rel, Size: size, AddedAt: time.Now().UTC()}
	if err := Save(p.dir, idx); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// Entries returns all indexed artifacts sorted by key.
func (p *Pool) Entries() ([]Entry, error) {
	idx, err := Load(p.dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(idx.Artifacts))
	for _, e := range idx.Artifacts {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
	return entries, nil
}

// Missing returns indexed artifacts whose files no longer exist.
func (p *Pool) Missing() ([]Entry, error) {
	entries, err := p.Entries()
	if err != nil {
		return nil, err
	}
	var missing []Entry
	for _, e := range entries {
		if _, err := os.Stat(filepath.Join(p.dir, e.File)); os.IsNotExist(err) {
			missing = append(missing, e)
		}
	}
	return missing, nil
}

// Prune drops index entries whose files no longer exist and returns how
// many were removed.
func (p *Pool) Prune() (int, error) {
	idx, unlock, err := LoadWithLock(p.dir)
	if err != nil {
		return 0, err
	}
	defer unlock()

	removed := 0
	for k, e := range idx.Artifacts {
		if _, err := os.Stat(filepath.Join(p.dir, e.File)); os.IsNotExist(err) {
			delete(idx.Artifacts, k)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, Save(p.dir, idx)
}
