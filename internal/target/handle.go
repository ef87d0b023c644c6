package target

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/raphi011/tp/internal/storage"
)

// Memento schemes.
const (
	schemeLocal = "local"
	schemeFile  = "file"
)

// LocalDir is the directory under the metadata directory holding local
// target files.
const LocalDir = ".local_targets"

// FileExtension is the extension of target files.
const FileExtension = ".target"

// ErrNoTarget is returned when a handle's file does not exist.
var ErrNoTarget = errors.New("target does not exist")

// Handle identifies a stored target definition.
type Handle interface {
	// Memento returns a string that Service.Handle turns back into an
	// equal handle.
	Memento() string
	// Path returns the file the definition is stored in.
	Path() string
	Exists() bool
}

// LocalHandle is a target stored in the metadata directory, named by a
// creation timestamp in milliseconds.
type LocalHandle struct {
	dir   string
	stamp int64
}

func (h *LocalHandle) Memento() string {
	return schemeLocal + ":" + strconv.FormatInt(h.stamp, 10) + FileExtension
}

func (h *LocalHandle) Path() string {
	return filepath.Join(h.dir, LocalDir, strconv.FormatInt(h.stamp, 10)+FileExtension)
}

func (h *LocalHandle) Exists() bool {
	_, err := os.Stat(h.Path())
	return err == nil
}

// Stamp returns the handle's timestamp.
func (h *LocalHandle) Stamp() int64 { return h.stamp }

func (h *LocalHandle) String() string { return h.Memento() }

// FileHandle is a target stored in a user-visible file.
type FileHandle struct {
	path string
}

func (h *FileHandle) Memento() string {
	u := url.URL{Scheme: schemeFile, Path: filepath.ToSlash(h.path)}
	return u.String()
}

func (h *FileHandle) Path() string { return h.path }

func (h *FileHandle) Exists() bool {
	_, err := os.Stat(h.path)
	return err == nil
}

func (h *FileHandle) String() string { return h.Memento() }

// parseMemento turns a memento into a handle rooted at metadataDir.
func parseMemento(metadataDir, memento string) (Handle, error) {
	scheme, rest, ok := strings.Cut(memento, ":")
	if !ok {
		return nil, fmt.Errorf("invalid target memento %q", memento)
	}
	switch scheme {
	case schemeLocal:
		name, ok := strings.CutSuffix(rest, FileExtension)
		if !ok {
			return nil, fmt.Errorf("invalid local target memento %q", memento)
		}
		stamp, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid local target memento %q: %w", memento, err)
		}
		return &LocalHandle{dir: metadataDir, stamp: stamp}, nil
	case schemeFile:
		u, err := url.Parse(memento)
		if err != nil || u.Path == "" {
			return nil, fmt.Errorf("invalid file target memento %q", memento)
		}
		return &FileHandle{path: filepath.FromSlash(u.Path)}, nil
	default:
		return nil, fmt.Errorf("unknown target memento scheme %q", scheme)
	}
}

// load reads the definition stored for h.
func load(h Handle) (*Definition, error) {
	f, err := os.Open(h.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", h.Memento(), ErrNoTarget)
		}
		return nil, err
	}
	defer f.Close()

	def, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h.Path(), err)
	}
	def.handle = h
	return def, nil
}

// save writes def to the file of its handle.
func save(def *Definition) error {
	var buf bytes.Buffer
	if err := Write(def, &buf); err != nil {
		return err
	}
	return storage.WriteAtomic(def.handle.Path(), buf.Bytes(), 0o644)
}
