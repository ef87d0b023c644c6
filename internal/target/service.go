package target

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/raphi011/tp/internal/p2"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/storage"
	"github.com/raphi011/tp/internal/variables"
)

// Options configures a Service.
type Options struct {
	// MetadataDir holds local targets, the target registry and provisioning
	// data. Required.
	MetadataDir string
	// BundlePool is where provisioned artifacts are stored.
	// Defaults to MetadataDir/p2/pool.
	BundlePool string
	// Repositories are the known repositories for installable unit
	// locations that name none.
	Repositories []string
	// Variables are added to the substitution variables.
	Variables map[string]string
	// Agent provides the provisioning services. Defaults to
	// p2.NewDefaultAgent over MetadataDir/p2.
	Agent *p2.Agent
}

// Service creates containers and definitions and stores definitions.
type Service struct {
	dir   string
	pool  string
	vars  *variables.Manager
	agent *p2.Agent

	mu        sync.Mutex
	lastStamp int64
}

// NewService returns a service for opts.
func NewService(opts Options) (*Service, error) {
	if opts.MetadataDir == "" {
		return nil, errors.New("metadata directory is required")
	}
	dir, err := filepath.Abs(opts.MetadataDir)
	if err != nil {
		return nil, err
	}
	pool := opts.BundlePool
	if pool == "" {
		pool = filepath.Join(dir, "p2", "pool")
	}

	vars := variables.New()
	vars.Set("tp_metadata", dir)
	vars.SetAll(opts.Variables)

	agent := opts.Agent
	if agent == nil {
		agent = p2.NewDefaultAgent(p2.AgentOptions{Dir: filepath.Join(dir, "p2"), Repositories: opts.Repositories})
	}
	return &Service{dir: dir, pool: pool, vars: vars, agent: agent}, nil
}

var (
	defaultOnce sync.Once
	defaultSvc  *Service
	defaultErr  error
)

// Default returns the process-wide service over the tp metadata directory.
func Default() (*Service, error) {
	defaultOnce.Do(func() {
		dir, err := storage.TpDir()
		if err != nil {
			defaultErr = err
			return
		}
		defaultSvc, defaultErr = NewService(Options{MetadataDir: dir})
	})
	return defaultSvc, defaultErr
}

// MetadataDir returns the metadata directory.
func (s *Service) MetadataDir() string { return s.dir }

// BundlePool returns the bundle pool directory.
func (s *Service) BundlePool() string { return s.pool }

// Variables returns the substitution variables.
func (s *Service) Variables() *variables.Manager { return s.vars }

// Agent returns the provisioning agent.
func (s *Service) Agent() *p2.Agent { return s.agent }

// NewDirectoryContainer returns a container over the bundles in path.
func (s *Service) NewDirectoryContainer(path string) *DirectoryContainer {
	return &DirectoryContainer{base: base{svc: s}, path: path}
}

// NewFeatureContainer returns a container over the plugins of feature id in
// the installation at home. An empty version selects the newest feature.
func (s *Service) NewFeatureContainer(home, id, version string) *FeatureContainer {
	return &FeatureContainer{base: base{svc: s}, home: home, id: id, version: version}
}

// NewProfileContainer returns a container over the installation at home.
// An empty configuration means home/configuration.
func (s *Service) NewProfileContainer(home, configuration string) *ProfileContainer {
	return &ProfileContainer{base: base{svc: s}, home: home, configuration: configuration}
}

// NewIUContainer returns a container over installable units from
// repositories, or from the known repositories when none are given.
func (s *Service) NewIUContainer(units []p2.Descriptor, repositories []string) *IUContainer {
	return &IUContainer{
		base:               base{svc: s},
		units:              slices.Clone(units),
		repositories:       slices.Clone(repositories),
		includeAllRequired: true,
	}
}

// NewTarget returns an empty definition with a new local handle.
func (s *Service) NewTarget() *Definition {
	return &Definition{handle: &LocalHandle{dir: s.dir, stamp: s.nextStamp()}}
}

// NewFileTarget returns an empty definition stored at path.
func (s *Service) NewFileTarget(path string) (*Definition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Definition{handle: &FileHandle{path: abs}}, nil
}

// nextStamp returns a timestamp newer than any handed out before and not
// used by an existing local target.
func (s *Service) nextStamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp := time.Now().UnixMilli()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	for (&LocalHandle{dir: s.dir, stamp: stamp}).Exists() {
		stamp++
	}
	s.lastStamp = stamp
	return stamp
}

// Handle parses a handle memento.
func (s *Service) Handle(memento string) (Handle, error) {
	return parseMemento(s.dir, memento)
}

// Target loads the definition named by memento.
func (s *Service) Target(memento string) (*Definition, error) {
	h, err := s.Handle(memento)
	if err != nil {
		return nil, err
	}
	return s.Load(h)
}

// Load reads the definition stored for h.
func (s *Service) Load(h Handle) (*Definition, error) {
	def, err := load(h)
	if err != nil {
		return nil, err
	}
	s.bind(def)
	return def, nil
}

func (s *Service) bind(def *Definition) {
	for _, c := range def.Containers {
		c.bind(s)
	}
}

// Save stores def and records it in the target registry.
func (s *Service) Save(def *Definition) error {
	if def.handle == nil {
		return errors.New("target has no handle")
	}
	if err := save(def); err != nil {
		return fmt.Errorf("save target %s: %w", def.Name, err)
	}
	reg, unlock, err := registry.LoadWithLock(s.dir)
	if err != nil {
		return err
	}
	defer unlock()
	reg.Put(registry.Target{Memento: def.handle.Memento(), Name: def.Name})
	return reg.Save()
}

// Delete removes the target from the registry. Local target files are
// deleted; user files are left in place.
func (s *Service) Delete(h Handle) error {
	if _, ok := h.(*LocalHandle); ok {
		if err := os.Remove(h.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	reg, unlock, err := registry.LoadWithLock(s.dir)
	if err != nil {
		return err
	}
	defer unlock()
	reg.Remove(h.Memento())
	if reg.Active == h.Memento() {
		reg.Active = ""
	}
	return reg.Save()
}

// Targets returns the handles of all local targets and registered target
// files, local ones first in creation order.
func (s *Service) Targets() ([]Handle, error) {
	var handles []Handle
	seen := make(map[string]bool)

	entries, err := os.ReadDir(filepath.Join(s.dir, LocalDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var stamps []int64
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), FileExtension)
		if !ok || e.IsDir() {
			continue
		}
		if stamp, err := strconv.ParseInt(name, 10, 64); err == nil {
			stamps = append(stamps, stamp)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	for _, stamp := range stamps {
		h := &LocalHandle{dir: s.dir, stamp: stamp}
		seen[h.Memento()] = true
		handles = append(handles, h)
	}

	reg, err := registry.Load(s.dir)
	if err != nil {
		return nil, err
	}
	for _, t := range reg.Targets {
		if seen[t.Memento] {
			continue
		}
		h, err := s.Handle(t.Memento)
		if err != nil {
			continue
		}
		if _, ok := h.(*LocalHandle); ok && !h.Exists() {
			continue
		}
		seen[t.Memento] = true
		handles = append(handles, h)
	}
	return handles, nil
}

// Copy replaces the content of to with a copy of from. The handle of to is
// kept; containers are duplicated.
func (s *Service) Copy(from, to *Definition) error {
	var buf bytes.Buffer
	if err := Write(from, &buf); err != nil {
		return err
	}
	dup, err := Read(&buf)
	if err != nil {
		return err
	}
	dup.handle = to.handle
	s.bind(dup)
	*to = *dup
	return nil
}

// Active returns the handle of the active target, or nil when none is set.
func (s *Service) Active() (Handle, error) {
	reg, err := registry.Load(s.dir)
	if err != nil {
		return nil, err
	}
	if reg.Active == "" {
		return nil, nil
	}
	return s.Handle(reg.Active)
}

// SetActive makes h the active target. A nil handle clears it.
func (s *Service) SetActive(h Handle) error {
	reg, unlock, err := registry.LoadWithLock(s.dir)
	if err != nil {
		return err
	}
	defer unlock()
	reg.Active = ""
	if h != nil {
		reg.Active = h.Memento()
	}
	return reg.Save()
}
