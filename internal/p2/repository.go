package p2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raphi011/tp/internal/cache"
)

// Index file names inside a repository location.
const (
	ContentFile   = "content.yml"
	ArtifactsFile = "artifacts.yml"
)

// ErrNoRepository is returned when a location has no repository index.
var ErrNoRepository = errors.New("no repository at location")

// MetadataRepository is a loaded content.yml.
type MetadataRepository struct {
	Location string `yaml:"-"`
	Name     string `yaml:"name"`
	Units    []Unit `yaml:"units"`
}

// Query returns the repository units matching q.
func (r *MetadataRepository) Query(q Query) []Unit {
	return units(r.Units).Query(q)
}

// ArtifactDescriptor maps an artifact key to a path inside the repository.
type ArtifactDescriptor struct {
	ArtifactKey `yaml:",inline"`
	Path        string `yaml:"path"`
}

// ErrInvalidArtifactPath is returned for artifact paths that leave the
// repository location.
var ErrInvalidArtifactPath = errors.New("artifact path outside repository")

func (d ArtifactDescriptor) validate() error {
	if err := d.ArtifactKey.Validate(); err != nil {
		return err
	}
	if !filepath.IsLocal(filepath.FromSlash(d.Path)) {
		return fmt.Errorf("%w: %s: %q", ErrInvalidArtifactPath, d.ArtifactKey, d.Path)
	}
	return nil
}

// ArtifactRepository is a loaded artifacts.yml.
type ArtifactRepository struct {
	Location  string               `yaml:"-"`
	Name      string               `yaml:"name"`
	Artifacts []ArtifactDescriptor `yaml:"artifacts"`
}

// Find returns the descriptor for key.
func (r *ArtifactRepository) Find(key ArtifactKey) (ArtifactDescriptor, bool) {
	for _, a := range r.Artifacts {
		if a.ArtifactKey == key {
			return a, true
		}
	}
	return ArtifactDescriptor{}, false
}

// RepositoryManager loads and caches repositories and keeps the list of
// known repository locations used when a container names none.
type RepositoryManager struct {
	client *http.Client

	mu        sync.Mutex
	known     []string
	metadata  map[string]*MetadataRepository
	artifacts map[string]*ArtifactRepository
}

// NewRepositoryManager returns a manager with the given known locations.
func NewRepositoryManager(known []string) *RepositoryManager {
	return &RepositoryManager{
		client:    &http.Client{Timeout: 60 * time.Second},
		known:     slices.Clone(known),
		metadata:  make(map[string]*MetadataRepository),
		artifacts: make(map[string]*ArtifactRepository),
	}
}

// SetHTTPClient replaces the client used for http(s) locations.
func (m *RepositoryManager) SetHTTPClient(c *http.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = c
}

// Known returns the known repository locations.
func (m *RepositoryManager) Known() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.known)
}

// AddKnown adds a location to the known list if not already present.
func (m *RepositoryManager) AddKnown(loc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.known, loc) {
		m.known = append(m.known, loc)
	}
}

// Invalidate drops cached repositories so the next load re-reads them.
func (m *RepositoryManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata = make(map[string]*MetadataRepository)
	m.artifacts = make(map[string]*ArtifactRepository)
}

// LoadMetadata loads the metadata repository at loc.
func (m *RepositoryManager) LoadMetadata(ctx context.Context, loc string) (*MetadataRepository, error) {
	m.mu.Lock()
	if r, ok := m.metadata[loc]; ok {
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	data, err := m.fetch(ctx, loc, ContentFile)
	if err != nil {
		return nil, err
	}
	repo := &MetadataRepository{}
	if err := yaml.Unmarshal(data, repo); err != nil {
		return nil, fmt.Errorf("parse %s of %s: %w", ContentFile, loc, err)
	}
	for _, u := range repo.Units {
		for _, k := range u.Artifacts {
			if err := k.Validate(); err != nil {
				return nil, fmt.Errorf("%s of %s: unit %s: %w", ContentFile, loc, u.Key(), err)
			}
		}
	}
	repo.Location = loc

	m.mu.Lock()
	m.metadata[loc] = repo
	m.mu.Unlock()
	return repo, nil
}

// LoadArtifacts loads the artifact repository at loc.
func (m *RepositoryManager) LoadArtifacts(ctx context.Context, loc string) (*ArtifactRepository, error) {
	m.mu.Lock()
	if r, ok := m.artifacts[loc]; ok {
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	data, err := m.fetch(ctx, loc, ArtifactsFile)
	if err != nil {
		return nil, err
	}
	repo := &ArtifactRepository{}
	if err := yaml.Unmarshal(data, repo); err != nil {
		return nil, fmt.Errorf("parse %s of %s: %w", ArtifactsFile, loc, err)
	}
	for _, a := range repo.Artifacts {
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("%s of %s: %w", ArtifactsFile, loc, err)
		}
	}
	repo.Location = loc

	m.mu.Lock()
	m.artifacts[loc] = repo
	m.mu.Unlock()
	return repo, nil
}

// MetadataRepositories loads locs, or the known repositories when locs is
// empty. Known locations without a metadata index are skipped.
func (m *RepositoryManager) MetadataRepositories(ctx context.Context, locs []string) ([]*MetadataRepository, error) {
	locs, explicit := m.scope(locs)
	var repos []*MetadataRepository
	for _, loc := range locs {
		repo, err := m.LoadMetadata(ctx, loc)
		if err != nil {
			if !explicit && errors.Is(err, ErrNoRepository) {
				continue
			}
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// ArtifactRepositories loads locs, or the known repositories when locs is
// empty. Locations without an artifact index are skipped since metadata
// and artifacts may live apart.
func (m *RepositoryManager) ArtifactRepositories(ctx context.Context, locs []string) ([]*ArtifactRepository, error) {
	locs, _ = m.scope(locs)
	var repos []*ArtifactRepository
	for _, loc := range locs {
		repo, err := m.LoadArtifacts(ctx, loc)
		if err != nil {
			if errors.Is(err, ErrNoRepository) {
				continue
			}
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func (m *RepositoryManager) scope(locs []string) ([]string, bool) {
	if len(locs) > 0 {
		return locs, true
	}
	return m.Known(), false
}

// isRemote reports whether loc is an http(s) URL.
func isRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// localPath converts a directory location or file: URI to a path.
func localPath(loc string) string {
	if strings.HasPrefix(loc, "file:") {
		if u, err := url.Parse(loc); err == nil && u.Path != "" {
			return filepath.FromSlash(u.Path)
		}
	}
	return loc
}

func (m *RepositoryManager) fetch(ctx context.Context, loc, name string) ([]byte, error) {
	if !isRemote(loc) {
		data, err := os.ReadFile(filepath.Join(localPath(loc), name))
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", loc, ErrNoRepository)
		}
		return data, err
	}

	rc, err := m.get(ctx, joinURL(loc, name))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (m *RepositoryManager) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", u, ErrNoRepository)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", u, resp.Status)
	}
	return resp.Body, nil
}

func joinURL(base, rel string) string {
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + rel
	}
	u.Path = path.Join(u.Path, rel)
	return u.String()
}

// Download copies the artifact described by d from repo into pool.
func (m *RepositoryManager) Download(ctx context.Context, repo *ArtifactRepository, d ArtifactDescriptor, pool *cache.Pool) (string, error) {
	if err := d.validate(); err != nil {
		return "", err
	}
	if isRemote(repo.Location) {
		rc, err := m.get(ctx, joinURL(repo.Location, d.Path))
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return pool.Store(d.ArtifactKey, rc)
	}

	src := filepath.Join(localPath(repo.Location), filepath.FromSlash(d.Path))
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("artifact %s: %w", d.ArtifactKey, err)
	}
	if info.IsDir() {
		return pool.StoreTree(d.ArtifactKey, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return pool.Store(d.ArtifactKey, f)
}
