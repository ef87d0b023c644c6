package p2

import (
	"path/filepath"
	"sync"
)

// Service names.
const (
	ServicePlanner           = "planner"
	ServiceEngine            = "engine"
	ServiceRepositoryManager = "repository manager"
	ServiceProfileRegistry   = "profile registry"
)

// Agent looks up provisioning services by name.
type Agent struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewAgent returns an agent without services.
func NewAgent() *Agent {
	return &Agent{services: make(map[string]any)}
}

// AgentOptions configures NewDefaultAgent.
type AgentOptions struct {
	// Dir is the provisioning data directory; profiles live in Dir/profiles.
	Dir string
	// Repositories are the known metadata and artifact repositories.
	Repositories []string
}

// NewDefaultAgent returns an agent with the simple planner, engine,
// repository manager and a profile registry under opts.Dir.
func NewDefaultAgent(opts AgentOptions) *Agent {
	repos := NewRepositoryManager(opts.Repositories)
	profiles := NewProfileRegistry(filepath.Join(opts.Dir, "profiles"))

	a := NewAgent()
	a.Register(ServiceRepositoryManager, repos)
	a.Register(ServiceProfileRegistry, profiles)
	a.Register(ServicePlanner, Planner(&SimplePlanner{Repos: repos}))
	a.Register(ServiceEngine, Engine(&SimpleEngine{Repos: repos, Profiles: profiles}))
	return a
}

// Register adds or replaces a service. A nil svc removes it.
func (a *Agent) Register(name string, svc any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if svc == nil {
		delete(a.services, name)
		return
	}
	a.services[name] = svc
}

func (a *Agent) lookup(name string) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.services[name]
}

// Planner returns the planner service.
func (a *Agent) Planner() (Planner, error) {
	if p, ok := a.lookup(ServicePlanner).(Planner); ok {
		return p, nil
	}
	return nil, &ServiceError{Service: ServicePlanner}
}

// Engine returns the engine service.
func (a *Agent) Engine() (Engine, error) {
	if e, ok := a.lookup(ServiceEngine).(Engine); ok {
		return e, nil
	}
	return nil, &ServiceError{Service: ServiceEngine}
}

// RepositoryManager returns the repository manager service.
func (a *Agent) RepositoryManager() (*RepositoryManager, error) {
	if m, ok := a.lookup(ServiceRepositoryManager).(*RepositoryManager); ok && m != nil {
		return m, nil
	}
	return nil, &ServiceError{Service: ServiceRepositoryManager}
}

// ProfileRegistry returns the profile registry service.
func (a *Agent) ProfileRegistry() (*ProfileRegistry, error) {
	if r, ok := a.lookup(ServiceProfileRegistry).(*ProfileRegistry); ok && r != nil {
		return r, nil
	}
	return nil, &ServiceError{Service: ServiceProfileRegistry}
}
