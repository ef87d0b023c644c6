package bundle

import "github.com/raphi011/tp/internal/extreg"

// Scope owns the extension registry for one scan. The registry is created
// on first use; Close releases it and must run on every exit path:
//
//	scope := bundle.NewScope()
//	defer scope.Close()
type Scope struct {
	reg *extreg.Registry
}

// NewScope returns an empty scope. No registry exists until one is needed.
func NewScope() *Scope {
	return &Scope{}
}

// Registry returns the scope's registry, creating it if needed.
func (s *Scope) Registry() *extreg.Registry {
	if s.reg == nil {
		s.reg = extreg.New()
	}
	return s.reg
}

// Active reports whether a registry has been created and not yet released.
func (s *Scope) Active() bool {
	return s.reg != nil
}

// Close releases the registry, if any.
func (s *Scope) Close() error {
	if s.reg == nil {
		return nil
	}
	err := s.reg.Close()
	s.reg = nil
	return err
}
