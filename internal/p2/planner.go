package p2

import (
	"context"
	"fmt"
	"strings"
)

// Status is the outcome of planning or performing. The zero value is OK.
type Status struct {
	Failed  bool
	Message string
}

// IsOK reports whether the status carries no failure.
func (s Status) IsOK() bool {
	return !s.Failed
}

func errorStatus(format string, args ...any) Status {
	return Status{Failed: true, Message: fmt.Sprintf(format, args...)}
}

// ChangeRequest describes changes to apply to a profile.
type ChangeRequest struct {
	Profile        *Profile
	Additions      []Unit
	UnitProperties []UnitPropertyOperand
	Properties     []PropertyOperand
}

// NewChangeRequest returns an empty request against p.
func NewChangeRequest(p *Profile) *ChangeRequest {
	return &ChangeRequest{Profile: p}
}

// Add requests installation of units.
func (r *ChangeRequest) Add(us ...Unit) {
	r.Additions = append(r.Additions, us...)
}

// SetUnitProperty requests a property on an installed unit.
func (r *ChangeRequest) SetUnitProperty(u Unit, key, value string) {
	r.UnitProperties = append(r.UnitProperties, UnitPropertyOperand{Unit: u, Key: key, Value: value})
}

// SetProperty requests a profile property.
func (r *ChangeRequest) SetProperty(key, value string) {
	r.Properties = append(r.Properties, PropertyOperand{Key: key, Value: value})
}

// Operand is one step of a plan.
type Operand interface {
	operand()
}

// InstallOperand installs a unit.
type InstallOperand struct {
	Unit Unit
}

// UnitPropertyOperand sets a property on an installed unit.
type UnitPropertyOperand struct {
	Unit  Unit
	Key   string
	Value string
}

// PropertyOperand sets a profile property.
type PropertyOperand struct {
	Key   string
	Value string
}

func (InstallOperand) operand()      {}
func (UnitPropertyOperand) operand() {}
func (PropertyOperand) operand()     {}

// Plan is a planner result.
type Plan struct {
	Status   Status
	Operands []Operand
}

// Units returns the units the plan installs.
func (p *Plan) Units() []Unit {
	var out []Unit
	for _, op := range p.Operands {
		if in, ok := op.(InstallOperand); ok {
			out = append(out, in.Unit)
		}
	}
	return out
}

// ProvisioningContext scopes planning and performing to repositories and an
// environment. Empty repository lists mean the manager's known repositories.
type ProvisioningContext struct {
	MetadataRepositories []string
	ArtifactRepositories []string

	// Environment holds os, ws and arch values units are filtered by.
	// A nil environment accepts units for every platform.
	Environment map[string]string

	// Permissive plans follow every requirement that can be satisfied and
	// ignore the rest instead of failing.
	Permissive bool
}

// Planner computes a plan for a change request.
type Planner interface {
	GetPlan(ctx context.Context, req *ChangeRequest, pc ProvisioningContext) (*Plan, error)
}

// SimplePlanner computes the requirement closure of the requested units
// against the profile and the context's metadata repositories, picking the
// newest matching unit for each requirement.
type SimplePlanner struct {
	Repos *RepositoryManager
}

// GetPlan implements Planner. Repository load failures are returned as
// errors; unsatisfiable requirements produce a failed plan status.
func (p *SimplePlanner) GetPlan(ctx context.Context, req *ChangeRequest, pc ProvisioningContext) (*Plan, error) {
	var repos []Queryable
	if p.Repos != nil {
		loaded, err := p.Repos.MetadataRepositories(ctx, pc.MetadataRepositories)
		if err != nil {
			return nil, err
		}
		for _, r := range loaded {
			repos = append(repos, r)
		}
	}

	var installed Queryable = units(nil)
	if req.Profile != nil {
		installed = req.Profile
	}
	available := Compound(repos...)

	var (
		selected []Unit
		chosen   = make(map[string]bool)
		missing  []string
	)
	choose := func(u Unit) {
		if !chosen[u.Key()] {
			chosen[u.Key()] = true
			selected = append(selected, u)
		}
	}

	for _, u := range req.Additions {
		if !u.Filter.Matches(pc.Environment) && !pc.Permissive {
			missing = append(missing, fmt.Sprintf("%s is not applicable to the target environment", u))
			continue
		}
		choose(u)
	}

	for i := 0; i < len(selected); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := selected[i]
		for _, r := range u.Requires {
			if !r.Filter.Matches(pc.Environment) {
				continue
			}
			if r.Optional && !pc.Permissive {
				continue
			}
			ok, err := satisfiedBy(selected, r)
			if err != nil {
				return nil, err
			}
			if ok {
				continue
			}
			if hits, err := candidates(installed, r, pc.Environment); err != nil {
				return nil, err
			} else if len(hits) > 0 {
				continue
			}
			hits, err := candidates(available, r, pc.Environment)
			if err != nil {
				return nil, err
			}
			if len(hits) == 0 {
				if !r.Optional && !pc.Permissive {
					missing = append(missing, fmt.Sprintf("%s requires %s", u, r))
				}
				continue
			}
			choose(Newest(hits))
		}
	}

	if len(missing) > 0 {
		return &Plan{Status: errorStatus("cannot complete the request: %s", strings.Join(missing, "; "))}, nil
	}

	plan := &Plan{}
	for _, u := range selected {
		if req.Profile != nil && req.Profile.Contains(u) {
			continue
		}
		plan.Operands = append(plan.Operands, InstallOperand{Unit: u})
	}
	for _, op := range req.UnitProperties {
		plan.Operands = append(plan.Operands, op)
	}
	for _, op := range req.Properties {
		plan.Operands = append(plan.Operands, op)
	}
	return plan, nil
}

func satisfiedBy(us []Unit, r Requirement) (bool, error) {
	for _, u := range us {
		ok, err := u.Satisfies(r)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func candidates(q Queryable, r Requirement, env map[string]string) ([]Unit, error) {
	var (
		out  []Unit
		qerr error
	)
	q.Query(func(u Unit) bool {
		if qerr != nil || !u.Filter.Matches(env) {
			return false
		}
		ok, err := u.Satisfies(r)
		if err != nil {
			qerr = err
			return false
		}
		if ok {
			out = append(out, u)
		}
		return ok
	})
	return out, qerr
}

// Slice returns the closure of roots over source, following every
// requirement, optional ones included, that source can satisfy. Unmet
// requirements are ignored. A nil env accepts every platform.
func Slice(source Queryable, roots []Unit, env map[string]string) ([]Unit, error) {
	var (
		out  []Unit
		seen = make(map[string]bool)
	)
	for _, u := range roots {
		if !seen[u.Key()] {
			seen[u.Key()] = true
			out = append(out, u)
		}
	}
	for i := 0; i < len(out); i++ {
		for _, r := range out[i].Requires {
			if !r.Filter.Matches(env) {
				continue
			}
			hits, err := candidates(source, r, env)
			if err != nil {
				return nil, err
			}
			for _, h := range hits {
				if !seen[h.Key()] {
					seen[h.Key()] = true
					out = append(out, h)
				}
			}
		}
	}
	return out, nil
}
