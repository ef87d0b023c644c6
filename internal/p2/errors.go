package p2

import "fmt"

// ServiceError is returned when the agent has no implementation of a
// required service.
type ServiceError struct {
	Service string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("provisioning service %q is not available", e.Service)
}

// StatusError carries a non-OK planner or engine status.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Status.Message)
}

// MissingUnitError is returned when no profile or repository has a unit.
type MissingUnitError struct {
	ID      string
	Version string
}

func (e *MissingUnitError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("unable to locate installable unit %s", e.ID)
	}
	return fmt.Sprintf("unable to locate installable unit %s %s", e.ID, e.Version)
}
