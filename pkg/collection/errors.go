package collection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

var (
	// ErrDescriptorNotFound is matched by descriptor errors caused by a missing descriptor
	ErrDescriptorNotFound = repository.ErrNotFound

	// ErrNoVersions is returned when no candidate version satisfies a constraint
	ErrNoVersions = errors.New("no versions available")
)

// DescriptorError reports a failed descriptor read
type DescriptorError struct {
	Artifact     artifact.Artifact
	Repositories []repository.Remote
	Err          error
}

func (e *DescriptorError) Error() string {
	ids := make([]string, 0, len(e.Repositories))
	for _, r := range e.Repositories {
		ids = append(ids, r.ID)
	}
	return fmt.Sprintf("failed to read descriptor for %s from [%s]: %v", e.Artifact, strings.Join(ids, ", "), e.Err)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}

// VersionResolutionError reports a version constraint that could not be resolved
type VersionResolutionError struct {
	Dependency artifact.Dependency
	Constraint string
	Err        error
}

func (e *VersionResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve version %q of %s: %v", e.Constraint, e.Dependency.Artifact.VersionlessKey(), e.Err)
}

func (e *VersionResolutionError) Unwrap() error {
	return e.Err
}

// CollectionError is returned alongside a partial result when any node failed
type CollectionError struct {
	Result *Result
}

func (e *CollectionError) Error() string {
	exs := e.Result.Exceptions()
	switch len(exs) {
	case 0:
		return "dependency collection failed"
	case 1:
		return "dependency collection failed: " + exs[0].Error()
	default:
		return fmt.Sprintf("dependency collection failed with %d errors, first: %v", len(exs), exs[0])
	}
}

// Unwrap exposes every recorded exception to errors.Is and errors.As
func (e *CollectionError) Unwrap() []error {
	return e.Result.Exceptions()
}
