package monover

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Only ErrRepositoryNotFound is
// fatal for a whole multi-project run; everything else is recovered locally
// or isolated to the affected project.
var (
	// ErrRepositoryNotFound means the path does not contain a Git repository.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrEmptyHistory means the repository has no commits yet. Treated as
	// "no base tag", never fatal.
	ErrEmptyHistory = errors.New("repository has no commits")

	// ErrGroupConflict means a project is matched by more than one version
	// group. Fatal for that project only.
	ErrGroupConflict = errors.New("conflicting version group membership")

	// ErrShallowHistory means the walk hit the shallow-clone boundary before
	// finding a base tag.
	ErrShallowHistory = errors.New("history truncated by shallow clone")
)

// ProjectError wraps a failure resolving one project so sibling projects in
// the same run keep resolving.
type ProjectError struct {
	Project string
	Err     error
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("resolving project %q: %v", e.Project, e.Err)
}

func (e *ProjectError) Unwrap() error {
	return e.Err
}
