package makerelease

import (
	"errors"
	"fmt"
	"strings"
)

// LocationMissingError reports a repository path that does not exist.
type LocationMissingError struct {
	Location Location
}

func (e *LocationMissingError) Error() string {
	return fmt.Sprintf("The %s repository does not exist at %s.", e.Location.Name, e.Location.Path)
}

// MarkerFileMissingError reports an existing directory that lacks the file
// identifying it as the expected repository.
type MarkerFileMissingError struct {
	Location Location
	Marker   string
}

func (e *MarkerFileMissingError) Error() string {
	return fmt.Sprintf("%s not found in the %s repository at %s.", e.Marker, e.Location.Name, e.Location.Path)
}

// DirtyWorkingTreeError reports uncommitted changes in a repository.
type DirtyWorkingTreeError struct {
	Location Location
}

func (e *DirtyWorkingTreeError) Error() string {
	return fmt.Sprintf("The %s git working directory is not clean. Please commit or stash changes before releasing.", e.Location.Name)
}

// IsPrecondition reports whether err stems from a failed readiness check.
func IsPrecondition(err error) bool {
	var (
		missing *LocationMissingError
		marker  *MarkerFileMissingError
		dirty   *DirtyWorkingTreeError
	)
	return errors.As(err, &missing) || errors.As(err, &marker) || errors.As(err, &dirty)
}

// DocumentNotFoundError reports a structured document path that does not exist.
type DocumentNotFoundError struct {
	Path string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %s not found", e.Path)
}

// DocumentParseError reports a document whose content is not well-formed.
type DocumentParseError struct {
	Path string
	Err  error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// MissingFieldError reports a key path absent from a document, or one that
// does not hold a string.
type MissingFieldError struct {
	Path  string
	Field []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("field %q not found in %s", strings.Join(e.Field, "."), e.Path)
}

// TagExistsError reports that the release tag is already present.
type TagExistsError struct {
	Tag string
}

func (e *TagExistsError) Error() string {
	return fmt.Sprintf("tag %s already exists in the primary repository", e.Tag)
}

// CommandError reports a delegated git command that exited unsuccessfully.
type CommandError struct {
	Location Location
	Args     []string
	Result   ExecutionResult
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed in %s repository (exit %d)", strings.Join(e.Args, " "), e.Location.Name, e.Result.ExitCode)
	if detail := strings.TrimSpace(e.Result.Stderr); detail != "" {
		msg += ", detail: " + detail
	} else if e.Result.Err != nil {
		msg += ": " + e.Result.Err.Error()
	}
	return msg
}

// StepError wraps the failure that halted a release at Step.
type StepError struct {
	Step    Step
	Err     error
	Journal *Journal
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
