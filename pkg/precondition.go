package makerelease

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// PreconditionChecker verifies a repository is safe to mutate.
type PreconditionChecker struct {
	fs      afero.Fs
	gateway Gateway
}

// NewPreconditionChecker returns a checker using fs for existence checks and
// gateway for the working tree status. A nil fs means the OS filesystem.
func NewPreconditionChecker(fs afero.Fs, gateway Gateway) *PreconditionChecker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &PreconditionChecker{fs: fs, gateway: gateway}
}

// AssertReady checks, in order and stopping at the first failure, that loc
// exists, that requiredFile (when non-empty) is present in it, and that its
// working tree is clean.
func (c *PreconditionChecker) AssertReady(loc Location, requiredFile string) error {
	exists, err := afero.Exists(c.fs, loc.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", loc.Path, err)
	}
	if !exists {
		return &LocationMissingError{Location: loc}
	}

	if requiredFile != "" {
		found, err := afero.Exists(c.fs, filepath.Join(loc.Path, requiredFile))
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", requiredFile, err)
		}
		if !found {
			return &MarkerFileMissingError{Location: loc, Marker: requiredFile}
		}
	}

	if !c.gateway.StatusIsClean(loc) {
		return &DirtyWorkingTreeError{Location: loc}
	}
	return nil
}
