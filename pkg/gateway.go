package makerelease

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gotest.tools/v3/icmd"
)

// Location names a repository working directory. Every gateway call takes one
// explicitly; nothing depends on the process working directory.
type Location struct {
	Name string
	Path string
}

// ExecutionResult is the outcome of a single delegated command.
type ExecutionResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is set when the command could not be started or exited non-zero.
	Err error
}

// Succeeded reports whether the command ran and exited with status 0.
func (r ExecutionResult) Succeeded() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// Gateway executes source-control operations against a repository location.
type Gateway interface {
	// StatusIsClean reports whether the working tree has no uncommitted changes.
	StatusIsClean(loc Location) bool
	// Run executes one git command in loc. It does not retry and does not
	// interpret the exit status.
	Run(loc Location, args ...string) ExecutionResult
	// Tags lists the tag names of the repository at loc.
	Tags(loc Location) ([]string, error)
}

// GitGateway drives the git binary.
type GitGateway struct {
	// Binary is the git executable; "git" when empty.
	Binary string
}

func (g GitGateway) binary() string {
	if g.Binary == "" {
		return "git"
	}
	return g.Binary
}

// Run implements Gateway.
func (g GitGateway) Run(loc Location, args ...string) ExecutionResult {
	res := icmd.RunCmd(icmd.Cmd{
		Command: append([]string{g.binary()}, args...),
		Dir:     loc.Path,
	})
	out := ExecutionResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout(),
		Stderr:   res.Stderr(),
		Err:      res.Error,
	}
	if out.Err != nil && out.ExitCode == 0 {
		out.ExitCode = -1
	}
	return out
}

// StatusIsClean implements Gateway. A status query that fails counts as not clean.
func (g GitGateway) StatusIsClean(loc Location) bool {
	res := g.Run(loc, "status", "--porcelain")
	return res.Succeeded() && strings.TrimSpace(res.Stdout) == ""
}

// Tags implements Gateway using the repository object database directly.
func (g GitGateway) Tags(loc Location) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(loc.Path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s repository: %w", loc.Name, err)
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags in %s repository: %w", loc.Name, err)
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags in %s repository: %w", loc.Name, err)
	}
	return tags, nil
}
