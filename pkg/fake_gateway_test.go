package makerelease

import (
	"strings"
)

type gatewayCall struct {
	repo string
	args []string
}

func (c gatewayCall) String() string {
	return c.repo + ": git " + strings.Join(c.args, " ")
}

// fakeGateway records every call. Commands whose joined args appear in
// failures exit with status 1; locations listed in dirty report changes.
type fakeGateway struct {
	calls    []gatewayCall
	dirty    map[string]bool
	failures map[string]bool
	tags     []string
}

func (g *fakeGateway) StatusIsClean(loc Location) bool {
	g.calls = append(g.calls, gatewayCall{repo: loc.Name, args: []string{"status", "--porcelain"}})
	return !g.dirty[loc.Name]
}

func (g *fakeGateway) Run(loc Location, args ...string) ExecutionResult {
	g.calls = append(g.calls, gatewayCall{repo: loc.Name, args: args})
	if g.failures[strings.Join(args, " ")] {
		return ExecutionResult{ExitCode: 1, Stderr: "fatal: simulated failure"}
	}
	return ExecutionResult{}
}

func (g *fakeGateway) Tags(Location) ([]string, error) {
	return g.tags, nil
}

func (g *fakeGateway) commands() []string {
	out := make([]string, len(g.calls))
	for i, c := range g.calls {
		out[i] = c.String()
	}
	return out
}
