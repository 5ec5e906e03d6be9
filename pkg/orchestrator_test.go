package makerelease

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	primaryRoot    = "/work/zed-gdscript"
	downstreamRoot = "/work/zed-extensions"

	extensionToml = `id = "gdscript"
name = "GDScript"
version = "1.2.3"
schema_version = 1
`
	registryToml = `[gdscript]
submodule = "extensions/gdscript"
version = "1.2.3"

[gleam]
submodule = "extensions/gleam"
version = "0.2.0"
`
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Primary.Path = primaryRoot
	cfg.Downstream.Path = downstreamRoot
	return cfg
}

func seedRepos(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		primaryRoot + "/Cargo.toml":        cargoToml,
		primaryRoot + "/extension.toml":    extensionToml,
		downstreamRoot + "/extension.toml": registryToml,
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	return fs
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func newTestOrchestrator(fs afero.Fs, gw Gateway, answer string, out *bytes.Buffer, opts ...Option) *Orchestrator {
	base := []Option{
		WithFs(fs),
		WithGateway(gw),
		WithChooser(FixedChooser{Answer: answer}),
		WithOutput(out),
	}
	return New(testConfig(), append(base, opts...)...)
}

func TestRunMinorRelease(t *testing.T) {
	fs := seedRepos(t)
	gw := &fakeGateway{tags: []string{"1.2.3", "1.2.2"}}
	var out bytes.Buffer

	meta, err := newTestOrchestrator(fs, gw, "minor", &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", meta.OldVersion)
	assert.Equal(t, "1.3.0", meta.NewVersion)
	assert.Equal(t, "minor", meta.BumpKind)
	assert.Equal(t, "1.3.0", meta.Tag)
	assert.Equal(t, "update-gdscript-v1.3.0", meta.Branch)
	assert.Equal(t, []string{
		primaryRoot + "/Cargo.toml",
		primaryRoot + "/extension.toml",
		downstreamRoot + "/extension.toml",
	}, meta.UpdatedFiles)

	assert.Contains(t, readFile(t, fs, primaryRoot+"/Cargo.toml"), "version = \"1.3.0\" # bumped by makerelease")
	assert.Contains(t, readFile(t, fs, primaryRoot+"/extension.toml"), "version = \"1.3.0\"")
	registry := readFile(t, fs, downstreamRoot+"/extension.toml")
	assert.Contains(t, registry, "submodule = \"extensions/gdscript\"\nversion = \"1.3.0\"")
	assert.Contains(t, registry, "submodule = \"extensions/gleam\"\nversion = \"0.2.0\"")

	assert.Equal(t, []string{
		"downstream: git status --porcelain",
		"primary: git status --porcelain",
		"primary: git add Cargo.toml extension.toml",
		"primary: git commit -m Bump version to 1.3.0",
		"primary: git tag 1.3.0",
		"primary: git push",
		"primary: git push --tags",
		"downstream: git checkout -b update-gdscript-v1.3.0",
		"downstream: git submodule update --remote extensions/gdscript",
		"downstream: git add extension.toml extensions/gdscript",
		"downstream: git commit -m Update gdscript extension to version 1.3.0",
		"downstream: git push -u origin update-gdscript-v1.3.0",
	}, gw.commands())

	assert.Equal(t, "Updated Cargo.toml to version 1.3.0\n"+
		"Updated extension.toml to version 1.3.0\n"+
		"Created git tag: 1.3.0\n"+
		"Updated extension.toml to version 1.3.0\n"+
		"Release completed successfully.\n", out.String())
}

func TestRunBumpKinds(t *testing.T) {
	tests := map[string]string{
		"major": "2.0.0",
		"minor": "1.3.0",
		"patch": "1.2.4",
		"":      "1.3.0", // default selection
	}
	for answer, expected := range tests {
		fs := seedRepos(t)
		var out bytes.Buffer
		meta, err := newTestOrchestrator(fs, &fakeGateway{}, answer, &out).Run(context.Background())
		require.NoError(t, err, answer)
		assert.Equal(t, expected, meta.NewVersion, answer)
		assert.Equal(t, "update-gdscript-v"+expected, meta.Branch, answer)
	}
}

func TestRunDirtyDownstreamModifiesNothing(t *testing.T) {
	fs := seedRepos(t)
	gw := &fakeGateway{dirty: map[string]bool{"downstream": true}}
	var out bytes.Buffer

	_, err := newTestOrchestrator(fs, gw, "minor", &out).Run(context.Background())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepCheckDownstreamReady, stepErr.Step)
	assert.True(t, IsPrecondition(err))

	assert.Equal(t, cargoToml, readFile(t, fs, primaryRoot+"/Cargo.toml"))
	assert.Equal(t, extensionToml, readFile(t, fs, primaryRoot+"/extension.toml"))
	assert.Equal(t, registryToml, readFile(t, fs, downstreamRoot+"/extension.toml"))
	assert.Equal(t, []string{"downstream: git status --porcelain"}, gw.commands())
	assert.Empty(t, out.String())
}

func TestRunMissingDownstream(t *testing.T) {
	fs := seedRepos(t)
	require.NoError(t, fs.RemoveAll(downstreamRoot))
	gw := &fakeGateway{}

	_, err := newTestOrchestrator(fs, gw, "minor", &bytes.Buffer{}).Run(context.Background())
	var missing *LocationMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "downstream", missing.Location.Name)
	assert.Empty(t, gw.calls)
}

func TestRunMissingMarker(t *testing.T) {
	fs := seedRepos(t)
	require.NoError(t, fs.Remove(primaryRoot+"/extension.toml"))
	gw := &fakeGateway{}

	_, err := newTestOrchestrator(fs, gw, "minor", &bytes.Buffer{}).Run(context.Background())
	var marker *MarkerFileMissingError
	require.ErrorAs(t, err, &marker)
	assert.Equal(t, []string{"downstream: git status --porcelain"}, gw.commands())
	assert.Equal(t, cargoToml, readFile(t, fs, primaryRoot+"/Cargo.toml"))
}

func TestRunHaltsOnFailedCommand(t *testing.T) {
	fs := seedRepos(t)
	gw := &fakeGateway{failures: map[string]bool{"push --tags": true}}
	var out bytes.Buffer

	o := newTestOrchestrator(fs, gw, "patch", &out)
	_, err := o.Run(context.Background())

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepPushPrimary, stepErr.Step)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, []string{"push", "--tags"}, cmdErr.Args)
	assert.Contains(t, err.Error(), "simulated failure")
	assert.False(t, IsPrecondition(err))

	// Nothing after the failing command ran.
	cmds := gw.commands()
	assert.Equal(t, "primary: git push --tags", cmds[len(cmds)-1])
	assert.Equal(t, registryToml, readFile(t, fs, downstreamRoot+"/extension.toml"))

	failed, ok := stepErr.Journal.Failed()
	require.True(t, ok)
	assert.Equal(t, StepPushPrimary, failed)
	assert.Equal(t, StepTagPrimary, stepErr.Journal.Completed()[len(stepErr.Journal.Completed())-1])
	assert.Equal(t, []Step{
		StepEnterDownstream,
		StepBranchDownstream,
		StepWriteDownstreamDocuments,
		StepUpdateSubmodule,
		StepCommitDownstream,
		StepPushDownstream,
		StepDone,
	}, stepErr.Journal.NotAttempted())
	assert.NotContains(t, out.String(), "Release completed successfully.")
}

func TestRunDryRun(t *testing.T) {
	fs := seedRepos(t)
	gw := &fakeGateway{}
	var out bytes.Buffer

	meta, err := newTestOrchestrator(fs, gw, "major", &out, WithDryRun(true)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, meta.DryRun)
	assert.Equal(t, "2.0.0", meta.NewVersion)
	assert.Len(t, meta.UpdatedFiles, 3)

	assert.Equal(t, cargoToml, readFile(t, fs, primaryRoot+"/Cargo.toml"))
	assert.Equal(t, extensionToml, readFile(t, fs, primaryRoot+"/extension.toml"))
	assert.Equal(t, registryToml, readFile(t, fs, downstreamRoot+"/extension.toml"))
	assert.Equal(t, []string{
		"downstream: git status --porcelain",
		"primary: git status --porcelain",
	}, gw.commands())

	assert.Contains(t, out.String(), "would update Cargo.toml package.version to 2.0.0")
	assert.Contains(t, out.String(), "would run in primary: git tag 2.0.0")
	assert.Contains(t, out.String(), "would run in downstream: git push -u origin update-gdscript-v2.0.0")
	assert.Contains(t, out.String(), "Dry run complete.")
}

func TestRunRefusesExistingTag(t *testing.T) {
	fs := seedRepos(t)
	gw := &fakeGateway{tags: []string{"1.3.0"}}

	_, err := newTestOrchestrator(fs, gw, "minor", &bytes.Buffer{}).Run(context.Background())
	var tagErr *TagExistsError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, "1.3.0", tagErr.Tag)
	assert.Equal(t, cargoToml, readFile(t, fs, primaryRoot+"/Cargo.toml"))
	assert.Len(t, gw.calls, 2)
}

func TestRunValidatesDownstreamFieldBeforeWriting(t *testing.T) {
	fs := seedRepos(t)
	require.NoError(t, afero.WriteFile(fs, downstreamRoot+"/extension.toml", []byte("[gleam]\nversion = \"0.2.0\"\n"), 0644))
	gw := &fakeGateway{}

	_, err := newTestOrchestrator(fs, gw, "minor", &bytes.Buffer{}).Run(context.Background())
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"gdscript", "version"}, missing.Field)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepComputeVersion, stepErr.Step)
	assert.Equal(t, cargoToml, readFile(t, fs, primaryRoot+"/Cargo.toml"))
}

func TestRunUnparseableVersion(t *testing.T) {
	fs := seedRepos(t)
	require.NoError(t, afero.WriteFile(fs, primaryRoot+"/Cargo.toml", []byte("[package]\nversion = \"dev\"\n"), 0644))

	_, err := newTestOrchestrator(fs, &fakeGateway{}, "minor", &bytes.Buffer{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid semantic version \"dev\"")
}

type abortingChooser struct{}

func (abortingChooser) Choose(string, []string, string) (string, error) {
	return "", ErrPromptAborted
}

func TestRunPromptAborted(t *testing.T) {
	fs := seedRepos(t)
	gw := &fakeGateway{}
	o := New(testConfig(), WithFs(fs), WithGateway(gw), WithChooser(abortingChooser{}))

	_, err := o.Run(context.Background())
	assert.True(t, IsAborted(err))
	assert.Len(t, gw.calls, 2)
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gw := &fakeGateway{}

	_, err := newTestOrchestrator(seedRepos(t), gw, "minor", &bytes.Buffer{}).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, gw.calls)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Downstream.Path = cfg.Primary.Path
	gw := &fakeGateway{}

	_, err := New(cfg, WithFs(seedRepos(t)), WithGateway(gw), WithChooser(FixedChooser{})).Run(context.Background())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepInit, stepErr.Step)
	assert.Empty(t, gw.calls)
}

func TestEnterOnlyOnce(t *testing.T) {
	o := New(testConfig(), WithGateway(&fakeGateway{}))
	require.NoError(t, o.enter(o.downstream))
	assert.Error(t, o.enter(o.downstream))
	assert.Error(t, o.enter(o.primary))
}

func TestWriteDocumentRequiresActiveLocation(t *testing.T) {
	o := New(testConfig(), WithFs(seedRepos(t)), WithGateway(&fakeGateway{}))
	err := o.writeDocument(o.downstream, "extension.toml", []string{"gdscript", "version"})
	assert.ErrorContains(t, err, "while the primary repository is active")
}
