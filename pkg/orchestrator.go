package makerelease

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// PromptTitle is the label of the bump kind selection.
const PromptTitle = "Select release type:"

// ReleaseMeta holds metadata about a release run.
type ReleaseMeta struct {
	OldVersion   string
	NewVersion   string
	BumpKind     string
	Tag          string
	Branch       string
	UpdatedFiles []string // documents written (or that would be written on a dry run)
	DryRun       bool
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithFs sets the filesystem used for documents and existence checks.
func WithFs(fs afero.Fs) Option { return func(o *Orchestrator) { o.fs = fs } }

// WithGateway sets the source-control gateway.
func WithGateway(g Gateway) Option { return func(o *Orchestrator) { o.gateway = g } }

// WithChooser sets the bump kind prompt.
func WithChooser(c Chooser) Option { return func(o *Orchestrator) { o.chooser = c } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithOutput sets where progress lines are printed.
func WithOutput(w io.Writer) Option { return func(o *Orchestrator) { o.out = w } }

// WithDryRun reports the mutating steps instead of performing them.
func WithDryRun(dry bool) Option { return func(o *Orchestrator) { o.dryRun = dry } }

// Orchestrator sequences a release across the primary and downstream
// repositories. It is single use: Run may be called once.
type Orchestrator struct {
	cfg     Config
	fs      afero.Fs
	gateway Gateway
	chooser Chooser
	logger  *log.Logger
	out     io.Writer
	dryRun  bool

	store   *DocumentStore
	checker *PreconditionChecker
	journal *Journal

	primary    Location
	downstream Location
	active     Location
	entered    bool

	kind BumpKind
	next SemanticVersion
	meta ReleaseMeta
}

// New returns an orchestrator for cfg. Defaults: OS filesystem, git gateway,
// terminal prompt, discarded logs and stdout-less output.
func New(cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.gateway == nil {
		o.gateway = GitGateway{}
	}
	if o.chooser == nil {
		o.chooser = NewHuhChooser()
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	if o.out == nil {
		o.out = io.Discard
	}
	o.store = NewDocumentStore(o.fs)
	o.checker = NewPreconditionChecker(o.fs, o.gateway)
	o.primary, o.downstream = cfg.Locations()
	o.active = o.primary
	o.journal = NewJournal([]Step{
		StepInit,
		StepCheckDownstreamReady,
		StepCheckPrimaryReady,
		StepPromptBumpKind,
		StepComputeVersion,
		StepWritePrimaryDocuments,
		StepCommitPrimary,
		StepTagPrimary,
		StepPushPrimary,
		StepEnterDownstream,
		StepBranchDownstream,
		StepWriteDownstreamDocuments,
		StepUpdateSubmodule,
		StepCommitDownstream,
		StepPushDownstream,
		StepDone,
	})
	return o
}

// Journal exposes the step record of the run.
func (o *Orchestrator) Journal() *Journal { return o.journal }

// Run executes every step in order and halts at the first failure. Nothing
// already applied is rolled back; the returned *StepError carries the journal
// so the caller can show which steps completed.
func (o *Orchestrator) Run(ctx context.Context) (ReleaseMeta, error) {
	o.meta.DryRun = o.dryRun
	for {
		step, ok := o.journal.Next()
		if !ok {
			return o.meta, nil
		}
		if err := ctx.Err(); err != nil {
			return o.meta, o.fail(step, err)
		}
		if err := o.perform(step); err != nil {
			return o.meta, o.fail(step, err)
		}
		o.journal.Complete()
		o.logger.Debug("step complete", "step", step)
	}
}

func (o *Orchestrator) fail(step Step, err error) error {
	o.journal.Fail()
	o.logger.Debug("release halted", "step", step, "err", err)
	return &StepError{Step: step, Err: err, Journal: o.journal}
}

func (o *Orchestrator) perform(step Step) error {
	switch step {
	case StepInit:
		return o.cfg.Validate()
	case StepCheckDownstreamReady:
		return o.checker.AssertReady(o.downstream, "")
	case StepCheckPrimaryReady:
		return o.checker.AssertReady(o.primary, o.cfg.Primary.Marker)
	case StepPromptBumpKind:
		return o.promptBumpKind()
	case StepComputeVersion:
		return o.computeVersion()
	case StepWritePrimaryDocuments:
		return o.writePrimaryDocuments()
	case StepCommitPrimary:
		files := make([]string, len(o.cfg.Primary.Documents))
		for i, d := range o.cfg.Primary.Documents {
			files[i] = d.Path
		}
		if err := o.git(append([]string{"add"}, files...)...); err != nil {
			return err
		}
		return o.git("commit", "-m", fmt.Sprintf("Bump version to %s", o.meta.NewVersion))
	case StepTagPrimary:
		if err := o.git("tag", o.meta.Tag); err != nil {
			return err
		}
		if !o.dryRun {
			o.printf("Created git tag: %s\n", o.meta.Tag)
		}
		return nil
	case StepPushPrimary:
		if err := o.git("push"); err != nil {
			return err
		}
		return o.git("push", "--tags")
	case StepEnterDownstream:
		return o.enter(o.downstream)
	case StepBranchDownstream:
		return o.git("checkout", "-b", o.meta.Branch)
	case StepWriteDownstreamDocuments:
		return o.writeDocument(o.downstream, o.cfg.Downstream.Document, o.cfg.DownstreamField())
	case StepUpdateSubmodule:
		return o.git("submodule", "update", "--remote", o.cfg.SubmodulePath())
	case StepCommitDownstream:
		if err := o.git("add", o.cfg.Downstream.Document, o.cfg.SubmodulePath()); err != nil {
			return err
		}
		return o.git("commit", "-m", fmt.Sprintf("Update %s extension to version %s", o.cfg.Extension, o.meta.NewVersion))
	case StepPushDownstream:
		return o.git("push", "-u", o.cfg.Downstream.Remote, o.meta.Branch)
	case StepDone:
		if o.dryRun {
			o.printf("Dry run complete. No files or repositories were modified.\n")
		} else {
			o.printf("Release completed successfully.\n")
		}
		return nil
	}
	return fmt.Errorf("unknown step %d", int(step))
}

func (o *Orchestrator) promptBumpKind() error {
	labels := make([]string, len(BumpOptions))
	for i, k := range BumpOptions {
		labels[i] = k.String()
	}
	choice, err := o.chooser.Choose(PromptTitle, labels, labels[0])
	if err != nil {
		return err
	}
	kind, err := ParseBumpKind(choice)
	if err != nil {
		return err
	}
	o.kind = kind
	o.meta.BumpKind = kind.String()
	return nil
}

// computeVersion derives the new version and verifies, without writing
// anything, that every document to be edited holds its version field and
// that the tag is unused.
func (o *Orchestrator) computeVersion() error {
	source := o.cfg.Primary.Documents[0]
	doc, err := o.store.Load(filepath.Join(o.primary.Path, source.Path))
	if err != nil {
		return err
	}
	raw, err := o.store.VersionField(doc, SplitField(source.Field))
	if err != nil {
		return err
	}
	current, err := ParseSemanticVersion(raw)
	if err != nil {
		return err
	}
	o.next = ComputeNext(current, o.kind)
	o.meta.OldVersion = current.String()
	o.meta.NewVersion = o.next.String()
	o.meta.Tag = o.next.String()
	o.meta.Branch = fmt.Sprintf("update-%s-v%s", o.cfg.Extension, o.next)

	for _, d := range o.cfg.Primary.Documents[1:] {
		if err := o.probe(filepath.Join(o.primary.Path, d.Path), SplitField(d.Field)); err != nil {
			return err
		}
	}
	if err := o.probe(filepath.Join(o.downstream.Path, o.cfg.Downstream.Document), o.cfg.DownstreamField()); err != nil {
		return err
	}

	tags, err := o.gateway.Tags(o.primary)
	if err != nil {
		return err
	}
	if slices.Contains(tags, o.meta.Tag) {
		return &TagExistsError{Tag: o.meta.Tag}
	}
	if newest, ok := newestTag(tags); ok && o.next.Compare(newest) <= 0 {
		o.logger.Warn("new version is not greater than the newest tag", "version", o.next, "newest", newest)
	}

	o.logger.Info("computed release version", "old", o.meta.OldVersion, "new", o.meta.NewVersion, "bump", o.meta.BumpKind)
	return nil
}

func (o *Orchestrator) probe(path string, field []string) error {
	doc, err := o.store.Load(path)
	if err != nil {
		return err
	}
	_, err = o.store.VersionField(doc, field)
	return err
}

func (o *Orchestrator) writePrimaryDocuments() error {
	for _, d := range o.cfg.Primary.Documents {
		if err := o.writeDocument(o.primary, d.Path, SplitField(d.Field)); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) writeDocument(loc Location, rel string, field []string) error {
	if loc != o.active {
		return fmt.Errorf("refusing to edit %s while the %s repository is active", rel, o.active.Name)
	}
	path := filepath.Join(loc.Path, rel)
	doc, err := o.store.Load(path)
	if err != nil {
		return err
	}
	if err := o.store.SetVersionField(doc, field, o.meta.NewVersion); err != nil {
		return err
	}
	o.meta.UpdatedFiles = append(o.meta.UpdatedFiles, path)
	if o.dryRun {
		o.printf("would update %s %s to %s\n", rel, strings.Join(field, "."), o.meta.NewVersion)
		return nil
	}
	if err := o.store.Save(doc); err != nil {
		return err
	}
	o.printf("Updated %s to version %s\n", rel, o.meta.NewVersion)
	return nil
}

// enter moves the active location. It may happen once, from primary to loc.
func (o *Orchestrator) enter(loc Location) error {
	if o.entered || loc == o.active {
		return fmt.Errorf("cannot switch to the %s repository from the %s repository", loc.Name, o.active.Name)
	}
	o.entered = true
	o.active = loc
	o.logger.Info("entering repository", "repo", loc.Name, "path", loc.Path)
	return nil
}

// git runs one command in the active location and escalates a non-zero exit.
func (o *Orchestrator) git(args ...string) error {
	if o.dryRun {
		o.printf("would run in %s: git %s\n", o.active.Name, strings.Join(args, " "))
		return nil
	}
	res := o.gateway.Run(o.active, args...)
	o.logger.Debug("git", "repo", o.active.Name, "args", args, "exit", res.ExitCode)
	if !res.Succeeded() {
		return &CommandError{Location: o.active, Args: args, Result: res}
	}
	return nil
}

func (o *Orchestrator) printf(format string, args ...any) {
	fmt.Fprintf(o.out, format, args...)
}

// IsAborted reports whether err comes from the user cancelling the prompt.
func IsAborted(err error) bool {
	return errors.Is(err, ErrPromptAborted)
}
