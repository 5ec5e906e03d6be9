// Package main implements a CLI tool that releases an extension: it bumps the
// version, commits, tags and pushes the extension repository, then opens a
// branch in the extensions registry that points at the new release.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	makerelease "github.com/bcomnes/makerelease/pkg"
)

// Exit codes returned by the CLI.
const (
	exitOK      = 0
	exitFailure = 1
	exitAborted = 130
)

// ExitError carries a process exit code out of a RunE handler.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

type options struct {
	configFile string
	primary    string
	downstream string
	extension  string
	bump       string
	dryRun     bool
	verbose    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Flag parsing and argument errors never reach RunE.
	fmt.Fprintln(stderr, "Error:", err)
	return exitFailure
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "makerelease",
		Short: "Release an extension and open a registry update branch",
		Long: titleStyle.Render("makerelease") + subtitleStyle.Render(" - release an extension and update the registry") + `

Bumps the extension version in every configured document, commits it as
"Bump version to X", tags X and pushes. It then creates the branch
update-<extension>-vX in the extensions registry, sets the registry entry to X,
moves the extension submodule to its latest upstream commit, commits and
pushes the branch.

Both repositories must exist and have clean working trees. Nothing is rolled
back when a step fails; the steps that completed are listed instead.

` + subtitleStyle.Render("Examples:") + `
  makerelease                        Prompt for the release type
  makerelease --bump patch           Release without prompting
  makerelease --dry-run --bump minor Show what a minor release would do`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return release(cmd, opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("makerelease CLI version {{.Version}}\n")

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is ./"+makerelease.DefaultConfigFile+" when present)")
	flags.StringVar(&opts.primary, "primary", "", "path of the extension repository")
	flags.StringVar(&opts.downstream, "downstream", "", "path of the extensions registry repository")
	flags.StringVar(&opts.extension, "extension", "", "extension name used for the registry entry, branch and submodule")
	flags.StringVar(&opts.bump, "bump", "", "release type (major, minor or patch); skips the prompt")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "report every change without modifying files or repositories")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	return cmd
}

func release(cmd *cobra.Command, opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return &ExitError{Code: exitFailure, Err: err}
	}

	var chooser makerelease.Chooser = makerelease.NewHuhChooser()
	if opts.bump != "" {
		kind, err := makerelease.ParseBumpKind(opts.bump)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return &ExitError{Code: exitFailure, Err: err}
		}
		chooser = makerelease.FixedChooser{Answer: kind.String()}
	}

	logger := newLogger(stderr, opts.verbose)
	logger.Debug("configuration", "primary", cfg.Primary.Path, "downstream", cfg.Downstream.Path, "extension", cfg.Extension)

	o := makerelease.New(cfg,
		makerelease.WithLogger(logger),
		makerelease.WithChooser(chooser),
		makerelease.WithOutput(stdout),
		makerelease.WithDryRun(opts.dryRun),
	)
	meta, err := o.Run(cmd.Context())
	if err != nil {
		return reportFailure(stderr, err)
	}

	printSummary(stdout, meta)
	return nil
}

// loadConfig layers command line flags over the config file and resolves
// repository paths against the working directory.
func loadConfig(cmd *cobra.Command, opts options) (makerelease.Config, error) {
	cfg, err := makerelease.LoadConfig(opts.configFile)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("primary") {
		cfg.Primary.Path = opts.primary
	}
	if flags.Changed("downstream") {
		cfg.Downstream.Path = opts.downstream
	}
	if flags.Changed("extension") {
		cfg.Extension = opts.extension
	}
	cwd, err := os.Getwd()
	if err != nil {
		return cfg, fmt.Errorf("failed to determine working directory: %w", err)
	}
	return cfg.Resolve(cwd), nil
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "makerelease",
	})
}

func reportFailure(stderr io.Writer, err error) error {
	if makerelease.IsAborted(err) {
		fmt.Fprintln(stderr, "Release aborted.")
		return &ExitError{Code: exitAborted, Err: err}
	}

	var stepErr *makerelease.StepError
	if !errors.As(err, &stepErr) {
		fmt.Fprintln(stderr, "Error:", err)
		return &ExitError{Code: exitFailure, Err: err}
	}

	// Preconditions fail before anything changed; the bare message is enough.
	if makerelease.IsPrecondition(err) {
		fmt.Fprintln(stderr, "Error:", stepErr.Err)
		return &ExitError{Code: exitFailure, Err: err}
	}

	fmt.Fprintln(stderr, "Error:", err)
	if stepErr.Journal != nil {
		fmt.Fprint(stderr, renderJournal(stderr, stepErr.Journal))
	}
	return &ExitError{Code: exitFailure, Err: err}
}

func printSummary(w io.Writer, meta makerelease.ReleaseMeta) {
	fmt.Fprintf(w, "Old Version: %s\n", meta.OldVersion)
	fmt.Fprintf(w, "New Version: %s\n", meta.NewVersion)
	fmt.Fprintf(w, "Bump Type:   %s\n", meta.BumpKind)
	fmt.Fprintf(w, "Branch:      %s\n", meta.Branch)
	if len(meta.UpdatedFiles) > 0 {
		if meta.DryRun {
			fmt.Fprintln(w, "Files that would be updated:")
		} else {
			fmt.Fprintln(w, "Files updated:")
		}
		for _, f := range meta.UpdatedFiles {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}
