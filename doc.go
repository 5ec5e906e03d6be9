// Package main implements the makerelease CLI tool.
//
// makerelease releases an editor extension that is published through a
// separate extensions registry. Run from the extension's release tooling
// directory, it:
//
//   - checks that the registry and the extension repositories exist and have
//     clean working trees (the extension repository must also contain
//     extension.toml),
//   - asks for the release type (minor, major or patch; minor is the default),
//   - writes the new version into Cargo.toml and extension.toml, commits it as
//     "Bump version to X", tags X and pushes the commit and the tag,
//   - creates the branch update-<extension>-vX in the registry, sets the
//     registry entry's version to X, moves the extension submodule to its
//     latest upstream commit, commits and pushes the branch.
//
// The run halts at the first failing git command. Already completed steps are
// not undone; the CLI prints which steps completed and which never ran.
//
// Command Usage:
//
//	makerelease [flags]
//
// Flags:
//
//	--config:      TOML file describing the repositories and documents.
//	               Defaults to ./makerelease.toml when it exists.
//	--primary:     Path of the extension repository (default "../..").
//	--downstream:  Path of the registry repository
//	               (default "../../../../third-party/zed-extensions").
//	--extension:   Extension name (default "gdscript").
//	--bump:        Release type. Skips the interactive prompt.
//	--dry-run:     Print every change instead of making it.
//	-v, --verbose: Debug logging on stderr.
//	--version:     Print the CLI version and exit.
//
// Every setting except --bump and --dry-run can also come from a
// MAKERELEASE_* environment variable, e.g. MAKERELEASE_DOWNSTREAM_PATH.
//
// Examples:
//
//	# Prompt for the release type
//	makerelease
//
//	# Patch release without prompting
//	makerelease --bump patch
//
//	# See what a minor release would do
//	makerelease --dry-run --bump minor
//
// Exit status is 0 on success, 130 when the prompt is cancelled and 1 for
// any other failure.
//
// For the library API see the "pkg" package.
package main
