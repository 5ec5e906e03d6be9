// Package makerelease releases an editor extension and propagates the new
// version into the downstream extensions registry.
//
// It provides functionalities for:
//   - Computing the next semantic version for a major, minor or patch bump.
//   - Reading and editing the version field of TOML, YAML and JSON documents in
//     place, keeping key order and untouched content.
//   - Checking that both repositories exist, are the expected ones and have
//     clean working trees before anything is modified.
//   - Committing, tagging and pushing the primary repository, then branching
//     the downstream repository, updating its manifest and extension
//     submodule, committing and pushing the branch for a pull request.
//
// Every git command runs against an explicit Location and its exit status is
// checked; the first failure halts the run and the Journal reports which steps
// completed and which were never attempted.
//
// Usage Example:
//
//	cfg, err := makerelease.LoadConfig("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	wd, _ := os.Getwd()
//	meta, err := makerelease.New(cfg.Resolve(wd), makerelease.WithOutput(os.Stdout)).Run(ctx)
//	if err != nil {
//	    log.Fatalf("release failed: %v", err)
//	}
//	log.Printf("released %s", meta.NewVersion)
package makerelease
