package makerelease

// Step is one state of the release sequence.
type Step int

const (
	StepInit Step = iota
	StepCheckDownstreamReady
	StepCheckPrimaryReady
	StepPromptBumpKind
	StepComputeVersion
	StepWritePrimaryDocuments
	StepCommitPrimary
	StepTagPrimary
	StepPushPrimary
	StepEnterDownstream
	StepBranchDownstream
	StepWriteDownstreamDocuments
	StepUpdateSubmodule
	StepCommitDownstream
	StepPushDownstream
	StepDone
)

var stepNames = [...]string{
	StepInit:                     "init",
	StepCheckDownstreamReady:     "check downstream ready",
	StepCheckPrimaryReady:        "check primary ready",
	StepPromptBumpKind:           "prompt bump kind",
	StepComputeVersion:           "compute version",
	StepWritePrimaryDocuments:    "write primary documents",
	StepCommitPrimary:            "commit primary",
	StepTagPrimary:               "tag primary",
	StepPushPrimary:              "push primary",
	StepEnterDownstream:          "enter downstream",
	StepBranchDownstream:         "branch downstream",
	StepWriteDownstreamDocuments: "write downstream documents",
	StepUpdateSubmodule:          "update submodule",
	StepCommitDownstream:         "commit downstream",
	StepPushDownstream:           "push downstream",
	StepDone:                     "done",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown step"
	}
	return stepNames[s]
}

// Mutating reports whether the step changes files or repository state.
func (s Step) Mutating() bool {
	return s >= StepWritePrimaryDocuments && s <= StepPushDownstream && s != StepEnterDownstream
}

// Journal records progress through the release steps so a halted run can be
// reconciled by hand.
type Journal struct {
	steps     []Step
	completed int
	failed    bool
}

// NewJournal returns a journal over steps, all not yet attempted.
func NewJournal(steps []Step) *Journal {
	return &Journal{steps: steps}
}

// Next returns the step to attempt and whether one remains.
func (j *Journal) Next() (Step, bool) {
	if j.failed || j.completed >= len(j.steps) {
		return 0, false
	}
	return j.steps[j.completed], true
}

// Complete marks the current step as done.
func (j *Journal) Complete() {
	if !j.failed && j.completed < len(j.steps) {
		j.completed++
	}
}

// Fail marks the current step as failed. No later step will be offered.
func (j *Journal) Fail() {
	if j.completed < len(j.steps) {
		j.failed = true
	}
}

// Completed returns the steps that finished successfully, in order.
func (j *Journal) Completed() []Step {
	return append([]Step(nil), j.steps[:j.completed]...)
}

// Failed returns the step that halted the run, if any.
func (j *Journal) Failed() (Step, bool) {
	if !j.failed {
		return 0, false
	}
	return j.steps[j.completed], true
}

// NotAttempted returns the steps after the failure (or after the current
// position) that never ran.
func (j *Journal) NotAttempted() []Step {
	from := j.completed
	if j.failed {
		from++
	}
	if from >= len(j.steps) {
		return nil
	}
	return append([]Step(nil), j.steps[from:]...)
}
