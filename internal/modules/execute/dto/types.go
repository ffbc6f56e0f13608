package dto

type InputFile struct {
	Name    string
	Content []byte
}

type OutputFile struct {
	Name    string
	Content []byte
}

// CommandInput is the sum of accepted command shapes. Exactly one field is
// expected to be set: Batch (already a batch of token lists), Argv (a single
// token list), or Script (shell-like command text, possibly multi-line).
// Batch wins over Argv, Argv over Script.
type CommandInput struct {
	Batch  [][]string
	Argv   []string
	Script string
}

func (c CommandInput) IsZero() bool {
	return len(c.Batch) == 0 && len(c.Argv) == 0 && c.Script == ""
}

// ExecuteInput is the canonical execution configuration.
type ExecuteInput struct {
	InputFiles []InputFile
	Commands   CommandInput
}

// StepResult reports one executed step. Errors carries one slot per attempt,
// nil on success.
type StepResult struct {
	Stdout      []string
	Stderr      []string
	ExitCode    int
	OutputFiles []OutputFile
	InputFiles  []InputFile
	Command     []string
	Errors      []error
}

// ExecuteResult aggregates a whole batch: merged stdout/stderr/errors/output
// files, the per-step results in execution order, the normalized command list
// actually run, and the exit code of the first failing step (0 if none).
type ExecuteResult struct {
	Stdout      []string
	Stderr      []string
	ExitCode    int
	OutputFiles []OutputFile
	Errors      []error
	Results     []StepResult
	Commands    [][]string
	InputFiles  []InputFile
}

type EngineInfo struct {
	Name    string
	Version string
	Formats []string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}
