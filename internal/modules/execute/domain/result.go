package domain

import "time"

// InputFile is a named artifact available to a step as input.
type InputFile struct {
	Name    string
	Content []byte
}

// OutputFile is a named artifact produced by a step.
type OutputFile struct {
	Name    string
	Content []byte
}

// CallResult is the raw outcome of one engine invocation.
type CallResult struct {
	Stdout      []string
	Stderr      []string
	ExitCode    int
	OutputFiles []OutputFile
	InputFiles  []InputFile
	Command     Command
}

// StepResult is a CallResult plus per-attempt error slots. Errors holds one
// entry per attempt, nil on success; the alignment is part of the contract.
type StepResult struct {
	CallResult
	Errors []error
}

// Failed reports whether the step carries a non-nil error slot.
func (r StepResult) Failed() bool {
	for _, err := range r.Errors {
		if err != nil {
			return true
		}
	}
	return false
}

// BatchRecord is the run-history projection of one executed batch.
type BatchRecord struct {
	ID         string
	Commands   []Command
	ExitCode   int
	Stderr     string
	StartedAt  time.Time
	FinishedAt time.Time
}
