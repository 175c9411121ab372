package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubmissionProcess means sbatch exited with a non-zero status.
	ErrSubmissionProcess = errors.New("sbatch failed")
	// ErrSubmissionParse means sbatch succeeded without printing a job ID.
	ErrSubmissionParse = errors.New("unexpected sbatch output")
	// ErrQueryProcess means squeue or sacct failed, or sacct did not report
	// a requested job.
	ErrQueryProcess = errors.New("scheduler query failed")
	// ErrStateParse means a sacct row did not match the expected layout.
	ErrStateParse = errors.New("unexpected sacct output")
)

// CommandError describes a failed scheduler command. errors.Is matches both
// its Kind and the underlying process error.
type CommandError struct {
	Kind     error
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" exited with %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
