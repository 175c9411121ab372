package scheduler

import (
	"context"

	"github.com/squarefactory/sbatch-governor/executor"
)

type Executor interface {
	ExecAs(ctx context.Context, user string, cmd []string) (executor.Result, error)
}

type SubmitRequest struct {
	// User is a UNIX User used for impersonation. Empty submits as the
	// current user.
	User string
	// Body of the batch script
	Body string
	// Partition requested with -p, optional.
	Partition string
}

type QueueDepthRequest struct {
	// User whose queued and running jobs are counted. Empty counts the
	// jobs of the current user.
	User string
	// Partition restricts the count, optional.
	Partition string
}

type TerminalStatesRequest struct {
	JobIDs []int
}

// State is a job state as seen by the governor.
type State int

const (
	// StateRunning covers every state in which the job still occupies the
	// queue: pending, running, suspended, requeued...
	StateRunning State = iota
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateSucceeded:
		return "SUCCEEDED"
	default:
		return "FAILED"
	}
}
