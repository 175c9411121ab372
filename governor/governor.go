// Package governor releases batch jobs into the Slurm queue while keeping
// the number of queued jobs of a user below a ceiling, and classifies the
// jobs as succeeded or failed once they leave the queue.
package governor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/squarefactory/sbatch-governor/logger"
	"github.com/squarefactory/sbatch-governor/scheduler"
	"github.com/squarefactory/sbatch-governor/script"
)

// Scheduler is the part of the Slurm adapter the governor drives.
type Scheduler interface {
	Submit(ctx context.Context, req *scheduler.SubmitRequest) (int, error)
	QueueDepth(ctx context.Context, req *scheduler.QueueDepthRequest) (int, error)
	TerminalStates(ctx context.Context, req *scheduler.TerminalStatesRequest) (map[int]scheduler.State, error)
}

var (
	ErrInvalidCeiling      = errors.New("governor: ceiling must be positive")
	ErrInvalidPollInterval = errors.New("governor: poll interval must be positive")
)

// Config of one run. The ceiling applies to this run only; concurrent runs
// for the same user do not share headroom.
type Config struct {
	// Ceiling is the maximum number of jobs the user may have queued.
	Ceiling int
	// PollInterval separates two successive queue checks.
	PollInterval time.Duration
	// User whose queue depth is checked; empty means the current user.
	User string
	// Partition scopes both the depth check and the submissions.
	Partition string
	// RunAs impersonates another UNIX user for sbatch; empty submits as
	// the current user.
	RunAs string
}

// Outcome is the state of one job within a run.
type Outcome int

const (
	Pending Outcome = iota
	Submitted
	Succeeded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Submitted:
		return "submitted"
	case Succeeded:
		return "succeeded"
	default:
		return "failed"
	}
}

// Observer is notified of progress. Calls happen on the goroutine running
// the governor.
type Observer interface {
	OnSubmit(name string, jobID int)
	OnFinish(name string, jobID int, outcome Outcome)
}

// Result accumulates the outcome of a run. When Run fails the result only
// covers what happened before the error.
type Result struct {
	// JobIDs maps every submitted job name to its job ID.
	JobIDs map[string]int
	// Failed maps the names of failed jobs to their job IDs.
	Failed map[string]int
	// Outcomes holds the state of every job handed to Run.
	Outcomes map[string]Outcome
}

// Succeeded returns the names and IDs of the jobs that completed.
func (r *Result) Succeeded() map[string]int {
	out := make(map[string]int)
	for name, outcome := range r.Outcomes {
		if outcome == Succeeded {
			out[name] = r.JobIDs[name]
		}
	}
	return out
}

type Governor struct {
	scheduler Scheduler
	config    Config
	observer  Observer
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Governor)

// WithObserver registers o for progress notifications.
func WithObserver(o Observer) Option {
	return func(g *Governor) { g.observer = o }
}

// WithSleep replaces the wait between two polls.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Governor) { g.sleep = sleep }
}

func New(s Scheduler, config Config, opts ...Option) *Governor {
	g := &Governor{
		scheduler: s,
		config:    config,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run holds the working copy of one Run call.
type run struct {
	jobs     map[string]*script.Job
	pending  []string
	inFlight map[int]string
	result   *Result
}

// Run submits every job, never letting the user's queue depth exceed the
// ceiling, and waits until all of them have left the queue. The jobs map is
// not modified. Any scheduler or rendering error aborts the run.
func (g *Governor) Run(ctx context.Context, jobs map[string]*script.Job) (*Result, error) {
	r := &run{
		jobs:     make(map[string]*script.Job, len(jobs)),
		pending:  make([]string, 0, len(jobs)),
		inFlight: make(map[int]string),
		result: &Result{
			JobIDs:   make(map[string]int),
			Failed:   make(map[string]int),
			Outcomes: make(map[string]Outcome, len(jobs)),
		},
	}
	for name, job := range jobs {
		r.jobs[name] = job
		r.pending = append(r.pending, name)
		r.result.Outcomes[name] = Pending
	}
	sort.Strings(r.pending)

	if g.config.Ceiling <= 0 {
		return r.result, ErrInvalidCeiling
	}
	if g.config.PollInterval <= 0 {
		return r.result, ErrInvalidPollInterval
	}

	for len(r.pending) > 0 {
		depth, err := g.scheduler.QueueDepth(ctx, &scheduler.QueueDepthRequest{
			User:      g.config.User,
			Partition: g.config.Partition,
		})
		if err != nil {
			return r.result, fmt.Errorf("governor: queue depth: %w", err)
		}
		admit := min(max(0, g.config.Ceiling-depth), len(r.pending))
		logger.Debugf("queue depth %d/%d, %d pending, admitting %d", depth, g.config.Ceiling, len(r.pending), admit)

		// Headroom opened, so some of our jobs may have left the queue.
		if admit > 0 && len(r.inFlight) > 0 {
			if err := g.reconcile(ctx, r); err != nil {
				return r.result, err
			}
		}

		for i := 0; i < admit; i++ {
			if err := g.submit(ctx, r, r.pending[0]); err != nil {
				return r.result, err
			}
			r.pending = r.pending[1:]
		}

		if len(r.pending) > 0 {
			if err := g.sleep(ctx, g.config.PollInterval); err != nil {
				return r.result, err
			}
		}
	}

	for len(r.inFlight) > 0 {
		if err := g.sleep(ctx, g.config.PollInterval); err != nil {
			return r.result, err
		}
		if err := g.reconcile(ctx, r); err != nil {
			return r.result, err
		}
	}

	logger.Infof("run finished: %d jobs, %d failed", len(r.result.JobIDs), len(r.result.Failed))
	return r.result, nil
}

func (g *Governor) submit(ctx context.Context, r *run, name string) error {
	job := r.jobs[name]
	if job == nil || job.Script == nil {
		return fmt.Errorf("governor: job %s has no script", name)
	}
	body, err := job.Render()
	if err != nil {
		return fmt.Errorf("governor: render job %s: %w", name, err)
	}
	jobID, err := g.scheduler.Submit(ctx, &scheduler.SubmitRequest{
		User:      g.config.RunAs,
		Body:      body,
		Partition: g.config.Partition,
	})
	if err != nil {
		return fmt.Errorf("governor: submit job %s: %w", name, err)
	}

	r.inFlight[jobID] = name
	r.result.JobIDs[name] = jobID
	r.result.Outcomes[name] = Submitted
	logger.Infof("submitted %s as job %d", name, jobID)
	if g.observer != nil {
		g.observer.OnSubmit(name, jobID)
	}
	return nil
}

// reconcile moves every in-flight job that left the queue into the result.
func (g *Governor) reconcile(ctx context.Context, r *run) error {
	ids := make([]int, 0, len(r.inFlight))
	for id := range r.inFlight {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	states, err := g.scheduler.TerminalStates(ctx, &scheduler.TerminalStatesRequest{JobIDs: ids})
	if err != nil {
		return fmt.Errorf("governor: job states: %w", err)
	}

	for _, id := range ids {
		var outcome Outcome
		switch states[id] {
		case scheduler.StateRunning:
			continue
		case scheduler.StateSucceeded:
			outcome = Succeeded
		default:
			outcome = Failed
		}
		name := r.inFlight[id]
		delete(r.inFlight, id)
		r.result.Outcomes[name] = outcome
		if outcome == Failed {
			r.result.Failed[name] = id
			logger.Warningf("job %s (%d) failed", name, id)
		}
		if g.observer != nil {
			g.observer.OnFinish(name, id, outcome)
		}
	}
	return nil
}
