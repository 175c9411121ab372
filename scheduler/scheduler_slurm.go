package scheduler

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/squarefactory/sbatch-governor/logger"
)

// DefaultChunkSize bounds the number of job IDs handed to one sacct call so
// that the command line stays below the system limit.
const DefaultChunkSize = 1000

var (
	submittedPattern = regexp.MustCompile(`Submitted batch job (\d+)`)
	statePattern     = regexp.MustCompile(`^(\d+)\|([A-Z_]+)`)
)

// activeStates are the sacct states of jobs that still occupy the queue.
var activeStates = map[string]struct{}{
	"PENDING":       {},
	"RUNNING":       {},
	"REQUEUED":      {},
	"REQUEUE_HOLD":  {},
	"REQUEUE_FED":   {},
	"RESIZING":      {},
	"SUSPENDED":     {},
	"COMPLETING":    {},
	"CONFIGURING":   {},
	"SIGNALING":     {},
	"STAGE_OUT":     {},
	"RESV_DEL_HOLD": {},
}

// ParseState classifies a sacct state token. COMPLETED is a success, states
// of jobs still in the queue are running, everything else is a failure.
func ParseState(token string) State {
	if token == "COMPLETED" {
		return StateSucceeded
	}
	if _, ok := activeStates[token]; ok {
		return StateRunning
	}
	return StateFailed
}

type Slurm struct {
	executor  Executor
	adminUser string

	// ChunkSize is the maximum number of job IDs per sacct call.
	ChunkSize int
	// TempDir receives the transient script files; empty uses os.TempDir.
	TempDir string
}

func NewSlurm(
	executor Executor,
	adminUser string,
) *Slurm {
	return &Slurm{
		executor:  executor,
		adminUser: adminUser,
		ChunkSize: DefaultChunkSize,
	}
}

func (s *Slurm) run(ctx context.Context, kind error, user string, cmd ...string) (string, error) {
	res, err := s.executor.ExecAs(ctx, user, cmd)
	if err != nil {
		return res.Stdout, &CommandError{
			Kind:     kind,
			Args:     cmd,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Err:      err,
		}
	}
	return res.Stdout, nil
}

// Submit writes the script body to a transient file and submits it with
// sbatch. It returns the job ID parsed from sbatch's confirmation line.
func (s *Slurm) Submit(ctx context.Context, req *SubmitRequest) (int, error) {
	f, err := os.CreateTemp(s.TempDir, "sbatch_*.sh")
	if err != nil {
		return 0, fmt.Errorf("submit: create script file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(req.Body); err != nil {
		f.Close()
		return 0, fmt.Errorf("submit: write script file: %w", err)
	}
	// sbatch may run as another user.
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return 0, fmt.Errorf("submit: chmod script file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("submit: close script file: %w", err)
	}

	cmd := []string{"sbatch"}
	if req.Partition != "" {
		cmd = append(cmd, "-p", req.Partition)
	}
	cmd = append(cmd, f.Name())

	out, err := s.run(ctx, ErrSubmissionProcess, req.User, cmd...)
	if err != nil {
		logger.Errorf("submit failed: %s", err)
		return 0, err
	}

	match := submittedPattern.FindStringSubmatch(out)
	if match == nil {
		err := fmt.Errorf("%w: %q", ErrSubmissionParse, strings.TrimSpace(out))
		logger.Errorf("submit failed: %s", err)
		return 0, err
	}
	jobID, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrSubmissionParse, err)
	}
	return jobID, nil
}

// QueueDepth counts the queued and running jobs of a user with squeue.
func (s *Slurm) QueueDepth(ctx context.Context, req *QueueDepthRequest) (int, error) {
	cmd := []string{"squeue", "-h", "-o", "%i"}
	if req.User != "" {
		cmd = append(cmd, "-u", req.User)
	} else {
		cmd = append(cmd, "--me")
	}
	if req.Partition != "" {
		cmd = append(cmd, "-p", req.Partition)
	}

	out, err := s.run(ctx, ErrQueryProcess, "", cmd...)
	if err != nil {
		logger.Errorf("QueueDepth failed: %s", err)
		return 0, err
	}

	depth := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			depth++
		}
	}
	return depth, nil
}

// TerminalStates asks sacct for the state of every job, in chunks of at
// most ChunkSize IDs. Every requested job must be reported.
func (s *Slurm) TerminalStates(ctx context.Context, req *TerminalStatesRequest) (map[int]State, error) {
	chunkSize := s.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	states := make(map[int]State, len(req.JobIDs))
	for start := 0; start < len(req.JobIDs); start += chunkSize {
		end := min(start+chunkSize, len(req.JobIDs))
		if err := s.terminalStates(ctx, req.JobIDs[start:end], states); err != nil {
			logger.Errorf("TerminalStates failed: %s", err)
			return nil, err
		}
	}

	for _, id := range req.JobIDs {
		if _, ok := states[id]; !ok {
			err := fmt.Errorf("%w: job %d not reported by sacct", ErrQueryProcess, id)
			logger.Errorf("TerminalStates failed: %s", err)
			return nil, err
		}
	}
	return states, nil
}

func (s *Slurm) terminalStates(ctx context.Context, jobIDs []int, states map[int]State) error {
	ids := make([]string, 0, len(jobIDs))
	for _, id := range jobIDs {
		ids = append(ids, strconv.Itoa(id))
	}

	out, err := s.run(ctx, ErrQueryProcess, "",
		"sacct", "-n", "-X", "-P", "-o", "JobID,State", "-j", strings.Join(ids, ","))
	if err != nil {
		return err
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		match := statePattern.FindStringSubmatch(line)
		if match == nil {
			return fmt.Errorf("%w: %q", ErrStateParse, line)
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			return fmt.Errorf("%w: %q: %s", ErrStateParse, line, err)
		}
		// Later rows describe later attempts of the same job.
		states[id] = ParseState(match[2])
	}
	return nil
}

// HealthCheck runs squeue to check if the controller answers.
func (s *Slurm) HealthCheck(ctx context.Context) error {
	_, err := s.run(ctx, ErrQueryProcess, s.adminUser, "squeue", "-h", "-o", "%i")
	if err != nil {
		logger.Errorf("healthcheck failed: %s", err)
	}
	return err
}
