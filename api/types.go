package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/squarefactory/sbatch-governor/governor"
)

type Error struct {
	Error string `json:"error"`
	Data  string `json:"data,omitempty"`
}

type OK struct {
	Data string `json:"data"`
}

type Queue struct {
	User      string `json:"user,omitempty"`
	Partition string `json:"partition,omitempty"`
	Depth     int    `json:"depth"`
}

// RunRequest starts a run over a job collection. Unset numbers take the
// server defaults.
type RunRequest struct {
	Collection string   `json:"collection"`
	NMax       *int     `json:"nmax,omitempty"`
	Wait       *int     `json:"wait,omitempty"`
	Partition  string   `json:"partition,omitempty"`
	Rescue     []string `json:"rescue,omitempty"`
	History    string   `json:"history,omitempty"`
}

func (req *RunRequest) Bind(r *http.Request) error {
	if req.Collection == "" {
		return errors.New("collection not defined")
	}
	if req.NMax != nil && *req.NMax <= 0 {
		return errors.New("nmax must be positive")
	}
	if req.Wait != nil && *req.Wait <= 0 {
		return errors.New("wait must be positive")
	}
	return nil
}

type RunCreated struct {
	ID string `json:"id"`
}

type RunState string

const (
	RunRunning RunState = "running"
	RunDone    RunState = "done"
	RunError   RunState = "error"
)

type RunStatus struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	State      RunState          `json:"state"`
	Jobs       int               `json:"jobs"`
	Submitted  int               `json:"submitted"`
	Finished   int               `json:"finished"`
	JobIDs     map[string]int    `json:"job_ids"`
	Failed     map[string]int    `json:"failed"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Outcomes   map[string]string `json:"outcomes"`
}

func (s *RunStatus) onSubmit(name string, jobID int) {
	s.Submitted++
	s.JobIDs[name] = jobID
	s.Outcomes[name] = governor.Submitted.String()
}

func (s *RunStatus) onFinish(name string, jobID int, outcome governor.Outcome) {
	s.Finished++
	s.Outcomes[name] = outcome.String()
	if outcome == governor.Failed {
		s.Failed[name] = jobID
	}
}

func (s *RunStatus) clone() RunStatus {
	out := *s
	out.JobIDs = make(map[string]int, len(s.JobIDs))
	for k, v := range s.JobIDs {
		out.JobIDs[k] = v
	}
	out.Failed = make(map[string]int, len(s.Failed))
	for k, v := range s.Failed {
		out.Failed[k] = v
	}
	out.Outcomes = make(map[string]string, len(s.Outcomes))
	for k, v := range s.Outcomes {
		out.Outcomes[k] = v
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
