package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/squarefactory/sbatch-governor/governor"
	"github.com/squarefactory/sbatch-governor/history"
	"github.com/squarefactory/sbatch-governor/logger"
	"github.com/squarefactory/sbatch-governor/script"
)

// Registry keeps the status of every run started by the server.
type Registry struct {
	mu    sync.RWMutex
	runs  map[string]*RunStatus
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		runs: make(map[string]*RunStatus),
	}
}

func (reg *Registry) add(status *RunStatus) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.runs[status.ID] = status
	reg.order = append(reg.order, status.ID)
}

func (reg *Registry) update(id string, fn func(*RunStatus)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if status, ok := reg.runs[id]; ok {
		fn(status)
	}
}

// Get returns a copy of the status of run id.
func (reg *Registry) Get(id string) (RunStatus, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	status, ok := reg.runs[id]
	if !ok {
		return RunStatus{}, false
	}
	return status.clone(), true
}

// List returns copies of every run status, oldest first.
func (reg *Registry) List() []RunStatus {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]RunStatus, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.runs[id].clone())
	}
	return out
}

type runObserver struct {
	registry *Registry
	id       string
}

func (o *runObserver) OnSubmit(name string, jobID int) {
	o.registry.update(o.id, func(s *RunStatus) { s.onSubmit(name, jobID) })
}

func (o *runObserver) OnFinish(name string, jobID int, outcome governor.Outcome) {
	o.registry.update(o.id, func(s *RunStatus) { s.onFinish(name, jobID, outcome) })
}

// StartRun loads the collection and runs it in the background. The response
// only carries the run ID.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	req := &RunRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}

	logger.DebugObj("run request", req)

	collection, err := s.resolve(req.Collection)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error{Error: err.Error(), Data: req.Collection})
		return
	}
	historyPath := ""
	if req.History != "" {
		if historyPath, err = s.resolve(req.History); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, Error{Error: err.Error(), Data: req.History})
			return
		}
	}

	jobs, err := script.LoadCollection(collection, req.Rescue)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error{Error: err.Error(), Data: req.Collection})
		logger.Errorf("failed to load collection: %s", err)
		return
	}

	config := governor.Config{
		Ceiling:      s.defaults.NMax,
		PollInterval: s.defaults.PollInterval(),
		User:         s.defaults.User,
		Partition:    s.defaults.Partition,
		RunAs:        s.defaults.RunAs,
	}
	if req.NMax != nil {
		config.Ceiling = *req.NMax
	}
	if req.Wait != nil {
		config.PollInterval = time.Duration(*req.Wait) * time.Second
	}
	if req.Partition != "" {
		config.Partition = req.Partition
	}

	status := &RunStatus{
		ID:         uuid.NewString(),
		Collection: req.Collection,
		State:      RunRunning,
		Jobs:       len(jobs),
		JobIDs:     make(map[string]int),
		Failed:     make(map[string]int),
		Outcomes:   make(map[string]string, len(jobs)),
		StartedAt:  time.Now(),
	}
	for name := range jobs {
		status.Outcomes[name] = governor.Pending.String()
	}
	s.runs.add(status)

	s.wg.Add(1)
	go s.execute(s.ctx, status.ID, config, jobs, historyPath)

	logger.Infof("run %s started with %d jobs from %s", status.ID, len(jobs), req.Collection)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, RunCreated{ID: status.ID})
}

func (s *Server) execute(
	ctx context.Context,
	id string,
	config governor.Config,
	jobs map[string]*script.Job,
	historyPath string,
) {
	defer s.wg.Done()

	options := append([]governor.Option{
		governor.WithObserver(&runObserver{registry: s.runs, id: id}),
	}, s.options...)
	res, err := governor.New(s.scheduler, config, options...).Run(ctx, jobs)
	if historyPath != "" && res != nil {
		if herr := history.Save(historyPath, res.JobIDs); herr != nil && err == nil {
			err = herr
		}
	}

	s.runs.update(id, func(status *RunStatus) {
		now := time.Now()
		status.FinishedAt = &now
		if err != nil {
			status.State = RunError
			status.Error = err.Error()
			return
		}
		status.State = RunDone
	})
	if err != nil {
		logger.Errorf("run %s failed: %s", id, err)
		return
	}
	logger.Infof("run %s done", id)
}

func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.runs.List())
}

func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, ok := s.runs.Get(id)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error{Error: "run not found", Data: id})
		return
	}
	render.JSON(w, r, status)
}
