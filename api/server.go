// Package api exposes the governor over HTTP: health and queue depth checks,
// and runs started in the background and polled by ID.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/squarefactory/sbatch-governor/config"
	"github.com/squarefactory/sbatch-governor/governor"
)

type Scheduler interface {
	governor.Scheduler
	HealthCheck(ctx context.Context) error
}

var ErrOutsideDataDir = errors.New("path must be relative to the data directory")

type Server struct {
	ctx       context.Context
	scheduler Scheduler
	defaults  config.Governor
	dataDir   string
	options   []governor.Option
	runs      *Registry
	wg        sync.WaitGroup
}

// NewServer creates a server whose background runs stop when ctx is
// cancelled. Collections and histories named by clients are resolved inside
// dataDir. The options are passed to every governor it starts.
func NewServer(
	ctx context.Context,
	scheduler Scheduler,
	defaults config.Governor,
	dataDir string,
	options ...governor.Option,
) *Server {
	return &Server{
		ctx:       ctx,
		scheduler: scheduler,
		defaults:  defaults,
		dataDir:   dataDir,
		options:   options,
		runs:      NewRegistry(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", s.Health)
	r.Get("/queue", s.QueueDepth)
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.StartRun)
		r.Get("/", s.ListRuns)
		r.Get("/{id}", s.GetRun)
	})
	return r
}

// resolve maps a client path into the data directory. Absolute paths and
// paths escaping it with ".." are refused.
func (s *Server) resolve(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: %q", ErrOutsideDataDir, path)
	}
	return filepath.Join(s.dataDir, path), nil
}

// Wait blocks until every background run has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}
