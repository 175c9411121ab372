package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/squarefactory/sbatch-governor/logger"
)

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.scheduler.HealthCheck(ctx); err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error{Error: err.Error()})
		logger.Errorf("health failed: %s", err)
		return
	}
	render.JSON(w, r, OK{"ok"})
}
