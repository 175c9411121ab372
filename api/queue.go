package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/squarefactory/sbatch-governor/logger"
	"github.com/squarefactory/sbatch-governor/scheduler"
)

// QueueDepth reports how many jobs a user has queued. Without a user query
// parameter the configured user is used.
func (s *Server) QueueDepth(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		user = s.defaults.User
	}
	partition := r.URL.Query().Get("partition")

	depth, err := s.scheduler.QueueDepth(r.Context(), &scheduler.QueueDepthRequest{
		User:      user,
		Partition: partition,
	})
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error{Error: err.Error()})
		logger.Errorf("queue depth failed: %s", err)
		return
	}
	render.JSON(w, r, Queue{User: user, Partition: partition, Depth: depth})
}
