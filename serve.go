package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/squarefactory/sbatch-governor/api"
	"github.com/squarefactory/sbatch-governor/logger"
)

type ServeCommand struct {
	CommonOptions
	Listen string `short:"l" long:"listen" description:"listen address (default :8080)"`
}

var serveCommand ServeCommand

func (x *ServeCommand) Execute(args []string) error {
	c, err := x.load()
	if err != nil {
		return err
	}
	listen := c.Server.Listen
	if x.Listen != "" {
		listen = x.Listen
	}

	ctx, stop := signalContext()
	defer stop()

	server := api.NewServer(ctx, newSlurm(c), c.Governor, c.Server.DataDir)
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", listen)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// Runs observe ctx and stop at their next poll.
	server.Wait()
	return nil
}

func init() {
	parser.AddCommand("serve",
		"Serve the HTTP API",
		"Start runs in the background and report their progress over HTTP",
		&serveCommand)
}
