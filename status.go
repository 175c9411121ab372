package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/squarefactory/sbatch-governor/history"
	"github.com/squarefactory/sbatch-governor/logger"
	"github.com/squarefactory/sbatch-governor/scheduler"
)

type StatusCommand struct {
	CommonOptions
	History string `long:"history" description:"job history written by submit"`
	Failed  bool   `long:"failed" description:"only list failed jobs"`
}

var statusCommand StatusCommand

func (x *StatusCommand) Execute(args []string) error {
	c, err := x.load()
	if err != nil {
		return err
	}
	path := c.History
	if x.History != "" {
		path = x.History
	}
	if path == "" {
		return fmt.Errorf("status: --history is required")
	}

	jobs, err := history.Load(path)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(jobs))
	ids := make([]int, 0, len(jobs))
	for name, id := range jobs {
		names = append(names, name)
		ids = append(ids, id)
	}
	sort.Strings(names)
	sort.Ints(ids)

	ctx, stop := signalContext()
	defer stop()

	states, err := newSlurm(c).TerminalStates(ctx, &scheduler.TerminalStatesRequest{JobIDs: ids})
	if err != nil {
		return err
	}

	counts := map[scheduler.State]int{}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		state := states[jobs[name]]
		counts[state]++
		if x.Failed && state != scheduler.StateFailed {
			continue
		}
		rows = append(rows, []string{name, strconv.Itoa(jobs[name]), state.String()})
	}
	logger.Infof("%d running, %d succeeded, %d failed",
		counts[scheduler.StateRunning], counts[scheduler.StateSucceeded], counts[scheduler.StateFailed])
	if len(rows) > 0 {
		printTable(os.Stdout, []string{"JOB NAME", "JOB ID", "STATE"}, rows)
	}
	return nil
}

func init() {
	parser.AddCommand("status",
		"Show the state of saved jobs",
		"Query sacct for every job of a history file and classify it as running, succeeded or failed",
		&statusCommand)
}
