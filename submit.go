package main

import (
	"os"
	"sort"
	"strconv"

	"github.com/squarefactory/sbatch-governor/config"
	"github.com/squarefactory/sbatch-governor/governor"
	"github.com/squarefactory/sbatch-governor/history"
	"github.com/squarefactory/sbatch-governor/logger"
	"github.com/squarefactory/sbatch-governor/script"
)

type SubmitCommand struct {
	CommonOptions
	In        string   `short:"i" long:"in" description:"job collection (.json, .ini or .cfg)" required:"true"`
	NMax      *int     `long:"nmax" description:"maximum number of queued jobs of the user (default 1000)"`
	Wait      *int     `long:"wait" description:"seconds between two queue checks (default 120)"`
	Partition string   `short:"p" long:"partition" description:"partition used for queue checks and submissions"`
	User      string   `short:"u" long:"user" description:"user whose queue is checked (default current user)"`
	RunAs     string   `long:"run-as" description:"submit as this UNIX user"`
	History   string   `long:"history" description:"file receiving the job names and IDs"`
	Rescue    []string `long:"rescue" description:"only submit the named job (repeatable)"`
}

var submitCommand SubmitCommand

// progress logs how far a run has come.
type progress struct {
	total     int
	submitted int
	finished  int
}

func (p *progress) OnSubmit(name string, jobID int) {
	p.submitted++
	logger.Debugf("%d/%d submitted", p.submitted, p.total)
}

func (p *progress) OnFinish(name string, jobID int, outcome governor.Outcome) {
	p.finished++
	logger.Infof("%d/%d finished, %s (%d) %s", p.finished, p.total, name, jobID, outcome)
}

// governorConfig merges the flags over the configuration file and validates
// the result.
func (x *SubmitCommand) governorConfig(c *config.Config) (governor.Config, string, error) {
	merged := *c
	g := &merged.Governor
	if x.NMax != nil {
		g.NMax = *x.NMax
	}
	if x.Wait != nil {
		g.Wait = *x.Wait
	}
	if x.Partition != "" {
		g.Partition = x.Partition
	}
	if x.User != "" {
		g.User = x.User
	}
	if x.RunAs != "" {
		g.RunAs = x.RunAs
	}
	if x.History != "" {
		merged.History = x.History
	}
	if err := merged.Validate(); err != nil {
		return governor.Config{}, "", err
	}
	return governor.Config{
		Ceiling:      g.NMax,
		PollInterval: g.PollInterval(),
		User:         g.User,
		Partition:    g.Partition,
		RunAs:        g.RunAs,
	}, merged.History, nil
}

func (x *SubmitCommand) Execute(args []string) error {
	c, err := x.load()
	if err != nil {
		return err
	}
	cfg, historyPath, err := x.governorConfig(c)
	if err != nil {
		return err
	}
	jobs, err := script.LoadCollection(x.In, x.Rescue)
	if err != nil {
		return err
	}
	logger.Infof("loaded %d jobs from %s", len(jobs), x.In)

	ctx, stop := signalContext()
	defer stop()

	res, runErr := governor.New(newSlurm(c), cfg, governor.WithObserver(&progress{total: len(jobs)})).Run(ctx, jobs)
	// Whatever got submitted is recorded, even if the run stopped early.
	if historyPath != "" && res != nil {
		if err := history.Save(historyPath, res.JobIDs); err != nil {
			logger.Errorf("failed to save history: %s", err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	if res != nil {
		printSummary(res)
	}
	return runErr
}

func printSummary(res *governor.Result) {
	names := make([]string, 0, len(res.Outcomes))
	for name := range res.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		outcome := res.Outcomes[name]
		if outcome == governor.Succeeded {
			continue
		}
		id := ""
		if jobID, ok := res.JobIDs[name]; ok {
			id = strconv.Itoa(jobID)
		}
		rows = append(rows, []string{name, id, outcome.String()})
	}
	logger.Infof("%d submitted, %d succeeded, %d failed",
		len(res.JobIDs), len(res.Succeeded()), len(res.Failed))
	if len(rows) > 0 {
		printTable(os.Stdout, []string{"JOB NAME", "JOB ID", "OUTCOME"}, rows)
	}
}

func init() {
	parser.AddCommand("submit",
		"Submit a job collection",
		"Submit every job of a collection while keeping the user's queue below --nmax jobs, then wait for all of them to leave the queue",
		&submitCommand)
}
