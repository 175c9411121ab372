package main

import (
	"fmt"
	"sort"

	"github.com/squarefactory/sbatch-governor/script"
)

type RenderCommand struct {
	CommonOptions
	In  string   `short:"i" long:"in" description:"job collection (.json, .ini or .cfg)"`
	Job []string `short:"j" long:"job" description:"only render the named job (repeatable)"`
	// Script renders a single descriptor without macros.
	Script string `short:"s" long:"script" description:"script descriptor (.json, .yaml or .yml)"`
}

var renderCommand RenderCommand

func (x *RenderCommand) Execute(args []string) error {
	if x.Script != "" {
		s, err := script.Load(x.Script)
		if err != nil {
			return err
		}
		body, err := s.Render(nil)
		if err != nil {
			return err
		}
		fmt.Print(body)
		return nil
	}
	if x.In == "" {
		return fmt.Errorf("render: one of --in or --script is required")
	}

	jobs, err := script.LoadCollection(x.In, x.Job)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		body, err := jobs[name].Render()
		if err != nil {
			return fmt.Errorf("render: job %s: %w", name, err)
		}
		if len(names) > 1 {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("# ---- %s\n", name)
		}
		fmt.Print(body)
	}
	return nil
}

func init() {
	parser.AddCommand("render",
		"Print rendered job scripts",
		"Print the batch scripts of a job collection, or of a single script descriptor, as they would be submitted",
		&renderCommand)
}
