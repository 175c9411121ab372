package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/squarefactory/sbatch-governor/config"
	"github.com/squarefactory/sbatch-governor/executor"
	"github.com/squarefactory/sbatch-governor/logger"
	"github.com/squarefactory/sbatch-governor/scheduler"
)

var parser = flags.NewNamedParser("sbatch-governor", flags.Default&^flags.PrintErrors)

// CommonOptions are accepted by every command.
type CommonOptions struct {
	Config string `long:"config" description:"YAML configuration file (default $CONFIG_PATH)"`
}

func (o CommonOptions) load() (*config.Config, error) {
	return config.Load(o.Config)
}

func newSlurm(c *config.Config) *scheduler.Slurm {
	slurm := scheduler.NewSlurm(&executor.Shell{}, c.Scheduler.AdminUser)
	slurm.ChunkSize = c.Scheduler.ChunkSize
	return slurm
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printHelp(parser *flags.Parser) {
	if parser.Active != nil {
		parser.Command = parser.Active
	}
	var b bytes.Buffer
	parser.WriteHelp(&b)
	fmt.Println(b.String())
}

func main() {
	_, err := parser.Parse()
	if err == nil {
		os.Exit(0)
	}

	switch flagsErr := err.(type) {
	case *flags.Error:
		if flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			os.Exit(0)
		}
		if flagsErr.Type == flags.ErrCommandRequired {
			printHelp(parser)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, flagsErr.Error())
		os.Exit(1)
	default:
		logger.Criticalf("%s", err)
		os.Exit(1)
	}
}
