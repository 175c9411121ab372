package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	"github.com/squarefactory/sbatch-governor/logger"
)

// Result is the captured outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Shell runs commands directly, without an intermediate shell.
type Shell struct {
	// Dir is the working directory of every command; empty keeps the
	// current one.
	Dir string
}

// ExecAs runs cmd, whose first element is the program. When user is
// non-empty the command runs with that user's UID, which requires the calling
// process to be privileged. A non-zero exit is reported through the returned *exec.ExitError while the
// captured output is still returned.
func (s *Shell) ExecAs(ctx context.Context, user string, cmd []string) (Result, error) {
	if len(cmd) == 0 {
		return Result{ExitCode: -1}, errors.New("exec: empty command")
	}
	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	c.Dir = s.Dir
	if user != "" {
		uid, err := lookupUserID(user)
		if err != nil {
			return Result{ExitCode: -1}, err
		}
		c.SysProcAttr = &syscall.SysProcAttr{
			Credential: &syscall.Credential{
				Uid: uid,
			},
		}
	}
	logger.Debugf("exec: %v", c.Args)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	return res, err
}

func lookupUserID(username string) (uint32, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return 0, err
	}

	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, err
	}

	return uint32(uid), nil
}
