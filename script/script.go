// Package script describes a single-task Slurm batch script and renders it
// into the text handed to sbatch.
package script

import (
	"strings"
)

// Option is a single sbatch directive rendered as `#SBATCH --key=value`.
type Option struct {
	Key   string
	Value string
}

// Options keeps sbatch directives in insertion order. The order is part of
// the rendered output.
type Options []Option

// Set replaces the value of key in place or appends a new directive.
func (o *Options) Set(key, value string) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Option{Key: key, Value: value})
}

// Get returns the value of key.
func (o Options) Get(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Value, true
		}
	}
	return "", false
}

// Len returns the number of directives.
func (o Options) Len() int { return len(o) }

// Script is the description of one unit of work: which executable runs with
// which arguments, the sbatch directives, and which files travel between the
// shared file system and the node-local working directory.
type Script struct {
	// Executable is a command name or a path.
	Executable string
	// Arguments are appended verbatim to the executable invocation.
	Arguments string
	Options   Options
	// TransferExecutable copies Executable into the working directory first.
	TransferExecutable  bool
	TransferInputFiles  []string
	TransferOutputFiles []string
}

// New creates a script running executable with arguments.
func New(executable, arguments string) *Script {
	return &Script{
		Executable: executable,
		Arguments:  arguments,
	}
}

// String renders the script without macro substitution. Rendering errors
// cannot occur without macros.
func (s *Script) String() string {
	out, _ := s.Render(nil)
	return out
}

// Equal reports whether a and b render to byte-identical text.
func Equal(a, b *Script) bool {
	if a == nil || b == nil {
		return a == b
	}
	ra, err := a.Render(nil)
	if err != nil {
		return false
	}
	rb, err := b.Render(nil)
	if err != nil {
		return false
	}
	return ra == rb
}

func quoteFiles(files []string) string {
	quoted := make([]string, 0, len(files))
	for _, f := range files {
		quoted = append(quoted, "'"+f+"'")
	}
	return strings.Join(quoted, " ")
}
