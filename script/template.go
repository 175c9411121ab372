package script

import (
	"fmt"
	"strings"
	"text/template"
)

// Skeleton is the batch script body. It creates a per-job working
// directory, transfers the executable and input files, runs the executable,
// moves output files back and removes the working directory. Every failing
// phase cleans up and exits with a non-zero status.
const Skeleton = `#!/usr/bin/env bash

{{ range .Options }}#SBATCH --{{ .Key }}={{ .Value }}
{{ end }}
echo "Working on node $(hostname)."
echo "Current directory: $(pwd)"

if [ -z "$SLURM_JOB_ID" ]
then
    workdir="slurm"
else
    workdir="slurm_$SLURM_JOB_ID"
fi

echo 'Create working directory:'
mkdir -v "$workdir" || exit 1

function cleanup() {
    echo 'Remove working directory:'
    cd ..
    rm -rv "$workdir"
}

cd "$workdir"

executable={{ .Executable }}
transfer_executable={{ .TransferExecutable }}

if [ "$transfer_executable" = "true" ]
then
    echo 'Transfer executable to node:'
    if ! cp -v "$executable" .
    then
        cleanup
        exit 1
    fi
    executable=./$(basename "$executable")
fi

inputfiles=({{ .TransferInputFiles }})

echo 'Transfer input files to node:'
status=0
for inputfile in "${inputfiles[@]}"
do
    cp -v "$inputfile" . || status=1
done

if [ $status -ne 0 ]
then
    cleanup
    exit $status
fi

echo 'Execute...'
$executable {{ .Arguments }}

status=$?
if [ $status -ne 0 ]
then
    cleanup
    exit $status
fi

outputfiles=({{ .TransferOutputFiles }})

echo 'Transfer output files:'
status=0
for outputfile in "${outputfiles[@]}"
do
    mv -v "$(basename "$outputfile")" "$outputfile" || status=1
done

cleanup
exit $status
`

var skeleton = template.Must(template.New("skeleton").Parse(Skeleton))

// description holds the already substituted values fed into Skeleton.
type description struct {
	Options             []Option
	Executable          string
	Arguments           string
	TransferExecutable  bool
	TransferInputFiles  string
	TransferOutputFiles string
}

// Render produces the full script text. When macros is non-nil, every
// templated field is substituted first; a slot naming an absent macro
// fails with ErrMissingMacro.
func (s *Script) Render(macros map[string]string) (string, error) {
	var (
		d   description
		err error
	)
	if d.Executable, err = substitute("executable", s.Executable, macros); err != nil {
		return "", err
	}
	if d.Arguments, err = substitute("arguments", s.Arguments, macros); err != nil {
		return "", err
	}
	d.Options = make([]Option, 0, len(s.Options))
	for _, opt := range s.Options {
		value, err := substitute("option "+opt.Key, opt.Value, macros)
		if err != nil {
			return "", err
		}
		d.Options = append(d.Options, Option{Key: opt.Key, Value: value})
	}
	inputs, err := substituteAll("transfer input file", s.TransferInputFiles, macros)
	if err != nil {
		return "", err
	}
	outputs, err := substituteAll("transfer output file", s.TransferOutputFiles, macros)
	if err != nil {
		return "", err
	}
	d.TransferExecutable = s.TransferExecutable
	d.TransferInputFiles = quoteFiles(inputs)
	d.TransferOutputFiles = quoteFiles(outputs)

	var b strings.Builder
	if err := skeleton.Execute(&b, d); err != nil {
		return "", fmt.Errorf("script: render skeleton: %w", err)
	}
	return b.String(), nil
}

func substituteAll(field string, values []string, macros map[string]string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		sub, err := substitute(field, v, macros)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}
