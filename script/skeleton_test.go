package script_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/squarefactory/sbatch-governor/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testExecutable = `#!/bin/sh
in=""
out=""
fail=0
while [ $# -gt 0 ]; do
    case "$1" in
        --in) in="$2"; shift 2 ;;
        --out) out="$2"; shift 2 ;;
        --fail) fail=1; shift ;;
        *) shift ;;
    esac
done
if [ $fail -eq 1 ]; then
    echo "simulated failure" >&2
    exit 1
fi
if [ -n "$in" ]; then
    cat "$in" || exit 1
fi
if [ -n "$out" ]; then
    echo "test output" > "$out"
fi
exit 0
`

// SkeletonTestSuite runs rendered scripts locally with bash and checks the
// exit code and working directory cleanup.
type SkeletonTestSuite struct {
	suite.Suite
	workdir    string
	executable string
	inputfile  string
	outputfile string
}

func (suite *SkeletonTestSuite) SetupSuite() {
	if _, err := exec.LookPath("bash"); err != nil {
		suite.T().Skip("bash not available")
	}
}

func (suite *SkeletonTestSuite) BeforeTest(suiteName, testName string) {
	suite.workdir = suite.T().TempDir()
	suite.executable = filepath.Join(suite.workdir, "test_executable.sh")
	suite.inputfile = filepath.Join(suite.workdir, "test_input.txt")
	suite.outputfile = filepath.Join(suite.workdir, "test_output.txt")
}

func (suite *SkeletonTestSuite) prepare(copyExecutable, writeInput bool) {
	if copyExecutable {
		suite.Require().NoError(os.WriteFile(suite.executable, []byte(testExecutable), 0o755))
	}
	if writeInput {
		suite.Require().NoError(os.WriteFile(suite.inputfile, []byte("test input\n"), 0o644))
	}
}

func (suite *SkeletonTestSuite) run(writeOutput, fail bool) int {
	arguments := "--in " + filepath.Base(suite.inputfile)
	if writeOutput {
		arguments += " --out " + filepath.Base(suite.outputfile)
	}
	if fail {
		arguments += " --fail"
	}

	s := script.New("{{executable}}", arguments)
	s.TransferExecutable = true
	s.TransferInputFiles = []string{"{{inputfile}}"}
	s.TransferOutputFiles = []string{"{{outputfile}}"}
	job := &script.Job{Script: s, Macros: map[string]string{
		"executable": suite.executable,
		"inputfile":  suite.inputfile,
		"outputfile": suite.outputfile,
	}}
	text, err := job.Render()
	suite.Require().NoError(err)

	scriptfile := filepath.Join(suite.workdir, "job.sh")
	suite.Require().NoError(os.WriteFile(scriptfile, []byte(text), 0o644))

	cmd := exec.Command("bash", scriptfile)
	cmd.Dir = suite.workdir
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "SLURM_JOB_ID=") {
			cmd.Env = append(cmd.Env, env)
		}
	}
	out, err := cmd.CombinedOutput()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	suite.Require().NoError(err, string(out))
	return 0
}

func (suite *SkeletonTestSuite) assertCleanedUp() {
	_, err := os.Stat(filepath.Join(suite.workdir, "slurm"))
	suite.True(os.IsNotExist(err), "working directory was not removed")
}

func (suite *SkeletonTestSuite) TestSuccess() {
	suite.prepare(true, true)

	code := suite.run(true, false)

	suite.Equal(0, code)
	suite.FileExists(suite.outputfile)
	suite.assertCleanedUp()
}

func (suite *SkeletonTestSuite) TestNoInputFile() {
	suite.prepare(true, false)

	suite.Equal(1, suite.run(true, false))
	suite.assertCleanedUp()
}

func (suite *SkeletonTestSuite) TestNoExecutable() {
	suite.prepare(false, true)

	suite.Equal(1, suite.run(true, false))
	suite.assertCleanedUp()
}

func (suite *SkeletonTestSuite) TestFailingExecutable() {
	suite.prepare(true, true)

	suite.Equal(1, suite.run(true, true))
	suite.assertCleanedUp()
}

func (suite *SkeletonTestSuite) TestNoOutputFile() {
	suite.prepare(true, true)

	suite.Equal(1, suite.run(false, false))
	suite.assertCleanedUp()
}

func TestSkeletonTestSuite(t *testing.T) {
	suite.Run(t, &SkeletonTestSuite{})
}

func TestSkeletonParses(t *testing.T) {
	out := script.New("true", "").String()
	assert.True(t, strings.HasPrefix(out, "#!/usr/bin/env bash\n"))
	require.Contains(t, out, "cleanup\nexit $status\n")
}
