package governor_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/squarefactory/sbatch-governor/governor"
	"github.com/squarefactory/sbatch-governor/mocks"
	"github.com/squarefactory/sbatch-governor/scheduler"
	"github.com/squarefactory/sbatch-governor/script"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

func newJobs(n int) map[string]*script.Job {
	s := script.New("/path/to/run.sh", "--index {{index}}")
	jobs := make(map[string]*script.Job, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("job_%03d", i)
		jobs[name] = &script.Job{Script: s, Macros: map[string]string{"index": fmt.Sprint(i)}}
	}
	return jobs
}

type GovernorTestSuite struct {
	suite.Suite
	scheduler *mocks.Scheduler
	sleeps    int
}

func (suite *GovernorTestSuite) BeforeTest(suiteName, testName string) {
	suite.scheduler = mocks.NewScheduler(suite.T())
	suite.sleeps = 0
}

func (suite *GovernorTestSuite) newGovernor(config governor.Config) *governor.Governor {
	return governor.New(suite.scheduler, config,
		governor.WithSleep(func(ctx context.Context, d time.Duration) error {
			suite.sleeps++
			return nil
		}),
	)
}

func (suite *GovernorTestSuite) TestDepthDropsFromCeiling() {
	// Arrange
	config := governor.Config{Ceiling: 2, PollInterval: time.Second, User: "alice", Partition: "long"}
	depthRequest := mock.MatchedBy(func(req *scheduler.QueueDepthRequest) bool {
		return req.User == "alice" && req.Partition == "long"
	})
	suite.scheduler.On("QueueDepth", mock.Anything, depthRequest).Return(2, nil).Once()
	suite.scheduler.On("QueueDepth", mock.Anything, depthRequest).Return(1, nil).Once()
	suite.scheduler.On("QueueDepth", mock.Anything, depthRequest).Return(0, nil).Once()

	nextID := 42
	suite.scheduler.On("Submit", mock.Anything, mock.MatchedBy(func(req *scheduler.SubmitRequest) bool {
		return req.Partition == "long"
	})).Return(func(context.Context, *scheduler.SubmitRequest) (int, error) {
		nextID++
		return nextID - 1, nil
	}, nil).Times(3)

	stateCalls := 0
	suite.scheduler.On("TerminalStates", mock.Anything, mock.Anything).Return(
		func(_ context.Context, req *scheduler.TerminalStatesRequest) (map[int]scheduler.State, error) {
			stateCalls++
			states := map[int]scheduler.State{}
			for _, id := range req.JobIDs {
				switch {
				case stateCalls == 1:
					states[id] = scheduler.StateRunning
				case id == 43:
					states[id] = scheduler.StateFailed
				default:
					states[id] = scheduler.StateSucceeded
				}
			}
			return states, nil
		}, nil)
	g := suite.newGovernor(config)

	// Act
	res, err := g.Run(context.Background(), newJobs(3))

	// Assert
	suite.Require().NoError(err)
	suite.Equal(map[string]int{"job_000": 42, "job_001": 43, "job_002": 44}, res.JobIDs)
	suite.Equal(map[string]int{"job_001": 43}, res.Failed)
	suite.Equal(map[string]int{"job_000": 42, "job_002": 44}, res.Succeeded())
	suite.Equal(2, stateCalls)
	// Two waits while jobs were pending, one before the final state check.
	suite.Equal(3, suite.sleeps)
}

func (suite *GovernorTestSuite) TestInputIsNotMutated() {
	// Arrange
	suite.scheduler.On("QueueDepth", mock.Anything, mock.Anything).Return(0, nil)
	suite.scheduler.On("Submit", mock.Anything, mock.Anything).Return(7, nil).Once()
	suite.scheduler.On("TerminalStates", mock.Anything, mock.Anything).
		Return(map[int]scheduler.State{7: scheduler.StateSucceeded}, nil)
	jobs := newJobs(1)

	// Act
	_, err := suite.newGovernor(governor.Config{Ceiling: 10, PollInterval: time.Second}).Run(context.Background(), jobs)

	// Assert
	suite.NoError(err)
	suite.Len(jobs, 1)
	suite.Contains(jobs, "job_000")
}

func (suite *GovernorTestSuite) TestSubmitErrorAbortsRun() {
	// Arrange
	suite.scheduler.On("QueueDepth", mock.Anything, mock.Anything).Return(0, nil).Once()
	suite.scheduler.On("Submit", mock.Anything, mock.Anything).Return(1, nil).Once()
	suite.scheduler.On("Submit", mock.Anything, mock.Anything).
		Return(0, &scheduler.CommandError{Kind: scheduler.ErrSubmissionProcess, Args: []string{"sbatch"}}).Once()

	// Act
	res, err := suite.newGovernor(governor.Config{Ceiling: 10, PollInterval: time.Second}).Run(context.Background(), newJobs(3))

	// Assert
	suite.ErrorIs(err, scheduler.ErrSubmissionProcess)
	suite.Equal(map[string]int{"job_000": 1}, res.JobIDs)
	suite.Equal(governor.Submitted, res.Outcomes["job_000"])
	suite.Equal(governor.Pending, res.Outcomes["job_002"])
}

func (suite *GovernorTestSuite) TestMissingMacroStopsBeforeSubmission() {
	// Arrange
	suite.scheduler.On("QueueDepth", mock.Anything, mock.Anything).Return(0, nil).Once()
	jobs := map[string]*script.Job{
		"broken": {Script: script.New("echo", "{{msg}}"), Macros: map[string]string{}},
	}

	// Act
	_, err := suite.newGovernor(governor.Config{Ceiling: 10, PollInterval: time.Second}).Run(context.Background(), jobs)

	// Assert
	suite.ErrorIs(err, script.ErrMissingMacro)
	suite.scheduler.AssertNotCalled(suite.T(), "Submit", mock.Anything, mock.Anything)
}

func (suite *GovernorTestSuite) TestQueryErrorAbortsRun() {
	// Arrange
	suite.scheduler.On("QueueDepth", mock.Anything, mock.Anything).
		Return(0, &scheduler.CommandError{Kind: scheduler.ErrQueryProcess, Args: []string{"squeue"}})

	// Act
	_, err := suite.newGovernor(governor.Config{Ceiling: 10, PollInterval: time.Second}).Run(context.Background(), newJobs(2))

	// Assert
	suite.ErrorIs(err, scheduler.ErrQueryProcess)
}

func (suite *GovernorTestSuite) TestInvalidCeiling() {
	// Act
	_, err := suite.newGovernor(governor.Config{Ceiling: 0}).Run(context.Background(), newJobs(1))

	// Assert
	suite.ErrorIs(err, governor.ErrInvalidCeiling)
}

func (suite *GovernorTestSuite) TestInvalidPollInterval() {
	for _, interval := range []time.Duration{0, -time.Second} {
		// Act
		res, err := suite.newGovernor(governor.Config{Ceiling: 5, PollInterval: interval}).
			Run(context.Background(), newJobs(2))

		// Assert
		suite.ErrorIs(err, governor.ErrInvalidPollInterval)
		suite.Empty(res.JobIDs)
		suite.Equal(0, suite.sleeps)
	}
	suite.scheduler.AssertNotCalled(suite.T(), "QueueDepth", mock.Anything, mock.Anything)
}

func (suite *GovernorTestSuite) TestEmptyRun() {
	// Act
	res, err := suite.newGovernor(governor.Config{Ceiling: 1, PollInterval: time.Second}).Run(context.Background(), nil)

	// Assert
	suite.NoError(err)
	suite.Empty(res.JobIDs)
	suite.Equal(0, suite.sleeps)
}

func TestGovernorTestSuite(t *testing.T) {
	suite.Run(t, &GovernorTestSuite{})
}

func TestRunStopsWhenContextIsCancelled(t *testing.T) {
	sched := mocks.NewScheduler(t)
	sched.On("QueueDepth", mock.Anything, mock.Anything).Return(5, nil).Once()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := governor.New(sched, governor.Config{Ceiling: 2, PollInterval: time.Hour}).
		Run(ctx, newJobs(1))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}
