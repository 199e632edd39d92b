package execshell_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/labkit/internal/execshell"
)

const (
	testExecutorSubtestNameTemplateConstant   = "%d_%s"
	testCommandArgumentConstant               = "status"
	testWorkingDirectoryConstant              = "/tmp/lab"
	testStandardErrorOutputConstant           = "fatal: not a git repository"
	testRunnerFailureMessageConstant          = "executable not found"
	testSuccessfulStandardOutputConstant      = "ok"
	testExpectedFailureMessageConstant        = "git status exited with code 128: fatal: not a git repository"
	testExpectedExecutionFailureMessagePrefix = "git status could not be executed"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

type recordingEventObserver struct {
	events []string
}

func (eventObserver *recordingEventObserver) CommandStarted(execshell.ShellCommand) {
	eventObserver.events = append(eventObserver.events, "started")
}

func (eventObserver *recordingEventObserver) CommandCompleted(_ execshell.ShellCommand, result execshell.ExecutionResult) {
	eventObserver.events = append(eventObserver.events, fmt.Sprintf("completed:%d", result.ExitCode))
}

func (eventObserver *recordingEventObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	eventObserver.events = append(eventObserver.events, "failed")
}

func TestNewShellExecutorValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectedError error
	}{
		{name: "missing_logger", logger: nil, runner: &recordingCommandRunner{}, expectedError: execshell.ErrLoggerNotConfigured},
		{name: "missing_runner", logger: zap.NewNop(), runner: nil, expectedError: execshell.ErrCommandRunnerNotConfigured},
		{name: "configured", logger: zap.NewNop(), runner: &recordingCommandRunner{}},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testExecutorSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, creationError, testCase.expectedError)
				require.Nil(testInstance, executor)
				return
			}
			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, executor)
		})
	}
}

func TestShellExecutorExecuteGit(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		runnerResult         execshell.ExecutionResult
		runnerError          error
		expectedEvents       []string
		expectedErrorMessage string
		expectFailedError    bool
		expectExecutionError bool
	}{
		{
			name:           "success",
			runnerResult:   execshell.ExecutionResult{StandardOutput: testSuccessfulStandardOutputConstant},
			expectedEvents: []string{"started", "completed:0"},
		},
		{
			name:                 "non_zero_exit_code",
			runnerResult:         execshell.ExecutionResult{StandardError: testStandardErrorOutputConstant, ExitCode: 128},
			expectedEvents:       []string{"started", "completed:128"},
			expectedErrorMessage: testExpectedFailureMessageConstant,
			expectFailedError:    true,
		},
		{
			name:                 "runner_failure",
			runnerError:          errors.New(testRunnerFailureMessageConstant),
			expectedEvents:       []string{"started", "failed"},
			expectExecutionError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testExecutorSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zap.DebugLevel)
			runner := &recordingCommandRunner{executionResult: testCase.runnerResult, executionError: testCase.runnerError}
			eventObserver := &recordingEventObserver{}

			executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), runner)
			require.NoError(testInstance, creationError)

			executionResult, executionError := executor.WithEventObserver(eventObserver).ExecuteGit(
				context.Background(),
				execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant},
			)

			require.Equal(testInstance, testCase.expectedEvents, eventObserver.events)
			require.Len(testInstance, runner.recordedCommands, 1)
			require.Equal(testInstance, execshell.CommandGit, runner.recordedCommands[0].Name)
			require.Len(testInstance, observedLogs.All(), 2)

			switch {
			case testCase.expectFailedError:
				var failedError execshell.CommandFailedError
				require.ErrorAs(testInstance, executionError, &failedError)
				require.Equal(testInstance, testCase.expectedErrorMessage, executionError.Error())
				require.Empty(testInstance, executionResult.StandardOutput)
			case testCase.expectExecutionError:
				var executionFailure execshell.CommandExecutionError
				require.ErrorAs(testInstance, executionError, &executionFailure)
				require.Contains(testInstance, executionError.Error(), testExpectedExecutionFailureMessagePrefix)
				require.ErrorIs(testInstance, executionError, testCase.runnerError)
			default:
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testSuccessfulStandardOutputConstant, executionResult.StandardOutput)
			}
		})
	}
}
