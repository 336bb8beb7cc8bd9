package execshell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// CommandName identifies the external tool executed by the shell executor.
type CommandName string

const (
	// CommandGit runs the git CLI.
	CommandGit CommandName = "git"
	// CommandNinja runs the ninja build tool.
	CommandNinja CommandName = "ninja"
	// CommandGomaController runs the goma compiler-proxy controller.
	CommandGomaController CommandName = "gomacc"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedErrorTemplateConstant        = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant     = "%s could not be executed: %s"
	commandStartedLogMessageConstant          = "executing command"
	commandCompletedLogMessageConstant        = "command completed"
	commandFailedLogMessageConstant           = "command exited with non-zero code"
	commandExecutionFailedLogMessageConstant  = "command execution failed"
	commandLogFieldNameConstant               = "command"
	argumentsLogFieldNameConstant             = "arguments"
	workingDirectoryLogFieldNameConstant      = "working_directory"
	exitCodeLogFieldNameConstant              = "exit_code"
	standardErrorLogFieldNameConstant         = "stderr"
	invalidEncodingReplacementConstant        = "�"
)

const (
	gitAskpassEnvironmentKeyConstant = "GIT_ASKPASS"
	sshAskpassEnvironmentKeyConstant = "SSH_ASKPASS"
	gitPagerEnvironmentKeyConstant   = "GIT_PAGER"
	askpassSuppressionValueConstant  = "true"
	pagerSuppressionValueConstant    = "cat"
)

var (
	// ErrLoggerNotConfigured reports executor construction without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured reports executor construction without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandDetails describes the invocation payload for an external command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples a command name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures decoded process output and the exit code.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failure including the exit code and captured stderr.
func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Name, failure.Result.ExitCode, strings.TrimSpace(failure.Result.StandardError))
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// CommandRunner executes shell commands and reports their raw outcome.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand)                    {}
func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}
func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error)     {}

// ShellExecutor invokes external tools with structured logging and typed failures.
type ShellExecutor struct {
	logger   *zap.Logger
	runner   CommandRunner
	observer CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor after validating its dependencies.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	return NewShellExecutorWithObserver(logger, runner, nil)
}

// NewShellExecutorWithObserver constructs a ShellExecutor that forwards lifecycle events to the supplied observer.
func NewShellExecutorWithObserver(logger *zap.Logger, runner CommandRunner, observer CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	resolvedObserver := observer
	if resolvedObserver == nil {
		resolvedObserver = noopCommandEventObserver{}
	}

	return &ShellExecutor{logger: logger, runner: runner, observer: resolvedObserver}, nil
}

// ExecuteGit runs the git CLI with prompt and pager suppression applied.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	details.EnvironmentVariables = withGitEnvironmentDefaults(details.EnvironmentVariables)
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteNinja runs the ninja build tool.
func (executor *ShellExecutor) ExecuteNinja(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandNinja, Details: details})
}

// ExecuteGomaController runs the goma compiler-proxy controller.
func (executor *ShellExecutor) ExecuteGomaController(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGomaController, Details: details})
}

// Execute runs the supplied command, logging its lifecycle and typing its failures.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(commandStartedLogMessageConstant, commandLogFields(command)...)
	executor.observer.CommandStarted(command)

	runnerResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executionFailure := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Error(commandExecutionFailedLogMessageConstant, append(commandLogFields(command), zap.Error(runError))...)
		executor.observer.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, executionFailure
	}

	runnerResult.StandardOutput = decodeCommandOutput(runnerResult.StandardOutput)
	runnerResult.StandardError = decodeCommandOutput(runnerResult.StandardError)
	executor.observer.CommandCompleted(command, runnerResult)

	if runnerResult.ExitCode != 0 {
		failure := CommandFailedError{Command: command, Result: runnerResult}
		failureFields := append(commandLogFields(command), zap.Int(exitCodeLogFieldNameConstant, runnerResult.ExitCode), zap.String(standardErrorLogFieldNameConstant, strings.TrimSpace(runnerResult.StandardError)))
		executor.logger.Warn(commandFailedLogMessageConstant, failureFields...)
		return ExecutionResult{}, failure
	}

	executor.logger.Debug(commandCompletedLogMessageConstant, commandLogFields(command)...)
	return runnerResult, nil
}

func commandLogFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(commandLogFieldNameConstant, string(command.Name)),
		zap.Strings(argumentsLogFieldNameConstant, command.Details.Arguments),
		zap.String(workingDirectoryLogFieldNameConstant, command.Details.WorkingDirectory),
	}
}

// withGitEnvironmentDefaults applies setdefault semantics for the keys that keep git non-interactive:
// a key already present in the call's overrides or in the process environment is left alone.
func withGitEnvironmentDefaults(environmentVariables map[string]string) map[string]string {
	mergedEnvironment := make(map[string]string, len(environmentVariables)+3)
	for environmentKey, environmentValue := range environmentVariables {
		mergedEnvironment[environmentKey] = environmentValue
	}

	applyEnvironmentDefault(mergedEnvironment, gitAskpassEnvironmentKeyConstant, askpassSuppressionValueConstant)
	applyEnvironmentDefault(mergedEnvironment, sshAskpassEnvironmentKeyConstant, askpassSuppressionValueConstant)
	applyEnvironmentDefault(mergedEnvironment, gitPagerEnvironmentKeyConstant, pagerSuppressionValueConstant)

	return mergedEnvironment
}

func applyEnvironmentDefault(environmentVariables map[string]string, environmentKey string, defaultValue string) {
	if _, alreadyOverridden := environmentVariables[environmentKey]; alreadyOverridden {
		return
	}
	if _, presentInProcessEnvironment := os.LookupEnv(environmentKey); presentInProcessEnvironment {
		return
	}
	environmentVariables[environmentKey] = defaultValue
}

// decodeCommandOutput replaces invalid UTF-8 sequences so captured output never poisons downstream text handling.
func decodeCommandOutput(text string) string {
	return strings.ToValidUTF8(text, invalidEncodingReplacementConstant)
}
