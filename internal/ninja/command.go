package ninja

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/scmkit/internal/execshell"
	"github.com/temirov/scmkit/internal/ui"
)

const (
	commandUseConstant              = "autoninja [ninja arguments...]"
	commandShortDescriptionConstant = "Plan a ninja invocation tuned for the build's acceleration"
	commandLongDescriptionConstant  = "autoninja inspects the build output directory for goma or remote-execution acceleration and prints the ninja command line a wrapper shell should execute, with the parallelism level tuned to the detected configuration. Arguments are forwarded to ninja untouched apart from -o/--offline, which force local compiles."
	commandExampleConstant          = "scmkit autoninja -C out/Default chrome"
	plannedCommandTemplateConstant  = "%s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the autoninja command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     GomaExecutor
	Platform                     Platform
	HumanReadableLoggingProvider func() bool
}

// Build constructs the autoninja command. Flag parsing is disabled so ninja's
// own flags reach the planner verbatim.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:                commandUseConstant,
		Short:              commandShortDescriptionConstant,
		Long:               commandLongDescriptionConstant,
		Example:            commandExampleConstant,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE:               builder.run,
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := builder.resolveLogger()

	gomaExecutor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	planner, plannerError := NewPlanner(Dependencies{Executor: gomaExecutor, Platform: builder.Platform})
	if plannerError != nil {
		return plannerError
	}

	plannedCommand, planError := planner.PlanBuild(command.Context(), arguments)
	if planError != nil {
		return planError
	}

	fmt.Fprintf(command.OutOrStdout(), plannedCommandTemplateConstant, plannedCommand)
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (GomaExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		return execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}
