package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitGlobalOptionFlagConstant            = "-c"
	gitConfigSubcommandNameConstant        = "config"
	gitConfigUnsetFlagConstant             = "--unset"
	gitSymbolicRefSubcommandNameConstant   = "symbolic-ref"
	gitBranchSubcommandNameConstant        = "branch"
	gitRemoteBranchesFlagConstant          = "-r"
	gitStatusSubcommandNameConstant        = "status"
	gitDiffSubcommandNameConstant          = "diff"
	gitDiffNameStatusFlagConstant          = "--name-status"
	gitDiffNameOnlyFlagConstant            = "--name-only"
	gitLSFilesSubcommandNameConstant       = "ls-files"
	gitLSRemoteSubcommandNameConstant      = "ls-remote"
	gitSymrefFlagConstant                  = "--symref"
	gitRemoteSubcommandNameConstant        = "remote"
	gitRemoteSetHeadSubcommandNameConstant = "set-head"
	gitMergeBaseSubcommandNameConstant     = "merge-base"
	gitIsAncestorFlagConstant              = "--is-ancestor"
	gitRevParseSubcommandNameConstant      = "rev-parse"
	gitWorkTreeFlagConstant                = "--is-inside-work-tree"
	gitShowCdupFlagConstant                = "--show-cdup"
	gitGitDirFlagConstant                  = "--git-dir"
	gitVerifyFlagConstant                  = "--verify"
	gitShowSubcommandNameConstant          = "show"
	gitLSTreeSubcommandNameConstant        = "ls-tree"
	gitVersionFlagConstant                 = "--version"
	gitRevisionRangeSeparatorConstant      = "..."
	gitShowTargetSeparatorConstant         = ":"
)

const (
	gitConfigReadStartTemplateConstant             = "Reading git configuration %s in %s"
	gitConfigReadSuccessTemplateConstant           = "Read git configuration %s in %s"
	gitConfigReadFailureTemplateConstant           = "Configuration %s is not set in %s (exit code %d%s)"
	gitConfigReadExecutionFailureTemplateConstant  = "Unable to read git configuration %s in %s: %s"
	gitConfigWriteStartTemplateConstant            = "Setting git configuration %s in %s"
	gitConfigWriteSuccessTemplateConstant          = "Set git configuration %s in %s"
	gitConfigWriteFailureTemplateConstant          = "Failed to set git configuration %s in %s (exit code %d%s)"
	gitConfigWriteExecutionFailureTemplateConstant = "Unable to set git configuration %s in %s: %s"
	gitConfigUnsetStartTemplateConstant            = "Clearing git configuration %s in %s"
	gitConfigUnsetSuccessTemplateConstant          = "Cleared git configuration %s in %s"
	gitConfigUnsetFailureTemplateConstant          = "Failed to clear git configuration %s in %s (exit code %d%s)"
	gitConfigUnsetExecutionFailureTemplateConstant = "Unable to clear git configuration %s in %s: %s"
	gitSymbolicRefStartTemplateConstant            = "Reading symbolic reference %s in %s"
	gitSymbolicRefSuccessTemplateConstant          = "Symbolic reference %s in %s points to %s"
	gitSymbolicRefFailureTemplateConstant          = "Symbolic reference %s is not available in %s (exit code %d%s)"
	gitSymbolicRefExecutionFailureTemplateConstant = "Unable to read symbolic reference %s in %s: %s"
	gitRemoteBranchesStartTemplateConstant         = "Listing remote-tracking branches in %s"
	gitRemoteBranchesSuccessTemplateConstant       = "Listed remote-tracking branches in %s"
	gitRemoteBranchesFailureTemplateConstant       = "Failed to list remote-tracking branches in %s (exit code %d%s)"
	gitRemoteBranchesExecutionFailureConstant      = "Unable to list remote-tracking branches in %s: %s"
	gitStatusStartTemplateConstant                 = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant               = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant               = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant      = "Unable to review working tree status in %s: %s"
	gitChangeStatusesStartTemplateConstant         = "Collecting change statuses against %s in %s"
	gitChangeStatusesSuccessTemplateConstant       = "Collected change statuses against %s in %s"
	gitChangeStatusesFailureTemplateConstant       = "Failed to collect change statuses against %s in %s (exit code %d%s)"
	gitChangeStatusesExecutionFailureConstant      = "Unable to collect change statuses against %s in %s: %s"
	gitChangedFilesStartTemplateConstant           = "Listing files changed against %s in %s"
	gitChangedFilesSuccessTemplateConstant         = "Listed files changed against %s in %s"
	gitChangedFilesFailureTemplateConstant         = "Failed to list files changed against %s in %s (exit code %d%s)"
	gitChangedFilesExecutionFailureConstant        = "Unable to list files changed against %s in %s: %s"
	gitDiffStartTemplateConstant                   = "Generating diff against %s in %s"
	gitDiffSuccessTemplateConstant                 = "Generated diff against %s in %s"
	gitDiffFailureTemplateConstant                 = "Failed to generate diff against %s in %s (exit code %d%s)"
	gitDiffExecutionFailureTemplateConstant        = "Unable to generate diff against %s in %s: %s"
	gitLSFilesStartTemplateConstant                = "Listing tracked files in %s"
	gitLSFilesSuccessTemplateConstant              = "Listed tracked files in %s"
	gitLSFilesFailureTemplateConstant              = "Failed to list tracked files in %s (exit code %d%s)"
	gitLSFilesExecutionFailureTemplateConstant     = "Unable to list tracked files in %s: %s"
	gitLSRemoteHeadStartTemplateConstant           = "Checking default branch on %s"
	gitLSRemoteHeadSuccessTemplateConstant         = "Retrieved default branch information from %s"
	gitLSRemoteHeadFailureTemplateConstant         = "Failed to check default branch on %s (exit code %d%s)"
	gitLSRemoteHeadExecutionFailureConstant        = "Unable to check default branch on %s: %s"
	gitLSRemoteGenericStartTemplateConstant        = "Querying remote references on %s"
	gitLSRemoteGenericSuccessTemplateConstant      = "Queried remote references on %s"
	gitLSRemoteGenericFailureTemplateConstant      = "Failed to query remote references on %s (exit code %d%s)"
	gitLSRemoteGenericExecutionFailureConstant     = "Unable to query remote references on %s: %s"
	gitSetHeadStartTemplateConstant                = "Refreshing remote HEAD for %s in %s"
	gitSetHeadSuccessTemplateConstant              = "Refreshed remote HEAD for %s in %s"
	gitSetHeadFailureTemplateConstant              = "Failed to refresh remote HEAD for %s in %s (exit code %d%s)"
	gitSetHeadExecutionFailureTemplateConstant     = "Unable to refresh remote HEAD for %s in %s: %s"
	gitAncestryStartTemplateConstant               = "Checking whether %s precedes %s in %s"
	gitAncestrySuccessTemplateConstant             = "%s precedes %s in %s"
	gitAncestryFailureTemplateConstant             = "%s does not precede %s in %s (exit code %d%s)"
	gitAncestryExecutionFailureTemplateConstant    = "Unable to check whether %s precedes %s in %s: %s"
	gitWorkTreeStartTemplateConstant               = "Analyzing repository at %s"
	gitWorkTreeSuccessTemplateConstant             = "%s is inside a git work tree"
	gitWorkTreeFailureTemplateConstant             = "Could not confirm %s is inside a git work tree (exit code %d%s)"
	gitWorkTreeExecutionFailureTemplateConstant    = "Unable to analyze %s: %s"
	gitCheckoutRootStartTemplateConstant           = "Locating checkout root from %s"
	gitCheckoutRootSuccessTemplateConstant         = "Located checkout root from %s"
	gitCheckoutRootFailureTemplateConstant         = "Failed to locate checkout root from %s (exit code %d%s)"
	gitCheckoutRootExecutionFailureConstant        = "Unable to locate checkout root from %s: %s"
	gitGitDirStartTemplateConstant                 = "Locating git directory from %s"
	gitGitDirSuccessTemplateConstant               = "Located git directory from %s"
	gitGitDirFailureTemplateConstant               = "Failed to locate git directory from %s (exit code %d%s)"
	gitGitDirExecutionFailureTemplateConstant      = "Unable to locate git directory from %s: %s"
	gitRevisionStartTemplateConstant               = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant             = "%s in %s resolved to %s"
	gitRevisionEmptySuccessTemplateConstant        = "%s in %s did not resolve to a revision"
	gitRevisionFailureTemplateConstant             = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant    = "Unable to resolve %s in %s: %s"
	gitShowStartTemplateConstant                   = "Reading %s at %s in %s"
	gitShowSuccessTemplateConstant                 = "Read %s at %s in %s"
	gitShowFailureTemplateConstant                 = "%s is not available at %s in %s (exit code %d%s)"
	gitShowExecutionFailureTemplateConstant        = "Unable to read %s at %s in %s: %s"
	gitLSTreeStartTemplateConstant                 = "Checking whether %s is tracked at %s in %s"
	gitLSTreeSuccessTemplateConstant               = "Checked whether %s is tracked at %s in %s"
	gitLSTreeFailureTemplateConstant               = "Failed to check whether %s is tracked at %s in %s (exit code %d%s)"
	gitLSTreeExecutionFailureTemplateConstant      = "Unable to check whether %s is tracked at %s in %s: %s"
	gitVersionStartTemplateConstant                = "Determining git version"
	gitVersionSuccessTemplateConstant              = "Detected %s"
	gitVersionFailureTemplateConstant              = "Failed to determine git version (exit code %d%s)"
	gitVersionExecutionFailureTemplateConstant     = "Unable to determine git version: %s"
)

const (
	gomaControllerPortSubcommandNameConstant = "port"

	gomaPortProbeStartTemplateConstant            = "Checking goma compiler proxy status"
	gomaPortProbeSuccessTemplateConstant          = "Goma compiler proxy is running"
	gomaPortProbeFailureTemplateConstant          = "Goma compiler proxy is not running (exit code %d%s)"
	gomaPortProbeExecutionFailureTemplateConstant = "Unable to check goma compiler proxy status: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

// ShouldAnnounceStart reports whether a start message is worth emitting; metadata
// probes issued in tight resolution loops stay quiet to keep console output readable.
func (formatter CommandMessageFormatter) ShouldAnnounceStart(command ShellCommand) bool {
	if command.Name != CommandGit {
		return true
	}
	arguments := normalizeGitArguments(command.Details.Arguments)
	if len(arguments) == 0 {
		return true
	}
	switch strings.TrimSpace(arguments[0]) {
	case gitConfigSubcommandNameConstant, gitSymbolicRefSubcommandNameConstant, gitRevParseSubcommandNameConstant:
		return false
	default:
		return true
	}
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGomaController:
		return formatter.describeGomaControllerMessage(command, result, failure, stage)
	case CommandNinja:
		return formatter.buildGenericMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := normalizeGitArguments(command.Details.Arguments)
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(arguments[0])
	switch subcommand {
	case gitConfigSubcommandNameConstant:
		return formatter.describeGitConfigMessage(command, arguments, result, failure, stage)
	case gitSymbolicRefSubcommandNameConstant:
		return formatter.describeGitSymbolicRefMessage(command, arguments, result, failure, stage)
	case gitBranchSubcommandNameConstant:
		if containsArgument(arguments, gitRemoteBranchesFlagConstant) {
			return formatter.describeSingleTargetMessage(command, result, failure, stage, singleTargetTemplates{
				start:            gitRemoteBranchesStartTemplateConstant,
				success:          gitRemoteBranchesSuccessTemplateConstant,
				failure:          gitRemoteBranchesFailureTemplateConstant,
				executionFailure: gitRemoteBranchesExecutionFailureConstant,
			})
		}
		return formatter.buildGenericMessage(command, result, failure, stage)
	case gitStatusSubcommandNameConstant:
		return formatter.describeSingleTargetMessage(command, result, failure, stage, singleTargetTemplates{
			start:            gitStatusStartTemplateConstant,
			success:          gitStatusSuccessTemplateConstant,
			failure:          gitStatusFailureTemplateConstant,
			executionFailure: gitStatusExecutionFailureTemplateConstant,
		})
	case gitDiffSubcommandNameConstant:
		return formatter.describeGitDiffMessage(command, arguments, result, failure, stage)
	case gitLSFilesSubcommandNameConstant:
		return formatter.describeSingleTargetMessage(command, result, failure, stage, singleTargetTemplates{
			start:            gitLSFilesStartTemplateConstant,
			success:          gitLSFilesSuccessTemplateConstant,
			failure:          gitLSFilesFailureTemplateConstant,
			executionFailure: gitLSFilesExecutionFailureTemplateConstant,
		})
	case gitLSRemoteSubcommandNameConstant:
		return formatter.describeGitLSRemoteMessage(command, arguments, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitSetHeadMessage(command, arguments, result, failure, stage)
	case gitMergeBaseSubcommandNameConstant:
		return formatter.describeGitAncestryMessage(command, arguments, result, failure, stage)
	case gitRevParseSubcommandNameConstant:
		return formatter.describeGitRevParseMessage(command, arguments, result, failure, stage)
	case gitShowSubcommandNameConstant:
		return formatter.describeGitShowMessage(command, arguments, result, failure, stage)
	case gitLSTreeSubcommandNameConstant:
		return formatter.describeGitLSTreeMessage(command, arguments, result, failure, stage)
	case gitVersionFlagConstant:
		return formatter.describeGitVersionMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitConfigMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	if containsArgument(arguments, gitConfigUnsetFlagConstant) {
		configurationKey := formatter.ensureValue(lastNonFlagArgument(arguments[1:]))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitConfigUnsetStartTemplateConstant, configurationKey, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitConfigUnsetSuccessTemplateConstant, configurationKey, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitConfigUnsetFailureTemplateConstant, configurationKey, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitConfigUnsetExecutionFailureTemplateConstant, configurationKey, workingDirectory, formatter.describeFailure(failure))
		}
	}

	configurationKey := formatter.ensureValue(firstNonFlagArgument(arguments[1:]))
	nonFlagCount := countNonFlagArguments(arguments[1:])
	if nonFlagCount >= 2 {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitConfigWriteStartTemplateConstant, configurationKey, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitConfigWriteSuccessTemplateConstant, configurationKey, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitConfigWriteFailureTemplateConstant, configurationKey, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitConfigWriteExecutionFailureTemplateConstant, configurationKey, workingDirectory, formatter.describeFailure(failure))
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitConfigReadStartTemplateConstant, configurationKey, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitConfigReadSuccessTemplateConstant, configurationKey, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitConfigReadFailureTemplateConstant, configurationKey, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitConfigReadExecutionFailureTemplateConstant, configurationKey, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitSymbolicRefMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	referenceName := formatter.ensureValue(firstNonFlagArgument(arguments[1:]))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitSymbolicRefStartTemplateConstant, referenceName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitSymbolicRefSuccessTemplateConstant, referenceName, workingDirectory, formatter.ensureValue(strings.TrimSpace(result.StandardOutput)))
	case messageStageFailure:
		return fmt.Sprintf(gitSymbolicRefFailureTemplateConstant, referenceName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitSymbolicRefExecutionFailureTemplateConstant, referenceName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitDiffMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	templates := singleTargetTemplates{
		start:            gitDiffStartTemplateConstant,
		success:          gitDiffSuccessTemplateConstant,
		failure:          gitDiffFailureTemplateConstant,
		executionFailure: gitDiffExecutionFailureTemplateConstant,
	}
	if containsArgument(arguments, gitDiffNameStatusFlagConstant) {
		templates = singleTargetTemplates{
			start:            gitChangeStatusesStartTemplateConstant,
			success:          gitChangeStatusesSuccessTemplateConstant,
			failure:          gitChangeStatusesFailureTemplateConstant,
			executionFailure: gitChangeStatusesExecutionFailureConstant,
		}
	}
	if containsArgument(arguments, gitDiffNameOnlyFlagConstant) {
		templates = singleTargetTemplates{
			start:            gitChangedFilesStartTemplateConstant,
			success:          gitChangedFilesSuccessTemplateConstant,
			failure:          gitChangedFilesFailureTemplateConstant,
			executionFailure: gitChangedFilesExecutionFailureConstant,
		}
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	baseRevision := formatter.ensureValue(extractDiffBaseRevision(arguments))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, baseRevision, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, baseRevision, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, baseRevision, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, baseRevision, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitLSRemoteMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	remoteLocation := formatter.ensureValue(firstNonFlagArgument(arguments[1:]))
	templates := singleTargetTemplates{
		start:            gitLSRemoteGenericStartTemplateConstant,
		success:          gitLSRemoteGenericSuccessTemplateConstant,
		failure:          gitLSRemoteGenericFailureTemplateConstant,
		executionFailure: gitLSRemoteGenericExecutionFailureConstant,
	}
	if containsArgument(arguments, gitSymrefFlagConstant) {
		templates = singleTargetTemplates{
			start:            gitLSRemoteHeadStartTemplateConstant,
			success:          gitLSRemoteHeadSuccessTemplateConstant,
			failure:          gitLSRemoteHeadFailureTemplateConstant,
			executionFailure: gitLSRemoteHeadExecutionFailureConstant,
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, remoteLocation)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, remoteLocation)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, remoteLocation, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, remoteLocation, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitSetHeadMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	if len(arguments) < 2 || strings.TrimSpace(arguments[1]) != gitRemoteSetHeadSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(lastNonFlagArgument(arguments[2:]))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitSetHeadStartTemplateConstant, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitSetHeadSuccessTemplateConstant, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitSetHeadFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitSetHeadExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitAncestryMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	if !containsArgument(arguments, gitIsAncestorFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	revisions := nonFlagArguments(arguments[1:])
	ancestorRevision := formatter.ensureValue(argumentAtIndex(revisions, 0))
	descendantRevision := formatter.ensureValue(argumentAtIndex(revisions, 1))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitAncestryStartTemplateConstant, ancestorRevision, descendantRevision, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitAncestrySuccessTemplateConstant, ancestorRevision, descendantRevision, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitAncestryFailureTemplateConstant, ancestorRevision, descendantRevision, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitAncestryExecutionFailureTemplateConstant, ancestorRevision, descendantRevision, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRevParseMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	if containsArgument(arguments, gitWorkTreeFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitWorkTreeStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitWorkTreeSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitWorkTreeFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitWorkTreeExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	}

	if containsArgument(arguments, gitShowCdupFlagConstant) {
		return formatter.describeSingleTargetMessage(command, result, failure, stage, singleTargetTemplates{
			start:            gitCheckoutRootStartTemplateConstant,
			success:          gitCheckoutRootSuccessTemplateConstant,
			failure:          gitCheckoutRootFailureTemplateConstant,
			executionFailure: gitCheckoutRootExecutionFailureConstant,
		})
	}

	if containsArgument(arguments, gitGitDirFlagConstant) {
		return formatter.describeSingleTargetMessage(command, result, failure, stage, singleTargetTemplates{
			start:            gitGitDirStartTemplateConstant,
			success:          gitGitDirSuccessTemplateConstant,
			failure:          gitGitDirFailureTemplateConstant,
			executionFailure: gitGitDirExecutionFailureTemplateConstant,
		})
	}

	reference := formatter.ensureValue(lastNonFlagArgument(arguments[1:]))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRevisionStartTemplateConstant, reference, workingDirectory)
	case messageStageSuccess:
		trimmed := strings.TrimSpace(result.StandardOutput)
		if len(trimmed) == 0 {
			return fmt.Sprintf(gitRevisionEmptySuccessTemplateConstant, reference, workingDirectory)
		}
		return fmt.Sprintf(gitRevisionSuccessTemplateConstant, reference, workingDirectory, trimmed)
	case messageStageFailure:
		return fmt.Sprintf(gitRevisionFailureTemplateConstant, reference, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitRevisionExecutionFailureTemplateConstant, reference, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitShowMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	target := firstNonFlagArgument(arguments[1:])
	revisionLabel, pathLabel := splitShowTarget(target)
	trimmedRevision := formatter.ensureValue(revisionLabel)
	trimmedPath := formatter.ensureValue(pathLabel)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitShowStartTemplateConstant, trimmedPath, trimmedRevision, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitShowSuccessTemplateConstant, trimmedPath, trimmedRevision, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitShowFailureTemplateConstant, trimmedPath, trimmedRevision, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitShowExecutionFailureTemplateConstant, trimmedPath, trimmedRevision, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitLSTreeMessage(command ShellCommand, arguments []string, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	targets := nonFlagArguments(arguments[1:])
	revisionLabel := formatter.ensureValue(argumentAtIndex(targets, 0))
	directoryLabel := formatter.ensureValue(argumentAtIndex(targets, 1))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitLSTreeStartTemplateConstant, directoryLabel, revisionLabel, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitLSTreeSuccessTemplateConstant, directoryLabel, revisionLabel, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitLSTreeFailureTemplateConstant, directoryLabel, revisionLabel, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitLSTreeExecutionFailureTemplateConstant, directoryLabel, revisionLabel, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitVersionMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return gitVersionStartTemplateConstant
	case messageStageSuccess:
		return fmt.Sprintf(gitVersionSuccessTemplateConstant, formatter.ensureValue(strings.TrimSpace(result.StandardOutput)))
	case messageStageFailure:
		return fmt.Sprintf(gitVersionFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitVersionExecutionFailureTemplateConstant, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGomaControllerMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 || strings.TrimSpace(arguments[0]) != gomaControllerPortSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch stage {
	case messageStageStart:
		return gomaPortProbeStartTemplateConstant
	case messageStageSuccess:
		return gomaPortProbeSuccessTemplateConstant
	case messageStageFailure:
		return fmt.Sprintf(gomaPortProbeFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gomaPortProbeExecutionFailureTemplateConstant, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

type singleTargetTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

func (formatter CommandMessageFormatter) describeSingleTargetMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, templates singleTargetTemplates) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

// normalizeGitArguments strips leading "-c <key=value>" option pairs so dispatch
// sees the actual subcommand.
func normalizeGitArguments(arguments []string) []string {
	index := 0
	for index+1 < len(arguments) && strings.TrimSpace(arguments[index]) == gitGlobalOptionFlagConstant {
		index += 2
	}
	return arguments[index:]
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func nonFlagArguments(arguments []string) []string {
	collected := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			continue
		}
		collected = append(collected, trimmed)
	}
	return collected
}

func firstNonFlagArgument(arguments []string) string {
	return argumentAtIndex(nonFlagArguments(arguments), 0)
}

func lastNonFlagArgument(arguments []string) string {
	collected := nonFlagArguments(arguments)
	return argumentAtIndex(collected, len(collected)-1)
}

func countNonFlagArguments(arguments []string) int {
	return len(nonFlagArguments(arguments))
}

func argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func extractDiffBaseRevision(arguments []string) string {
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if strings.HasPrefix(trimmed, "-") {
			continue
		}
		separatorIndex := strings.Index(trimmed, gitRevisionRangeSeparatorConstant)
		if separatorIndex > 0 {
			return trimmed[:separatorIndex]
		}
	}
	return emptyStringConstant
}

func splitShowTarget(target string) (string, string) {
	trimmed := strings.TrimSpace(target)
	separatorIndex := strings.Index(trimmed, gitShowTargetSeparatorConstant)
	if separatorIndex < 0 {
		return trimmed, emptyStringConstant
	}
	return trimmed[:separatorIndex], trimmed[separatorIndex+1:]
}
