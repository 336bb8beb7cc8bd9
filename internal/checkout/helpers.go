package checkout

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/scmkit/internal/gitrepo"
	pathutils "github.com/temirov/scmkit/internal/utils/path"
)

const (
	pathFlagNameConstant  = "path"
	pathFlagUsageConstant = "Checkout directory to inspect"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// builderDependencies carries the optional collaborator overrides shared by
// every checkout command builder. Unset collaborators are constructed on
// demand from the logger and the OS-backed defaults.
type builderDependencies struct {
	GitExecutor       gitrepo.GitExecutor
	RepositoryManager RepositoryManager
	Discoverer        RepositoryDiscoverer
	FileSystem        FileSystem
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveHumanReadableLogging(provider func() bool) bool {
	if provider == nil {
		return false
	}
	return provider()
}

func resolveConfiguration(provider func() CommandConfiguration) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration()
	}
	return provider().Sanitize()
}

func resolveCommandService(dependencies builderDependencies, logger *zap.Logger, humanReadableLogging bool) (*Service, error) {
	gitExecutor, executorError := ResolveGitExecutor(dependencies.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := ResolveRepositoryManager(dependencies.RepositoryManager, gitExecutor)
	if managerError != nil {
		return nil, managerError
	}

	return NewService(Dependencies{
		RepositoryManager: repositoryManager,
		Discoverer:        ResolveDiscoverer(dependencies.Discoverer),
		FileSystem:        ResolveFileSystem(dependencies.FileSystem),
	})
}

func bindPathFlag(command *cobra.Command) {
	command.Flags().String(pathFlagNameConstant, "", pathFlagUsageConstant)
}

// resolveRepositoryPath prefers the --path flag over the configured default
// and routes the chosen value through home expansion.
func resolveRepositoryPath(command *cobra.Command, configuration CommandConfiguration) string {
	selectedPath := configuration.RepositoryPath
	if command != nil {
		if flagValue, flagError := command.Flags().GetString(pathFlagNameConstant); flagError == nil {
			if trimmedFlagValue := strings.TrimSpace(flagValue); len(trimmedFlagValue) > 0 {
				selectedPath = trimmedFlagValue
			}
		}
	}

	sanitizedPaths := pathutils.NewRepositoryPathSanitizer().Sanitize([]string{selectedPath})
	if len(sanitizedPaths) == 0 {
		return defaultRepositoryPathConstant
	}
	return sanitizedPaths[0]
}
