package checkout

import (
	"go.uber.org/zap"

	"github.com/temirov/scmkit/internal/execshell"
	"github.com/temirov/scmkit/internal/gitrepo"
	"github.com/temirov/scmkit/internal/ui"
)

// ResolveGitExecutor returns the provided executor or constructs a shell-backed
// default. Human-readable mode attaches a console event observer so executed
// commands are narrated on the command line.
func ResolveGitExecutor(existing gitrepo.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (gitrepo.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	if humanReadableLogging {
		return execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}

// ResolveRepositoryManager returns the provided manager or constructs one from the executor.
func ResolveRepositoryManager(existing RepositoryManager, executor gitrepo.GitExecutor) (RepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(gitrepo.Dependencies{Executor: executor})
}

// ResolveDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveDiscoverer(existing RepositoryDiscoverer) RepositoryDiscoverer {
	if existing != nil {
		return existing
	}
	return NewFilesystemCheckoutDiscoverer()
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing FileSystem) FileSystem {
	if existing != nil {
		return existing
	}
	return OSFileSystem{}
}
