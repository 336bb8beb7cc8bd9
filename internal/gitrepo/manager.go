package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/temirov/scmkit/internal/execshell"
)

const (
	gitExecutorMissingMessageConstant      = "git executor not configured"
	branchNameRequiredMessageConstant      = "branch name must be provided"
	branchNotResolvedMessageConstant       = "current branch could not be resolved"
	gitConfigSubcommandConstant            = "config"
	gitConfigUnsetFlagConstant             = "--unset"
	gitSymbolicRefSubcommandConstant       = "symbolic-ref"
	gitHeadReferenceConstant               = "HEAD"
	gitRevParseSubcommandConstant          = "rev-parse"
	gitShowCdupFlagConstant                = "--show-cdup"
	gitGitDirFlagConstant                  = "--git-dir"
	gitInsideWorkTreeFlagConstant          = "--is-inside-work-tree"
	gitQuietFlagConstant                   = "--quiet"
	gitVerifyFlagConstant                  = "--verify"
	gitShortRevisionFlagConstant           = "--short=4"
	gitMergeBaseSubcommandConstant         = "merge-base"
	gitIsAncestorFlagConstant              = "--is-ancestor"
	gitLSTreeSubcommandConstant            = "ls-tree"
	userEmailConfigurationKeyConstant      = "user.email"
	branchConfigurationKeyTemplateConstant = "branch.%s.%s"
	patchNameTemplateConstant              = "%s#%s"
	insideWorkTreeOutputConstant           = "true"
	emailPatternConstant                   = `^[a-zA-Z0-9._%\-+]+@[a-zA-Z0-9._%-]+.[a-zA-Z]{2,6}$`
	fullCommitHashPatternConstant          = `^[a-fA-F0-9]{40}$`
	resolvableCommitHashLengthConstant     = 39
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrBranchNameRequired indicates a branch scoped operation received an empty branch name.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrBranchNotResolved indicates HEAD does not point at a named branch.
var ErrBranchNotResolved = errors.New(branchNotResolvedMessageConstant)

var (
	emailPattern          = regexp.MustCompile(emailPatternConstant)
	fullCommitHashPattern = regexp.MustCompile(fullCommitHashPatternConstant)
)

// GitExecutor exposes the subset of shell execution required by the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Dependencies enumerates collaborators required by RepositoryManager.
type Dependencies struct {
	Executor GitExecutor
}

// RepositoryManager performs read-only interrogation of a git checkout.
//
// The manager is stateless apart from the lazily detected git version, so a
// single instance can serve any number of repositories concurrently.
type RepositoryManager struct {
	executor     GitExecutor
	versionCache versionCache
}

// NewRepositoryManager constructs a RepositoryManager from the provided dependencies.
func NewRepositoryManager(dependencies Dependencies) (*RepositoryManager, error) {
	if dependencies.Executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: dependencies.Executor}, nil
}

// ValidateEmail reports whether the provided address looks like a plausible email.
func ValidateEmail(emailAddress string) bool {
	return emailPattern.MatchString(emailAddress)
}

// IsFullCommitHash reports whether the revision is a complete 40 character commit hash.
func IsFullCommitHash(revision string) bool {
	return fullCommitHashPattern.MatchString(revision)
}

// GetConfigValue reads a configuration key. The boolean is false when the key is not set.
func (manager *RepositoryManager) GetConfigValue(executionContext context.Context, repositoryPath string, configurationKey string) (string, bool, error) {
	configurationValue, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitConfigSubcommandConstant, configurationKey)
	if captureError != nil {
		if isCommandFailure(captureError) {
			return "", false, nil
		}
		return "", false, captureError
	}
	return configurationValue, true, nil
}

// SetConfigValue writes a configuration key.
func (manager *RepositoryManager) SetConfigValue(executionContext context.Context, repositoryPath string, configurationKey string, configurationValue string) error {
	_, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitConfigSubcommandConstant, configurationKey, configurationValue)
	return captureError
}

// UnsetConfigValue removes a configuration key.
func (manager *RepositoryManager) UnsetConfigValue(executionContext context.Context, repositoryPath string, configurationKey string) error {
	_, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitConfigSubcommandConstant, gitConfigUnsetFlagConstant, configurationKey)
	return captureError
}

// GetBranchConfigValue reads a branch scoped configuration key such as branch.<name>.merge.
func (manager *RepositoryManager) GetBranchConfigValue(executionContext context.Context, repositoryPath string, branchName string, configurationKey string) (string, bool, error) {
	scopedKey, scopeError := branchScopedConfigurationKey(branchName, configurationKey)
	if scopeError != nil {
		return "", false, scopeError
	}
	return manager.GetConfigValue(executionContext, repositoryPath, scopedKey)
}

// SetBranchConfigValue writes a branch scoped configuration key.
func (manager *RepositoryManager) SetBranchConfigValue(executionContext context.Context, repositoryPath string, branchName string, configurationKey string, configurationValue string) error {
	scopedKey, scopeError := branchScopedConfigurationKey(branchName, configurationKey)
	if scopeError != nil {
		return scopeError
	}
	return manager.SetConfigValue(executionContext, repositoryPath, scopedKey, configurationValue)
}

// UnsetBranchConfigValue removes a branch scoped configuration key.
func (manager *RepositoryManager) UnsetBranchConfigValue(executionContext context.Context, repositoryPath string, branchName string, configurationKey string) error {
	scopedKey, scopeError := branchScopedConfigurationKey(branchName, configurationKey)
	if scopeError != nil {
		return scopeError
	}
	return manager.UnsetConfigValue(executionContext, repositoryPath, scopedKey)
}

// GetUserEmail retrieves the configured user email address, or an empty string when unset.
func (manager *RepositoryManager) GetUserEmail(executionContext context.Context, repositoryPath string) (string, error) {
	emailAddress, _, captureError := manager.GetConfigValue(executionContext, repositoryPath, userEmailConfigurationKeyConstant)
	if captureError != nil {
		return "", captureError
	}
	return emailAddress, nil
}

// GetBranchRef returns the full reference HEAD points at, e.g. "refs/heads/main".
// The boolean is false when HEAD is detached.
func (manager *RepositoryManager) GetBranchRef(executionContext context.Context, repositoryPath string) (string, bool, error) {
	branchRef, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitHeadReferenceConstant)
	if captureError != nil {
		if isCommandFailure(captureError) {
			return "", false, nil
		}
		return "", false, captureError
	}
	return branchRef, true, nil
}

// GetBranch returns the short name of the current branch, e.g. "main".
// The boolean is false when HEAD is detached.
func (manager *RepositoryManager) GetBranch(executionContext context.Context, repositoryPath string) (string, bool, error) {
	branchRef, branchFound, referenceError := manager.GetBranchRef(executionContext, repositoryPath)
	if referenceError != nil || !branchFound {
		return "", false, referenceError
	}
	return ShortBranchName(branchRef), true, nil
}

// IsInsideWorkTree reports whether the directory lies inside a git work tree.
func (manager *RepositoryManager) IsInsideWorkTree(executionContext context.Context, repositoryPath string) bool {
	workTreeAnswer, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitInsideWorkTreeFlagConstant)
	if captureError != nil {
		return false
	}
	return workTreeAnswer == insideWorkTreeOutputConstant
}

// ProbeCheckout reports whether the directory belongs to a git checkout at all,
// including bare layouts where --is-inside-work-tree would answer false.
func (manager *RepositoryManager) ProbeCheckout(executionContext context.Context, repositoryPath string) bool {
	_, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitShowCdupFlagConstant)
	return captureError == nil
}

// GetCheckoutRoot returns the top level directory of the checkout as an absolute path.
func (manager *RepositoryManager) GetCheckoutRoot(executionContext context.Context, repositoryPath string) (string, error) {
	relativeRoot, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitShowCdupFlagConstant)
	if captureError != nil {
		return "", captureError
	}
	return filepath.Abs(filepath.Join(repositoryPath, relativeRoot))
}

// GetGitDirectory returns the repository metadata directory as an absolute path.
func (manager *RepositoryManager) GetGitDirectory(executionContext context.Context, repositoryPath string) (string, error) {
	gitDirectory, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitGitDirFlagConstant)
	if captureError != nil {
		return "", captureError
	}
	if !filepath.IsAbs(gitDirectory) {
		gitDirectory = filepath.Join(repositoryPath, gitDirectory)
	}
	return filepath.Abs(gitDirectory)
}

// IsDirectoryVersioned reports whether the relative directory is tracked by the repository.
func (manager *RepositoryManager) IsDirectoryVersioned(executionContext context.Context, repositoryPath string, relativeDirectory string) (bool, error) {
	treeListing, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitLSTreeSubcommandConstant, gitHeadReferenceConstant, relativeDirectory)
	if captureError != nil {
		return false, captureError
	}
	return len(treeListing) > 0, nil
}

// IsAncestor reports whether maybeAncestor is an ancestor of the provided reference.
func (manager *RepositoryManager) IsAncestor(executionContext context.Context, repositoryPath string, maybeAncestor string, reference string) (bool, error) {
	_, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitMergeBaseSubcommandConstant, gitIsAncestorFlagConstant, maybeAncestor, reference)
	if captureError != nil {
		if isCommandFailure(captureError) {
			return false, nil
		}
		return false, captureError
	}
	return true, nil
}

// ResolveCommit resolves a revision expression to a commit hash. The boolean is
// false when the revision does not name an object in the local database.
//
// Full 40 character hashes are shortened by one character before verification:
// rev-parse --verify accepts an unknown full hash verbatim, and the truncation
// forces an object lookup instead.
func (manager *RepositoryManager) ResolveCommit(executionContext context.Context, repositoryPath string, revision string) (string, bool, error) {
	verificationTarget := revision
	if IsFullCommitHash(verificationTarget) {
		verificationTarget = verificationTarget[:resolvableCommitHashLengthConstant]
	}
	resolvedCommit, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitQuietFlagConstant, gitVerifyFlagConstant, verificationTarget)
	if captureError != nil {
		if isCommandFailure(captureError) {
			return "", false, nil
		}
		return "", false, captureError
	}
	return resolvedCommit, true, nil
}

// IsValidRevision reports whether the revision names a commit. With shaOnly set
// the revision must itself be the resolved commit hash.
func (manager *RepositoryManager) IsValidRevision(executionContext context.Context, repositoryPath string, revision string, shaOnly bool) (bool, error) {
	resolvedCommit, commitFound, resolutionError := manager.ResolveCommit(executionContext, repositoryPath, revision)
	if resolutionError != nil {
		return false, resolutionError
	}
	if !commitFound {
		return false, nil
	}
	if shaOnly {
		return resolvedCommit == strings.ToLower(revision), nil
	}
	return true, nil
}

// GetPatchName derives a patch identifier of the form "<branch>#<short hash>".
func (manager *RepositoryManager) GetPatchName(executionContext context.Context, repositoryPath string) (string, error) {
	shortCommitHash, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitShortRevisionFlagConstant, gitHeadReferenceConstant)
	if captureError != nil {
		return "", captureError
	}
	branchName, branchFound, branchError := manager.GetBranch(executionContext, repositoryPath)
	if branchError != nil {
		return "", branchError
	}
	if !branchFound {
		return "", ErrBranchNotResolved
	}
	return fmt.Sprintf(patchNameTemplateConstant, branchName, shortCommitHash), nil
}

func (manager *RepositoryManager) captureTrimmed(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) captureRaw(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, arguments)
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

func (manager *RepositoryManager) runGit(executionContext context.Context, repositoryPath string, arguments []string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
}

func branchScopedConfigurationKey(branchName string, configurationKey string) (string, error) {
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return "", ErrBranchNameRequired
	}
	return fmt.Sprintf(branchConfigurationKeyTemplateConstant, trimmedBranchName, configurationKey), nil
}

func isCommandFailure(executionError error) bool {
	var commandFailure execshell.CommandFailedError
	return errors.As(executionError, &commandFailure)
}
