package gitrepo_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/scmkit/internal/execshell"
	"github.com/temirov/scmkit/internal/gitrepo"
)

const testRepositoryPathConstant = "/workspace/project"

type scriptedResponse struct {
	output         string
	executionError error
}

// scriptedGitExecutor answers git invocations from a table keyed by the joined
// argument list. Each key holds a queue of responses; the final response is
// reused once the queue drains. Unknown invocations fail the way a real
// missing key or reference would, with a non-zero exit.
type scriptedGitExecutor struct {
	responses        map[string][]scriptedResponse
	recordedCommands []execshell.CommandDetails
}

func newScriptedGitExecutor(responses map[string][]scriptedResponse) *scriptedGitExecutor {
	return &scriptedGitExecutor{responses: responses}
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)

	commandKey := strings.Join(details.Arguments, " ")
	responseQueue, scripted := executor.responses[commandKey]
	if !scripted || len(responseQueue) == 0 {
		command := execshell.ShellCommand{Name: execshell.CommandGit, Details: details}
		result := execshell.ExecutionResult{ExitCode: 1}
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: result}
	}

	response := responseQueue[0]
	if len(responseQueue) > 1 {
		executor.responses[commandKey] = responseQueue[1:]
	}
	if response.executionError != nil {
		return execshell.ExecutionResult{}, response.executionError
	}
	return execshell.ExecutionResult{StandardOutput: response.output}, nil
}

func (executor *scriptedGitExecutor) commandArguments() []string {
	joined := make([]string, 0, len(executor.recordedCommands))
	for _, details := range executor.recordedCommands {
		joined = append(joined, strings.Join(details.Arguments, " "))
	}
	return joined
}

func newTestRepositoryManager(t *testing.T, responses map[string][]scriptedResponse) (*gitrepo.RepositoryManager, *scriptedGitExecutor) {
	t.Helper()
	executor := newScriptedGitExecutor(responses)
	manager, creationError := gitrepo.NewRepositoryManager(gitrepo.Dependencies{Executor: executor})
	require.NoError(t, creationError)
	return manager, executor
}

func TestNewRepositoryManagerValidatesDependencies(t *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(gitrepo.Dependencies{})
	require.ErrorIs(t, creationError, gitrepo.ErrGitExecutorNotConfigured)
	require.Nil(t, manager)
}

func TestGetConfigValue(t *testing.T) {
	t.Run("PresentKey", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"config user.email": {{output: "developer@example.com\n"}},
		})

		configurationValue, configurationFound, configurationError := manager.GetConfigValue(context.Background(), testRepositoryPathConstant, "user.email")
		require.NoError(t, configurationError)
		require.True(t, configurationFound)
		require.Equal(t, "developer@example.com", configurationValue)
	})

	t.Run("MissingKeyReportsAbsence", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, nil)

		_, configurationFound, configurationError := manager.GetConfigValue(context.Background(), testRepositoryPathConstant, "rietveld.upstream-branch")
		require.NoError(t, configurationError)
		require.False(t, configurationFound)
	})

	t.Run("SpawnFailurePropagates", func(t *testing.T) {
		spawnFailure := execshell.CommandExecutionError{Cause: errors.New("executable not found")}
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"config user.email": {{executionError: spawnFailure}},
		})

		_, _, configurationError := manager.GetConfigValue(context.Background(), testRepositoryPathConstant, "user.email")
		require.Error(t, configurationError)
		require.IsType(t, execshell.CommandExecutionError{}, configurationError)
	})
}

func TestConfigMutationArgumentShapes(t *testing.T) {
	manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"config rietveld.upstream-branch refs/heads/main": {{}},
		"config --unset rietveld.upstream-branch":         {{}},
	})

	require.NoError(t, manager.SetConfigValue(context.Background(), testRepositoryPathConstant, "rietveld.upstream-branch", "refs/heads/main"))
	require.NoError(t, manager.UnsetConfigValue(context.Background(), testRepositoryPathConstant, "rietveld.upstream-branch"))

	require.Equal(t, []string{
		"config rietveld.upstream-branch refs/heads/main",
		"config --unset rietveld.upstream-branch",
	}, executor.commandArguments())
}

func TestBranchConfigValueScopesKey(t *testing.T) {
	manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"config branch.feature.merge": {{output: "refs/heads/main"}},
	})

	mergeRef, mergeFound, mergeError := manager.GetBranchConfigValue(context.Background(), testRepositoryPathConstant, "feature", "merge")
	require.NoError(t, mergeError)
	require.True(t, mergeFound)
	require.Equal(t, "refs/heads/main", mergeRef)
	require.Equal(t, []string{"config branch.feature.merge"}, executor.commandArguments())
}

func TestBranchConfigValueRequiresBranchName(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, nil)

	_, _, configurationError := manager.GetBranchConfigValue(context.Background(), testRepositoryPathConstant, "  ", "merge")
	require.ErrorIs(t, configurationError, gitrepo.ErrBranchNameRequired)

	mutationError := manager.SetBranchConfigValue(context.Background(), testRepositoryPathConstant, "", "merge", "refs/heads/main")
	require.ErrorIs(t, mutationError, gitrepo.ErrBranchNameRequired)
}

func TestGetUserEmailDefaultsToEmpty(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, nil)

	emailAddress, emailError := manager.GetUserEmail(context.Background(), testRepositoryPathConstant)
	require.NoError(t, emailError)
	require.Empty(t, emailAddress)
}

func TestGetBranchRefAndShortName(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"symbolic-ref HEAD": {{output: "refs/heads/feature\n"}},
	})

	branchRef, refFound, refError := manager.GetBranchRef(context.Background(), testRepositoryPathConstant)
	require.NoError(t, refError)
	require.True(t, refFound)
	require.Equal(t, "refs/heads/feature", branchRef)

	branchName, branchFound, branchError := manager.GetBranch(context.Background(), testRepositoryPathConstant)
	require.NoError(t, branchError)
	require.True(t, branchFound)
	require.Equal(t, "feature", branchName)
}

func TestGetBranchReportsDetachedHead(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, nil)

	_, branchFound, branchError := manager.GetBranch(context.Background(), testRepositoryPathConstant)
	require.NoError(t, branchError)
	require.False(t, branchFound)
}

func TestIsInsideWorkTree(t *testing.T) {
	t.Run("InsideWorkTree", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"rev-parse --is-inside-work-tree": {{output: "true\n"}},
		})
		require.True(t, manager.IsInsideWorkTree(context.Background(), testRepositoryPathConstant))
	})

	t.Run("InsideGitDirectory", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"rev-parse --is-inside-work-tree": {{output: "false\n"}},
		})
		require.False(t, manager.IsInsideWorkTree(context.Background(), testRepositoryPathConstant))
	})

	t.Run("OutsideRepository", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, nil)
		require.False(t, manager.IsInsideWorkTree(context.Background(), testRepositoryPathConstant))
	})
}

func TestProbeCheckout(t *testing.T) {
	insideManager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"rev-parse --show-cdup": {{output: "../\n"}},
	})
	require.True(t, insideManager.ProbeCheckout(context.Background(), testRepositoryPathConstant))

	outsideManager, _ := newTestRepositoryManager(t, nil)
	require.False(t, outsideManager.ProbeCheckout(context.Background(), testRepositoryPathConstant))
}

func TestGetCheckoutRootResolvesRelativePrefix(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"rev-parse --show-cdup": {{output: "../\n"}},
	})

	checkoutRoot, rootError := manager.GetCheckoutRoot(context.Background(), "/workspace/project/subdirectory")
	require.NoError(t, rootError)
	require.Equal(t, "/workspace/project", checkoutRoot)
}

func TestGetGitDirectoryResolvesRelativePath(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"rev-parse --git-dir": {{output: ".git\n"}},
	})

	gitDirectory, directoryError := manager.GetGitDirectory(context.Background(), testRepositoryPathConstant)
	require.NoError(t, directoryError)
	require.Equal(t, "/workspace/project/.git", gitDirectory)
}

func TestIsDirectoryVersioned(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"ls-tree HEAD tracked":   {{output: "040000 tree 7cdd... tracked\n"}},
		"ls-tree HEAD untracked": {{output: "\n"}},
	})

	trackedVersioned, trackedError := manager.IsDirectoryVersioned(context.Background(), testRepositoryPathConstant, "tracked")
	require.NoError(t, trackedError)
	require.True(t, trackedVersioned)

	untrackedVersioned, untrackedError := manager.IsDirectoryVersioned(context.Background(), testRepositoryPathConstant, "untracked")
	require.NoError(t, untrackedError)
	require.False(t, untrackedVersioned)
}

func TestIsAncestorTreatsFailureAsNegative(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"merge-base --is-ancestor known HEAD": {{}},
	})

	knownAncestor, knownError := manager.IsAncestor(context.Background(), testRepositoryPathConstant, "known", "HEAD")
	require.NoError(t, knownError)
	require.True(t, knownAncestor)

	unrelatedAncestor, unrelatedError := manager.IsAncestor(context.Background(), testRepositoryPathConstant, "unrelated", "HEAD")
	require.NoError(t, unrelatedError)
	require.False(t, unrelatedAncestor)
}

func TestResolveCommitShortensFullHashes(t *testing.T) {
	fullCommitHash := "1b9f20ac59f4f8e5b33eb3f9d1e7d845e9e0c3da"
	manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"rev-parse --quiet --verify " + fullCommitHash[:39]: {{output: fullCommitHash + "\n"}},
	})

	resolvedCommit, commitFound, resolveError := manager.ResolveCommit(context.Background(), testRepositoryPathConstant, fullCommitHash)
	require.NoError(t, resolveError)
	require.True(t, commitFound)
	require.Equal(t, fullCommitHash, resolvedCommit)
	require.Equal(t, []string{"rev-parse --quiet --verify " + fullCommitHash[:39]}, executor.commandArguments())
}

func TestResolveCommitReportsUnknownRevision(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, nil)

	_, commitFound, resolveError := manager.ResolveCommit(context.Background(), testRepositoryPathConstant, "does-not-exist")
	require.NoError(t, resolveError)
	require.False(t, commitFound)
}

func TestIsValidRevision(t *testing.T) {
	fullCommitHash := "1B9F20AC59F4F8E5B33EB3F9D1E7D845E9E0C3DA"
	lowercaseCommitHash := strings.ToLower(fullCommitHash)
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"rev-parse --quiet --verify " + fullCommitHash[:39]: {{output: lowercaseCommitHash + "\n"}},
		"rev-parse --quiet --verify feature":                {{output: lowercaseCommitHash + "\n"}},
	})

	branchValid, branchError := manager.IsValidRevision(context.Background(), testRepositoryPathConstant, "feature", false)
	require.NoError(t, branchError)
	require.True(t, branchValid)

	branchShaOnly, branchShaOnlyError := manager.IsValidRevision(context.Background(), testRepositoryPathConstant, "feature", true)
	require.NoError(t, branchShaOnlyError)
	require.False(t, branchShaOnly)

	hashShaOnly, hashShaOnlyError := manager.IsValidRevision(context.Background(), testRepositoryPathConstant, fullCommitHash, true)
	require.NoError(t, hashShaOnlyError)
	require.True(t, hashShaOnly)
}

func TestGetPatchName(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"rev-parse --short=4 HEAD": {{output: "1b9f\n"}},
		"symbolic-ref HEAD":        {{output: "refs/heads/feature\n"}},
	})

	patchName, patchError := manager.GetPatchName(context.Background(), testRepositoryPathConstant)
	require.NoError(t, patchError)
	require.Equal(t, "feature#1b9f", patchName)
}

func TestGetPatchNameRequiresBranch(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"rev-parse --short=4 HEAD": {{output: "1b9f\n"}},
	})

	_, patchError := manager.GetPatchName(context.Background(), testRepositoryPathConstant)
	require.ErrorIs(t, patchError, gitrepo.ErrBranchNotResolved)
}

func TestValidateEmail(t *testing.T) {
	require.True(t, gitrepo.ValidateEmail("developer@example.com"))
	require.True(t, gitrepo.ValidateEmail("first.last+tag@sub.example.org"))
	require.False(t, gitrepo.ValidateEmail("not-an-email"))
	require.False(t, gitrepo.ValidateEmail("missing-domain@"))
}

func TestIsFullCommitHash(t *testing.T) {
	require.True(t, gitrepo.IsFullCommitHash("1b9f20ac59f4f8e5b33eb3f9d1e7d845e9e0c3da"))
	require.True(t, gitrepo.IsFullCommitHash("1B9F20AC59F4F8E5B33EB3F9D1E7D845E9E0C3DA"))
	require.False(t, gitrepo.IsFullCommitHash("1b9f20ac"))
	require.False(t, gitrepo.IsFullCommitHash("zz9f20ac59f4f8e5b33eb3f9d1e7d845e9e0c3da"))
}
