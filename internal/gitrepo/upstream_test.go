package gitrepo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/scmkit/internal/gitrepo"
)

const testRemoteURLConstant = "https://example.com/project.git"

func TestResolveUpstream(t *testing.T) {
	t.Run("BranchConfigurationWins", func(t *testing.T) {
		manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"config branch.feature.merge":  {{output: "refs/heads/custom\n"}},
			"config branch.feature.remote": {{output: "upstream\n"}},
			"branch -r":                    {{output: "  origin/main\n"}},
		})

		upstreamTuple, upstreamFound, upstreamError := manager.ResolveUpstream(context.Background(), testRepositoryPathConstant, "feature")
		require.NoError(t, upstreamError)
		require.True(t, upstreamFound)
		require.Equal(t, gitrepo.UpstreamTuple{RemoteName: "upstream", BranchRef: "refs/heads/custom"}, upstreamTuple)
		require.Equal(t, []string{
			"config branch.feature.merge",
			"config branch.feature.remote",
		}, executor.commandArguments())
	})

	t.Run("MissingRemoteDefaultsToLocalDot", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"config branch.feature.merge": {{output: "refs/heads/base\n"}},
		})

		upstreamTuple, upstreamFound, upstreamError := manager.ResolveUpstream(context.Background(), testRepositoryPathConstant, "feature")
		require.NoError(t, upstreamError)
		require.True(t, upstreamFound)
		require.Equal(t, gitrepo.UpstreamTuple{RemoteName: ".", BranchRef: "refs/heads/base"}, upstreamTuple)
	})

	t.Run("EmptyMergeValueFallsThrough", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"config branch.feature.merge": {{output: "\n"}},
			"branch -r":                   {{output: "\n"}},
		})

		_, upstreamFound, upstreamError := manager.ResolveUpstream(context.Background(), testRepositoryPathConstant, "feature")
		require.NoError(t, upstreamError)
		require.False(t, upstreamFound)
	})

	t.Run("LegacyConfigurationLayer", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"config rietveld.upstream-branch": {{output: "refs/heads/legacy\n"}},
		})

		upstreamTuple, upstreamFound, upstreamError := manager.ResolveUpstream(context.Background(), testRepositoryPathConstant, "")
		require.NoError(t, upstreamError)
		require.True(t, upstreamFound)
		require.Equal(t, gitrepo.UpstreamTuple{RemoteName: ".", BranchRef: "refs/heads/legacy"}, upstreamTuple)
	})

	t.Run("PrefersMainOverMaster", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"branch -r": {{output: "  origin/HEAD -> origin/main\n  origin/main\n  origin/master\n"}},
		})

		upstreamTuple, upstreamFound, upstreamError := manager.ResolveUpstream(context.Background(), testRepositoryPathConstant, "work")
		require.NoError(t, upstreamError)
		require.True(t, upstreamFound)
		require.Equal(t, gitrepo.UpstreamTuple{RemoteName: "origin", BranchRef: "refs/heads/main"}, upstreamTuple)
	})

	t.Run("AcceptsMasterWhenMainAbsent", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"branch -r": {{output: "  origin/master\n  origin/release\n"}},
		})

		upstreamTuple, upstreamFound, upstreamError := manager.ResolveUpstream(context.Background(), testRepositoryPathConstant, "work")
		require.NoError(t, upstreamError)
		require.True(t, upstreamFound)
		require.Equal(t, gitrepo.UpstreamTuple{RemoteName: "origin", BranchRef: "refs/heads/master"}, upstreamTuple)
	})

	t.Run("AbsentWhenNothingConfigured", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"branch -r": {{output: "\n"}},
		})

		_, upstreamFound, upstreamError := manager.ResolveUpstream(context.Background(), testRepositoryPathConstant, "work")
		require.NoError(t, upstreamError)
		require.False(t, upstreamFound)
	})
}

func TestResolveUpstreamRef(t *testing.T) {
	t.Run("TranslatesRemoteTuple", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"symbolic-ref HEAD":            {{output: "refs/heads/feature\n"}},
			"config branch.feature.merge":  {{output: "refs/heads/main\n"}},
			"config branch.feature.remote": {{output: "origin\n"}},
		})

		upstreamRef, upstreamFound, upstreamError := manager.ResolveUpstreamRef(context.Background(), testRepositoryPathConstant)
		require.NoError(t, upstreamError)
		require.True(t, upstreamFound)
		require.Equal(t, "refs/remotes/origin/main", upstreamRef)
	})

	t.Run("KeepsLocalUpstreamUntranslated", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"symbolic-ref HEAD":            {{output: "refs/heads/feature\n"}},
			"config branch.feature.merge":  {{output: "refs/heads/base\n"}},
			"config branch.feature.remote": {{output: ".\n"}},
		})

		upstreamRef, upstreamFound, upstreamError := manager.ResolveUpstreamRef(context.Background(), testRepositoryPathConstant)
		require.NoError(t, upstreamError)
		require.True(t, upstreamFound)
		require.Equal(t, "refs/heads/base", upstreamRef)
	})

	t.Run("AbsentWithoutUpstream", func(t *testing.T) {
		manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
			"symbolic-ref HEAD": {{output: "refs/heads/feature\n"}},
			"branch -r":         {{output: "\n"}},
		})

		_, upstreamFound, upstreamError := manager.ResolveUpstreamRef(context.Background(), testRepositoryPathConstant)
		require.NoError(t, upstreamError)
		require.False(t, upstreamFound)
	})
}

func TestGetRemoteBranchesSplitsListing(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"branch -r": {{output: "  origin/HEAD -> origin/main\n  origin/main\n  origin/feature\n"}},
	})

	remoteBranches, listError := manager.GetRemoteBranches(context.Background(), testRepositoryPathConstant)
	require.NoError(t, listError)
	require.Equal(t, []string{"origin/HEAD", "->", "origin/main", "origin/main", "origin/feature"}, remoteBranches)
}

func TestResolveDefaultRemoteBranchTrustsLocalHeadMirror(t *testing.T) {
	checkoutPath := t.TempDir()
	manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"symbolic-ref refs/remotes/origin/HEAD": {{output: "refs/remotes/origin/develop\n"}},
	})

	defaultBranchRef := manager.ResolveDefaultRemoteBranch(context.Background(), checkoutPath, testRemoteURLConstant, "origin")
	require.Equal(t, "refs/remotes/origin/develop", defaultBranchRef)
	require.Equal(t, []string{"symbolic-ref refs/remotes/origin/HEAD"}, executor.commandArguments())
}

func TestResolveDefaultRemoteBranchRefreshesStaleMasterMirror(t *testing.T) {
	checkoutPath := t.TempDir()
	manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"symbolic-ref refs/remotes/origin/HEAD": {
			{output: "refs/remotes/origin/master\n"},
			{output: "refs/remotes/origin/main\n"},
		},
		"remote set-head -a origin": {{}},
	})

	defaultBranchRef := manager.ResolveDefaultRemoteBranch(context.Background(), checkoutPath, testRemoteURLConstant, "origin")
	require.Equal(t, "refs/remotes/origin/main", defaultBranchRef)
	require.Equal(t, []string{
		"symbolic-ref refs/remotes/origin/HEAD",
		"remote set-head -a origin",
		"symbolic-ref refs/remotes/origin/HEAD",
	}, executor.commandArguments())
}

func TestResolveDefaultRemoteBranchQueriesRemoteWithoutLocalCheckout(t *testing.T) {
	missingCheckoutPath := filepath.Join(t.TempDir(), "not-yet-cloned")
	manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"--version": {{output: "git version 2.39.1\n"}},
		"ls-remote --symref https://example.com/project.git HEAD": {
			{output: "ref: refs/heads/main\tHEAD\n8f0bdfd2a9b1c3d4e5f60718293a4b5c6d7e8f90\tHEAD\n"},
		},
	})

	defaultBranchRef := manager.ResolveDefaultRemoteBranch(context.Background(), missingCheckoutPath, testRemoteURLConstant, "origin")
	require.Equal(t, "refs/remotes/origin/main", defaultBranchRef)

	for _, recordedCommand := range executor.recordedCommands {
		require.Empty(t, recordedCommand.WorkingDirectory)
	}
}

func TestResolveDefaultRemoteBranchSkipsSymrefQueryOnOldGit(t *testing.T) {
	manager, executor := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"--version": {{output: "git version 2.7.4\n"}},
	})

	defaultBranchRef := manager.ResolveDefaultRemoteBranch(context.Background(), "", testRemoteURLConstant, "origin")
	require.Equal(t, "refs/remotes/origin/main", defaultBranchRef)
	require.Equal(t, []string{"--version"}, executor.commandArguments())
}

func TestResolveDefaultRemoteBranchAssumesMainWhenRemoteQueryFails(t *testing.T) {
	manager, _ := newTestRepositoryManager(t, map[string][]scriptedResponse{
		"--version": {{output: "git version 2.39.1\n"}},
	})

	defaultBranchRef := manager.ResolveDefaultRemoteBranch(context.Background(), "", testRemoteURLConstant, "upstream")
	require.Equal(t, "refs/remotes/upstream/main", defaultBranchRef)
}
