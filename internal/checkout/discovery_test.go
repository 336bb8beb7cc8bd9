package checkout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func createCheckoutWithDirectory(t *testing.T, checkoutPath string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(checkoutPath, ".git"), 0o755))
}

func createCheckoutWithFile(t *testing.T, checkoutPath string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(checkoutPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(checkoutPath, ".git"), []byte("gitdir: ../elsewhere\n"), 0o644))
}

func TestDiscoverRepositories(t *testing.T) {
	t.Run("FindsDirectoryAndFileMetadata", func(t *testing.T) {
		rootDirectory := t.TempDir()
		firstCheckout := filepath.Join(rootDirectory, "alpha")
		secondCheckout := filepath.Join(rootDirectory, "nested", "beta")
		worktreeCheckout := filepath.Join(rootDirectory, "worktree")
		plainDirectory := filepath.Join(rootDirectory, "plain")

		createCheckoutWithDirectory(t, firstCheckout)
		createCheckoutWithDirectory(t, secondCheckout)
		createCheckoutWithFile(t, worktreeCheckout)
		require.NoError(t, os.MkdirAll(plainDirectory, 0o755))

		discoverer := NewFilesystemCheckoutDiscoverer()
		discoveredPaths, discoveryError := discoverer.DiscoverRepositories([]string{rootDirectory})
		require.NoError(t, discoveryError)
		require.Equal(t, []string{firstCheckout, secondCheckout, worktreeCheckout}, discoveredPaths)
	})

	t.Run("DoesNotDescendIntoGitMetadata", func(t *testing.T) {
		rootDirectory := t.TempDir()
		checkoutPath := filepath.Join(rootDirectory, "project")
		createCheckoutWithDirectory(t, checkoutPath)
		require.NoError(t, os.MkdirAll(filepath.Join(checkoutPath, ".git", "modules", "vendor", ".git"), 0o755))

		discoverer := NewFilesystemCheckoutDiscoverer()
		discoveredPaths, discoveryError := discoverer.DiscoverRepositories([]string{rootDirectory})
		require.NoError(t, discoveryError)
		require.Equal(t, []string{checkoutPath}, discoveredPaths)
	})

	t.Run("DeduplicatesOverlappingRoots", func(t *testing.T) {
		rootDirectory := t.TempDir()
		checkoutPath := filepath.Join(rootDirectory, "project")
		createCheckoutWithDirectory(t, checkoutPath)

		discoverer := NewFilesystemCheckoutDiscoverer()
		discoveredPaths, discoveryError := discoverer.DiscoverRepositories([]string{rootDirectory, rootDirectory})
		require.NoError(t, discoveryError)
		require.Equal(t, []string{checkoutPath}, discoveredPaths)
	})
}
