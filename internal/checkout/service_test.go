package checkout

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/scmkit/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/tmp/checkout"
	testBranchNameConstant     = "feature"
)

type remoteHeadRequest struct {
	remoteURL  string
	remoteName string
}

type stubRepositoryManager struct {
	configValues       map[string]string
	branchName         string
	branchFound        bool
	upstreamTuple      gitrepo.UpstreamTuple
	upstreamFound      bool
	upstreamError      error
	defaultBranchRef   string
	statusEntries      []gitrepo.StatusEntry
	diffOutput         string
	allFiles           []string
	differentFiles     []string
	probeAnswers       map[string]bool
	checkoutRoots      map[string]string
	recordedStatusBase string
	recordedDiff       gitrepo.DiffOptions
	remoteHeadRequests []remoteHeadRequest
	upstreamRequests   []string
}

func (manager *stubRepositoryManager) GetConfigValue(_ context.Context, _ string, configurationKey string) (string, bool, error) {
	configurationValue, keyPresent := manager.configValues[configurationKey]
	return configurationValue, keyPresent, nil
}

func (manager *stubRepositoryManager) GetBranch(context.Context, string) (string, bool, error) {
	return manager.branchName, manager.branchFound, nil
}

func (manager *stubRepositoryManager) ResolveUpstream(_ context.Context, _ string, branchName string) (gitrepo.UpstreamTuple, bool, error) {
	manager.upstreamRequests = append(manager.upstreamRequests, branchName)
	return manager.upstreamTuple, manager.upstreamFound, manager.upstreamError
}

func (manager *stubRepositoryManager) ResolveDefaultRemoteBranch(_ context.Context, _ string, remoteURL string, remoteName string) string {
	manager.remoteHeadRequests = append(manager.remoteHeadRequests, remoteHeadRequest{remoteURL: remoteURL, remoteName: remoteName})
	return manager.defaultBranchRef
}

func (manager *stubRepositoryManager) CaptureStatus(_ context.Context, _ string, upstreamBranch string) ([]gitrepo.StatusEntry, error) {
	manager.recordedStatusBase = upstreamBranch
	return manager.statusEntries, nil
}

func (manager *stubRepositoryManager) GenerateDiff(_ context.Context, _ string, options gitrepo.DiffOptions) (string, error) {
	manager.recordedDiff = options
	return manager.diffOutput, nil
}

func (manager *stubRepositoryManager) GetAllFiles(context.Context, string) ([]string, error) {
	return manager.allFiles, nil
}

func (manager *stubRepositoryManager) GetDifferentFiles(context.Context, string, string, string) ([]string, error) {
	return manager.differentFiles, nil
}

func (manager *stubRepositoryManager) ProbeCheckout(_ context.Context, repositoryPath string) bool {
	return manager.probeAnswers[repositoryPath]
}

func (manager *stubRepositoryManager) GetCheckoutRoot(_ context.Context, repositoryPath string) (string, error) {
	checkoutRoot, rootKnown := manager.checkoutRoots[repositoryPath]
	if !rootKnown {
		return "", errors.New("unknown checkout")
	}
	return checkoutRoot, nil
}

type stubDiscoverer struct {
	discovered    []string
	recordedRoots []string
}

func (discoverer *stubDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	discoverer.recordedRoots = append([]string{}, roots...)
	return discoverer.discovered, nil
}

type stubFileSystem struct {
	existingPaths map[string]struct{}
}

func (fileSystem stubFileSystem) Stat(path string) (fs.FileInfo, error) {
	if _, pathExists := fileSystem.existingPaths[path]; pathExists {
		return os.Stat(string(filepath.Separator))
	}
	return nil, fs.ErrNotExist
}

func newServiceForTest(t *testing.T, manager *stubRepositoryManager, discoverer *stubDiscoverer, fileSystem *stubFileSystem) *Service {
	t.Helper()
	if discoverer == nil {
		discoverer = &stubDiscoverer{}
	}
	if fileSystem == nil {
		fileSystem = &stubFileSystem{}
	}
	service, serviceError := NewService(Dependencies{RepositoryManager: manager, Discoverer: discoverer, FileSystem: fileSystem})
	require.NoError(t, serviceError)
	return service
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	testCases := []struct {
		name          string
		dependencies  Dependencies
		expectedError error
	}{
		{
			name:          "MissingRepositoryManager",
			dependencies:  Dependencies{Discoverer: &stubDiscoverer{}, FileSystem: stubFileSystem{}},
			expectedError: ErrRepositoryManagerNotConfigured,
		},
		{
			name:          "MissingDiscoverer",
			dependencies:  Dependencies{RepositoryManager: &stubRepositoryManager{}, FileSystem: stubFileSystem{}},
			expectedError: ErrDiscovererNotConfigured,
		},
		{
			name:          "MissingFileSystem",
			dependencies:  Dependencies{RepositoryManager: &stubRepositoryManager{}, Discoverer: &stubDiscoverer{}},
			expectedError: ErrFileSystemNotConfigured,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, serviceError := NewService(testCase.dependencies)
			require.ErrorIs(t, serviceError, testCase.expectedError)
		})
	}
}

func TestDescribeUpstream(t *testing.T) {
	t.Run("TranslatesRemoteTracking", func(t *testing.T) {
		manager := &stubRepositoryManager{
			upstreamTuple: gitrepo.UpstreamTuple{RemoteName: "origin", BranchRef: "refs/heads/main"},
			upstreamFound: true,
		}
		service := newServiceForTest(t, manager, nil, nil)

		report, reportError := service.DescribeUpstream(context.Background(), UpstreamOptions{RepositoryPath: testRepositoryPathConstant, BranchName: testBranchNameConstant})
		require.NoError(t, reportError)
		require.True(t, report.Found)
		require.Equal(t, testBranchNameConstant, report.BranchName)
		require.Equal(t, "origin", report.RemoteName)
		require.Equal(t, "refs/heads/main", report.BranchRef)
		require.Equal(t, "refs/remotes/origin/main", report.TrackingRef)
		require.Equal(t, []string{testBranchNameConstant}, manager.upstreamRequests)
	})

	t.Run("LocalTrackingKeepsRawRef", func(t *testing.T) {
		manager := &stubRepositoryManager{
			upstreamTuple: gitrepo.UpstreamTuple{RemoteName: ".", BranchRef: "refs/heads/base"},
			upstreamFound: true,
		}
		service := newServiceForTest(t, manager, nil, nil)

		report, reportError := service.DescribeUpstream(context.Background(), UpstreamOptions{RepositoryPath: testRepositoryPathConstant, BranchName: testBranchNameConstant})
		require.NoError(t, reportError)
		require.Equal(t, "refs/heads/base", report.TrackingRef)
	})

	t.Run("AbsentUpstreamIsNotAnError", func(t *testing.T) {
		manager := &stubRepositoryManager{branchName: "work", branchFound: true}
		service := newServiceForTest(t, manager, nil, nil)

		report, reportError := service.DescribeUpstream(context.Background(), UpstreamOptions{RepositoryPath: testRepositoryPathConstant})
		require.NoError(t, reportError)
		require.False(t, report.Found)
		require.Equal(t, "work", report.BranchName)
	})

	t.Run("DetachedHeadReportsPlaceholder", func(t *testing.T) {
		manager := &stubRepositoryManager{}
		service := newServiceForTest(t, manager, nil, nil)

		report, reportError := service.DescribeUpstream(context.Background(), UpstreamOptions{RepositoryPath: testRepositoryPathConstant})
		require.NoError(t, reportError)
		require.False(t, report.Found)
		require.Equal(t, "HEAD", report.BranchName)
	})

	t.Run("RequiresRepositoryPath", func(t *testing.T) {
		service := newServiceForTest(t, &stubRepositoryManager{}, nil, nil)

		_, reportError := service.DescribeUpstream(context.Background(), UpstreamOptions{})
		require.ErrorIs(t, reportError, ErrRepositoryPathRequired)
	})
}

func TestResolveRemoteHead(t *testing.T) {
	t.Run("ExplicitURLSkipsConfiguration", func(t *testing.T) {
		manager := &stubRepositoryManager{defaultBranchRef: "refs/remotes/origin/main"}
		service := newServiceForTest(t, manager, nil, nil)

		resolvedRef, resolveError := service.ResolveRemoteHead(context.Background(), RemoteHeadOptions{
			RepositoryPath: testRepositoryPathConstant,
			RemoteName:     "origin",
			RemoteURL:      "https://example.com/project.git",
		})
		require.NoError(t, resolveError)
		require.Equal(t, "refs/remotes/origin/main", resolvedRef)
		require.Equal(t, []remoteHeadRequest{{remoteURL: "https://example.com/project.git", remoteName: "origin"}}, manager.remoteHeadRequests)
	})

	t.Run("ReadsConfiguredFetchURL", func(t *testing.T) {
		manager := &stubRepositoryManager{
			configValues:     map[string]string{"remote.upstream.url": "git@example.com:project.git"},
			defaultBranchRef: "refs/remotes/upstream/main",
		}
		service := newServiceForTest(t, manager, nil, nil)

		resolvedRef, resolveError := service.ResolveRemoteHead(context.Background(), RemoteHeadOptions{
			RepositoryPath: testRepositoryPathConstant,
			RemoteName:     "upstream",
		})
		require.NoError(t, resolveError)
		require.Equal(t, "refs/remotes/upstream/main", resolvedRef)
		require.Equal(t, "git@example.com:project.git", manager.remoteHeadRequests[0].remoteURL)
	})

	t.Run("DefaultsRemoteNameToOrigin", func(t *testing.T) {
		manager := &stubRepositoryManager{defaultBranchRef: "refs/remotes/origin/main"}
		service := newServiceForTest(t, manager, nil, nil)

		_, resolveError := service.ResolveRemoteHead(context.Background(), RemoteHeadOptions{RepositoryPath: testRepositoryPathConstant})
		require.NoError(t, resolveError)
		require.Equal(t, "origin", manager.remoteHeadRequests[0].remoteName)
	})
}

func TestCaptureStatusDelegatesBase(t *testing.T) {
	manager := &stubRepositoryManager{
		statusEntries: []gitrepo.StatusEntry{{StatusCode: "M      ", FilePath: "foo/bar.txt"}},
	}
	service := newServiceForTest(t, manager, nil, nil)

	statusEntries, statusError := service.CaptureStatus(context.Background(), StatusOptions{RepositoryPath: testRepositoryPathConstant, BaseRevision: "refs/remotes/origin/main"})
	require.NoError(t, statusError)
	require.Equal(t, manager.statusEntries, statusEntries)
	require.Equal(t, "refs/remotes/origin/main", manager.recordedStatusBase)
}

func TestGenerateDiffForwardsOptions(t *testing.T) {
	manager := &stubRepositoryManager{diffOutput: "diff --git a b\n"}
	service := newServiceForTest(t, manager, nil, nil)

	diffText, diffError := service.GenerateDiff(context.Background(), DiffOptions{
		RepositoryPath: testRepositoryPathConstant,
		BaseRevision:   "base",
		HeadRevision:   "head",
		FullMove:       true,
		FilePaths:      []string{"src"},
	})
	require.NoError(t, diffError)
	require.Equal(t, "diff --git a b\n", diffText)
	require.Equal(t, gitrepo.DiffOptions{BaseRevision: "base", HeadRevision: "head", FullMove: true, FilePaths: []string{"src"}}, manager.recordedDiff)
}

func TestListFilesSelectsListing(t *testing.T) {
	manager := &stubRepositoryManager{
		allFiles:       []string{"a.go", "b.go"},
		differentFiles: []string{"b.go"},
	}
	service := newServiceForTest(t, manager, nil, nil)

	trackedFiles, trackedError := service.ListFiles(context.Background(), FilesOptions{RepositoryPath: testRepositoryPathConstant})
	require.NoError(t, trackedError)
	require.Equal(t, []string{"a.go", "b.go"}, trackedFiles)

	changedFiles, changedError := service.ListFiles(context.Background(), FilesOptions{RepositoryPath: testRepositoryPathConstant, ChangedOnly: true})
	require.NoError(t, changedError)
	require.Equal(t, []string{"b.go"}, changedFiles)
}

func TestDetectCheckouts(t *testing.T) {
	t.Run("ReportsMetadataAndProbeHits", func(t *testing.T) {
		firstCandidate := filepath.Join("/tmp", "one")
		secondCandidate := filepath.Join("/tmp", "two")
		thirdCandidate := filepath.Join("/tmp", "three")

		manager := &stubRepositoryManager{
			probeAnswers:  map[string]bool{secondCandidate: true},
			checkoutRoots: map[string]string{firstCandidate: firstCandidate, secondCandidate: secondCandidate},
		}
		discoverer := &stubDiscoverer{discovered: []string{firstCandidate, secondCandidate, thirdCandidate}}
		fileSystem := &stubFileSystem{existingPaths: map[string]struct{}{filepath.Join(firstCandidate, ".git"): {}}}
		service := newServiceForTest(t, manager, discoverer, fileSystem)

		checkoutReports, detectError := service.DetectCheckouts(context.Background(), []string{"/tmp"})
		require.NoError(t, detectError)
		require.Equal(t, []CheckoutReport{
			{RepositoryPath: firstCandidate, CheckoutRoot: firstCandidate},
			{RepositoryPath: secondCandidate, CheckoutRoot: secondCandidate},
		}, checkoutReports)
		require.Equal(t, []string{"/tmp"}, discoverer.recordedRoots)
	})

	t.Run("RequiresRoots", func(t *testing.T) {
		service := newServiceForTest(t, &stubRepositoryManager{}, nil, nil)

		_, detectError := service.DetectCheckouts(context.Background(), nil)
		require.ErrorIs(t, detectError, ErrCheckoutRootsRequired)
	})
}
