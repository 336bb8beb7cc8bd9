package checkout

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/temirov/scmkit/internal/gitrepo"
)

const (
	defaultRemoteNameConstant                 = "origin"
	remoteURLConfigurationKeyTemplateConstant = "remote.%s.url"
	gitMetadataDirectoryNameConstant          = ".git"
	detachedHeadDisplayNameConstant           = "HEAD"
	localCheckoutRemoteNameConstant           = "."
	repositoryManagerRequiredMessageConstant  = "checkout service requires a repository manager"
	discovererRequiredMessageConstant         = "checkout service requires a repository discoverer"
	fileSystemRequiredMessageConstant         = "checkout service requires a file system"
	repositoryPathRequiredMessageConstant     = "repository path must not be empty"
	checkoutRootsRequiredMessageConstant      = "at least one checkout root is required"
)

var (
	// ErrRepositoryManagerNotConfigured indicates the service was constructed without a repository manager.
	ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerRequiredMessageConstant)
	// ErrDiscovererNotConfigured indicates the service was constructed without a repository discoverer.
	ErrDiscovererNotConfigured = errors.New(discovererRequiredMessageConstant)
	// ErrFileSystemNotConfigured indicates the service was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemRequiredMessageConstant)
	// ErrRepositoryPathRequired indicates an operation was invoked without a repository path.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
	// ErrCheckoutRootsRequired indicates checkout detection was invoked without any roots.
	ErrCheckoutRootsRequired = errors.New(checkoutRootsRequiredMessageConstant)
)

// RepositoryManager exposes the git operations the checkout commands consume.
type RepositoryManager interface {
	GetConfigValue(executionContext context.Context, repositoryPath string, configurationKey string) (string, bool, error)
	GetBranch(executionContext context.Context, repositoryPath string) (string, bool, error)
	ResolveUpstream(executionContext context.Context, repositoryPath string, branchName string) (gitrepo.UpstreamTuple, bool, error)
	ResolveDefaultRemoteBranch(executionContext context.Context, repositoryPath string, remoteURL string, remoteName string) string
	CaptureStatus(executionContext context.Context, repositoryPath string, upstreamBranch string) ([]gitrepo.StatusEntry, error)
	GenerateDiff(executionContext context.Context, repositoryPath string, options gitrepo.DiffOptions) (string, error)
	GetAllFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	GetDifferentFiles(executionContext context.Context, repositoryPath string, baseRevision string, headRevision string) ([]string, error)
	ProbeCheckout(executionContext context.Context, repositoryPath string) bool
	GetCheckoutRoot(executionContext context.Context, repositoryPath string) (string, error)
}

// RepositoryDiscoverer locates candidate git checkouts beneath filesystem roots.
type RepositoryDiscoverer interface {
	DiscoverRepositories(roots []string) ([]string, error)
}

// FileSystem exposes the filesystem probe used during checkout detection.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
}

// Dependencies lists the collaborators required to build a Service.
type Dependencies struct {
	RepositoryManager RepositoryManager
	Discoverer        RepositoryDiscoverer
	FileSystem        FileSystem
}

// Service answers checkout inspection requests on top of a repository manager.
type Service struct {
	repositoryManager RepositoryManager
	discoverer        RepositoryDiscoverer
	fileSystem        FileSystem
}

// NewService validates the dependencies and assembles a checkout service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.Discoverer == nil {
		return nil, ErrDiscovererNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}

	service := &Service{
		repositoryManager: dependencies.RepositoryManager,
		discoverer:        dependencies.Discoverer,
		fileSystem:        dependencies.FileSystem,
	}
	return service, nil
}

// UpstreamOptions select the branch whose tracking configuration is reported.
type UpstreamOptions struct {
	RepositoryPath string
	BranchName     string
}

// UpstreamReport describes the tracking configuration resolved for a branch.
// Found is false when the branch tracks nothing, in which case the remaining
// reference fields are empty.
type UpstreamReport struct {
	BranchName  string
	RemoteName  string
	BranchRef   string
	TrackingRef string
	Found       bool
}

// DescribeUpstream resolves the tracking tuple for the requested branch and
// translates it into the remote-tracking reference the checkout fetches from.
// Branches tracking a local ref (remote ".") keep their raw reference.
func (service *Service) DescribeUpstream(executionContext context.Context, options UpstreamOptions) (UpstreamReport, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return UpstreamReport{}, ErrRepositoryPathRequired
	}

	branchName := strings.TrimSpace(options.BranchName)
	if len(branchName) == 0 {
		currentBranch, branchFound, branchError := service.repositoryManager.GetBranch(executionContext, repositoryPath)
		if branchError != nil {
			return UpstreamReport{}, branchError
		}
		if branchFound {
			branchName = currentBranch
		}
	}

	displayName := branchName
	if len(displayName) == 0 {
		displayName = detachedHeadDisplayNameConstant
	}

	upstreamTuple, upstreamFound, upstreamError := service.repositoryManager.ResolveUpstream(executionContext, repositoryPath, branchName)
	if upstreamError != nil {
		return UpstreamReport{}, upstreamError
	}
	if !upstreamFound {
		return UpstreamReport{BranchName: displayName}, nil
	}

	trackingRef := upstreamTuple.BranchRef
	if upstreamTuple.RemoteName != localCheckoutRemoteNameConstant {
		if remoteRefParts, translated := gitrepo.RefToRemoteRef(upstreamTuple.BranchRef, upstreamTuple.RemoteName); translated {
			trackingRef = remoteRefParts.FullRef()
		}
	}

	upstreamReport := UpstreamReport{
		BranchName:  displayName,
		RemoteName:  upstreamTuple.RemoteName,
		BranchRef:   upstreamTuple.BranchRef,
		TrackingRef: trackingRef,
		Found:       true,
	}
	return upstreamReport, nil
}

// RemoteHeadOptions select the remote whose default branch is resolved.
type RemoteHeadOptions struct {
	RepositoryPath string
	RemoteName     string
	RemoteURL      string
}

// ResolveRemoteHead reports the remote's default branch as a remote-tracking
// reference. The remote name defaults to origin and the URL to the remote's
// configured fetch URL.
func (service *Service) ResolveRemoteHead(executionContext context.Context, options RemoteHeadOptions) (string, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	remoteURL := strings.TrimSpace(options.RemoteURL)
	if len(remoteURL) == 0 {
		configurationKey := fmt.Sprintf(remoteURLConfigurationKeyTemplateConstant, remoteName)
		configuredURL, _, configurationError := service.repositoryManager.GetConfigValue(executionContext, repositoryPath, configurationKey)
		if configurationError != nil {
			return "", configurationError
		}
		remoteURL = configuredURL
	}

	return service.repositoryManager.ResolveDefaultRemoteBranch(executionContext, repositoryPath, remoteURL, remoteName), nil
}

// StatusOptions select the comparison base for a status listing.
type StatusOptions struct {
	RepositoryPath string
	BaseRevision   string
}

// CaptureStatus lists the files differing from the base revision together
// with their fixed-width status codes. The base defaults to the current
// branch's upstream.
func (service *Service) CaptureStatus(executionContext context.Context, options StatusOptions) ([]gitrepo.StatusEntry, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}
	return service.repositoryManager.CaptureStatus(executionContext, repositoryPath, options.BaseRevision)
}

// DiffOptions configure a diff rendering run.
type DiffOptions struct {
	RepositoryPath string
	BaseRevision   string
	HeadRevision   string
	FullMove       bool
	FilePaths      []string
}

// GenerateDiff renders the unified diff between the base and head revisions.
func (service *Service) GenerateDiff(executionContext context.Context, options DiffOptions) (string, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}

	diffOptions := gitrepo.DiffOptions{
		BaseRevision: options.BaseRevision,
		HeadRevision: options.HeadRevision,
		FullMove:     options.FullMove,
		FilePaths:    options.FilePaths,
	}
	return service.repositoryManager.GenerateDiff(executionContext, repositoryPath, diffOptions)
}

// FilesOptions select between the full tracked listing and the changed subset.
type FilesOptions struct {
	RepositoryPath string
	ChangedOnly    bool
	BaseRevision   string
}

// ListFiles reports tracked files, or only the files differing from the base
// revision when ChangedOnly is set.
func (service *Service) ListFiles(executionContext context.Context, options FilesOptions) ([]string, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	if options.ChangedOnly {
		return service.repositoryManager.GetDifferentFiles(executionContext, repositoryPath, options.BaseRevision, "")
	}
	return service.repositoryManager.GetAllFiles(executionContext, repositoryPath)
}

// CheckoutReport pairs a discovered repository with its resolved checkout root.
type CheckoutReport struct {
	RepositoryPath string
	CheckoutRoot   string
}

// DetectCheckouts walks the provided roots and reports every git checkout
// found beneath them. A candidate counts as a checkout when its .git entry
// exists on disk or when git itself recognizes the directory; candidates
// failing both probes are skipped.
func (service *Service) DetectCheckouts(executionContext context.Context, roots []string) ([]CheckoutReport, error) {
	if len(roots) == 0 {
		return nil, ErrCheckoutRootsRequired
	}

	candidatePaths, discoveryError := service.discoverer.DiscoverRepositories(roots)
	if discoveryError != nil {
		return nil, discoveryError
	}

	checkoutReports := make([]CheckoutReport, 0, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		metadataPath := filepath.Join(candidatePath, gitMetadataDirectoryNameConstant)
		_, metadataError := service.fileSystem.Stat(metadataPath)
		if metadataError != nil && !service.repositoryManager.ProbeCheckout(executionContext, candidatePath) {
			continue
		}

		checkoutRoot, rootError := service.repositoryManager.GetCheckoutRoot(executionContext, candidatePath)
		if rootError != nil {
			checkoutRoot = candidatePath
		}
		checkoutReports = append(checkoutReports, CheckoutReport{RepositoryPath: candidatePath, CheckoutRoot: checkoutRoot})
	}
	return checkoutReports, nil
}
