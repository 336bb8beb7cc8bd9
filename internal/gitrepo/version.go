package gitrepo

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/hashicorp/go-version"
)

const (
	gitVersionFlagConstant                = "--version"
	gitVersionOutputPatternConstant       = `git version (.+)`
	numericVersionPrefixPatternConstant   = `^[0-9]+(\.[0-9]+)*`
	versionNotRecognizedMessageConstant   = "git version output not recognized"
	minimumVersionRequiredMessageConstant = "minimum version must be provided"
)

// ErrVersionNotRecognized indicates git --version produced output the gate cannot parse.
var ErrVersionNotRecognized = errors.New(versionNotRecognizedMessageConstant)

// ErrMinimumVersionRequired indicates a version comparison received an empty minimum.
var ErrMinimumVersionRequired = errors.New(minimumVersionRequiredMessageConstant)

var (
	gitVersionOutputPattern     = regexp.MustCompile(gitVersionOutputPatternConstant)
	numericVersionPrefixPattern = regexp.MustCompile(numericVersionPrefixPatternConstant)
)

// versionCache memoizes the detected git version on the manager instance.
// Detection is retried on the next call when it fails, so a transient probe
// failure does not poison the cache.
type versionCache struct {
	mutex           sync.Mutex
	detectedVersion *version.Version
	detectedText    string
}

// MeetsMinimumVersion reports whether the installed git is at least the
// provided minimum version, along with the detected version text. The version
// probe runs once per manager and the parsed result is reused afterwards.
func (manager *RepositoryManager) MeetsMinimumVersion(executionContext context.Context, repositoryPath string, minimumVersion string) (bool, string, error) {
	minimum, minimumError := parseVersionText(minimumVersion)
	if minimumError != nil {
		return false, "", ErrMinimumVersionRequired
	}

	detected, detectedText, detectionError := manager.detectGitVersion(executionContext, repositoryPath)
	if detectionError != nil {
		return false, "", detectionError
	}
	return detected.GreaterThanOrEqual(minimum), detectedText, nil
}

func (manager *RepositoryManager) detectGitVersion(executionContext context.Context, repositoryPath string) (*version.Version, string, error) {
	manager.versionCache.mutex.Lock()
	defer manager.versionCache.mutex.Unlock()

	if manager.versionCache.detectedVersion != nil {
		return manager.versionCache.detectedVersion, manager.versionCache.detectedText, nil
	}

	versionOutput, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitVersionFlagConstant)
	if captureError != nil {
		return nil, "", captureError
	}

	matchedGroups := gitVersionOutputPattern.FindStringSubmatch(versionOutput)
	if matchedGroups == nil {
		return nil, "", ErrVersionNotRecognized
	}
	versionText := matchedGroups[1]

	parsedVersion, parseError := parseVersionText(versionText)
	if parseError != nil {
		return nil, "", parseError
	}

	manager.versionCache.detectedVersion = parsedVersion
	manager.versionCache.detectedText = versionText
	return parsedVersion, versionText, nil
}

// parseVersionText extracts the leading dotted numeric component before
// parsing, so suffixed version strings like "2.39.1.windows.1" still compare.
func parseVersionText(versionText string) (*version.Version, error) {
	numericPrefix := numericVersionPrefixPattern.FindString(versionText)
	if len(numericPrefix) == 0 {
		return nil, ErrVersionNotRecognized
	}
	return version.NewVersion(numericPrefix)
}
