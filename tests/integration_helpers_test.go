package tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	scratchCommitterNameConstant  = "scmkit-test"
	scratchCommitterEmailConstant = "scmkit-test@example.com"
)

func runIntegrationCommand(testInstance *testing.T, repositoryRoot string, extraEnvironment []string, timeout time.Duration, arguments []string) string {
	testInstance.Helper()

	executionContext, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	command := exec.CommandContext(executionContext, "go", arguments...)
	command.Dir = repositoryRoot
	command.Env = append(append([]string{}, os.Environ()...), extraEnvironment...)

	outputBytes, runError := command.CombinedOutput()
	outputText := string(outputBytes)
	requireNoError(testInstance, runError, outputText)
	return outputText
}

func filterStructuredOutput(rawOutput string) string {
	lines := strings.Split(rawOutput, "\n")
	var filtered []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			continue
		}
		filtered = append(filtered, line)
	}
	if len(filtered) == 0 {
		return ""
	}
	return strings.Join(filtered, "\n") + "\n"
}

func requireNoError(testInstance *testing.T, err error, output string) {
	testInstance.Helper()
	if err != nil {
		testInstance.Fatalf("command failed: %v\n%s", err, output)
	}
}

func requireGitAvailable(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
}

func runGitCommand(testInstance *testing.T, repositoryPath string, arguments ...string) {
	testInstance.Helper()

	gitArguments := append([]string{
		"-c", "user.name=" + scratchCommitterNameConstant,
		"-c", "user.email=" + scratchCommitterEmailConstant,
	}, arguments...)
	command := exec.Command("git", gitArguments...)
	command.Dir = repositoryPath
	command.Env = append(append([]string{}, os.Environ()...), "GIT_CONFIG_NOSYSTEM=1")

	outputBytes, runError := command.CombinedOutput()
	requireNoError(testInstance, runError, string(outputBytes))
}

func writeScratchFile(testInstance *testing.T, repositoryPath string, fileName string, contents string) {
	testInstance.Helper()
	writeError := os.WriteFile(filepath.Join(repositoryPath, fileName), []byte(contents), 0o644)
	if writeError != nil {
		testInstance.Fatalf("unable to write %s: %v", fileName, writeError)
	}
}

// createScratchRepository builds a throwaway repository with two commits on a
// main branch configured to track origin/main, without any network remote.
func createScratchRepository(testInstance *testing.T) string {
	testInstance.Helper()

	repositoryPath := testInstance.TempDir()
	runGitCommand(testInstance, repositoryPath, "init")
	runGitCommand(testInstance, repositoryPath, "checkout", "-b", "main")

	writeScratchFile(testInstance, repositoryPath, "first.txt", "first\n")
	runGitCommand(testInstance, repositoryPath, "add", "first.txt")
	runGitCommand(testInstance, repositoryPath, "commit", "-m", "first commit")

	writeScratchFile(testInstance, repositoryPath, "second.txt", "second\n")
	runGitCommand(testInstance, repositoryPath, "add", "second.txt")
	runGitCommand(testInstance, repositoryPath, "commit", "-m", "second commit")

	runGitCommand(testInstance, repositoryPath, "config", "branch.main.remote", "origin")
	runGitCommand(testInstance, repositoryPath, "config", "branch.main.merge", "refs/heads/main")

	return repositoryPath
}
