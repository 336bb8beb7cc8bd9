package ninja

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/temirov/scmkit/internal/execshell"
)

const (
	argsGNFileNameConstant                   = "args.gn"
	rulesNinjaFileNameConstant               = "rules.ninja"
	cmakeRulesDirectoryNameConstant          = "CMakeFiles"
	buildtoolsDirectoryNameConstant          = "buildtools"
	reclientDirectoryNameConstant            = "reclient"
	reclientConfigDirectoryNameConstant      = "reclient_cfgs"
	reclientConfigFileNameConstant           = "reproxy.cfg"
	reclientBootstrapFileNameConstant        = "bootstrap"
	reclientProxyFileNameConstant            = "reproxy"
	reclientConfigFlagTemplateConstant       = "--cfg=%s"
	reclientProxyFlagTemplateConstant        = "--re_proxy=%s"
	reclientShutdownFlagConstant             = "--shutdown"
	parallelismFlagConstant                  = "-j"
	toolSelectionFlagConstant                = "-t"
	outputDirectoryFlagConstant              = "-C"
	offlineShortFlagConstant                 = "-o"
	offlineLongFlagConstant                  = "--offline"
	currentDirectoryConstant                 = "."
	parentDirectoryConstant                  = ".."
	commentSeparatorConstant                 = "#"
	gomaControllerFileNameConstant           = "gomacc"
	gomaControllerPortArgumentConstant       = "port"
	gomaControllerDownExitCodeConstant       = 1
	gomaDefaultDirectoryNameConstant         = ".cipd_bin"
	ninjaExecutableNameConstant              = "ninja"
	windowsExecutableSuffixConstant          = ".exe"
	gomaDisabledEnvironmentKeyConstant       = "GOMA_DISABLED"
	gomaDirectoryEnvironmentKeyConstant      = "GOMA_DIR"
	coreMultiplierEnvironmentKeyConstant     = "NINJA_CORE_MULTIPLIER"
	coreLimitEnvironmentKeyConstant          = "NINJA_CORE_LIMIT"
	coreAdditionEnvironmentKeyConstant       = "NINJA_CORE_ADDITION"
	backgroundBuildEnvironmentKeyConstant    = "NINJA_BUILD_IN_BACKGROUND"
	summarizeBuildEnvironmentKeyConstant     = "NINJA_SUMMARIZE_BUILD"
	environmentEnabledValueConstant          = "1"
	defaultCoreMultiplierConstant            = 80
	defaultCoreAdditionConstant              = 2
	windowsParallelismCeilingConstant        = 1000
	darwinParallelismCeilingConstant         = 800
	windowsOperatingSystemConstant           = "windows"
	darwinOperatingSystemConstant            = "darwin"
	linuxOperatingSystemConstant             = "linux"
	amd64ArchitectureConstant                = "amd64"
	useGomaArgumentPatternConstant           = `(^|\s)(use_goma)\s*=\s*true($|\s)`
	useRemoteExecArgumentPatternConstant     = `(^|\s)(use_remoteexec)\s*=\s*true($|\s)`
	gomaCompiledRulePatternConstant          = `^\s*command\s*=\s*\S+gomacc`
	nicePriorityCommandConstant              = "nice"
	nicePriorityValueConstant                = "-10"
	diagnosticsFlagConstant                  = "-d"
	diagnosticsStatsValueConstant            = "stats"
	offlineEnvironmentPrefixConstant         = "RBE_remote_disabled=1 GOMA_DISABLED=1 "
	posixCommandSeparatorConstant            = "&&"
	windowsCommandSeparatorConstant          = "\n"
	lineSeparatorConstant                    = "\n"
	argumentSeparatorConstant                = " "
	quotedArgumentTemplateConstant           = `"%s"`
	quoteConstant                            = `"`
	escapedQuoteConstant                     = `\"`
	gomaExecutorNotConfiguredMessageConstant = "goma executor not configured"
	gomaNotRunningMessageConstant            = `Goma is not running. Use "goma_ctl ensure_start" to start it.`
	remoteExecNotConfiguredMessageConstant   = "Build is configured to use reclient but necessary binaries " +
		"or config files can't be found.  Developer builds with " +
		"reclient are not yet supported.  Try regenerating your " +
		"build with use_goma in place of use_remoteexec for now."
)

var (
	// ErrGomaExecutorNotConfigured reports planner construction without a goma executor.
	ErrGomaExecutorNotConfigured = errors.New(gomaExecutorNotConfiguredMessageConstant)
	// ErrGomaNotRunning reports a goma-accelerated build whose compiler proxy is down.
	ErrGomaNotRunning = errors.New(gomaNotRunningMessageConstant)
	// ErrRemoteExecutionNotConfigured reports a remote-exec build missing the reclient binaries or configuration.
	ErrRemoteExecutionNotConfigured = errors.New(remoteExecNotConfiguredMessageConstant)
)

var (
	useGomaArgumentPattern       = regexp.MustCompile(useGomaArgumentPatternConstant)
	useRemoteExecArgumentPattern = regexp.MustCompile(useRemoteExecArgumentPatternConstant)
	gomaCompiledRulePattern      = regexp.MustCompile(gomaCompiledRulePatternConstant)
	gomaDisabledTruthyValues     = []string{"true", "t", "yes", "y", "1"}
)

// GomaExecutor runs the goma compiler-proxy controller for health probes.
type GomaExecutor interface {
	ExecuteGomaController(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Platform describes the host traits that drive parallelism planning.
type Platform struct {
	OperatingSystem string
	Architecture    string
	LogicalCPUCount int
	ToolDirectory   string
}

// DetectPlatform captures the running host. The tool directory is the
// directory holding the current executable, mirroring the convention that
// ninja and the goma controller ship alongside the launcher.
func DetectPlatform() Platform {
	return Platform{
		OperatingSystem: runtime.GOOS,
		Architecture:    runtime.GOARCH,
		LogicalCPUCount: runtime.NumCPU(),
		ToolDirectory:   executableDirectory(),
	}
}

// Dependencies carries the collaborators required by the planner. Unset
// platform fields are filled from the running host.
type Dependencies struct {
	Executor GomaExecutor
	Platform Platform
}

// Planner computes the ninja invocation for a build directory.
type Planner struct {
	executor GomaExecutor
	platform Platform
}

// NewPlanner constructs a Planner after validating its dependencies.
func NewPlanner(dependencies Dependencies) (*Planner, error) {
	if dependencies.Executor == nil {
		return nil, ErrGomaExecutorNotConfigured
	}

	detectedPlatform := DetectPlatform()
	resolvedPlatform := dependencies.Platform
	if len(resolvedPlatform.OperatingSystem) == 0 {
		resolvedPlatform.OperatingSystem = detectedPlatform.OperatingSystem
	}
	if len(resolvedPlatform.Architecture) == 0 {
		resolvedPlatform.Architecture = detectedPlatform.Architecture
	}
	if resolvedPlatform.LogicalCPUCount <= 0 {
		resolvedPlatform.LogicalCPUCount = detectedPlatform.LogicalCPUCount
	}
	if len(resolvedPlatform.ToolDirectory) == 0 {
		resolvedPlatform.ToolDirectory = detectedPlatform.ToolDirectory
	}

	return &Planner{executor: dependencies.Executor, platform: resolvedPlatform}, nil
}

type buildArgumentScan struct {
	parallelismSpecified bool
	toolSelected         bool
	offline              bool
	outputDirectory      string
	passThroughArguments []string
}

type accelerationProfile struct {
	useGoma       bool
	useRemoteExec bool
}

// PlanBuild inspects the build directory named by the arguments and returns
// the full ninja command line for a wrapper shell to execute. Arguments the
// planner does not recognize pass through to ninja untouched; -o/--offline
// are consumed and force local compiles.
func (planner *Planner) PlanBuild(executionContext context.Context, buildArguments []string) (string, error) {
	argumentScan := scanBuildArguments(buildArguments)
	profile := detectAcceleration(argumentScan.outputDirectory)

	reclientBinaryDirectory := filepath.Join(argumentScan.outputDirectory, parentDirectoryConstant, parentDirectoryConstant, buildtoolsDirectoryNameConstant, reclientDirectoryNameConstant)
	reclientConfigPath := filepath.Join(argumentScan.outputDirectory, parentDirectoryConstant, parentDirectoryConstant, buildtoolsDirectoryNameConstant, reclientConfigDirectoryNameConstant, reclientConfigFileNameConstant)
	reclientConfigured := pathExists(reclientBinaryDirectory) && pathExists(reclientConfigPath)
	if !argumentScan.offline && profile.useRemoteExec && !reclientConfigured {
		return "", ErrRemoteExecutionNotConfigured
	}

	if argumentScan.offline || gomaDisabledByEnvironment() {
		profile.useGoma = false
	}
	if profile.useGoma {
		if probeError := planner.probeGomaController(executionContext); probeError != nil {
			return "", probeError
		}
	}

	commandArguments := []string{}
	if planner.platform.OperatingSystem == linuxOperatingSystemConstant && os.Getenv(backgroundBuildEnvironmentKeyConstant) == environmentEnabledValueConstant {
		commandArguments = append(commandArguments, nicePriorityCommandConstant, nicePriorityValueConstant)
	}
	commandArguments = append(commandArguments, filepath.Join(planner.platform.ToolDirectory, planner.executableFileName(ninjaExecutableNameConstant)))
	commandArguments = append(commandArguments, argumentScan.passThroughArguments...)

	if !argumentScan.parallelismSpecified && !argumentScan.toolSelected {
		parallelism := planner.computeParallelism(profile)
		commandArguments = append(commandArguments, parallelismFlagConstant, strconv.Itoa(parallelism))
	}

	quoteCommandArguments(commandArguments, planner.platform.OperatingSystem)

	if os.Getenv(summarizeBuildEnvironmentKeyConstant) == environmentEnabledValueConstant {
		commandArguments = append(commandArguments, diagnosticsFlagConstant, diagnosticsStatsValueConstant)
	}

	if !argumentScan.offline && profile.useRemoteExec && reclientConfigured {
		commandArguments = wrapWithReclientBootstrap(commandArguments, reclientBinaryDirectory, reclientConfigPath, planner.platform.OperatingSystem)
	}

	commandLine := strings.Join(commandArguments, argumentSeparatorConstant)
	if argumentScan.offline && planner.platform.OperatingSystem != windowsOperatingSystemConstant {
		commandLine = offlineEnvironmentPrefixConstant + commandLine
	}
	return commandLine, nil
}

// scanBuildArguments walks the raw ninja arguments once, noting flags that
// suppress parallelism planning and locating the build output directory.
// The -t tools are incompatible with -j.
func scanBuildArguments(buildArguments []string) buildArgumentScan {
	argumentScan := buildArgumentScan{outputDirectory: currentDirectoryConstant}
	for argumentIndex, buildArgument := range buildArguments {
		if strings.HasPrefix(buildArgument, parallelismFlagConstant) {
			argumentScan.parallelismSpecified = true
		}
		if strings.HasPrefix(buildArgument, toolSelectionFlagConstant) {
			argumentScan.toolSelected = true
		}
		if buildArgument == outputDirectoryFlagConstant {
			if argumentIndex+1 < len(buildArguments) {
				argumentScan.outputDirectory = buildArguments[argumentIndex+1]
			}
		} else if strings.HasPrefix(buildArgument, outputDirectoryFlagConstant) {
			argumentScan.outputDirectory = buildArgument[len(outputDirectoryFlagConstant):]
		}
	}

	for _, buildArgument := range buildArguments {
		if buildArgument == offlineShortFlagConstant || buildArgument == offlineLongFlagConstant {
			argumentScan.offline = true
			continue
		}
		argumentScan.passThroughArguments = append(argumentScan.passThroughArguments, buildArgument)
	}
	return argumentScan
}

// detectAcceleration looks for remote acceleration in gn builds through
// args.gn, falling back to the rules.ninja files cmake emits. Text after a
// comment separator never counts as an argument.
func detectAcceleration(outputDirectory string) accelerationProfile {
	profile := accelerationProfile{}

	argumentsContent, argumentsReadError := os.ReadFile(filepath.Join(outputDirectory, argsGNFileNameConstant))
	if argumentsReadError == nil {
		for _, argumentLine := range strings.Split(string(argumentsContent), lineSeparatorConstant) {
			lineWithoutComment, _, _ := strings.Cut(argumentLine, commentSeparatorConstant)
			if useGomaArgumentPattern.MatchString(lineWithoutComment) {
				profile.useGoma = true
				continue
			}
			if useRemoteExecArgumentPattern.MatchString(lineWithoutComment) {
				profile.useRemoteExec = true
			}
		}
		return profile
	}

	for _, rulesDirectory := range []string{"", cmakeRulesDirectoryNameConstant} {
		rulesContent, rulesReadError := os.ReadFile(filepath.Join(outputDirectory, rulesDirectory, rulesNinjaFileNameConstant))
		if rulesReadError != nil {
			continue
		}
		for _, ruleLine := range strings.Split(string(rulesContent), lineSeparatorConstant) {
			if gomaCompiledRulePattern.MatchString(ruleLine) {
				profile.useGoma = true
				break
			}
		}
	}
	return profile
}

// probeGomaController checks that the compiler proxy is reachable before a
// goma build starts. The controller exits with code 1 when the proxy is
// down; other exit codes do not block the build.
func (planner *Planner) probeGomaController(executionContext context.Context) error {
	gomaDirectory := os.Getenv(gomaDirectoryEnvironmentKeyConstant)
	if len(gomaDirectory) == 0 {
		gomaDirectory = filepath.Join(planner.platform.ToolDirectory, gomaDefaultDirectoryNameConstant)
	}
	gomaControllerPath := filepath.Join(gomaDirectory, planner.executableFileName(gomaControllerFileNameConstant))
	if !pathExists(gomaControllerPath) {
		return nil
	}

	_, probeError := planner.executor.ExecuteGomaController(executionContext, execshell.CommandDetails{Arguments: []string{gomaControllerPortArgumentConstant}})
	if probeError == nil {
		return nil
	}

	probeFailure := execshell.CommandFailedError{}
	if errors.As(probeError, &probeFailure) {
		if probeFailure.Result.ExitCode == gomaControllerDownExitCodeConstant {
			return ErrGomaNotRunning
		}
		return nil
	}
	return probeError
}

func (planner *Planner) computeParallelism(profile accelerationProfile) int {
	coreCount := planner.platform.LogicalCPUCount
	if profile.useGoma || profile.useRemoteExec {
		if planner.platform.Architecture == amd64ArchitectureConstant {
			// Assume simultaneous multithreading and therefore half as many
			// cores as logical processors.
			coreCount /= 2
		}
		parallelism := coreCount * environmentInteger(coreMultiplierEnvironmentKeyConstant, defaultCoreMultiplierConstant)
		parallelism = min(parallelism, environmentInteger(coreLimitEnvironmentKeyConstant, parallelism))
		switch planner.platform.OperatingSystem {
		case windowsOperatingSystemConstant:
			parallelism = min(parallelism, windowsParallelismCeilingConstant)
		case darwinOperatingSystemConstant:
			// Higher values run into the open-file limit on macOS.
			parallelism = min(parallelism, darwinParallelismCeilingConstant)
		}
		return parallelism
	}
	return coreCount + environmentInteger(coreAdditionEnvironmentKeyConstant, defaultCoreAdditionConstant)
}

func (planner *Planner) executableFileName(baseName string) string {
	if planner.platform.OperatingSystem == windowsOperatingSystemConstant {
		return baseName + windowsExecutableSuffixConstant
	}
	return baseName
}

func wrapWithReclientBootstrap(commandArguments []string, reclientBinaryDirectory string, reclientConfigPath string, operatingSystem string) []string {
	bootstrapPath := filepath.Join(reclientBinaryDirectory, reclientBootstrapFileNameConstant)
	configFlag := fmt.Sprintf(reclientConfigFlagTemplateConstant, reclientConfigPath)
	setupArguments := []string{
		bootstrapPath,
		configFlag,
		fmt.Sprintf(reclientProxyFlagTemplateConstant, filepath.Join(reclientBinaryDirectory, reclientProxyFileNameConstant)),
	}
	teardownArguments := []string{bootstrapPath, configFlag, reclientShutdownFlagConstant}

	commandSeparator := posixCommandSeparatorConstant
	if operatingSystem == windowsOperatingSystemConstant {
		commandSeparator = windowsCommandSeparatorConstant
	}

	wrappedArguments := append([]string{}, setupArguments...)
	wrappedArguments = append(wrappedArguments, commandSeparator)
	wrappedArguments = append(wrappedArguments, commandArguments...)
	wrappedArguments = append(wrappedArguments, commandSeparator)
	wrappedArguments = append(wrappedArguments, teardownArguments...)
	return wrappedArguments
}

// quoteCommandArguments quotes arguments containing spaces so the emitted
// command survives shell evaluation. The leading executable is always quoted
// on Windows so the command processor does not treat the whole line as one
// path.
func quoteCommandArguments(commandArguments []string, operatingSystem string) {
	for argumentIndex := range commandArguments {
		quoteRequired := strings.Contains(commandArguments[argumentIndex], argumentSeparatorConstant)
		if argumentIndex == 0 && operatingSystem == windowsOperatingSystemConstant {
			quoteRequired = true
		}
		if !quoteRequired {
			continue
		}
		escapedArgument := strings.ReplaceAll(commandArguments[argumentIndex], quoteConstant, escapedQuoteConstant)
		commandArguments[argumentIndex] = fmt.Sprintf(quotedArgumentTemplateConstant, escapedArgument)
	}
}

func gomaDisabledByEnvironment() bool {
	disabledValue := strings.ToLower(os.Getenv(gomaDisabledEnvironmentKeyConstant))
	for _, truthyValue := range gomaDisabledTruthyValues {
		if disabledValue == truthyValue {
			return true
		}
	}
	return false
}

func environmentInteger(environmentKey string, defaultValue int) int {
	rawValue, present := os.LookupEnv(environmentKey)
	if !present {
		return defaultValue
	}
	parsedValue, parseError := strconv.Atoi(strings.TrimSpace(rawValue))
	if parseError != nil {
		return defaultValue
	}
	return parsedValue
}

func executableDirectory() string {
	executablePath, resolveError := os.Executable()
	if resolveError != nil {
		return ""
	}
	return filepath.Dir(executablePath)
}

func pathExists(candidatePath string) bool {
	_, statError := os.Stat(candidatePath)
	return statError == nil
}
