package checkout

import (
	"fmt"

	"github.com/spf13/cobra"

	flagutils "github.com/temirov/scmkit/internal/utils/flags"
	pathutils "github.com/temirov/scmkit/internal/utils/path"
)

const (
	detectCommandUseConstant              = "detect [root...]"
	detectCommandShortDescriptionConstant = "Find git checkouts under the configured roots"
	detectCommandLongDescriptionConstant  = "detect walks the provided roots and reports every git checkout found beneath them, confirming each candidate either by its .git entry on disk or by asking git itself."
	detectCommandExampleConstant          = "scmkit detect --root ~/Development --root ~/Projects"
	detectReportTemplateConstant          = "CHECKOUT: %s\n"
)

// DetectCommandBuilder assembles the detect command.
type DetectCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Dependencies                 builderDependencies
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration

	rootFlagValues *flagutils.RootFlagValues
}

// Build constructs the detect command.
func (builder *DetectCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     detectCommandUseConstant,
		Short:   detectCommandShortDescriptionConstant,
		Long:    detectCommandLongDescriptionConstant,
		Example: detectCommandExampleConstant,
		Args:    cobra.ArbitraryArgs,
		RunE:    builder.run,
	}

	builder.rootFlagValues = flagutils.BindRootFlags(command, flagutils.RootFlagValues{}, flagutils.RootFlagDefinition{Enabled: true})

	return command, nil
}

func (builder *DetectCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)

	service, serviceError := resolveCommandService(builder.Dependencies, logger, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if serviceError != nil {
		return serviceError
	}

	checkoutRoots := builder.resolveRoots(arguments, configuration)

	checkoutReports, detectError := service.DetectCheckouts(command.Context(), checkoutRoots)
	if detectError != nil {
		return detectError
	}

	outputWriter := command.OutOrStdout()
	for _, checkoutReport := range checkoutReports {
		fmt.Fprintf(outputWriter, detectReportTemplateConstant, checkoutReport.CheckoutRoot)
	}
	return nil
}

// resolveRoots prefers positional arguments, then repeated --root flags, then
// the configured roots. Nested duplicates are pruned so a checkout is reported
// once even when its parent and itself are both named.
func (builder *DetectCommandBuilder) resolveRoots(arguments []string, configuration CommandConfiguration) []string {
	candidateRoots := arguments
	if len(candidateRoots) == 0 && builder.rootFlagValues != nil {
		candidateRoots = builder.rootFlagValues.Roots
	}
	if len(candidateRoots) == 0 {
		candidateRoots = configuration.CheckoutRoots
	}

	sanitizer := pathutils.NewRepositoryPathSanitizerWithConfiguration(nil, pathutils.RepositoryPathSanitizerConfiguration{PruneNestedPaths: true})
	sanitizedRoots := sanitizer.Sanitize(candidateRoots)
	if len(sanitizedRoots) == 0 {
		return []string{defaultCheckoutRootConstant}
	}
	return sanitizedRoots
}
