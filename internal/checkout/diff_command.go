package checkout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/scmkit/internal/utils"
	flagutils "github.com/temirov/scmkit/internal/utils/flags"
)

const (
	diffCommandUseConstant              = "diff [path...]"
	diffCommandShortDescriptionConstant = "Render the diff against the upstream"
	diffCommandLongDescriptionConstant  = "diff prints the patch between the comparison base and head revisions. The base defaults to the current branch's resolved upstream and added files carry rewritten headers so the patch applies without /dev/null sources. Positional arguments restrict the diff to the named paths."
	diffCommandExampleConstant          = "scmkit diff --path ~/Development/project --full-move src/main.go"
	headFlagNameConstant                = "head"
	headFlagUsageConstant               = "Head revision to compare (defaults to HEAD)"
	fullMoveFlagNameConstant            = "full-move"
	fullMoveFlagUsageConstant           = "Recreate moved and copied files in full instead of describing renames"
)

// DiffCommandBuilder assembles the diff command.
type DiffCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Dependencies                 builderDependencies
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration

	fullMoveValue bool
}

// Build constructs the diff command.
func (builder *DiffCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     diffCommandUseConstant,
		Short:   diffCommandShortDescriptionConstant,
		Long:    diffCommandLongDescriptionConstant,
		Example: diffCommandExampleConstant,
		Args:    cobra.ArbitraryArgs,
		RunE:    builder.run,
	}

	bindPathFlag(command)
	command.Flags().String(baseFlagNameConstant, "", baseFlagUsageConstant)
	command.Flags().String(headFlagNameConstant, "", headFlagUsageConstant)
	flagutils.AddToggleFlag(command.Flags(), &builder.fullMoveValue, fullMoveFlagNameConstant, "", false, fullMoveFlagUsageConstant)

	return command, nil
}

func (builder *DiffCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)

	service, serviceError := resolveCommandService(builder.Dependencies, logger, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if serviceError != nil {
		return serviceError
	}

	baseRevision, baseFlagError := command.Flags().GetString(baseFlagNameConstant)
	if baseFlagError != nil {
		return baseFlagError
	}
	headRevision, headFlagError := command.Flags().GetString(headFlagNameConstant)
	if headFlagError != nil {
		return headFlagError
	}
	diffText, diffError := service.GenerateDiff(command.Context(), DiffOptions{
		RepositoryPath: resolveRepositoryPath(command, configuration),
		BaseRevision:   baseRevision,
		HeadRevision:   headRevision,
		FullMove:       builder.fullMoveValue,
		FilePaths:      arguments,
	})
	if diffError != nil {
		return diffError
	}

	// Diff bodies can run long; flush as they stream so pipes see output promptly.
	fmt.Fprint(utils.NewFlushingWriter(command.OutOrStdout()), diffText)
	return nil
}
