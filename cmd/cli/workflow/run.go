package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/utils"
	"github.com/temirov/labkit/internal/workflow"
)

const (
	commandUseConstant                       = "workflow [plan]"
	commandShortDescriptionConstant          = "Run a workflow plan file"
	commandLongDescriptionConstant           = "workflow executes the calculator and reagent steps defined in a YAML or JSON plan, in order, stopping at the first failure."
	dryRunFlagNameConstant                   = "dry-run"
	dryRunFlagDescriptionConstant            = "Print the planned steps without running them"
	configurationPathRequiredMessageConstant = "workflow plan path required; provide a positional argument or tools.workflow.plan"
	loadConfigurationErrorTemplateConstant   = "unable to load workflow plan: %w"
	buildOperationsErrorTemplateConstant     = "unable to build workflow operations: %w"
)

// CommandBuilder assembles the workflow command.
type CommandBuilder struct {
	LoggerProvider              LoggerProvider
	StoreOpener                 reagents.StoreOpener
	ConfigurationProvider       func() CommandConfiguration
	OutputConfigurationProvider func() report.OutputConfiguration
}

// Build constructs the workflow command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	commandConfiguration := builder.resolveConfiguration()

	argumentPath := ""
	if len(arguments) > 0 {
		argumentPath = strings.TrimSpace(arguments[0])
	}
	configurationFilePath, _ := utils.ConfigurationFile(command.Context())
	planPath := ResolvePlanPath(argumentPath, commandConfiguration.Plan, configurationFilePath)
	if len(planPath) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errors.New(configurationPathRequiredMessageConstant)
	}

	workflowConfiguration, configurationError := workflow.LoadConfiguration(planPath)
	if configurationError != nil {
		return fmt.Errorf(loadConfigurationErrorTemplateConstant, configurationError)
	}

	defaultFormat, formatError := report.ParseFormat(builder.resolveOutputConfiguration().Sanitize().Format)
	if formatError != nil {
		return formatError
	}
	operations, operationsError := workflow.BuildOperations(workflowConfiguration, defaultFormat)
	if operationsError != nil {
		return fmt.Errorf(buildOperationsErrorTemplateConstant, operationsError)
	}

	workflowDependencies := workflow.Dependencies{
		Logger:      resolveLogger(builder.LoggerProvider),
		StoreOpener: builder.StoreOpener,
		Output:      command.OutOrStdout(),
	}
	executor := workflow.NewExecutor(operations, workflowDependencies)

	dryRun := commandConfiguration.DryRun
	if command.Flags().Changed(dryRunFlagNameConstant) {
		dryRun, _ = command.Flags().GetBool(dryRunFlagNameConstant)
	}

	return executor.Execute(command.Context(), workflow.RuntimeOptions{DryRun: dryRun})
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveOutputConfiguration() report.OutputConfiguration {
	if builder.OutputConfigurationProvider == nil {
		return report.DefaultOutputConfiguration()
	}
	return builder.OutputConfigurationProvider()
}
