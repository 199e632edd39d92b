package design

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/report"
)

const (
	designCommandUseConstant              = "design"
	designCommandShortDescriptionConstant = "Generate experiment designs"
	designCommandLongDescriptionConstant  = "design enumerates full factorial combinations or builds Box-Behnken response surface designs."
	factorialCommandUseConstant           = "factorial"
	factorialCommandShortConstant         = "Enumerate every combination of variable values"
	factorialCommandLongConstant          = "factorial prints the full factorial design for up to ten variables, the last variable varying fastest."
	factorialCommandExampleConstant       = "labkit design factorial --variable Temperature=20,30 --variable pH=6,7,8"
	boxBehnkenCommandUseConstant          = "box-behnken"
	boxBehnkenCommandShortConstant        = "Build a Box-Behnken design"
	boxBehnkenCommandLongConstant         = "box-behnken prints the real and coded matrices for three to ten factors."
	boxBehnkenCommandExampleConstant      = "labkit design box-behnken --factor Temp=20,30,40 --factor pH=6,7,8 --factor Time=1,2,3"
	variableFlagNameConstant              = "variable"
	variableFlagUsageConstant             = "Variable as NAME=v1,v2,... (repeatable)"
	factorFlagNameConstant                = "factor"
	factorFlagUsageConstant               = "Factor as NAME=low,center,high (repeatable)"
	centerPointsFlagNameConstant          = "center-points"
	centerPointsFlagUsageConstant         = "Center point replicates (default depends on the factor count)"
	missingVariablesMessageConstant       = "at least one --variable is required"
	missingFactorsMessageConstant         = "at least three --factor values are required"
	defaultCenterPointsFlagValueConstant  = -1
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the design command group.
type CommandBuilder struct {
	LoggerProvider              LoggerProvider
	OutputConfigurationProvider func() report.OutputConfiguration
}

// Build constructs the design command with its factorial and box-behnken subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   designCommandUseConstant,
		Short: designCommandShortDescriptionConstant,
		Long:  designCommandLongDescriptionConstant,
	}

	factorialCommand := &cobra.Command{
		Use:     factorialCommandUseConstant,
		Short:   factorialCommandShortConstant,
		Long:    factorialCommandLongConstant,
		Example: factorialCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.runFactorial,
	}
	factorialCommand.Flags().StringArray(variableFlagNameConstant, nil, variableFlagUsageConstant)
	report.BindOutputFlags(factorialCommand)

	boxBehnkenCommand := &cobra.Command{
		Use:     boxBehnkenCommandUseConstant,
		Short:   boxBehnkenCommandShortConstant,
		Long:    boxBehnkenCommandLongConstant,
		Example: boxBehnkenCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.runBoxBehnken,
	}
	boxBehnkenCommand.Flags().StringArray(factorFlagNameConstant, nil, factorFlagUsageConstant)
	boxBehnkenCommand.Flags().Int(centerPointsFlagNameConstant, defaultCenterPointsFlagValueConstant, centerPointsFlagUsageConstant)
	report.BindOutputFlags(boxBehnkenCommand)

	command.AddCommand(factorialCommand, boxBehnkenCommand)
	return command, nil
}

func (builder *CommandBuilder) runFactorial(command *cobra.Command, arguments []string) error {
	assignments, _ := command.Flags().GetStringArray(variableFlagNameConstant)
	if len(assignments) == 0 {
		return errors.New(missingVariablesMessageConstant)
	}
	request := FactorialRequest{}
	for position, assignment := range assignments {
		request.Variables = append(request.Variables, ParseVariableAssignment(position, assignment))
	}

	outputOptions, outputError := report.ReadOutputOptions(command, builder.resolveOutputConfiguration())
	if outputError != nil {
		return outputError
	}

	service := NewService(builder.resolveLogger())
	result, generationError := service.Factorial(command.Context(), request)
	if generationError != nil {
		return generationError
	}
	return outputOptions.Write(command.OutOrStdout(), result.Document())
}

func (builder *CommandBuilder) runBoxBehnken(command *cobra.Command, arguments []string) error {
	assignments, _ := command.Flags().GetStringArray(factorFlagNameConstant)
	if len(assignments) == 0 {
		return errors.New(missingFactorsMessageConstant)
	}
	request := BoxBehnkenRequest{}
	for position, assignment := range assignments {
		factor, parseError := ParseFactorAssignment(position, assignment)
		if parseError != nil {
			return parseError
		}
		request.Factors = append(request.Factors, factor)
	}
	if command.Flags().Changed(centerPointsFlagNameConstant) {
		centerPoints, _ := command.Flags().GetInt(centerPointsFlagNameConstant)
		request.CenterPoints = &centerPoints
	}

	outputOptions, outputError := report.ReadOutputOptions(command, builder.resolveOutputConfiguration())
	if outputError != nil {
		return outputError
	}

	service := NewService(builder.resolveLogger())
	result, generationError := service.BoxBehnken(command.Context(), request)
	if generationError != nil {
		return generationError
	}
	return outputOptions.Write(command.OutOrStdout(), result.Document())
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveOutputConfiguration() report.OutputConfiguration {
	if builder.OutputConfigurationProvider == nil {
		return report.DefaultOutputConfiguration()
	}
	return builder.OutputConfigurationProvider()
}
