package serialdilution

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/units"
)

const (
	commandUseConstant                = "serial"
	commandShortDescriptionConstant   = "Plan a serial dilution series"
	commandLongDescriptionConstant    = "serial plans a series of dilutions where every tube ends with the same final volume and summarizes each tube's concentration."
	commandExampleConstant            = "labkit serial --stock 10 --stock-unit mM --dilutions 8 --factor 3 --volume 500 --volume-unit uL"
	reagentFlagNameConstant           = "reagent"
	reagentFlagUsageConstant          = "Reagent name; a stored reagent supplies its molecular weight"
	stockFlagNameConstant             = "stock"
	stockFlagUsageConstant            = "Stock concentration"
	stockUnitFlagNameConstant         = "stock-unit"
	stockUnitFlagUsageConstant        = "Stock concentration unit (molar or mass per volume)"
	dilutionsFlagNameConstant         = "dilutions"
	dilutionsFlagUsageConstant        = "Number of dilutions (1-20)"
	factorFlagNameConstant            = "factor"
	factorFlagUsageConstant           = "Dilution factor per step"
	volumeFlagNameConstant            = "volume"
	volumeFlagUsageConstant           = "Final volume per tube"
	volumeUnitFlagNameConstant        = "volume-unit"
	volumeUnitFlagUsageConstant       = "Final volume unit"
	molecularWeightFlagNameConstant   = "mw"
	molecularWeightFlagUsageConstant  = "Molecular weight in g/mol (optional)"
	solventFlagNameConstant           = "solvent"
	solventFlagUsageConstant          = "Solvent or diluent"
	defaultStockConcentrationConstant = 10.0
	defaultDilutionCountConstant      = 10
	defaultFactorConstant             = 10.0
	defaultFinalVolumeConstant        = 1000.0
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the serial command.
type CommandBuilder struct {
	LoggerProvider              LoggerProvider
	OutputConfigurationProvider func() report.OutputConfiguration
	ReagentLookup               ReagentLookup
}

// Build constructs the serial command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}

	command.Flags().String(reagentFlagNameConstant, "", reagentFlagUsageConstant)
	command.Flags().Float64(stockFlagNameConstant, defaultStockConcentrationConstant, stockFlagUsageConstant)
	command.Flags().String(stockUnitFlagNameConstant, defaultStockUnitConstant, stockUnitFlagUsageConstant)
	command.Flags().Int(dilutionsFlagNameConstant, defaultDilutionCountConstant, dilutionsFlagUsageConstant)
	command.Flags().Float64(factorFlagNameConstant, defaultFactorConstant, factorFlagUsageConstant)
	command.Flags().Float64(volumeFlagNameConstant, defaultFinalVolumeConstant, volumeFlagUsageConstant)
	command.Flags().String(volumeUnitFlagNameConstant, defaultVolumeUnitConstant, volumeUnitFlagUsageConstant)
	command.Flags().Float64(molecularWeightFlagNameConstant, 0, molecularWeightFlagUsageConstant)
	command.Flags().String(solventFlagNameConstant, units.DefaultSolvent, solventFlagUsageConstant)
	report.BindOutputFlags(command)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	flagSet := command.Flags()
	request := Request{}
	request.ReagentName, _ = flagSet.GetString(reagentFlagNameConstant)
	request.StockConcentration, _ = flagSet.GetFloat64(stockFlagNameConstant)
	request.StockUnit, _ = flagSet.GetString(stockUnitFlagNameConstant)
	request.DilutionCount, _ = flagSet.GetInt(dilutionsFlagNameConstant)
	request.Factor, _ = flagSet.GetFloat64(factorFlagNameConstant)
	request.FinalVolume, _ = flagSet.GetFloat64(volumeFlagNameConstant)
	request.FinalVolumeUnit, _ = flagSet.GetString(volumeUnitFlagNameConstant)
	request.MolecularWeight, _ = flagSet.GetFloat64(molecularWeightFlagNameConstant)
	request.Solvent, _ = flagSet.GetString(solventFlagNameConstant)

	outputOptions, outputError := report.ReadOutputOptions(command, builder.resolveOutputConfiguration())
	if outputError != nil {
		return outputError
	}

	service := NewService(builder.resolveLogger(), builder.ReagentLookup)
	result, planError := service.Plan(command.Context(), request)
	if planError != nil {
		return planError
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
