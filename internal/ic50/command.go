package ic50

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/units"
)

const (
	commandUseConstant                  = "ic50"
	commandShortDescriptionConstant     = "Plan an IC50 dose-response series"
	commandLongDescriptionConstant      = "ic50 designs a multi-stage serial dilution with sparse upper and lower ranges and a dense range around the expected IC50."
	commandExampleConstant              = "labkit ic50 --reagent Staurosporine --stock 10 --stock-unit mM --highest 10 --highest-unit uM"
	reagentFlagNameConstant             = "reagent"
	reagentFlagUsageConstant            = "Reagent name"
	stockFlagNameConstant               = "stock"
	stockFlagUsageConstant              = "Main stock concentration"
	stockUnitFlagNameConstant           = "stock-unit"
	stockUnitFlagUsageConstant          = "Main stock unit (molar)"
	volumeFlagNameConstant              = "volume"
	volumeFlagUsageConstant             = "Final volume per well or tube"
	volumeUnitFlagNameConstant          = "volume-unit"
	volumeUnitFlagUsageConstant         = "Final volume unit"
	highestFlagNameConstant             = "highest"
	highestFlagUsageConstant            = "Highest concentration of the series"
	highestUnitFlagNameConstant         = "highest-unit"
	highestUnitFlagUsageConstant        = "Highest concentration unit (molar)"
	upperSparseFlagNameConstant         = "upper-sparse"
	upperSparseFlagUsageConstant        = "Points in the upper sparse range"
	denseFlagNameConstant               = "dense"
	denseFlagUsageConstant              = "Points in the dense range"
	lowerSparseFlagNameConstant         = "lower-sparse"
	lowerSparseFlagUsageConstant        = "Points in the lower sparse range"
	sparseFactorFlagNameConstant        = "sparse-factor"
	sparseFactorFlagUsageConstant       = "Dilution factor within sparse ranges"
	denseFactorFlagNameConstant         = "dense-factor"
	denseFactorFlagUsageConstant        = "Dilution factor within the dense range"
	solventFlagNameConstant             = "solvent"
	solventFlagUsageConstant            = "Solvent or diluent"
	defaultStockConcentrationConstant   = 10.0
	defaultFinalVolumeConstant          = 100.0
	defaultHighestConcentrationConstant = 10.0
	defaultUpperSparsePointsConstant    = 2
	defaultDensePointsConstant          = 6
	defaultLowerSparsePointsConstant    = 2
	defaultSparseFactorConstant         = 10.0
	defaultDenseFactorConstant          = 2.0
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the ic50 command.
type CommandBuilder struct {
	LoggerProvider              LoggerProvider
	OutputConfigurationProvider func() report.OutputConfiguration
}

// Build constructs the ic50 command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}

	flagSet := command.Flags()
	flagSet.String(reagentFlagNameConstant, "", reagentFlagUsageConstant)
	flagSet.Float64(stockFlagNameConstant, defaultStockConcentrationConstant, stockFlagUsageConstant)
	flagSet.String(stockUnitFlagNameConstant, defaultStockUnitConstant, stockUnitFlagUsageConstant)
	flagSet.Float64(volumeFlagNameConstant, defaultFinalVolumeConstant, volumeFlagUsageConstant)
	flagSet.String(volumeUnitFlagNameConstant, defaultVolumeUnitConstant, volumeUnitFlagUsageConstant)
	flagSet.Float64(highestFlagNameConstant, defaultHighestConcentrationConstant, highestFlagUsageConstant)
	flagSet.String(highestUnitFlagNameConstant, defaultHighestUnitConstant, highestUnitFlagUsageConstant)
	flagSet.Int(upperSparseFlagNameConstant, defaultUpperSparsePointsConstant, upperSparseFlagUsageConstant)
	flagSet.Int(denseFlagNameConstant, defaultDensePointsConstant, denseFlagUsageConstant)
	flagSet.Int(lowerSparseFlagNameConstant, defaultLowerSparsePointsConstant, lowerSparseFlagUsageConstant)
	flagSet.Float64(sparseFactorFlagNameConstant, defaultSparseFactorConstant, sparseFactorFlagUsageConstant)
	flagSet.Float64(denseFactorFlagNameConstant, defaultDenseFactorConstant, denseFactorFlagUsageConstant)
	flagSet.String(solventFlagNameConstant, units.DefaultSolvent, solventFlagUsageConstant)
	report.BindOutputFlags(command)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	flagSet := command.Flags()
	request := Request{}
	request.ReagentName, _ = flagSet.GetString(reagentFlagNameConstant)
	request.StockConcentration, _ = flagSet.GetFloat64(stockFlagNameConstant)
	request.StockUnit, _ = flagSet.GetString(stockUnitFlagNameConstant)
	request.FinalVolume, _ = flagSet.GetFloat64(volumeFlagNameConstant)
	request.FinalVolumeUnit, _ = flagSet.GetString(volumeUnitFlagNameConstant)
	request.HighestConcentration, _ = flagSet.GetFloat64(highestFlagNameConstant)
	request.HighestUnit, _ = flagSet.GetString(highestUnitFlagNameConstant)
	request.UpperSparsePoints, _ = flagSet.GetInt(upperSparseFlagNameConstant)
	request.DensePoints, _ = flagSet.GetInt(denseFlagNameConstant)
	request.LowerSparsePoints, _ = flagSet.GetInt(lowerSparseFlagNameConstant)
	request.SparseFactor, _ = flagSet.GetFloat64(sparseFactorFlagNameConstant)
	request.DenseFactor, _ = flagSet.GetFloat64(denseFactorFlagNameConstant)
	request.Solvent, _ = flagSet.GetString(solventFlagNameConstant)

	outputOptions, outputError := report.ReadOutputOptions(command, builder.resolveOutputConfiguration())
	if outputError != nil {
		return outputError
	}

	service := NewService(builder.resolveLogger())
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
