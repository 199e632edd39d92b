package dilution

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/report"
)

const (
	commandUseConstant                 = "dilute"
	commandShortDescriptionConstant    = "Plan a dilution from a liquid or solid stock"
	commandLongDescriptionConstant     = "dilute computes the dilution factor and pipetting protocol for reaching a target concentration, switching to a 1:100 intermediate when the factor exceeds 100."
	commandExampleConstant             = "labkit dilute --stock 10 --stock-unit mM --target 10 --target-unit uM --volume 1 --volume-unit mL"
	reagentFlagNameConstant            = "reagent"
	reagentFlagUsageConstant           = "Reagent name; a stored reagent supplies its molecular weight"
	formFlagNameConstant               = "form"
	formFlagUsageConstant              = "Stock form: liquid or solid"
	solventFlagNameConstant            = "solvent"
	solventFlagUsageConstant           = "Solvent or diluent"
	stockFlagNameConstant              = "stock"
	stockFlagUsageConstant             = "Stock concentration"
	stockUnitFlagNameConstant          = "stock-unit"
	stockUnitFlagUsageConstant         = "Stock concentration unit"
	molecularWeightFlagNameConstant    = "mw"
	molecularWeightFlagUsageConstant   = "Molecular weight in g/mol"
	targetFlagNameConstant             = "target"
	targetFlagUsageConstant            = "Target concentration"
	targetUnitFlagNameConstant         = "target-unit"
	targetUnitFlagUsageConstant        = "Target concentration unit (molar)"
	volumeFlagNameConstant             = "volume"
	volumeFlagUsageConstant            = "Final volume"
	volumeUnitFlagNameConstant         = "volume-unit"
	volumeUnitFlagUsageConstant        = "Final volume unit"
	stockVolumeFlagNameConstant        = "stock-volume"
	stockVolumeFlagUsageConstant       = "Volume of stock to prepare from a solid"
	stockVolumeUnitFlagNameConstant    = "stock-volume-unit"
	stockVolumeUnitFlagUsageConstant   = "Unit of the stock volume"
	defaultStockConcentrationConstant  = 1.0
	defaultTargetConcentrationConstant = 10.0
	defaultFinalVolumeConstant         = 1.0
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the dilute command.
type CommandBuilder struct {
	LoggerProvider              LoggerProvider
	ConfigurationProvider       func() CommandConfiguration
	OutputConfigurationProvider func() report.OutputConfiguration
	ReagentLookup               ReagentLookup
}

// Build constructs the dilute command.
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
	command.Flags().String(formFlagNameConstant, string(StockFormLiquid), formFlagUsageConstant)
	command.Flags().String(solventFlagNameConstant, "", solventFlagUsageConstant)
	command.Flags().Float64(stockFlagNameConstant, defaultStockConcentrationConstant, stockFlagUsageConstant)
	command.Flags().String(stockUnitFlagNameConstant, defaultStockUnitConstant, stockUnitFlagUsageConstant)
	command.Flags().Float64(molecularWeightFlagNameConstant, 0, molecularWeightFlagUsageConstant)
	command.Flags().Float64(targetFlagNameConstant, defaultTargetConcentrationConstant, targetFlagUsageConstant)
	command.Flags().String(targetUnitFlagNameConstant, defaultTargetUnitConstant, targetUnitFlagUsageConstant)
	command.Flags().Float64(volumeFlagNameConstant, defaultFinalVolumeConstant, volumeFlagUsageConstant)
	command.Flags().String(volumeUnitFlagNameConstant, defaultVolumeUnitConstant, volumeUnitFlagUsageConstant)
	command.Flags().Float64(stockVolumeFlagNameConstant, defaultFinalVolumeConstant, stockVolumeFlagUsageConstant)
	command.Flags().String(stockVolumeUnitFlagNameConstant, defaultVolumeUnitConstant, stockVolumeUnitFlagUsageConstant)
	report.BindOutputFlags(command)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	request := builder.parseRequest(command)
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

func (builder *CommandBuilder) parseRequest(command *cobra.Command) Request {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	request := Request{Solvent: configuration.Solvent}
	request.ReagentName, _ = flagSet.GetString(reagentFlagNameConstant)
	formValue, _ := flagSet.GetString(formFlagNameConstant)
	request.StockForm = StockForm(formValue)
	if flagSet.Changed(solventFlagNameConstant) {
		request.Solvent, _ = flagSet.GetString(solventFlagNameConstant)
	}
	request.StockConcentration, _ = flagSet.GetFloat64(stockFlagNameConstant)
	request.StockUnit, _ = flagSet.GetString(stockUnitFlagNameConstant)
	request.MolecularWeight, _ = flagSet.GetFloat64(molecularWeightFlagNameConstant)
	request.TargetConcentration, _ = flagSet.GetFloat64(targetFlagNameConstant)
	request.TargetUnit, _ = flagSet.GetString(targetUnitFlagNameConstant)
	request.FinalVolume, _ = flagSet.GetFloat64(volumeFlagNameConstant)
	request.FinalVolumeUnit, _ = flagSet.GetString(volumeUnitFlagNameConstant)
	request.StockVolume, _ = flagSet.GetFloat64(stockVolumeFlagNameConstant)
	request.StockVolumeUnit, _ = flagSet.GetString(stockVolumeUnitFlagNameConstant)
	return request
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

