package reagents

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/report"
)

const (
	commandUseConstant               = "reagents"
	commandShortDescriptionConstant  = "Manage the reagent molecular weight catalog"
	commandLongDescriptionConstant   = "reagents adds, edits, deletes, lists, exports, and imports the reagents whose molecular weights the calculators use."
	addCommandUseConstant            = "add"
	addCommandShortConstant          = "Add a reagent"
	editCommandUseConstant           = "edit"
	editCommandShortConstant         = "Change the molecular weight or manufacturer of a reagent"
	deleteCommandUseConstant         = "delete <name>"
	deleteCommandShortConstant       = "Delete a reagent"
	listCommandUseConstant           = "list"
	listCommandShortConstant         = "List stored reagents"
	exportCommandUseConstant         = "export"
	exportCommandShortConstant       = "Export the catalog as CSV"
	importCommandUseConstant         = "import <manifest.yaml>"
	importCommandShortConstant       = "Add the reagents of a YAML manifest that are not stored yet"
	nameFlagNameConstant             = "name"
	nameFlagUsageConstant            = "Reagent name"
	molecularWeightFlagNameConstant  = "mw"
	molecularWeightFlagUsageConstant = "Molecular weight in g/mol"
	manufacturerFlagNameConstant     = "manufacturer"
	manufacturerFlagUsageConstant    = "Manufacturer"
	addedMessageTemplateConstant     = "Added '%s'.\n"
	updatedMessageTemplateConstant   = "Updated '%s'.\n"
	deletedMessageTemplateConstant   = "Deleted '%s'.\n"
	importedMessageTemplateConstant  = "Imported %d reagents (%d already present).\n"
	closeStoreErrorTemplateConstant  = "unable to close reagent store: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the reagents command group.
type CommandBuilder struct {
	LoggerProvider              LoggerProvider
	ConfigurationProvider       func() CommandConfiguration
	OutputConfigurationProvider func() report.OutputConfiguration
	StoreOpener                 StoreOpener
}

// Build constructs the reagents command and its subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
	}

	addCommand := &cobra.Command{Use: addCommandUseConstant, Short: addCommandShortConstant, Args: cobra.NoArgs, RunE: builder.runAdd}
	bindReagentFlags(addCommand)

	editCommand := &cobra.Command{Use: editCommandUseConstant, Short: editCommandShortConstant, Args: cobra.NoArgs, RunE: builder.runEdit}
	bindReagentFlags(editCommand)

	deleteCommand := &cobra.Command{Use: deleteCommandUseConstant, Short: deleteCommandShortConstant, Args: cobra.ExactArgs(1), RunE: builder.runDelete}

	listCommand := &cobra.Command{Use: listCommandUseConstant, Short: listCommandShortConstant, Args: cobra.NoArgs, RunE: builder.runList}
	report.BindOutputFlags(listCommand)

	exportCommand := &cobra.Command{Use: exportCommandUseConstant, Short: exportCommandShortConstant, Args: cobra.NoArgs, RunE: builder.runExport}
	report.BindOutputFlags(exportCommand)

	importCommand := &cobra.Command{Use: importCommandUseConstant, Short: importCommandShortConstant, Args: cobra.ExactArgs(1), RunE: builder.runImport}

	command.AddCommand(addCommand, editCommand, deleteCommand, listCommand, exportCommand, importCommand)
	return command, nil
}

func bindReagentFlags(command *cobra.Command) {
	command.Flags().String(nameFlagNameConstant, "", nameFlagUsageConstant)
	command.Flags().Float64(molecularWeightFlagNameConstant, 0, molecularWeightFlagUsageConstant)
	command.Flags().String(manufacturerFlagNameConstant, "", manufacturerFlagUsageConstant)
}

func readReagentFlags(command *cobra.Command) Reagent {
	reagent := Reagent{}
	reagent.Name, _ = command.Flags().GetString(nameFlagNameConstant)
	reagent.MolecularWeight, _ = command.Flags().GetFloat64(molecularWeightFlagNameConstant)
	reagent.Manufacturer, _ = command.Flags().GetString(manufacturerFlagNameConstant)
	return reagent
}

func (builder *CommandBuilder) runAdd(command *cobra.Command, arguments []string) error {
	return builder.withService(command, func(service *Service) error {
		reagent, addError := service.Add(command.Context(), readReagentFlags(command))
		if addError != nil {
			return addError
		}
		_, writeError := fmt.Fprintf(command.OutOrStdout(), addedMessageTemplateConstant, reagent.Name)
		return writeError
	})
}

func (builder *CommandBuilder) runEdit(command *cobra.Command, arguments []string) error {
	return builder.withService(command, func(service *Service) error {
		reagent, updateError := service.Update(command.Context(), readReagentFlags(command))
		if updateError != nil {
			return updateError
		}
		_, writeError := fmt.Fprintf(command.OutOrStdout(), updatedMessageTemplateConstant, reagent.Name)
		return writeError
	})
}

func (builder *CommandBuilder) runDelete(command *cobra.Command, arguments []string) error {
	return builder.withService(command, func(service *Service) error {
		if deleteError := service.Delete(command.Context(), arguments[0]); deleteError != nil {
			return deleteError
		}
		_, writeError := fmt.Fprintf(command.OutOrStdout(), deletedMessageTemplateConstant, arguments[0])
		return writeError
	})
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string) error {
	return builder.renderCatalog(command, builder.resolveOutputConfiguration())
}

func (builder *CommandBuilder) runExport(command *cobra.Command, arguments []string) error {
	return builder.renderCatalog(command, report.OutputConfiguration{Format: string(report.FormatCSV)})
}

func (builder *CommandBuilder) renderCatalog(command *cobra.Command, outputConfiguration report.OutputConfiguration) error {
	outputOptions, outputError := report.ReadOutputOptions(command, outputConfiguration)
	if outputError != nil {
		return outputError
	}
	return builder.withService(command, func(service *Service) error {
		document, exportError := service.Export(command.Context())
		if exportError != nil {
			return exportError
		}
		return outputOptions.Write(command.OutOrStdout(), document)
	})
}

func (builder *CommandBuilder) runImport(command *cobra.Command, arguments []string) error {
	manifest, manifestError := LoadManifest(arguments[0])
	if manifestError != nil {
		return manifestError
	}
	return builder.withService(command, func(service *Service) error {
		summary, importError := service.Import(command.Context(), manifest)
		if importError != nil {
			return importError
		}
		_, writeError := fmt.Fprintf(command.OutOrStdout(), importedMessageTemplateConstant, summary.Added, summary.Skipped)
		return writeError
	})
}

func (builder *CommandBuilder) withService(command *cobra.Command, operation func(*Service) error) (operationError error) {
	store, openError := builder.resolveStoreOpener()(command.Context())
	if openError != nil {
		return openError
	}
	defer func() {
		if closeError := store.Close(); closeError != nil {
			operationError = errors.Join(operationError, fmt.Errorf(closeStoreErrorTemplateConstant, closeError))
		}
	}()
	return operation(NewService(store, builder.resolveLogger()))
}

func (builder *CommandBuilder) resolveStoreOpener() StoreOpener {
	if builder.StoreOpener != nil {
		return builder.StoreOpener
	}
	return builder.resolveConfiguration().Open
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
