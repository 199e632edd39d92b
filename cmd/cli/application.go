package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	workflowcmd "github.com/temirov/labkit/cmd/cli/workflow"
	"github.com/temirov/labkit/internal/bootstrap"
	"github.com/temirov/labkit/internal/design"
	"github.com/temirov/labkit/internal/dilution"
	"github.com/temirov/labkit/internal/ic50"
	"github.com/temirov/labkit/internal/publish"
	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/serialdilution"
	"github.com/temirov/labkit/internal/server"
	"github.com/temirov/labkit/internal/utils"
)

const (
	applicationNameConstant                 = "labkit"
	applicationShortDescriptionConstant     = "Laboratory calculators, reagent catalog, and workflow runner"
	applicationLongDescriptionConstant      = "labkit plans experimental designs, dilutions, serial dilutions, and IC50 series, keeps a reagent catalog, runs workflow plans, and serves everything over HTTP."
	versionTemplateConstant                 = "labkit version: {{.Version}}\n"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "LABKIT"
	environmentFileNameConstant             = ".env"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "labkit CLI executed"
	rootCommandDebugMessageConstant         = "labkit CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	xdgConfigHomeEnvironmentNameConstant    = "XDG_CONFIG_HOME"
	userConfigurationDirectoryNameConstant  = ".config"
	toolsConfigurationKeyConstant           = "tools"
	outputConfigurationKeyConstant          = toolsConfigurationKeyConstant + ".output"
	reagentsConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".reagents"
	dilutionConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".dilution"
	publishConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".publish"
	bootstrapConfigurationKeyConstant       = toolsConfigurationKeyConstant + ".bootstrap"
	serverConfigurationKeyConstant          = toolsConfigurationKeyConstant + ".server"
	workflowConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".workflow"
)

// Version is the labkit release reported by --version. Release builds set it through -ldflags.
var Version = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool family.
type ApplicationToolsConfiguration struct {
	Output    report.OutputConfiguration       `mapstructure:"output"`
	Reagents  reagents.CommandConfiguration    `mapstructure:"reagents"`
	Dilution  dilution.CommandConfiguration    `mapstructure:"dilution"`
	Publish   publish.CommandConfiguration     `mapstructure:"publish"`
	Bootstrap bootstrap.CommandConfiguration   `mapstructure:"bootstrap"`
	Server    server.CommandConfiguration      `mapstructure:"server"`
	Workflow  workflowcmd.CommandConfiguration `mapstructure:"workflow"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetEnvironmentFiles(environmentFileNameConstant)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	application.rootCommand = cobraCommand
	for _, builder := range application.commandBuilders() {
		command, buildError := builder.Build()
		if buildError != nil {
			continue
		}
		cobraCommand.AddCommand(command)
	}

	return application
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

func (application *Application) commandBuilders() []commandBuilder {
	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	outputConfigurationProvider := func() report.OutputConfiguration {
		return application.configuration.Tools.Output
	}
	reagentLookup := reagents.OpenerLookup{Open: application.openReagentStore}

	return []commandBuilder{
		&design.CommandBuilder{
			LoggerProvider:              loggerProvider,
			OutputConfigurationProvider: outputConfigurationProvider,
		},
		&dilution.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() dilution.CommandConfiguration {
				return application.configuration.Tools.Dilution
			},
			OutputConfigurationProvider: outputConfigurationProvider,
			ReagentLookup:               reagentLookup,
		},
		&serialdilution.CommandBuilder{
			LoggerProvider:              loggerProvider,
			OutputConfigurationProvider: outputConfigurationProvider,
			ReagentLookup:               reagentLookup,
		},
		&ic50.CommandBuilder{
			LoggerProvider:              loggerProvider,
			OutputConfigurationProvider: outputConfigurationProvider,
		},
		&reagents.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() reagents.CommandConfiguration {
				return application.configuration.Tools.Reagents
			},
			OutputConfigurationProvider: outputConfigurationProvider,
		},
		&workflowcmd.CommandBuilder{
			LoggerProvider: loggerProvider,
			StoreOpener:    application.openReagentStore,
			ConfigurationProvider: func() workflowcmd.CommandConfiguration {
				return application.configuration.Tools.Workflow
			},
			OutputConfigurationProvider: outputConfigurationProvider,
		},
		&server.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() server.CommandConfiguration {
				return application.configuration.Tools.Server
			},
			StoreOpener: application.openReagentStore,
		},
		&bootstrap.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() bootstrap.CommandConfiguration {
				return application.configuration.Tools.Bootstrap
			},
			ReagentsConfigurationProvider: func() reagents.CommandConfiguration {
				return application.configuration.Tools.Reagents
			},
			ServerConfigurationProvider: func() server.CommandConfiguration {
				return application.configuration.Tools.Server
			},
		},
		&publish.CommandBuilder{
			LoggerProvider:               loggerProvider,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
			ConfigurationProvider: func() publish.CommandConfiguration {
				return application.configuration.Tools.Publish
			},
		},
	}
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	configurationHome := strings.TrimSpace(os.Getenv(xdgConfigHomeEnvironmentNameConstant))
	if len(configurationHome) == 0 {
		homeDirectory, homeDirectoryError := os.UserHomeDir()
		if homeDirectoryError != nil {
			return searchPaths
		}
		configurationHome = filepath.Join(homeDirectory, userConfigurationDirectoryNameConstant)
	}
	return append(searchPaths, filepath.Join(configurationHome, applicationNameConstant))
}

func (application *Application) openReagentStore(executionContext context.Context) (reagents.Store, error) {
	return application.configuration.Tools.Reagents.Open(executionContext)
}

func defaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	sections := []map[string]any{
		report.DefaultConfigurationValues(outputConfigurationKeyConstant),
		reagents.DefaultConfigurationValues(reagentsConfigurationKeyConstant),
		dilution.DefaultConfigurationValues(dilutionConfigurationKeyConstant),
		publish.DefaultConfigurationValues(publishConfigurationKeyConstant),
		bootstrap.DefaultConfigurationValues(bootstrapConfigurationKeyConstant),
		server.DefaultConfigurationValues(serverConfigurationKeyConstant),
		workflowcmd.DefaultConfigurationValues(workflowConfigurationKeyConstant),
	}
	for _, section := range sections {
		for configurationKey, configurationValue := range section {
			defaultValues[configurationKey] = configurationValue
		}
	}
	return defaultValues
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.NormalizeLogLevel(application.configuration.Common.LogLevel),
		utils.NormalizeLogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := utils.WithConfigurationFile(command.Context(), application.configurationMetadata.ConfigFileUsed)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return utils.NormalizeLogFormat(application.configuration.Common.LogFormat) == utils.LogFormatConsole
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
