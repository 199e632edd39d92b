package bootstrap

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/server"
)

const (
	commandUseConstant              = "bootstrap"
	commandShortDescriptionConstant = "Prepare the labkit workspace and launch the server"
	commandLongDescriptionConstant  = "bootstrap creates the workspace directory when it is absent, opens its reagent store, imports the seed manifest, and starts the HTTP server."
	workspaceFlagNameConstant       = "workspace"
	workspaceFlagUsageConstant      = "Workspace directory"
	manifestFlagNameConstant        = "manifest"
	manifestFlagUsageConstant       = "Reagent seed manifest (YAML)"
	noLaunchFlagNameConstant        = "no-launch"
	noLaunchFlagUsageConstant       = "Prepare the workspace without starting the server"
	workspaceCreatedTemplate        = "Workspace created: %s\n"
	workspaceExistsTemplate         = "Workspace exists: %s\n"
	importedTemplateConstant        = "Imported %d reagents (%d already present) into %s\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the bootstrap command.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	ConfigurationProvider         func() CommandConfiguration
	ReagentsConfigurationProvider func() reagents.CommandConfiguration
	ServerConfigurationProvider   func() server.CommandConfiguration
	FileSystem                    FileSystem
	Launcher                      Launcher
}

// Build constructs the bootstrap command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	command.Flags().String(workspaceFlagNameConstant, "", workspaceFlagUsageConstant)
	command.Flags().String(manifestFlagNameConstant, "", manifestFlagUsageConstant)
	command.Flags().Bool(noLaunchFlagNameConstant, false, noLaunchFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	if workspaceValue, _ := command.Flags().GetString(workspaceFlagNameConstant); len(strings.TrimSpace(workspaceValue)) > 0 {
		configuration.Workspace = strings.TrimSpace(workspaceValue)
	}
	if manifestValue, _ := command.Flags().GetString(manifestFlagNameConstant); len(strings.TrimSpace(manifestValue)) > 0 {
		configuration.Manifest = strings.TrimSpace(manifestValue)
	}
	if noLaunch, _ := command.Flags().GetBool(noLaunchFlagNameConstant); noLaunch {
		configuration.Launch = false
	}

	backend, backendError := reagents.ParseBackend(builder.resolveReagentsConfiguration().Backend)
	if backendError != nil {
		return backendError
	}

	logger := builder.resolveLogger()
	service := NewService(Dependencies{
		Logger:     logger,
		FileSystem: builder.FileSystem,
		Launcher:   builder.resolveLauncher(logger),
	})

	signalContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := Options{Workspace: configuration.Workspace, Manifest: configuration.Manifest, Backend: backend, Launch: configuration.Launch}
	_, runError := service.Run(signalContext, options, func(result Result) error {
		messageTemplate := workspaceExistsTemplate
		if result.WorkspaceCreated {
			messageTemplate = workspaceCreatedTemplate
		}
		if _, writeError := fmt.Fprintf(command.OutOrStdout(), messageTemplate, configuration.Workspace); writeError != nil {
			return writeError
		}
		_, writeError := fmt.Fprintf(command.OutOrStdout(), importedTemplateConstant, result.Imported.Added, result.Imported.Skipped, result.StorePath)
		return writeError
	})
	return runError
}

func (builder *CommandBuilder) resolveLauncher(logger *zap.Logger) Launcher {
	if builder.Launcher != nil {
		return builder.Launcher
	}
	serverConfiguration := server.DefaultCommandConfiguration()
	if builder.ServerConfigurationProvider != nil {
		serverConfiguration = builder.ServerConfigurationProvider().Sanitize()
	}
	return server.Launcher{Address: serverConfiguration.Address, Logger: logger}
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveReagentsConfiguration() reagents.CommandConfiguration {
	if builder.ReagentsConfigurationProvider == nil {
		return reagents.DefaultCommandConfiguration()
	}
	return builder.ReagentsConfigurationProvider().Sanitize()
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
