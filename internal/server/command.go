package server

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/reagents"
)

const (
	commandUseConstant              = "serve"
	commandShortDescriptionConstant = "Serve the calculators and the reagent catalog over HTTP"
	commandLongDescriptionConstant  = "serve starts the labkit HTTP server. It stops gracefully on interrupt."
	addressFlagNameConstant         = "address"
	addressFlagUsageConstant        = "Listen address (host:port)"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	StoreOpener           reagents.StoreOpener
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	command.Flags().String(addressFlagNameConstant, "", addressFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	address := builder.resolveConfiguration().Address
	if addressValue, _ := command.Flags().GetString(addressFlagNameConstant); len(strings.TrimSpace(addressValue)) > 0 {
		address = strings.TrimSpace(addressValue)
	}

	storeOpener := builder.StoreOpener
	if storeOpener == nil {
		storeOpener = reagents.DefaultCommandConfiguration().Open
	}

	signalContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	launcher := Launcher{Address: address, Logger: builder.resolveLogger()}
	return launcher.Launch(signalContext, storeOpener)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
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
