package publish

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/execshell"
	"github.com/temirov/labkit/internal/ui"
)

const (
	commandUseConstant               = "publish"
	commandShortDescriptionConstant  = "Stage, commit, and push all changes"
	commandLongDescriptionConstant   = "publish runs git add ., asks for a commit message, commits, and pushes to the configured remote branch. A blank message aborts before anything is committed."
	messageFlagNameConstant          = "message"
	messageFlagShorthandConstant     = "m"
	messageFlagUsageConstant         = "Commit message; prompts on standard input when omitted"
	remoteFlagNameConstant           = "remote"
	remoteFlagUsageConstant          = "Remote to push to"
	branchFlagNameConstant           = "branch"
	branchFlagUsageConstant          = "Branch to push"
	directoryFlagNameConstant        = "directory"
	directoryFlagUsageConstant       = "Repository working directory"
	publishedMessageTemplateConstant = "PUBLISHED: %s/%s\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the publish command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  GitExecutor
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the publish command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().StringP(messageFlagNameConstant, messageFlagShorthandConstant, "", messageFlagUsageConstant)
	command.Flags().String(remoteFlagNameConstant, "", remoteFlagUsageConstant)
	command.Flags().String(branchFlagNameConstant, "", branchFlagUsageConstant)
	command.Flags().String(directoryFlagNameConstant, "", directoryFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	options := Options{Remote: configuration.Remote, Branch: configuration.Branch}
	if remoteValue, _ := command.Flags().GetString(remoteFlagNameConstant); len(strings.TrimSpace(remoteValue)) > 0 {
		options.Remote = remoteValue
	}
	if branchValue, _ := command.Flags().GetString(branchFlagNameConstant); len(strings.TrimSpace(branchValue)) > 0 {
		options.Branch = branchValue
	}
	options.WorkingDirectory, _ = command.Flags().GetString(directoryFlagNameConstant)

	source := PromptMessage(command.InOrStdin(), command.OutOrStdout())
	if command.Flags().Changed(messageFlagNameConstant) {
		messageValue, _ := command.Flags().GetString(messageFlagNameConstant)
		source = StaticMessage(messageValue)
	}

	logger := builder.resolveLogger()
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}
	service, serviceError := NewService(logger, executor)
	if serviceError != nil {
		return serviceError
	}
	if publishError := service.Publish(command.Context(), options, source); publishError != nil {
		return publishError
	}

	resolved := CommandConfiguration{Remote: options.Remote, Branch: options.Branch}.Sanitize()
	_, writeError := fmt.Fprintf(command.OutOrStdout(), publishedMessageTemplateConstant, resolved.Remote, resolved.Branch)
	return writeError
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if creationError != nil {
		return nil, creationError
	}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		return shellExecutor.WithEventObserver(ui.NewConsoleCommandEventLogger(logger)), nil
	}
	return shellExecutor, nil
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
