package publish

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/execshell"
)

const (
	gitAddSubcommandConstant         = "add"
	gitAddAllPathspecConstant        = "."
	gitCommitSubcommandConstant      = "commit"
	gitMessageFlagConstant           = "-m"
	gitPushSubcommandConstant        = "push"
	commitPromptConstant             = "Commit message: "
	emptyCommitMessageConstant       = "commit message is empty; aborting without commit"
	executorNotConfiguredConstant    = "publish requires a git executor"
	stageErrorTemplateConstant       = "unable to stage changes: %w"
	commitErrorTemplateConstant      = "unable to create commit: %w"
	pushErrorTemplateConstant        = "unable to push %s/%s: %w"
	readMessageErrorTemplateConstant = "unable to read commit message: %w"
	publishedLogMessageConstant      = "Published commit"
	abortedLogMessageConstant        = "Commit aborted"
	remoteLogFieldConstant           = "remote"
	branchLogFieldConstant           = "branch"
	workingDirectoryLogFieldConstant = "working_directory"
	messageLengthLogFieldConstant    = "message_length"
)

// ErrEmptyCommitMessage reports a blank commit message; nothing is committed or pushed.
var ErrEmptyCommitMessage = errors.New(emptyCommitMessageConstant)

// ErrExecutorNotConfigured indicates that NewService received a nil executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredConstant)

// GitExecutor runs git subcommands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// MessageSource supplies the commit message once changes are staged.
type MessageSource func() (string, error)

// StaticMessage returns a source that always yields message.
func StaticMessage(message string) MessageSource {
	return func() (string, error) {
		return message, nil
	}
}

// PromptMessage returns a source that prints the prompt to writer and reads one line from reader.
func PromptMessage(reader io.Reader, writer io.Writer) MessageSource {
	return func() (string, error) {
		if _, writeError := io.WriteString(writer, commitPromptConstant); writeError != nil {
			return "", fmt.Errorf(readMessageErrorTemplateConstant, writeError)
		}
		line, readError := bufio.NewReader(reader).ReadString('\n')
		if readError != nil && !errors.Is(readError, io.EOF) {
			return "", fmt.Errorf(readMessageErrorTemplateConstant, readError)
		}
		return line, nil
	}
}

// Options describe one publish run.
type Options struct {
	WorkingDirectory string
	Remote           string
	Branch           string
}

// Service stages, commits, and pushes changes.
type Service struct {
	logger   *zap.Logger
	executor GitExecutor
}

// NewService constructs a Service.
func NewService(logger *zap.Logger, executor GitExecutor) (*Service, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, executor: executor}, nil
}

// Publish stages all changes, then commits with the message from source and pushes.
// A blank message stops before the commit with ErrEmptyCommitMessage.
func (service *Service) Publish(executionContext context.Context, options Options, source MessageSource) error {
	configuration := CommandConfiguration{Remote: options.Remote, Branch: options.Branch}.Sanitize()

	if _, stageError := service.git(executionContext, options.WorkingDirectory, gitAddSubcommandConstant, gitAddAllPathspecConstant); stageError != nil {
		return fmt.Errorf(stageErrorTemplateConstant, stageError)
	}

	message, messageError := source()
	if messageError != nil {
		return messageError
	}
	message = strings.TrimSpace(message)
	if len(message) == 0 {
		service.logger.Warn(abortedLogMessageConstant, zap.String(workingDirectoryLogFieldConstant, options.WorkingDirectory))
		return ErrEmptyCommitMessage
	}

	if _, commitError := service.git(executionContext, options.WorkingDirectory, gitCommitSubcommandConstant, gitMessageFlagConstant, message); commitError != nil {
		return fmt.Errorf(commitErrorTemplateConstant, commitError)
	}
	if _, pushError := service.git(executionContext, options.WorkingDirectory, gitPushSubcommandConstant, configuration.Remote, configuration.Branch); pushError != nil {
		return fmt.Errorf(pushErrorTemplateConstant, configuration.Remote, configuration.Branch, pushError)
	}

	service.logger.Info(
		publishedLogMessageConstant,
		zap.String(remoteLogFieldConstant, configuration.Remote),
		zap.String(branchLogFieldConstant, configuration.Branch),
		zap.Int(messageLengthLogFieldConstant, len(message)),
	)
	return nil
}

func (service *Service) git(executionContext context.Context, workingDirectory string, arguments ...string) (execshell.ExecutionResult, error) {
	return service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: workingDirectory,
	})
}
