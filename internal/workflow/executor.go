package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/design"
	"github.com/temirov/labkit/internal/dilution"
	"github.com/temirov/labkit/internal/ic50"
	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/serialdilution"
)

const (
	workflowExecutionErrorTemplateConstant = "workflow operation %s failed: %w"
	workflowExecutorOutputMessageConstant  = "workflow executor requires an output writer"
	workflowCompletedMessageConstant       = "Workflow completed"
	stepCountLogFieldConstant              = "steps"
	dryRunLogFieldConstant                 = "dry_run"
)

// Dependencies configures shared collaborators for workflow execution.
type Dependencies struct {
	Logger      *zap.Logger
	StoreOpener reagents.StoreOpener
	Output      io.Writer
}

// RuntimeOptions captures user-provided execution modifiers.
type RuntimeOptions struct {
	DryRun bool
}

// Executor runs workflow operations in order.
type Executor struct {
	operations   []Operation
	dependencies Dependencies
}

// NewExecutor constructs an Executor instance.
func NewExecutor(operations []Operation, dependencies Dependencies) *Executor {
	return &Executor{operations: append([]Operation{}, operations...), dependencies: dependencies}
}

// Execute runs every operation and stops at the first failure.
func (executor *Executor) Execute(executionContext context.Context, runtimeOptions RuntimeOptions) error {
	if executor.dependencies.Output == nil {
		return errors.New(workflowExecutorOutputMessageConstant)
	}
	logger := executor.dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lookup := reagents.OpenerLookup{Open: executor.dependencies.StoreOpener}
	environment := &Environment{
		DesignService:         design.NewService(logger),
		DilutionService:       dilution.NewService(logger, lookup),
		SerialDilutionService: serialdilution.NewService(logger, lookup),
		IC50Service:           ic50.NewService(logger),
		StoreOpener:           executor.dependencies.StoreOpener,
		Output:                executor.dependencies.Output,
		Logger:                logger,
		DryRun:                runtimeOptions.DryRun,
	}

	for operationIndex := range executor.operations {
		operation := executor.operations[operationIndex]
		if operation == nil {
			continue
		}
		if executeError := operation.Execute(executionContext, environment); executeError != nil {
			return fmt.Errorf(workflowExecutionErrorTemplateConstant, operation.Name(), executeError)
		}
	}

	logger.Info(workflowCompletedMessageConstant, zap.Int(stepCountLogFieldConstant, len(executor.operations)), zap.Bool(dryRunLogFieldConstant, runtimeOptions.DryRun))
	return nil
}
