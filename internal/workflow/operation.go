package workflow

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/design"
	"github.com/temirov/labkit/internal/dilution"
	"github.com/temirov/labkit/internal/ic50"
	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/serialdilution"
)

// Operation is a single workflow step.
type Operation interface {
	Name() string
	Execute(executionContext context.Context, environment *Environment) error
}

// Environment exposes shared dependencies for workflow operations.
type Environment struct {
	DesignService         *design.Service
	DilutionService       *dilution.Service
	SerialDilutionService *serialdilution.Service
	IC50Service           *ic50.Service
	StoreOpener           reagents.StoreOpener
	Output                io.Writer
	Logger                *zap.Logger
	DryRun                bool
}
