package serialdilution

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	reagentLookupErrorTemplateConstant = "unable to look up reagent %q: %w"
	molecularWeightResolvedMessage     = "Using stored molecular weight"
	seriesPlannedMessageConstant       = "Planned serial dilution"
	reagentFieldConstant               = "reagent"
	molecularWeightFieldConstant       = "molecular_weight"
	dilutionCountFieldConstant         = "dilutions"
	factorFieldConstant                = "factor"
)

// ReagentLookup resolves stored molecular weights by reagent name.
type ReagentLookup interface {
	LookupMolecularWeight(executionContext context.Context, reagentName string) (float64, bool, error)
}

// Service plans serial dilutions.
type Service struct {
	logger        *zap.Logger
	reagentLookup ReagentLookup
}

// NewService constructs a Service. The lookup may be nil.
func NewService(logger *zap.Logger, reagentLookup ReagentLookup) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, reagentLookup: reagentLookup}
}

// Plan fills a missing molecular weight from the reagent store and calculates the series.
func (service *Service) Plan(executionContext context.Context, request Request) (Result, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return Result{}, contextError
	}
	if service.reagentLookup != nil && request.MolecularWeight <= 0 {
		reagentName := request.WithDefaults().ReagentName
		molecularWeight, found, lookupError := service.reagentLookup.LookupMolecularWeight(executionContext, reagentName)
		if lookupError != nil {
			return Result{}, fmt.Errorf(reagentLookupErrorTemplateConstant, reagentName, lookupError)
		}
		if found {
			service.logger.Debug(molecularWeightResolvedMessage, zap.String(reagentFieldConstant, reagentName), zap.Float64(molecularWeightFieldConstant, molecularWeight))
			request.MolecularWeight = molecularWeight
		}
	}

	result, calculationError := Calculate(request)
	if calculationError != nil {
		return Result{}, calculationError
	}
	service.logger.Info(seriesPlannedMessageConstant,
		zap.String(reagentFieldConstant, result.Request.ReagentName),
		zap.Int(dilutionCountFieldConstant, result.Request.DilutionCount),
		zap.Float64(factorFieldConstant, result.Request.Factor),
	)
	return result, nil
}
