package ic50

import (
	"context"

	"go.uber.org/zap"
)

const (
	seriesPlannedMessageConstant = "Planned IC50 series"
	intermediateRequiredMessage  = "Range requires a 1:10 intermediate stock"
	reagentFieldConstant         = "reagent"
	pointCountFieldConstant      = "points"
	rangeFieldConstant           = "range"
	directVolumeMicrolitersField = "direct_volume_ul"
)

// Service plans IC50 dose-response series.
type Service struct {
	logger *zap.Logger
}

// NewService constructs a Service. A nil logger disables logging.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Plan calculates the series and logs every range that needs an intermediate stock.
func (service *Service) Plan(executionContext context.Context, request Request) (Result, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return Result{}, contextError
	}
	result, calculationError := Calculate(request)
	if calculationError != nil {
		return Result{}, calculationError
	}
	for _, group := range result.Groups {
		if group.UsesIntermediate {
			service.logger.Warn(intermediateRequiredMessage,
				zap.String(rangeFieldConstant, group.Title),
				zap.Float64(directVolumeMicrolitersField, group.DirectStockVolume*microlitersPerLiterConstant),
			)
		}
	}
	service.logger.Info(seriesPlannedMessageConstant,
		zap.String(reagentFieldConstant, result.Request.ReagentName),
		zap.Int(pointCountFieldConstant, len(result.Concentrations)),
	)
	return result, nil
}
