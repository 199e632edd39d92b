package ic50

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/units"
)

const (
	defaultReagentNameConstant           = "My Reagent"
	defaultStockUnitConstant             = "mM"
	defaultHighestUnitConstant           = "µM"
	defaultVolumeUnitConstant            = "µL"
	upperSparseTitleConstant             = "Upper Sparse Range"
	denseTitleConstant                   = "Dense Range"
	lowerSparseTitleConstant             = "Lower Sparse Range"
	minimumPipetteVolumeLitersConstant   = 1e-6
	intermediateDilutionConstant         = 10.0
	intermediateStockVolumeLiters        = 10e-6
	intermediateSolventVolumeLiters      = 90e-6
	mainStockLabelConstant               = "Main Stock"
	intermediateStockLabelConstant       = "1:10 Intermediate Stock"
	wasteLabelConstant                   = "Waste"
	pointLabelTemplateConstant           = "Point #%d"
	makeIntermediateStepTemplateConstant = "Make Intermediate Stock (%s)"
	preparePointStepTemplateConstant     = "Prepare Point #%d"
	dilutePointStepTemplateConstant      = "Dilute Point #%d"
	discardStepConstant                  = "Discard"
	addActionTemplateConstant            = "Add %s"
	transferActionTemplateConstant       = "Transfer %s"
	removeActionTemplateConstant         = "Remove %s"
	groupHeadingTemplateConstant         = "%s (Points #%d to #%d)"
	lowVolumeWarningTemplateConstant     = "Direct dilution requires %s µL of main stock, which is too low. A two-step dilution will be used for this group."
	intermediateLineTemplateConstant     = "Create a 1:10 Intermediate Stock (%s): combine 10 µL of Main Stock with 90 µL of solvent."
	intermediatePrepareTemplateConstant  = "Prepare Point #%d (Conc: %s): take %s of the 1:10 Intermediate Stock and add %s of solvent."
	directPrepareTemplateConstant        = "Prepare Point #%d (conc: %s): take %s of Main Stock (%s) and add %s of solvent."
	seriesHeadingTemplateConstant        = "Perform %s-fold Serial Dilution:"
	seriesPrepareTemplateConstant        = "1. Prepare %d new tubes for points #%d through #%d."
	seriesSolventTemplateConstant        = "2. Add %s of solvent to each of these new tubes."
	seriesTransferTemplateConstant       = "3. Transfer %s from the Point #%d tube into the next tube (this creates Point #%d). Mix well."
	seriesContinueTemplateConstant       = "4. Continue transferring %s sequentially for the remaining tubes in this series."
	seriesDiscardTemplateConstant        = "5. Important: Discard the final %s from the very last tube to ensure all tubes have the correct final volume of %s."
	documentTitleConstant                = "IC50 Dose-Response Planner"
	summaryTableTitleConstant            = "Final Concentration Summary"
	protocolTableTitleConstant           = "Dilution Protocol"
	summaryExportTemplateConstant        = "IC50_protocol_summary_%s.csv"
	protocolExportTemplateConstant       = "IC50_protocol_%s.csv"
	pointColumnConstant                  = "Point #"
	finalConcentrationColumnConstant     = "Final Concentration"
	stepColumnConstant                   = "Step"
	actionColumnConstant                 = "Action"
	sourceColumnConstant                 = "Source"
	destinationColumnConstant            = "Destination"
	stockNotAboveHighestMessageConstant  = "the highest concentration must be lower than the main stock concentration"
	nonPositiveInputMessageConstant      = "concentrations and final volume must be > 0"
	invalidFactorTemplateConstant        = "%s factor must be greater than 1, got %s"
	invalidPointCountTemplateConstant    = "%s needs at least %d points, got %d"
	stockConcentrationTemplateConstant   = "invalid main stock concentration: %w"
	highestConcentrationTemplateConstant = "invalid highest concentration: %w"
	finalVolumeTemplateConstant          = "invalid final volume: %w"
	sparseFactorNameConstant             = "sparse"
	denseFactorNameConstant              = "dense"
	lowVolumePrecisionConstant           = 3
	microlitersPerLiterConstant          = 1e6
)

// ErrStockNotAboveHighest indicates that the main stock is not more concentrated than the highest point.
var ErrStockNotAboveHighest = errors.New(stockNotAboveHighestMessageConstant)

// ErrInvalidFactor indicates a range factor that is not greater than one.
var ErrInvalidFactor = errors.New("invalid dilution factor")

// ErrInvalidPointCount indicates a range with too few points.
var ErrInvalidPointCount = errors.New("invalid point count")

// ErrNonPositiveInput indicates a zero or negative concentration or volume.
var ErrNonPositiveInput = errors.New(nonPositiveInputMessageConstant)

// Request describes an IC50 dose-response series.
type Request struct {
	ReagentName          string  `json:"reagent_name" mapstructure:"reagent_name"`
	StockConcentration   float64 `json:"stock_concentration" mapstructure:"stock_concentration"`
	StockUnit            string  `json:"stock_unit" mapstructure:"stock_unit"`
	FinalVolume          float64 `json:"final_volume" mapstructure:"final_volume"`
	FinalVolumeUnit      string  `json:"final_volume_unit" mapstructure:"final_volume_unit"`
	HighestConcentration float64 `json:"highest_concentration" mapstructure:"highest_concentration"`
	HighestUnit          string  `json:"highest_unit" mapstructure:"highest_unit"`
	UpperSparsePoints    int     `json:"upper_sparse_points" mapstructure:"upper_sparse_points"`
	DensePoints          int     `json:"dense_points" mapstructure:"dense_points"`
	LowerSparsePoints    int     `json:"lower_sparse_points" mapstructure:"lower_sparse_points"`
	SparseFactor         float64 `json:"sparse_factor" mapstructure:"sparse_factor"`
	DenseFactor          float64 `json:"dense_factor" mapstructure:"dense_factor"`
	Solvent              string  `json:"solvent" mapstructure:"solvent"`
}

// WithDefaults fills empty names and units.
func (request Request) WithDefaults() Request {
	normalized := request
	normalized.ReagentName = fallbackString(request.ReagentName, defaultReagentNameConstant)
	normalized.StockUnit = fallbackString(request.StockUnit, defaultStockUnitConstant)
	normalized.HighestUnit = fallbackString(request.HighestUnit, defaultHighestUnitConstant)
	normalized.FinalVolumeUnit = fallbackString(request.FinalVolumeUnit, defaultVolumeUnitConstant)
	normalized.Solvent = fallbackString(request.Solvent, units.DefaultSolvent)
	return normalized
}

// SummaryExportName returns the conventional file name of the concentration summary.
func (request Request) SummaryExportName() string {
	return fmt.Sprintf(summaryExportTemplateConstant, request.WithDefaults().ReagentName)
}

// ProtocolExportName returns the file name of the protocol table.
func (request Request) ProtocolExportName() string {
	return fmt.Sprintf(protocolExportTemplateConstant, request.WithDefaults().ReagentName)
}

// Group is one concentration range and the volumes needed to prepare it. Volumes are in liters.
type Group struct {
	Title                     string    `json:"title"`
	FirstPoint                int       `json:"first_point"`
	Factor                    float64   `json:"factor"`
	Concentrations            []float64 `json:"concentrations"`
	TransferVolume            float64   `json:"transfer_volume"`
	FirstTubeVolume           float64   `json:"first_tube_volume"`
	DirectStockVolume         float64   `json:"direct_stock_volume"`
	UsesIntermediate          bool      `json:"uses_intermediate"`
	IntermediateConcentration float64   `json:"intermediate_concentration,omitempty"`
	SourceVolume              float64   `json:"source_volume"`
	SolventVolume             float64   `json:"solvent_volume"`
	SeriesSolventVolume       float64   `json:"series_solvent_volume,omitempty"`
}

// LastPoint returns the point number of the group's last tube.
func (group Group) LastPoint() int {
	return group.FirstPoint + len(group.Concentrations) - 1
}

// IsSeries reports whether the group is serially diluted from its first tube.
func (group Group) IsSeries() bool {
	return len(group.Concentrations) > 1
}

// Step is one row of the protocol table.
type Step struct {
	Step        string `json:"step"`
	Action      string `json:"action"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Result is a planned dose-response series.
type Result struct {
	Request        Request
	Concentrations []float64
	Groups         []Group
	Steps          []Step
	Protocol       []string
}

// Document renders the concentration summary first and the protocol table second.
func (result Result) Document() report.Document {
	summaryTable := report.NewTable(result.Request.SummaryExportName(), summaryTableTitleConstant, pointColumnConstant, finalConcentrationColumnConstant)
	for pointIndex, concentration := range result.Concentrations {
		summaryTable.AppendRow(strconv.Itoa(pointIndex+1), units.FormatMolarity(concentration))
	}
	protocolTable := report.NewTable(result.Request.ProtocolExportName(), protocolTableTitleConstant, stepColumnConstant, actionColumnConstant, sourceColumnConstant, destinationColumnConstant)
	for _, step := range result.Steps {
		protocolTable.AppendRow(step.Step, step.Action, step.Source, step.Destination)
	}
	return report.Document{Title: documentTitleConstant, Notes: result.Protocol, Tables: []report.Table{summaryTable, protocolTable}}
}

// Calculate builds the concentration series and the per-range protocol.
func Calculate(rawRequest Request) (Result, error) {
	request := rawRequest.WithDefaults()
	if validationError := validateShape(request); validationError != nil {
		return Result{}, validationError
	}

	stockConcentration, stockError := units.ParseMolarConcentration(request.StockConcentration, request.StockUnit)
	if stockError != nil {
		return Result{}, fmt.Errorf(stockConcentrationTemplateConstant, stockError)
	}
	highestConcentration, highestError := units.ParseMolarConcentration(request.HighestConcentration, request.HighestUnit)
	if highestError != nil {
		return Result{}, fmt.Errorf(highestConcentrationTemplateConstant, highestError)
	}
	finalVolume, volumeError := units.ParseVolume(request.FinalVolume, request.FinalVolumeUnit)
	if volumeError != nil {
		return Result{}, fmt.Errorf(finalVolumeTemplateConstant, volumeError)
	}

	mainStock := stockConcentration.BaseValue()
	highest := highestConcentration.BaseValue()
	if mainStock <= highest {
		return Result{}, ErrStockNotAboveHighest
	}
	if highest <= 0 || finalVolume.Liters() <= 0 {
		return Result{}, ErrNonPositiveInput
	}

	seriesRanges := []struct {
		title  string
		points int
		factor float64
	}{
		{title: upperSparseTitleConstant, points: request.UpperSparsePoints, factor: request.SparseFactor},
		{title: denseTitleConstant, points: request.DensePoints, factor: request.DenseFactor},
		{title: lowerSparseTitleConstant, points: request.LowerSparsePoints, factor: request.SparseFactor},
	}

	result := Result{Request: request}
	currentConcentration := highest
	pointOffset := 0
	for _, seriesRange := range seriesRanges {
		groupConcentrations := make([]float64, 0, seriesRange.points)
		for pointIndex := 0; pointIndex < seriesRange.points; pointIndex++ {
			groupConcentrations = append(groupConcentrations, currentConcentration)
			currentConcentration /= seriesRange.factor
		}
		result.Concentrations = append(result.Concentrations, groupConcentrations...)
		if len(groupConcentrations) == 0 {
			continue
		}

		group := planGroup(seriesRange.title, pointOffset+1, seriesRange.factor, groupConcentrations, mainStock, finalVolume.Liters())
		result.Groups = append(result.Groups, group)
		result.Steps = append(result.Steps, groupSteps(group, request.Solvent)...)
		result.Protocol = append(result.Protocol, groupProtocol(group, mainStock, finalVolume)...)
		pointOffset += len(groupConcentrations)
	}
	return result, nil
}

func validateShape(request Request) error {
	if request.UpperSparsePoints < 1 {
		return fmt.Errorf("%w: "+invalidPointCountTemplateConstant, ErrInvalidPointCount, upperSparseTitleConstant, 1, request.UpperSparsePoints)
	}
	if request.DensePoints < 1 {
		return fmt.Errorf("%w: "+invalidPointCountTemplateConstant, ErrInvalidPointCount, denseTitleConstant, 1, request.DensePoints)
	}
	if request.LowerSparsePoints < 0 {
		return fmt.Errorf("%w: "+invalidPointCountTemplateConstant, ErrInvalidPointCount, lowerSparseTitleConstant, 0, request.LowerSparsePoints)
	}
	if request.SparseFactor <= 1 {
		return fmt.Errorf("%w: "+invalidFactorTemplateConstant, ErrInvalidFactor, sparseFactorNameConstant, strconv.FormatFloat(request.SparseFactor, 'f', -1, 64))
	}
	if request.DenseFactor <= 1 {
		return fmt.Errorf("%w: "+invalidFactorTemplateConstant, ErrInvalidFactor, denseFactorNameConstant, strconv.FormatFloat(request.DenseFactor, 'f', -1, 64))
	}
	return nil
}

func planGroup(title string, firstPoint int, factor float64, concentrations []float64, mainStock float64, finalVolumeLiters float64) Group {
	group := Group{Title: title, FirstPoint: firstPoint, Factor: factor, Concentrations: concentrations}
	if group.IsSeries() {
		group.TransferVolume = finalVolumeLiters / (factor - 1)
		group.SeriesSolventVolume = finalVolumeLiters - finalVolumeLiters/factor
	}
	group.FirstTubeVolume = finalVolumeLiters + group.TransferVolume
	group.DirectStockVolume = concentrations[0] * group.FirstTubeVolume / mainStock

	sourceConcentration := mainStock
	if group.DirectStockVolume < minimumPipetteVolumeLitersConstant {
		group.UsesIntermediate = true
		group.IntermediateConcentration = mainStock / intermediateDilutionConstant
		sourceConcentration = group.IntermediateConcentration
	}
	group.SourceVolume = concentrations[0] * group.FirstTubeVolume / sourceConcentration
	group.SolventVolume = group.FirstTubeVolume - group.SourceVolume
	return group
}

func groupSteps(group Group, solvent string) []Step {
	steps := make([]Step, 0)
	firstPointLabel := pointLabel(group.FirstPoint)
	sourceLabel := mainStockLabelConstant
	if group.UsesIntermediate {
		intermediateStep := fmt.Sprintf(makeIntermediateStepTemplateConstant, group.Title)
		steps = append(steps,
			Step{Step: intermediateStep, Action: fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(intermediateStockVolumeLiters)), Source: mainStockLabelConstant, Destination: intermediateStockLabelConstant},
			Step{Step: intermediateStep, Action: fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(intermediateSolventVolumeLiters)), Source: solvent, Destination: intermediateStockLabelConstant},
		)
		sourceLabel = intermediateStockLabelConstant
	}

	prepareStep := fmt.Sprintf(preparePointStepTemplateConstant, group.FirstPoint)
	steps = append(steps,
		Step{Step: prepareStep, Action: fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(group.SourceVolume)), Source: sourceLabel, Destination: firstPointLabel},
		Step{Step: prepareStep, Action: fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(group.SolventVolume)), Source: solvent, Destination: firstPointLabel},
	)
	if !group.IsSeries() {
		return steps
	}

	for point := group.FirstPoint + 1; point <= group.LastPoint(); point++ {
		steps = append(steps, Step{Step: fmt.Sprintf(preparePointStepTemplateConstant, point), Action: fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(group.SeriesSolventVolume)), Source: solvent, Destination: pointLabel(point)})
	}
	for point := group.FirstPoint + 1; point <= group.LastPoint(); point++ {
		steps = append(steps, Step{Step: fmt.Sprintf(dilutePointStepTemplateConstant, point), Action: fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(group.TransferVolume)), Source: pointLabel(point - 1), Destination: pointLabel(point)})
	}
	steps = append(steps, Step{Step: discardStepConstant, Action: fmt.Sprintf(removeActionTemplateConstant, units.FormatMicroliters(group.TransferVolume)), Source: pointLabel(group.LastPoint()), Destination: wasteLabelConstant})
	return steps
}

func groupProtocol(group Group, mainStock float64, finalVolume units.Volume) []string {
	protocolLines := []string{fmt.Sprintf(groupHeadingTemplateConstant, group.Title, group.FirstPoint, group.LastPoint())}
	firstConcentration := units.FormatMolarity(group.Concentrations[0])
	if group.UsesIntermediate {
		protocolLines = append(protocolLines,
			fmt.Sprintf(lowVolumeWarningTemplateConstant, strconv.FormatFloat(group.DirectStockVolume*microlitersPerLiterConstant, 'f', lowVolumePrecisionConstant, 64)),
			fmt.Sprintf(intermediateLineTemplateConstant, units.FormatMolarity(group.IntermediateConcentration)),
			fmt.Sprintf(intermediatePrepareTemplateConstant, group.FirstPoint, firstConcentration, units.FormatMicroliters(group.SourceVolume), units.FormatMicroliters(group.SolventVolume)),
		)
	} else {
		protocolLines = append(protocolLines,
			fmt.Sprintf(directPrepareTemplateConstant, group.FirstPoint, firstConcentration, units.FormatMicroliters(group.SourceVolume), units.FormatMolarity(mainStock), units.FormatMicroliters(group.SolventVolume)),
		)
	}
	if !group.IsSeries() {
		return protocolLines
	}

	transferText := units.FormatMicroliters(group.TransferVolume)
	return append(protocolLines,
		fmt.Sprintf(seriesHeadingTemplateConstant, strconv.FormatFloat(group.Factor, 'f', -1, 64)),
		fmt.Sprintf(seriesPrepareTemplateConstant, len(group.Concentrations)-1, group.FirstPoint+1, group.LastPoint()),
		fmt.Sprintf(seriesSolventTemplateConstant, units.FormatMicroliters(group.SeriesSolventVolume)),
		fmt.Sprintf(seriesTransferTemplateConstant, transferText, group.FirstPoint, group.FirstPoint+1),
		fmt.Sprintf(seriesContinueTemplateConstant, transferText),
		fmt.Sprintf(seriesDiscardTemplateConstant, transferText, finalVolume.String()),
	)
}

func pointLabel(point int) string {
	return fmt.Sprintf(pointLabelTemplateConstant, point)
}

func fallbackString(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}
