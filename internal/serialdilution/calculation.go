package serialdilution

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/units"
)

const (
	defaultReagentNameConstant           = "My Reagent"
	defaultStockUnitConstant             = "mM"
	defaultVolumeUnitConstant            = "µL"
	minimumDilutionCountConstant         = 1
	maximumDilutionCountConstant         = 20
	mainStockLabelConstant               = "Main Stock"
	tubeLabelTemplateConstant            = "Tube %d"
	prepareTubeStepTemplateConstant      = "Prepare Tube %d"
	startSeriesStepConstant              = "Start Series"
	diluteStepTemplateConstant           = "Dilute %d"
	addActionTemplateConstant            = "Add %s"
	transferActionTemplateConstant       = "Transfer %s"
	totalsNoteTemplateConstant           = "Total Stock Needed: %s | Total Solvent Needed: %s"
	finalVolumeLineTemplateConstant      = "This protocol ensures every tube has %s %s at the end."
	prepareTubesLineTemplateConstant     = "Prepare %d tubes."
	intermediateTubesLineTemplate        = "For Tubes 1 to %d: Add %s of %s to each."
	lastTubeLineTemplateConstant         = "For the last tube (%d): Add %s of %s."
	firstTubeLineTemplateConstant        = "Tube 1: Add %s of your %s stock solution. Mix well."
	transferLineTemplateConstant         = "Transfer: Take %s from Tube 1 and add it to Tube 2. Mix well."
	repeatTransferLineTemplateConstant   = "Repeat Transfer: Continue transferring %s from the previous tube to the next, until you have added to Tube %d."
	discardLineTemplateConstant          = "Discard the final %s from Tube %d to maintain the final volume."
	numberedLineTemplateConstant         = "%d. %s"
	documentTitleConstant                = "Serial Dilution Planner"
	protocolTableTitleConstant           = "Action Summary Table"
	summaryTableTitleConstant            = "Concentration Summary"
	protocolExportTemplateConstant       = "serial_dilution_protocol_%s.csv"
	summaryExportTemplateConstant        = "serial_dilution_%s.csv"
	stepColumnConstant                   = "Step"
	actionColumnConstant                 = "Action"
	sourceColumnConstant                 = "Source"
	destinationColumnConstant            = "Destination"
	tubeColumnConstant                   = "Tube #"
	rawConcentrationColumnConstant       = "Final Concentration (Raw)"
	formattedConcentrationColumnConstant = "Final Concentration (Formatted)"
	invalidFactorMessageConstant         = "dilution factor must be greater than 1"
	invalidCountTemplateConstant         = "number of dilutions must be between %d and %d, got %d"
	nonPositiveInputMessageConstant      = "stock concentration and final volume must be > 0"
	stockConcentrationTemplateConstant   = "invalid stock concentration: %w"
	finalVolumeTemplateConstant          = "invalid final volume: %w"
	quantitySeparatorConstant            = " "
)

// ErrInvalidFactor indicates a dilution factor that is not greater than one.
var ErrInvalidFactor = errors.New(invalidFactorMessageConstant)

// ErrInvalidDilutionCount indicates a series length outside the supported range.
var ErrInvalidDilutionCount = errors.New("invalid number of dilutions")

// ErrNonPositiveInput indicates a zero or negative stock or volume.
var ErrNonPositiveInput = errors.New(nonPositiveInputMessageConstant)

// Request describes a serial dilution series.
type Request struct {
	ReagentName        string  `json:"reagent_name" mapstructure:"reagent_name"`
	StockConcentration float64 `json:"stock_concentration" mapstructure:"stock_concentration"`
	StockUnit          string  `json:"stock_unit" mapstructure:"stock_unit"`
	DilutionCount      int     `json:"dilutions" mapstructure:"dilutions"`
	Factor             float64 `json:"factor" mapstructure:"factor"`
	FinalVolume        float64 `json:"final_volume" mapstructure:"final_volume"`
	FinalVolumeUnit    string  `json:"final_volume_unit" mapstructure:"final_volume_unit"`
	MolecularWeight    float64 `json:"molecular_weight,omitempty" mapstructure:"molecular_weight"`
	Solvent            string  `json:"solvent" mapstructure:"solvent"`
}

// WithDefaults fills empty names and units.
func (request Request) WithDefaults() Request {
	normalized := request
	normalized.ReagentName = fallbackString(request.ReagentName, defaultReagentNameConstant)
	normalized.StockUnit = fallbackString(request.StockUnit, defaultStockUnitConstant)
	normalized.FinalVolumeUnit = fallbackString(request.FinalVolumeUnit, defaultVolumeUnitConstant)
	normalized.Solvent = fallbackString(request.Solvent, units.DefaultSolvent)
	return normalized
}

// ProtocolExportName returns the conventional file name of the protocol table.
func (request Request) ProtocolExportName() string {
	return fmt.Sprintf(protocolExportTemplateConstant, request.WithDefaults().ReagentName)
}

// SummaryExportName returns the conventional file name of the concentration summary.
func (request Request) SummaryExportName() string {
	return fmt.Sprintf(summaryExportTemplateConstant, request.WithDefaults().ReagentName)
}

// Step is one row of the protocol table.
type Step struct {
	Step        string `json:"step"`
	Action      string `json:"action"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// TubeConcentration is the final concentration of one tube.
type TubeConcentration struct {
	Tube      int    `json:"tube"`
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

// Result is a planned series. Volumes are in liters.
type Result struct {
	Request                Request
	TransferVolume         float64
	IntermediateVolume     float64
	StockForFirstTube      float64
	DiluentForIntermediate float64
	DiluentForLastTube     float64
	TotalDiluent           float64
	Steps                  []Step
	Concentrations         []TubeConcentration
	Protocol               []string
}

// Document renders the protocol table followed by the concentration summary.
func (result Result) Document() report.Document {
	notes := []string{fmt.Sprintf(totalsNoteTemplateConstant, units.FormatMicroliters(result.StockForFirstTube), units.FormatMicroliters(result.TotalDiluent))}
	notes = append(notes, result.Protocol...)

	protocolTable := report.NewTable(result.Request.ProtocolExportName(), protocolTableTitleConstant, stepColumnConstant, actionColumnConstant, sourceColumnConstant, destinationColumnConstant)
	for _, step := range result.Steps {
		protocolTable.AppendRow(step.Step, step.Action, step.Source, step.Destination)
	}
	summaryTable := report.NewTable(result.Request.SummaryExportName(), summaryTableTitleConstant, tubeColumnConstant, rawConcentrationColumnConstant, formattedConcentrationColumnConstant)
	for _, concentration := range result.Concentrations {
		summaryTable.AppendRow(strconv.Itoa(concentration.Tube), concentration.Raw, concentration.Formatted)
	}
	return report.Document{Title: documentTitleConstant, Notes: notes, Tables: []report.Table{protocolTable, summaryTable}}
}

// Calculate plans the series so that every tube ends with the same final volume.
func Calculate(rawRequest Request) (Result, error) {
	request := rawRequest.WithDefaults()
	if request.Factor <= 1 {
		return Result{}, ErrInvalidFactor
	}
	if request.DilutionCount < minimumDilutionCountConstant || request.DilutionCount > maximumDilutionCountConstant {
		return Result{}, fmt.Errorf("%w: "+invalidCountTemplateConstant, ErrInvalidDilutionCount, minimumDilutionCountConstant, maximumDilutionCountConstant, request.DilutionCount)
	}
	stockConcentration, stockError := units.ParseConcentration(request.StockConcentration, request.StockUnit)
	if stockError != nil {
		return Result{}, fmt.Errorf(stockConcentrationTemplateConstant, stockError)
	}
	finalVolume, volumeError := units.ParseVolume(request.FinalVolume, request.FinalVolumeUnit)
	if volumeError != nil {
		return Result{}, fmt.Errorf(finalVolumeTemplateConstant, volumeError)
	}
	if stockConcentration.Value <= 0 || finalVolume.Liters() <= 0 {
		return Result{}, ErrNonPositiveInput
	}

	finalVolumeLiters := finalVolume.Liters()
	result := Result{Request: request}
	result.TransferVolume = finalVolumeLiters / (request.Factor - 1)
	result.IntermediateVolume = finalVolumeLiters + result.TransferVolume
	result.StockForFirstTube = result.IntermediateVolume / request.Factor
	result.DiluentForIntermediate = result.IntermediateVolume - result.StockForFirstTube
	result.DiluentForLastTube = finalVolumeLiters - finalVolumeLiters/request.Factor
	result.TotalDiluent = result.DiluentForIntermediate*float64(request.DilutionCount-1) + result.DiluentForLastTube

	result.Steps = buildSteps(result)
	result.Protocol = buildProtocol(result, finalVolume)
	result.Concentrations = buildConcentrations(request, stockConcentration)
	return result, nil
}

func buildSteps(result Result) []Step {
	request := result.Request
	dilutionCount := request.DilutionCount
	steps := make([]Step, 0, 2*dilutionCount+1)
	for tubeNumber := 1; tubeNumber < dilutionCount; tubeNumber++ {
		steps = append(steps, Step{
			Step:        fmt.Sprintf(prepareTubeStepTemplateConstant, tubeNumber),
			Action:      fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(result.DiluentForIntermediate)),
			Source:      request.Solvent,
			Destination: tubeLabel(tubeNumber),
		})
	}
	steps = append(steps,
		Step{
			Step:        fmt.Sprintf(prepareTubeStepTemplateConstant, dilutionCount),
			Action:      fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(result.DiluentForLastTube)),
			Source:      request.Solvent,
			Destination: tubeLabel(dilutionCount),
		},
		Step{
			Step:        startSeriesStepConstant,
			Action:      fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(result.StockForFirstTube)),
			Source:      mainStockLabelConstant,
			Destination: tubeLabel(1),
		},
	)
	for tubeNumber := 1; tubeNumber < dilutionCount; tubeNumber++ {
		steps = append(steps, Step{
			Step:        fmt.Sprintf(diluteStepTemplateConstant, tubeNumber+1),
			Action:      fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(result.TransferVolume)),
			Source:      tubeLabel(tubeNumber),
			Destination: tubeLabel(tubeNumber + 1),
		})
	}
	return steps
}

func buildProtocol(result Result, finalVolume units.Volume) []string {
	request := result.Request
	dilutionCount := request.DilutionCount
	transferText := units.FormatMicroliters(result.TransferVolume)

	protocolLines := []string{fmt.Sprintf(finalVolumeLineTemplateConstant, units.FormatFixed(finalVolume.Value), finalVolume.Unit.Symbol)}
	instructions := []string{fmt.Sprintf(prepareTubesLineTemplateConstant, dilutionCount)}
	if dilutionCount > 1 {
		instructions = append(instructions, fmt.Sprintf(intermediateTubesLineTemplate, dilutionCount-1, units.FormatMicroliters(result.DiluentForIntermediate), request.Solvent))
	}
	instructions = append(instructions,
		fmt.Sprintf(lastTubeLineTemplateConstant, dilutionCount, units.FormatMicroliters(result.DiluentForLastTube), request.Solvent),
		fmt.Sprintf(firstTubeLineTemplateConstant, units.FormatMicroliters(result.StockForFirstTube), request.ReagentName),
	)
	if dilutionCount > 1 {
		instructions = append(instructions,
			fmt.Sprintf(transferLineTemplateConstant, transferText),
			fmt.Sprintf(repeatTransferLineTemplateConstant, transferText, dilutionCount),
		)
	}
	instructions = append(instructions, fmt.Sprintf(discardLineTemplateConstant, transferText, dilutionCount))

	for instructionIndex, instruction := range instructions {
		protocolLines = append(protocolLines, fmt.Sprintf(numberedLineTemplateConstant, instructionIndex+1, instruction))
	}
	return protocolLines
}

func buildConcentrations(request Request, stockConcentration units.Concentration) []TubeConcentration {
	concentrations := make([]TubeConcentration, 0, request.DilutionCount)
	for tubeNumber := 1; tubeNumber <= request.DilutionCount; tubeNumber++ {
		divisor := math.Pow(request.Factor, float64(tubeNumber))
		rawValue := stockConcentration.Value / divisor
		baseValue := stockConcentration.BaseValue() / divisor
		concentrations = append(concentrations, TubeConcentration{
			Tube:      tubeNumber,
			Raw:       units.FormatSignificant(rawValue) + quantitySeparatorConstant + stockConcentration.Unit.Symbol,
			Formatted: formatConcentration(stockConcentration.Unit, baseValue, request.MolecularWeight),
		})
	}
	return concentrations
}

func formatConcentration(unit units.ConcentrationUnit, baseValue float64, molecularWeight float64) string {
	if unit.IsMolar() {
		return units.FormatMolarity(baseValue)
	}
	if molecularWeight > 0 {
		return units.FormatMolarity(baseValue / molecularWeight)
	}
	return units.FormatMassConcentration(baseValue)
}

func tubeLabel(tubeNumber int) string {
	return fmt.Sprintf(tubeLabelTemplateConstant, tubeNumber)
}

func fallbackString(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}
