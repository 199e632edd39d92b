package dilution

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/units"
)

const (
	defaultReagentNameConstant         = "My Reagent"
	defaultStockUnitConstant           = "mM"
	defaultTargetUnitConstant          = "nM"
	defaultVolumeUnitConstant          = "mL"
	twoStepThresholdConstant           = 100
	intermediateFactorConstant         = 100
	intermediateVolumeLitersConstant   = 0.001
	mainStockLabelConstant             = "Main Stock"
	intermediateStockLabelConstant     = "Intermediate Stock"
	stockTubeLabelConstant             = "Stock Tube"
	intermediateTubeLabelConstant      = "Intermediate Tube"
	finalTubeLabelConstant             = "Final Tube"
	prepareStockTaskConstant           = "Prepare Stock"
	makeIntermediateTaskConstant       = "Make Intermediate Stock"
	makeFinalTaskConstant              = "Make Final Solution"
	finalDilutionTaskConstant          = "Final Dilution"
	weighActionTemplateConstant        = "Weigh %s"
	addActionTemplateConstant          = "Add %s"
	transferActionTemplateConstant     = "Transfer %s"
	dilutionFactorNoteTemplate         = "Total Dilution Factor Needed: %s-fold"
	twoStepWarningConstant             = "Large dilution factor detected. A two-step protocol is recommended for accuracy."
	solidIntroTemplateConstant         = "To create your %s stock:"
	solidWeighTemplateConstant         = "1. Weigh out %s of %s."
	solidDissolveTemplateConstant      = "2. Dissolve in %s of %s."
	intermediateHeadingConstant        = "Step 1: Prepare a 1:100 Intermediate Stock"
	intermediateTakeTemplateConstant   = "1. Take %s of your main stock."
	intermediateAddTemplateConstant    = "2. Add to %s of %s."
	intermediateResultConstant         = "This creates 1mL of a 1:100 intermediate stock."
	finalHeadingConstant               = "Step 2: Prepare Final Solution"
	finalTakeTemplateConstant          = "1. Take %s of your intermediate stock."
	finalAddTemplateConstant           = "2. Add to %s of %s."
	finalResultTemplateConstant        = "This gives %s at %s."
	directTakeTemplateConstant         = "1. Take %s of your %s %s stock."
	directAddTemplateConstant          = "2. Add to %s of %s."
	directResultTemplateConstant       = "3. This gives %s at %s."
	documentTitleConstant              = "Dilution Master"
	protocolTableTitleConstant         = "Protocol"
	exportNameTemplateConstant         = "dilution_calculation_%s.csv"
	taskColumnConstant                 = "Task"
	actionColumnConstant               = "Action"
	sourceColumnConstant               = "Source"
	destinationColumnConstant          = "Destination"
	targetNotBelowStockMessage         = "target concentration must be lower than stock concentration"
	nonPositiveInputMessageConstant    = "concentrations and volume must be > 0"
	solidNonPositiveTemplateConstant   = "MW, stock concentration, and volume must be > 0: %w"
	invalidStockFormTemplateConstant   = "unsupported stock form %q (expected liquid or solid)"
	stockConcentrationTemplateConstant = "invalid stock concentration: %w"
	targetConcentrationTemplate        = "invalid target concentration: %w"
	finalVolumeTemplateConstant        = "invalid final volume: %w"
	stockVolumeTemplateConstant        = "invalid stock volume: %w"
	solidStockUnitTemplateConstant     = "solid stocks need a molar stock unit: %w"
	gramsPerMilligramConstant          = 1e-3
)

// StockForm distinguishes liquid stocks from solids that must be weighed.
type StockForm string

// Supported stock forms.
const (
	StockFormLiquid StockForm = "liquid"
	StockFormSolid  StockForm = "solid"
)

// ErrTargetNotBelowStock indicates that the target concentration is not lower than the stock.
var ErrTargetNotBelowStock = errors.New(targetNotBelowStockMessage)

// ErrNonPositiveInput indicates that a concentration or volume is zero or negative.
var ErrNonPositiveInput = errors.New(nonPositiveInputMessageConstant)

// ErrInvalidStockForm indicates an unknown stock form.
var ErrInvalidStockForm = errors.New("invalid stock form")

// Request describes a dilution to plan.
type Request struct {
	ReagentName         string    `json:"reagent_name" mapstructure:"reagent_name"`
	StockForm           StockForm `json:"stock_form" mapstructure:"stock_form"`
	Solvent             string    `json:"solvent" mapstructure:"solvent"`
	StockConcentration  float64   `json:"stock_concentration" mapstructure:"stock_concentration"`
	StockUnit           string    `json:"stock_unit" mapstructure:"stock_unit"`
	MolecularWeight     float64   `json:"molecular_weight" mapstructure:"molecular_weight"`
	TargetConcentration float64   `json:"target_concentration" mapstructure:"target_concentration"`
	TargetUnit          string    `json:"target_unit" mapstructure:"target_unit"`
	FinalVolume         float64   `json:"final_volume" mapstructure:"final_volume"`
	FinalVolumeUnit     string    `json:"final_volume_unit" mapstructure:"final_volume_unit"`
	StockVolume         float64   `json:"stock_volume,omitempty" mapstructure:"stock_volume"`
	StockVolumeUnit     string    `json:"stock_volume_unit,omitempty" mapstructure:"stock_volume_unit"`
}

// WithDefaults fills empty names and units.
func (request Request) WithDefaults() Request {
	normalized := request
	normalized.ReagentName = strings.TrimSpace(request.ReagentName)
	if len(normalized.ReagentName) == 0 {
		normalized.ReagentName = defaultReagentNameConstant
	}
	normalized.StockForm = StockForm(strings.ToLower(strings.TrimSpace(string(request.StockForm))))
	if len(normalized.StockForm) == 0 {
		normalized.StockForm = StockFormLiquid
	}
	normalized.Solvent = strings.TrimSpace(request.Solvent)
	if len(normalized.Solvent) == 0 {
		normalized.Solvent = units.DefaultSolvent
	}
	normalized.StockUnit = defaultString(request.StockUnit, defaultStockUnitConstant)
	normalized.TargetUnit = defaultString(request.TargetUnit, defaultTargetUnitConstant)
	normalized.FinalVolumeUnit = defaultString(request.FinalVolumeUnit, defaultVolumeUnitConstant)
	normalized.StockVolumeUnit = defaultString(request.StockVolumeUnit, defaultVolumeUnitConstant)
	return normalized
}

// ExportName returns the conventional file name of the protocol table.
func (request Request) ExportName() string {
	return fmt.Sprintf(exportNameTemplateConstant, request.WithDefaults().ReagentName)
}

// Step is one row of the protocol table.
type Step struct {
	Task        string `json:"task"`
	Action      string `json:"action"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Result is a planned dilution.
type Result struct {
	Request        Request
	DilutionFactor float64
	TwoStep        bool
	MassMilligrams float64
	Steps          []Step
	Protocol       []string
}

// Document renders the protocol table with the dilution factor and the protocol text as notes.
func (result Result) Document() report.Document {
	notes := []string{fmt.Sprintf(dilutionFactorNoteTemplate, units.FormatFixed(result.DilutionFactor))}
	if result.TwoStep {
		notes = append(notes, twoStepWarningConstant)
	}
	notes = append(notes, result.Protocol...)

	protocolTable := report.NewTable(result.Request.ExportName(), protocolTableTitleConstant, taskColumnConstant, actionColumnConstant, sourceColumnConstant, destinationColumnConstant)
	for _, step := range result.Steps {
		protocolTable.AppendRow(step.Task, step.Action, step.Source, step.Destination)
	}
	return report.Document{Title: documentTitleConstant, Notes: notes, Tables: []report.Table{protocolTable}}
}

// Calculate plans the dilution described by the request.
func Calculate(rawRequest Request) (Result, error) {
	request := rawRequest.WithDefaults()
	result := Result{Request: request}

	var stockMolarity float64
	switch request.StockForm {
	case StockFormLiquid:
		stockConcentration, stockError := units.ParseConcentration(request.StockConcentration, request.StockUnit)
		if stockError != nil {
			return Result{}, fmt.Errorf(stockConcentrationTemplateConstant, stockError)
		}
		molarity, molarityError := stockConcentration.Molarity(request.MolecularWeight)
		if molarityError != nil {
			return Result{}, fmt.Errorf(stockConcentrationTemplateConstant, molarityError)
		}
		stockMolarity = molarity
	case StockFormSolid:
		stockConcentration, stockError := units.ParseMolarConcentration(request.StockConcentration, request.StockUnit)
		if stockError != nil {
			return Result{}, fmt.Errorf(solidStockUnitTemplateConstant, stockError)
		}
		stockVolume, volumeError := units.ParseVolume(request.StockVolume, request.StockVolumeUnit)
		if volumeError != nil {
			return Result{}, fmt.Errorf(stockVolumeTemplateConstant, volumeError)
		}
		stockMolarity = stockConcentration.BaseValue()
		if request.MolecularWeight <= 0 || stockMolarity <= 0 || stockVolume.Liters() <= 0 {
			return Result{}, fmt.Errorf(solidNonPositiveTemplateConstant, ErrNonPositiveInput)
		}
		massGrams := stockMolarity * stockVolume.Liters() * request.MolecularWeight
		result.MassMilligrams = massGrams / gramsPerMilligramConstant
		result.Steps = append(result.Steps,
			Step{Task: prepareStockTaskConstant, Action: fmt.Sprintf(weighActionTemplateConstant, units.FormatMilligrams(massGrams)), Source: request.ReagentName, Destination: stockTubeLabelConstant},
			Step{Task: prepareStockTaskConstant, Action: fmt.Sprintf(addActionTemplateConstant, stockVolume.String()), Source: request.Solvent, Destination: stockTubeLabelConstant},
		)
		result.Protocol = append(result.Protocol,
			fmt.Sprintf(solidIntroTemplateConstant, stockConcentration.String()),
			fmt.Sprintf(solidWeighTemplateConstant, units.FormatMilligrams(massGrams), request.ReagentName),
			fmt.Sprintf(solidDissolveTemplateConstant, stockVolume.String(), request.Solvent),
		)
	default:
		return Result{}, fmt.Errorf("%w: "+invalidStockFormTemplateConstant, ErrInvalidStockForm, request.StockForm)
	}

	targetConcentration, targetError := units.ParseMolarConcentration(request.TargetConcentration, request.TargetUnit)
	if targetError != nil {
		return Result{}, fmt.Errorf(targetConcentrationTemplate, targetError)
	}
	finalVolume, finalVolumeError := units.ParseVolume(request.FinalVolume, request.FinalVolumeUnit)
	if finalVolumeError != nil {
		return Result{}, fmt.Errorf(finalVolumeTemplateConstant, finalVolumeError)
	}

	targetMolarity := targetConcentration.BaseValue()
	finalVolumeLiters := finalVolume.Liters()
	if stockMolarity <= targetMolarity {
		return Result{}, ErrTargetNotBelowStock
	}
	if stockMolarity <= 0 || targetMolarity <= 0 || finalVolumeLiters <= 0 {
		return Result{}, ErrNonPositiveInput
	}

	result.DilutionFactor = stockMolarity / targetMolarity
	if result.DilutionFactor > twoStepThresholdConstant {
		result.TwoStep = true
		appendTwoStepProtocol(&result, finalVolume, targetConcentration)
		return result, nil
	}

	appendDirectProtocol(&result, stockMolarity, finalVolume, targetConcentration)
	return result, nil
}

func appendTwoStepProtocol(result *Result, finalVolume units.Volume, targetConcentration units.Concentration) {
	request := result.Request
	stockForIntermediate := intermediateVolumeLitersConstant / intermediateFactorConstant
	diluentForIntermediate := intermediateVolumeLitersConstant - stockForIntermediate
	finalFactor := result.DilutionFactor / intermediateFactorConstant
	stockForFinal := finalVolume.Liters() / finalFactor
	diluentForFinal := finalVolume.Liters() - stockForFinal

	result.Steps = append(result.Steps,
		Step{Task: makeIntermediateTaskConstant, Action: fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(stockForIntermediate)), Source: mainStockLabelConstant, Destination: intermediateTubeLabelConstant},
		Step{Task: makeIntermediateTaskConstant, Action: fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(diluentForIntermediate)), Source: request.Solvent, Destination: intermediateTubeLabelConstant},
		Step{Task: makeFinalTaskConstant, Action: fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(stockForFinal)), Source: intermediateStockLabelConstant, Destination: finalTubeLabelConstant},
		Step{Task: makeFinalTaskConstant, Action: fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(diluentForFinal)), Source: request.Solvent, Destination: finalTubeLabelConstant},
	)
	result.Protocol = append(result.Protocol,
		intermediateHeadingConstant,
		fmt.Sprintf(intermediateTakeTemplateConstant, units.FormatMicroliters(stockForIntermediate)),
		fmt.Sprintf(intermediateAddTemplateConstant, units.FormatMicroliters(diluentForIntermediate), request.Solvent),
		intermediateResultConstant,
		finalHeadingConstant,
		fmt.Sprintf(finalTakeTemplateConstant, units.FormatMicroliters(stockForFinal)),
		fmt.Sprintf(finalAddTemplateConstant, units.FormatMicroliters(diluentForFinal), request.Solvent),
		fmt.Sprintf(finalResultTemplateConstant, finalVolume.String(), targetConcentration.String()),
	)
}

func appendDirectProtocol(result *Result, stockMolarity float64, finalVolume units.Volume, targetConcentration units.Concentration) {
	request := result.Request
	stockVolume := targetConcentration.BaseValue() * finalVolume.Liters() / stockMolarity
	diluentVolume := finalVolume.Liters() - stockVolume
	stockLabel := units.FormatQuantity(request.StockConcentration, request.StockUnit)

	result.Steps = append(result.Steps,
		Step{Task: finalDilutionTaskConstant, Action: fmt.Sprintf(transferActionTemplateConstant, units.FormatMicroliters(stockVolume)), Source: mainStockLabelConstant, Destination: finalTubeLabelConstant},
		Step{Task: finalDilutionTaskConstant, Action: fmt.Sprintf(addActionTemplateConstant, units.FormatMicroliters(diluentVolume)), Source: request.Solvent, Destination: finalTubeLabelConstant},
	)
	result.Protocol = append(result.Protocol,
		fmt.Sprintf(directTakeTemplateConstant, units.FormatMicroliters(stockVolume), stockLabel, request.ReagentName),
		fmt.Sprintf(directAddTemplateConstant, units.FormatMicroliters(diluentVolume), request.Solvent),
		fmt.Sprintf(directResultTemplateConstant, finalVolume.String(), targetConcentration.String()),
	)
}

func defaultString(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}
