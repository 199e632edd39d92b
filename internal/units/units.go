package units

import (
	"errors"
	"fmt"
	"strings"
)

const (
	microSignConstant                  = "µ"
	greekMuConstant                    = "μ"
	asciiMicroPrefixConstant           = "u"
	unknownUnitMessageConstant         = "unknown unit"
	molecularWeightRequiredMessage     = "a molecular weight greater than zero is required to convert mass per volume to molarity"
	notMolarUnitMessageConstant        = "a molar concentration unit is required"
	unknownUnitTemplateConstant        = "%w: %q"
	notMolarUnitTemplateConstant       = "%w: %q is a mass per volume unit"
	molarityConversionTemplateConstant = "unable to convert %s to molarity: %w"
)

// ErrUnknownUnit indicates that a unit symbol is not recognized.
var ErrUnknownUnit = errors.New(unknownUnitMessageConstant)

// ErrMolecularWeightRequired indicates that a mass per volume value cannot be converted without a molecular weight.
var ErrMolecularWeightRequired = errors.New(molecularWeightRequiredMessage)

// ErrNotMolarUnit indicates that a molar unit was required but a mass per volume unit was supplied.
var ErrNotMolarUnit = errors.New(notMolarUnitMessageConstant)

// ConcentrationKind distinguishes molar from mass per volume units.
type ConcentrationKind int

// Supported concentration kinds.
const (
	KindMolar ConcentrationKind = iota + 1
	KindMassPerVolume
)

// ConcentrationUnit describes a concentration unit and its factor to the base unit of its kind.
type ConcentrationUnit struct {
	Symbol string
	Kind   ConcentrationKind
	Factor float64
}

// IsMolar reports whether the unit measures amount of substance per volume.
func (unit ConcentrationUnit) IsMolar() bool {
	return unit.Kind == KindMolar
}

// VolumeUnit describes a volume unit and its factor to liters.
type VolumeUnit struct {
	Symbol string
	Factor float64
}

var molarUnits = []ConcentrationUnit{
	{Symbol: "M", Kind: KindMolar, Factor: 1},
	{Symbol: "mM", Kind: KindMolar, Factor: 1e-3},
	{Symbol: "µM", Kind: KindMolar, Factor: 1e-6},
	{Symbol: "nM", Kind: KindMolar, Factor: 1e-9},
	{Symbol: "pM", Kind: KindMolar, Factor: 1e-12},
}

var massPerVolumeUnits = []ConcentrationUnit{
	{Symbol: "g/L", Kind: KindMassPerVolume, Factor: 1},
	{Symbol: "mg/L", Kind: KindMassPerVolume, Factor: 1e-3},
	{Symbol: "µg/L", Kind: KindMassPerVolume, Factor: 1e-6},
	{Symbol: "g/mL", Kind: KindMassPerVolume, Factor: 1e3},
	{Symbol: "mg/mL", Kind: KindMassPerVolume, Factor: 1},
	{Symbol: "µg/mL", Kind: KindMassPerVolume, Factor: 1e-3},
	{Symbol: "ng/mL", Kind: KindMassPerVolume, Factor: 1e-6},
	{Symbol: "µg/µL", Kind: KindMassPerVolume, Factor: 1},
	{Symbol: "ng/µL", Kind: KindMassPerVolume, Factor: 1e-3},
}

var volumeUnits = []VolumeUnit{
	{Symbol: "L", Factor: 1},
	{Symbol: "mL", Factor: 1e-3},
	{Symbol: "µL", Factor: 1e-6},
}

// MolarUnitSymbols lists molar unit symbols from largest to smallest.
func MolarUnitSymbols() []string {
	return collectConcentrationSymbols(molarUnits)
}

// ConcentrationUnitSymbols lists molar symbols followed by mass per volume symbols.
func ConcentrationUnitSymbols() []string {
	return append(collectConcentrationSymbols(molarUnits), collectConcentrationSymbols(massPerVolumeUnits)...)
}

// VolumeUnitSymbols lists volume unit symbols from largest to smallest.
func VolumeUnitSymbols() []string {
	symbols := make([]string, 0, len(volumeUnits))
	for _, unit := range volumeUnits {
		symbols = append(symbols, unit.Symbol)
	}
	return symbols
}

// ParseConcentrationUnit resolves a molar or mass per volume unit symbol.
func ParseConcentrationUnit(symbol string) (ConcentrationUnit, error) {
	normalizedSymbol := normalizeSymbol(symbol)
	for _, candidateUnits := range [][]ConcentrationUnit{molarUnits, massPerVolumeUnits} {
		for _, unit := range candidateUnits {
			if unit.Symbol == normalizedSymbol {
				return unit, nil
			}
		}
	}
	return ConcentrationUnit{}, fmt.Errorf(unknownUnitTemplateConstant, ErrUnknownUnit, symbol)
}

// ParseMolarUnit resolves a molar unit symbol and rejects mass per volume units.
func ParseMolarUnit(symbol string) (ConcentrationUnit, error) {
	unit, parseError := ParseConcentrationUnit(symbol)
	if parseError != nil {
		return ConcentrationUnit{}, parseError
	}
	if !unit.IsMolar() {
		return ConcentrationUnit{}, fmt.Errorf(notMolarUnitTemplateConstant, ErrNotMolarUnit, unit.Symbol)
	}
	return unit, nil
}

// ParseVolumeUnit resolves a volume unit symbol.
func ParseVolumeUnit(symbol string) (VolumeUnit, error) {
	normalizedSymbol := normalizeSymbol(symbol)
	for _, unit := range volumeUnits {
		if unit.Symbol == normalizedSymbol {
			return unit, nil
		}
	}
	return VolumeUnit{}, fmt.Errorf(unknownUnitTemplateConstant, ErrUnknownUnit, symbol)
}

// Concentration is a value expressed in a concentration unit.
type Concentration struct {
	Value float64
	Unit  ConcentrationUnit
}

// BaseValue returns the value in mol/L for molar units or g/L for mass per volume units.
func (concentration Concentration) BaseValue() float64 {
	return concentration.Value * concentration.Unit.Factor
}

// Molarity returns the concentration in mol/L, dividing mass per volume values by the molecular weight.
func (concentration Concentration) Molarity(molecularWeight float64) (float64, error) {
	if concentration.Unit.IsMolar() {
		return concentration.BaseValue(), nil
	}
	if molecularWeight <= 0 {
		return 0, fmt.Errorf(molarityConversionTemplateConstant, concentration, ErrMolecularWeightRequired)
	}
	return concentration.BaseValue() / molecularWeight, nil
}

// String renders the concentration as entered.
func (concentration Concentration) String() string {
	return FormatQuantity(concentration.Value, concentration.Unit.Symbol)
}

// Volume is a value expressed in a volume unit.
type Volume struct {
	Value float64
	Unit  VolumeUnit
}

// Liters returns the volume in liters.
func (volume Volume) Liters() float64 {
	return volume.Value * volume.Unit.Factor
}

// String renders the volume as entered.
func (volume Volume) String() string {
	return FormatQuantity(volume.Value, volume.Unit.Symbol)
}

// ParseConcentration builds a Concentration from a value and unit symbol.
func ParseConcentration(value float64, symbol string) (Concentration, error) {
	unit, parseError := ParseConcentrationUnit(symbol)
	if parseError != nil {
		return Concentration{}, parseError
	}
	return Concentration{Value: value, Unit: unit}, nil
}

// ParseMolarConcentration builds a molar Concentration from a value and unit symbol.
func ParseMolarConcentration(value float64, symbol string) (Concentration, error) {
	unit, parseError := ParseMolarUnit(symbol)
	if parseError != nil {
		return Concentration{}, parseError
	}
	return Concentration{Value: value, Unit: unit}, nil
}

// ParseVolume builds a Volume from a value and unit symbol.
func ParseVolume(value float64, symbol string) (Volume, error) {
	unit, parseError := ParseVolumeUnit(symbol)
	if parseError != nil {
		return Volume{}, parseError
	}
	return Volume{Value: value, Unit: unit}, nil
}

func normalizeSymbol(symbol string) string {
	trimmedSymbol := strings.TrimSpace(symbol)
	trimmedSymbol = strings.ReplaceAll(trimmedSymbol, greekMuConstant, microSignConstant)
	return strings.ReplaceAll(trimmedSymbol, asciiMicroPrefixConstant, microSignConstant)
}

func collectConcentrationSymbols(concentrationUnits []ConcentrationUnit) []string {
	symbols := make([]string, 0, len(concentrationUnits))
	for _, unit := range concentrationUnits {
		symbols = append(symbols, unit.Symbol)
	}
	return symbols
}
