package units

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	zeroMolarityConstant          = "0M"
	zeroMassConcentrationConstant = "0g/L"
	significantDigitsConstant     = 4
	microlitersPerLiterConstant   = 1e6
	milligramsPerGramConstant     = 1e3
	microliterSuffixConstant      = " µL"
	milligramSuffixConstant       = " mg"
	twoDecimalTemplateConstant    = "%.2f"
	fourDecimalTemplateConstant   = "%.4f"
	integerTemplateConstant       = "%d"
	quantitySeparatorConstant     = " "
	exponentMarkerConstant        = "e"
	negativeSignConstant          = "-"
	decimalPointConstant          = "."
	groupingThresholdConstant     = 1000
)

type magnitudeStep struct {
	threshold float64
	scale     float64
	suffix    string
}

var molarityLadder = []magnitudeStep{
	{threshold: 1, scale: 1, suffix: "M"},
	{threshold: 1e-3, scale: 1e3, suffix: "mM"},
	{threshold: 1e-6, scale: 1e6, suffix: "uM"},
	{threshold: 1e-9, scale: 1e9, suffix: "nM"},
	{threshold: 0, scale: 1e12, suffix: "pM"},
}

var massConcentrationLadder = []magnitudeStep{
	{threshold: 1, scale: 1, suffix: "g/L"},
	{threshold: 1e-3, scale: 1e3, suffix: "mg/L"},
	{threshold: 1e-6, scale: 1e6, suffix: "ug/L"},
	{threshold: 1e-9, scale: 1e9, suffix: "ng/L"},
	{threshold: 0, scale: 1e12, suffix: "pg/L"},
}

var groupingPrinter = message.NewPrinter(language.English)

// FormatMolarity renders mol/L with the largest prefix that keeps the value at or above one.
func FormatMolarity(molarity float64) string {
	if molarity == 0 {
		return zeroMolarityConstant
	}
	return formatOnLadder(molarity, molarityLadder)
}

// FormatMassConcentration renders g/L with the largest prefix that keeps the value at or above one.
func FormatMassConcentration(gramsPerLiter float64) string {
	if gramsPerLiter == 0 {
		return zeroMassConcentrationConstant
	}
	return formatOnLadder(gramsPerLiter, massConcentrationLadder)
}

// FormatMicroliters renders a volume in liters as microliters with two decimals and thousands separators.
func FormatMicroliters(liters float64) string {
	return groupingPrinter.Sprintf(twoDecimalTemplateConstant, liters*microlitersPerLiterConstant) + microliterSuffixConstant
}

// FormatMilligrams renders a mass in grams as milligrams with four decimals and thousands separators.
func FormatMilligrams(grams float64) string {
	return groupingPrinter.Sprintf(fourDecimalTemplateConstant, grams*milligramsPerGramConstant) + milligramSuffixConstant
}

// FormatFixed renders a value with two decimals and thousands separators.
func FormatFixed(value float64) string {
	return groupingPrinter.Sprintf(twoDecimalTemplateConstant, value)
}

// FormatSignificant renders a value with four significant digits, grouping the integer part when it is not in exponent form.
func FormatSignificant(value float64) string {
	formattedValue := strconv.FormatFloat(value, 'g', significantDigitsConstant, 64)
	if strings.Contains(formattedValue, exponentMarkerConstant) || math.Abs(value) < groupingThresholdConstant {
		return formattedValue
	}

	sign := ""
	unsignedValue := strings.TrimPrefix(formattedValue, negativeSignConstant)
	if len(unsignedValue) != len(formattedValue) {
		sign = negativeSignConstant
	}
	integerPart, fractionalPart, hasFraction := strings.Cut(unsignedValue, decimalPointConstant)
	integerValue, parseError := strconv.ParseInt(integerPart, 10, 64)
	if parseError != nil {
		return formattedValue
	}
	groupedValue := sign + groupingPrinter.Sprintf(integerTemplateConstant, integerValue)
	if hasFraction {
		groupedValue += decimalPointConstant + fractionalPart
	}
	return groupedValue
}

// FormatQuantity renders a value as entered by a user followed by its unit symbol.
func FormatQuantity(value float64, symbol string) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + quantitySeparatorConstant + symbol
}

func formatOnLadder(value float64, ladder []magnitudeStep) string {
	for _, step := range ladder {
		if value >= step.threshold {
			return strconv.FormatFloat(value*step.scale, 'g', significantDigitsConstant, 64) + step.suffix
		}
	}
	lastStep := ladder[len(ladder)-1]
	return strconv.FormatFloat(value*lastStep.scale, 'g', significantDigitsConstant, 64) + lastStep.suffix
}
