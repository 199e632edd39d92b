package flags

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "json",
			choices:        []string{"json", "sqlite"},
			description:    "Write the reagent store as JSON or sqlite.",
			expectedOutput: "`<JSON|sqlite>` Write the reagent store as JSON or sqlite.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "csv",
			choices:        []string{"table", "csv"},
			description:    "Select the report format.",
			expectedOutput: "`<table|CSV>` Select the report format.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "alpha",
			choices:        []string{"alpha", "beta"},
			description:    "",
			expectedOutput: "`<ALPHA|beta>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "beta",
			choices:        []string{"beta", "beta", "alpha", "alpha"},
			description:    "Select between options.",
			expectedOutput: "`<BETA|alpha>` Select between options.",
		},
		{
			name:           "WhitespaceTrimmed",
			defaultChoice:  "primary",
			choices:        []string{" primary ", " secondary "},
			description:    "Pick a stock.",
			expectedOutput: "`<PRIMARY|secondary>` Pick a stock.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}

func TestResolveChoice(t *testing.T) {
	choices := []string{"table", "csv", "json"}
	testCases := []struct {
		name           string
		value          string
		expectedChoice string
		expectError    bool
	}{
		{name: "EmptyUsesDefault", value: "", expectedChoice: "table"},
		{name: "CaseInsensitive", value: " CSV ", expectedChoice: "csv"},
		{name: "Unknown", value: "xml", expectError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resolved, resolveError := ResolveChoice("format", testCase.value, "table", choices)
			if testCase.expectError {
				require.True(t, errors.Is(resolveError, ErrInvalidChoice))
				require.Equal(t, `invalid value "xml" for --format (expected one of table|csv|json)`, resolveError.Error())
				return
			}
			require.NoError(t, resolveError)
			require.Equal(t, testCase.expectedChoice, resolved)
		})
	}
}
