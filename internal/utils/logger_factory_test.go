package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/labkit/internal/utils"
)

const (
	testLoggerFactorySubtestTemplateConstant = "%d_%s"
	testLoggerCaseTemplateConstant           = "%s_%s"
	testDebugMessageConstant                 = "calibration_trace"
	testErrorMessageConstant                 = "plate_reader_offline"
)

type capturedLog struct {
	lines [][]byte
}

func (captured capturedLog) contains(message string) bool {
	for _, line := range captured.lines {
		if bytes.Contains(line, []byte(message)) {
			return true
		}
	}
	return false
}

// captureStandardError runs operation while standard error is redirected and returns the emitted lines.
func captureStandardError(testInstance *testing.T, operation func()) capturedLog {
	testInstance.Helper()
	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStandardError := os.Stderr
	os.Stderr = pipeWriter
	func() {
		defer func() { os.Stderr = originalStandardError }()
		operation()
	}()

	require.NoError(testInstance, pipeWriter.Close())
	output, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())

	captured := capturedLog{}
	for _, line := range bytes.Split(bytes.TrimSpace(output), []byte("\n")) {
		if len(line) > 0 {
			captured.lines = append(captured.lines, line)
		}
	}
	return captured
}

func TestLoggerFactoryHonorsLevelAndFormat(testInstance *testing.T) {
	testCases := []struct {
		level            utils.LogLevel
		format           utils.LogFormat
		expectDebugEntry bool
	}{
		{level: utils.LogLevelDebug, format: utils.LogFormatStructured, expectDebugEntry: true},
		{level: utils.LogLevelDebug, format: utils.LogFormatConsole, expectDebugEntry: true},
		{level: utils.LogLevelInfo, format: utils.LogFormatStructured},
		{level: utils.LogLevelInfo, format: utils.LogFormatConsole},
		{level: utils.LogLevelWarn, format: utils.LogFormatStructured},
		{level: utils.LogLevelError, format: utils.LogFormatConsole},
	}

	for testCaseIndex, testCase := range testCases {
		caseName := fmt.Sprintf(testLoggerCaseTemplateConstant, testCase.level, testCase.format)
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, caseName), func(testInstance *testing.T) {
			captured := captureStandardError(testInstance, func() {
				logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.level, testCase.format)
				require.NoError(testInstance, creationError)
				logger.Debug(testDebugMessageConstant)
				logger.Error(testErrorMessageConstant)
				if syncError := logger.Sync(); syncError != nil {
					require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
				}
			})

			require.True(testInstance, captured.contains(testErrorMessageConstant))
			require.Equal(testInstance, testCase.expectDebugEntry, captured.contains(testDebugMessageConstant))
			for _, line := range captured.lines {
				if !bytes.Contains(line, []byte(testErrorMessageConstant)) && !bytes.Contains(line, []byte(testDebugMessageConstant)) {
					continue
				}
				require.Equal(testInstance, testCase.format == utils.LogFormatStructured, json.Valid(line), string(line))
			}
		})
	}
}

func TestLoggerFactoryRejectsUnknownSettings(testInstance *testing.T) {
	testCases := []struct {
		name          string
		level         utils.LogLevel
		format        utils.LogFormat
		expectedError string
	}{
		{name: "level", level: utils.LogLevel("verbose"), format: utils.LogFormatStructured, expectedError: "unsupported log level: verbose"},
		{name: "format", level: utils.LogLevelInfo, format: utils.LogFormat("xml"), expectedError: "unsupported log format: xml"},
		{name: "unnormalized_level", level: utils.LogLevel("DEBUG"), format: utils.LogFormatConsole, expectedError: "unsupported log level: DEBUG"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.level, testCase.format)
			require.EqualError(testInstance, creationError, testCase.expectedError)
			require.Nil(testInstance, logger)
		})
	}
}

func TestNormalizeLoggingSettings(testInstance *testing.T) {
	testCases := []struct {
		name           string
		rawLevel       string
		rawFormat      string
		expectedLevel  utils.LogLevel
		expectedFormat utils.LogFormat
	}{
		{name: "padded_upper_case", rawLevel: "  DEBUG ", rawFormat: " Console ", expectedLevel: utils.LogLevelDebug, expectedFormat: utils.LogFormatConsole},
		{name: "already_normal", rawLevel: "warn", rawFormat: "structured", expectedLevel: utils.LogLevelWarn, expectedFormat: utils.LogFormatStructured},
		{name: "unknown_passes_through", rawLevel: "\tVerbose\n", rawFormat: "XML", expectedLevel: utils.LogLevel("verbose"), expectedFormat: utils.LogFormat("xml")},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedLevel, utils.NormalizeLogLevel(testCase.rawLevel))
			require.Equal(testInstance, testCase.expectedFormat, utils.NormalizeLogFormat(testCase.rawFormat))
		})
	}
}
