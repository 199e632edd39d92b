package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	standardOutputDestinationConstant = "-"
	destinationDirectoryPermissions   = 0o755
	destinationFilePermissions        = 0o644
	createDestinationTemplateConstant = "unable to create output file %s: %w"
	closeDestinationTemplateConstant  = "unable to finalize output file %s: %w"
)

// WriteDestination renders into the file at destinationPath, or into fallback when the path is empty or "-".
func WriteDestination(destinationPath string, fallback io.Writer, render func(io.Writer) error) error {
	trimmedPath := strings.TrimSpace(destinationPath)
	if len(trimmedPath) == 0 || trimmedPath == standardOutputDestinationConstant {
		return render(fallback)
	}

	if directoryError := os.MkdirAll(filepath.Dir(trimmedPath), destinationDirectoryPermissions); directoryError != nil {
		return fmt.Errorf(createDestinationTemplateConstant, trimmedPath, directoryError)
	}
	destinationFile, createError := os.OpenFile(trimmedPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, destinationFilePermissions)
	if createError != nil {
		return fmt.Errorf(createDestinationTemplateConstant, trimmedPath, createError)
	}

	bufferedWriter := bufio.NewWriter(destinationFile)
	renderError := render(bufferedWriter)
	flushError := bufferedWriter.Flush()
	closeError := destinationFile.Close()
	if renderError != nil {
		return renderError
	}
	if flushError != nil {
		return fmt.Errorf(closeDestinationTemplateConstant, trimmedPath, flushError)
	}
	if closeError != nil {
		return fmt.Errorf(closeDestinationTemplateConstant, trimmedPath, closeError)
	}
	return nil
}

// DescribeDestination names where a rendering goes for plan output.
func DescribeDestination(destinationPath string) string {
	trimmedPath := strings.TrimSpace(destinationPath)
	if len(trimmedPath) == 0 || trimmedPath == standardOutputDestinationConstant {
		return "stdout"
	}
	return trimmedPath
}
