package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/temirov/labkit/internal/utils/flags"
)

const (
	formatFlagNameConstant           = "format"
	jsonIndentConstant               = "  "
	lineBreakConstant                = "\n"
	renderTableErrorTemplateConstant = "unable to render table %q: %w"
	writeOutputErrorTemplateConstant = "unable to write report: %w"
	cellPaddingConstant              = 1
)

// Format selects how documents are rendered.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// FormatChoices lists the accepted format names.
func FormatChoices() []string {
	return []string{string(FormatTable), string(FormatCSV), string(FormatJSON)}
}

// ParseFormat resolves a user supplied format, defaulting to the console table.
func ParseFormat(rawFormat string) (Format, error) {
	resolvedFormat, resolveError := flags.ResolveChoice(formatFlagNameConstant, rawFormat, string(FormatTable), FormatChoices())
	if resolveError != nil {
		return "", resolveError
	}
	return Format(resolvedFormat), nil
}

// Renderer writes documents in a single format.
type Renderer struct {
	format      Format
	titleStyle  lipgloss.Style
	headerStyle lipgloss.Style
	cellStyle   lipgloss.Style
}

// NewRenderer constructs a renderer for the format.
func NewRenderer(format Format) Renderer {
	return Renderer{
		format:      format,
		titleStyle:  lipgloss.NewStyle().Bold(true),
		headerStyle: lipgloss.NewStyle().Bold(true).Padding(0, cellPaddingConstant),
		cellStyle:   lipgloss.NewStyle().Padding(0, cellPaddingConstant),
	}
}

// Render writes the document.
func (renderer Renderer) Render(writer io.Writer, document Document) error {
	if len(document.Tables) == 0 {
		return ErrEmptyDocument
	}
	for _, documentTable := range document.Tables {
		if validationError := documentTable.Validate(); validationError != nil {
			return validationError
		}
	}

	var renderError error
	switch renderer.format {
	case FormatCSV:
		renderError = renderer.renderCSV(writer, document)
	case FormatJSON:
		renderError = renderer.renderJSON(writer, document)
	default:
		renderError = renderer.renderConsole(writer, document)
	}
	if renderError != nil {
		return fmt.Errorf(writeOutputErrorTemplateConstant, renderError)
	}
	return nil
}

func (renderer Renderer) renderConsole(writer io.Writer, document Document) error {
	var builder strings.Builder
	if len(document.Title) > 0 {
		builder.WriteString(renderer.titleStyle.Render(document.Title))
		builder.WriteString(lineBreakConstant)
	}
	for _, note := range document.Notes {
		builder.WriteString(note)
		builder.WriteString(lineBreakConstant)
	}
	for _, documentTable := range document.Tables {
		builder.WriteString(lineBreakConstant)
		if len(documentTable.Title) > 0 {
			builder.WriteString(renderer.titleStyle.Render(documentTable.Title))
			builder.WriteString(lineBreakConstant)
		}
		builder.WriteString(renderer.buildConsoleTable(documentTable).String())
		builder.WriteString(lineBreakConstant)
	}
	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}

func (renderer Renderer) buildConsoleTable(documentTable Table) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(documentTable.Columns...).
		Rows(documentTable.Rows...).
		StyleFunc(func(row int, column int) lipgloss.Style {
			if row == table.HeaderRow {
				return renderer.headerStyle
			}
			return renderer.cellStyle
		})
}

func (renderer Renderer) renderCSV(writer io.Writer, document Document) error {
	for tableIndex, documentTable := range document.Tables {
		if tableIndex > 0 {
			if _, writeError := io.WriteString(writer, lineBreakConstant); writeError != nil {
				return writeError
			}
		}
		if csvError := WriteCSV(writer, documentTable); csvError != nil {
			return fmt.Errorf(renderTableErrorTemplateConstant, documentTable.Title, csvError)
		}
	}
	return nil
}

func (renderer Renderer) renderJSON(writer io.Writer, document Document) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndentConstant)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(document)
}

// WriteCSV writes a single table with its header row.
func WriteCSV(writer io.Writer, documentTable Table) error {
	csvWriter := csv.NewWriter(writer)
	if writeError := csvWriter.Write(documentTable.Columns); writeError != nil {
		return writeError
	}
	if writeError := csvWriter.WriteAll(documentTable.Rows); writeError != nil {
		return writeError
	}
	return csvWriter.Error()
}
