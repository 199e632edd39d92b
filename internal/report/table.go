package report

import (
	"errors"
	"fmt"
)

const (
	rowWidthMismatchTemplateConstant = "row %d of table %q has %d cells, expected %d"
	emptyDocumentMessageConstant     = "document has no tables"
)

// ErrEmptyDocument indicates that a document without tables was rendered.
var ErrEmptyDocument = errors.New(emptyDocumentMessageConstant)

// Table is a titled grid of string cells.
type Table struct {
	Name    string     `json:"name"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable constructs an empty table.
func NewTable(name string, title string, columns ...string) Table {
	return Table{Name: name, Title: title, Columns: columns, Rows: [][]string{}}
}

// AppendRow adds a row of cells.
func (table *Table) AppendRow(cells ...string) {
	table.Rows = append(table.Rows, cells)
}

// Records returns the rows as column keyed maps.
func (table Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make(map[string]string, len(table.Columns))
		for columnIndex, column := range table.Columns {
			if columnIndex < len(row) {
				record[column] = row[columnIndex]
			}
		}
		records = append(records, record)
	}
	return records
}

// Validate ensures every row matches the column count.
func (table Table) Validate() error {
	for rowIndex, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf(rowWidthMismatchTemplateConstant, rowIndex+1, table.Title, len(row), len(table.Columns))
		}
	}
	return nil
}

// Document groups protocol notes with result tables.
type Document struct {
	Title  string   `json:"title"`
	Notes  []string `json:"notes,omitempty"`
	Tables []Table  `json:"tables"`
}

// Primary returns the first table, which is the one offered for download.
func (document Document) Primary() (Table, error) {
	if len(document.Tables) == 0 {
		return Table{}, ErrEmptyDocument
	}
	return document.Tables[0], nil
}

// TableNamed returns the table with the given export name.
func (document Document) TableNamed(name string) (Table, bool) {
	for _, table := range document.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}
