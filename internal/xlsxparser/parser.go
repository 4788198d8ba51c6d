// =============================================================================
// Avisos Generator - XLSX Parser Module
// =============================================================================
//
// This module reads operation exports saved as Excel workbooks.
//
// SHEET STRUCTURE:
//   Row 1..HeaderRows     : column headers (multi-row headers are joined)
//   Row DataStartRow..end : one operation per row
//
// Cells are read as raw values: dates arrive as spreadsheet serial numbers
// ("45352") and amounts without display formatting ("1500.5"). The
// sanitizers understand both.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/avisos/internal/types"
)

// =============================================================================
// SHEET DATA STRUCTURE
// =============================================================================

// SheetData represents the parsed worksheet.
type SheetData struct {
	Headers []string

	// Rows contains the non-empty data rows keyed by header.
	Rows []types.SourceRow

	SourceFile string
	SheetName  string

	RowCount    int
	ColumnCount int
}

// Options selects the worksheet and its layout.
type Options struct {
	// SheetName is the worksheet to read. Empty means the first sheet.
	SheetName string

	// HeaderRows is the number of header rows. Default: 1
	HeaderRows int

	// DataStartRow is the 1-based first data row. Default: HeaderRows + 1
	DataStartRow int
}

func (o Options) withDefaults() Options {
	if o.HeaderRows <= 0 {
		o.HeaderRows = 1
	}
	if o.DataStartRow <= o.HeaderRows {
		o.DataStartRow = o.HeaderRows + 1
	}
	return o
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a workbook from disk.
func Parse(filePath string, opts Options) (*SheetData, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, filePath, opts)
}

// ParseReader reads a workbook from r.
func ParseReader(r io.Reader, source string, opts Options) (*SheetData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, source, opts)
}

func parseFile(f *excelize.File, source string, opts Options) (*SheetData, error) {
	opts = opts.withDefaults()

	sheetName, err := resolveSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	// Stream rows instead of loading the sheet with GetRows; exports can be
	// large.
	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close()

	data := &SheetData{SourceFile: source, SheetName: sheetName}
	var headerRows [][]string
	rowNumber := 0

	for rows.Next() {
		rowNumber++
		row, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", rowNumber, err)
		}

		if rowNumber <= opts.HeaderRows {
			headerRows = append(headerRows, row)
			if rowNumber == opts.HeaderRows {
				data.Headers = mergeHeaders(headerRows)
			}
			continue
		}
		if rowNumber < opts.DataStartRow || isRowEmpty(row) {
			continue
		}

		values := make(map[string]string, len(data.Headers))
		for i, header := range data.Headers {
			if i < len(row) {
				values[header] = strings.TrimSpace(row[i])
			} else {
				values[header] = ""
			}
		}
		data.Rows = append(data.Rows, types.SourceRow{Number: rowNumber, Values: values})
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheetName)
	}

	data.RowCount = len(data.Rows)
	data.ColumnCount = len(data.Headers)
	return data, nil
}

// resolveSheet returns name if the workbook has it, or the first sheet when
// name is empty.
func resolveSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if strings.EqualFold(s, name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (available: %s)", name, strings.Join(sheets, ", "))
}

// mergeHeaders joins the non-empty header cells of each column with a space
// and names empty headers after their position.
func mergeHeaders(headerRows [][]string) []string {
	maxCols := 0
	for _, r := range headerRows {
		if len(r) > maxCols {
			maxCols = len(r)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, r := range headerRows {
			if col < len(r) {
				if v := strings.TrimSpace(r[col]); v != "" {
					parts = append(parts, v)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
		if headers[col] == "" {
			headers[col] = fmt.Sprintf("Column_%d", col+1)
		}
	}
	return headers
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
