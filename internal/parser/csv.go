package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsplit/internal/document"
)

// csvBatchSize is the number of data rows placed under one heading.
const csvBatchSize = 20

// CSVParser handles CSV files. The first record is the header row; data rows
// are grouped into "## Rows a-b" sections numbered by file line.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := newDocument(baseTitle(filename), csvToMarkdown(records), filename, "csv")
	if len(records) > 0 {
		doc.Metadata["rows"] = len(records) - 1
	}
	return doc, nil
}

func csvToMarkdown(records [][]string) string {
	if len(records) < 2 {
		return ""
	}
	headers := records[0]
	dataRows := records[1:]

	var sections []string
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		var sb strings.Builder
		sb.WriteString(heading(2, fmt.Sprintf("Rows %d-%d", i+2, end+1)))
		sb.WriteString("\n\nHeaders: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range dataRows[i:end] {
			cells := make([]string, len(row))
			for j, cell := range row {
				if j < len(headers) {
					cells[j] = headers[j] + ": " + cell
				} else {
					cells[j] = cell
				}
			}
			sb.WriteString(strings.Join(cells, ", "))
			sb.WriteString("\n")
		}
		sections = append(sections, strings.TrimRight(sb.String(), "\n"))
	}
	return strings.Join(sections, "\n\n")
}
