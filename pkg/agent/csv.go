package agent

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
)

// RowsToCSV renders a query result as RFC 4180 CSV: header row first, fields
// quoted when they contain commas, quotes, or newlines. NULLs render as
// empty fields.
func RowsToCSV(result *datasource.QueryResult) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(result.Columns); err != nil {
		return "", fmt.Errorf("writing csv header: %w", err)
	}

	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = fmt.Sprint(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}
	return b.String(), nil
}
