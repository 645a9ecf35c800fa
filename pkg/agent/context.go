package agent

import (
	"fmt"
	"strings"

	"github.com/askdb-ai/askdb-engine/pkg/models"
)

// docFallbackLimit caps raw document text included for tables that have no
// stored insights.
const docFallbackLimit = 2000

// buildSchemaContext renders the retrieved tables for the generation prompt.
// Tables with insights get structured column listings; tables without fall
// back to their raw search document, truncated.
func (a *Agent) buildSchemaContext(state *State) string {
	var b strings.Builder

	for i := range state.RelevantTables {
		doc := &state.RelevantTables[i]
		if i > 0 {
			b.WriteByte('\n')
		}

		if insight, ok := state.TableInsights[doc.QualifiedName()]; ok {
			a.writeInsightContext(&b, insight)
			continue
		}

		fmt.Fprintf(&b, "--- Table: %s ---\n", doc.QualifiedName())
		text := doc.Document
		if len(text) > docFallbackLimit {
			text = text[:docFallbackLimit] + "..."
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}

	return b.String()
}

func (a *Agent) writeInsightContext(b *strings.Builder, insight *models.TableInsight) {
	fmt.Fprintf(b, "--- Table: %s (%d rows) ---\n", insight.QualifiedName(), insight.RowCount)
	if insight.Summary != "" {
		b.WriteString(insight.Summary)
		b.WriteByte('\n')
	}

	b.WriteString("Columns:\n")
	for i := range insight.Columns {
		col := &insight.Columns[i]
		fmt.Fprintf(b, "- %s (%s", col.ColumnName, col.DataType)
		if col.IsPrimaryKey {
			b.WriteString(", primary key")
		}
		if col.IsForeignKey && col.ForeignKeyRef != "" {
			fmt.Fprintf(b, ", references %s", col.ForeignKeyRef)
		}
		if col.IsNullable {
			b.WriteString(", nullable")
		}
		b.WriteString(")")

		if col.ColumnSummary != "" {
			b.WriteString(": ")
			b.WriteString(col.ColumnSummary)
		}

		if len(col.CategoricalValues) > 0 {
			fmt.Fprintf(b, " [values: %s]", joinLimited(col.CategoricalValues, a.cfg.CategoricalDisplayLimit))
		} else if len(col.SampleValues) > 0 {
			fmt.Fprintf(b, " [samples: %s]", joinLimited(col.SampleValues, a.cfg.SampleDisplayLimit))
		}
		b.WriteByte('\n')
	}
}

// joinLimited joins up to limit values, appending an ellipsis marker when
// values were cut.
func joinLimited(values []string, limit int) string {
	if limit > 0 && len(values) > limit {
		return strings.Join(values[:limit], ", ") + ", ..."
	}
	return strings.Join(values, ", ")
}
