package models

import (
	"time"

	"github.com/google/uuid"
)

// IndexingStrategy describes how a column's values were indexed during
// datasource analysis, which in turn decides how the term resolver probes it.
type IndexingStrategy string

const (
	// IndexingCategorical means the column has few enough distinct values
	// that all of them are stored and scanned directly.
	IndexingCategorical IndexingStrategy = "categorical"
	// IndexingVector means sample values were embedded for semantic lookup.
	IndexingVector IndexingStrategy = "vector"
	// IndexingSkip means the column is not searchable by value.
	IndexingSkip IndexingStrategy = "skip"
)

// TableInsight is the stored descriptor for an analyzed table, including its
// column metadata. Populated by the analysis pipeline; read-only here.
type TableInsight struct {
	ID           uuid.UUID       `json:"id"`
	DatasourceID uuid.UUID       `json:"datasource_id"`
	SchemaName   string          `json:"schema_name"`
	TableName    string          `json:"table_name"`
	RowCount     int64           `json:"row_count"`
	Summary      string          `json:"summary"`
	Columns      []ColumnInsight `json:"columns"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// QualifiedName returns "schema.table".
func (t *TableInsight) QualifiedName() string {
	return t.SchemaName + "." + t.TableName
}

// ColumnInsight is the stored descriptor for a single column.
// Exactly one of CategoricalValues or SampleValues is typically populated,
// matching the indexing strategy.
type ColumnInsight struct {
	ColumnName        string           `json:"column_name"`
	DataType          string           `json:"data_type"`
	IsNullable        bool             `json:"is_nullable"`
	IsPrimaryKey      bool             `json:"is_primary_key"`
	IsForeignKey      bool             `json:"is_foreign_key"`
	ForeignKeyRef     string           `json:"foreign_key_ref,omitempty"`
	IndexingStrategy  IndexingStrategy `json:"indexing_strategy"`
	CategoricalValues []string         `json:"categorical_values,omitempty"`
	SampleValues      []string         `json:"sample_values,omitempty"`
	ColumnSummary     string           `json:"column_summary"`
}
