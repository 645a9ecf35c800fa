// Package agent implements the natural-language-to-SQL reasoning workflow:
// a staged state machine that understands the question, retrieves relevant
// tables, resolves mentioned values against stored metadata, generates SQL,
// executes it, and explains the results, with bounded regeneration after
// recoverable SQL errors.
package agent

import (
	"github.com/google/uuid"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/models"
	"github.com/askdb-ai/askdb-engine/pkg/search"
)

// Stage identifies a workflow step. The state machine advances
// understand -> retrieve -> enrich -> resolve_values -> generate, looping
// back to generate after a recoverable execution error until the attempt
// budget is spent.
type Stage string

const (
	StageUnderstand    Stage = "understand"
	StageRetrieve      Stage = "retrieve"
	StageEnrich        Stage = "enrich"
	StageResolveValues Stage = "resolve_values"
	StageGenerate      Stage = "generate"
	StageDone          Stage = "done"
)

// SearchableTerm is a concrete data value the user mentioned, extracted
// during the understand stage.
type SearchableTerm struct {
	Term       string `json:"term"`
	LikelyType string `json:"likely_type"`
}

// ResolvedValue maps a user-mentioned term to an exact stored value in a
// specific column. Score reflects match confidence: 1.0 for containment
// matches, 0.8 for fuzzy matches, cosine similarity for semantic matches.
type ResolvedValue struct {
	Term       string  `json:"term"`
	SchemaName string  `json:"schema_name"`
	TableName  string  `json:"table_name"`
	ColumnName string  `json:"column_name"`
	Value      string  `json:"value"`
	Score      float64 `json:"score"`
	Method     string  `json:"method"` // "contains", "fuzzy", "semantic"
}

// ColumnKey returns "table.column", the deterministic resolution key.
func (r *ResolvedValue) ColumnKey() string {
	return r.TableName + "." + r.ColumnName
}

// State is the single mutable value threaded through the workflow stages.
// Each stage reads what earlier stages produced and writes its own fields;
// nothing outside the workflow mutates it.
type State struct {
	// Inputs
	Question     string
	DatasourceID uuid.UUID
	ExplainMode  bool

	// Understand
	Intent          string
	SearchableTerms []SearchableTerm
	IsGreeting      bool

	// Retrieve
	RelevantTables []search.Document

	// Enrich, keyed by qualified table name. Iteration order comes from
	// RelevantTables, never from the map.
	TableInsights map[string]*models.TableInsight

	// Resolve values, keyed by "table.column"
	ResolvedValues map[string]ResolvedValue

	// Generate / execute. SQLAttempts counts regenerations scheduled after
	// recoverable execution errors; a first-attempt success leaves it at 0.
	GeneratedSQL string
	SQLAttempts  int
	LastError    *datasource.ExecError
	Results      *datasource.QueryResult

	// Output
	Response    string
	Explanation string
	Error       string
	Warnings    []string
	Stage       Stage
}

// NewState creates the initial workflow state for a question.
func NewState(question string, datasourceID uuid.UUID, explainMode bool) *State {
	return &State{
		Question:       question,
		DatasourceID:   datasourceID,
		ExplainMode:    explainMode,
		TableInsights:  make(map[string]*models.TableInsight),
		ResolvedValues: make(map[string]ResolvedValue),
		Stage:          StageUnderstand,
	}
}

// Warn records a non-fatal problem on the state. Warnings never fail a turn.
func (s *State) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// Result is what a completed workflow run returns to the caller.
// In explain mode Response carries the natural-language explanation; otherwise
// it carries the delimited result text. SQL, Explanation, Columns, and Data
// are populated either way for logging and structured consumers.
type Result struct {
	Response       string                   `json:"response"`
	SQL            string                   `json:"sql,omitempty"`
	Explanation    string                   `json:"explanation,omitempty"`
	Columns        []string                 `json:"columns,omitempty"`
	Data           [][]any                  `json:"data,omitempty"`
	RowCount       int                      `json:"row_count"`
	Truncated      bool                     `json:"truncated,omitempty"`
	Error          string                   `json:"error,omitempty"`
	Warnings       []string                 `json:"warnings,omitempty"`
	ResolvedValues map[string]ResolvedValue `json:"resolved_values,omitempty"`
	SQLAttempts    int                      `json:"sql_attempts"`
	IsGreeting     bool                     `json:"is_greeting"`
}
