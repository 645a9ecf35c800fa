// Package prompts builds the LLM prompts used by the reasoning workflow.
package prompts

import (
	"fmt"
	"strings"
)

// UnderstandSystem is the system message for the intent extraction step.
const UnderstandSystem = `You are a query analyst for a database assistant. You extract the user's intent and the concrete data values they mention. Respond with JSON only, no prose.`

// Understand builds the intent extraction prompt. The model must return JSON
// of the form:
//
//	{"intent": "...", "searchable_terms": [{"term": "...", "likely_type": "..."}]}
func Understand(question string) string {
	var b strings.Builder

	b.WriteString("Analyze this database question and extract:\n")
	b.WriteString("1. intent: a one-sentence restatement of what the user wants to find\n")
	b.WriteString("2. searchable_terms: concrete data values the user mentioned that likely appear in the data itself (names, cities, statuses, categories). Do NOT include column names, table names, aggregates, or dates.\n\n")
	b.WriteString("For each term, guess its likely_type: one of city, status, category, name, or other.\n\n")
	b.WriteString("Also detect greetings: if the message is only a greeting or small talk with no data question, return {\"intent\": \"GREETING\", \"searchable_terms\": []}.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nRespond with a single JSON object:\n")
	b.WriteString(`{"intent": "...", "searchable_terms": [{"term": "...", "likely_type": "..."}]}`)

	return b.String()
}

// GenerateSQLSystem is the system message for the SQL generation step.
const GenerateSQLSystem = `You are an expert SQL developer. You write a single read-only SELECT statement for the user's question, using only the tables and columns provided. Output the SQL inside a fenced code block and nothing else.`

// GenerateSQLInput carries everything the generation prompt needs.
type GenerateSQLInput struct {
	Question      string
	Intent        string
	SchemaContext string
	ValueHints    []string // pre-formatted "table.column = 'value'" lines
	RetryContext  string   // previous SQL + error, empty on first attempt
	Dialect       string   // "postgres", "mssql"
	MaxRows       int
}

// GenerateSQL builds the SQL generation prompt. On retry attempts the failed
// statement and its error are included so the model can correct them.
func GenerateSQL(in GenerateSQLInput) string {
	var b strings.Builder

	b.WriteString("Write a SQL query to answer the user's question.\n\n")

	b.WriteString("## Database schema\n")
	b.WriteString(in.SchemaContext)
	b.WriteString("\n\n")

	if len(in.ValueHints) > 0 {
		b.WriteString("## Verified values\n")
		b.WriteString("These exact values exist in the data. Use them verbatim in WHERE clauses instead of the user's wording:\n")
		for _, hint := range in.ValueHints {
			b.WriteString("- ")
			b.WriteString(hint)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if in.RetryContext != "" {
		b.WriteString("## Previous attempt failed\n")
		b.WriteString(in.RetryContext)
		b.WriteString("\nFix the problem and write a corrected query. Check for case-sensitive table and column names, identifiers that need quoting, and type mismatches in comparisons.\n\n")
	}

	b.WriteString("## Rules\n")
	dialect := in.Dialect
	if dialect == "" {
		dialect = "postgres"
	}
	fmt.Fprintf(&b, "- Target dialect: %s\n", dialect)
	b.WriteString("- Return exactly one SELECT statement. No INSERT, UPDATE, DELETE, DDL, or trailing narrative.\n")
	fmt.Fprintf(&b, "- Limit results to at most %d rows unless the question asks for more.\n", in.MaxRows)
	b.WriteString("- Use only tables and columns from the schema above. Quote identifiers that need it.\n\n")

	if in.Intent != "" {
		b.WriteString("## Intent\n")
		b.WriteString(in.Intent)
		b.WriteString("\n\n")
	}

	b.WriteString("## Question\n")
	b.WriteString(in.Question)
	b.WriteString("\n\nSQL:")

	return b.String()
}

// RetryContext formats a failed attempt for inclusion in the next
// generation prompt.
func RetryContext(failedSQL, errorMessage string) string {
	var b strings.Builder
	b.WriteString("SQL:\n```sql\n")
	b.WriteString(failedSQL)
	b.WriteString("\n```\nError: ")
	b.WriteString(errorMessage)
	b.WriteByte('\n')
	return b.String()
}

// ExplainSystem is the system message for the result explanation step.
const ExplainSystem = `You are a helpful data analyst. You summarize query results for a non-technical user in two or three sentences. Mention concrete numbers from the data. Do not mention SQL.`

// Explain builds the result explanation prompt.
func Explain(question, sqlQuery, resultsCSV string, rowCount int, truncated bool) string {
	var b strings.Builder

	b.WriteString("The user asked: ")
	b.WriteString(question)
	b.WriteString("\n\nThis query was executed:\n```sql\n")
	b.WriteString(sqlQuery)
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "It returned %d rows", rowCount)
	if truncated {
		b.WriteString(" (truncated to the display limit)")
	}
	b.WriteString(":\n")
	b.WriteString(resultsCSV)
	b.WriteString("\nSummarize what the data shows in plain language.")

	return b.String()
}
