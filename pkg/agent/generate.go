package agent

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/llm"
	"github.com/askdb-ai/askdb-engine/pkg/logging"
	"github.com/askdb-ai/askdb-engine/pkg/prompts"
	sqlutil "github.com/askdb-ai/askdb-engine/pkg/sql"
)

// generate produces SQL for the question, executes it, and explains the
// results. On a recoverable execution error (bad syntax, missing column or
// relation) the stage loops back onto itself with the failure in the prompt,
// bounded by the configured attempt budget.
func (a *Agent) generate(ctx context.Context, state *State) error {
	executor, driver, err := a.openExecutor(ctx, state.DatasourceID)
	if err != nil {
		return fmt.Errorf("opening datasource executor: %w", err)
	}
	defer executor.Close()

	prompt := prompts.GenerateSQL(prompts.GenerateSQLInput{
		Question:      state.Question,
		Intent:        state.Intent,
		SchemaContext: a.buildSchemaContext(state),
		ValueHints:    a.valueHints(state),
		RetryContext:  a.retryContext(state),
		Dialect:       driver,
		MaxRows:       a.cfg.MaxRows,
	})

	resp, err := a.llmClient.GenerateResponse(ctx, prompt, prompts.GenerateSQLSystem, 0.0, a.cfg.MaxCompletionTokens)
	if err != nil {
		return fmt.Errorf("generating sql: %w", err)
	}

	generated := sqlutil.ExtractStatement(llm.StripThinking(resp.Content))
	if generated == "" {
		a.logger.Warn("no sql in model response",
			zap.Int("attempt", state.SQLAttempts+1),
			zap.Int("response_length", len(resp.Content)))
		state.Error = "could not generate valid SQL"
		state.Response = "I could not produce a query for that question. Could you rephrase it?"
		state.Stage = StageDone
		return nil
	}
	state.GeneratedSQL = generated

	a.logger.Info("executing generated sql",
		zap.Int("attempt", state.SQLAttempts+1),
		zap.String("sql", logging.TruncateQuery(generated)))

	result, err := executor.Execute(ctx, generated, a.cfg.MaxRows)
	if err != nil {
		return a.handleExecutionError(state, err)
	}

	state.Results = result
	state.LastError = nil
	a.finishWithResults(ctx, state)
	state.Stage = StageDone
	return nil
}

// finishWithResults produces the final response. In explain mode that is a
// model-written summary of the first rows; otherwise it is the delimited
// result text itself.
func (a *Agent) finishWithResults(ctx context.Context, state *State) {
	if state.ExplainMode {
		state.Explanation = a.explainResults(ctx, state)
		state.Response = state.Explanation
		return
	}

	csvText, err := RowsToCSV(state.Results)
	if err != nil {
		state.Warn("rendering results failed: " + err.Error())
		state.Response = "Query executed successfully."
		return
	}
	state.Response = csvText
}

// handleExecutionError records a failed attempt and decides between looping
// back and finishing with an error response. SQLAttempts counts scheduled
// regenerations, so a first-attempt success leaves it at zero.
func (a *Agent) handleExecutionError(state *State, err error) error {
	execErr := datasource.ClassifyError(err)
	state.LastError = execErr

	a.logger.Warn("query execution failed",
		zap.Int("attempt", state.SQLAttempts+1),
		zap.String("kind", string(execErr.Kind)),
		zap.String("error", execErr.Message))

	if a.shouldRetry(state) {
		// Stay on generate; the retry context carries the failure forward.
		state.SQLAttempts++
		state.Stage = StageGenerate
		return nil
	}

	state.Error = execErr.Message
	state.Response = fmt.Sprintf(
		"I generated a query but it failed to execute (%s).\n\nSQL attempted:\n%s\n\nYou may want to rephrase your question.",
		execErr.Message, state.GeneratedSQL)
	state.Stage = StageDone
	return nil
}

// valueHints formats resolved values for the prompt in deterministic order.
// Values that look like SQL injection payloads are dropped; stored data is
// normally trusted, but hints flow straight into generated SQL.
func (a *Agent) valueHints(state *State) []string {
	keys := make([]string, 0, len(state.ResolvedValues))
	for k := range state.ResolvedValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hints := make([]string, 0, len(keys))
	for _, k := range keys {
		rv := state.ResolvedValues[k]
		if check := sqlutil.CheckValueForInjection(rv.Value); check != nil {
			a.logger.Warn("resolved value failed injection screen",
				zap.String("column", k),
				zap.String("fingerprint", check.Fingerprint))
			continue
		}
		hints = append(hints, fmt.Sprintf("%s = '%s' (the user said %q)", k, rv.Value, rv.Term))
	}
	return hints
}

// retryContext formats the previous failure for the prompt, empty on the
// first attempt.
func (a *Agent) retryContext(state *State) string {
	if state.LastError == nil || state.GeneratedSQL == "" {
		return ""
	}
	return prompts.RetryContext(state.GeneratedSQL, state.LastError.Message)
}

// explainRowLimit caps how many result rows the explanation prompt sees.
const explainRowLimit = 5

// explainResults asks the model to summarize the result set. Explanation is
// cosmetic: any failure degrades to a generic success message rather than
// failing a turn that already produced data.
func (a *Agent) explainResults(ctx context.Context, state *State) string {
	const fallback = "Query executed successfully."

	if state.Results.RowCount == 0 {
		return "The query ran successfully but returned no results. The data you asked about may not exist, or the filters may be too narrow."
	}

	preview := *state.Results
	if len(preview.Rows) > explainRowLimit {
		preview.Rows = preview.Rows[:explainRowLimit]
	}
	csvText, err := RowsToCSV(&preview)
	if err != nil {
		state.Warn("rendering results failed: " + err.Error())
		return fallback
	}

	prompt := prompts.Explain(state.Question, state.GeneratedSQL, csvText, state.Results.RowCount, state.Results.Truncated)
	resp, err := a.llmClient.GenerateResponse(ctx, prompt, prompts.ExplainSystem, 0.3, a.cfg.MaxSummaryTokens)
	if err != nil {
		state.Warn("explanation call failed: " + err.Error())
		a.logger.Warn("explanation call failed", zap.Error(err))
		return fallback
	}

	explanation := llm.StripThinking(resp.Content)
	if explanation == "" {
		return fallback
	}
	return explanation
}
