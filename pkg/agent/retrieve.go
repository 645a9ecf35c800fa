package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// retrieve finds the tables most likely to answer the question via
// similarity search over stored table documents. The question and the
// derived intent are concatenated into one search query; a single attempt,
// no retry.
func (a *Agent) retrieve(ctx context.Context, state *State) error {
	query := state.Question
	if state.Intent != "" {
		query = state.Question + " " + state.Intent
	}

	docs, err := a.searcher.Search(ctx, state.DatasourceID, query, a.cfg.TopKTables)
	if err != nil {
		return fmt.Errorf("retrieving relevant tables: %w", err)
	}

	if len(docs) == 0 {
		state.Error = "no relevant tables found"
		state.Response = "I could not find any tables related to your question. The datasource may not be analyzed yet."
		state.Stage = StageDone
		return nil
	}

	state.RelevantTables = docs

	names := make([]string, len(docs))
	for i := range docs {
		names[i] = docs[i].QualifiedName()
	}
	a.logger.Debug("tables retrieved", zap.Strings("tables", names))

	state.Stage = StageEnrich
	return nil
}
