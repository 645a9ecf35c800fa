package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// enrich loads stored column-level insights for the retrieved tables.
// Tables without insights are tolerated; the generation prompt falls back to
// their raw documents.
func (a *Agent) enrich(ctx context.Context, state *State) error {
	names := make([]string, len(state.RelevantTables))
	for i := range state.RelevantTables {
		names[i] = state.RelevantTables[i].QualifiedName()
	}

	insights, err := a.insights.GetByTableNames(ctx, state.DatasourceID, names)
	if err != nil {
		return fmt.Errorf("loading table insights: %w", err)
	}

	for _, insight := range insights {
		state.TableInsights[insight.QualifiedName()] = insight
	}

	a.logger.Debug("insights loaded",
		zap.Int("requested", len(names)),
		zap.Int("found", len(insights)))

	state.Stage = StageResolveValues
	return nil
}
