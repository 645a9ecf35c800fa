package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/apperrors"
	"github.com/askdb-ai/askdb-engine/pkg/config"
	"github.com/askdb-ai/askdb-engine/pkg/llm"
	"github.com/askdb-ai/askdb-engine/pkg/repositories"
	"github.com/askdb-ai/askdb-engine/pkg/search"
)

// ExecutorOpener opens a query executor for a datasource. The production
// implementation looks up cached credentials and dials the right driver;
// tests substitute a mock.
type ExecutorOpener func(ctx context.Context, datasourceID uuid.UUID) (datasource.QueryExecutor, string, error)

// Agent runs the reasoning workflow. Construct once and share; it is
// stateless between runs.
type Agent struct {
	llmClient    llm.LLMClient
	searcher     search.Searcher
	insights     repositories.TableInsightRepository
	resolver     *ValueResolver
	openExecutor ExecutorOpener
	cfg          *config.AgentConfig
	logger       *zap.Logger
}

// NewAgent wires the workflow dependencies.
func NewAgent(
	llmClient llm.LLMClient,
	searcher search.Searcher,
	insights repositories.TableInsightRepository,
	resolver *ValueResolver,
	openExecutor ExecutorOpener,
	cfg *config.AgentConfig,
	logger *zap.Logger,
) *Agent {
	return &Agent{
		llmClient:    llmClient,
		searcher:     searcher,
		insights:     insights,
		resolver:     resolver,
		openExecutor: openExecutor,
		cfg:          cfg,
		logger:       logger.Named("agent"),
	}
}

// Run executes the workflow for one question and returns the final result.
// The state machine advances stage by stage; generate may loop back onto
// itself after a recoverable execution error, bounded by cfg.MaxRetries
// total attempts. With explainMode the response is a natural-language
// summary of the results; without it the response is delimited result text.
func (a *Agent) Run(ctx context.Context, question string, datasourceID uuid.UUID, explainMode bool) (*Result, error) {
	state := NewState(question, datasourceID, explainMode)

	a.logger.Info("workflow started",
		zap.String("datasource_id", datasourceID.String()),
		zap.Int("question_length", len(question)))

	for state.Stage != StageDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		switch state.Stage {
		case StageUnderstand:
			err = a.understand(ctx, state)
		case StageRetrieve:
			err = a.retrieve(ctx, state)
		case StageEnrich:
			err = a.enrich(ctx, state)
		case StageResolveValues:
			err = a.resolveValues(ctx, state)
		case StageGenerate:
			err = a.generate(ctx, state)
		default:
			return nil, fmt.Errorf("unknown workflow stage %q", state.Stage)
		}
		if err != nil {
			// Missing credentials and cancellation are the caller's to
			// handle; everything else ends the turn with an error payload.
			if ctx.Err() != nil || errors.Is(err, apperrors.ErrNoCredentials) {
				return nil, err
			}
			a.logger.Error("workflow stage failed",
				zap.String("stage", string(state.Stage)),
				zap.Error(err))
			state.Error = err.Error()
			state.Response = "Something went wrong while processing your question. Please try again."
			state.Stage = StageDone
		}
	}

	a.logger.Info("workflow finished",
		zap.Bool("greeting", state.IsGreeting),
		zap.Int("sql_attempts", state.SQLAttempts),
		zap.Int("resolved_values", len(state.ResolvedValues)))

	result := &Result{
		Response:       state.Response,
		SQL:            state.GeneratedSQL,
		Explanation:    state.Explanation,
		Error:          state.Error,
		Warnings:       state.Warnings,
		ResolvedValues: state.ResolvedValues,
		SQLAttempts:    state.SQLAttempts,
		IsGreeting:     state.IsGreeting,
	}
	if state.Results != nil {
		result.Columns = state.Results.Columns
		result.Data = state.Results.Rows
		result.RowCount = state.Results.RowCount
		result.Truncated = state.Results.Truncated
	}
	return result, nil
}

// shouldRetry decides whether a failed generate attempt loops back.
// Three conditions, all required: the error is recoverable (syntax or
// missing column/relation), the regeneration budget is not spent, and no
// terminal response has been produced. SQLAttempts counts regenerations,
// so MaxRetries total attempts allow MaxRetries-1 of them.
func (a *Agent) shouldRetry(state *State) bool {
	if state.Response != "" {
		return false
	}
	if state.LastError == nil || !state.LastError.Kind.Recoverable() {
		return false
	}
	return state.SQLAttempts < a.cfg.MaxRetries-1
}
