package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/llm"
	"github.com/askdb-ai/askdb-engine/pkg/prompts"
)

// understandResult is the JSON shape the understand prompt asks for.
type understandResult struct {
	Intent          string           `json:"intent"`
	SearchableTerms []SearchableTerm `json:"searchable_terms"`
}

// understand extracts the user's intent and the concrete values they
// mentioned. Greetings short-circuit the workflow with a canned response.
// A failed or unparseable model call degrades to a default intent rather
// than failing the turn; retrieval can still work from the raw question.
func (a *Agent) understand(ctx context.Context, state *State) error {
	// Cheap pattern check first, before spending a model call.
	if isGreeting(state.Question) {
		a.finishGreeting(state)
		return nil
	}

	resp, err := a.llmClient.GenerateResponse(ctx, prompts.Understand(state.Question), prompts.UnderstandSystem, 0.0, a.cfg.MaxSummaryTokens)
	if err != nil {
		a.logger.Warn("understand call failed, using default intent", zap.Error(err))
		state.Warn("intent extraction failed: " + err.Error())
		state.Intent = defaultIntent(state.Question)
		state.Stage = StageRetrieve
		return nil
	}

	parsed, err := parseUnderstandResponse(resp.Content)
	if err != nil {
		a.logger.Warn("understand response unparseable, using default intent",
			zap.Error(err),
			zap.Int("response_length", len(resp.Content)))
		state.Warn("intent response unparseable: " + err.Error())
		state.Intent = defaultIntent(state.Question)
		state.Stage = StageRetrieve
		return nil
	}

	if strings.EqualFold(strings.TrimSpace(parsed.Intent), greetingIntent) {
		a.finishGreeting(state)
		return nil
	}

	state.Intent = parsed.Intent
	if state.Intent == "" {
		state.Intent = defaultIntent(state.Question)
	}
	for _, term := range parsed.SearchableTerms {
		if strings.TrimSpace(term.Term) == "" {
			continue
		}
		state.SearchableTerms = append(state.SearchableTerms, term)
	}

	a.logger.Debug("question understood",
		zap.String("intent", state.Intent),
		zap.Int("searchable_terms", len(state.SearchableTerms)))

	state.Stage = StageRetrieve
	return nil
}

func (a *Agent) finishGreeting(state *State) {
	state.IsGreeting = true
	state.Response = GreetingResponse
	state.Stage = StageDone
}

func parseUnderstandResponse(content string) (*understandResult, error) {
	jsonText, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, err
	}

	var parsed understandResult
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling understand response: %w", err)
	}
	return &parsed, nil
}

func defaultIntent(question string) string {
	return "Find data related to: " + question
}
