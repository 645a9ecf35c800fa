package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/apperrors"
	"github.com/askdb-ai/askdb-engine/pkg/config"
	"github.com/askdb-ai/askdb-engine/pkg/llm"
	"github.com/askdb-ai/askdb-engine/pkg/models"
	"github.com/askdb-ai/askdb-engine/pkg/search"
)

func testAgentConfig() *config.AgentConfig {
	return &config.AgentConfig{
		MaxRetries:              3,
		MaxRows:                 100,
		TopKTables:              5,
		ScoreThreshold:          0.5,
		MaxCompletionTokens:     2048,
		MaxSummaryTokens:        512,
		CategoricalDisplayLimit: 10,
		SampleDisplayLimit:      10,
	}
}

// scriptedLLM routes calls by prompt content: understand prompts get the
// intent JSON, generation prompts consume sqlResponses in order, explanation
// prompts get the explanation.
func scriptedLLM(t *testing.T, understandJSON string, sqlResponses []string, explanation string) *llm.MockLLMClient {
	t.Helper()
	mock := llm.NewMockLLMClient()
	generateCalls := 0

	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*llm.GenerateResponseResult, error) {
		assert.Positive(t, maxTokens, "every completion call must carry a token budget")
		switch {
		case strings.Contains(prompt, "Analyze this database question"):
			return &llm.GenerateResponseResult{Content: understandJSON}, nil
		case strings.Contains(prompt, "Write a SQL query"):
			require.Less(t, generateCalls, len(sqlResponses), "unexpected extra generation call")
			resp := sqlResponses[generateCalls]
			generateCalls++
			return &llm.GenerateResponseResult{Content: resp}, nil
		case strings.Contains(prompt, "Summarize what the data shows"):
			return &llm.GenerateResponseResult{Content: explanation}, nil
		default:
			t.Fatalf("unexpected prompt: %s", prompt)
			return nil, nil
		}
	}
	return mock
}

func customersInsight() *models.TableInsight {
	return &models.TableInsight{
		SchemaName: "public",
		TableName:  "customers",
		RowCount:   1200,
		Summary:    "Customer accounts with location data.",
		Columns: []models.ColumnInsight{
			{
				ColumnName:       "name",
				DataType:         "text",
				IndexingStrategy: models.IndexingVector,
				SampleValues:     []string{"Alice Smith", "Bob Jones"},
			},
			{
				ColumnName:        "city",
				DataType:          "text",
				IndexingStrategy:  models.IndexingCategorical,
				CategoricalValues: []string{"New York", "Boston", "Chicago"},
			},
		},
	}
}

func customersDoc() search.Document {
	return search.Document{
		SchemaName: "public",
		TableName:  "customers",
		Document:   "Table customers: customer accounts.",
		Score:      0.9,
	}
}

func newTestAgent(llmMock *llm.MockLLMClient, searcher *mockSearcher, repo *mockInsightRepo, exec *datasource.MockExecutor) *Agent {
	logger := zap.NewNop()
	cfg := testAgentConfig()
	resolver := NewValueResolver(nil, cfg, logger)
	opener := func(ctx context.Context, datasourceID uuid.UUID) (datasource.QueryExecutor, string, error) {
		return exec, "postgres", nil
	}
	return NewAgent(llmMock, searcher, repo, resolver, opener, cfg, logger)
}

const understandCustomersJSON = `{"intent": "Find customers located in New York", "searchable_terms": [{"term": "NYC", "likely_type": "city"}]}`

func TestRunGreetingShortCircuit(t *testing.T) {
	llmMock := llm.NewMockLLMClient()
	searcher := &mockSearcher{}
	repo := &mockInsightRepo{}
	exec := &datasource.MockExecutor{}

	a := newTestAgent(llmMock, searcher, repo, exec)
	result, err := a.Run(context.Background(), "hello!", uuid.New(), true)
	require.NoError(t, err)

	assert.True(t, result.IsGreeting)
	assert.Equal(t, GreetingResponse, result.Response)
	assert.Empty(t, result.SQL)
	assert.Zero(t, result.SQLAttempts)
	assert.Zero(t, llmMock.GenerateResponseCalls, "greetings must not spend model calls")
	assert.Zero(t, searcher.SearchCalls)
	assert.Zero(t, exec.ExecuteCalls)
}

func TestRunGreetingFromModelIntent(t *testing.T) {
	llmMock := llm.NewMockLLMClient()
	llmMock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*llm.GenerateResponseResult, error) {
		return &llm.GenerateResponseResult{Content: `{"intent": "GREETING", "searchable_terms": []}`}, nil
	}
	searcher := &mockSearcher{}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, &datasource.MockExecutor{})
	result, err := a.Run(context.Background(), "how do you do this fine morning", uuid.New(), true)
	require.NoError(t, err)

	assert.True(t, result.IsGreeting)
	assert.Equal(t, GreetingResponse, result.Response)
	assert.Zero(t, searcher.SearchCalls)
}

func TestRunHappyPath(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON,
		[]string{"```sql\nSELECT name FROM public.customers WHERE city = 'New York';\n```"},
		"Found 2 customers in New York.")

	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{customersDoc()}, nil
		},
	}
	repo := &mockInsightRepo{
		GetByTableNamesFunc: func(ctx context.Context, datasourceID uuid.UUID, tableNames []string) ([]*models.TableInsight, error) {
			assert.Equal(t, []string{"public.customers"}, tableNames)
			return []*models.TableInsight{customersInsight()}, nil
		},
	}
	exec := &datasource.MockExecutor{
		ExecuteFunc: func(ctx context.Context, sqlQuery string, maxRows int) (*datasource.QueryResult, error) {
			assert.Equal(t, 100, maxRows)
			return &datasource.QueryResult{
				Columns:  []string{"name"},
				Rows:     [][]any{{"Alice Smith"}, {"Bob Jones"}},
				RowCount: 2,
			}, nil
		},
	}

	a := newTestAgent(llmMock, searcher, repo, exec)
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err)

	assert.Equal(t, "Found 2 customers in New York.", result.Response)
	assert.Equal(t, "SELECT name FROM public.customers WHERE city = 'New York'", result.SQL)
	assert.Zero(t, result.SQLAttempts, "first-attempt success records no regenerations")
	assert.False(t, result.IsGreeting)
	assert.Equal(t, "Found 2 customers in New York.", result.Explanation)
	assert.Equal(t, []string{"name"}, result.Columns)
	assert.Equal(t, 2, result.RowCount)
	assert.False(t, result.Truncated)

	// The abbreviation resolver should have pinned NYC to the stored value.
	resolved, ok := result.ResolvedValues["customers.city"]
	require.True(t, ok)
	assert.Equal(t, "New York", resolved.Value)
	assert.Equal(t, "fuzzy", resolved.Method)
	assert.InDelta(t, 0.8, resolved.Score, 0.001)

	// And the generation prompt should carry the verified value.
	var generatePrompt string
	for _, p := range llmMock.Prompts {
		if strings.Contains(p, "Write a SQL query") {
			generatePrompt = p
		}
	}
	assert.Contains(t, generatePrompt, "customers.city = 'New York'")
}

func TestRunRetriesRecoverableError(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON,
		[]string{
			"```sql\nSELECT nmae FROM public.customers\n```",
			"```sql\nSELECT name FROM public.customers\n```",
		},
		"Here are your customers.")

	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{customersDoc()}, nil
		},
	}
	repo := &mockInsightRepo{
		GetByTableNamesFunc: func(ctx context.Context, datasourceID uuid.UUID, tableNames []string) ([]*models.TableInsight, error) {
			return []*models.TableInsight{customersInsight()}, nil
		},
	}

	execCalls := 0
	exec := &datasource.MockExecutor{
		ExecuteFunc: func(ctx context.Context, sqlQuery string, maxRows int) (*datasource.QueryResult, error) {
			execCalls++
			if execCalls == 1 {
				return nil, &datasource.ExecError{
					Kind:    datasource.ErrorKindUndefinedColumn,
					Message: `column "nmae" does not exist`,
				}
			}
			return &datasource.QueryResult{Columns: []string{"name"}, Rows: [][]any{{"Alice Smith"}}, RowCount: 1}, nil
		},
	}

	a := newTestAgent(llmMock, searcher, repo, exec)
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SQLAttempts, "one regeneration after the failed attempt")
	assert.Equal(t, "Here are your customers.", result.Response)
	assert.Equal(t, "SELECT name FROM public.customers", result.SQL)

	// The second generation prompt must carry the failed SQL and its error.
	var retryPrompt string
	for _, p := range llmMock.Prompts {
		if strings.Contains(p, "Previous attempt failed") {
			retryPrompt = p
		}
	}
	require.NotEmpty(t, retryPrompt)
	assert.Contains(t, retryPrompt, "SELECT nmae FROM public.customers")
	assert.Contains(t, retryPrompt, `column "nmae" does not exist`)
}

func TestRunStopsAfterAttemptBudget(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON,
		[]string{
			"```sql\nSELECT bad FROM public.customers\n```",
			"```sql\nSELECT worse FROM public.customers\n```",
			"```sql\nSELECT worst FROM public.customers\n```",
		},
		"unused")

	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{customersDoc()}, nil
		},
	}
	exec := &datasource.MockExecutor{
		ExecuteFunc: func(ctx context.Context, sqlQuery string, maxRows int) (*datasource.QueryResult, error) {
			return nil, &datasource.ExecError{Kind: datasource.ErrorKindSyntax, Message: "syntax error at or near FROM"}
		},
	}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, exec)
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SQLAttempts, "two regenerations after the initial attempt")
	assert.Equal(t, 3, exec.ExecuteCalls)
	assert.Contains(t, result.Response, "failed to execute")
	assert.Contains(t, result.Response, "SELECT worst FROM public.customers", "final error embeds the attempted SQL")
	assert.Equal(t, "syntax error at or near FROM", result.Error)
}

func TestRunTerminalErrorDoesNotRetry(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON,
		[]string{"```sql\nSELECT name FROM public.customers\n```"},
		"unused")

	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{customersDoc()}, nil
		},
	}
	exec := &datasource.MockExecutor{
		ExecuteFunc: func(ctx context.Context, sqlQuery string, maxRows int) (*datasource.QueryResult, error) {
			return nil, &datasource.ExecError{Kind: datasource.ErrorKindPermission, Message: "permission denied for table customers"}
		},
	}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, exec)
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err)

	assert.Zero(t, result.SQLAttempts, "terminal errors schedule no regeneration")
	assert.Equal(t, 1, exec.ExecuteCalls)
	assert.Contains(t, result.Response, "permission denied")
}

func TestRunNoTablesFound(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON, nil, "unused")
	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{}, nil
		},
	}
	exec := &datasource.MockExecutor{}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, exec)
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err)

	assert.Contains(t, result.Response, "could not find any tables")
	assert.Equal(t, "no relevant tables found", result.Error)
	assert.Empty(t, result.SQL)
	assert.Zero(t, exec.ExecuteCalls)
}

func TestRunNoSQLExtracted(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON,
		[]string{"I'm sorry, I cannot answer that question."},
		"unused")
	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{customersDoc()}, nil
		},
	}
	exec := &datasource.MockExecutor{}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, exec)
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err)

	assert.Contains(t, result.Response, "rephrase")
	assert.Equal(t, "could not generate valid SQL", result.Error)
	assert.Zero(t, exec.ExecuteCalls)
}

func TestRunNonExplainModeReturnsDelimitedRows(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON,
		[]string{"```sql\nSELECT name, city FROM public.customers\n```"},
		"unused")
	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{customersDoc()}, nil
		},
	}
	exec := &datasource.MockExecutor{
		ExecuteFunc: func(ctx context.Context, sqlQuery string, maxRows int) (*datasource.QueryResult, error) {
			return &datasource.QueryResult{
				Columns:  []string{"name", "city"},
				Rows:     [][]any{{"Bob, Jr.", "New York"}},
				RowCount: 1,
			}, nil
		},
	}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, exec)
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), false)
	require.NoError(t, err)

	assert.Equal(t, "name,city\n\"Bob, Jr.\",New York\n", result.Response)
	assert.Empty(t, result.Explanation, "no explanation call without explain mode")
	assert.Equal(t, "SELECT name, city FROM public.customers", result.SQL)
	assert.Equal(t, 1, result.RowCount)
}

func TestRunSearchFailureEndsWithErrorPayload(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON, nil, "unused")
	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return nil, fmt.Errorf("vector index unavailable")
		},
	}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, &datasource.MockExecutor{})
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err, "infrastructure failures finish the turn, not the caller")

	assert.Contains(t, result.Error, "vector index unavailable")
	assert.Contains(t, result.Response, "try again")
	assert.Empty(t, result.SQL)
}

func TestRunMissingCredentialsPropagates(t *testing.T) {
	llmMock := scriptedLLM(t, understandCustomersJSON, nil, "unused")
	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			return []search.Document{customersDoc()}, nil
		},
	}

	logger := zap.NewNop()
	cfg := testAgentConfig()
	resolver := NewValueResolver(nil, cfg, logger)
	opener := func(ctx context.Context, datasourceID uuid.UUID) (datasource.QueryExecutor, string, error) {
		return nil, "", fmt.Errorf("datasource %s: %w", datasourceID, apperrors.ErrNoCredentials)
	}
	a := NewAgent(llmMock, searcher, &mockInsightRepo{}, resolver, opener, cfg, logger)

	_, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.ErrorIs(t, err, apperrors.ErrNoCredentials, "the transport layer maps this to a conflict")
}

func TestRunUnparseableUnderstandFallsBack(t *testing.T) {
	llmMock := llm.NewMockLLMClient()
	llmMock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*llm.GenerateResponseResult, error) {
		if strings.Contains(prompt, "Analyze this database question") {
			return &llm.GenerateResponseResult{Content: "not json at all"}, nil
		}
		return &llm.GenerateResponseResult{Content: "```sql\nSELECT 1\n```"}, nil
	}
	searcher := &mockSearcher{
		SearchFunc: func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
			assert.Equal(t, "Show me customers in NYC Find data related to: Show me customers in NYC", query)
			return []search.Document{}, nil
		},
	}

	a := newTestAgent(llmMock, searcher, &mockInsightRepo{}, &datasource.MockExecutor{})
	result, err := a.Run(context.Background(), "Show me customers in NYC", uuid.New(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.SearchCalls)
	assert.NotEmpty(t, result.Warnings, "parse failure is recorded as a warning")
}
