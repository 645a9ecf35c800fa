package agent

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/llm"
	"github.com/askdb-ai/askdb-engine/pkg/search"
)

func TestBuildSchemaContextPrefersInsights(t *testing.T) {
	a := newTestAgent(llm.NewMockLLMClient(), &mockSearcher{}, &mockInsightRepo{}, &datasource.MockExecutor{})

	state := NewState("q", uuid.New(), false)
	state.RelevantTables = []search.Document{customersDoc()}
	insight := customersInsight()
	state.TableInsights[insight.QualifiedName()] = insight

	ctx := a.buildSchemaContext(state)

	assert.Contains(t, ctx, "--- Table: public.customers (1200 rows) ---")
	assert.Contains(t, ctx, "Customer accounts with location data.")
	assert.Contains(t, ctx, "- city (text)")
	assert.Contains(t, ctx, "[values: New York, Boston, Chicago]")
	assert.Contains(t, ctx, "[samples: Alice Smith, Bob Jones]")
	assert.NotContains(t, ctx, "Table customers: customer accounts.", "raw document must not be used when insights exist")
}

func TestBuildSchemaContextDocumentFallback(t *testing.T) {
	a := newTestAgent(llm.NewMockLLMClient(), &mockSearcher{}, &mockInsightRepo{}, &datasource.MockExecutor{})

	state := NewState("q", uuid.New(), false)
	state.RelevantTables = []search.Document{{
		SchemaName: "public",
		TableName:  "events",
		Document:   strings.Repeat("x", 3000),
	}}

	ctx := a.buildSchemaContext(state)

	assert.Contains(t, ctx, "--- Table: public.events ---")
	assert.Contains(t, ctx, "...", "long documents are truncated")
	assert.Less(t, len(ctx), 2200)
}

func TestBuildSchemaContextCategoricalLimit(t *testing.T) {
	a := newTestAgent(llm.NewMockLLMClient(), &mockSearcher{}, &mockInsightRepo{}, &datasource.MockExecutor{})

	insight := customersInsight()
	values := make([]string, 0, 15)
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o"} {
		values = append(values, s)
	}
	insight.Columns[1].CategoricalValues = values

	state := NewState("q", uuid.New(), false)
	state.RelevantTables = []search.Document{customersDoc()}
	state.TableInsights[insight.QualifiedName()] = insight

	ctx := a.buildSchemaContext(state)
	assert.Contains(t, ctx, "[values: a, b, c, d, e, f, g, h, i, j, ...]")
	assert.NotContains(t, ctx, "k, l, m")
}
