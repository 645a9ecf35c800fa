package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/askdb-ai/askdb-engine/pkg/models"
	"github.com/askdb-ai/askdb-engine/pkg/repositories"
	"github.com/askdb-ai/askdb-engine/pkg/search"
)

type mockSearcher struct {
	SearchFunc  func(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error)
	SearchCalls int
	Queries     []string
}

func (m *mockSearcher) Search(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]search.Document, error) {
	m.SearchCalls++
	m.Queries = append(m.Queries, query)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, datasourceID, query, topK)
	}
	return nil, nil
}

var _ search.Searcher = (*mockSearcher)(nil)

type mockInsightRepo struct {
	GetByTableNamesFunc  func(ctx context.Context, datasourceID uuid.UUID, tableNames []string) ([]*models.TableInsight, error)
	GetByTableNamesCalls int
}

func (m *mockInsightRepo) GetByTableNames(ctx context.Context, datasourceID uuid.UUID, tableNames []string) ([]*models.TableInsight, error) {
	m.GetByTableNamesCalls++
	if m.GetByTableNamesFunc != nil {
		return m.GetByTableNamesFunc(ctx, datasourceID, tableNames)
	}
	return []*models.TableInsight{}, nil
}

var _ repositories.TableInsightRepository = (*mockInsightRepo)(nil)

type mockValueSearcher struct {
	BestMatchFunc  func(ctx context.Context, term string, candidates []string) (string, float64, error)
	BestMatchCalls int
}

func (m *mockValueSearcher) BestMatch(ctx context.Context, term string, candidates []string) (string, float64, error) {
	m.BestMatchCalls++
	if m.BestMatchFunc != nil {
		return m.BestMatchFunc(ctx, term, candidates)
	}
	return "", 0, nil
}

var _ ValueSearcher = (*mockValueSearcher)(nil)
