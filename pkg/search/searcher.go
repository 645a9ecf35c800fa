// Package search provides semantic similarity search over table documents.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/llm"
)

// Document is a table description returned by similarity search.
// Score is cosine similarity in [0,1]; higher is more similar.
type Document struct {
	SchemaName string  `json:"schema_name"`
	TableName  string  `json:"table_name"`
	Document   string  `json:"document"`
	Score      float64 `json:"score"`
}

// QualifiedName returns "schema.table".
func (d *Document) QualifiedName() string {
	return d.SchemaName + "." + d.TableName
}

// Searcher finds the table documents most similar to a natural-language query.
type Searcher interface {
	Search(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]Document, error)
}

type pgvectorSearcher struct {
	pool           *pgxpool.Pool
	embedder       llm.LLMClient
	embeddingModel string
	logger         *zap.Logger
}

// NewSearcher creates a pgvector-backed searcher that embeds queries with the
// given client.
func NewSearcher(pool *pgxpool.Pool, embedder llm.LLMClient, embeddingModel string, logger *zap.Logger) Searcher {
	return &pgvectorSearcher{
		pool:           pool,
		embedder:       embedder,
		embeddingModel: embeddingModel,
		logger:         logger.Named("search"),
	}
}

func (s *pgvectorSearcher) Search(ctx context.Context, datasourceID uuid.UUID, query string, topK int) ([]Document, error) {
	embedding, err := s.embedder.CreateEmbedding(ctx, query, s.embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("embedding search query: %w", err)
	}

	// pgvector's <=> operator returns cosine distance; similarity = 1 - distance.
	sqlQuery := `
		SELECT schema_name, table_name, document, 1 - (embedding <=> $2::vector) AS score
		FROM table_documents
		WHERE datasource_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2::vector
		LIMIT $3`

	rows, err := s.pool.Query(ctx, sqlQuery, datasourceID, VectorLiteral(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("searching table documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0, topK)
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.SchemaName, &doc.TableName, &doc.Document, &doc.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	s.logger.Debug("table search complete",
		zap.String("datasource_id", datasourceID.String()),
		zap.Int("results", len(docs)))
	return docs, nil
}

// VectorLiteral formats an embedding as a pgvector input literal, e.g.
// "[0.1,0.2,0.3]".
func VectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Ensure the implementation satisfies the interface at compile time.
var _ Searcher = (*pgvectorSearcher)(nil)
