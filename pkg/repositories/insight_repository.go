// Package repositories provides data access for the engine store.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askdb-ai/askdb-engine/pkg/models"
)

// TableInsightRepository reads stored table insights for a datasource.
type TableInsightRepository interface {
	// GetByTableNames returns insights for the named tables ("schema.table"
	// or bare table name). Unknown tables are simply absent from the result;
	// no error is returned for partial matches.
	GetByTableNames(ctx context.Context, datasourceID uuid.UUID, tableNames []string) ([]*models.TableInsight, error)
}

type tableInsightRepository struct {
	pool *pgxpool.Pool
}

// NewTableInsightRepository creates a PostgreSQL-backed insight repository.
func NewTableInsightRepository(pool *pgxpool.Pool) TableInsightRepository {
	return &tableInsightRepository{pool: pool}
}

func (r *tableInsightRepository) GetByTableNames(ctx context.Context, datasourceID uuid.UUID, tableNames []string) ([]*models.TableInsight, error) {
	if len(tableNames) == 0 {
		return []*models.TableInsight{}, nil
	}

	// Names arrive either qualified ("public.orders") or bare ("orders");
	// match both forms.
	query := `
		SELECT id, datasource_id, schema_name, table_name, row_count, summary, columns, updated_at
		FROM table_insights
		WHERE datasource_id = $1
		  AND (schema_name || '.' || table_name = ANY($2) OR table_name = ANY($2))
		ORDER BY schema_name, table_name`

	rows, err := r.pool.Query(ctx, query, datasourceID, tableNames)
	if err != nil {
		return nil, fmt.Errorf("querying table insights: %w", err)
	}
	defer rows.Close()

	insights := make([]*models.TableInsight, 0, len(tableNames))
	for rows.Next() {
		var insight models.TableInsight
		var columnsJSON []byte

		if err := rows.Scan(
			&insight.ID,
			&insight.DatasourceID,
			&insight.SchemaName,
			&insight.TableName,
			&insight.RowCount,
			&insight.Summary,
			&columnsJSON,
			&insight.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning table insight: %w", err)
		}

		if len(columnsJSON) > 0 {
			if err := json.Unmarshal(columnsJSON, &insight.Columns); err != nil {
				return nil, fmt.Errorf("unmarshaling columns for %s: %w", insight.QualifiedName(), err)
			}
		}

		insights = append(insights, &insight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table insights: %w", err)
	}

	return insights, nil
}

// Ensure the implementation satisfies the interface at compile time.
var _ TableInsightRepository = (*tableInsightRepository)(nil)
