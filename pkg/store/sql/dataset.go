package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Loader reads survey responses from a SQL source, one record per row.
type Loader interface {
	Source() string
	Load(ctx context.Context, query string, args ...interface{}) (*domain.Dataset, error)
}

type loader struct {
	db     *sql.DB
	source string // e.g. "snowflake", "databricks", "duckdb"
}

func NewLoader(db *sql.DB, source string) (Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &loader{db: db, source: source}, nil
}

func (l *loader) Source() string {
	return l.source
}

func (l *loader) Load(ctx context.Context, query string, args ...interface{}) (*domain.Dataset, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s survey query failed: %w", l.source, err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close survey query rows")
		}
	}(rows)

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s survey columns: %w", l.source, err)
	}

	var records [][]domain.Value
	for rows.Next() {
		raw := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%s survey row %d: %w", l.source, len(records), err)
		}

		record := make([]domain.Value, len(columns))
		for i, v := range raw {
			record[i] = scalar(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s survey rows: %w", l.source, err)
	}

	logger.Debug().
		Str("source", l.source).
		Int("columns", len(columns)).
		Int("records", len(records)).
		Msg("survey loaded")

	return domain.NewDataset(columns, records)
}

func scalar(v interface{}) domain.Value {
	if t, ok := v.(time.Time); ok {
		return domain.String(t.Format(time.RFC3339))
	}
	return domain.ValueOf(v)
}
