package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/de-tools/crossart/pkg/models/domain"
	sqlstore "github.com/de-tools/crossart/pkg/store/sql"
	"github.com/marcboeker/go-duckdb/v2"
)

// bootQueries run on every new connection.
var bootQueries = []string{
	`SET enable_progress_bar = false`,
}

type Settings struct {
	// DbPath is the database file; empty or ":memory:" keeps everything in memory.
	DbPath  string
	Threads int
}

func NewDB(settings Settings) (*sql.DB, error) {
	threads := settings.Threads
	if threads < 1 {
		threads = 4
	}
	path := settings.DbPath
	if path == ":memory:" {
		path = ""
	}

	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=%d", path, threads), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(c), nil
}

// Store queries survey files in place (CSV, Parquet, JSON) with DuckDB.
type Store interface {
	// LoadFile reads a whole file. Every column is read as text so answer
	// labels keep their written form.
	LoadFile(ctx context.Context, path string) (*domain.Dataset, error)
	// Query runs arbitrary SQL, e.g. a filter over read_csv_auto('survey.csv').
	Query(ctx context.Context, query string, args ...interface{}) (*domain.Dataset, error)
}

type store struct {
	loader sqlstore.Loader
}

func NewStore(db *sql.DB) (Store, error) {
	loader, err := sqlstore.NewLoader(db, "duckdb")
	if err != nil {
		return nil, err
	}
	return &store{loader: loader}, nil
}

func (s *store) LoadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	query, err := fileQuery(path)
	if err != nil {
		return nil, err
	}
	return s.loader.Load(ctx, query)
}

func (s *store) Query(ctx context.Context, query string, args ...interface{}) (*domain.Dataset, error) {
	return s.loader.Load(ctx, query, args...)
}

func fileQuery(path string) (string, error) {
	literal := "'" + strings.ReplaceAll(path, "'", "''") + "'"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return fmt.Sprintf(`SELECT * FROM read_csv_auto(%s, header = true, all_varchar = true)`, literal), nil
	case ".parquet":
		return fmt.Sprintf(`SELECT * FROM read_parquet(%s)`, literal), nil
	case ".json", ".ndjson":
		return fmt.Sprintf(`SELECT * FROM read_json_auto(%s)`, literal), nil
	default:
		return "", fmt.Errorf("duckdb cannot read %q: unsupported file type", path)
	}
}
