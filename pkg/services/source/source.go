// Package source loads survey datasets from files, object storage and SQL
// warehouses.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/de-tools/crossart/pkg/services/config"
	"github.com/de-tools/crossart/pkg/store/blob"
	"github.com/de-tools/crossart/pkg/store/duckdb"
	"github.com/de-tools/crossart/pkg/store/file"
	sqlstore "github.com/de-tools/crossart/pkg/store/sql"
	"github.com/rs/zerolog"
)

// ErrNoSource is returned when a request names neither an input nor a query.
var ErrNoSource = errors.New("no dataset source given")

// Request selects a dataset. Query takes precedence over Input.
type Request struct {
	// Input is a local path, s3:// or az:// URI of a CSV, XLSX, Parquet or JSON file.
	Input string
	// Profile names the warehouse profile Query runs against.
	Profile string
	Query   string
}

type Resolver interface {
	Load(ctx context.Context, req Request) (*domain.Dataset, error)
}

// OpenFunc connects to a warehouse.
type OpenFunc func(ctx context.Context, driver, dsn string) (*sql.DB, error)

type Option func(*resolver)

func WithOpenFunc(open OpenFunc) Option {
	return func(r *resolver) { r.open = open }
}

type resolver struct {
	blobs    blob.Registry
	reader   file.Reader
	profiles config.Registry
	open     OpenFunc
}

// NewResolver builds a Resolver. profiles may be nil when no warehouse
// configuration is available.
func NewResolver(blobs blob.Registry, reader file.Reader, profiles config.Registry, opts ...Option) Resolver {
	r := &resolver{
		blobs:    blobs,
		reader:   reader,
		profiles: profiles,
		open:     sqlstore.Open,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *resolver) Load(ctx context.Context, req Request) (*domain.Dataset, error) {
	switch {
	case req.Query != "":
		return r.query(ctx, req.Profile, req.Query)
	case req.Input != "":
		return r.file(ctx, req.Input)
	default:
		return nil, ErrNoSource
	}
}

func (r *resolver) query(ctx context.Context, name, query string) (*domain.Dataset, error) {
	if r.profiles == nil {
		return nil, fmt.Errorf("no warehouse profiles configured")
	}
	if name == "" {
		return nil, fmt.Errorf("a profile is required to run a query")
	}

	profile, err := r.profiles.GetProfile(ctx, name)
	if err != nil {
		return nil, err
	}
	dsn, err := profile.DSN()
	if err != nil {
		return nil, err
	}

	db, err := r.open(ctx, profile.Driver, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	loader, err := sqlstore.NewLoader(db, profile.Driver)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("profile", profile.Name).
		Str("driver", profile.Driver).
		Msg("loading survey from warehouse")
	return loader.Load(ctx, query)
}

func (r *resolver) file(ctx context.Context, uri string) (*domain.Dataset, error) {
	loc, err := blob.Parse(uri)
	if err != nil {
		return nil, err
	}
	if duckdbFile(loc.Name()) {
		return r.duckdb(ctx, uri, loc)
	}
	if _, err := file.FormatOf(loc.Name()); err != nil {
		return nil, err
	}

	rc, loc, err := r.blobs.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return r.reader.Read(ctx, loc.Name(), rc)
}

func duckdbFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".parquet", ".json", ".ndjson":
		return true
	default:
		return false
	}
}

// duckdb reads Parquet and JSON files with an in-memory DuckDB. Remote
// objects are staged in a temporary file first.
func (r *resolver) duckdb(ctx context.Context, uri string, loc blob.Location) (*domain.Dataset, error) {
	path := loc.Path
	if loc.Scheme != blob.SchemeFile {
		staged, err := r.stage(ctx, uri, loc)
		if err != nil {
			return nil, err
		}
		defer os.Remove(staged)
		path = staged
	}

	db, err := duckdb.NewDB(duckdb.Settings{})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	store, err := duckdb.NewStore(db)
	if err != nil {
		return nil, err
	}
	return store.LoadFile(ctx, path)
}

func (r *resolver) stage(ctx context.Context, uri string, loc blob.Location) (string, error) {
	rc, _, err := r.blobs.Open(ctx, uri)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "crossart-*"+filepath.Ext(loc.Name()))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to stage %s: %w", loc, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
