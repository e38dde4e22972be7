// Package file reads survey responses from uploaded CSV and XLSX files.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Reader turns a survey file into a dataset. Cells are kept as text and blank
// cells become empty values.
type Reader interface {
	Read(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error)
}

type reader struct{}

func NewReader() Reader {
	return &reader{}
}

// ReadFile reads a survey file from the local filesystem.
func ReadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader().Read(ctx, filepath.Base(path), f)
}

func (rd *reader) Read(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var ds *domain.Dataset
	switch format {
	case FormatCSV:
		ds, err = readCSV(r)
	case FormatXLSX:
		ds, err = readXLSX(r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", name).
		Int("columns", len(ds.Columns())).
		Int("records", ds.Len()).
		Msg("survey file read")
	return ds, nil
}

func readCSV(r io.Reader) (*domain.Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, df.Err
	}

	records := df.Records()
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	return domain.NewDatasetFromStrings(records[0], records[1:])
}

// readXLSX reads the first worksheet; its first row is the header.
func readXLSX(r io.Reader) (*domain.Dataset, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	return domain.NewDatasetFromStrings(rows[0], rows[1:])
}
