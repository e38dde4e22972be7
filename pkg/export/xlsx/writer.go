// Package xlsx writes crosstab workbooks and reads them back for charting.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// DataSheet holds the raw responses in generated workbooks.
const DataSheet = "data"

const maxSheetName = 31

type Options struct {
	// Charts adds a clustered bar chart next to every table.
	Charts bool
}

// Writer builds a crosstab workbook. It is a sink for generated tables:
// every table is written with a bold header row at its sheet offset.
type Writer struct {
	mu     sync.Mutex
	f      *excelize.File
	opts   Options
	bold   int
	sheets map[string]string // requested name -> worksheet name
	titles map[string]bool   // issued worksheet names, lower-cased
	// placeholder is the default sheet of a new file until it is claimed.
	placeholder string
}

func NewWriter(opts Options) (*Writer, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{
		f:           f,
		opts:        opts,
		bold:        bold,
		sheets:      make(map[string]string),
		titles:      make(map[string]bool),
		placeholder: f.GetSheetName(0),
	}, nil
}

// SheetTitle turns a name into a valid worksheet name.
func SheetTitle(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	if len([]rune(name)) > maxSheetName {
		suffix := orientationSuffix(name)
		name = fit(strings.TrimSuffix(name, suffix), suffix)
	}
	return name
}

func orientationSuffix(name string) string {
	for _, s := range []string{domain.OrientationColumn.SheetSuffix(), domain.OrientationRow.SheetSuffix()} {
		if strings.HasSuffix(name, s) {
			return s
		}
	}
	return ""
}

// fit cuts base so that base+suffix is a valid worksheet name length.
func fit(base, suffix string) string {
	keep := maxSheetName - len([]rune(suffix))
	if r := []rune(base); len(r) > keep {
		base = string(r[:keep])
	}
	return base + suffix
}

// uniqueTitle returns title, or title tagged with ~N when a sheet of that
// name exists. Excel compares sheet names case-insensitively.
func (w *Writer) uniqueTitle(title string) string {
	candidate := title
	suffix := orientationSuffix(title)
	base := strings.TrimSuffix(title, suffix)
	for n := 2; w.titles[strings.ToLower(candidate)]; n++ {
		candidate = fit(base, fmt.Sprintf("~%d%s", n, suffix))
	}
	w.titles[strings.ToLower(candidate)] = true
	return candidate
}

func (w *Writer) sheet(name string) (string, error) {
	if s, ok := w.sheets[name]; ok {
		return s, nil
	}
	title := w.uniqueTitle(SheetTitle(name))
	if w.placeholder != "" {
		if err := w.f.SetSheetName(w.placeholder, title); err != nil {
			return "", err
		}
		w.placeholder = ""
	} else if _, err := w.f.NewSheet(title); err != nil {
		return "", err
	}
	w.sheets[name] = title
	return title, nil
}

// WriteData writes the raw responses to the data sheet. Call it before
// placing tables so the data sheet comes first.
func (w *Writer) WriteData(ds *domain.Dataset) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, err := w.sheet(DataSheet)
	if err != nil {
		return err
	}
	sw, err := w.f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, 0, len(ds.Columns()))
	for _, c := range ds.Columns() {
		header = append(header, excelize.Cell{StyleID: w.bold, Value: c})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i := 0; i < ds.Len(); i++ {
		rec := ds.Record(i)
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v.Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// Place writes t with its header on the 0-based row offset of sheet.
func (w *Writer) Place(ctx context.Context, sheet string, offset int, t *domain.Table) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name, err := w.sheet(sheet)
	if err != nil {
		return err
	}

	headerRow := offset + 1
	header := make([]interface{}, 0, len(t.Columns)+1)
	for _, h := range t.Header() {
		header = append(header, h)
	}
	first, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(name, first, &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), headerRow)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(name, first, last, w.bold); err != nil {
		return err
	}

	for i, label := range t.Rows {
		row := make([]interface{}, 0, len(t.Columns)+1)
		row = append(row, label)
		for _, v := range t.Cells[i] {
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}

	if w.opts.Charts {
		if err := w.addChart(name, offset, t); err != nil {
			return fmt.Errorf("failed to chart %q on %q: %w", t.Key, name, err)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("sheet", name).
		Int("offset", offset).
		Str("table", t.Key).
		Msg("table written")
	return nil
}

// WriteTo saves the workbook.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.WriteTo(out)
}

func (w *Writer) Close() error {
	return w.f.Close()
}
