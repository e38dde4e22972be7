package xlsx

import (
	"fmt"
	"strings"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

// addChart draws a clustered bar chart of t, one series per demographic.
// The Grand Total row and column are left out. The chart is anchored two rows
// below the table and two columns right of it.
func (w *Writer) addChart(sheet string, offset int, t *domain.Table) error {
	rows := t.Len()
	if rows > 0 && t.Rows[rows-1] == domain.GrandTotal {
		rows--
	}
	if rows == 0 {
		return nil
	}

	headerRow := offset + 1
	ref := quoteSheet(sheet)
	categories := fmt.Sprintf("%s!%s:%s", ref, absCell(1, headerRow+1), absCell(1, headerRow+rows))

	var series []excelize.ChartSeries
	for i, c := range t.Columns {
		if c == domain.GrandTotal {
			continue
		}
		col := i + 2
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!%s", ref, absCell(col, headerRow)),
			Categories: categories,
			Values:     fmt.Sprintf("%s!%s:%s", ref, absCell(col, headerRow+1), absCell(col, headerRow+rows)),
		})
	}
	if len(series) == 0 {
		return nil
	}

	anchor, err := excelize.CoordinatesToCellName(len(t.Columns)+1+3, headerRow+rows+2)
	if err != nil {
		return err
	}
	return w.f.AddChart(sheet, anchor, &excelize.Chart{
		Type:   excelize.Bar,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: t.Key}},
		Legend: excelize.ChartLegend{Position: "right"},
	})
}

func absCell(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row, true)
	return cell
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
