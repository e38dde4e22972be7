package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/crossart/pkg/models/domain"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
)

type TableConfig struct {
	LabelWidth int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		LabelWidth: 32,
		ValueWidth: 12,
	}
}

// Reporter prints crosstabs as fixed-width text tables.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) clip(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "~"
}

func (c *Reporter) Handle(placements []crosstab.Placement) error {
	funcMap := template.FuncMap{
		"header": func(t *domain.Table) string {
			var b strings.Builder
			fmt.Fprintf(&b, "| %-*s |", c.config.LabelWidth, c.clip(t.Key, c.config.LabelWidth))
			for _, col := range t.Columns {
				fmt.Fprintf(&b, " %*s |", c.config.ValueWidth, c.clip(col, c.config.ValueWidth))
			}
			return b.String()
		},
		"formatRow": func(t *domain.Table, i int) string {
			var b strings.Builder
			fmt.Fprintf(&b, "| %-*s |", c.config.LabelWidth, c.clip(t.Rows[i], c.config.LabelWidth))
			for _, v := range t.Cells[i] {
				fmt.Fprintf(&b, " %*.4f |", c.config.ValueWidth, v)
			}
			return b.String()
		},
		"separator": func(t *domain.Table) string {
			var b strings.Builder
			b.WriteString("+" + strings.Repeat("-", c.config.LabelWidth+2) + "+")
			for range t.Columns {
				b.WriteString(strings.Repeat("-", c.config.ValueWidth+2) + "+")
			}
			return b.String()
		},
	}

	tmpl := `{{range $p := .}}
=== {{$p.Sheet}} (row {{$p.Offset}}) ===
{{separator $p.Table}}
{{header $p.Table}}
{{separator $p.Table}}
{{range $i, $row := $p.Table.Rows}}{{formatRow $p.Table $i}}
{{end}}{{separator $p.Table}}
{{end}}`

	t, err := template.New("tables").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, placements)
}
