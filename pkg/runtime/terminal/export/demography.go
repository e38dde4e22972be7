package export

import (
	"fmt"
	"io"
	"os"
	"text/template"
)

// Demographic is a demographic column with its values in table order.
type Demographic struct {
	Name   string
	Values []string
}

// DemographyReport lists the columns of a survey and the demographics found in it.
type DemographyReport struct {
	Source       string
	Columns      []string
	Demographics []Demographic
}

// DemographyReporter prints demography reports as numbered lists.
type DemographyReporter struct {
	writer io.Writer
}

func NewDemographyReporter(writer io.Writer) *DemographyReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &DemographyReporter{writer: writer}
}

func (c *DemographyReporter) Handle(report *DemographyReport) error {
	tmpl := `
{{.Source}} ({{len .Columns}} columns)
{{if .Demographics}}{{range .Demographics}}
=== {{.Name}} ===
{{range $i, $v := .Values}}{{inc $i}}. {{$v}}
{{end}}{{end}}{{else}}
No demographic columns found.
{{end}}`
	t, err := template.New("demography").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
