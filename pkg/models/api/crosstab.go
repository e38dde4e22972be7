package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/de-tools/crossart/pkg/export/xlsx"
	"github.com/de-tools/crossart/pkg/models/domain"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
)

type Status struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

type Error struct {
	Error string `json:"error"`
}

// Records is a dataset in "records" layout. It decodes either a JSON array of
// objects or a string holding one, and keeps columns in first-seen key order.
type Records struct {
	Columns []string
	Rows    []map[string]interface{}
}

func NewRecords(ds *domain.Dataset) Records {
	return Records{Columns: ds.Columns(), Rows: ds.Maps()}
}

func (r Records) Dataset() (*domain.Dataset, error) {
	return domain.NewDatasetFromMaps(r.Columns, r.Rows)
}

func (r Records) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range r.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, c := range r.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(c)
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(row[c])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (r *Records) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("records must be an array of objects: %w", err)
	}

	seen := make(map[string]bool)
	r.Columns, r.Rows = nil, make([]map[string]interface{}, 0, len(raw))
	for i, msg := range raw {
		row, keys, err := decodeObject(msg)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				r.Columns = append(r.Columns, k)
			}
		}
		r.Rows = append(r.Rows, row)
	}
	return nil
}

func decodeObject(msg json.RawMessage) (map[string]interface{}, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object")
	}

	row := make(map[string]interface{})
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := tok.(string)
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = v
	}
	return row, keys, nil
}

type ReadResponse struct {
	Records Records `json:"df_reader"`
}

type DatasetRequest struct {
	Records Records `json:"df"`
}

type DemographyResponse struct {
	Demographics []string `json:"demo_list"`
}

type ColumnSearchRequest struct {
	Records Records `json:"df"`
	Key     string  `json:"key"`
}

type ColumnSearchResponse struct {
	Columns []string `json:"column_with_string"`
}

type DemoSorterRequest struct {
	Records      Records  `json:"df"`
	Demographics []string `json:"demo"`
}

type DemoSorterResponse struct {
	Sequences map[string][]string `json:"sort_demography"`
}

type CrosstabRequest struct {
	domain.Job
	Records Records `json:"df"`
}

type CrosstabResponse struct {
	// Workbook is the base64-encoded XLSX file.
	Workbook string `json:"crosstabs"`
}

type TablesResponse struct {
	Tables []crosstab.Placement `json:"tables"`
}

type ReadCrosstabsResponse struct {
	Sheets []xlsx.SheetTables `json:"sheets"`
}

type ChartRequest struct {
	Sheets []xlsx.SheetTables `json:"sheets"`
}

type ChartResponse struct {
	// Workbook is the base64-encoded XLSX file.
	Workbook string `json:"charts"`
}
