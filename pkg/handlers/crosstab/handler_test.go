package crosstab

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/de-tools/crossart/pkg/export/xlsx"
	"github.com/de-tools/crossart/pkg/models/api"
	"github.com/de-tools/crossart/pkg/models/domain"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
	"github.com/de-tools/crossart/pkg/server/middleware"
	"github.com/de-tools/crossart/pkg/store/file"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Tables(ctx context.Context, ds *domain.Dataset, job domain.Job) ([]crosstab.Placement, error) {
	args := m.Called(ctx, ds, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crosstab.Placement), args.Error(1)
}

func (m *mockService) Workbook(ctx context.Context, ds *domain.Dataset, job domain.Job, out io.Writer) ([]crosstab.Placement, error) {
	args := m.Called(ctx, ds, job, out)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crosstab.Placement), args.Error(1)
}

const records = `[
	{"Age": "35-44", "Gender": "Male", "Q1": "Yes", "w": 1},
	{"Age": "18-24", "Gender": "Female", "Q1": "No", "w": 2},
	{"Age": "25-34", "Gender": "Female", "Q1": null, "w": 1}
]`

func setupRouter(t *testing.T, svc crosstab.Service) http.Handler {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	r := chi.NewRouter()
	r.Use(middleware.Logger(&logger))
	r.Route("/crossart", NewHandler(svc, file.NewReader()).Routes)
	return r
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postFile(t *testing.T, h http.Handler, path, name string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	h := setupRouter(t, new(mockService))
	req := httptest.NewRequest(http.MethodGet, "/crossart/", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","type":"crosstabsgen"}`, rec.Body.String())
}

func TestRead(t *testing.T) {
	tests := []struct {
		name           string
		file           string
		content        string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "csv upload",
			file:           "survey.csv",
			content:        "Q1,Age,w\nYes,18-24,1.5\nNo,,2\n",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"df_reader":[{"Q1":"Yes","Age":"18-24","w":"1.5"},{"Q1":"No","Age":null,"w":"2"}]}`,
		},
		{
			name:           "unsupported format",
			file:           "survey.txt",
			content:        "Q1\nYes\n",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupRouter(t, new(mockService))

			rec := postFile(t, h, "/crossart/read", tt.file, []byte(tt.content))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
				// Columns keep the file's order.
				assert.True(t, strings.HasPrefix(rec.Body.String(), `{"df_reader":[{"Q1":`))
			}
		})
	}
}

func TestDemography(t *testing.T) {
	h := setupRouter(t, new(mockService))

	rec := postJSON(t, h, "/crossart/demography", fmt.Sprintf(`{"df": %s}`, records))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"demo_list":["Age","Gender"]}`, rec.Body.String())
}

func TestDemography_StringRecords(t *testing.T) {
	h := setupRouter(t, new(mockService))
	encoded, err := json.Marshal(records)
	require.NoError(t, err)

	rec := postJSON(t, h, "/crossart/demography", fmt.Sprintf(`{"df": %s}`, encoded))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"demo_list":["Age","Gender"]}`, rec.Body.String())
}

func TestColumnSearch(t *testing.T) {
	h := setupRouter(t, new(mockService))

	rec := postJSON(t, h, "/crossart/colsearch", fmt.Sprintf(`{"df": %s, "key": "Q"}`, records))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"column_with_string":["Q1"]}`, rec.Body.String())
}

func TestDemoSorter(t *testing.T) {
	h := setupRouter(t, new(mockService))

	rec := postJSON(t, h, "/crossart/demo_sorter", fmt.Sprintf(`{"df": %s, "demo": ["Age", "Gender"]}`, records))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sort_demography":{"Age":["18-24","25-34","35-44"],"Gender":["Male","Female"]}}`, rec.Body.String())

	rec = postJSON(t, h, "/crossart/demo_sorter", fmt.Sprintf(`{"df": %s, "demo": ["Region"]}`, records))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrosstabs(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mockService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "workbook generated",
			body: fmt.Sprintf(`{"df": %s, "demos": ["Age"], "q_ls": ["Q1"], "weight": "w", "wise": "Both"}`, records),
			setupMock: func(m *mockService) {
				job := domain.Job{Weight: "w", Demographics: []string{"Age"}, Questions: []string{"Q1"}, Orientation: "Both"}
				m.On("Workbook", mock.Anything, mock.AnythingOfType("*domain.Dataset"), job, mock.Anything).
					Run(func(args mock.Arguments) {
						_, _ = args.Get(3).(io.Writer).Write([]byte("xlsx"))
					}).
					Return([]crosstab.Placement{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "validation error",
			body: fmt.Sprintf(`{"df": %s, "demos": ["Region"], "q_ls": ["Q1"], "weight": "w"}`, records),
			setupMock: func(m *mockService) {
				m.On("Workbook", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, &domain.ColumnError{Column: "Region", Role: domain.RoleDemographic})
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  `demographic column "Region" not found`,
		},
		{
			name: "internal error",
			body: fmt.Sprintf(`{"df": %s, "demos": ["Age"], "q_ls": ["Q1"], "weight": "w"}`, records),
			setupMock: func(m *mockService) {
				m.On("Workbook", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("disk full"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "disk full",
		},
		{
			name:           "malformed body",
			body:           `{"df": 42}`,
			setupMock:      func(m *mockService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			tt.setupMock(svc)
			h := setupRouter(t, svc)

			rec := postJSON(t, h, "/crossart/crosstabs", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp api.CrosstabResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				data, err := base64.StdEncoding.DecodeString(resp.Workbook)
				require.NoError(t, err)
				assert.Equal(t, "xlsx", string(data))
			}
			if tt.expectedError != "" {
				var resp api.Error
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Contains(t, resp.Error, tt.expectedError)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestTables(t *testing.T) {
	svc := new(mockService)
	table := &domain.Table{Key: "Q1", Rows: []string{"Yes"}, Columns: []string{"18-24", domain.GrandTotal}, Cells: [][]float64{{1, 1}}}
	svc.On("Tables", mock.Anything, mock.MatchedBy(func(ds *domain.Dataset) bool {
		return ds.Len() == 3 && assert.ObjectsAreEqual([]string{"Age", "Gender", "Q1", "w"}, ds.Columns())
	}), mock.Anything).Return([]crosstab.Placement{{Sheet: "Age(col)", Offset: 1, Table: table}}, nil)
	h := setupRouter(t, svc)

	rec := postJSON(t, h, "/crossart/tables", fmt.Sprintf(`{"df": %s, "demos": ["Age"], "q_ls": ["Q1"], "weight": "w"}`, records))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp api.TablesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, "Age(col)", resp.Tables[0].Sheet)
	assert.Equal(t, table.Cells, resp.Tables[0].Table.Cells)
	svc.AssertExpectations(t)
}

func crosstabWorkbook(t *testing.T) []byte {
	ctx := context.Background()
	w, err := xlsx.NewWriter(xlsx.Options{})
	require.NoError(t, err)
	defer w.Close()

	ds, err := domain.NewDatasetFromStrings([]string{"Q1"}, [][]string{{"Yes"}})
	require.NoError(t, err)
	require.NoError(t, w.WriteData(ds))
	require.NoError(t, w.Place(ctx, "Age(col)", 1, &domain.Table{
		Key:     "Q1",
		Rows:    []string{"Yes", "No", domain.GrandTotal},
		Columns: []string{"18-24", domain.GrandTotal},
		Cells:   [][]float64{{0.25, 0.25}, {0.75, 0.75}, {1, 1}},
	}))

	var buf bytes.Buffer
	_, err = w.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadCrosstabs(t *testing.T) {
	h := setupRouter(t, new(mockService))

	rec := postFile(t, h, "/crossart/read_crosstabs", "crosstabs.xlsx", crosstabWorkbook(t))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp api.ReadCrosstabsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sheets, 1)
	assert.Equal(t, "Age(col)", resp.Sheets[0].Sheet)
	require.Len(t, resp.Sheets[0].Tables, 1)
	assert.Equal(t, []string{"Yes", "No", domain.GrandTotal}, resp.Sheets[0].Tables[0].Rows)
}

func TestChart(t *testing.T) {
	tests := []struct {
		name string
		post func(t *testing.T, h http.Handler) *httptest.ResponseRecorder
	}{
		{
			name: "workbook upload",
			post: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postFile(t, h, "/crossart/chart", "crosstabs.xlsx", crosstabWorkbook(t))
			},
		},
		{
			name: "json tables",
			post: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				body := `{"sheets":[{"sheet":"Age(col)","tables":[{"key":"Q1","rows":["Yes","No"],"columns":["18-24"],"cells":[[0.25],[0.75]]}]}]}`
				return postJSON(t, h, "/crossart/chart", body)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupRouter(t, new(mockService))

			rec := tt.post(t, h)

			require.Equal(t, http.StatusOK, rec.Code)
			var resp api.ChartResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			data, err := base64.StdEncoding.DecodeString(resp.Workbook)
			require.NoError(t, err)

			f, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, []string{"Age(col)"}, f.GetSheetList())
			key, err := f.GetCellValue("Age(col)", "A1")
			require.NoError(t, err)
			assert.Equal(t, "Q1", key)
		})
	}
}

func TestChart_BadUpload(t *testing.T) {
	h := setupRouter(t, new(mockService))

	rec := postJSON(t, h, "/crossart/chart", `{"sheets": "nope"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadCrosstabs_NotAWorkbook(t *testing.T) {
	h := setupRouter(t, new(mockService))

	rec := postFile(t, h, "/crossart/read_crosstabs", "crosstabs.xlsx", []byte("plain text"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
