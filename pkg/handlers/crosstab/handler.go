package crosstab

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/de-tools/crossart/pkg/export/xlsx"
	"github.com/de-tools/crossart/pkg/models/api"
	"github.com/de-tools/crossart/pkg/models/domain"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
	"github.com/de-tools/crossart/pkg/services/demography"
	"github.com/de-tools/crossart/pkg/store/file"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	maxUploadSize = 64 << 20
	uploadField   = "file"
	serviceType   = "crosstabsgen"
)

type Handler struct {
	crosstabs crosstab.Service
	reader    file.Reader
}

func NewHandler(crosstabs crosstab.Service, reader file.Reader) *Handler {
	return &Handler{
		crosstabs: crosstabs,
		reader:    reader,
	}
}

// Routes mounts the crosstab endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Status)
	r.Post("/read", h.Read)
	r.Post("/demography", h.Demography)
	r.Post("/colsearch", h.ColumnSearch)
	r.Post("/demo_sorter", h.DemoSorter)
	r.Post("/crosstabs", h.Crosstabs)
	r.Post("/tables", h.Tables)
	r.Post("/read_crosstabs", h.ReadCrosstabs)
	r.Post("/chart", h.Chart)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, api.Status{Status: "ok", Type: serviceType})
}

func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, body, err := upload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	ds, err := h.reader.Read(ctx, name, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.ReadResponse{Records: api.NewRecords(ds)})
}

func (h *Handler) Demography(w http.ResponseWriter, r *http.Request) {
	var req api.DatasetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.DemographyResponse{
		Demographics: nonNil(demography.Detect(req.Records.Columns)),
	})
}

func (h *Handler) ColumnSearch(w http.ResponseWriter, r *http.Request) {
	var req api.ColumnSearchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.ColumnSearchResponse{
		Columns: nonNil(demography.Search(req.Records.Columns, req.Key)),
	})
}

func (h *Handler) DemoSorter(w http.ResponseWriter, r *http.Request) {
	var req api.DemoSorterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ds, err := req.Records.Dataset()
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}

	sequences := make(map[string][]string, len(req.Demographics))
	for _, demo := range req.Demographics {
		col, err := ds.Column(demo, domain.RoleDemographic)
		if err != nil {
			writeError(w, r, err)
			return
		}
		distinct := col.Distinct()
		if sorted, ok := demography.SortValues(demo, distinct); ok {
			distinct = sorted
		}
		sequences[demo] = distinct
	}
	writeJSON(w, r, http.StatusOK, api.DemoSorterResponse{Sequences: sequences})
}

func (h *Handler) Crosstabs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	ds, job, err := crosstabRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	placed, err := h.crosstabs.Workbook(ctx, ds, job, &buf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info().
		Int("tables", len(placed)).
		Int("bytes", buf.Len()).
		Msg("crosstab workbook generated")

	writeJSON(w, r, http.StatusOK, api.CrosstabResponse{
		Workbook: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	ds, job, err := crosstabRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	placed, err := h.crosstabs.Tables(r.Context(), ds, job)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.TablesResponse{Tables: placed})
}

func (h *Handler) ReadCrosstabs(w http.ResponseWriter, r *http.Request) {
	_, body, err := upload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	sheets, err := xlsx.ReadTables(body)
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	writeJSON(w, r, http.StatusOK, api.ReadCrosstabsResponse{Sheets: sheets})
}

// Chart accepts either an uploaded crosstab workbook or tables as JSON and
// returns a workbook with a bar chart next to every table.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	var sheets []xlsx.SheetTables
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req api.ChartRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		sheets = req.Sheets
	} else {
		_, body, err := upload(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer body.Close()

		if sheets, err = xlsx.ReadTables(body); err != nil {
			writeError(w, r, badRequest(err))
			return
		}
	}

	var buf bytes.Buffer
	if err := xlsx.DrawCharts(r.Context(), sheets, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.ChartResponse{
		Workbook: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func crosstabRequest(r *http.Request) (*domain.Dataset, domain.Job, error) {
	var req api.CrosstabRequest
	if err := decode(r, &req); err != nil {
		return nil, domain.Job{}, err
	}
	ds, err := req.Records.Dataset()
	if err != nil {
		return nil, domain.Job{}, badRequest(err)
	}
	return ds, req.Job, nil
}

// requestError marks client mistakes that are not domain validation errors.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func upload(r *http.Request) (string, io.ReadCloser, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "", nil, badRequest(fmt.Errorf("invalid upload: %w", err))
	}
	f, header, err := r.FormFile(uploadField)
	if err != nil {
		return "", nil, badRequest(fmt.Errorf("missing %q upload: %w", uploadField, err))
	}
	return header.Filename, f, nil
}

func statusOf(err error) int {
	var reqErr *requestError
	var tableErr *xlsx.TableError
	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &tableErr),
		errors.Is(err, domain.ErrMissingColumn),
		errors.Is(err, domain.ErrInvalidWeight),
		errors.Is(err, domain.ErrInvalidJob),
		errors.Is(err, file.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := zerolog.Ctx(r.Context())
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Warn().Err(err).Msg("request rejected")
	}
	writeJSON(w, r, status, api.Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
