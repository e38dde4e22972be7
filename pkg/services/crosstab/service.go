package crosstab

import (
	"context"
	"fmt"
	"io"

	"github.com/de-tools/crossart/pkg/export/xlsx"
	"github.com/de-tools/crossart/pkg/models/domain"
)

// Service runs crosstab jobs for the CLI and the web API.
type Service interface {
	// Tables generates the tables of a job in memory.
	Tables(ctx context.Context, ds *domain.Dataset, job domain.Job) ([]Placement, error)
	// Workbook generates the tables of a job into an XLSX workbook whose first
	// sheet holds the raw responses.
	Workbook(ctx context.Context, ds *domain.Dataset, job domain.Job, out io.Writer) ([]Placement, error)
}

type service struct {
	generator Generator
}

func NewService(generator Generator) Service {
	return &service{generator: generator}
}

func (s *service) Tables(ctx context.Context, ds *domain.Dataset, job domain.Job) ([]Placement, error) {
	return s.generator.Generate(ctx, ds, job, NewCollector())
}

func (s *service) Workbook(ctx context.Context, ds *domain.Dataset, job domain.Job, out io.Writer) ([]Placement, error) {
	w, err := xlsx.NewWriter(xlsx.Options{Charts: job.Charts})
	if err != nil {
		return nil, fmt.Errorf("failed to create workbook: %w", err)
	}
	defer w.Close()

	if err := w.WriteData(ds); err != nil {
		return nil, fmt.Errorf("failed to write raw data: %w", err)
	}
	placed, err := s.generator.Generate(ctx, ds, job, w)
	if err != nil {
		return nil, err
	}
	if _, err := w.WriteTo(out); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}
	return placed, nil
}
