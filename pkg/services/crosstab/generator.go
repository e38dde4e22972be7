package crosstab

import (
	"context"
	"fmt"
	"runtime"

	builder "github.com/de-tools/crossart/pkg/crosstab"
	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sequencer proposes a value order for a demographic column. It returns nil
// when it has no opinion about the column.
type Sequencer func(column string, values []string) []string

// Generator produces every crosstab of a job and hands them to a sink.
type Generator interface {
	Generate(ctx context.Context, ds *domain.Dataset, job domain.Job, sink Sink) ([]Placement, error)
}

type Option func(*DefaultGenerator)

// WithSequencer sets the default value order for demographics that have no
// explicit sequence in the job.
func WithSequencer(s Sequencer) Option {
	return func(g *DefaultGenerator) { g.sequencer = s }
}

// WithParallelism sets how many sheets are computed concurrently for jobs that
// do not set Parallelism. n < 1 uses the number of CPUs.
func WithParallelism(n int) Option {
	return func(g *DefaultGenerator) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		g.parallelism = n
	}
}

type DefaultGenerator struct {
	sequencer   Sequencer
	parallelism int
}

func NewGenerator(opts ...Option) Generator {
	g := &DefaultGenerator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type sheetPlan struct {
	demographic string
	orientation domain.Orientation
	sheet       *Sheet
	placements  []Placement
}

// Generate builds one table per (demographic, orientation, question). Tables
// of one (demographic, orientation) pair share a sheet and are stacked at the
// sheet's running offset. Sheets are computed concurrently up to
// job.Parallelism, and placed into the sink in a fixed order.
func (g *DefaultGenerator) Generate(ctx context.Context, ds *domain.Dataset, job domain.Job, sink Sink) ([]Placement, error) {
	logger := zerolog.Ctx(ctx)

	plans, questions, err := g.plan(ds, job)
	if err != nil {
		return nil, err
	}

	sequences := g.sequences(ds, job)

	eg, egCtx := errgroup.WithContext(ctx)
	limit := job.Parallelism
	if limit < 1 {
		limit = g.parallelism
	}
	if limit < 1 {
		limit = 1
	}
	eg.SetLimit(limit)

	for _, p := range plans {
		p := p
		eg.Go(func() error {
			for _, q := range questions {
				if err := egCtx.Err(); err != nil {
					return err
				}

				kind := domain.SingleChoice
				if job.IsMulti(q) {
					kind = domain.MultiChoice
				}
				req := builder.Request{
					Question:  q,
					Column:    p.demographic,
					Weight:    job.Weight,
					ColumnSeq: sequences[p.demographic],
					NameSort:  job.NameSort,
				}
				if kind == domain.SingleChoice {
					req.RowSeq = job.AnswerOrders[q]
				}

				table, err := builder.Select(kind, p.orientation)(ds, req)
				if err != nil {
					return fmt.Errorf("failed to build %s table for %q by %q: %w", p.orientation, q, p.demographic, err)
				}
				p.placements = append(p.placements, Placement{
					Sheet:  p.sheet.Name(),
					Offset: p.sheet.Advance(table),
					Table:  table,
				})
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var placed []Placement
	for _, p := range plans {
		for _, pl := range p.placements {
			if err := sink.Place(ctx, pl.Sheet, pl.Offset, pl.Table); err != nil {
				return nil, fmt.Errorf("failed to place table %q on sheet %q: %w", pl.Table.Key, pl.Sheet, err)
			}
			placed = append(placed, pl)
		}
		logger.Debug().
			Str("sheet", p.sheet.Name()).
			Int("tables", len(p.placements)).
			Msg("sheet generated")
	}

	logger.Info().
		Int("sheets", len(plans)).
		Int("tables", len(placed)).
		Msg("crosstabs generated")
	return placed, nil
}

// plan validates the job against the dataset before any table is built.
func (g *DefaultGenerator) plan(ds *domain.Dataset, job domain.Job) ([]*sheetPlan, []string, error) {
	if err := job.Validate(); err != nil {
		return nil, nil, err
	}
	orientations, err := job.Orientations()
	if err != nil {
		return nil, nil, err
	}
	questions, err := job.ResolveQuestions(ds.Columns())
	if err != nil {
		return nil, nil, err
	}

	for _, q := range questions {
		if _, err := ds.Column(q, domain.RoleQuestion); err != nil {
			return nil, nil, err
		}
	}
	if _, err := builder.NewWeightAccumulator(ds, job.Weight); err != nil {
		return nil, nil, err
	}

	var plans []*sheetPlan
	for _, d := range job.Demographics {
		if _, err := ds.Column(d, domain.RoleDemographic); err != nil {
			return nil, nil, err
		}
		for _, o := range orientations {
			plans = append(plans, &sheetPlan{
				demographic: d,
				orientation: o,
				sheet:       NewSheet(SheetName(d, o)),
			})
		}
	}
	return plans, questions, nil
}

func (g *DefaultGenerator) sequences(ds *domain.Dataset, job domain.Job) map[string][]string {
	out := make(map[string][]string, len(job.Demographics))
	for _, d := range job.Demographics {
		if seq, ok := job.Sequences[d]; ok && len(seq) > 0 {
			out[d] = seq
			continue
		}
		if g.sequencer == nil {
			continue
		}
		col, err := ds.Column(d, domain.RoleDemographic)
		if err != nil {
			continue
		}
		if seq := g.sequencer(d, col.Distinct()); len(seq) > 0 {
			out[d] = seq
		}
	}
	return out
}
