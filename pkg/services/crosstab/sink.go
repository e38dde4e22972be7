package crosstab

import (
	"context"
	"sync"

	"github.com/de-tools/crossart/pkg/models/domain"
)

// Sink receives every generated table together with its position.
type Sink interface {
	Place(ctx context.Context, sheet string, offset int, table *domain.Table) error
}

// Placement is a table positioned on a sheet.
type Placement struct {
	Sheet  string        `json:"sheet"`
	Offset int           `json:"offset"`
	Table  *domain.Table `json:"table"`
}

// Collector is an in-memory Sink.
type Collector struct {
	mu         sync.Mutex
	placements []Placement
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Place(_ context.Context, sheet string, offset int, table *domain.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placements = append(c.placements, Placement{Sheet: sheet, Offset: offset, Table: table})
	return nil
}

// Placements returns the tables in the order they were placed.
func (c *Collector) Placements() []Placement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Placement(nil), c.placements...)
}

// Sheet returns the placements of one sheet.
func (c *Collector) Sheet(name string) []Placement {
	var out []Placement
	for _, p := range c.Placements() {
		if p.Sheet == name {
			out = append(out, p)
		}
	}
	return out
}
