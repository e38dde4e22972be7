package crosstab

import (
	"github.com/de-tools/crossart/pkg/models/domain"
)

// FirstOffset is the row at which the first table of every sheet is placed.
const FirstOffset = 1

// TableGap is the number of rows left between consecutive tables on a sheet,
// counting the header row.
const TableGap = 3

// Sheet tracks the running row offset of one output worksheet. A Sheet has a
// single writer; sheets are independent of each other.
type Sheet struct {
	name   string
	offset int
}

func NewSheet(name string) *Sheet {
	return &Sheet{name: name, offset: FirstOffset}
}

// SheetName returns the worksheet name for a demographic and orientation,
// e.g. "Age(col)".
func SheetName(demographic string, orientation domain.Orientation) string {
	return demographic + orientation.SheetSuffix()
}

func (s *Sheet) Name() string { return s.name }

// Offset returns the row at which the next table will be placed.
func (s *Sheet) Offset() int { return s.offset }

// Advance reserves room for t and returns the row at which it is placed.
func (s *Sheet) Advance(t *domain.Table) int {
	at := s.offset
	s.offset += t.Len() + TableGap
	return at
}
