package ingest

import "github.com/BearBump/ShipBoard/internal/models"

// BatchSize is the number of rows flushed to storage in one upsert.
const BatchSize = 1000

// Accumulator collects normalized records in append order. It never flushes
// itself; the pipeline drains it at capacity and at end of stream.
type Accumulator struct {
	buf []*models.ShipmentUpsert
}

func NewAccumulator() *Accumulator {
	return &Accumulator{buf: make([]*models.ShipmentUpsert, 0, BatchSize)}
}

func (a *Accumulator) Add(rec *models.ShipmentUpsert) {
	a.buf = append(a.buf, rec)
}

func (a *Accumulator) Len() int {
	return len(a.buf)
}

func (a *Accumulator) Full() bool {
	return len(a.buf) >= BatchSize
}

// Drain empties the accumulator and returns its contents in append order.
func (a *Accumulator) Drain() []*models.ShipmentUpsert {
	out := a.buf
	a.buf = make([]*models.ShipmentUpsert, 0, BatchSize)
	return out
}
