package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"

	"github.com/BearBump/ShipBoard/internal/models"
	"github.com/pkg/errors"
)

// BatchWriter persists one batch atomically, insert-or-overwrite keyed on
// shipment_id.
type BatchWriter interface {
	UpsertShipments(ctx context.Context, batch []*models.ShipmentUpsert) error
}

type Summary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

type Pipeline struct {
	writer BatchWriter
}

func NewPipeline(writer BatchWriter) *Pipeline {
	return &Pipeline{writer: writer}
}

// Ingest scans the CSV stream once, front to back. Row-level failures
// (missing fields, bad numbers, out-of-enum codes) only bump Skipped; a
// writer failure aborts the whole run and the summary is discarded.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader) (Summary, error) {
	var sum Summary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return sum, nil
	}
	if err != nil {
		return sum, errors.Wrap(err, "read csv header")
	}

	acc := NewAccumulator()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			sum.Skipped++
			slog.Warn("row skipped due to error", "err", err)
			continue
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}

		up, err := Validate(row)
		if err != nil {
			sum.Skipped++
			if !errors.Is(err, ErrMissingRequiredField) {
				slog.Warn("row skipped due to error", "err", err)
			}
			continue
		}

		acc.Add(up)
		sum.Processed++

		if acc.Full() {
			if err := p.writer.UpsertShipments(ctx, acc.Drain()); err != nil {
				return Summary{}, errors.Wrap(err, "upsert batch")
			}
		}
	}

	// Remaining records below the batch threshold.
	if acc.Len() > 0 {
		if err := p.writer.UpsertShipments(ctx, acc.Drain()); err != nil {
			return Summary{}, errors.Wrap(err, "upsert batch")
		}
	}

	return sum, nil
}
