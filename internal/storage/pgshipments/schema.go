package pgshipments

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS shipments (
  shipment_id BIGINT PRIMARY KEY,
  customer_id BIGINT NOT NULL,
  origin TEXT NOT NULL,
  destination TEXT NOT NULL CHECK (destination IN ('GUY','SVG','SLU','BIM','DOM','GRD','SKN','ANU','SXM','FSXM')),
  weight BIGINT NOT NULL CHECK (weight >= 0),
  volume BIGINT NOT NULL CHECK (volume >= 0),
  carrier TEXT NOT NULL CHECK (carrier IN ('FEDEX','DHL','USPS','UPS','AMAZON')),
  mode TEXT NOT NULL CHECK (mode IN ('air','sea')),
  status TEXT NOT NULL CHECK (status IN ('received','intransit','delivered')),
  arrival_date DATE NOT NULL,
  departure_date DATE NULL,
  delivered_date DATE NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_departure_date ON shipments(departure_date)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_arrival_date ON shipments(arrival_date)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
