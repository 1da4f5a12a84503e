package pgshipments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BearBump/ShipBoard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const PageSize = 25

// shipmentColumns is the scan list shared by every SELECT in this package.
const shipmentColumns = `
  shipment_id, customer_id, origin, destination,
  weight, volume, carrier, mode, status,
  arrival_date, departure_date, delivered_date,
  created_at, updated_at`

// sortColumns whitelists sort_by input; anything else falls back to the
// default ordering.
var sortColumns = map[string]struct{}{
	"shipment_id": {}, "customer_id": {}, "origin": {}, "destination": {},
	"weight": {}, "volume": {}, "carrier": {}, "mode": {}, "status": {},
	"arrival_date": {}, "departure_date": {}, "delivered_date": {},
	"created_at": {}, "updated_at": {},
}

// UpsertShipments writes one batch as a single multi-row statement:
// insert when shipment_id is new, full overwrite of all non-key columns on
// conflict. One statement, so the batch applies atomically.
// Both timestamps are set to the write time on insert and on conflict:
// created_at is reset on overwrite, so it always marks the latest ingest.
func (s *Storage) UpsertShipments(ctx context.Context, batch []*models.ShipmentUpsert) error {
	if len(batch) == 0 {
		return nil
	}
	batch = dedupLastWins(batch)
	now := time.Now().UTC()

	var b strings.Builder
	b.WriteString(`INSERT INTO shipments (
  shipment_id, customer_id, origin, destination,
  weight, volume, carrier, mode, status,
  arrival_date, departure_date, delivered_date,
  created_at, updated_at
) VALUES `)

	args := make([]any, 0, len(batch)*13)
	for i, up := range batch {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9, n+10, n+11, n+12, n+13, n+13))
		args = append(args,
			up.ShipmentID, up.CustomerID, up.Origin, up.Destination,
			up.Weight, up.Volume, up.Carrier, up.Mode, up.Status,
			up.ArrivalDate, up.DepartureDate, up.DeliveredDate,
			now,
		)
	}

	b.WriteString(`
ON CONFLICT (shipment_id) DO UPDATE SET
  customer_id = EXCLUDED.customer_id,
  origin = EXCLUDED.origin,
  destination = EXCLUDED.destination,
  weight = EXCLUDED.weight,
  volume = EXCLUDED.volume,
  carrier = EXCLUDED.carrier,
  mode = EXCLUDED.mode,
  status = EXCLUDED.status,
  arrival_date = EXCLUDED.arrival_date,
  departure_date = EXCLUDED.departure_date,
  delivered_date = EXCLUDED.delivered_date,
  created_at = EXCLUDED.created_at,
  updated_at = EXCLUDED.updated_at`)

	if _, err := s.db.Exec(ctx, b.String(), args...); err != nil {
		return errors.Wrap(err, "upsert shipments")
	}
	return nil
}

// dedupLastWins collapses repeated shipment_ids to their last occurrence.
// Postgres rejects an ON CONFLICT DO UPDATE whose VALUES list hits the same
// row twice, and a later CSV row overwrites an earlier one anyway.
func dedupLastWins(batch []*models.ShipmentUpsert) []*models.ShipmentUpsert {
	idx := make(map[int64]int, len(batch))
	out := make([]*models.ShipmentUpsert, 0, len(batch))
	for _, up := range batch {
		if i, ok := idx[up.ShipmentID]; ok {
			out[i] = up
			continue
		}
		idx[up.ShipmentID] = len(out)
		out = append(out, up)
	}
	return out
}

// GetShipment returns (nil, nil) when the id is unknown.
func (s *Storage) GetShipment(ctx context.Context, shipmentID int64) (*models.Shipment, error) {
	row := s.db.QueryRow(ctx, `SELECT`+shipmentColumns+` FROM shipments WHERE shipment_id = $1`, shipmentID)
	sh, err := scanShipment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment")
	}
	return sh, nil
}

type ListQuery struct {
	Search      string
	Status      string
	Destination string
	Carrier     string
	SortBy      string
	SortOrder   string
	Page        int
}

func (s *Storage) ListShipments(ctx context.Context, q ListQuery) ([]*models.Shipment, int64, error) {
	var conds []string
	var args []any

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(shipment_id::text ILIKE $%d OR origin ILIKE $%d OR destination ILIKE $%d OR carrier ILIKE $%d OR status ILIKE $%d)`,
			n, n, n, n, n))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Destination != "" {
		args = append(args, q.Destination)
		conds = append(conds, fmt.Sprintf("destination = $%d", len(args)))
	}
	if q.Carrier != "" {
		args = append(args, q.Carrier)
		conds = append(conds, fmt.Sprintf("carrier = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM shipments`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count shipments")
	}

	orderBy := "shipment_id DESC"
	if _, ok := sortColumns[q.SortBy]; ok {
		dir := "ASC"
		if strings.EqualFold(q.SortOrder, "desc") {
			dir = "DESC"
		}
		orderBy = q.SortBy + " " + dir
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	args = append(args, PageSize, (page-1)*PageSize)
	query := `SELECT` + shipmentColumns + ` FROM shipments` + where +
		` ORDER BY ` + orderBy +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "select shipments")
	}
	defer rows.Close()

	out := make([]*models.Shipment, 0, PageSize)
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan shipment")
		}
		out = append(out, sh)
	}
	if rows.Err() != nil {
		return nil, 0, errors.Wrap(rows.Err(), "rows")
	}
	return out, total, nil
}

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	var sh models.Shipment
	var arrival time.Time
	var departure, delivered *time.Time
	if err := row.Scan(
		&sh.ShipmentID, &sh.CustomerID, &sh.Origin, &sh.Destination,
		&sh.Weight, &sh.Volume, &sh.Carrier, &sh.Mode, &sh.Status,
		&arrival, &departure, &delivered,
		&sh.CreatedAt, &sh.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sh.ArrivalDate = arrival.Format("2006-01-02")
	sh.DepartureDate = formatDate(departure)
	sh.DeliveredDate = formatDate(delivered)
	return &sh, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
