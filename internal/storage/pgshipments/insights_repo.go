package pgshipments

import (
	"context"
	"time"

	"github.com/BearBump/ShipBoard/internal/models"
	"github.com/pkg/errors"
)

type DestinationGroup struct {
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	Count         int64  `json:"count"`
}

type CarrierDayCount struct {
	ArrivalDate string `json:"arrival_date"`
	Carrier     string `json:"carrier"`
	Count       int64  `json:"count"`
}

type ModeVolume struct {
	Mode        string `json:"mode"`
	TotalVolume int64  `json:"total_volume"`
}

// InsightsData carries the raw aggregates; the service layer derives the
// utilization percentage from TotalVolume.
type InsightsData struct {
	TotalShipments     int64
	TotalVolume        int64
	GroupedShipments   []DestinationGroup
	UpcomingDepartures []*models.Shipment
	ReceivedByCarrier  []CarrierDayCount
	VolumeByMode       []ModeVolume
}

func (s *Storage) Insights(ctx context.Context) (*InsightsData, error) {
	var data InsightsData

	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(volume), 0) FROM shipments`,
	).Scan(&data.TotalShipments, &data.TotalVolume)
	if err != nil {
		return nil, errors.Wrap(err, "select totals")
	}

	// Destinations sharing a departure day, busiest first.
	rows, err := s.db.Query(ctx, `
SELECT destination, departure_date, COUNT(*) AS cnt
FROM shipments
WHERE departure_date IS NOT NULL
GROUP BY destination, departure_date
HAVING COUNT(*) > 1
ORDER BY cnt DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select grouped shipments")
	}
	for rows.Next() {
		var g DestinationGroup
		var d time.Time
		if err := rows.Scan(&g.Destination, &d, &g.Count); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan grouped shipment")
		}
		g.DepartureDate = d.Format("2006-01-02")
		data.GroupedShipments = append(data.GroupedShipments, g)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	rows, err = s.db.Query(ctx, `SELECT`+shipmentColumns+`
FROM shipments
WHERE departure_date >= CURRENT_DATE
ORDER BY departure_date ASC
LIMIT 5
`)
	if err != nil {
		return nil, errors.Wrap(err, "select upcoming departures")
	}
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan upcoming departure")
		}
		data.UpcomingDepartures = append(data.UpcomingDepartures, sh)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	rows, err = s.db.Query(ctx, `
SELECT arrival_date, carrier, COUNT(*)
FROM shipments
GROUP BY arrival_date, carrier
ORDER BY arrival_date
`)
	if err != nil {
		return nil, errors.Wrap(err, "select received counts")
	}
	for rows.Next() {
		var c CarrierDayCount
		var d time.Time
		if err := rows.Scan(&d, &c.Carrier, &c.Count); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan received count")
		}
		c.ArrivalDate = d.Format("2006-01-02")
		data.ReceivedByCarrier = append(data.ReceivedByCarrier, c)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	rows, err = s.db.Query(ctx, `
SELECT mode, COALESCE(SUM(volume), 0)
FROM shipments
GROUP BY mode
`)
	if err != nil {
		return nil, errors.Wrap(err, "select volume by mode")
	}
	for rows.Next() {
		var m ModeVolume
		if err := rows.Scan(&m.Mode, &m.TotalVolume); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan volume by mode")
		}
		data.VolumeByMode = append(data.VolumeByMode, m)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	return &data, nil
}
