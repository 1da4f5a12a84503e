package ingest

import (
	"strconv"
	"strings"

	"github.com/BearBump/ShipBoard/internal/models"
	"github.com/pkg/errors"
)

// requiredFields must be present and non-empty for a row to be accepted.
// volume is deliberately not in this list: an empty volume ingests as 0.
var requiredFields = []string{
	"shipment_id", "customer_id", "origin", "destination",
	"weight", "carrier", "mode", "status", "arrival_date",
}

// ErrMissingRequiredField marks a row rejected before normalization.
// Such rows are counted as skipped but not logged individually.
var ErrMissingRequiredField = errors.New("missing required field")

// Validate takes one raw CSV row keyed by header name and returns the
// normalized record, or an error when the row cannot be persisted.
// Pure function, no side effects.
func Validate(row map[string]string) (*models.ShipmentUpsert, error) {
	for _, f := range requiredFields {
		if row[f] == "" {
			return nil, errors.Wrap(ErrMissingRequiredField, f)
		}
	}

	shipmentID, err := strconv.ParseInt(row["shipment_id"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse shipment_id")
	}
	customerID, err := strconv.ParseInt(row["customer_id"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse customer_id")
	}
	weight, err := strconv.ParseInt(row["weight"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse weight")
	}
	if weight < 0 {
		return nil, errors.Errorf("negative weight: %d", weight)
	}

	// Empty volume ingests as 0 (see requiredFields note above).
	var volume int64
	if raw := row["volume"]; raw != "" {
		volume, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parse volume")
		}
		if volume < 0 {
			return nil, errors.Errorf("negative volume: %d", volume)
		}
	}

	origin := strings.ToUpper(strings.TrimSpace(row["origin"]))
	carrier := strings.ToUpper(strings.TrimSpace(row["carrier"]))
	mode := strings.ToLower(strings.TrimSpace(row["mode"]))
	status := strings.ToLower(strings.TrimSpace(row["status"]))
	destination := row["destination"]

	// Membership is checked before the row reaches storage: the upsert is
	// multi-row, and one bad row would fail its whole batch there.
	if _, ok := models.Destinations[destination]; !ok {
		return nil, errors.Errorf("unknown destination %q", destination)
	}
	if _, ok := models.Carriers[carrier]; !ok {
		return nil, errors.Errorf("unknown carrier %q", carrier)
	}
	if _, ok := models.Modes[mode]; !ok {
		return nil, errors.Errorf("unknown mode %q", mode)
	}
	if _, ok := models.Statuses[status]; !ok {
		return nil, errors.Errorf("unknown status %q", status)
	}

	up := &models.ShipmentUpsert{
		ShipmentID:  shipmentID,
		CustomerID:  customerID,
		Origin:      origin,
		Destination: destination,
		Weight:      weight,
		Volume:      volume,
		Carrier:     carrier,
		Mode:        mode,
		Status:      status,
		ArrivalDate: row["arrival_date"],
	}
	if v := row["departure_date"]; v != "" {
		up.DepartureDate = &v
	}
	if v := row["delivered_date"]; v != "" {
		up.DeliveredDate = &v
	}
	return up, nil
}
