package ingest

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func validRow() map[string]string {
	return map[string]string{
		"shipment_id":    "1001",
		"customer_id":    "7",
		"origin":         " ny ",
		"destination":    "GUY",
		"weight":         "500",
		"volume":         "1000",
		"carrier":        " fedex ",
		"mode":           "Air",
		"status":         "Received",
		"arrival_date":   "2025-01-01",
		"delivered_date": "",
		"departure_date": "",
	}
}

func TestValidate_NormalizesAcceptedRow(t *testing.T) {
	up, err := Validate(validRow())
	require.NoError(t, err)

	require.Equal(t, int64(1001), up.ShipmentID)
	require.Equal(t, int64(7), up.CustomerID)
	require.Equal(t, "NY", up.Origin)
	require.Equal(t, "GUY", up.Destination)
	require.Equal(t, int64(500), up.Weight)
	require.Equal(t, int64(1000), up.Volume)
	require.Equal(t, "FEDEX", up.Carrier)
	require.Equal(t, "air", up.Mode)
	require.Equal(t, "received", up.Status)
	require.Equal(t, "2025-01-01", up.ArrivalDate)
	require.Nil(t, up.DeliveredDate)
	require.Nil(t, up.DepartureDate)
}

func TestValidate_MissingAnyRequiredFieldRejects(t *testing.T) {
	for _, f := range requiredFields {
		row := validRow()
		delete(row, f)
		_, err := Validate(row)
		require.Error(t, err, f)
		require.True(t, errors.Is(err, ErrMissingRequiredField), f)

		row = validRow()
		row[f] = ""
		_, err = Validate(row)
		require.True(t, errors.Is(err, ErrMissingRequiredField), f)
	}
}

func TestValidate_VolumeExemptFromRequiredCheck(t *testing.T) {
	// volume is the one column that may be empty: it ingests as 0.
	row := validRow()
	row["volume"] = ""
	up, err := Validate(row)
	require.NoError(t, err)
	require.Equal(t, int64(0), up.Volume)

	// A present but garbage volume is still a row-level error.
	row["volume"] = "abc"
	_, err = Validate(row)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrMissingRequiredField))
}

func TestValidate_NonNumericIsRowError(t *testing.T) {
	for _, f := range []string{"shipment_id", "customer_id", "weight"} {
		row := validRow()
		row[f] = "12x"
		_, err := Validate(row)
		require.Error(t, err, f)
		require.False(t, errors.Is(err, ErrMissingRequiredField), f)
	}
}

func TestValidate_NegativeWeightAndVolume(t *testing.T) {
	row := validRow()
	row["weight"] = "-1"
	_, err := Validate(row)
	require.Error(t, err)

	row = validRow()
	row["volume"] = "-5"
	_, err = Validate(row)
	require.Error(t, err)
}

func TestValidate_EnumMembership(t *testing.T) {
	row := validRow()
	row["destination"] = "XXX"
	_, err := Validate(row)
	require.Error(t, err)

	// destination is taken verbatim, so a lowercase code does not match.
	row = validRow()
	row["destination"] = "guy"
	_, err = Validate(row)
	require.Error(t, err)

	row = validRow()
	row["carrier"] = "pigeon"
	_, err = Validate(row)
	require.Error(t, err)

	row = validRow()
	row["mode"] = "rail"
	_, err = Validate(row)
	require.Error(t, err)

	row = validRow()
	row["status"] = "lost"
	_, err = Validate(row)
	require.Error(t, err)
}

func TestValidate_DatesPassThrough(t *testing.T) {
	row := validRow()
	row["departure_date"] = "2025-01-02"
	row["delivered_date"] = "2025-01-05"
	up, err := Validate(row)
	require.NoError(t, err)
	require.NotNil(t, up.DepartureDate)
	require.Equal(t, "2025-01-02", *up.DepartureDate)
	require.NotNil(t, up.DeliveredDate)
	require.Equal(t, "2025-01-05", *up.DeliveredDate)
}
