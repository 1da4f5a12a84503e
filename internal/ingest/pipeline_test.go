package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/BearBump/ShipBoard/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const csvHeader = "shipment_id,customer_id,origin,destination,weight,volume,carrier,mode,status,arrival_date,delivered_date,departure_date"

type fakeWriter struct {
	batches [][]*models.ShipmentUpsert
	err     error
}

func (w *fakeWriter) UpsertShipments(ctx context.Context, batch []*models.ShipmentUpsert) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, batch)
	return nil
}

func csvRow(id int) string {
	return fmt.Sprintf("%d,7,NY,GUY,500,1000,FEDEX,air,received,2025-01-01,,", id)
}

func TestIngest_EmptyStream(t *testing.T) {
	w := &fakeWriter{}
	p := NewPipeline(w)

	sum, err := p.Ingest(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Summary{}, sum)
	require.Empty(t, w.batches)
}

func TestIngest_HeaderOnly(t *testing.T) {
	w := &fakeWriter{}
	p := NewPipeline(w)

	sum, err := p.Ingest(context.Background(), strings.NewReader(csvHeader+"\n"))
	require.NoError(t, err)
	require.Equal(t, Summary{}, sum)
	require.Empty(t, w.batches)
}

func TestIngest_SingleValidRow(t *testing.T) {
	w := &fakeWriter{}
	p := NewPipeline(w)

	in := csvHeader + "\n" + "1001,7, ny ,GUY,500,1000, fedex ,Air,Received,2025-01-01,,\n"
	sum, err := p.Ingest(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, Summary{Processed: 1, Skipped: 0}, sum)
	require.Len(t, w.batches, 1)
	require.Len(t, w.batches[0], 1)

	up := w.batches[0][0]
	require.Equal(t, int64(1001), up.ShipmentID)
	require.Equal(t, "NY", up.Origin)
	require.Equal(t, "FEDEX", up.Carrier)
	require.Equal(t, "air", up.Mode)
	require.Equal(t, "received", up.Status)
	require.Nil(t, up.DeliveredDate)
	require.Nil(t, up.DepartureDate)
}

func TestIngest_MissingCarrierSkips(t *testing.T) {
	w := &fakeWriter{}
	p := NewPipeline(w)

	in := csvHeader + "\n" + "1001,7,NY,GUY,500,1000,,air,received,2025-01-01,,\n"
	sum, err := p.Ingest(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, Summary{Processed: 0, Skipped: 1}, sum)
	require.Empty(t, w.batches)
}

func TestIngest_OnlyInvalidRows(t *testing.T) {
	w := &fakeWriter{}
	p := NewPipeline(w)

	var b strings.Builder
	b.WriteString(csvHeader + "\n")
	b.WriteString("1,7,NY,GUY,abc,1000,FEDEX,air,received,2025-01-01,,\n")  // bad weight
	b.WriteString(",7,NY,GUY,500,1000,FEDEX,air,received,2025-01-01,,\n")   // no shipment_id
	b.WriteString("3,7,NY,GUY,500,1000,FEDEX,rail,received,2025-01-01,,\n") // bad mode

	sum, err := p.Ingest(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Equal(t, Summary{Processed: 0, Skipped: 3}, sum)
	require.Empty(t, w.batches)
}

func TestIngest_RowErrorsDoNotStopTheRun(t *testing.T) {
	w := &fakeWriter{}
	p := NewPipeline(w)

	var b strings.Builder
	b.WriteString(csvHeader + "\n")
	b.WriteString(csvRow(1) + "\n")
	b.WriteString("x,7,NY,GUY,500,1000,FEDEX,air,received,2025-01-01,,\n")
	b.WriteString(csvRow(2) + "\n")

	sum, err := p.Ingest(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Equal(t, Summary{Processed: 2, Skipped: 1}, sum)
	require.Len(t, w.batches, 1)
	require.Len(t, w.batches[0], 2)
}

func TestIngest_BatchBoundaries(t *testing.T) {
	w := &fakeWriter{}
	p := NewPipeline(w)

	var b strings.Builder
	b.WriteString(csvHeader + "\n")
	for i := 1; i <= 2500; i++ {
		b.WriteString(csvRow(i) + "\n")
	}

	sum, err := p.Ingest(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Equal(t, Summary{Processed: 2500, Skipped: 0}, sum)

	require.Len(t, w.batches, 3)
	require.Len(t, w.batches[0], 1000)
	require.Len(t, w.batches[1], 1000)
	require.Len(t, w.batches[2], 500)

	// FIFO order across the whole run.
	require.Equal(t, int64(1), w.batches[0][0].ShipmentID)
	require.Equal(t, int64(1001), w.batches[1][0].ShipmentID)
	require.Equal(t, int64(2500), w.batches[2][499].ShipmentID)
}

func TestIngest_WriterFailureIsFatal(t *testing.T) {
	want := errors.New("pg down")
	w := &fakeWriter{err: want}
	p := NewPipeline(w)

	in := csvHeader + "\n" + csvRow(1) + "\n"
	sum, err := p.Ingest(context.Background(), strings.NewReader(in))
	require.ErrorIs(t, err, want)
	// The summary is discarded on a write failure, even for the final batch.
	require.Equal(t, Summary{}, sum)
}
