package ingest

import (
	"testing"

	"github.com/BearBump/ShipBoard/internal/models"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_AddDrainFIFO(t *testing.T) {
	acc := NewAccumulator()
	require.Equal(t, 0, acc.Len())
	require.False(t, acc.Full())

	acc.Add(&models.ShipmentUpsert{ShipmentID: 1})
	acc.Add(&models.ShipmentUpsert{ShipmentID: 2})
	require.Equal(t, 2, acc.Len())

	out := acc.Drain()
	require.Len(t, out, 2)
	require.Equal(t, int64(1), out[0].ShipmentID)
	require.Equal(t, int64(2), out[1].ShipmentID)
	require.Equal(t, 0, acc.Len())
}

func TestAccumulator_FullAtCapacity(t *testing.T) {
	acc := NewAccumulator()
	for i := 0; i < BatchSize-1; i++ {
		acc.Add(&models.ShipmentUpsert{ShipmentID: int64(i)})
	}
	require.False(t, acc.Full())
	acc.Add(&models.ShipmentUpsert{ShipmentID: int64(BatchSize)})
	require.True(t, acc.Full())

	require.Len(t, acc.Drain(), BatchSize)
	require.False(t, acc.Full())
}
