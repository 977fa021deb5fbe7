package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributeProportional(t *testing.T) {
	shares := Distribute(10, 0, []float64{6, 4})
	require.Len(t, shares, 2)
	assert.InDelta(t, 6.0, shares[0].Approved, 1e-9)
	assert.InDelta(t, 4.0, shares[1].Approved, 1e-9)
	assert.Zero(t, shares[0].Rejected)
	assert.Zero(t, shares[1].Rejected)
}

func TestDistributePartial(t *testing.T) {
	shares := Distribute(7, 3, []float64{6, 4})
	require.Len(t, shares, 2)
	assert.InDelta(t, 4.2, shares[0].Approved, 1e-9)
	assert.InDelta(t, 2.8, shares[1].Approved, 1e-9)
	assert.InDelta(t, 1.8, shares[0].Rejected, 1e-9)
	assert.InDelta(t, 1.2, shares[1].Rejected, 1e-9)

	var approvedSum, rejectedSum float64
	for _, s := range shares {
		approvedSum += s.Approved
		rejectedSum += s.Rejected
	}
	assert.InDelta(t, 7.0, approvedSum, 1e-9)
	assert.InDelta(t, 3.0, rejectedSum, 1e-9)
}

func TestDistributeZeroTotalSkips(t *testing.T) {
	assert.Nil(t, Distribute(5, 5, []float64{0, 0}))
	assert.Nil(t, Distribute(5, 5, nil))
}

func TestDistributeSingleBatch(t *testing.T) {
	shares := Distribute(2.5, 0.5, []float64{3})
	require.Len(t, shares, 1)
	assert.InDelta(t, 2.5, shares[0].Approved, 1e-9)
	assert.InDelta(t, 0.5, shares[0].Rejected, 1e-9)
}

func TestDistributeUnevenBatches(t *testing.T) {
	shares := Distribute(100, 0, []float64{1, 2, 3, 4})
	require.Len(t, shares, 4)
	assert.InDelta(t, 10.0, shares[0].Approved, 1e-9)
	assert.InDelta(t, 20.0, shares[1].Approved, 1e-9)
	assert.InDelta(t, 30.0, shares[2].Approved, 1e-9)
	assert.InDelta(t, 40.0, shares[3].Approved, 1e-9)
}
