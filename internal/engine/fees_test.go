package engine

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateFee(t *testing.T) {
	tests := []struct {
		name         string
		numAssets    uint64
		maxBatchSize uint64
		feePerBatch  uint64
		want         uint64
	}{
		{"zero assets", 0, 3, 1, 0},
		{"one batch exactly", 3, 3, 1, 1},
		{"partial batch rounds up", 4, 3, 1, 2},
		{"five assets three per batch", 5, 3, 1, 2},
		{"single asset batches", 7, 1, 2, 14},
		{"free platform", 10, 3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := &PlatformConfig{MaxBatchSize: tt.maxBatchSize, FeePerBatch: uint256.NewInt(tt.feePerBatch)}
			fee, err := EstimateFee(tt.numAssets, platform)
			require.NoError(t, err)
			assert.Equal(t, uint256.NewInt(tt.want), fee)
		})
	}
}

func TestEstimateFee_ZeroBatchSize(t *testing.T) {
	platform := &PlatformConfig{MaxBatchSize: 0, FeePerBatch: uint256.NewInt(1)}
	_, err := EstimateFee(5, platform)
	assert.ErrorIs(t, err, ErrZeroMaxBatchSize)
}

func TestEstimateFee_Monotonic(t *testing.T) {
	platform := &PlatformConfig{MaxBatchSize: 4, FeePerBatch: uint256.NewInt(3)}
	prev := uint256.NewInt(0)
	for n := uint64(0); n <= 64; n++ {
		fee, err := EstimateFee(n, platform)
		require.NoError(t, err)
		assert.False(t, fee.Lt(prev), "fee decreased at n=%d", n)

		batches := (n + 3) / 4
		assert.Equal(t, uint256.NewInt(batches*3), fee)
		prev = fee
	}
}
