package engine

import "github.com/holiman/uint256"

// RequiredBatches returns how many distribution calls a campaign of
// numAssets assets needs under the given batch limit.
func RequiredBatches(numAssets, maxBatchSize uint64) (uint64, error) {
	if maxBatchSize == 0 {
		return 0, ErrZeroMaxBatchSize
	}
	return (numAssets + maxBatchSize - 1) / maxBatchSize, nil
}

// EstimateFee computes the escrow fee for a campaign of numAssets assets:
// ceil(numAssets / max_batch_size) * fee_per_batch. Pure and deterministic.
func EstimateFee(numAssets uint64, platform *PlatformConfig) (*uint256.Int, error) {
	batches, err := RequiredBatches(numAssets, platform.MaxBatchSize)
	if err != nil {
		return nil, err
	}
	fee := new(uint256.Int).Mul(platform.FeePerBatch, uint256.NewInt(batches))
	return fee, nil
}
