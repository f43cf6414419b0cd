package genesis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdrop-engine/internal/engine"
	"airdrop-engine/internal/storage"
)

const sample = `
platform:
  admin: cosmos1admin00
  max_batch_size: 3
  fee_per_batch: "1"
operators:
  - cosmos1operator00
  - cosmos1operator01
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	f, err := Load(writeSample(t))
	require.NoError(t, err)

	eng := engine.New(storage.NewMemory())
	applied, err := Apply(ctx, eng, f)
	require.NoError(t, err)
	assert.True(t, applied)

	fee, err := eng.EstimateAirdropFee(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(2), fee)

	for _, op := range f.Operators {
		ok, err := eng.IsOperator(ctx, op)
		require.NoError(t, err)
		assert.True(t, ok, "operator %s not seeded", op)
	}
}

func TestApply_SkippedWhenInstantiated(t *testing.T) {
	ctx := context.Background()
	f, err := Load(writeSample(t))
	require.NoError(t, err)

	eng := engine.New(storage.NewMemory())
	_, err = eng.Instantiate(ctx, engine.Info{Sender: "cosmos1other00"}, engine.InstantiateMsg{
		MaxBatchSize: 7,
		FeePerBatch:  uint256.NewInt(9),
	})
	require.NoError(t, err)

	applied, err := Apply(ctx, eng, f)
	require.NoError(t, err)
	assert.False(t, applied)

	// Existing platform untouched.
	fee, err := eng.EstimateAirdropFee(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(9), fee)
}
