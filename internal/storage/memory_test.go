package storage

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdrop-engine/internal/engine"
)

func TestMemory_CampaignRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.GetCampaign(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	campaign := &engine.AirdropCampaign{
		CampaignID: "c1",
		Creator:    "cosmos1creator00",
		Assets: []engine.Asset{{
			AssetType:       engine.AssetFungible,
			AssetAddress:    "cosmos1token",
			AvailableAmount: uint256.NewInt(100),
		}},
		MaxBatchSize:         3,
		StartingTime:         1000,
		TotalAvailableAssets: uint256.NewInt(100),
		AirdropFee:           uint256.NewInt(1),
	}
	require.NoError(t, m.SaveCampaign(ctx, campaign))

	got, err = m.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, campaign, got)

	// Mutating the returned copy must not leak into the store.
	got.Assets[0].AvailableAmount.Clear()
	got.TotalAvailableAssets.Clear()

	again, err := m.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), again.Assets[0].AvailableAmount)
	assert.Equal(t, uint256.NewInt(100), again.TotalAvailableAssets)

	require.NoError(t, m.DeleteCampaign(ctx, "c1"))
	got, err = m.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_Operators(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.IsOperator(ctx, "cosmos1op")
	require.NoError(t, err)
	assert.False(t, ok, "absent accounts are not authorized")

	require.NoError(t, m.SetOperators(ctx, []string{"cosmos1op", "cosmos1ex"}, []bool{true, false}))

	ok, err = m.IsOperator(ctx, "cosmos1op")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.IsOperator(ctx, "cosmos1ex")
	require.NoError(t, err)
	assert.False(t, ok, "explicit false flag is not authorized")
}

func TestMemory_Treasury(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	balance, err := m.TreasuryBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	require.NoError(t, m.TreasuryDeposit(ctx, uint256.NewInt(5)))
	require.NoError(t, m.TreasuryDeposit(ctx, uint256.NewInt(2)))
	require.NoError(t, m.TreasuryDeduct(ctx, uint256.NewInt(3)))

	balance, err = m.TreasuryBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(4), balance)
}
