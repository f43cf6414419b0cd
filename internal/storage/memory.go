package storage

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"airdrop-engine/internal/engine"
)

// Memory is an in-process engine.Store used by tests and as an ephemeral
// backend. Values are deep-copied on the way in and out so callers can't
// mutate stored state behind the store's back.
type Memory struct {
	mu        sync.RWMutex
	platform  *engine.PlatformConfig
	campaigns map[string]*engine.AirdropCampaign
	operators map[string]bool
	treasury  *uint256.Int
}

var _ engine.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		campaigns: make(map[string]*engine.AirdropCampaign),
		operators: make(map[string]bool),
		treasury:  uint256.NewInt(0),
	}
}

func (m *Memory) GetPlatform(_ context.Context) (*engine.PlatformConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.platform == nil {
		return nil, nil
	}
	out := *m.platform
	out.FeePerBatch = cloneAmount(m.platform.FeePerBatch)
	return &out, nil
}

func (m *Memory) SavePlatform(_ context.Context, platform *engine.PlatformConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *platform
	p.FeePerBatch = cloneAmount(platform.FeePerBatch)
	m.platform = &p
	return nil
}

func (m *Memory) GetCampaign(_ context.Context, campaignID string) (*engine.AirdropCampaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	campaign, ok := m.campaigns[campaignID]
	if !ok {
		return nil, nil
	}
	return cloneCampaign(campaign), nil
}

func (m *Memory) SaveCampaign(_ context.Context, campaign *engine.AirdropCampaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[campaign.CampaignID] = cloneCampaign(campaign)
	return nil
}

func (m *Memory) DeleteCampaign(_ context.Context, campaignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.campaigns, campaignID)
	return nil
}

func (m *Memory) CountCampaigns(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.campaigns)), nil
}

func (m *Memory) SetOperators(_ context.Context, accounts []string, flags []bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, account := range accounts {
		m.operators[account] = flags[i]
	}
	return nil
}

func (m *Memory) IsOperator(_ context.Context, account string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operators[account], nil
}

func (m *Memory) TreasuryBalance(_ context.Context) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAmount(m.treasury), nil
}

func (m *Memory) TreasuryDeposit(_ context.Context, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.treasury = new(uint256.Int).Add(m.treasury, amount)
	return nil
}

func (m *Memory) TreasuryDeduct(_ context.Context, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.treasury = new(uint256.Int).Sub(m.treasury, amount)
	return nil
}

func cloneCampaign(c *engine.AirdropCampaign) *engine.AirdropCampaign {
	out := *c
	out.Assets = make([]engine.Asset, len(c.Assets))
	for i, asset := range c.Assets {
		asset.AvailableAmount = cloneAmount(asset.AvailableAmount)
		out.Assets[i] = asset
	}
	out.TotalAvailableAssets = cloneAmount(c.TotalAvailableAssets)
	out.AirdropFee = cloneAmount(c.AirdropFee)
	return &out
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
