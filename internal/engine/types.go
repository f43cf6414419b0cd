package engine

import (
	"context"
	"regexp"

	"github.com/holiman/uint256"
)

// AssetType discriminates the shape of an Asset and the transfer
// instruction it requires downstream.
type AssetType string

const (
	AssetFungible     AssetType = "fungible"
	AssetNonFungible  AssetType = "non_fungible"
	AssetSemiFungible AssetType = "semi_fungible"
)

// Asset is one transferable unit pledged to a campaign.
// Invariants enforced at write time: Fungible assets carry no asset ID,
// NonFungible assets carry an available amount of exactly 1.
type Asset struct {
	AssetType       AssetType    `json:"asset_type"`
	AssetAddress    string       `json:"asset_address"`
	AssetID         string       `json:"asset_id"`
	AvailableAmount *uint256.Int `json:"available_amount"`
}

func (a Asset) validate() error {
	switch a.AssetType {
	case AssetFungible:
		if a.AssetID != "" {
			return &InvalidAssetIDError{AssetID: a.AssetID}
		}
	case AssetNonFungible:
		if a.AvailableAmount == nil || !a.AvailableAmount.Eq(uint256.NewInt(1)) {
			return &InvalidAssetAmountError{Amount: a.AvailableAmount}
		}
	case AssetSemiFungible:
	default:
		return &InvalidAssetTypeError{AssetType: a.AssetType}
	}
	if err := ValidateAddress(a.AssetAddress); err != nil {
		return err
	}
	if a.AvailableAmount == nil {
		return &InvalidAssetAmountError{Amount: nil}
	}
	return nil
}

// PlatformConfig is the singleton platform record written at instantiation.
type PlatformConfig struct {
	Admin        string       `json:"admin"`
	MaxBatchSize uint64       `json:"max_batch_size"`
	FeePerBatch  *uint256.Int `json:"fee_per_batch"`
}

// AirdropCampaign is a creator-owned collection of assets pledged for
// distribution. Asset order is significant: it defines the stable index
// airdrop calls refer to. MaxBatchSize is a snapshot of the platform value
// at the last create/update; later platform changes do not affect it.
type AirdropCampaign struct {
	CampaignID           string       `json:"campaign_id"`
	Creator              string       `json:"creator"`
	Assets               []Asset      `json:"assets"`
	MaxBatchSize         uint64       `json:"max_batch_size"`
	StartingTime         uint64       `json:"starting_time"`
	TotalAvailableAssets *uint256.Int `json:"total_available_assets"`
	AirdropFee           *uint256.Int `json:"airdrop_fee"`
}

// Env carries the host execution context for one call.
type Env struct {
	BlockTime uint64 // seconds
}

// Info identifies the caller and any native-currency payment attached
// to the call.
type Info struct {
	Sender  string
	Payment *uint256.Int
}

type InstantiateMsg struct {
	MaxBatchSize uint64       `json:"max_batch_size"`
	FeePerBatch  *uint256.Int `json:"fee_per_batch"`
}

type UpdatePlatformMsg struct {
	MaxBatchSize *uint64      `json:"max_batch_size,omitempty"`
	FeePerBatch  *uint256.Int `json:"fee_per_batch,omitempty"`
}

type SetOperatorsMsg struct {
	Accounts []string `json:"accounts"`
	Flags    []bool   `json:"flags"`
}

type CreateCampaignMsg struct {
	CampaignID   string  `json:"campaign_id"`
	Assets       []Asset `json:"assets"`
	StartingTime uint64  `json:"starting_time"`
}

type UpdateCampaignMsg struct {
	CampaignID   string  `json:"campaign_id"`
	Assets       []Asset `json:"assets"`
	StartingTime uint64  `json:"starting_time"`
}

type AirdropMsg struct {
	CampaignID   string   `json:"campaign_id"`
	AssetIndexes []uint64 `json:"asset_indexes"`
	Recipients   []string `json:"recipients"`
}

type WithdrawFeeMsg struct {
	Recipient string `json:"recipient"`
}

// Response carries the ordered, deferred transfer instructions emitted by
// an execute call. The host applies them atomically with the call.
type Response struct {
	Instructions []Instruction `json:"instructions"`
}

// Store is the persistence handle every operation works through. Absent
// records are reported as (nil, nil); infrastructure failures as errors.
type Store interface {
	GetPlatform(ctx context.Context) (*PlatformConfig, error)
	SavePlatform(ctx context.Context, platform *PlatformConfig) error

	GetCampaign(ctx context.Context, campaignID string) (*AirdropCampaign, error)
	SaveCampaign(ctx context.Context, campaign *AirdropCampaign) error
	DeleteCampaign(ctx context.Context, campaignID string) error

	SetOperators(ctx context.Context, accounts []string, flags []bool) error
	IsOperator(ctx context.Context, account string) (bool, error)

	TreasuryBalance(ctx context.Context) (*uint256.Int, error)
	TreasuryDeposit(ctx context.Context, amount *uint256.Int) error
	TreasuryDeduct(ctx context.Context, amount *uint256.Int) error
}

var addressPattern = regexp.MustCompile(`^[a-z0-9]{3,90}$`)

// ValidateAddress checks that s is a well-formed account identity
// (lowercase bech32-style alphanumeric).
func ValidateAddress(s string) error {
	if !addressPattern.MatchString(s) {
		return &InvalidAddressError{Address: s}
	}
	return nil
}
