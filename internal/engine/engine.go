// Package engine implements the airdrop distribution core: platform
// configuration, campaign lifecycle, operator registry, fee treasury and the
// batched distribution state machine. All state is reached through an
// explicit Store handle; block time and caller identity arrive per call, so
// the package stays free of clocks, transports and storage drivers.
package engine

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"airdrop-engine/internal/cache"
)

// Engine serializes execute calls the way the host serializes contract
// transactions: one call runs to completion before the next is admitted.
type Engine struct {
	mu       sync.Mutex
	store    Store
	platform cache.Snapshot[*PlatformConfig]
}

func New(store Store) *Engine {
	return &Engine{store: store}
}

// loadPlatform reads the platform config through a write-through snapshot
// cache; the record only changes via Instantiate/UpdatePlatformConfig.
func (e *Engine) loadPlatform(ctx context.Context) (*PlatformConfig, error) {
	if p, ok := e.platform.Load(); ok {
		return p, nil
	}
	p, err := e.store.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotInstantiated
	}
	e.platform.Store(p)
	return p, nil
}

func (e *Engine) requireAdmin(ctx context.Context, sender string) (*PlatformConfig, error) {
	platform, err := e.loadPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if sender != platform.Admin {
		return nil, &NotAdminError{Account: sender}
	}
	return platform, nil
}

// Instantiate writes the singleton platform record with the caller as admin.
// A second instantiation fails.
func (e *Engine) Instantiate(ctx context.Context, info Info, msg InstantiateMsg) (*PlatformConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.store.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyInstantiated
	}
	if msg.MaxBatchSize == 0 {
		return nil, ErrZeroMaxBatchSize
	}
	if err := ValidateAddress(info.Sender); err != nil {
		return nil, err
	}
	platform := &PlatformConfig{
		Admin:        info.Sender,
		MaxBatchSize: msg.MaxBatchSize,
		FeePerBatch:  amountOrZero(msg.FeePerBatch),
	}
	if err := e.store.SavePlatform(ctx, platform); err != nil {
		return nil, err
	}
	e.platform.Store(platform)
	return platform, nil
}

// UpdatePlatformConfig applies admin-only setters for the batch limit and
// per-batch fee. Existing campaigns keep their snapshotted values.
func (e *Engine) UpdatePlatformConfig(ctx context.Context, info Info, msg UpdatePlatformMsg) (*PlatformConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	platform, err := e.requireAdmin(ctx, info.Sender)
	if err != nil {
		return nil, err
	}
	next := *platform
	if msg.MaxBatchSize != nil {
		if *msg.MaxBatchSize == 0 {
			return nil, ErrZeroMaxBatchSize
		}
		next.MaxBatchSize = *msg.MaxBatchSize
	}
	if msg.FeePerBatch != nil {
		next.FeePerBatch = msg.FeePerBatch
	}
	if err := e.store.SavePlatform(ctx, &next); err != nil {
		return nil, err
	}
	e.platform.Store(&next)
	return &next, nil
}

// SetOperators writes (account, flag) pairs into the operator registry,
// overwriting prior entries. Admin only.
func (e *Engine) SetOperators(ctx context.Context, info Info, msg SetOperatorsMsg) (*Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.requireAdmin(ctx, info.Sender); err != nil {
		return nil, err
	}
	if len(msg.Accounts) != len(msg.Flags) {
		return nil, ErrLengthMismatch
	}
	for _, account := range msg.Accounts {
		if err := ValidateAddress(account); err != nil {
			return nil, err
		}
	}
	if err := e.store.SetOperators(ctx, msg.Accounts, msg.Flags); err != nil {
		return nil, err
	}
	return &Response{}, nil
}

// CreateCampaign registers a new campaign. The attached payment must cover
// the estimated fee; any excess is refunded to the sender in the response.
func (e *Engine) CreateCampaign(ctx context.Context, env Env, info Info, msg CreateCampaignMsg) (*Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	platform, err := e.loadPlatform(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := e.store.GetCampaign(ctx, msg.CampaignID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &CampaignExistsError{CampaignID: msg.CampaignID}
	}

	fee, err := EstimateFee(uint64(len(msg.Assets)), platform)
	if err != nil {
		return nil, err
	}
	payment := amountOrZero(info.Payment)
	if payment.Lt(fee) {
		return nil, &InsufficientFeeError{Required: fee}
	}
	var instructions []Instruction
	if excess := new(uint256.Int).Sub(payment, fee); !excess.IsZero() {
		instructions = append(instructions, NativeSend(info.Sender, excess))
	}

	if err := validateSchedule(env, msg.StartingTime); err != nil {
		return nil, err
	}
	if err := validateAssets(msg.Assets); err != nil {
		return nil, err
	}

	campaign := &AirdropCampaign{
		CampaignID:           msg.CampaignID,
		Creator:              info.Sender,
		Assets:               msg.Assets,
		MaxBatchSize:         platform.MaxBatchSize,
		StartingTime:         msg.StartingTime,
		TotalAvailableAssets: sumAssets(msg.Assets),
		AirdropFee:           fee,
	}
	if err := e.store.SaveCampaign(ctx, campaign); err != nil {
		return nil, err
	}
	if err := e.store.TreasuryDeposit(ctx, fee); err != nil {
		return nil, err
	}
	return &Response{Instructions: instructions}, nil
}

// UpdateCampaign replaces a campaign's asset list and schedule wholesale.
// Only the creator may update, and only strictly before the starting time.
// The escrowed fee is reconciled against the new asset count: an increase
// must be covered by the attached payment, a decrease is refunded, and any
// overpayment is returned in the same combined transfer.
func (e *Engine) UpdateCampaign(ctx context.Context, env Env, info Info, msg UpdateCampaignMsg) (*Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	platform, err := e.loadPlatform(ctx)
	if err != nil {
		return nil, err
	}
	campaign, err := e.store.GetCampaign(ctx, msg.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &CampaignNotFoundError{CampaignID: msg.CampaignID}
	}
	if campaign.Creator != info.Sender {
		return nil, &NotCreatorError{Creator: campaign.Creator}
	}
	if env.BlockTime >= campaign.StartingTime {
		return nil, &UpdateWindowClosedError{StartingTime: campaign.StartingTime}
	}

	newFee, err := EstimateFee(uint64(len(msg.Assets)), platform)
	if err != nil {
		return nil, err
	}
	payment := amountOrZero(info.Payment)
	owed := uint256.NewInt(0)
	if newFee.Gt(campaign.AirdropFee) {
		owed = new(uint256.Int).Sub(newFee, campaign.AirdropFee)
	}
	if payment.Lt(owed) {
		return nil, &InsufficientFeeError{Required: owed}
	}
	// refund = payment + old fee - new fee; the gate above keeps this
	// non-negative in both the fee-increase and fee-decrease cases.
	refund := new(uint256.Int).Add(payment, campaign.AirdropFee)
	refund.Sub(refund, newFee)
	var instructions []Instruction
	if !refund.IsZero() {
		instructions = append(instructions, NativeSend(info.Sender, refund))
	}

	if err := validateSchedule(env, msg.StartingTime); err != nil {
		return nil, err
	}
	if err := validateAssets(msg.Assets); err != nil {
		return nil, err
	}

	next := &AirdropCampaign{
		CampaignID:           msg.CampaignID,
		Creator:              campaign.Creator,
		Assets:               msg.Assets,
		MaxBatchSize:         platform.MaxBatchSize,
		StartingTime:         msg.StartingTime,
		TotalAvailableAssets: sumAssets(msg.Assets),
		AirdropFee:           newFee,
	}
	if err := e.store.SaveCampaign(ctx, next); err != nil {
		return nil, err
	}
	switch newFee.Cmp(campaign.AirdropFee) {
	case 1:
		err = e.store.TreasuryDeposit(ctx, new(uint256.Int).Sub(newFee, campaign.AirdropFee))
	case -1:
		err = e.store.TreasuryDeduct(ctx, new(uint256.Int).Sub(campaign.AirdropFee, newFee))
	}
	if err != nil {
		return nil, err
	}
	return &Response{Instructions: instructions}, nil
}

// Airdrop distributes one batch of (asset index, recipient) pairs. Each
// dispatched asset is drained in full: the instruction carries the current
// available amount, which is then zeroed and subtracted from the campaign
// total. A campaign whose total reaches zero is deleted.
func (e *Engine) Airdrop(ctx context.Context, env Env, info Info, msg AirdropMsg) (*Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	authorized, err := e.store.IsOperator(ctx, info.Sender)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, &NotOperatorError{Account: info.Sender}
	}
	campaign, err := e.store.GetCampaign(ctx, msg.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &CampaignNotFoundError{CampaignID: msg.CampaignID}
	}
	if env.BlockTime < campaign.StartingTime {
		return nil, &CampaignNotActiveError{CampaignID: campaign.CampaignID, StartingTime: campaign.StartingTime}
	}
	if len(msg.AssetIndexes) != len(msg.Recipients) {
		return nil, ErrLengthMismatch
	}
	if uint64(len(msg.AssetIndexes)) > campaign.MaxBatchSize {
		return nil, &BatchTooLargeError{Size: uint64(len(msg.AssetIndexes)), Max: campaign.MaxBatchSize}
	}

	instructions := make([]Instruction, 0, len(msg.AssetIndexes))
	seen := make(map[uint64]struct{}, len(msg.AssetIndexes))
	for i, index := range msg.AssetIndexes {
		if _, dup := seen[index]; dup {
			return nil, &DuplicateIndexError{Index: index}
		}
		seen[index] = struct{}{}
		if index >= uint64(len(campaign.Assets)) {
			return nil, &IndexOutOfBoundsError{Index: index, NumAssets: uint64(len(campaign.Assets))}
		}
		recipient := msg.Recipients[i]
		if err := ValidateAddress(recipient); err != nil {
			return nil, err
		}
		asset := &campaign.Assets[index]
		switch asset.AssetType {
		case AssetFungible:
			instructions = append(instructions, TokenTransfer(asset.AssetAddress, campaign.Creator, recipient, asset.AvailableAmount))
		case AssetNonFungible:
			instructions = append(instructions, NFTTransfer(asset.AssetAddress, asset.AssetID, recipient))
		case AssetSemiFungible:
			instructions = append(instructions, MultiTokenTransfer(asset.AssetAddress, asset.AssetID, campaign.Creator, recipient, asset.AvailableAmount))
		default:
			return nil, &InvalidAssetTypeError{AssetType: asset.AssetType}
		}
		campaign.TotalAvailableAssets = new(uint256.Int).Sub(campaign.TotalAvailableAssets, asset.AvailableAmount)
		asset.AvailableAmount = uint256.NewInt(0)
	}

	if campaign.TotalAvailableAssets.IsZero() {
		err = e.store.DeleteCampaign(ctx, campaign.CampaignID)
	} else {
		err = e.store.SaveCampaign(ctx, campaign)
	}
	if err != nil {
		return nil, err
	}
	return &Response{Instructions: instructions}, nil
}

// WithdrawFee drains the full treasury balance to the recipient. Admin only.
func (e *Engine) WithdrawFee(ctx context.Context, info Info, msg WithdrawFeeMsg) (*Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.requireAdmin(ctx, info.Sender); err != nil {
		return nil, err
	}
	if err := ValidateAddress(msg.Recipient); err != nil {
		return nil, err
	}
	balance, err := e.store.TreasuryBalance(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.store.TreasuryDeduct(ctx, balance); err != nil {
		return nil, err
	}
	return &Response{Instructions: []Instruction{NativeSend(msg.Recipient, balance)}}, nil
}

// EstimateAirdropFee is the read-only fee query, callable by anyone.
func (e *Engine) EstimateAirdropFee(ctx context.Context, numAssets uint64) (*uint256.Int, error) {
	platform, err := e.loadPlatform(ctx)
	if err != nil {
		return nil, err
	}
	return EstimateFee(numAssets, platform)
}

// GetCampaign returns a campaign by ID or CampaignNotFoundError. Exhausted
// campaigns are deleted and therefore not found.
func (e *Engine) GetCampaign(ctx context.Context, campaignID string) (*AirdropCampaign, error) {
	campaign, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &CampaignNotFoundError{CampaignID: campaignID}
	}
	return campaign, nil
}

// IsOperator reports whether the account's registry flag is explicitly true.
func (e *Engine) IsOperator(ctx context.Context, account string) (bool, error) {
	return e.store.IsOperator(ctx, account)
}

func validateSchedule(env Env, startingTime uint64) error {
	if env.BlockTime >= startingTime {
		return &InvalidStartTimeError{StartingTime: startingTime, BlockTime: env.BlockTime}
	}
	return nil
}

func validateAssets(assets []Asset) error {
	for _, asset := range assets {
		if err := asset.validate(); err != nil {
			return err
		}
	}
	return nil
}

func sumAssets(assets []Asset) *uint256.Int {
	total := uint256.NewInt(0)
	for _, asset := range assets {
		total.Add(total, asset.AvailableAmount)
	}
	return total
}

func amountOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return v
}
