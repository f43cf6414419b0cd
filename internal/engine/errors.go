package engine

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrNotInstantiated     = errors.New("platform not instantiated")
	ErrAlreadyInstantiated = errors.New("platform already instantiated")
	ErrLengthMismatch      = errors.New("input lengths mismatch")
	ErrZeroMaxBatchSize    = errors.New("max batch size must be greater than zero")
)

type NotAdminError struct{ Account string }

func (e *NotAdminError) Error() string {
	return fmt.Sprintf("account %q is not the platform admin", e.Account)
}

type NotOperatorError struct{ Account string }

func (e *NotOperatorError) Error() string {
	return fmt.Sprintf("account %q is not an operator", e.Account)
}

type NotCreatorError struct{ Creator string }

func (e *NotCreatorError) Error() string {
	return fmt.Sprintf("caller is not the campaign creator (%q)", e.Creator)
}

type CampaignExistsError struct{ CampaignID string }

func (e *CampaignExistsError) Error() string {
	return fmt.Sprintf("campaign %q already exists", e.CampaignID)
}

type CampaignNotFoundError struct{ CampaignID string }

func (e *CampaignNotFoundError) Error() string {
	return fmt.Sprintf("campaign %q does not exist", e.CampaignID)
}

type CampaignNotActiveError struct {
	CampaignID   string
	StartingTime uint64
}

func (e *CampaignNotActiveError) Error() string {
	return fmt.Sprintf("campaign %q has not started yet (starts at %d)", e.CampaignID, e.StartingTime)
}

type UpdateWindowClosedError struct{ StartingTime uint64 }

func (e *UpdateWindowClosedError) Error() string {
	return fmt.Sprintf("campaign started at %d and can no longer be updated", e.StartingTime)
}

type InsufficientFeeError struct{ Required *uint256.Int }

func (e *InsufficientFeeError) Error() string {
	return fmt.Sprintf("insufficient airdrop fee (required %s)", e.Required.Dec())
}

type InvalidStartTimeError struct {
	StartingTime uint64
	BlockTime    uint64
}

func (e *InvalidStartTimeError) Error() string {
	return fmt.Sprintf("starting time %d is not in the future (block time %d)", e.StartingTime, e.BlockTime)
}

type InvalidAssetTypeError struct{ AssetType AssetType }

func (e *InvalidAssetTypeError) Error() string {
	return fmt.Sprintf("invalid asset type %q", string(e.AssetType))
}

type InvalidAssetIDError struct{ AssetID string }

func (e *InvalidAssetIDError) Error() string {
	return fmt.Sprintf("fungible assets must not carry an asset ID (got %q)", e.AssetID)
}

type InvalidAssetAmountError struct{ Amount *uint256.Int }

func (e *InvalidAssetAmountError) Error() string {
	if e.Amount == nil {
		return "asset amount is missing"
	}
	return fmt.Sprintf("invalid asset amount %s", e.Amount.Dec())
}

type InvalidAddressError struct{ Address string }

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid account address %q", e.Address)
}

type BatchTooLargeError struct {
	Size uint64
	Max  uint64
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch of %d assets exceeds the campaign limit of %d", e.Size, e.Max)
}

type IndexOutOfBoundsError struct {
	Index     uint64
	NumAssets uint64
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("asset index %d out of bounds (campaign has %d assets)", e.Index, e.NumAssets)
}

type DuplicateIndexError struct{ Index uint64 }

func (e *DuplicateIndexError) Error() string {
	return fmt.Sprintf("asset index %d repeated within one batch", e.Index)
}
