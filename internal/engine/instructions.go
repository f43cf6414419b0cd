package engine

import "github.com/holiman/uint256"

// InstructionKind selects the downstream contract and message shape an
// instruction targets.
type InstructionKind string

const (
	// InstructionNativeSend moves native currency held by the contract
	// (fee refunds, treasury withdrawals).
	InstructionNativeSend InstructionKind = "native_send"
	// InstructionTokenTransfer is a transfer-on-behalf against a fungible
	// token contract.
	InstructionTokenTransfer InstructionKind = "token_transfer"
	// InstructionNFTTransfer moves one unique token to a recipient.
	InstructionNFTTransfer InstructionKind = "nft_transfer"
	// InstructionMultiTokenTransfer is a transfer-on-behalf of a
	// semi-fungible token class.
	InstructionMultiTokenTransfer InstructionKind = "multi_token_transfer"
)

// Instruction is one deferred outbound transfer. Instructions are emitted in
// construction order and executed by the host atomically with the call that
// produced them; the engine never executes them in-line.
type Instruction struct {
	Kind     InstructionKind `json:"kind"`
	Contract string          `json:"contract,omitempty"`
	From     string          `json:"from,omitempty"`
	To       string          `json:"to"`
	TokenID  string          `json:"token_id,omitempty"`
	Amount   *uint256.Int    `json:"amount,omitempty"`
}

func NativeSend(to string, amount *uint256.Int) Instruction {
	return Instruction{Kind: InstructionNativeSend, To: to, Amount: amount}
}

func TokenTransfer(contract, from, to string, amount *uint256.Int) Instruction {
	return Instruction{Kind: InstructionTokenTransfer, Contract: contract, From: from, To: to, Amount: amount}
}

func NFTTransfer(contract, tokenID, to string) Instruction {
	return Instruction{Kind: InstructionNFTTransfer, Contract: contract, TokenID: tokenID, To: to}
}

func MultiTokenTransfer(contract, tokenID, from, to string, amount *uint256.Int) Instruction {
	return Instruction{Kind: InstructionMultiTokenTransfer, Contract: contract, TokenID: tokenID, From: from, To: to, Amount: amount}
}
