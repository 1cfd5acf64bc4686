// Package signer loads local signing keys and signs transactions for the
// real wallet provider. Mock mode never touches this package.
package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer produces signed transactions for a single account. SignTx must
// bind the signature to the given chain id.
type Signer interface {
	Address() common.Address
	SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}
