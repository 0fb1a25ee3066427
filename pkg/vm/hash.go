package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// keccak256 hashes data using the Keccak-256 function the KECCAK256 opcode
// and CREATE/CREATE2 address derivation both rely on.
func keccak256(data []byte) common.Hash {
	return crypto.Keccak256Hash(data)
}
