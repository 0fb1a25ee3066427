// Package ovm implements the Optimistic Virtual Machine's message executor:
// a recursive call/create interpreter that rewrites depth-0 entry messages
// to route through the Execution Manager and serves State-Manager calls
// from host state instead of executing them as real bytecode.
package ovm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// CreateAddress derives the address a CREATE deployment from caller at
// nonce produces: keccak256(rlp([caller, nonce]))[12:].
func CreateAddress(caller common.Address, nonce uint64) common.Address {
	data, err := rlp.EncodeToBytes([]interface{}{caller, nonce})
	if err != nil {
		// rlp encoding of (Address, uint64) cannot fail; a panic here would
		// indicate a go-ethereum rlp regression, not a recoverable runner error.
		panic(err)
	}
	hash := crypto.Keccak256(data)
	var addr common.Address
	copy(addr[:], hash[12:])
	return addr
}

// CreateAddress2 derives the address a CREATE2 deployment produces:
// keccak256(0xff ++ caller ++ salt ++ keccak256(initCode))[12:].
func CreateAddress2(caller common.Address, salt *big.Int, initCode []byte) common.Address {
	saltWord, _ := uint256.FromBig(salt)
	saltBytes := saltWord.Bytes32()
	codeHash := crypto.Keccak256(initCode)

	buf := make([]byte, 0, 1+20+32+32)
	buf = append(buf, 0xff)
	buf = append(buf, caller.Bytes()...)
	buf = append(buf, saltBytes[:]...)
	buf = append(buf, codeHash...)

	hash := crypto.Keccak256(buf)
	var addr common.Address
	copy(addr[:], hash[12:])
	return addr
}
