package vm

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"
)

// PrecompiledContract is a native-code contract living at a well-known
// low address (0x01-0x0a on mainnet). Unlike OVM State-Manager calls,
// precompiles run actual Go code rather than being served from host state.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// PrecompiledContracts is the Frontier precompile set (0x01-0x04) at its
// standard addresses. Nothing from 0x05 upward is registered: not the
// Byzantium additions (modexp, bn256), nor point evaluation (0x0a) or the
// BLS12-381 family. This runner traces OVM-sandboxed contract calls, and
// implementing full BLS field arithmetic is out of scope here.
var PrecompiledContracts = map[common.Address]PrecompiledContract{
	common.BytesToAddress([]byte{1}): ecrecoverPrecompile{},
	common.BytesToAddress([]byte{2}): sha256hashPrecompile{},
	common.BytesToAddress([]byte{3}): ripemd160Precompile{},
	common.BytesToAddress([]byte{4}): identityPrecompile{},
}

type ecrecoverPrecompile struct{}

func (ecrecoverPrecompile) RequiredGas([]byte) uint64 { return 3000 }

func (ecrecoverPrecompile) Run(input []byte) ([]byte, error) {
	const ecrecoverInputLength = 128
	input = rightPad(input, ecrecoverInputLength)

	hash := input[:32]
	v := input[63]
	if !allZero(input[32:63]) || (v != 27 && v != 28) {
		return nil, nil
	}

	sig := make([]byte, 65)
	copy(sig[:64], input[64:128])
	sig[64] = v - 27

	pubKey, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil
	}
	addrHash := crypto.Keccak256(pubKey[1:])
	out := make([]byte, 32)
	copy(out[12:], addrHash[12:])
	return out, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

type sha256hashPrecompile struct{}

func (sha256hashPrecompile) RequiredGas(input []byte) uint64 {
	return 60 + 12*uint64((len(input)+31)/32)
}

func (sha256hashPrecompile) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

type ripemd160Precompile struct{}

func (ripemd160Precompile) RequiredGas(input []byte) uint64 {
	return 600 + 120*uint64((len(input)+31)/32)
}

func (ripemd160Precompile) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	sum := h.Sum(nil)
	out := make([]byte, 32)
	copy(out[12:], sum)
	return out, nil
}

type identityPrecompile struct{}

func (identityPrecompile) RequiredGas(input []byte) uint64 {
	return 15 + 3*uint64((len(input)+31)/32)
}

func (identityPrecompile) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

func rightPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b[:size]
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}
