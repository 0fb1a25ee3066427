package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// addressFromWord truncates a 256-bit stack word to the low 160 bits, the
// way every address-taking opcode (BALANCE, EXTCODESIZE, CALL, ...)
// interprets its address operand.
func addressFromWord(w *uint256.Int) common.Address {
	return common.Address(w.Bytes20())
}

// getDataBig returns size bytes from data starting at offset, zero-padded
// if the requested window runs past the end of data. offset and size are
// taken as plain uint64 by callers after clamping overflowing 256-bit
// operands to the all-ones sentinel, which always falls outside len(data).
func getDataBig(data []byte, offset, size uint64) []byte {
	length := uint64(len(data))
	if offset > length {
		offset = length
	}
	end := offset + size
	if end > length {
		end = length
	}
	out := make([]byte, size)
	copy(out, data[offset:end])
	return out
}

func isZeroHash(h common.Hash) bool {
	return h == common.Hash{}
}
