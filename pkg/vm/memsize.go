package vm

import "github.com/holiman/uint256"

// calcMemSize returns offset+size as a checked uint64, with overflow=true
// if either operand doesn't fit in a uint64 or the sum overflows. A zero
// size never requires any memory, regardless of offset.
func calcMemSize(offset, size *uint256.Int) (uint64, bool) {
	if size.IsZero() {
		return 0, false
	}
	if !offset.IsUint64() || !size.IsUint64() {
		return 0, true
	}
	sum := offset.Uint64() + size.Uint64()
	return sum, sum < offset.Uint64()
}

func memSizeKeccak256(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(1))
}

func memSizeCopy3(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(2))
}

func memSizeExtCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(1), stack.Back(3))
}

func memSizeMLoad(stack *Stack) (uint64, bool) {
	return calcMemSizeFixed(stack.Back(0), 32)
}

func memSizeMStore(stack *Stack) (uint64, bool) {
	return calcMemSizeFixed(stack.Back(0), 32)
}

func memSizeMStore8(stack *Stack) (uint64, bool) {
	return calcMemSizeFixed(stack.Back(0), 1)
}

func calcMemSizeFixed(offset *uint256.Int, size uint64) (uint64, bool) {
	if !offset.IsUint64() {
		return 0, true
	}
	sum := offset.Uint64() + size
	return sum, sum < offset.Uint64()
}

func memSizeLog(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(1))
}

func memSizeCreate(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(1), stack.Back(2))
}

func memSizeReturn(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(1))
}

func memSizeCallWithValue(stack *Stack) (uint64, bool) {
	return memSizeCallLike(stack, 3, 4, 5, 6)
}

func memSizeCallNoValue(stack *Stack) (uint64, bool) {
	return memSizeCallLike(stack, 2, 3, 4, 5)
}

func memSizeCallLike(stack *Stack, inOff, inSize, outOff, outSize int) (uint64, bool) {
	in, overflow1 := calcMemSize(stack.Back(inOff), stack.Back(inSize))
	out, overflow2 := calcMemSize(stack.Back(outOff), stack.Back(outSize))
	if overflow1 || overflow2 {
		return 0, true
	}
	if in > out {
		return in, false
	}
	return out, false
}
