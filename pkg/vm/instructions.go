package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Arithmetic, comparison, and bitwise opcode handlers. Most pop their
// operands off rs.Stack, compute the result into one of the popped words,
// and push it back as the new top item.

func opStop(rs *RunState, ee *EEI) ([]byte, error) { return nil, ErrStop }

func opAdd(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.Add(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opMul(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.Mul(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opSub(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.Sub(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opDiv(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.Div(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opSdiv(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.SDiv(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opMod(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.Mod(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opSmod(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.SMod(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opAddmod(rs *RunState, ee *EEI) ([]byte, error) {
	x, y, z := rs.Stack.Pop3()
	z.AddMod(&x, &y, &z)
	rs.Stack.Push(&z)
	return nil, nil
}

func opMulmod(rs *RunState, ee *EEI) ([]byte, error) {
	x, y, z := rs.Stack.Pop3()
	z.MulMod(&x, &y, &z)
	rs.Stack.Push(&z)
	return nil, nil
}

func opExp(rs *RunState, ee *EEI) ([]byte, error) {
	base, exponent := rs.Stack.Pop2()
	exponent.Exp(&base, &exponent)
	rs.Stack.Push(&exponent)
	return nil, nil
}

func opSignExtend(rs *RunState, ee *EEI) ([]byte, error) {
	back, num := rs.Stack.Pop2()
	num.ExtendSign(&num, &back)
	rs.Stack.Push(&num)
	return nil, nil
}

func opLt(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	if x.Lt(&y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	rs.Stack.Push(&y)
	return nil, nil
}

func opGt(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	if x.Gt(&y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	rs.Stack.Push(&y)
	return nil, nil
}

func opSlt(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	if x.Slt(&y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	rs.Stack.Push(&y)
	return nil, nil
}

func opSgt(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	if x.Sgt(&y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	rs.Stack.Push(&y)
	return nil, nil
}

func opEq(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	if x.Eq(&y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	rs.Stack.Push(&y)
	return nil, nil
}

func opIszero(rs *RunState, ee *EEI) ([]byte, error) {
	x := rs.Stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.And(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opOr(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.Or(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opXor(rs *RunState, ee *EEI) ([]byte, error) {
	x, y := rs.Stack.Pop2()
	y.Xor(&x, &y)
	rs.Stack.Push(&y)
	return nil, nil
}

func opNot(rs *RunState, ee *EEI) ([]byte, error) {
	x := rs.Stack.Peek()
	x.Not(x)
	return nil, nil
}

func opByte(rs *RunState, ee *EEI) ([]byte, error) {
	th, val := rs.Stack.Pop2()
	val.Byte(&th)
	rs.Stack.Push(&val)
	return nil, nil
}

func opSHL(rs *RunState, ee *EEI) ([]byte, error) {
	shift, val := rs.Stack.Pop2()
	if shift.LtUint64(256) {
		val.Lsh(&val, uint(shift.Uint64()))
	} else {
		val.Clear()
	}
	rs.Stack.Push(&val)
	return nil, nil
}

func opSHR(rs *RunState, ee *EEI) ([]byte, error) {
	shift, val := rs.Stack.Pop2()
	if shift.LtUint64(256) {
		val.Rsh(&val, uint(shift.Uint64()))
	} else {
		val.Clear()
	}
	rs.Stack.Push(&val)
	return nil, nil
}

func opSAR(rs *RunState, ee *EEI) ([]byte, error) {
	shift, val := rs.Stack.Pop2()
	if shift.GtUint64(256) {
		if val.Sign() >= 0 {
			val.Clear()
		} else {
			val.SetAllOne()
		}
		rs.Stack.Push(&val)
		return nil, nil
	}
	n := uint(shift.Uint64())
	val.SRsh(&val, n)
	rs.Stack.Push(&val)
	return nil, nil
}

func opKeccak256(rs *RunState, ee *EEI) ([]byte, error) {
	offset, size := rs.Stack.Pop2()
	data := rs.Memory.GetPtr(offset.Uint64(), size.Uint64())
	hash := keccak256(data)
	var result uint256.Int
	result.SetBytes(hash[:])
	rs.Stack.Push(&result)
	return nil, nil
}

func opPop(rs *RunState, ee *EEI) ([]byte, error) {
	rs.Stack.PopDiscard()
	return nil, nil
}

func opMload(rs *RunState, ee *EEI) ([]byte, error) {
	offset := rs.Stack.Peek()
	off := offset.Uint64()
	offset.SetBytes(rs.Memory.GetPtr(off, 32))
	return nil, nil
}

func opMstore(rs *RunState, ee *EEI) ([]byte, error) {
	offset, val := rs.Stack.Pop2()
	rs.Memory.Set32(offset.Uint64(), val.Bytes())
	return nil, nil
}

func opMstore8(rs *RunState, ee *EEI) ([]byte, error) {
	offset, val := rs.Stack.Pop2()
	rs.Memory.Set(offset.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, nil
}

func opSload(rs *RunState, ee *EEI) ([]byte, error) {
	loc := rs.Stack.Peek()
	hash := loc.Bytes32()
	val := ee.GetStorage(ee.Env.Address, hash)
	loc.SetBytes(val[:])
	return nil, nil
}

func opSstore(rs *RunState, ee *EEI) ([]byte, error) {
	loc, val := rs.Stack.Pop2()
	key := loc.Bytes32()
	value := val.Bytes32()
	return nil, ee.SetStorage(ee.Env.Address, key, value)
}

func opJump(rs *RunState, ee *EEI) ([]byte, error) {
	dest := rs.Stack.Pop()
	if !dest.IsUint64() || !rs.ValidJumps.Has(dest.Uint64()) {
		return nil, ErrInvalidJump
	}
	rs.PC = dest.Uint64()
	return nil, errJumped
}

func opJumpi(rs *RunState, ee *EEI) ([]byte, error) {
	dest, cond := rs.Stack.Pop2()
	if cond.IsZero() {
		return nil, nil
	}
	if !dest.IsUint64() || !rs.ValidJumps.Has(dest.Uint64()) {
		return nil, ErrInvalidJump
	}
	rs.PC = dest.Uint64()
	return nil, errJumped
}

func opPc(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(rs.PC)
	rs.Stack.Push(&v)
	return nil, nil
}

func opMsize(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(rs.Memory.Len())
	rs.Stack.Push(&v)
	return nil, nil
}

func opGas(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(ee.GasLeft)
	rs.Stack.Push(&v)
	return nil, nil
}

func opJumpdest(rs *RunState, ee *EEI) ([]byte, error) { return nil, nil }

func opPush0(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	rs.Stack.Push(&v)
	return nil, nil
}

// makePush builds the handler for PUSH1..PUSH32, reading n immediate bytes
// following the opcode (zero-padded if code runs off the end, per spec).
func makePush(n int) executionFunc {
	return func(rs *RunState, ee *EEI) ([]byte, error) {
		start := rs.PC + 1
		var buf [32]byte
		end := start + uint64(n)
		codeLen := uint64(len(rs.Code))
		if start < codeLen {
			copyEnd := end
			if copyEnd > codeLen {
				copyEnd = codeLen
			}
			copy(buf[32-n:32-n+int(copyEnd-start)], rs.Code[start:copyEnd])
		}
		var v uint256.Int
		v.SetBytes(buf[:])
		rs.Stack.Push(&v)
		rs.PC += uint64(n)
		return nil, nil
	}
}

func makeDup(n int) executionFunc {
	return func(rs *RunState, ee *EEI) ([]byte, error) {
		return nil, rs.Stack.Dup(n)
	}
}

func makeSwap(n int) executionFunc {
	return func(rs *RunState, ee *EEI) ([]byte, error) {
		return nil, rs.Stack.Swap(n)
	}
}

func makeLog(n int) executionFunc {
	return func(rs *RunState, ee *EEI) ([]byte, error) {
		offset, size := rs.Stack.Pop2()
		topics := make([]common.Hash, n)
		for i := 0; i < n; i++ {
			t := rs.Stack.Pop()
			topics[i] = common.Hash(t.Bytes32())
		}
		data := rs.Memory.GetPtr(offset.Uint64(), size.Uint64())
		cpy := make([]byte, len(data))
		copy(cpy, data)
		return nil, ee.Log(topics, cpy)
	}
}

// errJumped is a sentinel the interpreter's step loop recognizes to skip its
// normal PC-advance-by-one, since JUMP/JUMPI already set rs.PC directly.
var errJumped = &ExecError{Kind: ErrKindInternal, Msg: "jumped"}
