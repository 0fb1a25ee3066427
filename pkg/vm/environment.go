package vm

import "github.com/holiman/uint256"

// Environment accessor opcodes: each pushes a single value derived from
// ee.Env or ee.host.BlockContext(), none of them touch memory or storage.

func opAddress(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetBytes(ee.Env.Address.Bytes())
	rs.Stack.Push(&v)
	return nil, nil
}

func opBalance(rs *RunState, ee *EEI) ([]byte, error) {
	slot := rs.Stack.Peek()
	addr := addressFromWord(slot)
	var v uint256.Int
	v.SetFromBig(ee.GetBalance(addr))
	*slot = v
	return nil, nil
}

func opOrigin(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetBytes(ee.Env.Origin.Bytes())
	rs.Stack.Push(&v)
	return nil, nil
}

func opCaller(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetBytes(ee.Env.Caller.Bytes())
	rs.Stack.Push(&v)
	return nil, nil
}

func opCallValue(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(ee.Env.CallValue)
	rs.Stack.Push(&v)
	return nil, nil
}

func opCallDataLoad(rs *RunState, ee *EEI) ([]byte, error) {
	x := rs.Stack.Peek()
	if x.IsUint64() {
		x.SetBytes(getDataBig(ee.Env.CallData, x.Uint64(), 32))
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(uint64(len(ee.Env.CallData)))
	rs.Stack.Push(&v)
	return nil, nil
}

func opCallDataCopy(rs *RunState, ee *EEI) ([]byte, error) {
	memOffset, dataOffset, length := rs.Stack.Pop3()
	if !dataOffset.IsUint64() {
		dataOffset.SetAllOne()
	}
	data := getDataBig(ee.Env.CallData, dataOffset.Uint64(), length.Uint64())
	rs.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opCodeSize(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(uint64(len(rs.Code)))
	rs.Stack.Push(&v)
	return nil, nil
}

func opCodeCopy(rs *RunState, ee *EEI) ([]byte, error) {
	memOffset, codeOffset, length := rs.Stack.Pop3()
	if !codeOffset.IsUint64() {
		codeOffset.SetAllOne()
	}
	data := getDataBig(rs.Code, codeOffset.Uint64(), length.Uint64())
	rs.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opGasPrice(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(ee.Env.GasPrice)
	rs.Stack.Push(&v)
	return nil, nil
}

func opExtCodeSize(rs *RunState, ee *EEI) ([]byte, error) {
	slot := rs.Stack.Peek()
	addr := addressFromWord(slot)
	slot.SetUint64(uint64(ee.GetCodeSize(addr)))
	return nil, nil
}

func opExtCodeCopy(rs *RunState, ee *EEI) ([]byte, error) {
	addrWord, memOffset, codeOffset, length := rs.Stack.Pop(), rs.Stack.Pop(), rs.Stack.Pop(), rs.Stack.Pop()
	addr := addressFromWord(&addrWord)
	if !codeOffset.IsUint64() {
		codeOffset.SetAllOne()
	}
	code := ee.GetCode(addr)
	data := getDataBig(code, codeOffset.Uint64(), length.Uint64())
	rs.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opReturnDataSize(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(uint64(len(rs.LastRet)))
	rs.Stack.Push(&v)
	return nil, nil
}

func opReturnDataCopy(rs *RunState, ee *EEI) ([]byte, error) {
	memOffset, dataOffset, length := rs.Stack.Pop3()
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, NewExecError(ErrKindInternal, "returndata offset overflow")
	}
	end := new(uint256.Int).Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(rs.LastRet)) < end64 {
		return nil, NewExecError(ErrKindInternal, "returndata out of bounds")
	}
	data := make([]byte, length.Uint64())
	copy(data, rs.LastRet[offset64:end64])
	rs.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opExtCodeHash(rs *RunState, ee *EEI) ([]byte, error) {
	slot := rs.Stack.Peek()
	addr := addressFromWord(slot)
	if !ee.Exist(addr) {
		slot.Clear()
		return nil, nil
	}
	hash := ee.GetCodeHash(addr)
	slot.SetBytes(hash.Bytes())
	return nil, nil
}

func opBlockHash(rs *RunState, ee *EEI) ([]byte, error) {
	num := rs.Stack.Peek()
	if !num.IsUint64() {
		num.Clear()
		return nil, nil
	}
	hash := ee.GetHash(num.Uint64())
	num.SetBytes(hash.Bytes())
	return nil, nil
}

func opCoinbase(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetBytes(ee.Env.Block.Coinbase.Bytes())
	rs.Stack.Push(&v)
	return nil, nil
}

func opTimestamp(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(ee.Env.Block.Time)
	rs.Stack.Push(&v)
	return nil, nil
}

func opNumber(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(ee.Env.Block.BlockNumber)
	rs.Stack.Push(&v)
	return nil, nil
}

// opDifficulty serves both DIFFICULTY (pre-Paris) and PREVRANDAO
// (post-Paris), which share an opcode byte: post-merge clients populate
// BlockContext.Random instead of Difficulty.
func opDifficulty(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	if !isZeroHash(ee.Env.Block.Random) {
		v.SetBytes(ee.Env.Block.Random.Bytes())
	} else if ee.Env.Block.Difficulty != nil {
		v.SetFromBig(ee.Env.Block.Difficulty)
	}
	rs.Stack.Push(&v)
	return nil, nil
}

func opGasLimit(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(ee.Env.Block.GasLimit)
	rs.Stack.Push(&v)
	return nil, nil
}

func opChainID(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(ee.Env.Block.ChainID)
	rs.Stack.Push(&v)
	return nil, nil
}

func opSelfBalance(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(ee.GetBalance(ee.Env.Address))
	rs.Stack.Push(&v)
	return nil, nil
}

func opBaseFee(rs *RunState, ee *EEI) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(ee.Env.Block.BaseFee)
	rs.Stack.Push(&v)
	return nil, nil
}
