package vm

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Call/create opcode handlers. Each builds a Message and recurses through
// ee.Call, then writes the child's success flag and return data back onto
// the caller's stack and memory the way the Yellow Paper's message-call
// semantics require.

func opCall(rs *RunState, ee *EEI) ([]byte, error) {
	return doCall(rs, ee, CallKindCall)
}

func opCallCode(rs *RunState, ee *EEI) ([]byte, error) {
	return doCall(rs, ee, CallKindCallCode)
}

func opDelegateCall(rs *RunState, ee *EEI) ([]byte, error) {
	return doCall(rs, ee, CallKindDelegateCall)
}

func opStaticCall(rs *RunState, ee *EEI) ([]byte, error) {
	return doCall(rs, ee, CallKindStaticCall)
}

func doCall(rs *RunState, ee *EEI, kind CallKind) ([]byte, error) {
	gas := rs.Stack.Pop()
	addrWord := rs.Stack.Pop()
	var value uint256.Int
	if kind == CallKindCall || kind == CallKindCallCode {
		value = rs.Stack.Pop()
	}
	inOffset, inSize := rs.Stack.Pop(), rs.Stack.Pop()
	retOffset, retSize := rs.Stack.Pop(), rs.Stack.Pop()

	if kind == CallKindCall && ee.Env.IsStatic && value.Sign() != 0 {
		return nil, ErrStaticStateChange
	}

	addr := addressFromWord(&addrWord)
	args := rs.Memory.Get(inOffset.Uint64(), inSize.Uint64())

	msg := &Message{
		Caller:      ee.Env.Address,
		To:          addr,
		CodeAddress: addr,
		Data:        args,
		GasLimit:    callGas(ee, gas),
		IsStatic:    ee.Env.IsStatic || kind == CallKindStaticCall,
		Origin:      ee.Env.Origin,
		GasPrice:    ee.Env.GasPrice,
	}
	switch kind {
	case CallKindCall:
		msg.Kind = CallKindCall
		msg.Value = value.ToBig()
	case CallKindCallCode:
		msg.Kind = CallKindCallCode
		msg.Value = value.ToBig()
		msg.To = ee.Env.Address
	case CallKindDelegateCall:
		msg.Kind = CallKindDelegateCall
		msg.Value = new(big.Int).Set(ee.Env.CallValue)
		msg.To = ee.Env.Address
		msg.Caller = ee.Env.Caller
	case CallKindStaticCall:
		msg.Kind = CallKindStaticCall
		msg.Value = new(big.Int)
	}
	if (kind == CallKindCall || kind == CallKindCallCode) && value.Sign() != 0 {
		// EIP-150 stipend: a value-transferring call always carries at
		// least 2300 free gas for the callee, on top of the 63/64 cap.
		// EEI.Call debits the whole GasLimit, so the stipend is credited
		// to this frame first and never comes out of the caller's gas.
		stipend := new(big.Int).SetUint64(CallStipend)
		msg.GasLimit = new(big.Int).Add(msg.GasLimit, stipend)
		ee.RefundGas(stipend)
	}

	res := ee.Call(msg)
	rs.LastRet = res.ReturnData
	if res.ReturnData != nil {
		rs.Memory.Set(retOffset.Uint64(), min64(retSize.Uint64(), uint64(len(res.ReturnData))), res.ReturnData)
	}

	var success uint256.Int
	if !res.Failed() {
		success.SetOne()
	}
	rs.Stack.Push(&success)
	return nil, nil
}

// callGas converts the stack-supplied gas cap into the EIP-150 63/64
// forwarding amount, capped at the caller's remaining gas.
func callGas(ee *EEI, requested uint256.Int) *big.Int {
	available := new(big.Int).Set(ee.GasLeft)
	capped := new(big.Int).Div(new(big.Int).Mul(available, big.NewInt(int64(CallGasFraction-1))), big.NewInt(int64(CallGasFraction)))
	req := requested.ToBig()
	if req.Cmp(capped) > 0 || !requested.IsUint64() {
		return capped
	}
	return req
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func opCreate(rs *RunState, ee *EEI) ([]byte, error) {
	return doCreate(rs, ee, CallKindCreate)
}

func opCreate2(rs *RunState, ee *EEI) ([]byte, error) {
	return doCreate(rs, ee, CallKindCreate2)
}

func doCreate(rs *RunState, ee *EEI, kind CallKind) ([]byte, error) {
	if ee.Env.IsStatic {
		return nil, ErrStaticStateChange
	}
	value, offset, size := rs.Stack.Pop3()
	var salt *uint256.Int
	if kind == CallKindCreate2 {
		s := rs.Stack.Pop()
		salt = &s
	}
	initCode := rs.Memory.Get(offset.Uint64(), size.Uint64())

	msg := &Message{
		Caller:   ee.Env.Address,
		Value:    value.ToBig(),
		Code:     initCode,
		GasLimit: new(big.Int).Set(ee.GasLeft),
		Kind:     kind,
		IsStatic: ee.Env.IsStatic,
		Origin:   ee.Env.Origin,
		GasPrice: ee.Env.GasPrice,
	}
	if salt != nil {
		msg.Salt = salt.ToBig()
	}

	res := ee.Call(msg)
	rs.LastRet = res.ReturnData

	var out uint256.Int
	if !res.Failed() {
		out.SetBytes(res.CreatedAddress.Bytes())
	}
	rs.Stack.Push(&out)
	return nil, nil
}

func opReturn(rs *RunState, ee *EEI) ([]byte, error) {
	offset, size := rs.Stack.Pop2()
	return rs.Memory.Get(offset.Uint64(), size.Uint64()), nil
}

func opRevert(rs *RunState, ee *EEI) ([]byte, error) {
	offset, size := rs.Stack.Pop2()
	data := rs.Memory.Get(offset.Uint64(), size.Uint64())
	return data, NewRevertError(data)
}

func opInvalid(rs *RunState, ee *EEI) ([]byte, error) {
	return nil, ErrInvalidOpcode
}

func opSelfDestruct(rs *RunState, ee *EEI) ([]byte, error) {
	beneficiaryWord := rs.Stack.Pop()
	beneficiary := addressFromWord(&beneficiaryWord)
	if err := ee.SelfDestruct(beneficiary); err != nil {
		return nil, err
	}
	return nil, ErrStop
}
