package vm

import "math/big"

// Dynamic gas functions compute the variable portion of an opcode's cost:
// memory expansion, cold/warm access-list surcharges, and data-dependent
// costs like EXP's exponent size or KECCAK256's word count. Each runs after
// the operation's constant cost has already been charged, and before
// execute, so a failure here never partially mutates state.

func gasExp(rs *RunState, ee *EEI) (uint64, error) {
	exponent := rs.Stack.Back(1)
	if exponent.IsZero() {
		return 0, nil
	}
	byteLen := (exponent.BitLen() + 7) / 8
	gasPerByte := uint64(10)
	if ee.host.ForkConfig().GteHardfork("spuriousdragon") {
		gasPerByte = 50
	}
	return safeMul(uint64(byteLen), gasPerByte), nil
}

func gasKeccak256(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(1)
	words := toWordSize(size.Uint64())
	cost, err := memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), size.Uint64())
	if err != nil {
		return 0, err
	}
	return safeAdd(cost, safeMul(words, GasKeccak256Word)), nil
}

func gasMemoryCopy(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(2)
	cost, err := memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), size.Uint64())
	if err != nil {
		return 0, err
	}
	words := toWordSize(size.Uint64())
	return safeAdd(cost, safeMul(words, GasKeccak256Word)), nil
}

func gasMemorySize(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(1)
	return memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), size.Uint64())
}

func gasMload(rs *RunState, ee *EEI) (uint64, error) {
	return memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), 32)
}

func gasMstore(rs *RunState, ee *EEI) (uint64, error) {
	return memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), 32)
}

func gasMstore8(rs *RunState, ee *EEI) (uint64, error) {
	return memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), 1)
}

// memExpansionFor computes the memory-expansion cost of accessing [offset,
// offset+size) without yet resizing rs.Memory; execute() resizes after
// gas is confirmed affordable.
func memExpansionFor(rs *RunState, ee *EEI, offset, size uint64) (uint64, error) {
	if size == 0 {
		return 0, nil
	}
	need := safeAdd(offset, size)
	if need < offset {
		return 0, NewExecError(ErrKindOutOfGas, "memory size overflow")
	}
	return GasMemExpansion(rs.Memory, need), nil
}

func gasAccountAccess(rs *RunState, ee *EEI) (uint64, error) {
	addrWord := rs.Stack.Back(0)
	addr := addressFromWord(addrWord)
	if !ee.host.ForkConfig().GteHardfork("berlin") {
		return 0, nil
	}
	v := ee.state()
	if v.AddressInAccessList(addr) {
		return WarmStorageReadCost, nil
	}
	v.AddAddressToAccessList(addr)
	return ColdAccountAccessCost, nil
}

func gasExtCodeCopy(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(3)
	memCost, err := memExpansionFor(rs, ee, rs.Stack.Back(1).Uint64(), size.Uint64())
	if err != nil {
		return 0, err
	}
	accessCost, err := gasAccountAccess(rs, ee)
	if err != nil {
		return 0, err
	}
	return safeAdd(memCost, accessCost), nil
}

func gasExtCodeHash(rs *RunState, ee *EEI) (uint64, error) {
	if !ee.host.ForkConfig().GteHardfork("berlin") {
		return 0, nil
	}
	return gasAccountAccess(rs, ee)
}

func gasReturnDataCopy(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(2)
	return memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), size.Uint64())
}

func gasSloadEIP2929Aware(rs *RunState, ee *EEI) (uint64, error) {
	loc := rs.Stack.Back(0)
	key := loc.Bytes32()
	v := ee.state()
	_, slotWarm := v.SlotInAccessList(ee.Env.Address, key)
	if slotWarm {
		return WarmStorageReadCost, nil
	}
	v.AddSlotToAccessList(ee.Env.Address, key)
	return ColdSloadCost, nil
}

func gasSstore(rs *RunState, ee *EEI) (uint64, error) {
	if ee.Env.IsStatic {
		return 0, ErrStaticStateChange
	}
	loc := rs.Stack.Back(0)
	val := rs.Stack.Back(1)
	key := loc.Bytes32()
	v := ee.state()

	warmCost := uint64(0)
	if ee.host.ForkConfig().GteHardfork("berlin") {
		if _, slotWarm := v.SlotInAccessList(ee.Env.Address, key); !slotWarm {
			v.AddSlotToAccessList(ee.Env.Address, key)
			warmCost = ColdSloadCost
		}
	}

	current := v.GetState(ee.Env.Address, key)
	newVal := val.Bytes32()
	if current == newVal {
		return safeAdd(warmCost, WarmStorageReadCost), nil
	}
	original := v.GetCommittedState(ee.Env.Address, key)
	clearsRefund, _ := ee.host.ForkConfig().Param("sstore", "clears_refund")

	if original == current {
		if isZeroHash(original) {
			return safeAdd(warmCost, GasSstoreSet), nil
		}
		if isZeroHash(newVal) {
			ee.AddRefund(new(big.Int).SetUint64(clearsRefund))
		}
		return safeAdd(warmCost, GasSstoreReset), nil
	}

	// Dirty slot: original != current, already touched earlier in this
	// message. Only the refund counter moves; the gas cost is the flat
	// warm re-read.
	if !isZeroHash(original) {
		if isZeroHash(current) && !isZeroHash(newVal) {
			ee.SubRefund(new(big.Int).SetUint64(clearsRefund))
		} else if !isZeroHash(current) && isZeroHash(newVal) {
			ee.AddRefund(new(big.Int).SetUint64(clearsRefund))
		}
	}
	if original == newVal {
		if isZeroHash(original) {
			ee.AddRefund(new(big.Int).SetInt64(int64(GasSstoreSet) - int64(WarmStorageReadCost)))
		} else {
			ee.AddRefund(new(big.Int).SetInt64(int64(GasSstoreReset) - int64(WarmStorageReadCost)))
		}
	}
	return safeAdd(warmCost, WarmStorageReadCost), nil
}

func gasLog(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(1)
	cost, err := memExpansionFor(rs, ee, rs.Stack.Back(0).Uint64(), size.Uint64())
	if err != nil {
		return 0, err
	}
	return safeAdd(cost, safeMul(size.Uint64(), GasLogData)), nil
}

func gasCreate(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(2)
	cost, err := memExpansionFor(rs, ee, rs.Stack.Back(1).Uint64(), size.Uint64())
	if err != nil {
		return 0, err
	}
	words := toWordSize(size.Uint64())
	return safeAdd(cost, safeMul(words, InitCodeWordGas)), nil
}

func gasCreate2(rs *RunState, ee *EEI) (uint64, error) {
	size := rs.Stack.Back(2)
	cost, err := memExpansionFor(rs, ee, rs.Stack.Back(1).Uint64(), size.Uint64())
	if err != nil {
		return 0, err
	}
	words := toWordSize(size.Uint64())
	return safeAdd(cost, safeMul(words, safeAdd(InitCodeWordGas, GasKeccak256Word))), nil
}

func gasCall(rs *RunState, ee *EEI) (uint64, error) {
	return gasCallLike(rs, ee, true)
}

func gasCallCode(rs *RunState, ee *EEI) (uint64, error) {
	return gasCallLike(rs, ee, true)
}

func gasDelegateOrStaticCall(rs *RunState, ee *EEI) (uint64, error) {
	return gasCallLike(rs, ee, false)
}

func gasCallLike(rs *RunState, ee *EEI, hasValue bool) (uint64, error) {
	addrWord := rs.Stack.Back(1)
	addr := addressFromWord(addrWord)

	var valueIdx, inOffIdx, inSizeIdx, outOffIdx, outSizeIdx int
	if hasValue {
		valueIdx, inOffIdx, inSizeIdx, outOffIdx, outSizeIdx = 2, 3, 4, 5, 6
	} else {
		inOffIdx, inSizeIdx, outOffIdx, outSizeIdx = 2, 3, 4, 5
	}

	inSize := rs.Stack.Back(inSizeIdx)
	outSize := rs.Stack.Back(outSizeIdx)
	inCost, err := memExpansionFor(rs, ee, rs.Stack.Back(inOffIdx).Uint64(), inSize.Uint64())
	if err != nil {
		return 0, err
	}
	outCost, err := memExpansionFor(rs, ee, rs.Stack.Back(outOffIdx).Uint64(), outSize.Uint64())
	if err != nil {
		return 0, err
	}
	cost := inCost
	if outCost > cost {
		cost = outCost
	}

	accessCost, err := gasAccountAccess(rs, ee)
	if err != nil {
		return 0, err
	}
	cost = safeAdd(cost, accessCost)

	if hasValue && !rs.Stack.Back(valueIdx).IsZero() {
		cost = safeAdd(cost, CallValueTransferGas)
		if !ee.Exist(addr) {
			cost = safeAdd(cost, CallNewAccountGas)
		}
	}
	return cost, nil
}

func gasSelfDestruct(rs *RunState, ee *EEI) (uint64, error) {
	beneficiary := addressFromWord(rs.Stack.Back(0))
	cost := uint64(0)
	if ee.host.ForkConfig().GteHardfork("berlin") {
		v := ee.state()
		if !v.AddressInAccessList(beneficiary) {
			v.AddAddressToAccessList(beneficiary)
			cost = ColdAccountAccessCost
		}
	}
	if !ee.Exist(beneficiary) && ee.GetBalance(ee.Env.Address).Sign() != 0 {
		cost = safeAdd(cost, CallNewAccountGas)
	}
	return cost, nil
}
