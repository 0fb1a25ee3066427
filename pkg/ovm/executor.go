package ovm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
	"github.com/eth2030/ovmtrace/pkg/vm"
)

// ovmRevertPrefixLen is the length of the OVM flag prefix the Execution
// Manager prepends to a reverting call's return data; the depth-0 exit
// reconciliation strips it before surfacing the revert reason to the
// outside world.
const ovmRevertPrefixLen = 160

// accountSnapshot is the minimal account state the depth-0 entry/exit
// bracket needs to restore around a trace: the pseudo-contracts' nonce
// and code, so a run doesn't leave visible bookkeeping residue on the
// Execution Manager / State Manager addresses.
type accountSnapshot struct {
	nonce uint64
	code  []byte
}

// Executor is the OVM message executor: it implements vm.Host so the
// interpreter can recurse into it, and it owns the OVM-specific
// bookkeeping (the target-message latch, the depth-1 account-message
// result, and the pseudo-contract snapshots) that a plain EVM executor
// wouldn't need.
type Executor struct {
	caps  Capabilities
	emABI abi.ABI
	ctx   context.Context

	targetMessage        *vm.Message
	targetMessageResult  *vm.Result
	accountMessageResult *vm.Result

	initialEMState accountSnapshot
	initialSMState accountSnapshot
}

// NewExecutor builds an Executor from a Capabilities bundle, filling in
// defaults for anything left unset.
func NewExecutor(caps Capabilities) *Executor {
	if caps.Contracts == nil {
		caps.Contracts = NewRegistry()
	}
	if caps.Observer == nil {
		caps.Observer = vm.NopObserver{}
	}
	if caps.OVMStateBridge == nil {
		caps.OVMStateBridge = NewStateBridge(caps.StateView)
	}
	if caps.GetHash == nil {
		caps.GetHash = func(uint64) common.Hash { return common.Hash{} }
	}

	parsed, err := abi.JSON(strings.NewReader(executionManagerABIJSON))
	if err != nil {
		// Fixed literal; a parse failure indicates the literal itself is
		// broken, not a runtime condition this runner should recover from.
		panic(err)
	}
	return &Executor{caps: caps, emABI: parsed, ctx: context.Background()}
}

// --- vm.Host ---

func (ex *Executor) Call(msg *vm.Message) *vm.Result {
	if msg.Depth > vm.MaxCallDepth {
		return &vm.Result{GasLeft: new(big.Int), GasRefund: new(big.Int), ExceptionError: vm.ErrMaxCallDepthExceed}
	}
	return ex.ExecuteMessage(msg)
}

func (ex *Executor) StateView() state.View       { return ex.caps.StateView }
func (ex *Executor) ForkConfig() vm.ForkConfig    { return ex.caps.ForkConfig }
func (ex *Executor) Observer() vm.Observer        { return ex.caps.Observer }
func (ex *Executor) BlockContext() vm.BlockContext { return ex.caps.Block }
func (ex *Executor) GetHash(number uint64) common.Hash {
	return ex.caps.GetHash(number)
}

func (ex *Executor) Context() context.Context { return ex.ctx }

// RunTransaction is the top-level entry point: it resets the per-trace
// OVM bookkeeping, snapshots the pseudo-contracts, runs the message to
// completion, and restores the snapshots before returning. ctx bounds the
// whole trace; a nil ctx is treated as context.Background().
func (ex *Executor) RunTransaction(ctx context.Context, msg *vm.Message) *vm.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ex.ctx = ctx
	ex.targetMessage = nil
	ex.targetMessageResult = nil
	ex.accountMessageResult = nil

	ex.initialEMState = ex.snapshot(ExecutionManagerAddress)
	ex.initialSMState = ex.snapshot(StateManagerAddress)

	result := ex.ExecuteMessage(msg)

	ex.restore(ExecutionManagerAddress, ex.initialEMState)
	ex.restore(StateManagerAddress, ex.initialSMState)
	return result
}

func (ex *Executor) snapshot(addr common.Address) accountSnapshot {
	sv := ex.caps.StateView
	return accountSnapshot{nonce: sv.GetNonce(addr), code: sv.GetCode(addr)}
}

func (ex *Executor) restore(addr common.Address, snap accountSnapshot) {
	sv := ex.caps.StateView
	sv.SetNonce(addr, snap.nonce)
	sv.SetCode(addr, snap.code)
}

// ExecuteMessage runs message to completion: open a checkpoint, rewrite
// and latch the OVM entry/target bookkeeping, dispatch to the right
// handler, then commit or revert depending on the outcome.
func (ex *Executor) ExecuteMessage(msg *vm.Message) *vm.Result {
	ex.caps.Observer.BeforeMessage(msg)
	checkpoint := ex.caps.StateView.Checkpoint()

	if msg.Depth == 0 && !msg.IsCreate() {
		ex.rewriteOVMEntry(msg)
	}

	targetKind := ex.caps.Contracts.Kind(msg.To)
	if targetKind == ContractKindOrdinary && !msg.IsCreate() && IsECDSAWrapperCode(ex.caps.StateView.GetCode(msg.To)) {
		// The callee carries the mock EOA-wrapper marker rewriteOVMEntry
		// installs at depth 0: pick the ECDSA-wrapper contract definition
		// rather than treating it as an ordinary deployed contract.
		targetKind = ContractKindECDSAWrapper
	}
	isTargetCandidate := msg.IsTargetMessage() && targetKind != ContractKindStateManager
	if ex.targetMessage == nil && isTargetCandidate {
		ex.targetMessage = msg
	}

	var result *vm.Result
	switch {
	case msg.IsCreate():
		result = ex.executeCreate(msg)
	case targetKind == ContractKindStateManager:
		result = ex.runStateManager(msg)
	case targetKind == ContractKindECDSAWrapper:
		result = ex.executeECDSAWrapper(msg)
	case targetKind == ContractKindExecutionManager:
		result = ex.dispatchExecutionManager(msg)
	default:
		result = ex.executeCall(msg)
	}

	result.GasRefund = ex.caps.StateView.GetRefund()

	if result.Failed() {
		ex.caps.StateView.ClearLogs()
		ex.caps.StateView.Revert(checkpoint)
	} else {
		ex.caps.StateView.Commit()
	}

	if msg.Depth == 1 && targetKind != ContractKindStateManager {
		ex.accountMessageResult = result
	}
	if isTargetCandidate && ex.targetMessage == msg {
		ex.targetMessageResult = result
	}

	if msg.Depth == 0 && !msg.IsCreate() {
		// A depth-0 create never went through the Execution Manager relay
		// (rewriteOVMEntry only rewrites calls), so there is no OVM exit
		// to reconcile; its result stands as-is.
		result = ex.reconcileOVMExit(result)
	}

	ex.caps.Observer.AfterMessage(msg, result)
	return result
}

// rewriteOVMEntry installs the mock ECDSA-wrapper bytecode at the caller
// if it has none, then retargets the message at the Execution Manager,
// re-encoding its original recipient and calldata as a relay call. This
// is the boundary between the outside world and the OVM sandbox.
func (ex *Executor) rewriteOVMEntry(msg *vm.Message) {
	sv := ex.caps.StateView
	if len(sv.GetCode(msg.Caller)) == 0 {
		sv.SetCode(msg.Caller, mockECDSAContractCode)
	}

	originalTo := msg.To
	packed, err := ex.emABI.Pack("ovmCALL", originalTo, msg.Data)
	if err != nil {
		// Packing an (address, bytes) pair cannot fail; preserve the raw
		// data rather than losing the message if it somehow does.
		packed = msg.Data
	}

	msg.OriginalTargetAddress = originalTo
	msg.To = ExecutionManagerAddress
	msg.CodeAddress = ExecutionManagerAddress
	msg.Data = packed
}

// dispatchExecutionManager decodes a relay call built by rewriteOVMEntry
// and re-enters ExecuteMessage one level deeper for the real target, the
// way the Execution Manager's bytecode would if it were interpreted.
func (ex *Executor) dispatchExecutionManager(msg *vm.Message) *vm.Result {
	target, calldata, err := ex.decodeOVMCall(msg.Data)
	if err != nil {
		return &vm.Result{
			GasLeft:        new(big.Int),
			GasRefund:      new(big.Int),
			ExceptionError: vm.NewExecError(vm.ErrKindOVM, "cannot decode execution manager call: %v", err),
		}
	}

	inner := &vm.Message{
		Caller:                msg.Caller,
		To:                    target,
		CodeAddress:           target,
		Data:                  calldata,
		Value:                 msg.Value,
		GasLimit:              msg.GasLimit,
		Depth:                 msg.Depth + 1,
		IsStatic:              msg.IsStatic,
		OriginalTargetAddress: target,
		Origin:                msg.Origin,
		GasPrice:              msg.GasPrice,
	}
	return ex.ExecuteMessage(inner)
}

func (ex *Executor) decodeOVMCall(data []byte) (common.Address, []byte, error) {
	if len(data) < 4 {
		return common.Address{}, nil, fmt.Errorf("execution manager call data too short")
	}
	method, err := ex.emABI.MethodById(data[:4])
	if err != nil {
		return common.Address{}, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Address{}, nil, err
	}
	target, _ := args[0].(common.Address)
	calldata, _ := args[1].([]byte)
	return target, calldata, nil
}

// runStateManager bypasses interpretation entirely: a CALL to the
// StateManager pseudo-address is served straight from host state.
func (ex *Executor) runStateManager(msg *vm.Message) *vm.Result {
	ret, err := ex.caps.OVMStateBridge.HandleCall(msg.Data)
	res := &vm.Result{ReturnData: ret, GasLeft: new(big.Int).Set(msg.GasLimit), GasRefund: new(big.Int)}
	if err != nil {
		res.ExceptionError = err.(*vm.ExecError)
		res.GasLeft = new(big.Int)
	}
	return res
}

// reconcileOVMExit performs the depth-0-only adjustments: composing the
// outer result from the latched target message, stripping the OVM revert
// prefix, filtering Execution-Manager-emitted logs, and applying the
// deploy-exception heuristic.
func (ex *Executor) reconcileOVMExit(result *vm.Result) *vm.Result {
	if ex.targetMessage == nil {
		return &vm.Result{
			GasLeft:        result.GasLeft,
			GasRefund:      result.GasRefund,
			ExceptionError: vm.NewExecError(vm.ErrKindOVM, "no target message observed during this trace"),
		}
	}

	out := ex.targetMessageResult
	if out == nil {
		out = result
	}

	ex.filterExecutionManagerLogs()

	if out.Reverted() && len(out.ReturnData) >= ovmRevertPrefixLen {
		out.ReturnData = out.ReturnData[ovmRevertPrefixLen:]
	}

	if ex.accountMessageResult != nil && isThirtyTwoZeroBytes(ex.accountMessageResult.ReturnData) && !out.Failed() {
		out.ExceptionError = vm.NewRevertError(nil)
	}

	return out
}

func (ex *Executor) filterExecutionManagerLogs() {
	sv := ex.caps.StateView
	logs := sv.Logs()
	kept := make([]*state.Log, 0, len(logs))
	for _, l := range logs {
		if l.Address != ExecutionManagerAddress {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(logs) {
		return
	}
	sv.ClearLogs()
	for _, l := range kept {
		sv.AddLog(l)
	}
}

func isThirtyTwoZeroBytes(data []byte) bool {
	if len(data) != 32 {
		return false
	}
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// executeCall loads the caller/callee accounts, transfers value (unless
// this is a delegatecall), resolves code, and runs it.
func (ex *Executor) executeCall(msg *vm.Message) *vm.Result {
	sv := ex.caps.StateView
	isDelegate := msg.Kind == vm.CallKindDelegateCall

	if !isDelegate && msg.Value != nil && msg.Value.Sign() != 0 {
		sv.SubBalance(msg.Caller, msg.Value)
	}
	if !sv.Exist(msg.To) {
		sv.CreateAccount(msg.To)
	}

	var creditErr *vm.ExecError
	if !isDelegate && msg.Value != nil && msg.Value.Sign() != 0 {
		if msg.Value.BitLen() > 256 {
			creditErr = vm.ErrValueOverflow
		} else {
			sv.AddBalance(msg.To, msg.Value)
		}
	}

	code, precompile, isEmpty := ex.resolveCode(msg)
	if isEmpty || creditErr != nil {
		execErr := creditErr
		if execErr == nil {
			execErr = vm.ErrStop
		}
		return &vm.Result{GasLeft: new(big.Int).Set(msg.GasLimit), GasRefund: new(big.Int), ExceptionError: execErr}
	}
	if precompile != nil {
		return ex.runPrecompile(msg, precompile)
	}
	return ex.runInterpreter(msg, code)
}

// executeECDSAWrapper runs a call against a mock EOA-wrapper account. The
// mock bytecode is a single STOP, so the contract definition this picks is
// behaviorally identical to an ordinary call over trivial code; it exists
// as its own dispatch case so a real signature-checking wrapper can be
// substituted here without touching the rest of the dispatch switch.
func (ex *Executor) executeECDSAWrapper(msg *vm.Message) *vm.Result {
	return ex.executeCall(msg)
}

// resolveCode implements the code-loading rule: a precompile at
// CodeAddress takes priority over deployed bytecode, matching how a real
// low-address precompile shadows any code a state view might also hold
// there.
func (ex *Executor) resolveCode(msg *vm.Message) (code []byte, precompile vm.PrecompiledContract, empty bool) {
	if len(msg.Code) > 0 {
		return msg.Code, nil, false
	}
	if pc, ok := vm.PrecompiledContracts[msg.CodeAddress]; ok {
		return nil, pc, false
	}
	code = ex.caps.StateView.GetCode(msg.CodeAddress)
	return code, nil, len(code) == 0
}

func (ex *Executor) runPrecompile(msg *vm.Message, pc vm.PrecompiledContract) *vm.Result {
	gasLeft := new(big.Int).Set(msg.GasLimit)
	cost := new(big.Int).SetUint64(pc.RequiredGas(msg.Data))
	if gasLeft.Cmp(cost) < 0 {
		return &vm.Result{GasLeft: new(big.Int), GasRefund: new(big.Int), ExceptionError: vm.ErrOutOfGas}
	}
	gasLeft.Sub(gasLeft, cost)

	out, err := pc.Run(msg.Data)
	if err != nil {
		return &vm.Result{GasLeft: new(big.Int), GasRefund: new(big.Int), ExceptionError: vm.WrapExecError(vm.ErrKindInternal, err)}
	}
	return &vm.Result{ReturnData: out, GasLeft: gasLeft, GasRefund: new(big.Int)}
}

func (ex *Executor) runInterpreter(msg *vm.Message, code []byte) *vm.Result {
	rs := vm.NewRunState(code)
	ee := vm.NewEEI(ex, msg)
	interp := vm.NewInterpreter(ex.caps.ForkConfig)

	ret, err := interp.Run(ex.ctx, rs, ee, ex.caps.Observer)
	res := &vm.Result{ReturnData: ret, GasLeft: ee.GasLeft, GasRefund: new(big.Int)}

	if err != nil {
		execErr := err.(*vm.ExecError)
		switch execErr.Kind {
		case vm.ErrKindStop:
			// Clean halt; nothing further to adjust.
		case vm.ErrKindRevert:
			res.ExceptionError = execErr
		default:
			// Post-run charging: any non-REVERT exception consumes the
			// entire gas limit and discards any partial return data.
			res.ExceptionError = execErr
			res.GasLeft = new(big.Int)
			res.ReturnData = nil
		}
	}
	return res
}

// executeCreate derives the new contract's address, checks for a
// collision, runs the init code, and persists the returned runtime code.
func (ex *Executor) executeCreate(msg *vm.Message) *vm.Result {
	sv := ex.caps.StateView

	initCode := msg.Code
	if len(initCode) == 0 {
		initCode = msg.Data
	}
	msg.Data = nil

	if msg.Value != nil && msg.Value.Sign() != 0 {
		sv.SubBalance(msg.Caller, msg.Value)
	}

	var newAddr common.Address
	if msg.Salt != nil {
		newAddr = CreateAddress2(msg.Caller, msg.Salt, initCode)
	} else {
		newAddr = CreateAddress(msg.Caller, sv.GetNonce(msg.Caller))
	}
	// The caller's nonce advances once CREATE is entered, regardless of
	// collision or later failure, so two sequential CREATEs from the same
	// account never derive the same address.
	sv.SetNonce(msg.Caller, sv.GetNonce(msg.Caller)+1)

	if sv.Exist(newAddr) && (sv.GetNonce(newAddr) > 0 || sv.GetCodeHash(newAddr) != state.EmptyCodeHash) {
		return &vm.Result{
			GasLeft: new(big.Int), GasRefund: new(big.Int),
			ExceptionError: vm.ErrCreateCollision, CreatedAddress: newAddr,
		}
	}

	sv.ClearStorage(newAddr)
	ex.caps.Observer.NewContract(newAddr, initCode)

	if ex.caps.ForkConfig.GteHardfork("spuriousdragon") {
		sv.SetNonce(newAddr, sv.GetNonce(newAddr)+1)
	}
	if msg.Value != nil && msg.Value.Sign() != 0 {
		sv.AddBalance(newAddr, msg.Value)
	}

	createMsg := &vm.Message{
		Caller: msg.Caller, To: newAddr, CodeAddress: newAddr,
		Value: msg.Value, GasLimit: msg.GasLimit, Depth: msg.Depth,
		Kind: msg.Kind, IsStatic: msg.IsStatic,
		Origin: msg.Origin, GasPrice: msg.GasPrice,
	}
	res := ex.runInterpreter(createMsg, initCode)
	if res.Failed() {
		res.CreatedAddress = newAddr
		return res
	}

	runtimeCode := res.ReturnData
	depositCost := new(big.Int).Mul(big.NewInt(int64(vm.CreateDataGas)), big.NewInt(int64(len(runtimeCode))))
	if res.GasLeft.Cmp(depositCost) < 0 {
		return &vm.Result{GasLeft: new(big.Int), GasRefund: new(big.Int), ExceptionError: vm.ErrOutOfGas, CreatedAddress: newAddr}
	}

	unlimited, _ := ex.caps.ForkConfig.Param("vm", "allowUnlimitedContractSize")
	if unlimited == 0 {
		maxSize, _ := ex.caps.ForkConfig.Param("vm", "maxCodeSize")
		if maxSize == 0 {
			maxSize = vm.MaxCodeSize
		}
		if uint64(len(runtimeCode)) > maxSize {
			return &vm.Result{GasLeft: new(big.Int), GasRefund: new(big.Int), ExceptionError: vm.ErrOutOfGas, CreatedAddress: newAddr}
		}
	}

	res.GasLeft = new(big.Int).Sub(res.GasLeft, depositCost)
	sv.SetCode(newAddr, runtimeCode)
	res.CreatedAddress = newAddr
	res.ReturnData = nil
	return res
}
