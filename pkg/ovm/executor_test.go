package ovm

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
	"github.com/eth2030/ovmtrace/pkg/vm"
)

func newTestExecutor(sv *state.MemoryView) *Executor {
	return NewExecutor(Capabilities{
		StateView:  sv,
		ForkConfig: vm.NewForkConfig("london"),
	})
}

func TestExecutorEmptyCodeCallTransfersValueAndUsesNoGas(t *testing.T) {
	sv := state.NewMemoryView()
	caller := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	sv.CreateAccount(caller)
	sv.AddBalance(caller, big.NewInt(100))

	ex := newTestExecutor(sv)
	msg := &vm.Message{
		Caller: caller, To: to, CodeAddress: to,
		Value: big.NewInt(5), GasLimit: big.NewInt(21000),
		Origin: caller, GasPrice: new(big.Int),
	}

	result := ex.RunTransaction(context.Background(), msg)
	if result.Failed() {
		t.Fatalf("result failed: %v", result.ExceptionError)
	}
	if len(result.ReturnData) != 0 {
		t.Fatalf("ReturnData = %x, want empty", result.ReturnData)
	}
	gasUsed := new(big.Int).Sub(msg.GasLimit, result.GasLeft)
	if gasUsed.Sign() != 0 {
		t.Fatalf("gasUsed = %s, want 0", gasUsed)
	}
	if got := sv.GetBalance(to); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("recipient balance = %s, want 5", got)
	}
	if got := sv.GetBalance(caller); got.Cmp(big.NewInt(95)) != 0 {
		t.Fatalf("caller balance = %s, want 95", got)
	}
}

// PUSH1 3; JUMP; STOP; JUMPDEST -- the jump target (pc 3) is STOP, not the
// JUMPDEST at pc 4, so this must fail closed and burn the whole gas limit.
func TestExecutorInvalidJumpBurnsFullGas(t *testing.T) {
	sv := state.NewMemoryView()
	caller := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	sv.CreateAccount(caller)
	sv.SetCode(to, []byte{0x60, 0x03, 0x56, 0x00, 0x5b})

	ex := newTestExecutor(sv)
	msg := &vm.Message{
		Caller: caller, To: to, CodeAddress: to,
		Value: new(big.Int), GasLimit: big.NewInt(100000),
		Origin: caller, GasPrice: new(big.Int),
	}

	result := ex.RunTransaction(context.Background(), msg)
	if !vm.IsKind(result.ExceptionError, vm.ErrKindInvalidJump) {
		t.Fatalf("ExceptionError = %v, want ErrKindInvalidJump", result.ExceptionError)
	}
	if result.GasLeft.Sign() != 0 {
		t.Fatalf("GasLeft = %s, want 0 (full gas limit consumed)", result.GasLeft)
	}
}

// PUSH1 0; PUSH1 0; REVERT.
func TestExecutorRevertRefundsUnusedGas(t *testing.T) {
	sv := state.NewMemoryView()
	caller := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")
	sv.CreateAccount(caller)
	sv.SetCode(to, []byte{0x60, 0x00, 0x60, 0x00, 0xfd})

	ex := newTestExecutor(sv)
	msg := &vm.Message{
		Caller: caller, To: to, CodeAddress: to,
		Value: new(big.Int), GasLimit: big.NewInt(100000),
		Origin: caller, GasPrice: new(big.Int),
	}

	result := ex.RunTransaction(context.Background(), msg)
	if !result.Reverted() {
		t.Fatalf("ExceptionError = %v, want a REVERT", result.ExceptionError)
	}
	if result.GasLeft.Sign() <= 0 {
		t.Fatalf("GasLeft after revert = %s, want > 0", result.GasLeft)
	}
	if len(result.ReturnData) != 0 {
		t.Fatalf("ReturnData = %x, want empty", result.ReturnData)
	}
}

func TestExecutorCreateCollision(t *testing.T) {
	sv := state.NewMemoryView()
	caller := common.HexToAddress("0x5555555555555555555555555555555555555555")
	sv.CreateAccount(caller)

	newAddr := CreateAddress(caller, sv.GetNonce(caller))
	sv.CreateAccount(newAddr)
	sv.SetNonce(newAddr, 1)

	ex := newTestExecutor(sv)
	msg := &vm.Message{
		Caller: caller, Kind: vm.CallKindCreate,
		Code: []byte{0x60, 0x00, 0x60, 0x00, 0xf3}, // PUSH1 0; PUSH1 0; RETURN
		Value: new(big.Int), GasLimit: big.NewInt(100000),
		Origin: caller, GasPrice: new(big.Int),
	}

	result := ex.RunTransaction(context.Background(), msg)
	if !vm.IsKind(result.ExceptionError, vm.ErrKindCreateCollision) {
		t.Fatalf("ExceptionError = %v, want ErrKindCreateCollision", result.ExceptionError)
	}
	if result.GasLeft.Sign() != 0 {
		t.Fatalf("GasLeft = %s, want 0", result.GasLeft)
	}
	if result.CreatedAddress != newAddr {
		t.Fatalf("CreatedAddress = %s, want %s", result.CreatedAddress.Hex(), newAddr.Hex())
	}
}

func TestExecutorCreateSucceedsAgainstFreshAddress(t *testing.T) {
	sv := state.NewMemoryView()
	caller := common.HexToAddress("0x6666666666666666666666666666666666666666")
	sv.CreateAccount(caller)

	ex := newTestExecutor(sv)
	// Init code: PUSH1 0 PUSH1 0 RETURN -- deploys empty runtime code.
	msg := &vm.Message{
		Caller: caller, Kind: vm.CallKindCreate,
		Code: []byte{0x60, 0x00, 0x60, 0x00, 0xf3},
		Value: new(big.Int), GasLimit: big.NewInt(200000),
		Origin: caller, GasPrice: new(big.Int),
	}

	result := ex.RunTransaction(context.Background(), msg)
	if result.Failed() {
		t.Fatalf("result failed: %v", result.ExceptionError)
	}
	want := CreateAddress(caller, 0)
	if result.CreatedAddress != want {
		t.Fatalf("CreatedAddress = %s, want %s", result.CreatedAddress.Hex(), want.Hex())
	}
}

// Two sequential plain CREATEs (no salt) from the same caller must derive
// distinct addresses, since the caller's nonce advances between them.
func TestExecutorCreateAdvancesCallerNonce(t *testing.T) {
	sv := state.NewMemoryView()
	caller := common.HexToAddress("0x8888888888888888888888888888888888888888")
	sv.CreateAccount(caller)

	ex := newTestExecutor(sv)
	msg := func() *vm.Message {
		return &vm.Message{
			Caller: caller, Kind: vm.CallKindCreate,
			Code: []byte{0x60, 0x00, 0x60, 0x00, 0xf3},
			Value: new(big.Int), GasLimit: big.NewInt(200000),
			Origin: caller, GasPrice: new(big.Int),
		}
	}

	first := ex.RunTransaction(context.Background(), msg())
	if first.Failed() {
		t.Fatalf("first CREATE failed: %v", first.ExceptionError)
	}
	second := ex.RunTransaction(context.Background(), msg())
	if second.Failed() {
		t.Fatalf("second CREATE failed: %v", second.ExceptionError)
	}
	if first.CreatedAddress == second.CreatedAddress {
		t.Fatalf("both CREATEs derived %s, want distinct addresses", first.CreatedAddress.Hex())
	}
	if got := sv.GetNonce(caller); got != 2 {
		t.Fatalf("caller nonce = %d, want 2", got)
	}
}

// A CALL to the StateManager pseudo-address is served directly from host
// state, without interpreting any bytecode: a setStorage call through
// ExecuteMessage leaves the written value in the backing state view.
func TestExecutorStateManagerDispatchRoundTrip(t *testing.T) {
	sv := state.NewMemoryView()
	caller := common.HexToAddress("0x7777777777777777777777777777777777777777")
	sv.CreateAccount(caller)

	ex := newTestExecutor(sv)
	target := common.HexToAddress("0x0000000000000000000000000000000000cafe")
	key := common.HexToHash("0x01")
	value := common.HexToHash("0x2a")

	stateManagerABI, err := abi.JSON(strings.NewReader(stateManagerABIJSON))
	if err != nil {
		t.Fatalf("parsing state manager ABI: %v", err)
	}
	setCalldata, err := stateManagerABI.Pack("setStorage", target, key, value)
	if err != nil {
		t.Fatalf("packing setStorage: %v", err)
	}
	setMsg := &vm.Message{
		Caller: caller, To: StateManagerAddress, CodeAddress: StateManagerAddress,
		Data: setCalldata, Value: new(big.Int), GasLimit: big.NewInt(100000),
		Depth: 1, Origin: caller, GasPrice: new(big.Int),
	}
	if res := ex.ExecuteMessage(setMsg); res.Failed() {
		t.Fatalf("setStorage call failed: %v", res.ExceptionError)
	}

	if got := sv.GetState(target, key); got != value {
		t.Fatalf("GetState after setStorage = %x, want %x", got, value)
	}
}
