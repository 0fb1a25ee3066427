package vm

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
)

// fakeHost is the minimal Host a single-frame interpreter test needs: no
// recursive Call ever happens in these cases, so Call panics if reached.
type fakeHost struct {
	sv    state.View
	fork  ForkConfig
	block BlockContext
}

func newFakeHost() *fakeHost {
	return &fakeHost{sv: state.NewMemoryView(), fork: NewForkConfig("london")}
}

func (h *fakeHost) Call(msg *Message) *Result { panic("fakeHost.Call: no recursive call expected") }
func (h *fakeHost) StateView() state.View     { return h.sv }
func (h *fakeHost) ForkConfig() ForkConfig    { return h.fork }
func (h *fakeHost) Observer() Observer        { return NopObserver{} }
func (h *fakeHost) BlockContext() BlockContext { return h.block }
func (h *fakeHost) GetHash(uint64) common.Hash { return common.Hash{} }
func (h *fakeHost) Context() context.Context   { return context.Background() }

var _ Host = (*fakeHost)(nil)

func runCode(t *testing.T, code []byte, gasLimit uint64) (*RunState, *EEI, []byte, error) {
	t.Helper()
	host := newFakeHost()
	msg := &Message{GasLimit: new(big.Int).SetUint64(gasLimit), Value: new(big.Int), GasPrice: new(big.Int)}
	rs := NewRunState(code)
	ee := NewEEI(host, msg)
	interp := NewInterpreter(host.ForkConfig())
	ret, err := interp.Run(context.Background(), rs, ee, NopObserver{})
	return rs, ee, ret, err
}

// PUSH1 1; PUSH1 2; ADD; STOP.
func TestInterpreterPushAddStop(t *testing.T) {
	code := []byte{0x60, 0x01, 0x60, 0x02, 0x01, 0x00}
	rs, _, ret, err := runCode(t, code, 100000)
	if !IsKind(err, ErrKindStop) {
		t.Fatalf("Run = %v, want ErrKindStop", err)
	}
	if len(ret) != 0 {
		t.Fatalf("return data = %x, want empty", ret)
	}
	if rs.Stack.Len() != 1 {
		t.Fatalf("stack len after STOP = %d, want 1", rs.Stack.Len())
	}
	if got := rs.Stack.Peek().Uint64(); got != 3 {
		t.Fatalf("stack top after ADD = %d, want 3", got)
	}
}

// PUSH1 3; JUMP; STOP; JUMPDEST -- jumps to pc 3, which is STOP, not a
// JUMPDEST (the JUMPDEST byte sits at pc 4), so this must fail closed.
func TestInterpreterJumpToNonJumpdest(t *testing.T) {
	code := []byte{0x60, 0x03, 0x56, 0x00, 0x5b}
	_, _, _, err := runCode(t, code, 100000)
	if !IsKind(err, ErrKindInvalidJump) {
		t.Fatalf("Run = %v, want ErrKindInvalidJump", err)
	}
}

// PUSH1 0; PUSH1 0; REVERT.
func TestInterpreterRevert(t *testing.T) {
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xfd}
	const gasLimit = 100000
	_, ee, ret, err := runCode(t, code, gasLimit)
	if !IsKind(err, ErrKindRevert) {
		t.Fatalf("Run = %v, want ErrKindRevert", err)
	}
	if len(ret) != 0 {
		t.Fatalf("revert return data = %x, want empty (zero-length revert reason)", ret)
	}
	if ee.GasLeft.Sign() <= 0 {
		t.Fatalf("GasLeft after REVERT = %s, want > 0 (REVERT only charges constant gas)", ee.GasLeft)
	}
}

// Pushes, bottom to top, retSize=0, retOffset=0, inSize=0, inOffset=0,
// value=1, addr=0, gas=0, then CALL -- doCall pops gas, addr, value,
// inOffset, inSize, retOffset, retSize in that order, so the stack must be
// built in reverse. A value-transferring CALL issued from a static context
// must fail closed before ever dispatching the child message.
func TestInterpreterStaticCallWithValueRejected(t *testing.T) {
	code := []byte{
		0x60, 0x00, 0x60, 0x00, 0x60, 0x00, 0x60, 0x00,
		0x60, 0x01, 0x60, 0x00, 0x60, 0x00, 0xf1,
	}
	host := newFakeHost()
	msg := &Message{
		GasLimit: new(big.Int).SetUint64(100000), Value: new(big.Int),
		GasPrice: new(big.Int), IsStatic: true,
	}
	rs := NewRunState(code)
	ee := NewEEI(host, msg)
	interp := NewInterpreter(host.ForkConfig())
	_, err := interp.Run(context.Background(), rs, ee, NopObserver{})
	if !IsKind(err, ErrKindStaticStateChange) {
		t.Fatalf("Run = %v, want ErrKindStaticStateChange", err)
	}
}

// PUSH1 5; PUSH1 0; SSTORE (slot 0: 0 -> 5); PUSH1 0; PUSH1 0; SSTORE (slot
// 0: 5 -> 0); STOP. Setting a slot back to its original value within the
// same message refunds the set cost minus the warm re-read, per
// EIP-2200/EIP-3529's dirty-slot accounting.
func TestInterpreterSstoreRestoreToOriginalRefund(t *testing.T) {
	code := []byte{
		0x60, 0x05, 0x60, 0x00, 0x55,
		0x60, 0x00, 0x60, 0x00, 0x55,
		0x00,
	}
	_, ee, _, err := runCode(t, code, 100000)
	if !IsKind(err, ErrKindStop) {
		t.Fatalf("Run = %v, want ErrKindStop", err)
	}
	want := new(big.Int).SetInt64(int64(GasSstoreSet) - int64(WarmStorageReadCost))
	if got := ee.host.StateView().GetRefund(); got.Cmp(want) != 0 {
		t.Fatalf("GetRefund() = %s, want %s", got, want)
	}
}
