package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestStorageRoundTrip(t *testing.T) {
	v := NewMemoryView()
	addr := common.HexToAddress("0x01")
	key := common.HexToHash("0x02")
	val := common.HexToHash("0x03")

	v.SetState(addr, key, val)
	if got := v.GetState(addr, key); got != val {
		t.Fatalf("GetState = %x, want %x", got, val)
	}
}

func TestCheckpointRevertIsNoop(t *testing.T) {
	v := NewMemoryView()
	addr := common.HexToAddress("0xaa")
	v.AddBalance(addr, big.NewInt(100))

	id := v.Checkpoint()
	v.AddBalance(addr, big.NewInt(50))
	v.SetNonce(addr, 7)
	v.Revert(id)

	if got := v.GetBalance(addr); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance after revert = %s, want 100", got)
	}
	if got := v.GetNonce(addr); got != 0 {
		t.Fatalf("nonce after revert = %d, want 0", got)
	}
}

func TestCheckpointCommitKeepsChanges(t *testing.T) {
	v := NewMemoryView()
	addr := common.HexToAddress("0xbb")

	id := v.Checkpoint()
	v.AddBalance(addr, big.NewInt(42))
	v.Commit()
	_ = id

	if got := v.GetBalance(addr); got.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("balance after commit = %s, want 42", got)
	}
}

func TestNestedCheckpoints(t *testing.T) {
	v := NewMemoryView()
	addr := common.HexToAddress("0xcc")

	outer := v.Checkpoint()
	v.AddBalance(addr, big.NewInt(10))
	inner := v.Checkpoint()
	v.AddBalance(addr, big.NewInt(5))
	v.Revert(inner)
	if got := v.GetBalance(addr); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("balance after inner revert = %s, want 10", got)
	}
	v.Revert(outer)
	if got := v.GetBalance(addr); got.Sign() != 0 {
		t.Fatalf("balance after outer revert = %s, want 0", got)
	}
}

func TestSelfDestructZeroesBalance(t *testing.T) {
	v := NewMemoryView()
	addr := common.HexToAddress("0xdd")
	v.CreateAccount(addr)
	v.AddBalance(addr, big.NewInt(9))

	v.SelfDestruct(addr)
	if !v.HasSelfDestructed(addr) {
		t.Fatal("expected HasSelfDestructed true")
	}
	if got := v.GetBalance(addr); got.Sign() != 0 {
		t.Fatalf("balance after selfdestruct = %s, want 0", got)
	}
}

func TestRefundClampedAtZero(t *testing.T) {
	v := NewMemoryView()
	v.AddRefund(big.NewInt(3))
	v.SubRefund(big.NewInt(10))
	if v.GetRefund().Sign() != 0 {
		t.Fatalf("refund = %s, want 0 (clamped)", v.GetRefund())
	}
}

func TestAccessList(t *testing.T) {
	v := NewMemoryView()
	addr := common.HexToAddress("0xee")
	slot := common.HexToHash("0x01")

	if v.AddressInAccessList(addr) {
		t.Fatal("address should start cold")
	}
	v.AddSlotToAccessList(addr, slot)
	if !v.AddressInAccessList(addr) {
		t.Fatal("adding a slot should warm the address")
	}
	addrOk, slotOk := v.SlotInAccessList(addr, slot)
	if !addrOk || !slotOk {
		t.Fatalf("SlotInAccessList = (%v, %v), want (true, true)", addrOk, slotOk)
	}
}
