package ovm

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
)

func TestStateBridgeSetGetStorageRoundTrip(t *testing.T) {
	sv := state.NewMemoryView()
	bridge := NewStateBridge(sv)
	parsed, err := abi.JSON(strings.NewReader(stateManagerABIJSON))
	if err != nil {
		t.Fatalf("parsing ABI: %v", err)
	}

	target := common.HexToAddress("0x00000000000000000000000000000000000abc")
	key := common.HexToHash("0x01")
	value := common.HexToHash("0x2a")

	setCalldata, err := parsed.Pack("setStorage", target, key, value)
	if err != nil {
		t.Fatalf("packing setStorage: %v", err)
	}
	if _, err := bridge.HandleCall(setCalldata); err != nil {
		t.Fatalf("HandleCall(setStorage): %v", err)
	}

	getCalldata, err := parsed.Pack("getStorage", target, key)
	if err != nil {
		t.Fatalf("packing getStorage: %v", err)
	}
	out, err := bridge.HandleCall(getCalldata)
	if err != nil {
		t.Fatalf("HandleCall(getStorage): %v", err)
	}

	results, err := parsed.Methods["getStorage"].Outputs.Unpack(out)
	if err != nil {
		t.Fatalf("unpacking getStorage result: %v", err)
	}
	got := common.Hash(results[0].([32]byte))
	if got != value {
		t.Fatalf("getStorage = %x, want %x", got, value)
	}

	if sv.GetState(target, key) != value {
		t.Fatalf("state view was not mutated by setStorage")
	}
}

func TestStateBridgeIncrementNonce(t *testing.T) {
	sv := state.NewMemoryView()
	bridge := NewStateBridge(sv)
	parsed, err := abi.JSON(strings.NewReader(stateManagerABIJSON))
	if err != nil {
		t.Fatalf("parsing ABI: %v", err)
	}

	target := common.HexToAddress("0x00000000000000000000000000000000000def")
	calldata, err := parsed.Pack("incrementOvmContractNonce", target)
	if err != nil {
		t.Fatalf("packing incrementOvmContractNonce: %v", err)
	}
	if _, err := bridge.HandleCall(calldata); err != nil {
		t.Fatalf("HandleCall: %v", err)
	}
	if got := sv.GetNonce(target); got != 1 {
		t.Fatalf("nonce = %d, want 1", got)
	}
}

func TestStateBridgeUnrecognizedSelector(t *testing.T) {
	bridge := NewStateBridge(state.NewMemoryView())
	if _, err := bridge.HandleCall([]byte{0xde, 0xad, 0xbe, 0xef}); err == nil {
		t.Fatalf("HandleCall with an unknown selector succeeded, want an error")
	}
}

func TestStateBridgeCallDataTooShort(t *testing.T) {
	bridge := NewStateBridge(state.NewMemoryView())
	if _, err := bridge.HandleCall([]byte{0x01, 0x02}); err == nil {
		t.Fatalf("HandleCall with short calldata succeeded, want an error")
	}
}
