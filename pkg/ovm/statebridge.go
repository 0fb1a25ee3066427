package ovm

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
	"github.com/eth2030/ovmtrace/pkg/vm"
)

// stateManagerABIJSON is the StateManager pseudo-contract's interface. A
// CALL whose target resolves to ContractKindStateManager never executes
// bytecode; its selector is decoded against this ABI and dispatched
// directly to the handlers below, against the host state view.
const stateManagerABIJSON = `[
	{"type":"function","name":"setStorage","inputs":[
		{"name":"_ovmContractAddress","type":"address"},
		{"name":"_key","type":"bytes32"},
		{"name":"_value","type":"bytes32"}
	],"outputs":[]},
	{"type":"function","name":"getStorage","inputs":[
		{"name":"_ovmContractAddress","type":"address"},
		{"name":"_key","type":"bytes32"}
	],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getStorageView","inputs":[
		{"name":"_ovmContractAddress","type":"address"},
		{"name":"_key","type":"bytes32"}
	],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getOvmContractNonce","inputs":[
		{"name":"_ovmContractAddress","type":"address"}
	],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getCodeContractBytecode","inputs":[
		{"name":"_ovmContractAddress","type":"address"}
	],"outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"incrementOvmContractNonce","inputs":[
		{"name":"_ovmContractAddress","type":"address"}
	],"outputs":[]},
	{"type":"function","name":"registerCreatedContract","inputs":[
		{"name":"_ovmContractAddress","type":"address"}
	],"outputs":[]},
	{"type":"function","name":"associateCodeContract","inputs":[
		{"name":"_ovmContractAddress","type":"address"},
		{"name":"_codeContractAddress","type":"address"}
	],"outputs":[]},
	{"type":"function","name":"getCodeContractAddressFromOvmAddress","inputs":[
		{"name":"_ovmContractAddress","type":"address"}
	],"outputs":[{"name":"","type":"address"}]}
]`

// StateBridge decodes calls addressed to the StateManager pseudo-contract
// and serves them straight from the state view, bypassing interpretation
// entirely.
type StateBridge struct {
	abi   abi.ABI
	state state.View
}

// NewStateBridge parses the StateManager interface once at construction.
func NewStateBridge(sv state.View) *StateBridge {
	parsed, err := abi.JSON(strings.NewReader(stateManagerABIJSON))
	if err != nil {
		// The ABI literal above is fixed at compile time; a parse failure
		// here means the literal itself is broken, not a runtime condition.
		panic(err)
	}
	return &StateBridge{abi: parsed, state: sv}
}

// HandleCall decodes message.Data against the StateManager interface and
// dispatches to the matching handler, returning the ABI-encoded result.
func (b *StateBridge) HandleCall(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, vm.NewExecError(vm.ErrKindOVM, "state bridge call data too short")
	}
	method, err := b.abi.MethodById(data[:4])
	if err != nil {
		return nil, vm.NewExecError(vm.ErrKindOVM, "unrecognized state bridge selector %x", data[:4])
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, vm.NewExecError(vm.ErrKindOVM, "cannot decode arguments for %s: %v", method.Name, err)
	}

	switch method.Name {
	case "setStorage":
		addr := args[0].(common.Address)
		key := common.Hash(args[1].([32]byte))
		value := common.Hash(args[2].([32]byte))
		b.state.SetState(addr, key, value)
		return method.Outputs.Pack()

	case "getStorage", "getStorageView":
		addr := args[0].(common.Address)
		key := common.Hash(args[1].([32]byte))
		value := b.state.GetState(addr, key)
		return method.Outputs.Pack([32]byte(value))

	case "getOvmContractNonce":
		addr := args[0].(common.Address)
		nonce := new(big.Int).SetUint64(b.state.GetNonce(addr))
		return method.Outputs.Pack(nonce)

	case "getCodeContractBytecode":
		addr := args[0].(common.Address)
		return method.Outputs.Pack(b.state.GetCode(addr))

	case "incrementOvmContractNonce":
		addr := args[0].(common.Address)
		b.state.SetNonce(addr, b.state.GetNonce(addr)+1)
		return method.Outputs.Pack()

	case "registerCreatedContract", "associateCodeContract":
		// No-ops in this core: extension hooks for a fuller OVM bridge that
		// tracks code-contract/ovm-contract association tables.
		return method.Outputs.Pack()

	case "getCodeContractAddressFromOvmAddress":
		addr := args[0].(common.Address)
		return method.Outputs.Pack(addr)

	default:
		return nil, vm.NewExecError(vm.ErrKindOVM, "unhandled state bridge method %s", method.Name)
	}
}
