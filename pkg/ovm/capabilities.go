package ovm

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/ovmtrace/pkg/state"
	"github.com/eth2030/ovmtrace/pkg/vm"
)

// Capabilities bundles the collaborators an Executor needs: the mutable
// state view, the active fork's gas/behavior rules, the well-known contract
// registry, the OVM State-Manager bridge, and an Observer for advisory
// tracing. This replaces ad hoc dynamic dispatch on an untyped "vm" handle
// with one explicit struct passed once at construction, per the capability
// interface design this module settles on in place of a cyclic/any-typed
// back-reference between the executor and its contract objects.
type Capabilities struct {
	StateView      state.View
	ForkConfig     vm.ForkConfig
	Contracts      *Registry
	OVMStateBridge *StateBridge
	Observer       vm.Observer
	Block          vm.BlockContext
	GetHash        func(number uint64) common.Hash
}
