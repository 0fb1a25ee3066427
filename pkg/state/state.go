// Package state defines the external state view the executor and
// interpreter read and write through, plus a default in-memory
// implementation backed by a checkpoint journal.
package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Account is an Ethereum-style account as seen by the executor: a nonce,
// a balance, and pointers to code and storage. CodeHash and StorageRoot
// are informational (no trie is maintained by this package); they are
// recomputed lazily by callers that need them.
type Account struct {
	Nonce       uint64
	Balance     *big.Int
	CodeHash    common.Hash
	StorageRoot common.Hash
}

// NewAccount returns a zero-value account with an empty-code hash.
func NewAccount() Account {
	return Account{
		Balance:     new(big.Int),
		CodeHash:    EmptyCodeHash,
		StorageRoot: EmptyRootHash,
	}
}

var (
	// EmptyCodeHash is keccak256 of the empty byte string, the CodeHash of
	// every externally-owned account and of any contract with no code.
	EmptyCodeHash = common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

	// EmptyRootHash is the conventional "no storage" root marker. No trie
	// is actually built by this package; NewAccount stores it as every
	// account's StorageRoot and nothing recomputes or compares against it.
	EmptyRootHash = common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
)

// Log is a contract event emitted during execution.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// View is the state the executor reads and mutates. It is the "external
// collaborator" the specification assumes: account lookup, contract code,
// storage slots, checkpoint/commit/revert. The default implementation is
// MemoryView; a caller backed by a real trie/disk store only
// needs to satisfy this interface.
type View interface {
	// Accounts.
	CreateAccount(addr common.Address)
	Exist(addr common.Address) bool
	Empty(addr common.Address) bool
	GetBalance(addr common.Address) *big.Int
	AddBalance(addr common.Address, amount *big.Int)
	SubBalance(addr common.Address, amount *big.Int)
	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64)

	// Code.
	GetCode(addr common.Address) []byte
	SetCode(addr common.Address, code []byte)
	GetCodeHash(addr common.Address) common.Hash
	GetCodeSize(addr common.Address) int

	// Storage.
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
	GetCommittedState(addr common.Address, key common.Hash) common.Hash
	ClearStorage(addr common.Address)

	// Self-destruct.
	SelfDestruct(addr common.Address)
	HasSelfDestructed(addr common.Address) bool

	// Logs.
	AddLog(log *Log)
	Logs() []*Log
	ClearLogs()

	// Refund counter (big-integer per the specification's data model).
	AddRefund(amount *big.Int)
	SubRefund(amount *big.Int)
	GetRefund() *big.Int
	SetRefund(amount *big.Int)

	// EIP-2929 access list.
	AddAddressToAccessList(addr common.Address)
	AddSlotToAccessList(addr common.Address, slot common.Hash)
	AddressInAccessList(addr common.Address) bool
	SlotInAccessList(addr common.Address, slot common.Hash) (addrOk, slotOk bool)

	// Checkpoint stack.
	Checkpoint() int
	Commit()
	Revert(id int)
}
