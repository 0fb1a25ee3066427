package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// accountObject is one account's mutable state: the account header, its
// deployed code, and its storage. dirty holds every slot written through
// SetState; committed is what reads fall back to for unwritten slots, and
// nothing in MemoryView fills it, so it stays empty.
type accountObject struct {
	account        Account
	code           []byte
	committed      map[common.Hash]common.Hash
	dirty          map[common.Hash]common.Hash
	selfDestructed bool
}

func newAccountObject() *accountObject {
	return &accountObject{
		account:   NewAccount(),
		committed: make(map[common.Hash]common.Hash),
		dirty:     make(map[common.Hash]common.Hash),
	}
}

// MemoryView is the default in-memory implementation of View, backed by a
// journal so that Checkpoint/Commit/Revert can nest one level per message
// the way the executor uses it.
type MemoryView struct {
	objects     map[common.Address]*accountObject
	journal     *journal
	logs        []*Log
	refund      *big.Int
	accessAddrs map[common.Address]struct{}
	accessSlots map[common.Address]map[common.Hash]struct{}
}

// NewMemoryView returns an empty in-memory state view.
func NewMemoryView() *MemoryView {
	return &MemoryView{
		objects:     make(map[common.Address]*accountObject),
		journal:     newJournal(),
		refund:      new(big.Int),
		accessAddrs: make(map[common.Address]struct{}),
		accessSlots: make(map[common.Address]map[common.Hash]struct{}),
	}
}

func (v *MemoryView) get(addr common.Address) *accountObject {
	return v.objects[addr]
}

func (v *MemoryView) getOrCreate(addr common.Address) *accountObject {
	if obj := v.objects[addr]; obj != nil {
		return obj
	}
	obj := newAccountObject()
	v.objects[addr] = obj
	return obj
}

// --- accounts ---

func (v *MemoryView) CreateAccount(addr common.Address) {
	prev := v.objects[addr]
	v.journal.append(createAccountChange{addr: addr, prev: prev})
	v.objects[addr] = newAccountObject()
}

func (v *MemoryView) Exist(addr common.Address) bool {
	return v.objects[addr] != nil
}

func (v *MemoryView) Empty(addr common.Address) bool {
	obj := v.get(addr)
	if obj == nil {
		return true
	}
	return obj.account.Nonce == 0 && obj.account.Balance.Sign() == 0 && obj.account.CodeHash == EmptyCodeHash
}

func (v *MemoryView) GetBalance(addr common.Address) *big.Int {
	if obj := v.get(addr); obj != nil {
		return new(big.Int).Set(obj.account.Balance)
	}
	return new(big.Int)
}

func (v *MemoryView) AddBalance(addr common.Address, amount *big.Int) {
	obj := v.getOrCreate(addr)
	v.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(obj.account.Balance)})
	obj.account.Balance = new(big.Int).Add(obj.account.Balance, amount)
}

func (v *MemoryView) SubBalance(addr common.Address, amount *big.Int) {
	obj := v.getOrCreate(addr)
	v.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(obj.account.Balance)})
	obj.account.Balance = new(big.Int).Sub(obj.account.Balance, amount)
}

func (v *MemoryView) GetNonce(addr common.Address) uint64 {
	if obj := v.get(addr); obj != nil {
		return obj.account.Nonce
	}
	return 0
}

func (v *MemoryView) SetNonce(addr common.Address, nonce uint64) {
	obj := v.getOrCreate(addr)
	v.journal.append(nonceChange{addr: addr, prev: obj.account.Nonce})
	obj.account.Nonce = nonce
}

// --- code ---

func (v *MemoryView) GetCode(addr common.Address) []byte {
	if obj := v.get(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (v *MemoryView) SetCode(addr common.Address, code []byte) {
	obj := v.getOrCreate(addr)
	v.journal.append(codeChange{addr: addr, prevCode: obj.code, prevHash: obj.account.CodeHash})
	obj.code = code
	obj.account.CodeHash = crypto.Keccak256Hash(code)
}

func (v *MemoryView) GetCodeHash(addr common.Address) common.Hash {
	if obj := v.get(addr); obj != nil {
		return obj.account.CodeHash
	}
	return common.Hash{}
}

func (v *MemoryView) GetCodeSize(addr common.Address) int {
	return len(v.GetCode(addr))
}

// --- storage ---

func (v *MemoryView) GetState(addr common.Address, key common.Hash) common.Hash {
	obj := v.get(addr)
	if obj == nil {
		return common.Hash{}
	}
	if val, ok := obj.dirty[key]; ok {
		return val
	}
	return obj.committed[key]
}

func (v *MemoryView) SetState(addr common.Address, key common.Hash, value common.Hash) {
	obj := v.getOrCreate(addr)
	prev, exists := obj.dirty[key]
	if !exists {
		prev = obj.committed[key]
	}
	v.journal.append(storageChange{addr: addr, key: key, prev: prev, prevExists: exists})
	obj.dirty[key] = value
}

func (v *MemoryView) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	if obj := v.get(addr); obj != nil {
		return obj.committed[key]
	}
	return common.Hash{}
}

// ClearStorage wipes every dirty storage entry for addr, used by the create
// path before a contract's init code runs at a reused address.
func (v *MemoryView) ClearStorage(addr common.Address) {
	obj := v.getOrCreate(addr)
	v.journal.append(storageClearChange{addr: addr, prevDirty: obj.dirty})
	obj.dirty = make(map[common.Hash]common.Hash)
	obj.committed = make(map[common.Hash]common.Hash)
}

// --- self-destruct ---

func (v *MemoryView) SelfDestruct(addr common.Address) {
	obj := v.get(addr)
	if obj == nil {
		return
	}
	v.journal.append(selfDestructChange{addr: addr, prevSet: obj.selfDestructed, prevBalance: new(big.Int).Set(obj.account.Balance)})
	obj.selfDestructed = true
	obj.account.Balance = new(big.Int)
}

func (v *MemoryView) HasSelfDestructed(addr common.Address) bool {
	if obj := v.get(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

// --- logs ---

func (v *MemoryView) AddLog(log *Log) {
	v.journal.append(logChange{prevLen: len(v.logs)})
	v.logs = append(v.logs, log)
}

func (v *MemoryView) Logs() []*Log {
	return v.logs
}

func (v *MemoryView) ClearLogs() {
	v.logs = nil
}

// --- refund ---

func (v *MemoryView) AddRefund(amount *big.Int) {
	v.journal.append(refundChange{prev: new(big.Int).Set(v.refund)})
	v.refund = new(big.Int).Add(v.refund, amount)
}

func (v *MemoryView) SubRefund(amount *big.Int) {
	v.journal.append(refundChange{prev: new(big.Int).Set(v.refund)})
	v.refund = new(big.Int).Sub(v.refund, amount)
	if v.refund.Sign() < 0 {
		v.refund = new(big.Int)
	}
}

func (v *MemoryView) GetRefund() *big.Int {
	return new(big.Int).Set(v.refund)
}

func (v *MemoryView) SetRefund(amount *big.Int) {
	v.journal.append(refundChange{prev: new(big.Int).Set(v.refund)})
	v.refund = new(big.Int).Set(amount)
}

// --- access list (EIP-2929) ---

func (v *MemoryView) AddAddressToAccessList(addr common.Address) {
	if _, ok := v.accessAddrs[addr]; ok {
		return
	}
	v.journal.append(accessListAddrChange{addr: addr})
	v.accessAddrs[addr] = struct{}{}
}

func (v *MemoryView) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	if _, ok := v.accessAddrs[addr]; !ok {
		v.journal.append(accessListAddrChange{addr: addr})
		v.accessAddrs[addr] = struct{}{}
	}
	slots, ok := v.accessSlots[addr]
	if !ok {
		slots = make(map[common.Hash]struct{})
		v.accessSlots[addr] = slots
	}
	if _, ok := slots[slot]; ok {
		return
	}
	v.journal.append(accessListSlotChange{addr: addr, slot: slot})
	slots[slot] = struct{}{}
}

func (v *MemoryView) AddressInAccessList(addr common.Address) bool {
	_, ok := v.accessAddrs[addr]
	return ok
}

func (v *MemoryView) SlotInAccessList(addr common.Address, slot common.Hash) (addrOk, slotOk bool) {
	_, addrOk = v.accessAddrs[addr]
	if slots, ok := v.accessSlots[addr]; ok {
		_, slotOk = slots[slot]
	}
	return
}

// --- checkpoint stack ---

func (v *MemoryView) Checkpoint() int {
	return v.journal.checkpoint()
}

func (v *MemoryView) Commit() {
	v.journal.commit()
}

func (v *MemoryView) Revert(id int) {
	v.journal.revert(id, v)
}

var _ View = (*MemoryView)(nil)
