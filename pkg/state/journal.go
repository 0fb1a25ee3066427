package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// journalEntry undoes exactly one mutation performed on a MemoryView.
type journalEntry interface {
	revert(v *MemoryView)
}

// journal is an undo log paired with a stack of checkpoint marks, so that
// Checkpoint/Commit/Revert can be nested the way the executor nests one
// checkpoint per message.
type journal struct {
	entries     []journalEntry
	checkpoints []int // entries-length at the time each open checkpoint was taken
}

func newJournal() *journal {
	return &journal{}
}

func (j *journal) append(e journalEntry) {
	j.entries = append(j.entries, e)
}

func (j *journal) checkpoint() int {
	j.checkpoints = append(j.checkpoints, len(j.entries))
	return len(j.checkpoints) - 1
}

// commit drops the most recently opened checkpoint without undoing
// anything; the mutations recorded since it become part of the parent's
// undo history (or permanent, if this was the outermost checkpoint).
func (j *journal) commit() {
	if len(j.checkpoints) == 0 {
		return
	}
	j.checkpoints = j.checkpoints[:len(j.checkpoints)-1]
}

func (j *journal) revert(id int, v *MemoryView) {
	if id < 0 || id >= len(j.checkpoints) {
		return
	}
	mark := j.checkpoints[id]
	for i := len(j.entries) - 1; i >= mark; i-- {
		j.entries[i].revert(v)
	}
	j.entries = j.entries[:mark]
	j.checkpoints = j.checkpoints[:id]
}

// --- concrete journal entries ---

type createAccountChange struct {
	addr common.Address
	prev *accountObject // nil if the account did not previously exist
}

func (c createAccountChange) revert(v *MemoryView) {
	if c.prev == nil {
		delete(v.objects, c.addr)
	} else {
		v.objects[c.addr] = c.prev
	}
}

type balanceChange struct {
	addr common.Address
	prev *big.Int
}

func (c balanceChange) revert(v *MemoryView) {
	if obj, ok := v.objects[c.addr]; ok {
		obj.account.Balance = c.prev
	}
}

type nonceChange struct {
	addr common.Address
	prev uint64
}

func (c nonceChange) revert(v *MemoryView) {
	if obj, ok := v.objects[c.addr]; ok {
		obj.account.Nonce = c.prev
	}
}

type codeChange struct {
	addr     common.Address
	prevCode []byte
	prevHash common.Hash
}

func (c codeChange) revert(v *MemoryView) {
	if obj, ok := v.objects[c.addr]; ok {
		obj.code = c.prevCode
		obj.account.CodeHash = c.prevHash
	}
}

type storageChange struct {
	addr       common.Address
	key        common.Hash
	prev       common.Hash
	prevExists bool
}

func (c storageChange) revert(v *MemoryView) {
	obj, ok := v.objects[c.addr]
	if !ok {
		return
	}
	if c.prevExists {
		obj.dirty[c.key] = c.prev
	} else {
		delete(obj.dirty, c.key)
	}
}

type storageClearChange struct {
	addr      common.Address
	prevDirty map[common.Hash]common.Hash
}

func (c storageClearChange) revert(v *MemoryView) {
	if obj, ok := v.objects[c.addr]; ok {
		obj.dirty = c.prevDirty
	}
}

type selfDestructChange struct {
	addr        common.Address
	prevSet     bool
	prevBalance *big.Int
}

func (c selfDestructChange) revert(v *MemoryView) {
	if obj, ok := v.objects[c.addr]; ok {
		obj.selfDestructed = c.prevSet
		obj.account.Balance = c.prevBalance
	}
}

type logChange struct {
	prevLen int
}

func (c logChange) revert(v *MemoryView) {
	v.logs = v.logs[:c.prevLen]
}

type refundChange struct {
	prev *big.Int
}

func (c refundChange) revert(v *MemoryView) {
	v.refund = c.prev
}

type accessListAddrChange struct {
	addr common.Address
}

func (c accessListAddrChange) revert(v *MemoryView) {
	delete(v.accessAddrs, c.addr)
}

type accessListSlotChange struct {
	addr common.Address
	slot common.Hash
}

func (c accessListSlotChange) revert(v *MemoryView) {
	if slots, ok := v.accessSlots[c.addr]; ok {
		delete(slots, c.slot)
	}
}
