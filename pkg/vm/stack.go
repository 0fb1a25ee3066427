package vm

import "github.com/holiman/uint256"

// stackLimit is the maximum number of items the stack may hold at once.
const stackLimit = 1024

// Stack is the fixed-capacity LIFO of 256-bit words every opcode handler
// operates on.
type Stack struct {
	data []uint256.Int
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Len returns the number of items currently on the stack.
func (s *Stack) Len() int { return len(s.data) }

// Push appends val to the top of the stack.
func (s *Stack) Push(val *uint256.Int) error {
	if len(s.data) >= stackLimit {
		return ErrStackOverflow
	}
	s.data = append(s.data, *val)
	return nil
}

// Pop removes and returns the top of the stack. Callers in the interpreter's
// hot path rely on the jump table's minStack check having already verified
// enough items are present; PopChecked is available where that guarantee
// does not hold.
func (s *Stack) Pop() uint256.Int {
	top := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return top
}

// PopChecked is like Pop but returns ErrStackUnderflow instead of panicking
// when the stack is empty.
func (s *Stack) PopChecked() (uint256.Int, error) {
	if len(s.data) == 0 {
		return uint256.Int{}, ErrStackUnderflow
	}
	return s.Pop(), nil
}

// Peek returns a pointer to the top of the stack without removing it.
func (s *Stack) Peek() *uint256.Int {
	return &s.data[len(s.data)-1]
}

// Back returns a pointer to the n-th item from the top (0 = top).
func (s *Stack) Back(n int) *uint256.Int {
	return &s.data[len(s.data)-1-n]
}

// require checks that at least n items are present.
func (s *Stack) require(n int) error {
	if len(s.data) < n {
		return ErrStackUnderflow
	}
	return nil
}

// Swap exchanges the top item with the item n positions below it (SWAP1 = n=1).
func (s *Stack) Swap(n int) error {
	if err := s.require(n + 1); err != nil {
		return err
	}
	top := len(s.data) - 1
	s.data[top], s.data[top-n] = s.data[top-n], s.data[top]
	return nil
}

// Dup duplicates the item n positions from the top onto the top (DUP1 = n=1).
func (s *Stack) Dup(n int) error {
	if err := s.require(n); err != nil {
		return err
	}
	if len(s.data) >= stackLimit {
		return ErrStackOverflow
	}
	val := s.data[len(s.data)-n]
	s.data = append(s.data, val)
	return nil
}

// Data returns the backing slice, bottom-first. Used by observers for
// step-event snapshots; callers must not mutate it.
func (s *Stack) Data() []uint256.Int {
	return s.data
}

// PopDiscard removes the top item without returning it.
func (s *Stack) PopDiscard() {
	s.data = s.data[:len(s.data)-1]
}

// Pop2 pops the top two items, returning (top, second-from-top) — the same
// (x, y) order as writing x, y := stack.pop(), stack.pop(): x is whatever
// was on top, y is what the top becomes after x is removed. Most binary
// opcodes (SUB, DIV, LT, ...) compute x OP y, i.e. top OP second.
func (s *Stack) Pop2() (x, y uint256.Int) {
	n := len(s.data)
	x, y = s.data[n-1], s.data[n-2]
	s.data = s.data[:n-2]
	return x, y
}

// Pop3 pops the top three items as (top, second, third).
func (s *Stack) Pop3() (x, y, z uint256.Int) {
	n := len(s.data)
	x, y, z = s.data[n-1], s.data[n-2], s.data[n-3]
	s.data = s.data[:n-3]
	return x, y, z
}
