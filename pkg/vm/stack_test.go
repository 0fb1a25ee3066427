package vm

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack()
	one := uint256.NewInt(1)
	if err := s.Push(one); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	got := s.Pop()
	if !got.Eq(one) {
		t.Fatalf("Pop = %s, want 1", got.String())
	}
	if s.Len() != 0 {
		t.Fatalf("Len after pop = %d, want 0", s.Len())
	}
}

func TestStackPopCheckedUnderflow(t *testing.T) {
	s := NewStack()
	if _, err := s.PopChecked(); !IsKind(err, ErrKindStackUnderflow) {
		t.Fatalf("PopChecked on empty stack = %v, want ErrKindStackUnderflow", err)
	}
}

func TestStackOverflow(t *testing.T) {
	s := NewStack()
	for i := 0; i < stackLimit; i++ {
		if err := s.Push(uint256.NewInt(uint64(i))); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}
	if err := s.Push(uint256.NewInt(9999)); !IsKind(err, ErrKindStackOverflow) {
		t.Fatalf("Push past limit = %v, want ErrKindStackOverflow", err)
	}
}

func TestStackSwap(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(1))
	s.Push(uint256.NewInt(2))
	s.Push(uint256.NewInt(3))

	if err := s.Swap(2); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if got := s.Data(); got[2].Uint64() != 1 || got[0].Uint64() != 3 {
		t.Fatalf("Swap(2) = %v, want top and bottom exchanged", got)
	}
}

func TestStackDup(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(7))
	s.Push(uint256.NewInt(8))

	if err := s.Dup(2); err != nil {
		t.Fatalf("Dup: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len after Dup = %d, want 3", s.Len())
	}
	if top := s.Peek(); top.Uint64() != 7 {
		t.Fatalf("Peek after Dup(2) = %d, want 7", top.Uint64())
	}
}

func TestStackDupUnderflow(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(1))
	if err := s.Dup(3); !IsKind(err, ErrKindStackUnderflow) {
		t.Fatalf("Dup(3) on 1-item stack = %v, want ErrKindStackUnderflow", err)
	}
}

func TestStackPop2Pop3Order(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(1))
	s.Push(uint256.NewInt(2))
	s.Push(uint256.NewInt(3))

	x, y, z := s.Pop3()
	if x.Uint64() != 3 || y.Uint64() != 2 || z.Uint64() != 1 {
		t.Fatalf("Pop3 = (%d,%d,%d), want (3,2,1)", x.Uint64(), y.Uint64(), z.Uint64())
	}
	if s.Len() != 0 {
		t.Fatalf("Len after Pop3 = %d, want 0", s.Len())
	}
}

func TestStackBackAndPeek(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(10))
	s.Push(uint256.NewInt(20))
	s.Push(uint256.NewInt(30))

	if got := s.Back(0); got.Uint64() != 30 {
		t.Fatalf("Back(0) = %d, want 30", got.Uint64())
	}
	if got := s.Back(2); got.Uint64() != 10 {
		t.Fatalf("Back(2) = %d, want 10", got.Uint64())
	}
	if got := s.Peek(); got.Uint64() != 30 {
		t.Fatalf("Peek = %d, want 30", got.Uint64())
	}
}
