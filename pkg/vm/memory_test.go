package vm

import (
	"bytes"
	"testing"
)

func TestMemoryResizeRoundsUpToWord(t *testing.T) {
	m := NewMemory()
	m.Resize(1)
	if got := m.Len(); got != 32 {
		t.Fatalf("Len after Resize(1) = %d, want 32", got)
	}
	m.Resize(33)
	if got := m.Len(); got != 64 {
		t.Fatalf("Len after Resize(33) = %d, want 64", got)
	}
}

func TestMemoryResizeNeverShrinks(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	m.Resize(32)
	if got := m.Len(); got != 64 {
		t.Fatalf("Len after shrinking Resize = %d, want 64", got)
	}
}

func TestMemorySetAndGet(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 4, []byte{0xde, 0xad, 0xbe, 0xef})

	got := m.Get(0, 4)
	if !bytes.Equal(got, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("Get = %x, want deadbeef", got)
	}
}

func TestMemorySet32PadsLeft(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set32(0, []byte{0x01})

	got := m.Get(0, 32)
	want := make([]byte, 32)
	want[31] = 0x01
	if !bytes.Equal(got, want) {
		t.Fatalf("Set32 = %x, want %x", got, want)
	}
}

func TestMemoryGetPtrSharesBackingArray(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 1, []byte{0x42})

	ptr := m.GetPtr(0, 1)
	ptr[0] = 0x99

	if got := m.Get(0, 1); got[0] != 0x99 {
		t.Fatalf("GetPtr mutation not reflected; Get = %x", got)
	}
}

func TestMemoryGetZeroSizeIsNil(t *testing.T) {
	m := NewMemory()
	if got := m.Get(0, 0); got != nil {
		t.Fatalf("Get(0,0) = %v, want nil", got)
	}
}
