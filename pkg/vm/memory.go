package vm

// Memory is the byte-addressable, word-aligned EVM memory model. Callers
// (the interpreter's dynamic-gas pass) are responsible for calling Resize
// with the fork's memory-expansion cost already charged before any Set/Get
// call that would otherwise go out of bounds.
type Memory struct {
	store []byte
}

// NewMemory returns empty memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Resize grows memory to at least size bytes, rounded up to the next 32-byte
// word. It never shrinks.
func (m *Memory) Resize(size uint64) {
	if words := toWordSize(size); uint64(len(m.store)) < words*32 {
		m.store = append(m.store, make([]byte, words*32-uint64(len(m.store)))...)
	}
}

// Set copies value into memory at [offset, offset+size).
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val (big-endian, left-padded with zero) into 32 bytes at offset.
func (m *Memory) Set32(offset uint64, val []byte) {
	copy(m.store[offset:offset+32], make([]byte, 32))
	if len(val) > 32 {
		val = val[len(val)-32:]
	}
	copy(m.store[offset+32-uint64(len(val)):offset+32], val)
}

// Get returns a copy of the memory contents at [offset, offset+size).
func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a direct slice reference at [offset, offset+size). Callers
// must not retain it past the next mutation.
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Len returns the current memory length in bytes.
func (m *Memory) Len() uint64 { return uint64(len(m.store)) }

// Data returns the full backing slice.
func (m *Memory) Data() []byte { return m.store }

// toWordSize rounds size up to the nearest multiple of 32, in words.
func toWordSize(size uint64) uint64 {
	if size == 0 {
		return 0
	}
	return (size + 31) / 32
}
