package engine

import "sync/atomic"

const dirtyBit = 4

// TripleBuffer passes values from one writer goroutine to one reader
// goroutine without locks. The writer fills the slot returned by Back and
// calls Publish; the reader calls Read and always gets the most recently
// published value. Neither side ever waits for the other, and values the
// reader never saw are overwritten.
type TripleBuffer[T any] struct {
	slots [3]T
	// middle slot index in the low bits, dirtyBit set when it holds a value
	// the reader has not taken yet
	state atomic.Uint32
	back  uint32 // writer owned
	front uint32 // reader owned
}

// NewTripleBuffer creates a buffer. init is called once per slot so each
// slot can own preallocated storage.
func NewTripleBuffer[T any](init func(*T)) *TripleBuffer[T] {
	b := &TripleBuffer[T]{back: 0, front: 2}
	b.state.Store(1)
	if init != nil {
		for i := range b.slots {
			init(&b.slots[i])
		}
	}
	return b
}

// Back returns the slot the writer may fill. It stays valid until the
// next Publish.
func (b *TripleBuffer[T]) Back() *T {
	return &b.slots[b.back]
}

// Publish hands the back slot to the reader and takes the previous middle
// slot as the new back slot.
func (b *TripleBuffer[T]) Publish() {
	old := b.state.Swap(b.back | dirtyBit)
	b.back = old &^ dirtyBit
}

// Read returns the latest published value. The returned slot stays owned
// by the reader until the next Read.
func (b *TripleBuffer[T]) Read() *T {
	if b.state.Load()&dirtyBit != 0 {
		old := b.state.Swap(b.front)
		b.front = old &^ dirtyBit
	}
	return &b.slots[b.front]
}

// Fresh reports whether a value was published since the last Read.
func (b *TripleBuffer[T]) Fresh() bool {
	return b.state.Load()&dirtyBit != 0
}
