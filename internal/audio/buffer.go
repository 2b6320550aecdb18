package audio

import (
	"errors"
	"sync"
)

// ErrBufferFull is returned when appending a chunk would exceed the cap.
var ErrBufferFull = errors.New("audio buffer full")

// Buffer accumulates capture chunks until the recording is assembled.
type Buffer struct {
	mu        sync.Mutex
	chunks    [][]byte
	totalSize int
	maxSize   int
}

// NewBuffer creates a buffer with the given maximum size in bytes.
func NewBuffer(maxSize int) *Buffer {
	return &Buffer{maxSize: maxSize}
}

// Append adds a chunk, rejecting it with ErrBufferFull once the cap is hit.
func (b *Buffer) Append(chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	newSize := b.totalSize + len(chunk)
	if newSize > b.maxSize {
		return ErrBufferFull
	}
	b.chunks = append(b.chunks, chunk)
	b.totalSize = newSize
	return nil
}

// Assemble concatenates all chunks in arrival order and clears the buffer.
func (b *Buffer) Assemble() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.chunks) == 0 {
		return nil
	}
	out := make([]byte, 0, b.totalSize)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	b.chunks = nil
	b.totalSize = 0
	return out
}

// Clear drops all buffered chunks.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = nil
	b.totalSize = 0
}

// Size returns the current total buffered bytes.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalSize
}
