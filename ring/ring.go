// Package ring implements a fixed capacity ring buffer that overwrites
// the oldest element once full.
//
// Elements are addressed by logical index: 0 is the oldest live element
// and Len()-1 the newest, independent of where they sit in storage.
package ring

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrEmpty           = errors.New("buffer is empty")
)

// Buffer is an array backed ring of fixed capacity.
// The backing array is allocated once in New and never reallocated.
type Buffer[T any] struct {
	data []T
	// physical index of logical 0, also the write cursor once full
	start int
}

// New creates an empty buffer that holds at most capacity elements
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Buffer[T]{
		data:  make([]T, 0, capacity),
		start: 0,
	}, nil
}

// Push appends v as the newest element. When the buffer is full the oldest
// element is overwritten and returned with ok set to true.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	if len(b.data) < cap(b.data) {
		b.data = append(b.data, v)
		return evicted, false
	}
	evicted = b.data[b.start]
	b.data[b.start] = v
	b.start = (b.start + 1) % len(b.data)
	return evicted, true
}

func (b *Buffer[T]) Len() int {
	return len(b.data)
}

func (b *Buffer[T]) Cap() int {
	return cap(b.data)
}

func (b *Buffer[T]) IsFull() bool {
	return len(b.data) == cap(b.data)
}

// physical translates a logical index into a storage index
func (b *Buffer[T]) physical(i int) int {
	return (b.start + i) % len(b.data)
}

func (b *Buffer[T]) check(i int) error {
	if i < 0 || i >= len(b.data) {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, len(b.data))
	}
	return nil
}

// At returns a copy of the element at logical index i
func (b *Buffer[T]) At(i int) (T, error) {
	if err := b.check(i); err != nil {
		var zero T
		return zero, err
	}
	return b.data[b.physical(i)], nil
}

// Ref returns a pointer to the element at logical index i.
// The pointer stays valid until the slot is overwritten by a later Push.
func (b *Buffer[T]) Ref(i int) (*T, error) {
	if err := b.check(i); err != nil {
		return nil, err
	}
	return &b.data[b.physical(i)], nil
}

// Front returns the oldest element
func (b *Buffer[T]) Front() (*T, error) {
	if len(b.data) == 0 {
		return nil, ErrEmpty
	}
	return &b.data[b.start], nil
}

// Back returns the newest element
func (b *Buffer[T]) Back() (*T, error) {
	if len(b.data) == 0 {
		return nil, ErrEmpty
	}
	return &b.data[b.physical(len(b.data)-1)], nil
}

func (b *Buffer[T]) checkRange(from, to int) error {
	if from < 0 || from > to || to > len(b.data) {
		return fmt.Errorf("%w: range [%d, %d), length %d", ErrIndexOutOfRange, from, to, len(b.data))
	}
	return nil
}

// Slice returns a lazy view over the logical range [from, to).
// Nothing is copied; the view reads through to the buffer.
func (b *Buffer[T]) Slice(from, to int) (View[T], error) {
	if err := b.checkRange(from, to); err != nil {
		return View[T]{}, err
	}
	return View[T]{
		buf:  b,
		from: from,
		len:  to - from,
	}, nil
}

// Segments returns the (at most two) contiguous pieces of the backing array
// that hold the logical range [from, to), in logical order. The returned
// slices have their capacity clipped so appending to them never writes into
// neighbouring slots.
func (b *Buffer[T]) Segments(from, to int) (head, tail []T, err error) {
	if err := b.checkRange(from, to); err != nil {
		return nil, nil, err
	}
	count := to - from
	if count == 0 {
		return nil, nil, nil
	}
	n := len(b.data)
	p := b.physical(from)
	if p+count <= n {
		return b.data[p : p+count : p+count], nil, nil
	}
	rest := count - (n - p)
	return b.data[p:n:n], b.data[0:rest:rest], nil
}

// View is a read only window over a logical range of a Buffer
type View[T any] struct {
	buf  *Buffer[T]
	from int
	len  int
}

func (v View[T]) Len() int {
	return v.len
}

// At returns the i-th element of the view
func (v View[T]) At(i int) (T, error) {
	if i < 0 || i >= v.len {
		var zero T
		return zero, fmt.Errorf("%w: index %d, view length %d", ErrIndexOutOfRange, i, v.len)
	}
	return v.buf.data[v.buf.physical(v.from+i)], nil
}

// Range calls fn for every element of the view in logical order until fn
// returns false
func (v View[T]) Range(fn func(int, T) bool) {
	for i := 0; i < v.len; i++ {
		if !fn(i, v.buf.data[v.buf.physical(v.from+i)]) {
			return
		}
	}
}
