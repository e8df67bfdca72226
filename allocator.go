package ghostmem

import "unsafe"

// Allocator is a typed adapter over a Manager, grounded on the source's
// GhostAllocator<T> (original_source/src/ghostmem/GhostAllocator.h): a
// thin std::allocator-shaped wrapper that sizes requests in elements of T
// instead of bytes. Two Allocators compare equal with Equal iff they
// forward to the same Manager, mirroring that type's operator==.
type Allocator[T any] struct {
	mgr *Manager
}

// NewAllocator returns an Allocator[T] backed by m.
func NewAllocator[T any](m *Manager) Allocator[T] {
	return Allocator[T]{mgr: m}
}

// Equal reports whether a and other forward to the same Manager.
func (a Allocator[T]) Equal(other Allocator[T]) bool {
	return a.mgr == other.mgr
}

// Handle is a typed view over a Buffer, indexing it in units of T rather
// than bytes.
type Handle[T any] struct {
	buf      *Buffer
	n        int
	elemSize uintptr
}

// Allocate reserves space for n contiguous values of T and returns a
// Handle over it. A nil Handle with a nil error means the underlying
// reservation failed, per Manager.Allocate's null-handle convention.
func (a Allocator[T]) Allocate(n int) (*Handle[T], error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	var zero T
	elemSize := unsafe.Sizeof(zero)

	buf, err := a.mgr.Allocate(uintptr(n) * elemSize)
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, nil
	}
	return &Handle[T]{buf: buf, n: n, elemSize: elemSize}, nil
}

// Deallocate releases the reservation backing h. Deallocating nil is a
// no-op.
func (a Allocator[T]) Deallocate(h *Handle[T]) error {
	if h == nil {
		return nil
	}
	return a.mgr.Deallocate(h.buf)
}

// Len reports the number of elements h was allocated for.
func (h *Handle[T]) Len() int { return h.n }

// At reads the i'th element, faulting in whichever pages back it.
func (h *Handle[T]) At(i int) T {
	var v T
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&v)), int(h.elemSize))
	_, _ = h.buf.ReadAt(dst, int64(i)*int64(h.elemSize))
	return v
}

// Set writes the i'th element, faulting in whichever pages back it.
func (h *Handle[T]) Set(i int, v T) {
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), int(h.elemSize))
	_, _ = h.buf.WriteAt(src, int64(i)*int64(h.elemSize))
}
