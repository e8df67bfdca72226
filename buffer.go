package ghostmem

import "github.com/pkg/errors"

// Buffer is the "ghost buffer" of spec.md §9 Design Notes: the
// index-based access abstraction this module exposes in place of a raw
// pointer that transparently faults. Every ReadAt/WriteAt call is a probe
// point — see SPEC_FULL.md §4.2 — that runs the exact fault/evict
// algorithm of spec.md §4.5/§4.6 for any page it touches that isn't
// already Resident.
//
// Buffer itself is not safe for concurrent use by multiple goroutines
// without external synchronization beyond what the Manager provides per
// page; spec.md §5 only guarantees a total order of residency
// transitions, not of concurrent byte-level writes to the same buffer.
type Buffer struct {
	mgr  *Manager
	base uintptr
	size uintptr
}

// Len returns the number of bytes originally requested from Allocate
// (not the page-rounded reservation size).
func (b *Buffer) Len() int { return int(b.size) }

// bounds clamps [off, off+n) against the reservation's actual, page-
// rounded length rather than the originally requested size: spec.md B1
// guarantees access up to the rounded-up boundary, since the whole
// reservation is committed page by page regardless of how much of the
// last page the caller asked for.
func (b *Buffer) bounds(off int64, n int) (int, error) {
	if off < 0 {
		return 0, errors.New("ghostmem: negative offset")
	}
	capacity := roundUpPage(b.size)
	if uintptr(off) >= capacity {
		return 0, errors.New("ghostmem: offset out of range")
	}
	if uintptr(off)+uintptr(n) > capacity {
		n = int(capacity - uintptr(off))
	}
	return n, nil
}

// ReadAt copies up to len(p) bytes starting at off into p, faulting in
// whichever pages the range spans along the way. It returns the number
// of bytes copied, which is less than len(p) only if the range runs past
// the reservation's rounded-up boundary.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	n, err := b.bounds(off, len(p))
	if err != nil {
		return 0, err
	}
	done := 0
	for done < n {
		addr := b.base + uintptr(off) + uintptr(done)
		page, err := b.mgr.acquire(addr)
		if err != nil {
			return done, err
		}
		pageBytes, err := b.mgr.ps.pageSlice(page)
		if err != nil {
			b.mgr.release(page)
			return done, err
		}
		pageOff := addr - page
		chunk := int(uintptr(PageSize) - pageOff)
		if remaining := n - done; chunk > remaining {
			chunk = remaining
		}
		copy(p[done:done+chunk], pageBytes[pageOff:pageOff+uintptr(chunk)])
		b.mgr.release(page)
		done += chunk
	}
	return done, nil
}

// WriteAt copies up to len(p) bytes from p into the buffer starting at
// off, faulting in whichever pages the range spans along the way.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	n, err := b.bounds(off, len(p))
	if err != nil {
		return 0, err
	}
	done := 0
	for done < n {
		addr := b.base + uintptr(off) + uintptr(done)
		page, err := b.mgr.acquire(addr)
		if err != nil {
			return done, err
		}
		pageBytes, err := b.mgr.ps.pageSlice(page)
		if err != nil {
			b.mgr.release(page)
			return done, err
		}
		pageOff := addr - page
		chunk := int(uintptr(PageSize) - pageOff)
		if remaining := n - done; chunk > remaining {
			chunk = remaining
		}
		copy(pageBytes[pageOff:pageOff+uintptr(chunk)], p[done:done+chunk])
		b.mgr.release(page)
		done += chunk
	}
	return done, nil
}

// Close deallocates the buffer through its owning manager.
func (b *Buffer) Close() error {
	return b.mgr.Deallocate(b)
}
