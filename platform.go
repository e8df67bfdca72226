package ghostmem

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FaultVerdict is the outcome of a fault-intercept callback: either the
// access was handled and may be resumed, or the address doesn't belong to
// this engine and the caller must treat it as a real fault.
type FaultVerdict struct {
	Resumed bool
	Err     error
}

// FaultCallback is spec.md §4.2's cb(addr) → verdict, invoked synchronously
// on the calling goroutine. See SPEC_FULL.md §4.2 for why this engine calls
// it from software probe points (Buffer's accessors) instead of a real OS
// signal handler.
type FaultCallback func(addr uintptr) FaultVerdict

// region is one reservation's backing mmap, kept around so Commit/Decommit
// can mprotect/madvise a sub-slice of it and Release can munmap the whole
// thing. Ported from teacher sys.go's db.dataref/db.data pairing.
type region struct {
	mem []byte
}

// platformShim is the Go realization of spec.md §4.2. Reserve/Commit/
// Decommit/Release perform real mmap/mprotect/munmap/madvise syscalls —
// the reservation is not a simulation. InstallFaultIntercept registers the
// callback invoked by Buffer's probe points.
type platformShim struct {
	mu      sync.Mutex
	regions map[uintptr]*region
	cb      FaultCallback
}

func newPlatformShim() *platformShim {
	return &platformShim{regions: make(map[uintptr]*region)}
}

// reserve maps a page-aligned, noaccess, uncommitted region of nbytes and
// returns its base address. Never physically backs nbytes up front — the
// mapping carries PROT_NONE until Commit is called page by page.
func (ps *platformShim) reserve(nbytes uintptr) (uintptr, error) {
	mem, err := unix.Mmap(-1, 0, int(nbytes), unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, errors.Wrap(err, "mmap reserve")
	}
	base := uintptr(unsafe.Pointer(&mem[0]))
	ps.mu.Lock()
	ps.regions[base] = &region{mem: mem}
	ps.mu.Unlock()
	return base, nil
}

// findRegion returns the region containing addr and the byte offset of
// addr within it.
func (ps *platformShim) findRegion(addr uintptr) (*region, uintptr, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for base, r := range ps.regions {
		end := base + uintptr(len(r.mem))
		if addr >= base && addr < end {
			return r, addr - base, true
		}
	}
	return nil, 0, false
}

func (ps *platformShim) pageSlice(addr uintptr) ([]byte, error) {
	r, off, ok := ps.findRegion(addr)
	if !ok {
		return nil, errors.Wrap(ErrNotOurs, "pageSlice")
	}
	return r.mem[off : off+PageSize], nil
}

// commit makes a single page readable/writable. Idempotent for
// already-committed pages (mprotect is always safe to repeat).
func (ps *platformShim) commit(addr uintptr) error {
	page, err := ps.pageSlice(addr)
	if err != nil {
		return err
	}
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return errors.Wrap(err, "mprotect commit")
	}
	return nil
}

// decommit frees the physical frame backing addr's page and returns it to
// the noaccess state; the surrounding reservation is untouched.
func (ps *platformShim) decommit(addr uintptr) error {
	page, err := ps.pageSlice(addr)
	if err != nil {
		return err
	}
	if err := unix.Mprotect(page, unix.PROT_NONE); err != nil {
		return errors.Wrap(err, "mprotect decommit")
	}
	if err := unix.Madvise(page, unix.MADV_DONTNEED); err != nil {
		return errors.Wrap(err, "madvise decommit")
	}
	return nil
}

// release unmaps an entire reservation.
func (ps *platformShim) release(base uintptr) error {
	ps.mu.Lock()
	r, ok := ps.regions[base]
	if ok {
		delete(ps.regions, base)
	}
	ps.mu.Unlock()
	if !ok {
		return nil
	}
	if err := unix.Munmap(r.mem); err != nil {
		return errors.Wrap(err, "munmap release")
	}
	return nil
}

// installFaultIntercept registers cb to be invoked by probe points.
// Returns an uninstall func, per spec.md §4.2's verb shape.
func (ps *platformShim) installFaultIntercept(cb FaultCallback) (func(), error) {
	ps.mu.Lock()
	ps.cb = cb
	ps.mu.Unlock()
	return func() {
		ps.mu.Lock()
		ps.cb = nil
		ps.mu.Unlock()
	}, nil
}

// intercept is called from a probe point with the address being accessed.
func (ps *platformShim) intercept(addr uintptr) FaultVerdict {
	ps.mu.Lock()
	cb := ps.cb
	ps.mu.Unlock()
	if cb == nil {
		return FaultVerdict{Resumed: false, Err: ErrNotOurs}
	}
	return cb(addr)
}

func pageAlign(addr uintptr) uintptr {
	return addr &^ (PageSize - 1)
}
