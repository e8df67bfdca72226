package ghostmem

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy in spec.md §7. Callers compare with
// errors.Is; internal wrapping uses errors.Wrap so causes survive.
var (
	// ErrReserveFailure means the platform shim refused to reserve
	// virtual address space. Surfaced as a nil handle from Allocate.
	ErrReserveFailure = errors.New("ghostmem: reserve failure")

	// ErrCommitFailure means the platform shim refused to commit a page
	// during fault restore. The caller must treat this as fatal to the
	// faulting access; there is no safe way to fabricate the page.
	ErrCommitFailure = errors.New("ghostmem: commit failure")

	// ErrSpillWriteFailure means the spill backend rejected a write
	// during eviction. Recovered locally: the victim page stays
	// resident and I1 may be exceeded by one entry until the next
	// successful eviction.
	ErrSpillWriteFailure = errors.New("ghostmem: spill write failure")

	// ErrSpillReadFailure means the spill backend could not return the
	// bytes for a page being restored. Surfaced to the caller; the
	// engine refuses to hand back unrecoverable content as zeroes.
	ErrSpillReadFailure = errors.New("ghostmem: spill read failure")

	// ErrCodecFailure means compress or decompress returned an error.
	ErrCodecFailure = errors.New("ghostmem: codec failure")

	// ErrUnknownHandle means Deallocate was called on a pointer not in
	// the allocation directory (including double-deallocate, which is
	// the same condition observed the second time).
	ErrUnknownHandle = errors.New("ghostmem: unknown handle")

	// ErrNotOurs means the faulting address does not fall within any
	// reservation owned by this manager.
	ErrNotOurs = errors.New("ghostmem: address not owned by manager")

	// ErrClosed means an operation was attempted on a Manager after Close.
	ErrClosed = errors.New("ghostmem: manager closed")

	// ErrInvalidSize is returned by Allocate for a zero-byte request.
	// spec.md §4.4 leaves size == 0 implementation-defined while scoping
	// the rest of the algorithm to size >= 1; this implementation rejects
	// zero outright rather than guessing at a silently-degenerate
	// allocation.
	ErrInvalidSize = errors.New("ghostmem: size must be >= 1")
)

func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
