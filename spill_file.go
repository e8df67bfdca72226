package ghostmem

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// fileLocator is the file backend's spillLocator: a byte offset/length pair
// into the append-only spill file.
type fileLocator struct {
	offset int64
	length int
}

// fileSpill is the append-only file backend of spec.md §4.3. The file is
// truncated on open (no persistence across restarts, per spec.md §1
// Non-goals) and locked exclusively for the manager's lifetime, per
// spec.md §5's "Shared-resource policy" — ported from teacher sys.go's
// flock/munmap idiom, using golang.org/x/sys/unix instead of raw syscall
// numbers.
type fileSpill struct {
	mu         sync.Mutex
	f          *os.File
	nextOffset int64 // monotone non-decreasing; equals file length (I7)
}

func openFileSpill(path string) (*fileSpill, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "open spill file")
	}
	// Acquire exclusivity before truncating: an O_TRUNC in the OpenFile
	// call above would wipe out a file an existing owner still holds the
	// lock on, an instant before this flock fails.
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "flock spill file")
	}
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "truncate spill file")
	}
	return &fileSpill{f: f}, nil
}

func (s *fileSpill) put(_ uintptr, data []byte) (spillLocator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := s.nextOffset
	if _, err := s.f.WriteAt(data, offset); err != nil {
		return nil, errors.Wrap(err, "append spill record")
	}
	s.nextOffset += int64(len(data))
	return fileLocator{offset: offset, length: len(data)}, nil
}

func (s *fileSpill) get(loc spillLocator) ([]byte, error) {
	fl := loc.(fileLocator)
	buf := make([]byte, fl.length)
	if _, err := s.f.ReadAt(buf, fl.offset); err != nil {
		return nil, wrapf(ErrSpillReadFailure, "read spill record at %d: %v", fl.offset, err)
	}
	return buf, nil
}

// erase forgets a locator without reclaiming file space — spec.md §4.3
// guarantees no space is ever reclaimed during the process lifetime.
func (s *fileSpill) erase(spillLocator) error {
	return nil
}

func (s *fileSpill) close() error {
	_ = unix.Flock(int(s.f.Fd()), unix.LOCK_UN)
	return s.f.Close()
}
