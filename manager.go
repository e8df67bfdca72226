package ghostmem

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager is the process-wide-capable coordinator of spec.md §4.1: it owns
// the config, the page table/LRU, the allocation directory, the spill
// backend and the cipher key, all behind a single mutex.
//
// Unlike the source's lazily-constructed global (spec.md §9 Design
// Notes), Manager is an ordinary value created with New; Default wraps a
// single lazily-built Manager for callers that want the source's
// singleton convenience — needed because InstallFaultIntercept is
// inherently process-wide in a real platform shim.
type Manager struct {
	mu sync.Mutex

	cfg Config
	log *logrus.Logger

	ps *platformShim
	pt *pageTable
	ad *allocDirectory

	spill spillBackend
	key   *cipherKey

	uninstall func()
	closed    bool
}

// New constructs a Manager per the given Config. On File backing it
// creates or truncates the spill file and takes an exclusive lock on it;
// failure here returns a non-nil error and leaves no side effects (the
// partially-opened file, if any, is closed).
func New(cfg Config) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		log: newLogger(cfg.Verbose),
		ps:  newPlatformShim(),
		pt:  newPageTable(),
		ad:  newAllocDirectory(),
	}

	switch cfg.Backing {
	case File:
		fs, err := openFileSpill(cfg.SpillPath)
		if err != nil {
			return nil, wrapf(err, "initialize file spill backend")
		}
		m.spill = fs
		if cfg.EncryptOnSpill {
			key, err := newCipherKey()
			if err != nil {
				_ = fs.close()
				return nil, err
			}
			m.key = key
		}
	default:
		m.spill = newMemSpill()
	}

	uninstall, _ := m.ps.installFaultIntercept(m.fault)
	m.uninstall = uninstall

	m.log.WithFields(logrus.Fields{
		"backing":      cfg.Backing,
		"resident_cap": cfg.residentCap(),
	}).Debug("manager initialized")

	return m, nil
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
)

// Default lazily constructs a Manager with the zero Config and returns it
// on every subsequent call — the source's process-wide-singleton
// convenience, without the initialization-order hazard of a bare global
// (spec.md §9). Returns nil if the one-time construction failed; callers
// that need to observe the error should call New directly instead.
func Default() *Manager {
	defaultOnce.Do(func() {
		m, err := New(Config{})
		if err == nil {
			defaultMgr = m
		}
	})
	return defaultMgr
}

// spillCodec reports the codec to use when freezing/restoring a page, and
// whether compression applies at all. InMemory is always compressed
// (spec.md §4.1); File only compresses when CompressBeforeSpill is set.
func (m *Manager) spillCodec() (codec, bool) {
	if m.cfg.Backing == File {
		if !m.cfg.CompressBeforeSpill {
			return nil, false
		}
		return codecFor(CompLZ4), true
	}
	return codecFor(CompSnappy), true
}

func roundUpPage(size uintptr) uintptr {
	return (size + PageSize - 1) &^ (PageSize - 1)
}

func pageSpan(base, nbytes uintptr) []uintptr {
	span := make([]uintptr, 0, nbytes/PageSize)
	for p := base; p < base+nbytes; p += PageSize {
		span = append(span, p)
	}
	return span
}

// Allocate reserves a byte-length region and returns a Buffer over it, or
// nil on reservation failure — spec.md §4.4's allocate(size).
func (m *Manager) Allocate(size uintptr) (*Buffer, error) {
	if size == 0 {
		return nil, ErrInvalidSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	nbytes := roundUpPage(size)
	base, err := m.ps.reserve(nbytes)
	if err != nil {
		m.log.WithError(wrapf(ErrReserveFailure, "%v", err)).Warn("allocate: reserve failed")
		return nil, nil //nolint:nilerr // spec.md: reservation failure surfaces as a nil handle, not an error
	}

	span := pageSpan(base, nbytes)
	m.ad.register(base, size, span)
	for _, p := range span {
		m.pt.ensure(p)
	}

	m.log.WithFields(logrus.Fields{"base": base, "size": size, "pages": len(span)}).Debug("allocate")
	return &Buffer{mgr: m, base: base, size: size}, nil
}

// Deallocate releases a Buffer's resources. Deallocating nil is a no-op;
// deallocating an unknown or already-freed handle logs once and returns
// without mutating state — spec.md §4.4/§7.
func (m *Manager) Deallocate(buf *Buffer) error {
	if buf == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	return m.deallocateLocked(buf.base)
}

func (m *Manager) deallocateLocked(base uintptr) error {
	info, ok := m.ad.unregister(base)
	if !ok {
		m.log.WithError(wrapf(ErrUnknownHandle, "%#x", base)).Warn("deallocate")
		return nil
	}

	for _, page := range info.spanPages {
		if m.ad.decref(page) > 0 {
			continue
		}
		slot, ok := m.pt.get(page)
		if !ok {
			continue
		}
		m.pt.removeFromLRU(slot)
		if slot.spill != nil {
			if err := m.spill.erase(slot.spill); err != nil {
				m.log.WithError(err).Warn("deallocate: erase spill record")
			}
		}
		if slot.state == stateResident {
			if err := m.ps.decommit(page); err != nil {
				m.log.WithError(err).Warn("deallocate: decommit")
			}
		}
		m.pt.remove(page)
	}

	if err := m.ps.release(base); err != nil {
		return wrapf(err, "release reservation %#x", base)
	}
	return nil
}

// Close tears down the manager: closes the spill file (if any), scrubs
// the cipher key, and releases every outstanding reservation.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if m.uninstall != nil {
		m.uninstall()
	}
	for base := range m.ad.handles {
		_ = m.ps.release(base)
	}
	m.key.scrub()
	return m.spill.close()
}
