package ghostmem

// acquire is the probe point Buffer's accessors call before copying bytes
// into or out of a page. It is the software stand-in for spec.md §4.2's
// hardware fault described in SPEC_FULL.md §4.2: if the page is already
// Resident, the real mechanism this emulates would never trap the access
// at all, so acquire skips straight to pinning and — critically — does
// not reorder the LRU on that path (spec.md §4.6 "Pure reads through a
// Resident page do not update LRU order"). Otherwise it runs the fault
// algorithm itself.
//
// The returned page is pinned — evict will not choose it as a victim —
// until the caller passes it to release. This closes the gap a real
// hardware fault doesn't have: on real hardware the faulting instruction
// and the memory access are the same event, but here the probe point and
// the byte copy it guards are two separate steps, and without a pin
// another goroutine's fault could evict and decommit this page in
// between them.
func (m *Manager) acquire(addr uintptr) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	page := pageAlign(addr)
	slot, ok := m.pt.get(page)
	if !ok || slot.state != stateResident {
		v := m.faultLocked(addr)
		if !v.Resumed {
			return 0, v.Err
		}
		slot, _ = m.pt.get(page)
	}
	slot.pinned++
	return page, nil
}

// release unpins a page acquired with acquire.
func (m *Manager) release(page uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot, ok := m.pt.get(page); ok && slot.pinned > 0 {
		slot.pinned--
	}
}

// fault is the callback installed with InstallFaultIntercept — kept as a
// first-class entry point per SPEC_FULL.md §4.2 so the platform shim's
// interface shape matches spec.md §4.2 exactly, even though this engine's
// own probe points (acquire, above) call faultLocked directly rather than
// routing through it: a real signal-based installation would invoke this
// from signal.Notify-equivalent machinery instead.
func (m *Manager) fault(addr uintptr) FaultVerdict {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faultLocked(addr)
}

// faultLocked is spec.md §4.5's on_fault(addr), run synchronously with
// m.mu already held by the caller.
func (m *Manager) faultLocked(addr uintptr) FaultVerdict {
	if m.closed {
		return FaultVerdict{Resumed: false, Err: ErrClosed}
	}
	if _, _, ok := m.ps.findRegion(addr); !ok {
		return FaultVerdict{Resumed: false, Err: ErrNotOurs}
	}

	page := pageAlign(addr)
	slot := m.pt.ensure(page)

	if slot.state == stateResident {
		// Raced with another goroutine's acquire() for the same page; it
		// is already where we want it.
		return FaultVerdict{Resumed: true}
	}

	m.evict(page)

	if err := m.ps.commit(page); err != nil {
		return FaultVerdict{Resumed: false, Err: wrapf(ErrCommitFailure, "commit page %#x: %v", page, err)}
	}

	pageBytes, err := m.ps.pageSlice(page)
	if err != nil {
		return FaultVerdict{Resumed: false, Err: err}
	}

	if slot.spill != nil {
		if err := m.restore(slot, pageBytes); err != nil {
			return FaultVerdict{Resumed: false, Err: err}
		}
		// Invalidate the spill record on restore rather than keeping it
		// around for reuse on the next eviction — see DESIGN.md's Open
		// Question resolution #2. A page modified after this restore
		// must never be re-frozen under a stale locator.
		_ = m.spill.erase(slot.spill)
		slot.spill = nil
	} else {
		for i := range pageBytes {
			pageBytes[i] = 0
		}
	}

	slot.state = stateResident
	m.pt.touchFront(slot)

	return FaultVerdict{Resumed: true}
}

// restore fetches, decrypts and decompresses a frozen page's bytes into
// pageBytes — spec.md §4.5 step 6.
func (m *Manager) restore(slot *pageSlot, pageBytes []byte) error {
	raw, err := m.spill.get(slot.spill)
	if err != nil {
		return wrapf(ErrSpillReadFailure, "restore page %#x: %v", slot.addr, err)
	}

	if m.key != nil {
		raw, err = xorKeystream(m.key, slot.addr, raw)
		if err != nil {
			return wrapf(ErrSpillReadFailure, "decrypt page %#x: %v", slot.addr, err)
		}
	}

	c, compressed := m.spillCodec()
	if !compressed {
		copy(pageBytes, raw)
		return nil
	}
	dec, err := c.decompress(raw, PageSize)
	if err != nil {
		return wrapf(ErrCodecFailure, "decompress page %#x: %v", slot.addr, err)
	}
	copy(pageBytes, dec)
	return nil
}
