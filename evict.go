package ghostmem

// evict is spec.md §4.6, invoked with the manager mutex already held and
// protected set to the page the fault handler is about to commit for.
//
// A victim must be both unprotected and unpinned: protected is the page
// the caller is about to commit for (spec.md §4.6 step 2's fallback to
// the second-to-last LRU entry), and pinned pages are ones some other
// goroutine's Buffer.ReadAt/WriteAt is mid-copy on (see fault.go's
// acquire/release) — decommitting either out from under its owner would
// be a real memory-protection fault, not a recoverable condition.
//
// The protected check is defensive and, as far as this implementation's
// call graph goes, unreachable: evict is only ever called from
// faultLocked for a page whose slot.state is not yet stateResident
// (faultLocked returns early otherwise), and per I2 the LRU holds only
// Resident entries — removeFromLRU runs on every transition out of
// Resident (eviction's own removeFromLRU, and Deallocate's teardown), so
// protected can never itself be a live LRU member at the moment
// pickVictim walks it. The check is kept because it's what spec.md §4.6
// step 2 literally specifies, and because it costs nothing to keep
// correct if that call graph ever changes (e.g. a future real
// signal-handler build where fault can run on a different thread than
// the one currently mid-eviction).
func (m *Manager) evict(protected uintptr) {
	residentCap := m.cfg.residentCap()

	for m.pt.len() >= residentCap {
		victim, ok := m.pt.pickVictim(func(addr uintptr) bool {
			if addr == protected {
				return true
			}
			slot, ok := m.pt.get(addr)
			return ok && slot.pinned > 0
		})
		if !ok {
			// Every resident page is either the one being committed or
			// pinned by an in-flight copy: I1 may be exceeded until one
			// becomes eligible on a later cycle.
			return
		}

		m.pt.removeFromLRU(victim)

		if m.ad.refcountOf(victim.addr) == 0 {
			m.evictZombie(victim)
			continue
		}

		if !m.freeze(victim) {
			// Freeze failed and was already logged; restore I1 by
			// putting the page back at the LRU front.
			m.pt.touchFront(victim)
			continue
		}
	}
}

// evictZombie drops a page with no live handle referencing it without
// paying for compression. This path is defensive: this implementation's
// one-handle-per-reservation discipline means Deallocate already tears
// down a page's slot and reservation the moment its refcount reaches
// zero (spec.md §4.4 step 5b), so a zombie should never reach the LRU in
// practice. PS.release is deliberately not called here — the reservation
// was (or will be) released by Deallocate, and releasing per-page instead
// of per-reservation would be wrong under this allocator's discipline.
func (m *Manager) evictZombie(slot *pageSlot) {
	if slot.spill != nil {
		_ = m.spill.erase(slot.spill)
		slot.spill = nil
	}
	if err := m.ps.decommit(slot.addr); err != nil {
		m.log.WithError(err).Warn("evict: decommit zombie page")
	}
	m.pt.remove(slot.addr)
}

// freeze compresses (optionally), encrypts (optionally) and spills a
// resident page, then decommits it. Returns false — having already
// logged — if any step fails, leaving the victim Resident per spec.md
// §7's SpillWriteFailure/CodecFailure recovery policy.
func (m *Manager) freeze(victim *pageSlot) bool {
	pageBytes, err := m.ps.pageSlice(victim.addr)
	if err != nil {
		m.log.WithError(err).Warn("evict: page slice unavailable")
		return false
	}

	codec, compress := m.spillCodec()
	var payload []byte
	if compress {
		c, err := codec.compress(pageBytes)
		if err != nil {
			m.log.WithError(wrapf(ErrCodecFailure, "%v", err)).Warn("evict: compress failed, page stays resident")
			return false
		}
		payload = c
	} else {
		payload = append([]byte(nil), pageBytes...)
	}

	if m.key != nil {
		enc, err := xorKeystream(m.key, victim.addr, payload)
		if err != nil {
			m.log.WithError(err).Warn("evict: encrypt failed, page stays resident")
			return false
		}
		payload = enc
	}

	loc, err := m.spill.put(victim.addr, payload)
	if err != nil {
		m.log.WithError(wrapf(ErrSpillWriteFailure, "%v", err)).Warn("evict: spill write failed, page stays resident")
		return false
	}

	victim.spill = loc
	if err := m.ps.decommit(victim.addr); err != nil {
		m.log.WithError(err).Warn("evict: decommit")
	}
	victim.state = stateFrozen
	return true
}
