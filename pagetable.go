package ghostmem

import "container/list"

// pageState is the residency state of spec.md §3.
type pageState uint8

const (
	// stateReservedOnly: belongs to a reservation, never committed, no
	// spill record.
	stateReservedOnly pageState = iota
	// stateResident: physically present, in the LRU, accessible.
	stateResident
	// stateFrozen: decommitted, with a valid spill record.
	stateFrozen
)

// pageSlot is the per-page metadata of spec.md §3. refcount lives in the
// allocation directory, not here, per spec.md §4.4 — a page slot only
// tracks residency and spill location.
type pageSlot struct {
	addr   uintptr
	state  pageState
	spill  spillLocator // non-nil only when state == stateFrozen
	elem   *list.Element
	pinned int // count of in-flight Buffer copies; evict skips while > 0
}

// pageTable is the per-manager page metadata plus the most-recently-used-
// first residency list of spec.md §2 item 5. It is not independently
// thread-safe: the Manager's single mutex serializes every access, per
// spec.md §5.
//
// The map[addr]*list.Element + container/list pairing mirrors
// joshuapare-hivekit/hive/namecache/cache.go's LRU shape.
type pageTable struct {
	slots map[uintptr]*pageSlot
	lru   *list.List // element values are uintptr page addresses
}

func newPageTable() *pageTable {
	return &pageTable{
		slots: make(map[uintptr]*pageSlot),
		lru:   list.New(),
	}
}

// ensure returns the slot for addr, creating a Reserved-only slot if this
// is the first time the page has been seen.
func (pt *pageTable) ensure(addr uintptr) *pageSlot {
	if s, ok := pt.slots[addr]; ok {
		return s
	}
	s := &pageSlot{addr: addr, state: stateReservedOnly}
	pt.slots[addr] = s
	return s
}

func (pt *pageTable) get(addr uintptr) (*pageSlot, bool) {
	s, ok := pt.slots[addr]
	return s, ok
}

// remove deletes a slot entirely (refcount reached zero; spec.md I3).
func (pt *pageTable) remove(addr uintptr) {
	s, ok := pt.slots[addr]
	if !ok {
		return
	}
	if s.elem != nil {
		pt.lru.Remove(s.elem)
		s.elem = nil
	}
	delete(pt.slots, addr)
}

func (pt *pageTable) len() int { return pt.lru.Len() }

// touchFront inserts addr's slot at the LRU front, or moves it there if
// already present — spec.md §4.5 step 7.
func (pt *pageTable) touchFront(s *pageSlot) {
	if s.elem != nil {
		pt.lru.MoveToFront(s.elem)
		return
	}
	s.elem = pt.lru.PushFront(s.addr)
}

// removeFromLRU takes a slot out of the LRU without touching its map entry.
func (pt *pageTable) removeFromLRU(s *pageSlot) {
	if s.elem == nil {
		return
	}
	pt.lru.Remove(s.elem)
	s.elem = nil
}

// back returns the current LRU tail (least recently used) slot.
func (pt *pageTable) back() (*pageSlot, bool) {
	e := pt.lru.Back()
	if e == nil {
		return nil, false
	}
	return pt.slots[e.Value.(uintptr)], true
}

// secondBack returns the slot immediately in front of the LRU tail —
// spec.md §4.6 step 2's protected-victim fallback.
func (pt *pageTable) secondBack() (*pageSlot, bool) {
	e := pt.lru.Back()
	if e == nil {
		return nil, false
	}
	e = e.Prev()
	if e == nil {
		return nil, false
	}
	return pt.slots[e.Value.(uintptr)], true
}

// pickVictim walks the LRU from the tail towards the front and returns
// the first slot for which skip reports false — spec.md §4.6 step 2's
// protected-victim fallback, generalized to skip any number of
// ineligible tail entries (the page about to be faulted in, and any page
// pinned by an in-flight Buffer copy) rather than just one.
func (pt *pageTable) pickVictim(skip func(addr uintptr) bool) (*pageSlot, bool) {
	for e := pt.lru.Back(); e != nil; e = e.Prev() {
		addr := e.Value.(uintptr)
		if skip(addr) {
			continue
		}
		return pt.slots[addr], true
	}
	return nil, false
}
