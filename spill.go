package ghostmem

// spillLocator is whatever a SpillBackend needs to retrieve bytes it was
// handed earlier. The in-memory backend uses the page address itself; the
// file backend uses a byte offset/length pair. Locators are held only
// in-process (spec.md §6) and are never meaningful across a backend swap.
type spillLocator any

// spillBackend is the narrow interface of spec.md §4.3: append/park bytes,
// retrieve them, forget them.
type spillBackend interface {
	put(key uintptr, data []byte) (spillLocator, error)
	get(loc spillLocator) ([]byte, error)
	erase(loc spillLocator) error
	// close releases any OS resources (the file backend's descriptor).
	// The in-memory backend's close is a no-op.
	close() error
}
