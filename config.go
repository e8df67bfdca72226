package ghostmem

import "time"

// PageSize is the fixed page granularity this engine operates on. All
// supported hosts use 4 KiB pages.
const PageSize = 4096

// defaultResidentCap is the built-in resident-page cap used when
// Config.ResidentCap is zero. Mirrors original_source's MAX_PHYSICAL_PAGES,
// the demo default; production workloads should set ResidentCap explicitly.
const defaultResidentCap = 5

// Backing selects where frozen (evicted) pages are stored.
type Backing uint8

const (
	// InMemory parks frozen pages in a process-local compressed map.
	// Pages are always compressed in this mode.
	InMemory Backing = iota
	// File parks frozen pages in an append-only spill file.
	File
)

func (b Backing) String() string {
	switch b {
	case InMemory:
		return "in_memory"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// Config holds the options accepted by Initialize/New. The zero Config is
// valid and selects the in-memory backing with built-in defaults.
type Config struct {
	// Backing selects where evicted pages live.
	Backing Backing

	// SpillPath is the path to the spill file. Only meaningful when
	// Backing == File. Created or truncated on Initialize.
	SpillPath string

	// CompressBeforeSpill toggles compression for the File backing.
	// Ignored for InMemory, which is always compressed.
	CompressBeforeSpill bool

	// EncryptOnSpill applies the stream cipher after optional compression.
	// Only meaningful when Backing == File.
	EncryptOnSpill bool

	// ResidentCap is the LRU capacity. Zero selects defaultResidentCap.
	ResidentCap uint

	// Verbose enables human-readable logging of manager operations.
	Verbose bool

	// FlockTimeout bounds how long Initialize waits to acquire the spill
	// file's exclusive lock. Zero waits indefinitely.
	FlockTimeout time.Duration
}

func (c Config) residentCap() int {
	if c.ResidentCap == 0 {
		return defaultResidentCap
	}
	return int(c.ResidentCap)
}
