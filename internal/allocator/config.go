package allocator

// Config holds the tunables for an Allocator. Init validates AlignmentSize
// (always 8 in practice); the other fields are not validated. The
// functional-options Config
// shape is kept regardless, since it is the idiom used for every tunable
// in this project.
type Config struct {
	// AlignmentSize is the word size W. The spec fixes this at 8; Init
	// rejects any other non-zero value. Zero means "use the default."
	AlignmentSize uintptr

	// MaxHeapSize records the bound a Heap implementation may grow to. It
	// is informational only: internal/allocator never reads it, and the
	// heapmem constructors take their capacity as a separate argument.
	MaxHeapSize uintptr

	// EnableCheckAfterOp runs Check() after every mutating call and turns
	// a failed check into a panic. Meant for tests and interactive use
	// (cmd/heaplab), never for production: it's O(heap size) per call.
	EnableCheckAfterOp bool

	// EnableStats turns on the bookkeeping behind Stats(). Cheap (a few
	// counter updates per call) but not free, so it stays optional.
	EnableStats bool
}

// Option mutates a Config during New.
type Option func(*Config)

// WithAlignment overrides AlignmentSize. The only value Init currently
// accepts is 8; this exists so callers can still express the setting
// explicitly, matching the rest of the Config surface.
func WithAlignment(size uintptr) Option {
	return func(c *Config) { c.AlignmentSize = size }
}

// WithMaxHeapSize records the upper bound a paired Heap implementation is
// expected to enforce.
func WithMaxHeapSize(size uintptr) Option {
	return func(c *Config) { c.MaxHeapSize = size }
}

// WithCheckAfterOp toggles EnableCheckAfterOp.
func WithCheckAfterOp(enabled bool) Option {
	return func(c *Config) { c.EnableCheckAfterOp = enabled }
}

// WithStats toggles EnableStats.
func WithStats(enabled bool) Option {
	return func(c *Config) { c.EnableStats = enabled }
}

func defaultConfig() Config {
	return Config{
		AlignmentSize:      wordSize,
		MaxHeapSize:        0,
		EnableCheckAfterOp: false,
		EnableStats:        true,
	}
}
