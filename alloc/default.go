package alloc

// DefaultArenaSize is the size of the process-wide heap created by Default.
const DefaultArenaSize = 4 << 20

var global *Adapter

// Default returns the process-wide adapter that backs the exported allocate
// and deallocate functions, creating it on first use. The instance lives as
// long as the module instance; there is no teardown.
func Default() *Adapter {
	if global == nil {
		global = newDefault(DefaultArenaSize)
	}
	return global
}

// Init explicitly creates the process-wide adapter with an arena of size
// bytes, replacing any previous one. Call it before the host first calls in.
func Init(size uint32) *Adapter {
	global = newDefault(size)
	return global
}

// SetDefault installs a as the process-wide adapter and returns the previous
// one. Intended for tests.
func SetDefault(a *Adapter) *Adapter {
	prev := global
	global = a
	return prev
}
