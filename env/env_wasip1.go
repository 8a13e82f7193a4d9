//go:build wasip1

package env

// Define the host function signature for aborting the module.
//
//go:wasmimport env abort
//nolint:revive // intentional snake_case to match WASM import convention
func host_abort(code int32)

// Define the host function signature for the monotonic clock.
//
//go:wasmimport env curtime
//nolint:revive // intentional snake_case to match WASM import convention
func host_curtime() uint64

// Fail aborts the module with code. It never returns.
func Fail(code int32) {
	host_abort(code)
	// The host traps on abort; reaching this line means it did not.
	panic("env: host returned from abort")
}

// CurrentTime returns the host's monotonic time in host-defined ticks.
func CurrentTime() uint64 {
	return host_curtime()
}
