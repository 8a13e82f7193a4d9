// Package env exposes the two functions the guest core imports from its host:
// a hard abort and a monotonic clock. On wasip1 they are Wasm imports from the
// "env" module; native builds provide stand-ins so guest code can run in tests.
package env
