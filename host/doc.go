// Package host runs guests that speak the wasmabi memory ABI.
//
// It wraps the wazero runtime, provides the env host module the guest core
// imports (abort and curtime), and implements the host half of the ABI:
// allocating blocks in the guest, writing strings and vectors into them, and
// reading guest-produced values back out.
package host
