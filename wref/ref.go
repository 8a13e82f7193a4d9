// Package wref provides typed, ownership-aware views over offsets exchanged
// with the host.
//
// A handle wraps a raw offset and interprets it according to its shape:
//
//	Scalar[T]   T at the offset
//	Vec[T, N]   N elements of T at the offset; N is part of the type, not stored
//	Array[T]    [int32 count][count × T]
//	Binary      Array[uint8]
//	String      Binary, read as UTF-8 text
//
// Offsets are trusted: nothing checks that they came from the allocator or
// that the payload has the claimed shape. Elements are read little-endian.
//
// # Ownership
//
// A handle owns its block unless the offset is negative when read as an
// int32, which the host uses to lend memory it manages itself. Release frees
// an owned block through the allocator exactly once; call it with defer where
// the handle's scope ends. Detach hands ownership to someone else (usually the
// host, as a return value) without freeing.
//
// Because the sentinel is the sign bit, an owned block at or above 2^31 looks
// borrowed and is never freed. This mirrors the wire contract and is kept on
// purpose; guests must keep their heap in the lower 2 GiB.
//
// Handles must not be copied: a copy would be a second owner. Pass *Scalar,
// *Array and so on; go vet flags value copies.
package wref

import (
	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

// Allocator is the allocator adapter a handle releases its block through,
// together with the memory the block lives in. *alloc.Adapter implements it.
type Allocator interface {
	Memory() memory.Memory
	Allocate(size int32) uint32
	Deallocate(ptr uint32)
}

// Ownership records whether a handle must free its block.
type Ownership uint8

const (
	// Owned handles free their block on Release.
	Owned Ownership = iota
	// Borrowed handles view host-owned memory and never free it.
	Borrowed
)

func (o Ownership) String() string {
	if o == Borrowed {
		return "borrowed"
	}
	return "owned"
}

// OwnershipOf decodes the ownership encoded in the sign bit of offset.
func OwnershipOf(offset uint32) Ownership {
	if wireformat.IsBorrowed(offset) {
		return Borrowed
	}
	return Owned
}

// noCopy lets go vet's copylocks check flag handles copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ref is the state shared by every shape.
type ref struct {
	_      noCopy
	alloc  Allocator
	offset uint32
	own    Ownership
	done   bool
}

func newRef(a Allocator, offset uint32) ref {
	return ref{alloc: a, offset: offset, own: OwnershipOf(offset)}
}

func (r *ref) mem() memory.Memory {
	return r.alloc.Memory()
}

// Offset returns the raw offset the handle wraps.
func (r *ref) Offset() uint32 {
	return r.offset
}

// Ownership reports whether the handle owns its block.
func (r *ref) Ownership() Ownership {
	return r.own
}

// Release frees the block if the handle owns it. Only the first call has an
// effect; the payload's bytes are released without any per-element cleanup.
// The view must not be used afterwards.
func (r *ref) Release() {
	if r.done {
		return
	}
	r.done = true
	if r.own == Owned {
		r.alloc.Deallocate(r.offset)
	}
}

// Detach gives up ownership without freeing and returns the offset, for
// handing the block to the host. Release becomes a no-op.
func (r *ref) Detach() uint32 {
	r.done = true
	return r.offset
}
