package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/kaylienode/wasmabi/alloc"
	"github.com/kaylienode/wasmabi/config"
	"github.com/kaylienode/wasmabi/errors"
	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

// Guest is the allocator side of the ABI as the host sees it.
type Guest interface {
	Memory() memory.Memory
	Allocate(ctx context.Context, size int32) (uint32, error)
	Deallocate(ctx context.Context, ptr uint32) error
	StringFormat() wireformat.StringFormat
}

// wasmGuest calls the allocator exports of a loaded instance.
type wasmGuest struct {
	inst    *Instance
	alloc   api.Function
	dealloc api.Function
	format  wireformat.StringFormat
}

// resolveGuest looks up the allocator exports named by cfg. It returns nil
// and no error when none of them is exported.
func resolveGuest(ctx context.Context, inst *Instance, cfg config.Config) (*wasmGuest, error) {
	mod := inst.module
	allocFn := mod.ExportedFunction(cfg.AllocExport)
	deallocFn := mod.ExportedFunction(cfg.DeallocExport)
	formatFn := mod.ExportedFunction(cfg.FormatExport)
	if allocFn == nil && deallocFn == nil && formatFn == nil {
		return nil, nil
	}

	if err := checkSignature(cfg.AllocExport, allocFn, []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}); err != nil {
		return nil, err
	}
	if err := checkSignature(cfg.DeallocExport, deallocFn, []api.ValueType{api.ValueTypeI32}, nil); err != nil {
		return nil, err
	}
	if err := checkSignature(cfg.FormatExport, formatFn, nil, []api.ValueType{api.ValueTypeI32}); err != nil {
		return nil, err
	}
	if mod.Memory() == nil {
		return nil, &errors.ExportError{Name: wireformat.ExportMemory}
	}

	res, err := inst.call(ctx, formatFn)
	if err != nil {
		return nil, &errors.ExportError{Name: cfg.FormatExport, Err: err}
	}
	format := wireformat.StringFormat(api.DecodeI32(res[0]))
	if !format.Valid() {
		return nil, &errors.FormatError{Format: int32(format)}
	}

	return &wasmGuest{inst: inst, alloc: allocFn, dealloc: deallocFn, format: format}, nil
}

func checkSignature(name string, fn api.Function, params, results []api.ValueType) error {
	if fn == nil {
		return &errors.ExportError{Name: name}
	}
	def := fn.Definition()
	if !sameTypes(def.ParamTypes(), params) || !sameTypes(def.ResultTypes(), results) {
		return &errors.ExportError{
			Name: name,
			Err: fmt.Errorf("signature %s, want %s",
				signature(def.ParamTypes(), def.ResultTypes()), signature(params, results)),
		}
	}
	return nil
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func signature(params, results []api.ValueType) string {
	names := func(ts []api.ValueType) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = api.ValueTypeName(t)
		}
		return out
	}
	return fmt.Sprintf("%v -> %v", names(params), names(results))
}

func (g *wasmGuest) Memory() memory.Memory {
	return g.inst.module.Memory()
}

func (g *wasmGuest) Allocate(ctx context.Context, size int32) (uint32, error) {
	res, err := g.inst.call(ctx, g.alloc, api.EncodeI32(size))
	if err != nil {
		return 0, err
	}
	return api.DecodeU32(res[0]), nil
}

func (g *wasmGuest) Deallocate(ctx context.Context, ptr uint32) error {
	_, err := g.inst.call(ctx, g.dealloc, api.EncodeU32(ptr))
	return err
}

func (g *wasmGuest) StringFormat() wireformat.StringFormat {
	return g.format
}

// localGuest drives an in-process allocator adapter, for running the host
// ABI against the guest core without a Wasm runtime.
type localGuest struct {
	adapter *alloc.Adapter
	format  wireformat.StringFormat
}

// NewLocalGuest returns a Guest backed by a. Aborts raised by a's fail hook
// are returned as *errors.AbortError.
func NewLocalGuest(a *alloc.Adapter, format wireformat.StringFormat) Guest {
	return &localGuest{adapter: a, format: format}
}

func (g *localGuest) Memory() memory.Memory {
	return g.adapter.Memory()
}

func (g *localGuest) Allocate(_ context.Context, size int32) (ptr uint32, err error) {
	defer recoverAbort(&err)
	return g.adapter.Allocate(size), nil
}

func (g *localGuest) Deallocate(_ context.Context, ptr uint32) (err error) {
	defer recoverAbort(&err)
	g.adapter.Deallocate(ptr)
	return nil
}

func (g *localGuest) StringFormat() wireformat.StringFormat {
	return g.format
}

func recoverAbort(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if abort, ok := r.(*errors.AbortError); ok {
		*err = abort
		return
	}
	panic(r)
}
