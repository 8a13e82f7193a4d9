package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"github.com/kaylienode/wasmabi/errors"
	"github.com/kaylienode/wasmabi/memory"
)

// wazero's memory satisfies the ABI's memory interface as is.
var _ memory.Memory = (api.Memory)(nil)

// Instance is a loaded guest. Calls into it, including the allocator calls
// made by its ABI, are serialized.
type Instance struct {
	mu     sync.Mutex
	module api.Module
	abi    *ABI
	logger *slog.Logger
}

// Name returns the instance name, empty if anonymous.
func (i *Instance) Name() string {
	return i.module.Name()
}

// Memory returns the guest's exported memory, or nil if it has none.
func (i *Instance) Memory() api.Memory {
	return i.module.Memory()
}

// ABI returns the guest's allocator ABI, or nil if the guest exports none.
func (i *Instance) ABI() *ABI {
	return i.abi
}

// Call invokes an exported function with raw Wasm values. Use the api
// package's Encode and Decode helpers to convert them.
//
// A guest that aborts fails the call with an *errors.AbortError and cannot
// be called again.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, &errors.ExportError{Name: name}
	}
	if got, want := len(params), len(fn.Definition().ParamTypes()); got != want {
		return nil, &errors.ExportError{Name: name, Err: fmt.Errorf("expected %d params, got %d", want, got)}
	}
	return i.call(ctx, fn, params...)
}

// Close closes the guest.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

func (i *Instance) call(ctx context.Context, fn api.Function, params ...uint64) ([]uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	results, err := fn.Call(ctx, params...)
	if err != nil {
		err = translateCallError(ctx, err)
		i.logger.Debug("guest call failed", "module", i.module.Name(), "func", fn.Definition().Name(), "error", err)
		return nil, err
	}
	return results, nil
}

// translateCallError maps a failed call to the matching error. Aborts raised
// through the env import keep their code. Any other exit is reported as a
// context error when ctx is done, and as an *errors.AbortError otherwise.
func translateCallError(ctx context.Context, err error) error {
	var abort *errors.AbortError
	if stdErrors.As(err, &abort) {
		return abort
	}
	var exitErr *sys.ExitError
	if !stdErrors.As(err, &exitErr) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		switch exitErr.ExitCode() {
		case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
			return fmt.Errorf("guest interrupted: %w", ctxErr)
		}
	}
	return &errors.AbortError{Code: int32(exitErr.ExitCode())}
}
