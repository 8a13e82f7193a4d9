package host

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/kaylienode/wasmabi/errors"
	"github.com/kaylienode/wasmabi/wireformat"
)

// registerEnv installs the functions the guest core imports.
func (e *Executor) registerEnv(ctx context.Context) error {
	builder := e.runtime.NewHostModuleBuilder(e.config.abi.ImportModule)

	// abort(code i32): the guest hit an unrecoverable error. The instance is
	// closed with code as its exit code, and the current call unwinds with the
	// code itself so it is never mistaken for one of wazero's reserved exit
	// codes.
	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, code int32) {
			e.config.logger.Warn("guest aborted", "module", m.Name(), "code", code)
			_ = m.CloseWithExitCode(ctx, uint32(code))
			panic(&errors.AbortError{Code: code})
		}).
		WithParameterNames("code").
		Export(wireformat.ImportAbort)

	// curtime() i64: monotonic nanoseconds.
	builder.NewFunctionBuilder().
		WithFunc(func(context.Context) int64 {
			return e.config.clock()
		}).
		Export(wireformat.ImportCurrentTime)

	_, err := builder.Instantiate(ctx)
	return err
}
