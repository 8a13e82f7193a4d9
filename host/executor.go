package host

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/kaylienode/wasmabi/wireformat"
)

// Executor owns a wazero runtime with the env host module installed and
// loads guests into it.
type Executor struct {
	runtime wazero.Runtime
	config  executorConfig
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.abi.Validate(); err != nil {
		return nil, err
	}
	if cfg.clock == nil {
		start := time.Now()
		cfg.clock = func() int64 { return int64(time.Since(start)) }
	}

	rc := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.abi.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.abi.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rc)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	e := &Executor{runtime: rt, config: cfg}
	if err := e.registerEnv(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}
	return e, nil
}

// Close releases the runtime and every instance loaded from it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadFile reads a guest from disk and loads it. An empty path uses the
// configured module path.
func (e *Executor) LoadFile(ctx context.Context, path string) (*Instance, error) {
	if path == "" {
		path = e.config.abi.ModulePath
	}
	if path == "" {
		return nil, fmt.Errorf("no module path configured")
	}
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return e.Load(ctx, wasm)
}

// Load instantiates a guest, runs its _initialize export if it has one, and
// resolves its allocator exports.
//
// A guest that exports none of the allocator functions loads without an ABI
// and can only be called with numeric arguments. A guest that exports some
// but not all of them, or reports an unknown string format, fails to load.
func (e *Executor) Load(ctx context.Context, wasm []byte) (*Instance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, e.moduleConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", translateCallError(ctx, err))
	}

	inst := &Instance{module: mod, logger: e.config.logger}

	if init := mod.ExportedFunction(wireformat.ExportInitialize); init != nil {
		if _, err := inst.call(ctx, init); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call %s: %w", wireformat.ExportInitialize, err)
		}
	}

	guest, err := resolveGuest(ctx, inst, e.config.abi)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	if guest != nil {
		inst.abi = &ABI{guest: guest}
		e.config.logger.Debug("guest loaded", "module", mod.Name(), "format", guest.format)
	} else {
		e.config.logger.Debug("guest loaded without allocator", "module", mod.Name())
	}
	return inst, nil
}

// Run instantiates a command-style guest and runs its _start export to
// completion with args as its arguments after the program name. A clean exit
// returns nil. A non-zero exit returns an *errors.AbortError carrying the
// exit code, as does a guest that calls the abort import.
func (e *Executor) Run(ctx context.Context, wasm []byte, args ...string) error {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return fmt.Errorf("failed to compile module: %w", err)
	}
	defer compiled.Close(ctx)

	name := e.config.abi.Name
	if name == "" {
		name = "guest"
	}
	mc := e.moduleConfig().WithArgs(append([]string{name}, args...)...)

	mod, err := e.runtime.InstantiateModule(ctx, compiled, mc)
	if err != nil {
		err = translateCallError(ctx, err)
		e.config.logger.Debug("guest run failed", "module", name, "error", err)
		return err
	}
	return mod.Close(ctx)
}

// moduleConfig applies the configured name and output streams.
func (e *Executor) moduleConfig() wazero.ModuleConfig {
	mc := wazero.NewModuleConfig()
	if e.config.abi.Name != "" {
		mc = mc.WithName(e.config.abi.Name)
	}
	if e.config.stdout != nil {
		mc = mc.WithStdout(e.config.stdout)
	}
	if e.config.stderr != nil {
		mc = mc.WithStderr(e.config.stderr)
	}
	return mc
}
