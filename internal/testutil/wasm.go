package testutil

// Hand-assembled Wasm binaries used as guests in host tests.

const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10

	valI32 = 0x7f
	valI64 = 0x7e

	kindFunc   = 0x00
	kindMemory = 0x02
)

// BumpHeapStart is where GuestModule's allocator places its first block header.
const BumpHeapStart = 1024

// MemoryModule returns a module that only defines and exports "memory" with
// pages pages.
func MemoryModule(pages uint32) []byte {
	return module(
		section(secMemory, vec(limits(pages))),
		section(secExport, vec(export("memory", kindMemory, 0))),
	)
}

// GuestModule returns a guest that speaks the allocation ABI:
//
//	imports env.curtime () -> i64, env.abort (i32)
//	now() -> i64          calls env.curtime
//	fail(code i32)        calls env.abort
//	allocate(i32) -> i32  bump allocator writing the size header, 32-byte aligned blocks
//	deallocate(i32)       no-op
//	str_format() -> i32   returns format
//	memory                2 pages
//
// The bump pointer starts at BumpHeapStart.
func GuestModule(format int32) []byte {
	types := section(secType, vec(
		funcType(nil, []byte{valI64}),            // 0: () -> i64
		funcType([]byte{valI32}, nil),            // 1: (i32) -> ()
		funcType([]byte{valI32}, []byte{valI32}), // 2: (i32) -> i32
		funcType(nil, []byte{valI32}),            // 3: () -> i32
	))
	imports := section(secImport, vec(
		importFunc("env", "curtime", 0), // func 0
		importFunc("env", "abort", 1),   // func 1
	))
	funcs := section(secFunction, vec(
		uleb(0), // 2 now
		uleb(1), // 3 fail
		uleb(2), // 4 allocate
		uleb(1), // 5 deallocate
		uleb(3), // 6 str_format
	))
	mem := section(secMemory, vec(limits(2)))
	globals := section(secGlobal, vec(
		cat([]byte{valI32, 0x01, 0x41}, sleb(BumpHeapStart), []byte{0x0b}),
	))
	exports := section(secExport, vec(
		export("now", kindFunc, 2),
		export("fail", kindFunc, 3),
		export("allocate", kindFunc, 4),
		export("deallocate", kindFunc, 5),
		export("str_format", kindFunc, 6),
		export("memory", kindMemory, 0),
	))
	code := section(secCode, vec(
		body(nil, []byte{0x10, 0x00}),             // call $curtime
		body(nil, []byte{0x20, 0x00, 0x10, 0x01}), // local.get 0; call $abort
		body([]byte{0x01, 0x01, valI32}, []byte{
			0x23, 0x00, // global.get $next
			0x22, 0x01, // local.tee $ptr
			0x20, 0x00, // local.get $size
			0x36, 0x02, 0x00, // i32.store header
			0x20, 0x01, // local.get $ptr
			0x20, 0x00, // local.get $size
			0x41, 0x23, // i32.const 35 (header + 31)
			0x6a,       // i32.add
			0x41, 0x60, // i32.const -32
			0x71,       // i32.and
			0x6a,       // i32.add
			0x24, 0x00, // global.set $next
			0x20, 0x01, // local.get $ptr
			0x41, 0x04, // i32.const 4
			0x6a, // i32.add
		}),
		body(nil, nil),
		body(nil, cat([]byte{0x41}, sleb(int64(format)))),
	))

	return module(types, imports, funcs, mem, globals, exports, code)
}

// CommandModule returns a command whose _start exits through WASI
// proc_exit with code.
func CommandModule(code int32) []byte {
	return command("wasi_snapshot_preview1", "proc_exit", code)
}

// AbortingCommandModule returns a command whose _start calls env.abort with
// code.
func AbortingCommandModule(code int32) []byte {
	return command("env", "abort", code)
}

func command(mod, field string, code int32) []byte {
	return module(
		section(secType, vec(
			funcType([]byte{valI32}, nil), // 0: (i32) -> ()
			funcType(nil, nil),            // 1: () -> ()
		)),
		section(secImport, vec(importFunc(mod, field, 0))),
		section(secFunction, vec(uleb(1))),
		section(secMemory, vec(limits(1))),
		section(secExport, vec(
			export("_start", kindFunc, 1),
			export("memory", kindMemory, 0),
		)),
		section(secCode, vec(
			body(nil, cat([]byte{0x41}, sleb(int64(code)), []byte{0x10, 0x00})), // i32.const code; call 0
		)),
	)
}

func module(sections ...[]byte) []byte {
	return cat(append([][]byte{{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}}, sections...)...)
}

func section(id byte, content []byte) []byte {
	return cat([]byte{id}, uleb(uint64(len(content))), content)
}

func vec(items ...[]byte) []byte {
	return cat(append([][]byte{uleb(uint64(len(items)))}, items...)...)
}

func name(s string) []byte {
	return cat(uleb(uint64(len(s))), []byte(s))
}

func limits(minPages uint32) []byte {
	return cat([]byte{0x00}, uleb(uint64(minPages)))
}

func funcType(params, results []byte) []byte {
	return cat([]byte{0x60}, uleb(uint64(len(params))), params, uleb(uint64(len(results))), results)
}

func importFunc(mod, field string, typeIdx uint64) []byte {
	return cat(name(mod), name(field), []byte{kindFunc}, uleb(typeIdx))
}

func export(field string, kind byte, idx uint64) []byte {
	return cat(name(field), []byte{kind}, uleb(idx))
}

// body encodes a function body; locals is the already-encoded locals vector
// (nil for none) and instrs excludes the final end opcode.
func body(locals, instrs []byte) []byte {
	if locals == nil {
		locals = []byte{0x00}
	}
	b := cat(locals, instrs, []byte{0x0b})
	return cat(uleb(uint64(len(b))), b)
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func cat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
