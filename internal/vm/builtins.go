package vm

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/alphabet-lang/alphabet/internal/bytecode"
)

// builtinFunc implements one entry of the SYSTEM vtable (§4.6): it
// receives the popped call arguments and returns the value CALL should
// push, plus whether the run must stop. A builtin that raises unwinds via
// panic(dispatchStop{...}), the same way mustPush/mustPop do, so CALL
// pushes nothing on top of the value a handler receives.
type builtinFunc func(vm *VM, args []bytecode.Value, line int) (bytecode.Value, bool)

func (vm *VM) buildBuiltins() map[string]builtinFunc {
	return map[string]builtinFunc{
		"o": builtinPrint,
		"i": builtinRead,
		"t": builtinThrow,
		"f": builtinReadFile,
		"h": builtinHash,
		"x": builtinFFICall,
	}
}

func (vm *VM) callBuiltin(name string, args []bytecode.Value, line int) bool {
	fn, ok := vm.builtins[name]
	if !ok {
		vm.mustPush(bytecode.Null(), line)
		return false
	}
	result, stop := fn(vm, args, line)
	if stop {
		return true
	}
	vm.mustPush(result, line)
	return false
}

func builtinPrint(vm *VM, args []bytecode.Value, line int) (bytecode.Value, bool) {
	if len(args) > 0 {
		vm.printValue(args[0])
	}
	return bytecode.Null(), false
}

func builtinRead(vm *VM, args []bytecode.Value, line int) (bytecode.Value, bool) {
	line2, err := vm.Stdin.ReadString('\n')
	line2 = strings.TrimRight(line2, "\r\n")
	if err != nil && line2 == "" {
		return bytecode.Null(), false
	}
	if n, perr := strconv.ParseFloat(line2, 64); perr == nil {
		return bytecode.Number(n), false
	}
	return bytecode.String(line2), false
}

// builtinThrow raises the fixed exception text a complete implementation
// of z.t() always produces — the only string this system call can throw.
func builtinThrow(vm *VM, args []bytecode.Value, line int) (bytecode.Value, bool) {
	panic(dispatchStop{Stop: vm.throwValue(bytecode.String("Custom Error 15"))})
}

func builtinReadFile(vm *VM, args []bytecode.Value, line int) (bytecode.Value, bool) {
	if len(args) == 0 || args[0].Kind != bytecode.KindString {
		return bytecode.String(""), false
	}
	data, err := os.ReadFile(args[0].Str)
	if err != nil {
		return bytecode.String(""), false
	}
	return bytecode.String(string(data)), false
}

// builtinHash implements the ADDED z.h(x): an Argon2id password hash of
// x's string form, salted with a freshly generated random salt and
// rendered as salt:hash in hex. Deliberately slow, unlike a content
// digest — not meant for high-throughput hashing.
func builtinHash(vm *VM, args []bytecode.Value, line int) (bytecode.Value, bool) {
	input := ""
	if len(args) > 0 {
		input = bytecode.Stringify(args[0])
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return bytecode.String(""), false
	}
	sum := argon2.IDKey([]byte(input), salt, 1, 64*1024, 4, 32)
	return bytecode.String(hex.EncodeToString(salt) + ":" + hex.EncodeToString(sum)), false
}

// builtinFFICall implements the ADDED z.x(lib, func, ...args): loads lib
// (subject to ffi_allowed_dirs), resolves func with the fixed signature
// `FFIValue call(FFIValue*, int)`, and returns its converted result. With
// no bridge installed (only the CLI's file runner installs one; the REPL
// does not) it raises a runtime error rather than silently doing nothing.
// The installed bridge itself refuses any library outside ffi_allowed_dirs.
func builtinFFICall(vm *VM, args []bytecode.Value, line int) (bytecode.Value, bool) {
	if vm.ffi == nil {
		panic(dispatchStop{Stop: vm.raise(line, "z.x: no FFI bridge configured")})
	}
	if len(args) < 2 || args[0].Kind != bytecode.KindString || args[1].Kind != bytecode.KindString {
		panic(dispatchStop{Stop: vm.raise(line, "z.x: expected (lib string, func string, ...args)")})
	}
	result, err := vm.ffi.Call(args[0].Str, args[1].Str, args[2:])
	if err != nil {
		panic(dispatchStop{Stop: vm.raise(line, err.Error())})
	}
	return result, false
}
