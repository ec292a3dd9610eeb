// Package ffi implements the foreign-function bridge described by
// original_source/src/include/ffi.h: load a shared library by path,
// resolve one exported symbol with the fixed signature
// `FFIValue call(FFIValue*, int)`, invoke it, and close the handle.
//
// The C ABI is reproduced exactly in cgoFFIValue below (a tagged union
// over null/int64/float64/string/bool) so a library built against the
// original header can be called without modification.
package ffi

/*
#include <stdlib.h>
#include <stdint.h>
#include <dlfcn.h>
#include <string.h>

typedef enum {
    FFI_TYPE_NULL = 0,
    FFI_TYPE_INT = 1,
    FFI_TYPE_FLOAT = 2,
    FFI_TYPE_STRING = 3,
    FFI_TYPE_BOOL = 4
} FFIType;

typedef struct {
    FFIType type;
    union {
        int64_t int_val;
        double float_val;
        const char* string_val;
        int bool_val;
    } data;
} FFIValue;

typedef FFIValue (*ffi_call_func)(FFIValue*, int);

static FFIValue ffi_invoke(void* fn, FFIValue* args, int argc) {
    ffi_call_func f = (ffi_call_func)fn;
    return f(args, argc);
}

static void* ffi_open(const char* path) {
    return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static void* ffi_sym(void* handle, const char* name) {
    return dlsym(handle, name);
}

static void ffi_close(void* handle) {
    if (handle) dlclose(handle);
}

static const char* ffi_last_error() {
    return dlerror();
}

static FFIValue ffi_null(void) {
    FFIValue v;
    v.type = FFI_TYPE_NULL;
    v.data.int_val = 0;
    return v;
}

static FFIValue ffi_int(int64_t n) {
    FFIValue v;
    v.type = FFI_TYPE_INT;
    v.data.int_val = n;
    return v;
}

static FFIValue ffi_float(double f) {
    FFIValue v;
    v.type = FFI_TYPE_FLOAT;
    v.data.float_val = f;
    return v;
}

static FFIValue ffi_string(const char* s) {
    FFIValue v;
    v.type = FFI_TYPE_STRING;
    v.data.string_val = s;
    return v;
}

static FFIValue ffi_bool(int b) {
    FFIValue v;
    v.type = FFI_TYPE_BOOL;
    v.data.bool_val = b;
    return v;
}
*/
import "C"

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"github.com/alphabet-lang/alphabet/internal/bytecode"
	"github.com/alphabet-lang/alphabet/internal/config"
)

// Bridge holds the FFI-allowed directory list a call is checked against
// before any dlopen happens.
type Bridge struct {
	allowed config.FFIConfig
}

// New creates a Bridge that only opens libraries whose directory exactly
// matches one of allowed's ffi_allowed_dirs; subdirectories do not match.
func New(allowed config.FFIConfig) *Bridge {
	return &Bridge{allowed: allowed}
}

// Call loads libPath, resolves funcName with signature
// `FFIValue call(FFIValue*, int)`, invokes it with args converted from
// VM values, and closes the handle before returning. An empty allowlist
// rejects every call.
func (b *Bridge) Call(libPath, funcName string, args []bytecode.Value) (bytecode.Value, error) {
	dir := filepath.Dir(libPath)
	if !b.allowed.IsAllowedDir(dir) {
		return bytecode.Null(), fmt.Errorf("ffi: %s is not in ffi_allowed_dirs", dir)
	}

	cPath := C.CString(libPath)
	defer C.free(unsafe.Pointer(cPath))

	handle := C.ffi_open(cPath)
	if handle == nil {
		return bytecode.Null(), fmt.Errorf("ffi: %s", C.GoString(C.ffi_last_error()))
	}
	defer C.ffi_close(handle)

	cFunc := C.CString(funcName)
	defer C.free(unsafe.Pointer(cFunc))

	sym := C.ffi_sym(handle, cFunc)
	if sym == nil {
		return bytecode.Null(), fmt.Errorf("ffi: %s", C.GoString(C.ffi_last_error()))
	}

	cArgs, frees := toCValues(args)
	defer func() {
		for _, f := range frees {
			f()
		}
	}()

	var argPtr *C.FFIValue
	if len(cArgs) > 0 {
		argPtr = &cArgs[0]
	}
	result := C.ffi_invoke(sym, argPtr, C.int(len(cArgs)))
	return fromCValue(result), nil
}

func toCValues(args []bytecode.Value) ([]C.FFIValue, []func()) {
	cArgs := make([]C.FFIValue, len(args))
	frees := make([]func(), 0, len(args))
	for i, arg := range args {
		switch arg.Kind {
		case bytecode.KindNumber:
			if arg.Number == float64(int64(arg.Number)) {
				cArgs[i] = C.ffi_int(C.int64_t(int64(arg.Number)))
			} else {
				cArgs[i] = C.ffi_float(C.double(arg.Number))
			}
		case bytecode.KindString:
			cstr := C.CString(arg.Str)
			cArgs[i] = C.ffi_string(cstr)
			frees = append(frees, func() { C.free(unsafe.Pointer(cstr)) })
		default:
			cArgs[i] = C.ffi_null()
		}
	}
	return cArgs, frees
}

func fromCValue(v C.FFIValue) bytecode.Value {
	switch v._type {
	case C.FFI_TYPE_INT:
		return bytecode.Number(float64(*(*C.int64_t)(unsafe.Pointer(&v.data))))
	case C.FFI_TYPE_FLOAT:
		return bytecode.Number(float64(*(*C.double)(unsafe.Pointer(&v.data))))
	case C.FFI_TYPE_STRING:
		cstr := *(**C.char)(unsafe.Pointer(&v.data))
		if cstr == nil {
			return bytecode.String("")
		}
		return bytecode.String(C.GoString(cstr))
	case C.FFI_TYPE_BOOL:
		b := *(*C.int)(unsafe.Pointer(&v.data))
		if b != 0 {
			return bytecode.Number(1)
		}
		return bytecode.Number(0)
	default:
		return bytecode.Null()
	}
}
