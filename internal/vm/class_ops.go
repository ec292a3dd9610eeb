package vm

import (
	"github.com/alphabet-lang/alphabet/internal/bytecode"
)

// newObject implements NEW: allocate a fresh object of the named class.
// Constructor dispatch isn't implemented — the compiler already discards
// constructor arguments before this instruction runs (see compiler.go).
func (vm *VM) newObject(instr bytecode.Instruction) bool {
	name := instr.Operand.Str
	classID, ok := vm.Program.ClassByName[name]
	if !ok {
		return vm.raise(instr.Line, "unknown class: "+name)
	}
	vm.mustPush(bytecode.FromObject(bytecode.NewObject(classID)), instr.Line)
	return false
}

// call implements CALL (name, argc): pop argc arguments (restoring
// original order), pop the callee, then dispatch per §4.5 — an object
// invokes an instance method, a bare number matching a registered class
// ID invokes a static method on that class, the SYSTEM sentinel string
// dispatches to the builtin table, and anything else pushes null.
func (vm *VM) call(frame *Frame, instr bytecode.Instruction) bool {
	argc := instr.Operand.CallN
	methodName := instr.Operand.Str

	if len(vm.stack) < argc+1 {
		return vm.raise(instr.Line, "operand stack underflow")
	}
	args := make([]bytecode.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.mustPop(instr.Line)
	}
	callee := vm.mustPop(instr.Line)

	switch callee.Kind {
	case bytecode.KindObject:
		return vm.callInstanceMethod(frame, callee.Object, methodName, args, instr.Line)
	case bytecode.KindNumber:
		return vm.callStaticMethod(uint16(callee.Number), methodName, args, instr.Line)
	case bytecode.KindString:
		if callee.Str == "SYSTEM_Z" {
			return vm.callBuiltin(methodName, args, instr.Line)
		}
		vm.mustPush(bytecode.Null(), instr.Line)
		return false
	default:
		vm.mustPush(bytecode.Null(), instr.Line)
		return false
	}
}

func (vm *VM) callInstanceMethod(frame *Frame, obj *bytecode.Object, methodName string, args []bytecode.Value, line int) bool {
	class, ok := vm.Program.Classes[obj.ClassID]
	if !ok {
		return vm.raise(line, "unknown class ID")
	}
	method, ok := class.Methods[methodName]
	if !ok {
		return vm.raise(line, "method not found: "+methodName)
	}
	if class.MethodVisibility[methodName] && frame.ClassID != obj.ClassID {
		return vm.raise(line, "private method "+methodName+" not accessible here")
	}
	locals := bindParams(method.Params, args)
	locals["this"] = bytecode.FromObject(obj)
	vm.pushFrame(&Frame{Instructions: method.Instructions, Locals: locals, ClassID: obj.ClassID})
	return false
}

func (vm *VM) callStaticMethod(classID uint16, methodName string, args []bytecode.Value, line int) bool {
	class, ok := vm.Program.Classes[classID]
	if !ok {
		return vm.raise(line, "unknown class ID")
	}
	method, ok := class.StaticMethods[methodName]
	if !ok {
		return vm.raise(line, "static method not found: "+methodName)
	}
	locals := bindParams(method.Params, args)
	vm.pushFrame(&Frame{Instructions: method.Instructions, Locals: locals, ClassID: classID})
	return false
}

func bindParams(params []string, args []bytecode.Value) map[string]bytecode.Value {
	locals := make(map[string]bytecode.Value, len(params)+1)
	for i, name := range params {
		if i < len(args) {
			locals[name] = args[i]
		} else {
			locals[name] = bytecode.Null()
		}
	}
	return locals
}

func (vm *VM) loadField(frame *Frame, obj bytecode.Value, fieldName string, line int) bool {
	if obj.Kind != bytecode.KindObject {
		return vm.raise(line, "LOAD_FIELD on a non-object")
	}
	class := vm.Program.Classes[obj.Object.ClassID]
	if class != nil && class.FieldVisibility[fieldName] && frame.ClassID != obj.Object.ClassID {
		return vm.raise(line, "private field "+fieldName+" not accessible here")
	}
	if v, ok := obj.Object.Fields[fieldName]; ok {
		vm.mustPush(v, line)
		return false
	}
	vm.mustPush(bytecode.Null(), line)
	return false
}

func (vm *VM) storeField(frame *Frame, obj bytecode.Value, fieldName string, value bytecode.Value, line int) bool {
	if obj.Kind != bytecode.KindObject {
		return vm.raise(line, "STORE_FIELD on a non-object")
	}
	class := vm.Program.Classes[obj.Object.ClassID]
	if class != nil && class.FieldVisibility[fieldName] && frame.ClassID != obj.Object.ClassID {
		return vm.raise(line, "private field "+fieldName+" not accessible here")
	}
	obj.Object.Fields[fieldName] = value
	vm.mustPush(value, line)
	return false
}

func (vm *VM) classByValue(v bytecode.Value) (*bytecode.CompiledClass, bool) {
	if v.Kind != bytecode.KindNumber {
		return nil, false
	}
	class, ok := vm.Program.Classes[uint16(v.Number)]
	return class, ok
}

func (vm *VM) getStatic(classVal bytecode.Value, fieldName string, line int) bool {
	class, ok := vm.classByValue(classVal)
	if !ok {
		return vm.raise(line, "unknown class ID")
	}
	fields := vm.staticFields(class.ID)
	if v, ok := fields[fieldName]; ok {
		vm.mustPush(v, line)
		return false
	}
	vm.mustPush(bytecode.Null(), line)
	return false
}

func (vm *VM) setStatic(classVal bytecode.Value, fieldName string, value bytecode.Value, line int) bool {
	class, ok := vm.classByValue(classVal)
	if !ok {
		return vm.raise(line, "unknown class ID")
	}
	vm.staticFields(class.ID)[fieldName] = value
	vm.mustPush(value, line)
	return false
}

func (vm *VM) staticFields(classID uint16) map[string]bytecode.Value {
	if vm.statics == nil {
		vm.statics = make(map[uint16]map[string]bytecode.Value)
	}
	fields, ok := vm.statics[classID]
	if !ok {
		fields = make(map[string]bytecode.Value)
		vm.statics[classID] = fields
	}
	return fields
}
