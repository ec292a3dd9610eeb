package vm

import (
	"fmt"
	"math"

	"github.com/alphabet-lang/alphabet/internal/bytecode"
)

// dispatch executes one instruction against frame. It returns true when
// the run loop must stop immediately — either the program halted, or an
// exception unwound past every frame. mustPush/mustPop abort the current
// instruction via panic(dispatchStop{...}) on stack overflow/underflow;
// dispatch recovers that here and turns it into its own return value.
func (vm *VM) dispatch(frame *Frame, instr bytecode.Instruction) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(dispatchStop); ok {
				stop = s.Stop
				return
			}
			panic(r)
		}
	}()

	switch instr.Op {
	case bytecode.PushConst:
		vm.mustPush(operandToValue(instr.Operand), instr.Line)

	case bytecode.LoadVar:
		name := vm.resolveName(instr.Operand)
		if v, ok := frame.Locals[name]; ok {
			vm.mustPush(v, instr.Line)
		} else if v, ok := vm.globals[name]; ok {
			vm.mustPush(v, instr.Line)
		} else {
			vm.mustPush(bytecode.Null(), instr.Line)
		}

	case bytecode.StoreVar:
		v, ok := vm.top()
		if !ok {
			return vm.raise(instr.Line, "operand stack underflow")
		}
		name := vm.resolveName(instr.Operand)
		if _, isLocal := frame.Locals[name]; isLocal {
			frame.Locals[name] = v
		} else {
			vm.globals[name] = v
		}

	case bytecode.LoadField:
		obj := vm.mustPop(instr.Line)
		return vm.loadField(frame, obj, instr.Operand.Str, instr.Line)

	case bytecode.StoreField:
		value := vm.mustPop(instr.Line)
		obj := vm.mustPop(instr.Line)
		return vm.storeField(frame, obj, instr.Operand.Str, value, instr.Line)

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod:
		return vm.arith(instr)

	case bytecode.Eq:
		b, a := vm.mustPop(instr.Line), vm.mustPop(instr.Line)
		vm.mustPush(boolValue(a.Equal(b)), instr.Line)

	case bytecode.Ne:
		b, a := vm.mustPop(instr.Line), vm.mustPop(instr.Line)
		vm.mustPush(boolValue(!a.Equal(b)), instr.Line)

	case bytecode.Gt, bytecode.Lt, bytecode.Ge, bytecode.Le:
		return vm.compare(instr)

	case bytecode.And:
		b, a := vm.mustPop(instr.Line), vm.mustPop(instr.Line)
		vm.mustPush(boolValue(a.Truthy() && b.Truthy()), instr.Line)

	case bytecode.Or:
		b, a := vm.mustPop(instr.Line), vm.mustPop(instr.Line)
		vm.mustPush(boolValue(a.Truthy() || b.Truthy()), instr.Line)

	case bytecode.Not:
		v := vm.mustPop(instr.Line)
		vm.mustPush(boolValue(!v.Truthy()), instr.Line)

	case bytecode.Jump:
		frame.PC = int(instr.Operand.Int)

	case bytecode.JumpIfFalse:
		v := vm.mustPop(instr.Line)
		if !v.Truthy() {
			frame.PC = int(instr.Operand.Int)
		}

	case bytecode.Call:
		return vm.call(frame, instr)

	case bytecode.Ret:
		v := vm.mustPop(instr.Line)
		vm.frames = vm.frames[:len(vm.frames)-1]
		if len(vm.frames) > 0 {
			vm.mustPush(v, instr.Line)
		}

	case bytecode.New:
		return vm.newObject(instr)

	case bytecode.Pop:
		vm.mustPop(instr.Line)

	case bytecode.Print:
		v := vm.mustPop(instr.Line)
		vm.mustPop(instr.Line) // receiver, ignored
		vm.printValue(v)
		vm.mustPush(bytecode.Null(), instr.Line)

	case bytecode.Halt:
		vm.frames = nil
		return true

	case bytecode.SetupTry:
		frame.Handlers = append(frame.Handlers, handler{PC: int(instr.Operand.Int), StackDepth: len(vm.stack)})

	case bytecode.PopTry:
		if n := len(frame.Handlers); n > 0 {
			frame.Handlers = frame.Handlers[:n-1]
		}

	case bytecode.Throw:
		v := vm.mustPop(instr.Line)
		return vm.throwValue(v)

	case bytecode.GetStatic:
		v := vm.mustPop(instr.Line)
		return vm.getStatic(v, instr.Operand.Str, instr.Line)

	case bytecode.SetStatic:
		value := vm.mustPop(instr.Line)
		classVal := vm.mustPop(instr.Line)
		return vm.setStatic(classVal, instr.Operand.Str, value, instr.Line)

	case bytecode.BuildList:
		n := int(instr.Operand.Int)
		if len(vm.stack) < n {
			return vm.raise(instr.Line, "operand stack underflow")
		}
		elems := make([]bytecode.Value, n)
		copy(elems, vm.stack[len(vm.stack)-n:])
		vm.stack = vm.stack[:len(vm.stack)-n]
		vm.mustPush(bytecode.FromList(&bytecode.List{Elements: elems}), instr.Line)

	case bytecode.BuildMap:
		n := int(instr.Operand.Int)
		if len(vm.stack) < n*2 {
			return vm.raise(instr.Line, "operand stack underflow")
		}
		entries := make(map[string]bytecode.Value, n)
		pairs := vm.stack[len(vm.stack)-n*2:]
		vm.stack = vm.stack[:len(vm.stack)-n*2]
		for i := 0; i < n; i++ {
			key, val := pairs[i*2], pairs[i*2+1]
			if key.Kind == bytecode.KindString {
				entries[key.Str] = val
			}
		}
		vm.mustPush(bytecode.FromMap(&bytecode.Map{Entries: entries}), instr.Line)

	case bytecode.LoadIndex:
		idx := vm.mustPop(instr.Line)
		obj := vm.mustPop(instr.Line)
		vm.mustPush(loadIndex(obj, idx), instr.Line)

	case bytecode.StoreIndex:
		value := vm.mustPop(instr.Line)
		idx := vm.mustPop(instr.Line)
		obj := vm.mustPop(instr.Line)
		vm.mustPush(storeIndex(obj, idx, value), instr.Line)

	default:
		return vm.raise(instr.Line, "unknown opcode")
	}
	return false
}

func (vm *VM) resolveName(op bytecode.Operand) string {
	switch op.Kind {
	case bytecode.OperandInt:
		idx := int(op.Int)
		if idx >= 0 && idx < len(vm.Program.Globals) {
			return vm.Program.Globals[idx]
		}
		return ""
	case bytecode.OperandString:
		return op.Str
	default:
		return ""
	}
}

func boolValue(b bool) bytecode.Value {
	if b {
		return bytecode.Number(1)
	}
	return bytecode.Number(0)
}

func (vm *VM) arith(instr bytecode.Instruction) bool {
	b := vm.mustPop(instr.Line)
	a := vm.mustPop(instr.Line)
	if instr.Op == bytecode.Add && a.Kind == bytecode.KindString && b.Kind == bytecode.KindString {
		vm.mustPush(bytecode.String(a.Str+b.Str), instr.Line)
		return false
	}
	if a.Kind != bytecode.KindNumber || b.Kind != bytecode.KindNumber {
		vm.mustPush(bytecode.Null(), instr.Line)
		return false
	}
	switch instr.Op {
	case bytecode.Add:
		vm.mustPush(bytecode.Number(a.Number+b.Number), instr.Line)
	case bytecode.Sub:
		vm.mustPush(bytecode.Number(a.Number-b.Number), instr.Line)
	case bytecode.Mul:
		vm.mustPush(bytecode.Number(a.Number*b.Number), instr.Line)
	case bytecode.Div:
		if b.Number == 0 {
			return vm.raise(instr.Line, "division by zero")
		}
		vm.mustPush(bytecode.Number(a.Number/b.Number), instr.Line)
	case bytecode.Mod:
		// modulus by zero follows the platform's fmod behavior (NaN)
		// rather than throwing, per §8.
		vm.mustPush(bytecode.Number(math.Mod(a.Number, b.Number)), instr.Line)
	}
	return false
}

func (vm *VM) compare(instr bytecode.Instruction) bool {
	b := vm.mustPop(instr.Line)
	a := vm.mustPop(instr.Line)
	if a.Kind != bytecode.KindNumber || b.Kind != bytecode.KindNumber {
		vm.mustPush(bytecode.Null(), instr.Line)
		return false
	}
	var result bool
	switch instr.Op {
	case bytecode.Gt:
		result = a.Number > b.Number
	case bytecode.Lt:
		result = a.Number < b.Number
	case bytecode.Ge:
		result = a.Number >= b.Number
	case bytecode.Le:
		result = a.Number <= b.Number
	}
	vm.mustPush(boolValue(result), instr.Line)
	return false
}

func (vm *VM) printValue(v bytecode.Value) {
	fmt.Fprintln(vm.Stdout, bytecode.Stringify(v))
}

func loadIndex(obj, idx bytecode.Value) bytecode.Value {
	switch obj.Kind {
	case bytecode.KindList:
		if idx.Kind != bytecode.KindNumber {
			return bytecode.Null()
		}
		i := int(idx.Number)
		if i < 0 || i >= len(obj.List.Elements) {
			return bytecode.Null()
		}
		return obj.List.Elements[i]
	case bytecode.KindMap:
		if idx.Kind != bytecode.KindString {
			return bytecode.Null()
		}
		if v, ok := obj.Map.Entries[idx.Str]; ok {
			return v
		}
		return bytecode.Null()
	default:
		return bytecode.Null()
	}
}

func storeIndex(obj, idx, value bytecode.Value) bytecode.Value {
	switch obj.Kind {
	case bytecode.KindList:
		if idx.Kind != bytecode.KindNumber {
			return bytecode.Null()
		}
		i := int(idx.Number)
		if i < 0 || i >= len(obj.List.Elements) {
			return bytecode.Null()
		}
		obj.List.Elements[i] = value
		return value
	case bytecode.KindMap:
		if idx.Kind != bytecode.KindString {
			return bytecode.Null()
		}
		obj.Map.Entries[idx.Str] = value
		return value
	default:
		return bytecode.Null()
	}
}
