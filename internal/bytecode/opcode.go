// Package bytecode defines the instruction set the compiler emits and the
// VM executes, the program container that ties a main stream to a class
// table, and the runtime value representation both share.
package bytecode

// OpCode identifies one VM instruction. Values match the numbering used
// by the reference implementation's opcode table, so a disassembly lines
// up one-to-one with it.
type OpCode byte

const (
	PushConst OpCode = iota + 1
	LoadVar
	StoreVar
	LoadField
	StoreField
	Add
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Gt
	Ge
	Lt
	Le
	And
	Or
	Not
	Jump
	JumpIfFalse
	Call
	Ret
	New
	Pop
	Print
	Halt
	SetupTry
	PopTry
	Throw
	GetStatic
	SetStatic
	BuildList
	BuildMap
	LoadIndex
	StoreIndex
)

var opcodeNames = map[OpCode]string{
	PushConst:   "PUSH_CONST",
	LoadVar:     "LOAD_VAR",
	StoreVar:    "STORE_VAR",
	LoadField:   "LOAD_FIELD",
	StoreField:  "STORE_FIELD",
	Add:         "ADD",
	Sub:         "SUB",
	Mul:         "MUL",
	Div:         "DIV",
	Mod:         "PERCENT",
	Eq:          "EQ",
	Ne:          "NE",
	Gt:          "GT",
	Ge:          "GE",
	Lt:          "LT",
	Le:          "LE",
	And:         "AND",
	Or:          "OR",
	Not:         "NOT",
	Jump:        "JUMP",
	JumpIfFalse: "JUMP_IF_FALSE",
	Call:        "CALL",
	Ret:         "RET",
	New:         "NEW",
	Pop:         "POP",
	Print:       "PRINT",
	Halt:        "HALT",
	SetupTry:    "SETUP_TRY",
	PopTry:      "POP_TRY",
	Throw:       "THROW",
	GetStatic:   "GET_STATIC",
	SetStatic:   "SET_STATIC",
	BuildList:   "BUILD_LIST",
	BuildMap:    "BUILD_MAP",
	LoadIndex:   "LOAD_INDEX",
	StoreIndex:  "STORE_INDEX",
}

func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}
