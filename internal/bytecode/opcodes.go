// Package bytecode defines the code-object format the interpreter
// consumes: a flat instruction stream, a parallel line table for
// diagnostics, and a per-function constant pool. Producing a Chunk is
// the compiler's job (external to this module, per the VM's contract);
// this package only defines the shape and the assembly helpers used to
// build one.
package bytecode

// OpCode is a single byte. Operands, when present, follow inline in the
// code stream (see Chunk.WriteByte / WriteUint16).
type OpCode byte

const (
	// Constants and literals.
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse

	// Stack shuffling.
	OpPop
	OpDup

	// Local / global / upvalue access.
	OpGetLocal
	OpSetLocal
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpCloseUpvalue

	// Arithmetic.
	OpAdd
	OpSub
	OpMul
	OpTrueDivide
	OpFloorDivide
	OpMod
	OpPow
	OpPositive
	OpNegate

	// Comparison and logic.
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpNot

	// Control flow. Jump operands are unsigned 16-bit absolute code
	// offsets: OpJump/OpJumpIfFalse/OpJumpIfTrue and OpLoop all set the
	// instruction pointer to the operand itself.
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpLoop

	// Attributes and subscripting.
	OpGetAttr
	OpSetAttr
	OpDelAttr
	OpGetItem
	OpSetItem
	OpDelItem

	// Calls and returns.
	OpCall   // operand: argc (byte)
	OpCallKw // operands: argc, kwargc, names (three bytes); names is the constant index of a tuple of kwarg names, whose values are on the stack after the positional args
	OpReturn

	// Closures. Operand: constant-pool index of the function prototype,
	// followed by one (isLocal byte, index byte) pair per upvalue
	// descriptor on the prototype.
	OpClosure

	// Containers.
	OpBuildList  // operand: element count (uint16)
	OpBuildTuple // operand: element count (uint16)
	OpBuildDict  // operand: pair count (uint16)

	// Iteration protocol. OpIterNext calls next() on the iterator at
	// the top of the stack; on success it pushes the produced value and
	// falls through; once the iterator is exhausted it jumps to the
	// operand address, leaving the iterator on the stack for the code
	// there to pop.
	OpIterNew
	OpIterNext // operand: jump target (uint16) taken on StopIteration

	// Exceptions.
	OpRaise
	OpSetupExcept // operand: handler address (uint16)
	OpPopExcept

	// Classes.
	OpClass    // operand: constant-pool index of the class name
	OpInherit  // pops parent class, peeks subclass, links it in
	OpMethod   // operand: constant-pool index of the method name; pops closure, binds onto the class beneath it
	OpGetSuper // operand: constant-pool index of method name; resolves starting at the superclass chain

	// Modules.
	OpImport // operand: constant-pool index of the module name; pushes the module object

	OpReturnNone // implicit return with no explicit value on the stack
)

var opcodeNames = map[OpCode]string{
	OpConstant:     "CONSTANT",
	OpNil:          "NIL",
	OpTrue:         "TRUE",
	OpFalse:        "FALSE",
	OpPop:          "POP",
	OpDup:          "DUP",
	OpGetLocal:     "GET_LOCAL",
	OpSetLocal:     "SET_LOCAL",
	OpDefineGlobal: "DEFINE_GLOBAL",
	OpGetGlobal:    "GET_GLOBAL",
	OpSetGlobal:    "SET_GLOBAL",
	OpGetUpvalue:   "GET_UPVALUE",
	OpSetUpvalue:   "SET_UPVALUE",
	OpCloseUpvalue: "CLOSE_UPVALUE",
	OpAdd:          "ADD",
	OpSub:          "SUB",
	OpMul:          "MUL",
	OpTrueDivide:   "TRUE_DIVIDE",
	OpFloorDivide:  "FLOOR_DIVIDE",
	OpMod:          "MOD",
	OpPow:          "POW",
	OpPositive:     "POSITIVE",
	OpNegate:       "NEGATE",
	OpEqual:        "EQUAL",
	OpNotEqual:     "NOT_EQUAL",
	OpGreater:      "GREATER",
	OpGreaterEqual: "GREATER_EQUAL",
	OpLess:         "LESS",
	OpLessEqual:    "LESS_EQUAL",
	OpNot:          "NOT",
	OpJump:         "JUMP",
	OpJumpIfFalse:  "JUMP_IF_FALSE",
	OpJumpIfTrue:   "JUMP_IF_TRUE",
	OpLoop:         "LOOP",
	OpGetAttr:      "GET_ATTR",
	OpSetAttr:      "SET_ATTR",
	OpDelAttr:      "DEL_ATTR",
	OpGetItem:      "GET_ITEM",
	OpSetItem:      "SET_ITEM",
	OpDelItem:      "DEL_ITEM",
	OpCall:         "CALL",
	OpCallKw:       "CALL_KW",
	OpReturn:       "RETURN",
	OpClosure:      "CLOSURE",
	OpBuildList:    "BUILD_LIST",
	OpBuildTuple:   "BUILD_TUPLE",
	OpBuildDict:    "BUILD_DICT",
	OpIterNew:      "ITER_NEW",
	OpIterNext:     "ITER_NEXT",
	OpRaise:        "RAISE",
	OpSetupExcept:  "SETUP_EXCEPT",
	OpPopExcept:    "POP_EXCEPT",
	OpClass:        "CLASS",
	OpInherit:      "INHERIT",
	OpMethod:       "METHOD",
	OpGetSuper:     "GET_SUPER",
	OpImport:       "IMPORT",
	OpReturnNone:   "RETURN_NONE",
}

// String renders an opcode for disassembly and error messages.
func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}
