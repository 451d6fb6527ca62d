package vm

import (
	"nyra/internal/bytecode"
	"nyra/internal/excn"
	"nyra/internal/value"
)

// run is the main fetch-decode-dispatch loop; resume(0) is an alias
// for it, used so CallValue's reentrant calls and the top-level
// Interpret share one implementation.
func (m *Machine) run() (value.Value, *excn.Error) {
	return m.resume(0)
}

// resume executes opcodes until the frame stack depth returns to
// target, then returns whatever value.Value the last OpReturn at that
// depth left on the stack. A propagating *excn.Error that isn't caught
// by any handler before the frame stack unwinds past target is
// returned instead.
func (m *Machine) resume(target int) (result value.Value, raisedErr *excn.Error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stackOverflow); ok {
				raisedErr = excn.New(excn.RuntimeError, "maximum recursion depth exceeded")
				return
			}
			panic(r)
		}
	}()
	for len(m.frames) > target {
		f := m.currentFrame()
		op := m.readOp(f)

		var raised *excn.Error

		switch op {
		case bytecode.OpConstant:
			idx := int(m.readByte(f))
			m.push(m.constant(f, idx))

		case bytecode.OpNil:
			m.push(value.None())
		case bytecode.OpTrue:
			m.push(value.Bool(true))
		case bytecode.OpFalse:
			m.push(value.Bool(false))

		case bytecode.OpPop:
			m.pop()
		case bytecode.OpDup:
			m.push(m.peek(0))

		case bytecode.OpGetLocal:
			slot := int(m.readByte(f))
			m.push(m.stack[f.Base+1+slot])
		case bytecode.OpSetLocal:
			slot := int(m.readByte(f))
			m.stack[f.Base+1+slot] = m.peek(0)

		case bytecode.OpDefineGlobal:
			name := m.constant(f, int(m.readByte(f)))
			m.Globals.Set(name, m.pop())
		case bytecode.OpGetGlobal:
			name := m.constant(f, int(m.readByte(f)))
			v, ok := m.Globals.Get(name)
			if !ok {
				raised = m.runtimeError(excn.NameError, "name %q is not defined", value.Str(name))
				break
			}
			m.push(v)
		case bytecode.OpSetGlobal:
			name := m.constant(f, int(m.readByte(f)))
			if _, ok := m.Globals.Get(name); !ok {
				raised = m.runtimeError(excn.NameError, "name %q is not defined", value.Str(name))
				break
			}
			m.Globals.Set(name, m.peek(0))

		case bytecode.OpGetUpvalue:
			idx := int(m.readByte(f))
			m.push(f.Closure.Upvalues[idx].Get())
		case bytecode.OpSetUpvalue:
			idx := int(m.readByte(f))
			f.Closure.Upvalues[idx].Set(m.peek(0))
		case bytecode.OpCloseUpvalue:
			m.closeUpvalues(len(m.stack) - 1)
			m.pop()

		case bytecode.OpAdd:
			b, a := m.pop(), m.pop()
			raised = m.binaryOp(a, b, opAdd)
		case bytecode.OpSub:
			b, a := m.pop(), m.pop()
			raised = m.binaryOp(a, b, opSub)
		case bytecode.OpMul:
			b, a := m.pop(), m.pop()
			raised = m.binaryOp(a, b, opMul)
		case bytecode.OpTrueDivide:
			b, a := m.pop(), m.pop()
			raised = m.binaryOp(a, b, opTrueDiv)
		case bytecode.OpFloorDivide:
			b, a := m.pop(), m.pop()
			raised = m.binaryOp(a, b, opFloorDiv)
		case bytecode.OpMod:
			b, a := m.pop(), m.pop()
			raised = m.binaryOp(a, b, opMod)
		case bytecode.OpPow:
			b, a := m.pop(), m.pop()
			raised = m.binaryOp(a, b, opPow)
		case bytecode.OpPositive:
			a := m.pop()
			r, err := value.Positive(a)
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(r)
		case bytecode.OpNegate:
			a := m.pop()
			r, err := value.Negate(a)
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(r)
		case bytecode.OpNot:
			m.push(value.Not(m.pop()))

		case bytecode.OpEqual:
			b, a := m.pop(), m.pop()
			eq, err := m.equalWithInstances(a, b)
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(value.Bool(eq))
		case bytecode.OpNotEqual:
			b, a := m.pop(), m.pop()
			eq, err := m.equalWithInstances(a, b)
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(value.Bool(!eq))
		case bytecode.OpLess:
			raised = m.compareOp(func(c int) bool { return c < 0 })
		case bytecode.OpLessEqual:
			raised = m.compareOp(func(c int) bool { return c <= 0 })
		case bytecode.OpGreater:
			raised = m.compareOp(func(c int) bool { return c > 0 })
		case bytecode.OpGreaterEqual:
			raised = m.compareOp(func(c int) bool { return c >= 0 })

		case bytecode.OpJump:
			offset := m.readUint16(f)
			f.IP = int(offset)
		case bytecode.OpJumpIfFalse:
			offset := m.readUint16(f)
			if !value.ToBool(m.peek(0)) {
				f.IP = int(offset)
			}
		case bytecode.OpJumpIfTrue:
			offset := m.readUint16(f)
			if value.ToBool(m.peek(0)) {
				f.IP = int(offset)
			}
		case bytecode.OpLoop:
			offset := m.readUint16(f)
			f.IP = int(offset)

		case bytecode.OpGetAttr:
			name := m.constant(f, int(m.readByte(f)))
			obj := m.pop()
			v, err := value.GetAttr(m.Heap, obj, value.Str(name))
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(v)
		case bytecode.OpSetAttr:
			name := m.constant(f, int(m.readByte(f)))
			v := m.pop()
			obj := m.pop()
			if err := value.SetAttr(obj, value.Str(name), v); err != nil {
				raised = m.attach(err)
				break
			}
			m.push(v)
		case bytecode.OpDelAttr:
			name := m.constant(f, int(m.readByte(f)))
			obj := m.pop()
			if err := value.DelAttr(obj, value.Str(name)); err != nil {
				raised = m.attach(err)
			}

		case bytecode.OpGetItem:
			idx := m.pop()
			obj := m.pop()
			v, err := m.getItem(obj, idx)
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(v)
		case bytecode.OpSetItem:
			v := m.pop()
			idx := m.pop()
			obj := m.pop()
			if err := m.setItem(obj, idx, v); err != nil {
				raised = m.attach(err)
				break
			}
			m.push(v)
		case bytecode.OpDelItem:
			idx := m.pop()
			obj := m.pop()
			if err := m.delItem(obj, idx); err != nil {
				raised = m.attach(err)
			}

		case bytecode.OpCall:
			argCount := int(m.readByte(f))
			pushed, err := m.performCall(argCount)
			if err != nil {
				raised = m.attach(err)
				break
			}
			if !pushed {
				// result already replaces callee+args; nothing more to do
			}
		case bytecode.OpCallKw:
			argCount := int(m.readByte(f))
			kwCount := int(m.readByte(f))
			namesIdx := int(m.readByte(f))
			names := m.constant(f, namesIdx)
			newArgCount, err := m.reorderKeywordArgs(argCount, kwCount, names)
			if err != nil {
				raised = m.attach(err)
				break
			}
			pushed, err2 := m.performCall(newArgCount)
			if err2 != nil {
				raised = m.attach(err2)
				break
			}
			_ = pushed

		case bytecode.OpReturn, bytecode.OpReturnNone:
			var result value.Value
			if op == bytecode.OpReturnNone {
				result = value.None()
			} else {
				result = m.pop()
			}
			m.closeUpvalues(f.Base)
			m.stack = m.stack[:f.Base]
			m.frames = m.frames[:len(m.frames)-1]
			m.push(result)
			if len(m.frames) <= target {
				return result, nil
			}
			continue

		case bytecode.OpClosure:
			constIdx := int(m.readByte(f))
			fnVal := m.constant(f, constIdx)
			fn := fnVal.Object().(*value.FunctionObject)
			upvalueCount := len(fn.Chunk.Upvalues)
			upvalues := make([]*value.UpvalueObject, upvalueCount)
			for i := 0; i < upvalueCount; i++ {
				desc := fn.Chunk.Upvalues[i]
				isLocal := m.readByte(f) != 0
				_ = isLocal
				idx := int(m.readByte(f))
				if desc.IsLocal {
					upvalues[i] = m.captureUpvalue(f.Base + 1 + idx)
				} else {
					upvalues[i] = f.Closure.Upvalues[idx]
				}
			}
			m.push(value.ClosureValue(m.Heap, fn, upvalues))

		case bytecode.OpBuildList:
			n := int(m.readUint16(f))
			elems := append([]value.Value(nil), m.stack[len(m.stack)-n:]...)
			m.stack = m.stack[:len(m.stack)-n]
			m.push(value.ListValue(m.Heap, elems))
		case bytecode.OpBuildTuple:
			n := int(m.readUint16(f))
			elems := append([]value.Value(nil), m.stack[len(m.stack)-n:]...)
			m.stack = m.stack[:len(m.stack)-n]
			m.push(value.TupleValue(m.Heap, elems))
		case bytecode.OpBuildDict:
			n := int(m.readUint16(f))
			pairsStart := len(m.stack) - n*2
			dictVal, dict := value.DictValue(m.Heap)
			for i := pairsStart; i < len(m.stack); i += 2 {
				dict.Table.Set(m.stack[i], m.stack[i+1])
			}
			m.stack = m.stack[:pairsStart]
			m.push(dictVal)

		case bytecode.OpIterNew:
			src := m.pop()
			it, err := m.iterate(src)
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(it)
		case bytecode.OpIterNext:
			jumpIfDone := m.readUint16(f)
			itVal := m.peek(0)
			if it, ok := itVal.Object().(*value.IteratorObject); ok {
				v, ok := it.Next()
				if !ok {
					f.IP = int(jumpIfDone)
					break
				}
				m.push(v)
				break
			}
			v, stop, err := m.iterNextInstance(itVal)
			if err != nil {
				raised = m.attach(err)
				break
			}
			if stop {
				f.IP = int(jumpIfDone)
				break
			}
			m.push(v)

		case bytecode.OpRaise:
			excVal := m.pop()
			raised = m.raiseValue(excVal)

		case bytecode.OpSetupExcept:
			handlerIP := m.readUint16(f)
			if f.ExceptTop < maxExceptLevels {
				f.ExceptAddrs[f.ExceptTop] = int(handlerIP)
				f.ExceptTop++
			}
		case bytecode.OpPopExcept:
			if f.ExceptTop > 0 {
				f.ExceptTop--
			}

		case bytecode.OpClass:
			nameVal := m.constant(f, int(m.readByte(f)))
			m.push(value.ClassValue(m.Heap, value.Str(nameVal), nil))
		case bytecode.OpInherit:
			parentVal := m.pop()
			classVal := m.peek(0)
			parent, ok := parentVal.Object().(*value.ClassObject)
			if !ok {
				raised = m.runtimeError(excn.TypeError, "base class must be a class")
				break
			}
			class := classVal.Object().(*value.ClassObject)
			class.Parent = parent
		case bytecode.OpMethod:
			nameVal := m.constant(f, int(m.readByte(f)))
			methodVal := m.pop()
			classVal := m.peek(0)
			class := classVal.Object().(*value.ClassObject)
			class.Methods.Set(value.AttrKey(value.Str(nameVal)), methodVal)
		case bytecode.OpGetSuper:
			nameVal := m.constant(f, int(m.readByte(f)))
			superVal := m.pop()
			receiver := m.pop()
			super := superVal.Object().(*value.ClassObject)
			methodVal, ok := super.LookupMethod(value.Str(nameVal))
			if !ok {
				raised = m.runtimeError(excn.AttributeError, "super object has no attribute %q", value.Str(nameVal))
				break
			}
			closure, ok := methodVal.Object().(*value.ClosureObject)
			if !ok {
				raised = m.runtimeError(excn.TypeError, "super attribute %q is not a method", value.Str(nameVal))
				break
			}
			m.push(value.MethodValue(m.Heap, receiver, closure))

		case bytecode.OpImport:
			nameVal := m.constant(f, int(m.readByte(f)))
			modVal, err := m.loadModule(value.Str(nameVal))
			if err != nil {
				raised = m.attach(err)
				break
			}
			m.push(modVal)

		default:
			raised = m.runtimeError(excn.RuntimeError, "unknown opcode %v", op)
		}

		if raised != nil {
			if !m.unwindToHandler(raised, target) {
				return value.Value{}, raised
			}
		}
	}
	if len(m.stack) == 0 {
		return value.None(), nil
	}
	return m.peek(0), nil
}

func (m *Machine) attach(err *excn.Error) *excn.Error {
	if err.File != "" {
		return err
	}
	f := m.currentFrame()
	line := 0
	if f.Closure != nil && f.Closure.Function != nil && f.Closure.Function.Chunk != nil {
		line = f.Closure.Function.Chunk.LineFor(f.IP)
	}
	return err.WithLocation(m.frameFile(f), line)
}
