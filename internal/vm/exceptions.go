package vm

import (
	"nyra/internal/excn"
	"nyra/internal/value"
)

// raiseValue turns a raised Value (from OpRaise, or from a
// user-constructed exception instance) into an *excn.Error carrying
// enough to render a traceback. A raised string is treated as a bare
// RuntimeError message; a raised instance uses its class name as the
// Kind and its "message" attribute (if set) as the text, matching the
// minimal protocol user-defined exception classes follow (optionally set
// message in init).
func (m *Machine) raiseValue(v value.Value) *excn.Error {
	m.pendingRaised = v
	switch o := v.Object().(type) {
	case *value.InstanceObject:
		msg := o.Class.Name
		if mv, ok := o.Attrs.Get(value.AttrKey("message")); ok {
			msg = value.Str(mv)
		}
		return m.attach(excn.New(excn.Kind(o.Class.Name), "%s", msg))
	default:
		return m.attach(excn.New(excn.RuntimeError, "%s", value.Str(v)))
	}
}

// unwindToHandler searches the frame stack, innermost first, for a live
// exception handler. If found, it truncates the stack back to the
// handler frame's locals, jumps that frame's IP to the handler address,
// pushes the exception value for the compiled handler code to bind (or
// ignore), and returns true. Only frames above floor (the frame depth
// the calling resume stops at) are searched. If none of them has a
// handler, they are all popped (closing their upvalues as it goes) and
// it returns false, meaning the error propagates out of resume to
// Interpret or to the native caller of CallValue.
func (m *Machine) unwindToHandler(err *excn.Error, floor int) bool {
	raised := m.pendingRaised
	for len(m.frames) > floor {
		f := m.currentFrame()
		if f.ExceptTop > 0 {
			f.ExceptTop--
			handlerIP := f.ExceptAddrs[f.ExceptTop]
			m.stack = m.stack[:f.Base+1]
			f.IP = handlerIP
			m.push(raised)
			return true
		}
		m.closeUpvalues(f.Base)
		m.stack = m.stack[:f.Base]
		m.frames = m.frames[:len(m.frames)-1]
		if len(m.frames) > 0 {
			line := 0
			if f.Closure != nil && f.Closure.Function != nil && f.Closure.Function.Chunk != nil {
				line = f.Closure.Function.Chunk.LineFor(f.IP)
			}
			err.PushFrame(excn.Frame{Function: m.frameFile(f), Line: line})
		}
	}
	return false
}
