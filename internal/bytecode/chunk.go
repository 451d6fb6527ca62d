package bytecode

// UpvalueDesc describes one upvalue captured by a closure created from
// this Chunk: either a slot in the immediately enclosing call frame
// (IsLocal), or an upvalue already captured by that enclosing frame,
// forwarded by index.
type UpvalueDesc struct {
	IsLocal bool
	Index   uint8
}

// Chunk is a code object: one function's compiled body. The constant
// pool is untyped (interface{}) rather than the VM's own Value type so
// that this package has no dependency on the value package — the value
// package depends on bytecode (a FunctionObject wraps a *Chunk), not the
// other way around. Recognized constant kinds are int64, float64,
// string, bool, nil, and nested *Chunk (for function literals); the VM
// converts each into a Value the first time it reads one of them.
type Chunk struct {
	Name  string
	Arity int

	Code []byte
	Lines []int32 // parallel to Code; Lines[ip] is the source line of the instruction starting at ip

	Constants []interface{}

	ParamNames    []string
	ParamDefaults []int // index into Constants for each trailing default, -1 if required
	Upvalues      []UpvalueDesc
}

// NewChunk returns an empty chunk ready for assembly.
func NewChunk(name string, arity int) *Chunk {
	return &Chunk{Name: name, Arity: arity}
}

// WriteOp appends an opcode byte, recording its source line.
func (c *Chunk) WriteOp(op OpCode, line int) int {
	return c.WriteByte(byte(op), line)
}

// WriteByte appends a raw byte (an opcode or an operand byte) and
// returns its offset in Code.
func (c *Chunk) WriteByte(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, int32(line))
	return len(c.Code) - 1
}

// WriteUint16 appends a big-endian two-byte operand.
func (c *Chunk) WriteUint16(v uint16, line int) int {
	off := c.WriteByte(byte(v>>8), line)
	c.WriteByte(byte(v), line)
	return off
}

// PatchUint16 overwrites the two bytes at offset with v, used to back-
// patch forward jump targets once they're known.
func (c *Chunk) PatchUint16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// AddConstant appends value to the constant pool and returns its index.
func (c *Chunk) AddConstant(value interface{}) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// LineFor returns the source line recorded for the instruction at ip,
// or 0 if ip is out of range (e.g. a synthetic return at the very end).
func (c *Chunk) LineFor(ip int) int {
	if ip < 0 || ip >= len(c.Lines) {
		return 0
	}
	return int(c.Lines[ip])
}
