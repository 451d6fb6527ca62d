package value

import (
	"nyra/internal/hashtable"
)

// StringObject is an immutable byte string. Interned strings are
// deduplicated through the heap's intern table (see Intern below); two
// interned strings with equal bytes are always the same *StringObject,
// so identity comparison is a valid (fast) equality test for them.
type StringObject struct {
	ObjHeader
	Bytes    []byte
	hash     uint64
	hashed   bool
	Interned bool
}

// NewString allocates a fresh, non-interned string object.
func NewString(h *Heap, s string) *StringObject {
	so := &StringObject{ObjHeader: ObjHeader{Tag: TagString}, Bytes: []byte(s)}
	h.register(so, uint64size(len(s)))
	return so
}

func uint64size(n int) uintptr { return uintptr(32 + n) }

func (s *StringObject) String() string { return string(s.Bytes) }

// Hash implements the clox tableFindString cached-hash scheme: FNV-ish
// hash*31 + byte, computed once and cached on the object.
func (s *StringObject) Hash() uint64 {
	if s.hashed {
		return s.hash
	}
	var h uint64 = 2166136261
	for _, b := range s.Bytes {
		h = h*31 + uint64(b)
	}
	s.hash = h
	s.hashed = true
	return h
}

// Intern looks up s's bytes in the heap's string table by hash, raw
// bytes, avoiding an allocation on a hit; on a miss it registers s as
// the canonical interned object for its bytes and returns it.
func (h *Heap) Intern(s string) *StringObject {
	if h.strings == nil {
		h.strings = hashtable.New[*StringObject]()
	}
	target := hashString(s)
	if _, existing, ok := h.strings.FindByHash(target, func(k hashtable.Key) bool {
		so, ok := k.(stringKey)
		return ok && string(so) == s
	}); ok {
		return existing
	}
	so := NewString(h, s)
	so.hash = target
	so.hashed = true
	so.Interned = true
	h.strings.Set(stringKey(s), so)
	return so
}

// stringKey is the Key the intern table is keyed by: the raw Go string,
// hashed with the identical algorithm StringObject.Hash uses so
// FindByHash's candidate hash matches real entries.
// AttrKey builds the hashtable.Key used to key attribute/global/module
// tables by a plain Go string name (as opposed to DictObject, which is
// keyed by full Values so non-string keys work too).
func AttrKey(name string) hashtable.Key { return stringKey(name) }

type stringKey string

func (k stringKey) HashKey() uint64 { return hashString(string(k)) }
func (k stringKey) EqualKey(other hashtable.Key) bool {
	o, ok := other.(stringKey)
	return ok && k == o
}

func hashString(s string) uint64 {
	var h uint64 = 2166136261
	for i := 0; i < len(s); i++ {
		h = h*31 + uint64(s[i])
	}
	return h
}

// escapeTable maps a backslash-escape letter to its literal byte,
// matching the original scanner's table: \a \b \f \n \r \t \v \0 \e,
// anything else passes through unescaped (the backslash is dropped and
// the following byte is taken literally).
var escapeTable = map[byte]byte{
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n',
	'r': '\r', 't': '\t', 'v': '\v', '0': 0, 'e': 0x1b,
}

// UnescapeString resolves backslash escapes in a source-level string
// literal body. The scanner/compiler lives outside this module, and the
// VM interns string constants exactly as the chunk holds them; within
// this module only the tests call this helper.
func UnescapeString(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			out = append(out, c)
			continue
		}
		next := raw[i+1]
		if resolved, ok := escapeTable[next]; ok {
			out = append(out, resolved)
		} else {
			out = append(out, next)
		}
		i++
	}
	return string(out)
}

// StringValue interns s and wraps it as a Value, the normal way source
// literals and string results enter the VM.
func StringValue(h *Heap, s string) Value { return objectValue(h.Intern(s)) }

// NonInternedStringValue wraps a freshly allocated, non-interned string
// (e.g. the result of concatenation) as a Value.
func NonInternedStringValue(h *Heap, s string) Value { return objectValue(NewString(h, s)) }
