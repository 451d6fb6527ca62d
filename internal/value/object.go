package value

// Object is implemented by every heap-allocated value variant. Each
// concrete type embeds ObjHeader, which supplies header() by promotion,
// so no variant needs to write its own boilerplate to participate in
// the heap's intrusive object list and the collector's mark bit.
type Object interface {
	header() *ObjHeader
}

// ObjHeader is the common header clox's Obj struct plays for every heap
// value here: a dispatch tag, a mark bit the collector flips, and the
// Next pointer threading every live object into one intrusive list so
// the sweep phase can walk the whole heap without a separate registry.
type ObjHeader struct {
	Tag    TypeTag
	Marked bool
	Next   Object
}

func (h *ObjHeader) header() *ObjHeader { return h }
