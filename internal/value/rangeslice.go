package value

// RangeObject is the lazy arithmetic sequence produced by range(...)
// literals; iterating it (via IteratorObject) never materializes a
// list.
type RangeObject struct {
	ObjHeader
	Start, Stop, Step int64
}

func NewRange(h *Heap, start, stop, step int64) *RangeObject {
	r := &RangeObject{ObjHeader: ObjHeader{Tag: TagRange}, Start: start, Stop: stop, Step: step}
	h.register(r, 32)
	return r
}

func RangeValue(h *Heap, start, stop, step int64) Value { return objectValue(NewRange(h, start, stop, step)) }

// Len reports how many elements the range yields; zero if Step's sign
// doesn't make progress toward Stop.
func (r *RangeObject) Len() int64 {
	if r.Step == 0 {
		return 0
	}
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	}
	if r.Start <= r.Stop {
		return 0
	}
	return (r.Start - r.Stop - r.Step - 1) / (-r.Step)
}

// At returns the i'th element (0-based), without bounds checking.
func (r *RangeObject) At(i int64) int64 { return r.Start + i*r.Step }

// SliceObject is the result of a start:stop:step subscript expression,
// carrying the three (possibly absent) bounds until it's applied to a
// sequence by GetItem.
type SliceObject struct {
	ObjHeader
	HasStart, HasStop, HasStep bool
	Start, Stop, Step          int64
}

func NewSlice(h *Heap, s SliceObject) *SliceObject {
	s.ObjHeader = ObjHeader{Tag: TagSlice}
	out := &s
	h.register(out, 32)
	return out
}

func SliceValue(h *Heap, s SliceObject) Value { return objectValue(NewSlice(h, s)) }

// Resolve turns the slice's possibly-absent bounds into concrete
// [start,stop) indices and a step for a sequence of length n, applying
// the usual negative-index-from-end and clamping rules.
func (s *SliceObject) Resolve(n int64) (start, stop, step int64) {
	step = 1
	if s.HasStep {
		step = s.Step
	}
	if step == 0 {
		step = 1
	}

	if step > 0 {
		start, stop = 0, n
	} else {
		start, stop = n-1, -1
	}

	if s.HasStart {
		start = clampIndex(s.Start, n, step > 0)
	}
	if s.HasStop {
		stop = clampIndex(s.Stop, n, step > 0)
	}
	return
}

func clampIndex(i, n int64, forward bool) int64 {
	if i < 0 {
		i += n
	}
	if forward {
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
	} else {
		if i < -1 {
			i = -1
		}
		if i >= n {
			i = n - 1
		}
	}
	return i
}
