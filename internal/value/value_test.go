package value

import "testing"

func TestIntFloatCoercion(t *testing.T) {
	h := NewHeap()
	_ = h
	sum, err := Add(nil, Int(2), Float(3.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.IsFloat() || sum.AsFloat() != 5.5 {
		t.Fatalf("2 + 3.5 = %v, want 5.5", Repr(sum))
	}
}

func TestIntArithmeticStaysInt(t *testing.T) {
	sum, err := Add(nil, Int(2), Int(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.IsInt() || sum.AsInt() != 5 {
		t.Fatalf("2 + 3 = %v, want int 5", Repr(sum))
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := TrueDivide(Int(1), Int(0))
	if err == nil || err.Kind != "ZeroDivisionError" {
		t.Fatalf("expected ZeroDivisionError, got %v", err)
	}
}

func TestFloorDivNegative(t *testing.T) {
	q, err := FloorDivide(Int(-7), Int(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.AsInt() != -4 {
		t.Fatalf("-7 // 2 = %d, want -4", q.AsInt())
	}
}

func TestStringConcatAndRepeat(t *testing.T) {
	h := NewHeap()
	a := StringValue(h, "ab")
	b := StringValue(h, "cd")
	cat, err := Add(h, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Str(cat) != "abcd" {
		t.Fatalf("concat = %q, want abcd", Str(cat))
	}
	rep, err := Mul(h, a, Int(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Str(rep) != "ababab" {
		t.Fatalf("repeat = %q, want ababab", Str(rep))
	}
}

func TestStringInterningIdentity(t *testing.T) {
	h := NewHeap()
	a := h.Intern("hello")
	b := h.Intern("hello")
	if a != b {
		t.Fatalf("interned strings with equal bytes should share identity")
	}
}

func TestUnescapeString(t *testing.T) {
	got := UnescapeString(`line1\nline2\ttab`)
	want := "line1\nline2\ttab"
	if got != want {
		t.Fatalf("UnescapeString = %q, want %q", got, want)
	}
}

func TestDictInsertionOrderPreserved(t *testing.T) {
	h := NewHeap()
	_, d := DictValue(h)
	d.Table.Set(stringKey("z"), Int(1))
	d.Table.Set(stringKey("a"), Int(2))
	d.Table.Set(stringKey("m"), Int(3))

	keys := d.Table.Keys()
	order := []string{}
	for _, k := range keys {
		order = append(order, string(k.(stringKey)))
	}
	want := []string{"z", "a", "m"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dict key order = %v, want %v", order, want)
		}
	}
}

func TestListNegativeIndexing(t *testing.T) {
	h := NewHeap()
	l := ListValue(h, []Value{Int(1), Int(2), Int(3)})
	got, err := GetItem(h, l, Int(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsInt() != 3 {
		t.Fatalf("list[-1] = %d, want 3", got.AsInt())
	}
}

func TestListIndexOutOfRange(t *testing.T) {
	h := NewHeap()
	l := ListValue(h, []Value{Int(1)})
	_, err := GetItem(h, l, Int(5))
	if err == nil || err.Kind != "IndexError" {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

func TestStringNegativeIndexSingleChar(t *testing.T) {
	h := NewHeap()
	s := StringValue(h, "abcde")
	got, err := GetItem(h, s, Int(-2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Str(got) != "d" {
		t.Fatalf("s[-2] = %q, want \"d\"", Str(got))
	}
}

func TestDictMissingKeyRaisesKeyError(t *testing.T) {
	h := NewHeap()
	v, d := DictValue(h)
	d.Table.Set(stringKey("x"), Int(1))
	_, err := GetItem(h, v, StringValue(h, "y"))
	if err == nil || err.Kind != "KeyError" {
		t.Fatalf("expected KeyError, got %v", err)
	}
}

func TestDeleteThenReinsertMovesToEnd(t *testing.T) {
	h := NewHeap()
	_, d := DictValue(h)
	d.Table.Set(stringKey("a"), Int(1))
	d.Table.Set(stringKey("b"), Int(2))
	d.Table.Delete(stringKey("a"))
	d.Table.Set(stringKey("a"), Int(3))

	keys := d.Table.Keys()
	if len(keys) != 2 || keys[0].(stringKey) != "b" || keys[1].(stringKey) != "a" {
		t.Fatalf("unexpected key order after delete+reinsert: %v", keys)
	}
}

func TestEqualityFallsBackToIdentityAcrossUnrelatedTypes(t *testing.T) {
	h := NewHeap()
	class := NewClass(h, "Point", nil)
	inst := InstanceValue(h, class)
	eq, err := EqualValues(inst, Int(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eq {
		t.Fatalf("instance should not equal unrelated int by identity fallback")
	}
}

func TestSliceResolveBasic(t *testing.T) {
	h := NewHeap()
	l := ListValue(h, []Value{Int(0), Int(1), Int(2), Int(3), Int(4)})
	sl := SliceObject{HasStart: true, Start: 1, HasStop: true, Stop: 4}
	idx := SliceValue(h, sl)
	got, err := GetItem(h, l, idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lo := got.Object().(*ListObject)
	if len(lo.Elems) != 3 || lo.Elems[0].AsInt() != 1 || lo.Elems[2].AsInt() != 3 {
		t.Fatalf("slice result = %v", lo.Elems)
	}
}

func TestAttributeErrorOnDict(t *testing.T) {
	h := NewHeap()
	v, _ := DictValue(h)
	_, err := GetAttr(h, v, "anything")
	if err == nil || err.Kind != "AttributeError" {
		t.Fatalf("expected AttributeError, got %v", err)
	}
}

func TestInstanceAttributeAndBoundMethod(t *testing.T) {
	h := NewHeap()
	class := NewClass(h, "Counter", nil)
	fn := NewFunction(h, nil)
	closure := NewClosure(h, fn, nil)
	class.Methods.Set(stringKey("bump"), objectValue(closure))

	inst := InstanceValue(h, class)
	if err := SetAttr(inst, "n", Int(0)); err != nil {
		t.Fatalf("SetAttr: %v", err)
	}
	got, err := GetAttr(h, inst, "n")
	if err != nil || got.AsInt() != 0 {
		t.Fatalf("GetAttr n = %v, %v", got, err)
	}

	bound, err := GetAttr(h, inst, "bump")
	if err != nil {
		t.Fatalf("GetAttr bump: %v", err)
	}
	m, ok := bound.Object().(*MethodObject)
	if !ok {
		t.Fatalf("bump should resolve to a bound MethodObject, got %T", bound.Object())
	}
	if m.Fn != closure {
		t.Fatalf("bound method should wrap the class's closure")
	}
}
